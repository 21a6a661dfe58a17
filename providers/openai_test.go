package providers

import "testing"

func TestNewOpenAI(t *testing.T) {
	p, err := NewOpenAI("test-key", "")
	if err != nil {
		t.Fatalf("NewOpenAI() error: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}
}

func TestOpenAIProvider_SupportsModel(t *testing.T) {
	p, _ := NewOpenAI("test-key", "")

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"gpt-4o-mini", true},
		{"chatgpt-4o-latest", true},
		{"o1", true},
		{"o3-mini", true},
		{"ft:gpt-4o:custom", true},
		{"gemini-2.0-flash", false},
		{"ollama", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.SupportsModel(tt.model); got != tt.want {
			t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestOpenAIProvider_Models(t *testing.T) {
	p, _ := NewOpenAI("test-key", "")
	models := p.Models()
	if len(models) != len(p.SupportedModels()) {
		t.Fatalf("Models() returned %d entries, want %d", len(models), len(p.SupportedModels()))
	}
	for _, m := range models {
		if m.OwnedBy != "openai" {
			t.Errorf("ModelInfo.OwnedBy = %q, want openai", m.OwnedBy)
		}
	}
}

func TestBuildOpenAIMessages(t *testing.T) {
	out := buildOpenAIMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if out[0].OfSystem == nil {
		t.Error("expected first message to be a system message")
	}
	if out[1].OfUser == nil {
		t.Error("expected second message to be a user message")
	}
	if out[2].OfAssistant == nil {
		t.Error("expected third message to be an assistant message")
	}
}
