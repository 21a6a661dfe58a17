package tubelens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubelens/tubelens/internal/analysislog"
	"github.com/tubelens/tubelens/internal/cache"
	"github.com/tubelens/tubelens/internal/csvdata"
	"github.com/tubelens/tubelens/internal/logging"
	"github.com/tubelens/tubelens/internal/metrics"
	"github.com/tubelens/tubelens/internal/prompt"
	"github.com/tubelens/tubelens/internal/session"
	"github.com/tubelens/tubelens/providers"
)

// Op selects the analysis operation.
type Op string

// Supported analysis operations.
const (
	OpSEO      Op = "seo"
	OpKeywords Op = "keywords"
	OpGap      Op = "gap"
)

// contextTurns is how many previous turns are injected into a prompt.
const contextTurns = 5

// ErrInvalidRequest marks failures caused by the request itself (bad
// operation, missing fields, unknown model) as opposed to backend failures.
// HTTP handlers translate it to a 400 instead of a 502.
var ErrInvalidRequest = errors.New("invalid request")

// AnalyzeRequest describes one analysis run.
type AnalyzeRequest struct {
	Op        Op     `json:"op"`
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
	CSVPath   string `json:"csv_path"`
	// CompetitorCSVPath is required for OpGap, ignored otherwise.
	CompetitorCSVPath string `json:"competitor_csv_path,omitempty"`
	Model             string `json:"model,omitempty"`
	NoCache           bool   `json:"no_cache,omitempty"`
}

// AnalyzeResult is the outcome of an analysis run.
type AnalyzeResult struct {
	SessionID string         `json:"session_id"`
	Op        Op             `json:"op"`
	Model     string         `json:"model"`
	Provider  string         `json:"provider"`
	Answer    string         `json:"answer"`
	CacheHit  bool           `json:"cache_hit"`
	CSVReport csvdata.Report `json:"csv_report"`
	Usage     providers.Usage `json:"usage"`
}

// cachedAnswer is the payload stored in the tiered cache per analysis key.
type cachedAnswer struct {
	Answer   string          `json:"answer"`
	Provider string          `json:"provider"`
	Usage    providers.Usage `json:"usage"`
}

// Analyzer orchestrates one analysis run: load and validate the CSV, check
// the cache, build the prompt with session context, call the backend, then
// record the turn and the run. Construct it once at process startup and
// pass it by reference; it holds no global state of its own.
type Analyzer struct {
	registry     *providers.Registry
	cache        *cache.Tiered
	sessions     *session.Store
	logWriter    analysislog.Writer
	defaultModel string
}

// NewAnalyzer wires an Analyzer from its collaborators. logWriter may be
// analysislog.NoopWriter to disable run persistence.
func NewAnalyzer(registry *providers.Registry, c *cache.Tiered, sessions *session.Store, logWriter analysislog.Writer, defaultModel string) *Analyzer {
	return &Analyzer{
		registry:     registry,
		cache:        c,
		sessions:     sessions,
		logWriter:    logWriter,
		defaultModel: defaultModel,
	}
}

// Sessions exposes the conversation store for the session endpoints.
func (a *Analyzer) Sessions() *session.Store { return a.sessions }

// Cache exposes the tiered cache for the health endpoint and maintenance.
func (a *Analyzer) Cache() *cache.Tiered { return a.cache }

// Analyze runs one analysis operation. A cache hit skips the provider call
// entirely but still records the turn in the session, so follow-up questions
// see it as conversation context either way.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	start := time.Now()
	res, err := a.analyze(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AnalyzeRequests.WithLabelValues(string(req.Op), status).Inc()
	metrics.AnalyzeDuration.WithLabelValues(string(req.Op)).Observe(time.Since(start).Seconds())
	return res, err
}

func (a *Analyzer) analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	switch req.Op {
	case OpSEO, OpKeywords, OpGap:
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, req.Op)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	if req.CSVPath == "" {
		return nil, fmt.Errorf("%w: csv_path is required", ErrInvalidRequest)
	}
	if req.Op == OpGap && req.CompetitorCSVPath == "" {
		return nil, fmt.Errorf("%w: competitor_csv_path is required for gap analysis", ErrInvalidRequest)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	provider, ok := a.registry.FindByModel(model)
	if !ok {
		return nil, fmt.Errorf("%w: no provider supports model %q", ErrInvalidRequest, model)
	}

	videos, report, err := csvdata.Load(req.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("loading channel csv: %w", err)
	}
	var competitor []csvdata.Video
	if req.Op == OpGap {
		competitor, _, err = csvdata.Load(req.CompetitorCSVPath)
		if err != nil {
			return nil, fmt.Errorf("loading competitor csv: %w", err)
		}
	}

	result := &AnalyzeResult{
		SessionID: sessionID,
		Op:        req.Op,
		Model:     model,
		CSVReport: report,
	}

	key := analysisKey(req.Op, model, req.Question, req.CSVPath, req.CompetitorCSVPath)
	if !req.NoCache {
		if raw, ok := a.cache.Get(ctx, key); ok {
			var cached cachedAnswer
			if json.Unmarshal(raw, &cached) == nil {
				result.Answer = cached.Answer
				result.Provider = cached.Provider
				result.Usage = cached.Usage
				result.CacheHit = true
				a.recordRun(ctx, sessionID, req, result)
				return result, nil
			}
		}
	}

	history := a.sessions.ContextText(sessionID, contextTurns)

	var msgs []providers.Message
	switch req.Op {
	case OpSEO:
		msgs = prompt.SEO(videos, req.Question, history)
	case OpKeywords:
		msgs = prompt.Keywords(videos, req.Question, history)
	case OpGap:
		msgs = prompt.Gap(videos, competitor, req.Question, history)
	}

	resp, err := provider.Complete(ctx, providers.Request{Model: model, Messages: msgs})
	if err != nil {
		a.recordError(ctx, sessionID, req, model, provider.Name(), err)
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	result.Answer = resp.Content
	result.Provider = resp.Provider
	result.Usage = resp.Usage

	a.cache.Set(ctx, key, cachedAnswer{
		Answer:   resp.Content,
		Provider: resp.Provider,
		Usage:    resp.Usage,
	}, 0)

	a.recordRun(ctx, sessionID, req, result)
	return result, nil
}

// recordRun appends the turn to the session and persists the run record.
// Both are additive: a failure in either leaves the result untouched.
func (a *Analyzer) recordRun(ctx context.Context, sessionID string, req AnalyzeRequest, res *AnalyzeResult) {
	a.sessions.AddMessage(sessionID, req.Question, res.Answer, filepath.Base(req.CSVPath))

	if err := a.logWriter.Write(ctx, analysislog.Entry{
		TraceID:          logging.TraceIDFromContext(ctx),
		SessionID:        sessionID,
		Op:               string(req.Op),
		Model:            res.Model,
		Provider:         res.Provider,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		TotalTokens:      res.Usage.TotalTokens,
		CacheHit:         res.CacheHit,
	}); err != nil {
		logging.FromContext(ctx).Warn("analysis log write failed", "error", err)
	}
}

func (a *Analyzer) recordError(ctx context.Context, sessionID string, req AnalyzeRequest, model, providerName string, cause error) {
	if err := a.logWriter.Write(ctx, analysislog.Entry{
		TraceID:      logging.TraceIDFromContext(ctx),
		SessionID:    sessionID,
		Op:           string(req.Op),
		Model:        model,
		Provider:     providerName,
		ErrorMessage: cause.Error(),
	}); err != nil {
		logging.FromContext(ctx).Warn("analysis log write failed", "error", err)
	}
}

// analysisKey derives the deterministic cache key for a run. Collisions are
// acceptable cache semantics here, same as the file tier's hashed filenames.
func analysisKey(op Op, model, question, csvPath, competitorPath string) string {
	h := sha256.New()
	for _, part := range []string{string(op), model, question, csvPath, competitorPath} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "analysis:" + hex.EncodeToString(h.Sum(nil))
}
