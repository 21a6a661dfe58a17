package providers

// Registry holds the configured providers in registration order. Order
// matters: FindByModel returns the first registered provider that claims a
// model, so registering Gemini before OpenAI makes Gemini the preferred
// backend for any model both would accept. Registration happens once at
// startup; lookups afterwards are read-only, so no locking is needed.
type Registry struct {
	byName map[string]Provider
	order  []Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register adds a provider. Registering a name twice replaces the earlier
// provider but keeps its position in the order.
func (r *Registry) Register(p Provider) {
	name := p.Name()
	if _, ok := r.byName[name]; ok {
		for i, existing := range r.order {
			if existing.Name() == name {
				r.order[i] = p
				break
			}
		}
	} else {
		r.order = append(r.order, p)
	}
	r.byName[name] = p
}

// Get returns a provider by name and whether it was found.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.order) }

// Names returns the provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, p := range r.order {
		names[i] = p.Name()
	}
	return names
}

// Models returns the model metadata of every registered provider, grouped
// by provider in registration order. This is the payload of the models
// listing endpoint.
func (r *Registry) Models() []ModelInfo {
	var models []ModelInfo
	for _, p := range r.order {
		models = append(models, p.Models()...)
	}
	return models
}

// FindByModel returns the first registered provider that supports the given
// model.
func (r *Registry) FindByModel(model string) (Provider, bool) {
	for _, p := range r.order {
		if p.SupportsModel(model) {
			return p, true
		}
	}
	return nil, false
}
