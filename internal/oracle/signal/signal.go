package signal

import (
	"context"
	"fmt"
	"sort"

	"assetgate/internal/domain"
)

// Group identifies which composite score a provider contributes to.
type Group string

const (
	GroupExistence Group = "existence"
	GroupOwnership Group = "ownership"
)

// Provider is the narrow interface every signal source implements. Simulated
// providers compute their score from a content-derived seed; real
// integrations can be swapped in without touching the aggregator.
type Provider interface {
	// Name returns the provider key used for weight lookup.
	Name() string

	// Group returns which composite score this provider feeds.
	Group() Group

	// Evaluate scores the submission and attaches supporting evidence.
	Evaluate(ctx context.Context, sub domain.Submission) (domain.Signal, error)
}

// Registry maintains all registered signal providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("signal provider %s already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// ListByGroup returns the providers of a group in name order.
func (r *Registry) ListByGroup(g Group) []Provider {
	var result []Provider
	for _, p := range r.providers {
		if p.Group() == g {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// All returns every registered provider in name order.
func (r *Registry) All() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Default returns a registry loaded with all simulated providers.
func Default() *Registry {
	r := NewRegistry()
	for _, p := range []Provider{
		Satellite{},
		LandRegistry{},
		Vision{},
		Activity{},
		Historical{},
		DID{},
		RegistryOwnership{},
		Reputation{},
	} {
		// Names are distinct constants, registration cannot collide.
		_ = r.Register(p)
	}
	return r
}
