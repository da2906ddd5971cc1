package domain

import (
	"context"
	"fmt"
	"time"
)

// Capability is one operation a provider may support
type Capability string

const (
	CapabilityText    Capability = "text"
	CapabilityID      Capability = "id"
	CapabilityBarcode Capability = "barcode"
)

// Provider is an upstream nutrition data source. Concrete providers
// implement any subset of TextSearcher, DetailFetcher and BarcodeLookup.
type Provider interface {
	Name() string
}

// TextSearcher searches a provider by free text
type TextSearcher interface {
	Provider
	SearchByText(ctx context.Context, query string, maxResults int) ([]FoodRecord, error)
}

// DetailFetcher fetches a provider's own record by its provider-scoped id
type DetailFetcher interface {
	Provider
	GetByID(ctx context.Context, id string) ([]FoodRecord, error)
}

// BarcodeLookup resolves a GTIN/UPC/EAN barcode
type BarcodeLookup interface {
	Provider
	GetByBarcode(ctx context.Context, code string) ([]FoodRecord, error)
}

// Supports reports whether p implements the capability
func Supports(p Provider, c Capability) bool {
	switch c {
	case CapabilityText:
		_, ok := p.(TextSearcher)
		return ok
	case CapabilityID:
		_, ok := p.(DetailFetcher)
		return ok
	case CapabilityBarcode:
		_, ok := p.(BarcodeLookup)
		return ok
	}
	return false
}

// Capabilities lists what p supports, in a stable order
func Capabilities(p Provider) []Capability {
	var caps []Capability
	for _, c := range []Capability{CapabilityText, CapabilityID, CapabilityBarcode} {
		if Supports(p, c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// RegistryEntry is a provider plus its per-call timeout
type RegistryEntry struct {
	Provider Provider
	Timeout  time.Duration
	Priority int
}

// Registry maps provider tags to adapters. It is built once at startup and
// only read afterwards, so it needs no locking.
type Registry struct {
	entries map[string]RegistryEntry
	order   []string
}

// DefaultProviderTimeout applies to entries registered without a timeout
const DefaultProviderTimeout = 8 * time.Second

// NewRegistry builds a registry. Providers are prioritized in the order
// given; duplicate names are rejected.
func NewRegistry(entries ...RegistryEntry) (*Registry, error) {
	r := &Registry{entries: make(map[string]RegistryEntry, len(entries))}
	for i, e := range entries {
		if e.Provider == nil {
			return nil, fmt.Errorf("registry entry %d has no provider", i)
		}
		name := e.Provider.Name()
		if _, dup := r.entries[name]; dup {
			return nil, fmt.Errorf("provider %q registered twice", name)
		}
		if e.Timeout <= 0 {
			e.Timeout = DefaultProviderTimeout
		}
		e.Priority = i
		r.entries[name] = e
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get returns the entry for a provider tag
func (r *Registry) Get(name string) (RegistryEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns provider tags in priority order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Eligible returns entries supporting c, in priority order
func (r *Registry) Eligible(c Capability) []RegistryEntry {
	var out []RegistryEntry
	for _, name := range r.order {
		e := r.entries[name]
		if Supports(e.Provider, c) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	return len(r.order)
}

// Fingerprint identifies the ordered provider set eligible for c
func (r *Registry) Fingerprint(c Capability) string {
	names := make([]string, 0, len(r.order))
	for _, e := range r.Eligible(c) {
		names = append(names, e.Provider.Name())
	}
	return fmt.Sprint(names)
}

// Policy selects how the resolver dispatches to providers
type Policy string

const (
	PolicyFallback  Policy = "fallback"
	PolicyAggregate Policy = "aggregate"
	PolicySingle    Policy = "single"
)

// Valid reports whether p is a known policy
func (p Policy) Valid() bool {
	switch p {
	case PolicyFallback, PolicyAggregate, PolicySingle:
		return true
	}
	return false
}
