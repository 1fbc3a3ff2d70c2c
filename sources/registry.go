package sources

import (
	"fmt"
)

// Registry is an immutable, ordered list of sources.
type Registry struct {
	sources []Source
	byName  map[string]int
}

// NewRegistry validates the sources and keeps them in the given order.
func NewRegistry(list ...Source) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(list))}
	for _, s := range list {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate source %s", s.Name)
		}
		if s.Kind == "" {
			s.Kind = KindGovernment
		}
		r.byName[s.Name] = len(r.sources)
		r.sources = append(r.sources, s.clone())
	}
	return r, nil
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := NewRegistry(catalog()...)
	if err != nil {
		panic(fmt.Sprintf("built-in source catalog is invalid: %v", err))
	}
	return r
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

// All returns copies of every source in registry order.
func (r *Registry) All() []Source {
	return r.filter(func(Source) bool { return true })
}

// Government returns the government sources in registry order.
func (r *Registry) Government() []Source {
	return r.filter(func(s Source) bool { return s.Kind == KindGovernment })
}

// News returns the news outlets in registry order.
func (r *Registry) News() []Source {
	return r.filter(func(s Source) bool { return s.Kind == KindNews })
}

// GovernmentTier returns the government sources of one run tier.
func (r *Registry) GovernmentTier(t Tier) []Source {
	return r.filter(func(s Source) bool { return s.Kind == KindGovernment && s.Tier() == t })
}

// Lookup finds a source by name.
func (r *Registry) Lookup(name string) (Source, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Source{}, false
	}
	return r.sources[i].clone(), true
}

func (r *Registry) filter(keep func(Source) bool) []Source {
	out := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		if keep(s) {
			out = append(out, s.clone())
		}
	}
	return out
}
