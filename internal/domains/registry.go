// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package domains

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/stockdesk/internal/validation"
)

// ErrUnknownDomain is returned when a name is not registered.
var ErrUnknownDomain = errors.New("unknown domain")

// Registry maps domain names to their definitions.
// Registration order is preserved and is the default processing order.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*Domain
	order   []string
}

// NewRegistry creates a registry holding the given domains.
func NewRegistry(ds ...Domain) (*Registry, error) {
	r := &Registry{domains: make(map[string]*Domain, len(ds))}
	for i := range ds {
		if err := r.Register(ds[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a domain. Names must be unique and valid identifiers.
func (r *Registry) Register(d Domain) error {
	if !validation.IsDomainName(d.Name) {
		return fmt.Errorf("invalid domain name %q", d.Name)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.domains[d.Name]; exists {
		return fmt.Errorf("domain %s already registered", d.Name)
	}
	dc := d
	r.domains[d.Name] = &dc
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the domain registered under name.
func (r *Registry) Lookup(name string) (*Domain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	return d, nil
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns all registered domains in registration order.
func (r *Registry) All() []*Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Domain, len(r.order))
	for i, name := range r.order {
		out[i] = r.domains[name]
	}
	return out
}

// Len returns the number of registered domains.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
