// Package pyke is the public surface a make-module plugin links against: a
// Registry to declare phases, and nothing else. It exists because Go has no
// runtime equivalent of loading and executing an arbitrary source file the
// way the original tool's -m flag loads a Python make file: a make-module
// here is a separately built Go plugin (see internal/makeplugin) whose
// exported RegisterPhases(*pyke.Registry) populates one of these.
package pyke

import (
	"sort"

	"github.com/pyke-go/pyke/internal/phase"
)

// Registry collects the phases one make-module builds, in build order. It
// replaces the module-level use_phase()/use_phases() calls of the original
// tool: a make-module constructs its phase.Base graph and calls Use for
// every phase that should be selectable from the command line.
type Registry struct {
	byName map[string]*phase.Base
	all    []*phase.Base
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*phase.Base{}}
}

// Use registers p under its bare name, and additionally under
// "group.name" when p belongs to a group, and records it as the most
// recently registered phase. Re-registering a name replaces the prior
// binding, matching use_phase()'s last-one-wins behavior.
func (r *Registry) Use(p *phase.Base) *phase.Base {
	r.byName[p.PhaseName()] = p
	if p.Group() != "" {
		r.byName[p.Group()+"."+p.PhaseName()] = p
	}
	r.all = append(r.all, p)
	return p
}

// UseAll registers every phase in ps, in order, equivalent to calling Use
// for each.
func (r *Registry) UseAll(ps ...*phase.Base) {
	for _, p := range ps {
		r.Use(p)
	}
}

// Lookup resolves name (bare or "group.name") to its phase.
func (r *Registry) Lookup(name string) (*phase.Base, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Last returns the most recently Use-registered phase: the CLI's initial
// active phase when no -p flag is given.
func (r *Registry) Last() (*phase.Base, bool) {
	if len(r.all) == 0 {
		return nil, false
	}
	return r.all[len(r.all)-1], true
}

// Names returns every registered selector in sorted order, for help text
// and for suggesting a near match against an unrecognized -p name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
