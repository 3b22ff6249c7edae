// Package phase implements the phase dependency graph and action driver:
// cycle-free composition of phases, depth-first action dispatch with
// per-invocation memoization, and dynamic-scope option push/pop across a
// whole subtree.
package phase

import (
	"context"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/step"
)

// Action is a named verb invokable on a phase and propagated through its
// dependencies.
type Action string

const (
	ActionBuild  Action = "build"
	ActionClean  Action = "clean"
	ActionReport Action = "report"
	ActionRun    Action = "run"
	ActionSync   Action = "sync"
)

// Handler builds and runs one phase's action body. It is called only after
// every dependency's action has already succeeded and after the phase's own
// plan has been (re)built for the current ordinal. A concrete phase
// constructor (internal/cbuild, internal/extrepo) registers one Handler per
// action it supports via Base.Handle; an action with no registered handler
// resolves to NO_ACTION.
type Handler func(ctx context.Context, p *Base) step.Result

// PlanFunc computes p's file-operation plan from its (already-resolved)
// options and its dependencies' already-computed plans. It is called once
// per action ordinal, after dependencies have planned, before p's own
// handler runs.
type PlanFunc func(p *Base) error

// Override is one (value, operator) pair pushed by PushOverrides.
type Override struct {
	Value option.Value
	Op    option.Op
}

// Base is the concrete phase node: every phase variant (Compile, Archive,
// LinkToExe, an external-repo fetch, ...) is a *Base carrying that variant's
// options and handlers, per spec.md §9's "replace dynamic dispatch via
// method lookup with a registry" design note. There is no separate
// interface type for phases: dependencies and the graph operate on *Base
// directly, and FileData's weak generating-phase reference is the narrow
// fileplan.GeneratingPhase interface, which *Base satisfies.
type Base struct {
	name  string
	group string

	dependencies []*Base
	options      *option.Store
	plan         *fileplan.Plan
	handlers     map[Action]Handler
	planFunc     PlanFunc

	// BeforeDependencies runs once per ordinal, before any dependency's Do
	// is invoked, so a phase variant can push overrides onto its own
	// subtree that must be visible while dependencies plan (e.g.
	// LinkToSharedObject forcing relocatable_code=true downstream before
	// a dependency compile phase plans its object outputs).
	BeforeDependencies func(p *Base, action Action)

	seenOrdinal bool
	lastOrdinal uint64
	lastResult  step.Result
}

// New constructs an empty phase with no dependencies, no handlers, and a
// fresh options store. Concrete phase constructors call this, then push
// their default options and call Handle for each action they support.
func New(name, group string) *Base {
	return &Base{
		name:     name,
		group:    group,
		options:  option.NewStore(),
		handlers: map[Action]Handler{},
	}
}

// PhaseName satisfies fileplan.GeneratingPhase.
func (p *Base) PhaseName() string { return p.name }

// Group is the phase's group qualifier, used to form "group.name" CLI
// selectors; empty for an ungrouped phase.
func (p *Base) Group() string { return p.group }

// Options is the phase's options store. Handlers and planners resolve their
// configuration through it; nothing outside this phase should push to it
// directly except via PushOverrides.
func (p *Base) Options() *option.Store { return p.options }

// Plan is the phase's most recently computed file-operation plan. It is nil
// until the first Do call that reaches planning.
func (p *Base) Plan() *fileplan.Plan { return p.plan }

// Dependencies returns the phase's direct dependencies in declared order.
func (p *Base) Dependencies() []*Base { return append([]*Base(nil), p.dependencies...) }

// Handle registers handler as the body for action. Calling it again for the
// same action replaces the prior handler.
func (p *Base) Handle(action Action, handler Handler) {
	p.handlers[action] = handler
}

// SetPlanFunc installs the planner called once per action ordinal before any
// handler runs.
func (p *Base) SetPlanFunc(fn PlanFunc) {
	p.planFunc = fn
}

// AddDependency appends dep to p's dependency list, rejecting the edge with
// a *CircularDependencyError if p is already reachable from dep (which would
// close a cycle). This is spec.md §4.2's "checked at construction time, not
// deferred" admission rule.
func (p *Base) AddDependency(dep *Base) error {
	if dep == p || isReachable(dep, p) {
		return &CircularDependencyError{Target: p.name, New: dep.name}
	}
	p.dependencies = append(p.dependencies, dep)
	return nil
}

func isReachable(from, target *Base) bool {
	if from == target {
		return true
	}
	for _, d := range from.dependencies {
		if isReachable(d, target) {
			return true
		}
	}
	return false
}

// PushOverrides applies every (key, value, op) entry to p's own options,
// then recursively to every dependency, in declared order. Per spec.md
// §4.2 this is intentionally dynamic scope: the overrides are live only
// until the matching PopOverrides call.
func (p *Base) PushOverrides(overrides map[string]Override) {
	for key, o := range overrides {
		p.options.Push(key, o.Value, o.Op)
	}
	for _, d := range p.dependencies {
		d.PushOverrides(overrides)
	}
}

// PopOverrides walks dependencies in reverse declared order first, then
// pops each key from p's own options -- the exact mirror image of
// PushOverrides' traversal, per spec.md §4.2.
func (p *Base) PopOverrides(keys []string) {
	for i := len(p.dependencies) - 1; i >= 0; i-- {
		p.dependencies[i].PopOverrides(keys)
	}
	for _, key := range keys {
		p.options.Pop(key)
	}
}

// Clone deep-copies p's options into a new, independent phase under name,
// sharing p's handlers, planner, and dependency list (dependencies are
// shared references, matching spec.md's "dependencies are non-owning
// back-edges"; only the options diverge). Subsequent pushes to either
// phase's options never affect the other, per spec.md §4.2's cloning
// requirement and §9's reference-counted-entries note -- Store.Clone
// implements the sharing/divergence contract option.Store needs.
func (p *Base) Clone(name string, overrides map[string]option.Value) *Base {
	clone := &Base{
		name:         name,
		group:        p.group,
		dependencies: append([]*Base(nil), p.dependencies...),
		options:      p.options.Clone(),
		handlers:     p.handlers,
		planFunc:     p.planFunc,
	}
	for key, v := range overrides {
		clone.options.Push(key, v, option.Replace)
	}
	return clone
}

// Do runs action on p (and, first, on every dependency) under ordinal,
// implementing spec.md §4.2's full order: dependencies depth-first in
// declared order, DEPENDENCY_ERROR short-circuit, then p's own plan and
// handler, with memoization so a phase reachable via multiple paths within
// one ordinal executes its body at most once.
func (p *Base) Do(ctx context.Context, action Action, ordinal uint64) step.Result {
	if p.seenOrdinal && p.lastOrdinal == ordinal {
		return p.lastResult
	}
	p.seenOrdinal = true
	p.lastOrdinal = ordinal

	if p.BeforeDependencies != nil {
		p.BeforeDependencies(p, action)
	}

	// Every dependency runs, even after an earlier one fails: spec.md §7
	// requires the driver to "continue through sibling dependencies so
	// that a report-style action still reports everything." Only this
	// phase's own plan/handler is skipped once any dependency failed.
	depsFailed := false
	for _, d := range p.dependencies {
		res := d.Do(ctx, action, ordinal)
		if !res.Code.Success() {
			depsFailed = true
		}
	}
	if depsFailed {
		p.lastResult = step.Result{Code: step.DependencyError, Notes: "a dependency failed"}
		return p.lastResult
	}

	if p.planFunc != nil {
		if p.plan == nil {
			p.plan = fileplan.New(p)
		} else {
			p.plan.Reset()
		}
		if err := p.planFunc(p); err != nil {
			p.lastResult = step.Result{Code: step.InvalidOption, Notes: err.Error()}
			return p.lastResult
		}
	}

	handler, ok := p.handlers[action]
	if !ok {
		p.lastResult = step.Result{Code: step.NoAction}
		return p.lastResult
	}
	p.lastResult = handler(ctx, p)
	return p.lastResult
}
