// Package hooks provides the ordered extension points around reconciliation.
//
// Each Point owns a chain of named hooks that run in registration order. A
// hook receives a pointer to the point's context, may modify it, and returns
// a Signal. Skip stops the rest of the chain for that item; what is skipped
// depends on the point:
//
//   - BeforeBundleBuild: the whole record, nothing is persisted
//   - BeforeMatch, AfterClassify: the entry, which becomes Skipped
//   - BeforeQualifierAdd, BeforeReferenceAdd: that qualifier or reference
//   - AfterBundleApplied: only the remaining hooks
package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/planner"
)

// Point is an extension point.
type Point uint8

// Points in the order they fire.
const (
	BeforeBundleBuild Point = iota
	BeforeMatch
	AfterClassify
	BeforeQualifierAdd
	BeforeReferenceAdd
	AfterBundleApplied
	numPoints
)

var pointNames = [numPoints]string{
	BeforeBundleBuild:  "before_bundle_build",
	BeforeMatch:        "before_match",
	AfterClassify:      "after_classify",
	BeforeQualifierAdd: "before_qualifier_add",
	BeforeReferenceAdd: "before_reference_add",
	AfterBundleApplied: "after_bundle_applied",
}

// String returns the point name.
func (p Point) String() string {
	if p < numPoints {
		return pointNames[p]
	}
	return fmt.Sprintf("point(%d)", p)
}

// Points returns every point in firing order.
func Points() []Point {
	out := make([]Point, numPoints)
	for i := range out {
		out[i] = Point(i)
	}
	return out
}

// Signal is a hook's verdict.
type Signal uint8

// Signals.
const (
	Continue Signal = iota
	Mutated
	Skip
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case Mutated:
		return "mutated"
	case Skip:
		return "skip"
	default:
		return "continue"
	}
}

// Hook is a function registered at a point.
type Hook[C any] func(ctx context.Context, c *C) Signal

// BundleContext is passed to BeforeBundleBuild hooks.
type BundleContext struct {
	Record *claims.Record
	Bundle claims.Bundle
}

// FactContext is passed to BeforeMatch hooks. Replacing Fact changes what
// gets classified.
type FactContext struct {
	Record *claims.Record
	Index  int
	Fact   claims.DesiredFact
}

// EntryContext is passed to AfterClassify hooks. Entry carries the
// classification and the Reasons recorded for it.
type EntryContext struct {
	Record *claims.Record
	Entry  *planner.Entry
}

// QualifierContext is passed to BeforeQualifierAdd hooks once per qualifier
// about to be written.
type QualifierContext struct {
	Record    *claims.Record
	Entry     *planner.Entry
	Qualifier claims.DesiredQualifier
}

// ReferenceContext is passed to BeforeReferenceAdd hooks once per reference
// about to be written.
type ReferenceContext struct {
	Record    *claims.Record
	Entry     *planner.Entry
	Reference claims.DesiredReference
}

// AppliedContext is passed to AfterBundleApplied hooks.
type AppliedContext struct {
	Record  *claims.Record
	Plan    *planner.Plan
	Outcome planner.Outcome
}

type registration struct {
	name string
	fn   any
}

// Registry holds the hook chains. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	chains [numPoints][]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn to the chain of point. fn must be a Hook of the point's
// context type, or a plain function with the same signature.
func (r *Registry) Register(point Point, name string, fn any) error {
	if point >= numPoints {
		return errors.NewValidationError("point", point, "unknown hook point")
	}
	if fn == nil {
		return errors.NewValidationError("hook", name, "cannot be nil")
	}
	var (
		h  any
		ok bool
	)
	switch point {
	case BeforeBundleBuild:
		h, ok = asHook[BundleContext](fn)
	case BeforeMatch:
		h, ok = asHook[FactContext](fn)
	case AfterClassify:
		h, ok = asHook[EntryContext](fn)
	case BeforeQualifierAdd:
		h, ok = asHook[QualifierContext](fn)
	case BeforeReferenceAdd:
		h, ok = asHook[ReferenceContext](fn)
	case AfterBundleApplied:
		h, ok = asHook[AppliedContext](fn)
	}
	if !ok {
		return errors.NewValidationError("hook", name, fmt.Sprintf("wrong signature %T for %s", fn, point))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[point] = append(r.chains[point], registration{name: name, fn: h})
	return nil
}

func asHook[C any](fn any) (Hook[C], bool) {
	switch f := fn.(type) {
	case Hook[C]:
		return f, f != nil
	case func(context.Context, *C) Signal:
		return f, f != nil
	}
	return nil, false
}

// OnBeforeBundleBuild registers a BeforeBundleBuild hook.
func (r *Registry) OnBeforeBundleBuild(name string, fn Hook[BundleContext]) {
	r.mustRegister(BeforeBundleBuild, name, fn)
}

// OnBeforeMatch registers a BeforeMatch hook.
func (r *Registry) OnBeforeMatch(name string, fn Hook[FactContext]) {
	r.mustRegister(BeforeMatch, name, fn)
}

// OnAfterClassify registers an AfterClassify hook.
func (r *Registry) OnAfterClassify(name string, fn Hook[EntryContext]) {
	r.mustRegister(AfterClassify, name, fn)
}

// OnBeforeQualifierAdd registers a BeforeQualifierAdd hook.
func (r *Registry) OnBeforeQualifierAdd(name string, fn Hook[QualifierContext]) {
	r.mustRegister(BeforeQualifierAdd, name, fn)
}

// OnBeforeReferenceAdd registers a BeforeReferenceAdd hook.
func (r *Registry) OnBeforeReferenceAdd(name string, fn Hook[ReferenceContext]) {
	r.mustRegister(BeforeReferenceAdd, name, fn)
}

// OnAfterBundleApplied registers an AfterBundleApplied hook.
func (r *Registry) OnAfterBundleApplied(name string, fn Hook[AppliedContext]) {
	r.mustRegister(AfterBundleApplied, name, fn)
}

// mustRegister panics on a nil hook; the typed On methods cannot otherwise fail.
func (r *Registry) mustRegister(point Point, name string, fn any) {
	if err := r.Register(point, name, fn); err != nil {
		panic(err)
	}
}

// Names returns the hook names registered at point, in run order.
func (r *Registry) Names(point Point) []string {
	if point >= numPoints {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.chains[point]))
	for i, reg := range r.chains[point] {
		names[i] = reg.name
	}
	return names
}

// Len returns the number of hooks registered at point.
func (r *Registry) Len(point Point) int {
	if point >= numPoints {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains[point])
}

// Run helpers. A nil registry runs nothing.

// RunBeforeBundleBuild runs the BeforeBundleBuild chain.
func (r *Registry) RunBeforeBundleBuild(ctx context.Context, c *BundleContext) Signal {
	return run(ctx, r, BeforeBundleBuild, c)
}

// RunBeforeMatch runs the BeforeMatch chain.
func (r *Registry) RunBeforeMatch(ctx context.Context, c *FactContext) Signal {
	return run(ctx, r, BeforeMatch, c)
}

// RunAfterClassify runs the AfterClassify chain.
func (r *Registry) RunAfterClassify(ctx context.Context, c *EntryContext) Signal {
	return run(ctx, r, AfterClassify, c)
}

// RunBeforeQualifierAdd runs the BeforeQualifierAdd chain.
func (r *Registry) RunBeforeQualifierAdd(ctx context.Context, c *QualifierContext) Signal {
	return run(ctx, r, BeforeQualifierAdd, c)
}

// RunBeforeReferenceAdd runs the BeforeReferenceAdd chain.
func (r *Registry) RunBeforeReferenceAdd(ctx context.Context, c *ReferenceContext) Signal {
	return run(ctx, r, BeforeReferenceAdd, c)
}

// RunAfterBundleApplied runs the AfterBundleApplied chain.
func (r *Registry) RunAfterBundleApplied(ctx context.Context, c *AppliedContext) Signal {
	return run(ctx, r, AfterBundleApplied, c)
}

// run executes a chain on a snapshot so hooks may register further hooks
// without deadlocking. The result is Skip if any hook skipped, else Mutated
// if any hook mutated, else Continue.
func run[C any](ctx context.Context, r *Registry, point Point, c *C) Signal {
	if r == nil {
		return Continue
	}
	r.mu.RLock()
	chain := append([]registration(nil), r.chains[point]...)
	r.mu.RUnlock()

	result := Continue
	for _, reg := range chain {
		switch reg.fn.(Hook[C])(ctx, c) {
		case Skip:
			return Skip
		case Mutated:
			result = Mutated
		}
	}
	return result
}
