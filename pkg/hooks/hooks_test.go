package hooks_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/values"
)

func TestRunOrderAndSkip(t *testing.T) {
	r := hooks.NewRegistry()
	var calls []string
	r.OnBeforeMatch("first", func(_ context.Context, c *hooks.FactContext) hooks.Signal {
		calls = append(calls, "first")
		c.Fact = c.Fact.WithValue(values.Entity("Q6"))
		return hooks.Mutated
	})
	r.OnBeforeMatch("second", func(context.Context, *hooks.FactContext) hooks.Signal {
		calls = append(calls, "second")
		return hooks.Skip
	})
	r.OnBeforeMatch("third", func(context.Context, *hooks.FactContext) hooks.Signal {
		calls = append(calls, "third")
		return hooks.Continue
	})

	fc := &hooks.FactContext{Fact: claims.NewFact("P31", values.Entity("Q5")).Build()}
	sig := r.RunBeforeMatch(context.Background(), fc)

	assert.Equal(t, hooks.Skip, sig)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, "Q6", fc.Fact.Value().Text())
	assert.Equal(t, []string{"first", "second", "third"}, r.Names(hooks.BeforeMatch))
}

func TestRunMutated(t *testing.T) {
	r := hooks.NewRegistry()
	r.OnAfterBundleApplied("a", func(context.Context, *hooks.AppliedContext) hooks.Signal { return hooks.Continue })
	r.OnAfterBundleApplied("b", func(context.Context, *hooks.AppliedContext) hooks.Signal { return hooks.Mutated })
	r.OnAfterBundleApplied("c", func(context.Context, *hooks.AppliedContext) hooks.Signal { return hooks.Continue })

	assert.Equal(t, hooks.Mutated, r.RunAfterBundleApplied(context.Background(), &hooks.AppliedContext{}))
	assert.Equal(t, hooks.Continue, r.RunAfterClassify(context.Background(), &hooks.EntryContext{}))
}

func TestNilRegistryRunsNothing(t *testing.T) {
	var r *hooks.Registry
	assert.Equal(t, hooks.Continue, r.RunBeforeBundleBuild(context.Background(), &hooks.BundleContext{}))
}

func TestRegister(t *testing.T) {
	r := hooks.NewRegistry()

	err := r.Register(hooks.BeforeQualifierAdd, "plain", func(context.Context, *hooks.QualifierContext) hooks.Signal {
		return hooks.Continue
	})
	require.NoError(t, err)

	var typed hooks.Hook[hooks.ReferenceContext] = func(context.Context, *hooks.ReferenceContext) hooks.Signal {
		return hooks.Skip
	}
	require.NoError(t, r.Register(hooks.BeforeReferenceAdd, "typed", typed))
	assert.Equal(t, hooks.Skip, r.RunBeforeReferenceAdd(context.Background(), &hooks.ReferenceContext{}))

	err = r.Register(hooks.BeforeMatch, "wrong", func(context.Context, *hooks.EntryContext) hooks.Signal {
		return hooks.Continue
	})
	assert.True(t, errors.IsValidationError(err))

	err = r.Register(hooks.Point(42), "unknown", typed)
	assert.True(t, errors.IsValidationError(err))

	err = r.Register(hooks.BeforeMatch, "nil", nil)
	assert.True(t, errors.IsValidationError(err))

	assert.Equal(t, 1, r.Len(hooks.BeforeQualifierAdd))
	assert.Equal(t, 0, r.Len(hooks.BeforeMatch))
}

func TestPoints(t *testing.T) {
	names := make([]string, 0)
	for _, p := range hooks.Points() {
		names = append(names, p.String())
	}
	assert.Equal(t, []string{
		"before_bundle_build", "before_match", "after_classify",
		"before_qualifier_add", "before_reference_add", "after_bundle_applied",
	}, names)
}

func TestConcurrentRegistration(t *testing.T) {
	r := hooks.NewRegistry()
	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.OnBeforeBundleBuild("h", func(context.Context, *hooks.BundleContext) hooks.Signal { return hooks.Continue })
		}()
		go func() {
			defer wg.Done()
			r.RunBeforeBundleBuild(context.Background(), &hooks.BundleContext{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, r.Len(hooks.BeforeBundleBuild))
}

func TestHookMayRegisterDuringRun(t *testing.T) {
	r := hooks.NewRegistry()
	r.OnBeforeBundleBuild("outer", func(context.Context, *hooks.BundleContext) hooks.Signal {
		r.OnBeforeBundleBuild("inner", func(context.Context, *hooks.BundleContext) hooks.Signal { return hooks.Continue })
		return hooks.Continue
	})
	r.RunBeforeBundleBuild(context.Background(), &hooks.BundleContext{})
	assert.Equal(t, []string{"outer", "inner"}, r.Names(hooks.BeforeBundleBuild))
}
