package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/planner"
	"github.com/agentstation/factmap/pkg/policy"
	"github.com/agentstation/factmap/pkg/reconciler"
	"github.com/agentstation/factmap/pkg/values"
)

func TestDearchiverRewrite(t *testing.T) {
	fact := claims.NewFact("P856", values.URL("https://web.archive.org/web/20200102030405/https://example.com/page")).Build()

	got, ok := policy.Dearchiver{Deprecate: true}.Rewrite(fact)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/page", got.Value().Text())

	rank, set := got.Rank()
	assert.True(t, set)
	assert.Equal(t, claims.RankDeprecated, rank)

	qs := got.Qualifiers()
	require.Len(t, qs, 3)
	assert.Equal(t, claims.PropertyID("P1065"), qs[0].Property())
	assert.Equal(t, fact.Value().Text(), qs[0].Value().Text())
	assert.Equal(t, "P2960=+2020-01-02T00:00:00Z/11", qs[1].Snak().String())
	assert.Equal(t, "P2241=Q1193907", qs[2].Snak().String())
	for _, q := range qs {
		assert.True(t, q.SkipsIfConflicting())
	}

	plain, ok := policy.Dearchiver{}.Rewrite(fact)
	require.True(t, ok)
	_, set = plain.Rank()
	assert.False(t, set)
	assert.Len(t, plain.Qualifiers(), 2)

	_, ok = policy.Dearchiver{}.Rewrite(claims.NewFact("P856", values.URL("https://example.com")).Build())
	assert.False(t, ok)
	_, ok = policy.Dearchiver{}.Rewrite(claims.NewFact("P31", values.Entity("Q5")).Build())
	assert.False(t, ok)
}

func TestAllowlist(t *testing.T) {
	a, err := policy.NewAllowlist(policy.AllowlistConfig{
		MainProperties:      []string{"P31", "P58?"},
		QualifierProperties: []string{"P580"},
		ReferenceProperties: []string{"P854"},
	})
	require.NoError(t, err)

	assert.True(t, a.Enabled())
	assert.True(t, a.AllowsMain("P582"))
	assert.False(t, a.AllowsMain("P106"))
	assert.True(t, a.AllowsQualifier("P106", claims.NewQualifier("P580", values.String("x"))))
	assert.False(t, a.AllowsQualifier("P106", claims.NewQualifier("P642", values.Entity("Q1"))))
	assert.True(t, a.AllowsQualifier("P31", claims.NewQualifier("P642", values.Entity("Q1"))))
	assert.True(t, a.AllowsReference("P106", claims.NewReference().URL("https://a.example").Build()))
	assert.False(t, a.AllowsReference("P106", claims.NewReference().Snak("P248", values.Entity("Q1")).Build()))

	open, err := policy.NewAllowlist(policy.AllowlistConfig{})
	require.NoError(t, err)
	assert.False(t, open.Enabled())
	assert.True(t, open.AllowsMain("P106"))

	_, err = policy.NewAllowlist(policy.AllowlistConfig{MainProperties: []string{"P("}})
	assert.Error(t, err)
}

func TestAllowlistHooks(t *testing.T) {
	rec := &claims.Record{ID: "Q1", Revision: 1, Facts: []claims.Fact{
		{ID: "Q1$1", Property: "P106", Value: values.Entity("Q82955"), Rank: claims.RankDeprecated},
	}}
	bundle := claims.NewBundle(
		claims.NewFact("P106", values.Entity("Q82955")).
			Rank(claims.RankNormal).
			Qualifier("P580", values.NewTime("+2000-01-01T00:00:00Z", values.PrecisionYear, "")).
			Qualifier("P642", values.Entity("Q1")).
			Reference(claims.NewReference().Snak("P248", values.Entity("Q36578")).Build()).
			Build(),
		claims.NewFact("P106", values.Entity("Q1622272")).Build(),
		claims.NewFact("P31", values.Entity("Q5")).Build(),
	)

	a, err := policy.NewAllowlist(policy.AllowlistConfig{
		MainProperties:      []string{"P31"},
		QualifierProperties: []string{"P580"},
		ReferenceProperties: []string{"P854"},
	})
	require.NoError(t, err)
	reg := hooks.NewRegistry()
	a.Register(reg)
	assert.Equal(t, []string{"allowlist.main"}, reg.Names(hooks.AfterClassify))

	store := reconciler.NewMemoryStore(rec)
	r, err := reconciler.New(reconciler.WithFetcher(store), reconciler.WithHooks(reg), reconciler.WithDryRun(true))
	require.NoError(t, err)

	result, err := r.Reconcile(context.Background(), "Q1", reconciler.BundleBuilderFunc(
		func(context.Context, *claims.Record) (claims.Bundle, error) { return bundle, nil }))
	require.NoError(t, err)

	entries := result.Plan.Entries
	require.Len(t, entries, 3)
	assert.Equal(t, planner.AugmentExisting, entries[0].Classification)
	assert.Nil(t, entries[0].RankChange)
	require.Len(t, entries[0].MissingQualifiers, 1)
	assert.Equal(t, claims.PropertyID("P580"), entries[0].MissingQualifiers[0].Property())
	assert.Empty(t, entries[0].MissingReferences)
	assert.Equal(t, planner.Skipped, entries[1].Classification)
	assert.Equal(t, planner.AddNew, entries[2].Classification)
}

func TestRetrievedDate(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }
	reg := hooks.NewRegistry()
	policy.RetrievedDate{Now: now}.Register(reg)

	bare := &hooks.ReferenceContext{Reference: claims.NewReference().URL("https://a.example").Build()}
	assert.Equal(t, hooks.Mutated, reg.RunBeforeReferenceAdd(context.Background(), bare))
	require.Len(t, bare.Reference.VolatileSnaks(), 1)
	assert.Equal(t, "P813=+2024-06-01T00:00:00Z/11", bare.Reference.VolatileSnaks()[0].String())
	assert.Len(t, bare.Reference.Snaks(), 1)

	dated := &hooks.ReferenceContext{Reference: claims.NewReference().
		URL("https://a.example").
		RetrievedOn(now().AddDate(-1, 0, 0)).
		Build()}
	assert.Equal(t, hooks.Continue, reg.RunBeforeReferenceAdd(context.Background(), dated))
	assert.Len(t, dated.Reference.VolatileSnaks(), 1)
}
