// Package reconciler drives one record through fetch, bundle building,
// hook-wrapped planning and persistence.
package reconciler

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/equivalence"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/logging"
	"github.com/agentstation/factmap/pkg/planner"
)

const instrumentationName = "github.com/agentstation/factmap/pkg/reconciler"

// Fetcher loads the current state of a record.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*claims.Record, error)
}

// Persister stores a plan's writes. Persist must not resend a write whose
// effect is unknown; the caller re-runs the whole record instead. Errors
// come back wrapped in an errors.ResourceError with Operation "persist".
type Persister interface {
	Persist(ctx context.Context, plan *planner.Plan) (*PersistResult, error)
}

// BundleBuilder produces the desired facts for a record.
type BundleBuilder interface {
	BuildBundle(ctx context.Context, record *claims.Record) (claims.Bundle, error)
}

// BundleBuilderFunc adapts a function to BundleBuilder.
type BundleBuilderFunc func(ctx context.Context, record *claims.Record) (claims.Bundle, error)

// BuildBundle calls f.
func (f BundleBuilderFunc) BuildBundle(ctx context.Context, record *claims.Record) (claims.Bundle, error) {
	return f(ctx, record)
}

// Reconciler reconciles records one at a time.
type Reconciler interface {
	// Reconcile fetches the record, plans the bundle the builder produces
	// and persists the writes unless running dry. Fetch and persist errors
	// are returned unmodified; per-fact errors are collected in the Result.
	Reconcile(ctx context.Context, recordID string, builder BundleBuilder) (*Result, error)

	// Env returns the collaborators and configuration in use.
	Env() *Env
}

// Env is the explicit environment passed through every step. It holds no
// per-record state.
type Env struct {
	Fetcher            Fetcher
	Persister          Persister
	Hooks              *hooks.Registry
	Planner            *planner.Planner
	AllowManualRemoval bool
	DryRun             bool
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	env    *Env
	tracer trace.Tracer
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.fetcher == nil {
		return nil, &errors.ValidationError{Field: "fetcher", Message: "is required"}
	}
	if options.persister == nil && !options.dryRun {
		return nil, &errors.ValidationError{Field: "persister", Message: "is required unless running dry"}
	}

	matcherOpts := []equivalence.Option{equivalence.WithRespectDeprecatedRank(options.respectDeprecated)}
	if options.tieBreaker != nil {
		matcherOpts = append(matcherOpts, equivalence.WithTieBreaker(options.tieBreaker))
	}
	p := planner.New(
		planner.WithMatcher(equivalence.New(matcherOpts...)),
		planner.WithAlwaysAddNewFactForQualifier(options.alwaysNew...),
		planner.WithUnitRequired(options.unitRequired...),
	)

	return &reconciler{
		env: &Env{
			Fetcher:            options.fetcher,
			Persister:          options.persister,
			Hooks:              options.hooks,
			Planner:            p,
			AllowManualRemoval: options.manualRemoval,
			DryRun:             options.dryRun,
		},
		tracer: otel.Tracer(instrumentationName),
	}, nil
}

// Env returns the environment.
func (r *reconciler) Env() *Env {
	return r.env
}

// Reconcile performs reconciliation with clean step-by-step flow.
func (r *reconciler) Reconcile(ctx context.Context, recordID string, builder BundleBuilder) (*Result, error) {
	if builder == nil {
		return nil, &errors.ValidationError{Field: "builder", Message: "cannot be nil"}
	}
	ctx, span := r.tracer.Start(ctx, "reconcile", trace.WithAttributes(attribute.String("record", recordID)))
	defer span.End()
	ctx = logging.WithRecord(ctx, recordID)
	logger := logging.FromContext(ctx)

	result := NewResult(recordID, r.env.DryRun)
	defer result.Finalize()

	// Step 1: Fetch current state
	record, err := r.env.Fetcher.Fetch(ctx, recordID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	result.Record = record

	// Step 2: Build the bundle
	bundle, err := builder.BuildBundle(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, errors.WrapResource("build", "bundle", recordID, err)
	}

	// Step 3: Bundle hooks
	bc := &hooks.BundleContext{Record: record, Bundle: bundle.Clone()}
	if r.env.Hooks.RunBeforeBundleBuild(ctx, bc) == hooks.Skip {
		result.Skipped = true
		logger.Info().Msg("Record skipped by hook")
		return result, nil
	}

	// Step 4: Resolve removals and plan each fact
	session := r.env.Planner.Begin(record, bc.Bundle.Removals, r.env.AllowManualRemoval)
	for i, df := range bc.Bundle.Facts {
		r.planFact(ctx, session, record, i, df)
	}
	plan := session.Plan()
	result.Plan = plan
	result.Outcome = plan.Outcome()
	result.Errors = append(result.Errors, plan.Errors()...)
	for _, ignored := range plan.IgnoredRemovals {
		logger.Debug().
			Str("fact_id", ignored.FactID).
			Str("property", string(ignored.Property)).
			Bool("manual_removal", r.env.AllowManualRemoval).
			Msg("Removal ignored")
	}

	// Step 5: Applied hooks
	r.env.Hooks.RunAfterBundleApplied(ctx, &hooks.AppliedContext{
		Record:  record,
		Plan:    plan,
		Outcome: result.Outcome,
	})

	span.SetAttributes(
		attribute.Int("facts.satisfied", result.Outcome.Satisfied),
		attribute.Int("facts.augmented", result.Outcome.Augmented),
		attribute.Int("facts.added", result.Outcome.Added),
		attribute.Int("facts.rejected", result.Outcome.Rejected),
	)

	// Step 6: Persist
	if r.env.DryRun || !plan.HasWrites() {
		logger.Info().
			Bool("dry_run", r.env.DryRun).
			Int("satisfied", result.Outcome.Satisfied).
			Int("augmented", result.Outcome.Augmented).
			Int("added", result.Outcome.Added).
			Int("removed", result.Outcome.Removed).
			Msg("Record reconciled without writing")
		return result, nil
	}

	persisted, err := r.persist(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return result, err
	}
	result.Persisted = persisted
	logger.Info().
		Int64("revision", persisted.Revision).
		Int("writes", persisted.Writes).
		Int("augmented", result.Outcome.Augmented).
		Int("added", result.Outcome.Added).
		Int("removed", result.Outcome.Removed).
		Msg("Record edited")
	return result, nil
}

func (r *reconciler) persist(ctx context.Context, plan *planner.Plan) (*PersistResult, error) {
	ctx, span := r.tracer.Start(ctx, "persist")
	defer span.End()
	res, err := r.env.Persister.Persist(ctx, plan)
	return res, errors.WrapResource("persist", "record", plan.RecordID, err)
}

// planFact runs one desired fact through the hook points around
// classification and commits the resulting entry.
func (r *reconciler) planFact(ctx context.Context, s *planner.Session, record *claims.Record, index int, df claims.DesiredFact) {
	logger := logging.FromContext(logging.WithProperty(ctx, string(df.Property())))

	fc := &hooks.FactContext{Record: record, Index: index, Fact: df}
	if r.env.Hooks.RunBeforeMatch(ctx, fc) == hooks.Skip {
		s.Skip(fc.Fact, "skipped by "+hooks.BeforeMatch.String()+" hook")
		logger.Debug().Int("index", index).Msg("Fact skipped before match")
		return
	}

	e := s.Classify(fc.Fact)
	if r.env.Hooks.RunAfterClassify(ctx, &hooks.EntryContext{Record: record, Entry: &e}) == hooks.Skip {
		e.Skip("skipped by " + hooks.AfterClassify.String() + " hook")
	}

	if e.Classification == planner.AddNew || e.Classification == planner.AugmentExisting {
		var qualifiers []claims.DesiredQualifier
		for _, q := range e.MissingQualifiers {
			qc := &hooks.QualifierContext{Record: record, Entry: &e, Qualifier: q}
			if r.env.Hooks.RunBeforeQualifierAdd(ctx, qc) != hooks.Skip {
				qualifiers = append(qualifiers, qc.Qualifier)
			}
		}
		var references []claims.DesiredReference
		for _, ref := range e.MissingReferences {
			rc := &hooks.ReferenceContext{Record: record, Entry: &e, Reference: ref}
			if r.env.Hooks.RunBeforeReferenceAdd(ctx, rc) != hooks.Skip {
				references = append(references, rc.Reference)
			}
		}
		e.MissingQualifiers = qualifiers
		e.MissingReferences = references
	}

	s.Commit(e)
	committed := s.Plan().Entries[len(s.Plan().Entries)-1]

	event := logger.Debug().
		Int("index", index).
		Str("classification", committed.Classification.String()).
		Int("qualifiers", len(committed.MissingQualifiers)).
		Int("references", len(committed.MissingReferences))
	if committed.SkipReason != "" {
		event = event.Str("skip_reason", committed.SkipReason)
	}
	if committed.Err != nil {
		event = event.Err(committed.Err)
	}
	event.Msg("Fact classified")
}
