// Package factmap is the entry point for running a fact reconciliation bot
// against a Wikibase store. A Bot wires configuration into the reconciler,
// the built-in policies, the Wikibase client and telemetry, then acts on
// records one at a time.
//
// Example usage:
//
//	bot, err := factmap.New(factmap.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bot.OnEdited(func(r *reconciler.Result) {
//	    log.Printf("edited %s", r.RecordID)
//	})
//
//	builder := reconciler.BundleBuilderFunc(func(ctx context.Context, rec *claims.Record) (claims.Bundle, error) {
//	    return claims.NewBundle(
//	        claims.NewFact("P31", values.Entity("Q5")).Build(),
//	    ), nil
//	})
//
//	results, err := bot.FeedRecords(ctx, []string{"Q42", "Q1"}, builder,
//	    factmap.WithSkipErroredRecords(true))
package factmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/logging"
	"github.com/agentstation/factmap/pkg/planner"
	"github.com/agentstation/factmap/pkg/policy"
	"github.com/agentstation/factmap/pkg/reconciler"
	"github.com/agentstation/factmap/pkg/wikibase"
)

const instrumentationName = "github.com/agentstation/factmap"

// Compile-time interface check to ensure proper implementation.
var _ Bot = (*bot)(nil)

// Bot reconciles records against the configured store.
type Bot interface {
	// ActOnRecord reconciles a single record. An edit conflict or an
	// unconfirmed edit re-runs the whole record against a fresh fetch.
	ActOnRecord(ctx context.Context, recordID string, builder reconciler.BundleBuilder) (*reconciler.Result, error)

	// FeedRecords reconciles records sequentially.
	FeedRecords(ctx context.Context, recordIDs []string, builder reconciler.BundleBuilder, opts ...FeedOption) ([]RecordResult, error)

	// OnEdited registers a callback for persisted records
	OnEdited(EditedHook)

	// OnRecordError registers a callback for failed records
	OnRecordError(RecordErrorHook)

	// Hooks returns the lifecycle hook registry the reconciler runs.
	Hooks() *hooks.Registry

	// EditGroup returns the edit group ID of this bot's edits.
	EditGroup() string

	// Summary returns the edit summary sent with every edit.
	Summary() string
}

// bot is the internal implementation of the Bot interface.
type bot struct {
	config     Config
	reconciler reconciler.Reconciler
	registry   *hooks.Registry
	editGroup  string
	summary    string
	events     *events

	tracer  trace.Tracer
	records metric.Int64Counter
	facts   metric.Int64Counter
}

// New creates a new Bot with the given options.
func New(opts ...Option) (Bot, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	cfg := o.config

	b := &bot{
		config:    cfg,
		registry:  o.registry,
		editGroup: o.editGroup,
		events:    newEvents(),
		tracer:    otel.Tracer(instrumentationName),
	}
	if b.registry == nil {
		b.registry = hooks.NewRegistry()
	}
	if b.editGroup == "" {
		b.editGroup = NewEditGroup()
	}
	b.summary = EditSummary(cfg.EditSummary, b.editGroup)

	if err := b.initMetrics(); err != nil {
		return nil, err
	}
	if err := registerPolicies(b.registry, cfg, o); err != nil {
		return nil, err
	}

	fetcher, persister := o.fetcher, o.persister
	if fetcher == nil {
		client, err := wikibase.NewClient(
			wikibase.WithAPIURL(cfg.APIURL),
			wikibase.WithSPARQLURL(cfg.SPARQLURL),
			wikibase.WithEntityPrefix(cfg.EntityPrefix),
			wikibase.WithToken(cfg.Token),
			wikibase.WithUserAgent(cfg.UserAgent),
			wikibase.WithEditsPerMinute(cfg.EditsPerMinute),
			wikibase.WithMaxLag(cfg.MaxLag),
			wikibase.WithSummary(b.summary),
		)
		if err != nil {
			return nil, errors.WrapResource("create", "wikibase client", cfg.APIURL, err)
		}
		fetcher, persister = client, client
	}

	ropts := []reconciler.Option{
		reconciler.WithFetcher(fetcher),
		reconciler.WithHooks(b.registry),
		reconciler.WithDryRun(cfg.DryRun),
		reconciler.WithManualRemoval(cfg.AllowManualRemoval),
		reconciler.WithRespectDeprecatedRank(cfg.RespectDeprecatedRank),
		reconciler.WithAlwaysAddNewFactForQualifier(propertyIDs(cfg.AlwaysAddNewFactForQualifier)...),
		reconciler.WithUnitRequired(propertyIDs(cfg.UnitRequired)...),
	}
	if persister != nil {
		ropts = append(ropts, reconciler.WithPersister(persister))
	}
	if b.reconciler, err = reconciler.New(ropts...); err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}

	return b, nil
}

// registerPolicies installs the built-in hooks enabled by cfg.
func registerPolicies(r *hooks.Registry, cfg Config, o *options) error {
	if cfg.AutoDearchivify {
		policy.Dearchiver{Deprecate: cfg.AutoDeprecateArchived}.Register(r)
	}
	allowlist, err := policy.NewAllowlist(cfg.Allowlist)
	if err != nil {
		return errors.NewConfigError("allowlist", "invalid pattern", err)
	}
	if allowlist.Enabled() {
		allowlist.Register(r)
	}
	if cfg.AutoRetrievedDate {
		policy.RetrievedDate{Now: o.now}.Register(r)
	}
	return nil
}

func (b *bot) initMetrics() error {
	meter := otel.Meter(instrumentationName)
	var err error
	if b.records, err = meter.Int64Counter("factmap.records",
		metric.WithDescription("Records processed, by outcome")); err != nil {
		return errors.WrapResource("create", "metric", "factmap.records", err)
	}
	if b.facts, err = meter.Int64Counter("factmap.facts",
		metric.WithDescription("Desired facts processed, by classification")); err != nil {
		return errors.WrapResource("create", "metric", "factmap.facts", err)
	}
	return nil
}

// OnEdited registers a callback for persisted records.
func (b *bot) OnEdited(fn EditedHook) { b.events.OnEdited(fn) }

// OnRecordError registers a callback for failed records.
func (b *bot) OnRecordError(fn RecordErrorHook) { b.events.OnRecordError(fn) }

// Hooks returns the lifecycle hook registry.
func (b *bot) Hooks() *hooks.Registry { return b.registry }

// EditGroup returns the edit group ID.
func (b *bot) EditGroup() string { return b.editGroup }

// Summary returns the edit summary.
func (b *bot) Summary() string { return b.summary }

// ActOnRecord reconciles one record.
func (b *bot) ActOnRecord(ctx context.Context, recordID string, builder reconciler.BundleBuilder) (*reconciler.Result, error) {
	ctx, span := b.tracer.Start(ctx, "act_on_record", trace.WithAttributes(
		attribute.String("record", recordID),
		attribute.String("edit_group", b.editGroup),
	))
	defer span.End()
	logger := logging.FromContext(ctx)

	var (
		result *reconciler.Result
		err    error
	)
	for attempt := 0; attempt <= constants.MaxRetries; attempt++ {
		result, err = b.reconciler.Reconcile(ctx, recordID, builder)
		if err == nil || !rerunnable(err) {
			break
		}
		logger.Warn().
			Err(err).
			Str("record", recordID).
			Int("attempt", attempt+1).
			Msg("Edit not confirmed, reconciling again")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		b.records.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		b.events.triggerRecordError(recordID, err)
		return result, err
	}

	b.recordMetrics(ctx, result)
	span.SetAttributes(attribute.Bool("applied", result.WasApplied()))
	if result.WasApplied() {
		b.events.triggerEdited(result)
	}
	return result, nil
}

// rerunnable reports whether a failed record should be reconciled again
// from a fresh fetch: after an edit conflict, or after a persist whose
// outcome is unknown. A write that did land shows up as satisfied.
func rerunnable(err error) bool {
	if errors.IsEditConflict(err) {
		return true
	}
	var resErr *errors.ResourceError
	return errors.As(err, &resErr) && resErr.Operation == "persist" && errors.IsRetryable(err)
}

func (b *bot) recordMetrics(ctx context.Context, result *reconciler.Result) {
	outcome := "unchanged"
	switch {
	case result.Skipped:
		outcome = "skipped"
	case result.WasApplied():
		outcome = "edited"
	case result.HasChanges():
		outcome = "planned"
	}
	b.records.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if result.Plan == nil {
		return
	}
	counts := make(map[planner.Classification]int64)
	for _, e := range result.Plan.Entries {
		counts[e.Classification]++
	}
	for class, n := range counts {
		b.facts.Add(ctx, n, metric.WithAttributes(attribute.String("classification", class.String())))
	}
}

// NewEditGroup returns a random edit group ID: 32 hex digits.
func NewEditGroup() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EditSummary appends the edit group link to summary.
func EditSummary(summary, editGroup string) string {
	link := fmt.Sprintf(constants.EditGroupsLink, editGroup)
	if summary = strings.TrimSpace(summary); summary == "" {
		return link
	}
	return summary + " " + link
}
