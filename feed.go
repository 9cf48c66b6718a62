package factmap

import (
	"context"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/logging"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// RecordResult is the outcome of one record in a feed. Result may be set
// even when Err is, e.g. after a failed persist.
type RecordResult struct {
	RecordID string
	Result   *reconciler.Result
	Err      error
}

// FeedOption configures FeedRecords.
type FeedOption func(*feedOptions)

type feedOptions struct {
	skipErrored bool
}

// WithSkipErroredRecords logs failing records and continues with the next
// one instead of stopping.
func WithSkipErroredRecords(skip bool) FeedOption {
	return func(o *feedOptions) {
		o.skipErrored = skip
	}
}

// FeedRecords reconciles records one after another. Without
// WithSkipErroredRecords it stops at the first failing record and returns
// its error along with the results so far. Per-fact errors never stop the
// feed; they are reported in each Result.
func (b *bot) FeedRecords(ctx context.Context, recordIDs []string, builder reconciler.BundleBuilder, opts ...FeedOption) ([]RecordResult, error) {
	o := &feedOptions{skipErrored: b.config.SkipErroredRecords}
	for _, opt := range opts {
		opt(o)
	}
	ctx = logging.WithEditGroup(ctx, b.editGroup)
	logger := logging.FromContext(ctx)

	results := make([]RecordResult, 0, len(recordIDs))
	var errs []error
	for _, id := range recordIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := b.ActOnRecord(ctx, id, builder)
		results = append(results, RecordResult{RecordID: id, Result: res, Err: err})
		if err == nil {
			logger.Info().Str("record", id).Msg(res.Summary())
			continue
		}
		if !o.skipErrored {
			return results, err
		}
		logger.Error().Err(err).Str("record", id).Msg("Record failed, continuing")
		errs = append(errs, err)
	}

	logger.Info().
		Int("records", len(results)).
		Int("failed", len(errs)).
		Msg("Feed complete")
	return results, nil
}

// Failed returns the failing records of a feed.
func Failed(results []RecordResult) []RecordResult {
	var out []RecordResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the record errors of a feed.
func Err(results []RecordResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, errors.WrapResource("reconcile", "record", r.RecordID, r.Err))
		}
	}
	return errors.Join(errs...)
}
