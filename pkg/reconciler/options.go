package reconciler

import (
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/equivalence"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/hooks"
)

// options configures a reconciler.
type options struct {
	fetcher           Fetcher
	persister         Persister
	hooks             *hooks.Registry
	alwaysNew         []claims.PropertyID
	unitRequired      []claims.PropertyID
	respectDeprecated bool
	manualRemoval     bool
	dryRun            bool
	tieBreaker        equivalence.TieBreaker
}

func defaultOptions() *options {
	return &options{
		hooks:             hooks.NewRegistry(),
		respectDeprecated: true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithFetcher sets the source of current record state.
func WithFetcher(f Fetcher) Option {
	return func(o *options) error {
		if f == nil {
			return &errors.ValidationError{Field: "fetcher", Message: "cannot be nil"}
		}
		o.fetcher = f
		return nil
	}
}

// WithPersister sets the sink for planned writes.
func WithPersister(p Persister) Option {
	return func(o *options) error {
		if p == nil {
			return &errors.ValidationError{Field: "persister", Message: "cannot be nil"}
		}
		o.persister = p
		return nil
	}
}

// WithHooks sets the hook registry.
func WithHooks(r *hooks.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "hooks", Message: "cannot be nil"}
		}
		o.hooks = r
		return nil
	}
}

// WithAlwaysAddNewFactForQualifier makes qualifiers of these properties
// force a separate statement.
func WithAlwaysAddNewFactForQualifier(props ...claims.PropertyID) Option {
	return func(o *options) error {
		for _, p := range props {
			if err := p.Validate(); err != nil {
				return err
			}
		}
		o.alwaysNew = append(o.alwaysNew, props...)
		return nil
	}
}

// WithUnitRequired rejects unit-less quantities on these properties.
func WithUnitRequired(props ...claims.PropertyID) Option {
	return func(o *options) error {
		for _, p := range props {
			if err := p.Validate(); err != nil {
				return err
			}
		}
		o.unitRequired = append(o.unitRequired, props...)
		return nil
	}
}

// WithRespectDeprecatedRank controls whether deprecated statements count as
// present. Defaults to true.
func WithRespectDeprecatedRank(respect bool) Option {
	return func(o *options) error {
		o.respectDeprecated = respect
		return nil
	}
}

// WithManualRemoval allows removal directives in bundles to take effect.
// Defaults to false.
func WithManualRemoval(allow bool) Option {
	return func(o *options) error {
		o.manualRemoval = allow
		return nil
	}
}

// WithTieBreaker chooses among several equivalent existing statements.
func WithTieBreaker(tb equivalence.TieBreaker) Option {
	return func(o *options) error {
		if tb == nil {
			return &errors.ValidationError{Field: "tie_breaker", Message: "cannot be nil"}
		}
		o.tieBreaker = tb
		return nil
	}
}

// WithDryRun plans without persisting.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.dryRun = dryRun
		return nil
	}
}
