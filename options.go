package factmap

import (
	"time"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// Option is a function that configures a Bot instance.
type Option func(*options) error

type options struct {
	config    Config
	fetcher   reconciler.Fetcher
	persister reconciler.Persister
	registry  *hooks.Registry
	now       func() time.Time
	editGroup string
}

func defaults() *options {
	return &options{
		config: DefaultConfig(),
		now:    time.Now,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithStore uses store for both fetching and persisting instead of the
// Wikibase client, e.g. reconciler.MemoryStore in tests.
func WithStore(store interface {
	reconciler.Fetcher
	reconciler.Persister
}) Option {
	return func(o *options) error {
		if store == nil {
			return errors.NewValidationError("store", nil, "cannot be nil")
		}
		o.fetcher, o.persister = store, store
		return nil
	}
}

// WithHooks registers the bot's policies on an existing registry, so
// callers can add their own hooks around them.
func WithHooks(r *hooks.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return errors.NewValidationError("hooks", nil, "cannot be nil")
		}
		o.registry = r
		return nil
	}
}

// WithDryRun overrides Config.DryRun.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.config.DryRun = dryRun
		return nil
	}
}

// WithEditGroup fixes the edit group ID instead of generating one.
func WithEditGroup(id string) Option {
	return func(o *options) error {
		o.editGroup = id
		return nil
	}
}

// WithClock sets the time source of the retrieved-date policy.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
