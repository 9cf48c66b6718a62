// Package app provides the application context and dependency management
// for the factmap CLI: configuration, logging, and the bot and resolver
// the commands share.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/cmd/application"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/wikibase"
)

// App represents the factmap application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	mu       sync.RWMutex
	bot      factmap.Bot
	botOpts  []factmap.Option
	resolver *wikibase.Resolver
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns a copy of the bot configuration.
func (a *App) Config() factmap.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Bot
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value, empty for auto-detection.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Bot returns the default bot, creating it lazily. With options it builds
// a new bot instead; the options are applied after the configuration.
func (a *App) Bot(opts ...factmap.Option) (factmap.Bot, error) {
	if len(opts) > 0 {
		return a.newBot(opts...)
	}

	a.mu.RLock()
	if a.bot != nil {
		bot := a.bot
		a.mu.RUnlock()
		return bot, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bot != nil {
		return a.bot, nil
	}
	bot, err := a.newBotLocked()
	if err != nil {
		return nil, err
	}
	a.bot = bot
	return bot, nil
}

func (a *App) newBot(opts ...factmap.Option) (factmap.Bot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.newBotLocked(opts...)
}

func (a *App) newBotLocked(opts ...factmap.Option) (factmap.Bot, error) {
	all := append(append([]factmap.Option{factmap.WithConfig(a.config.Bot)}, a.botOpts...), opts...)
	bot, err := factmap.New(all...)
	if err != nil {
		return nil, errors.WrapResource("create", "bot", "", err)
	}
	return bot, nil
}

// Resolver returns the shared resolver, creating it lazily.
func (a *App) Resolver() (application.Resolver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolver != nil {
		return a.resolver, nil
	}

	cfg := a.config.Bot
	client, err := wikibase.NewClient(
		wikibase.WithAPIURL(cfg.APIURL),
		wikibase.WithSPARQLURL(cfg.SPARQLURL),
		wikibase.WithEntityPrefix(cfg.EntityPrefix),
		wikibase.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "resolver", cfg.SPARQLURL, err)
	}
	a.resolver = wikibase.NewResolver(client)
	return a.resolver, nil
}

// Shutdown releases resources. It logs the resolver cache statistics.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	resolver := a.resolver
	a.mu.RUnlock()

	if resolver != nil {
		stats := resolver.CacheStats()
		a.logger.Debug().
			Int64("hits", stats.Hits).
			Int64("misses", stats.Misses).
			Msg("resolver cache")
	}
	return nil
}

// reloadConfig re-reads the bot configuration from path and drops the
// cached bot and resolver.
func (a *App) reloadConfig(path string) error {
	bot, err := LoadConfig(path)
	if err != nil {
		return errors.WrapResource("load", "config", path, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.ConfigFile = path
	a.config.Bot = bot.Bot
	a.bot = nil
	a.resolver = nil
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithBotOptions adds options to every bot the app builds, e.g.
// factmap.WithStore in tests.
func WithBotOptions(opts ...factmap.Option) Option {
	return func(a *App) error {
		a.botOpts = append(a.botOpts, opts...)
		return nil
	}
}
