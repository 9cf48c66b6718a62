// Package application provides the application interface for factmap commands.
//
// The Application interface defines the contract between the application
// layer and command implementations, so commands can be tested against
// application.Mock instead of a live Wikibase.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            bot, err := app.Bot(factmap.WithDryRun(true))
//	            if err != nil {
//	                return err
//	            }
//	            // ... feed records
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	store := reconciler.NewMemoryStore(record)
//	mock := &application.Mock{
//	    BotFunc: func(opts ...factmap.Option) (factmap.Bot, error) {
//	        return factmap.New(append([]factmap.Option{factmap.WithStore(store)}, opts...)...)
//	    },
//	}
//	cmd := plan.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/pkg/wikibase"
)

// Resolver looks up records by external identifier.
type Resolver interface {
	ResolveIDs(ctx context.Context, keys ...wikibase.Key) (map[wikibase.Key][]string, error)
}

// Application provides what commands need from the CLI application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Bot returns a bot built from the loaded configuration. Options are
	// applied after the configuration, so they win.
	Bot(opts ...factmap.Option) (factmap.Bot, error)

	// Resolver returns the shared resolver. Its cache lives as long as the
	// application.
	Resolver() (Resolver, error)

	// Config returns a copy of the loaded bot configuration.
	Config() factmap.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
