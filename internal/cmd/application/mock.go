// Package application provides a test double for cmd/application.Application.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/factmap"
	app "github.com/agentstation/factmap/cmd/application"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	BotFunc          func(opts ...factmap.Option) (factmap.Bot, error)
	ResolverFunc     func() (app.Resolver, error)
	ConfigFunc       func() factmap.Config
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

var _ app.Application = (*Mock)(nil)

// Bot returns a bot using the mock function or nil.
func (m *Mock) Bot(opts ...factmap.Option) (factmap.Bot, error) {
	if m.BotFunc != nil {
		return m.BotFunc(opts...)
	}
	return nil, nil
}

// Resolver returns a resolver using the mock function or nil.
func (m *Mock) Resolver() (app.Resolver, error) {
	if m.ResolverFunc != nil {
		return m.ResolverFunc()
	}
	return nil, nil
}

// Config returns the mock configuration or the defaults.
func (m *Mock) Config() factmap.Config {
	if m.ConfigFunc != nil {
		return m.ConfigFunc()
	}
	return factmap.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
