package app

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/internal/config"
)

// Config holds the CLI configuration: global flags, logging settings and
// the bot configuration loaded from the config file and FACTMAP_ variables.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// envLogLevel is LOG_LEVEL; the flags outrank it.
	envLogLevel string

	Bot factmap.Config
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.factmap.yaml or ./.factmap.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	bot, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		ConfigFile:  configFile,
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
		Format:      os.Getenv("FACTMAP_FORMAT"),
		Bot:         bot,
		envLogLevel: os.Getenv("LOG_LEVEL"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
