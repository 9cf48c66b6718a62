// Package constants provides shared constants used throughout factmap.
// This includes timeouts, limits, file permissions, well-known Wikibase
// identifiers and other values that should be consistent across the module.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the store API
	DefaultHTTPTimeout = 30 * time.Second

	// SPARQLTimeout is the timeout for a single query service request
	SPARQLTimeout = 60 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after an error
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for failed API calls
	MaxRetries = 3

	// MaxLag is the replication lag in seconds the API may report before refusing bot requests
	MaxLag = 5

	// MaxEntitiesPerRequest is the wbgetentities ids limit for non-privileged accounts
	MaxEntitiesPerRequest = 50

	// MaxSPARQLValues bounds the VALUES clause of a single resolution query
	MaxSPARQLValues = 200
)

// Rate limiting constants
const (
	// DefaultEditsPerMinute is the edit rate for bot accounts without a higher flag
	DefaultEditsPerMinute = 30

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 5
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for resolved lookups
	CacheTTL = 15 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Endpoints and identity
const (
	// DefaultAPIURL is the Wikidata action API
	DefaultAPIURL = "https://www.wikidata.org/w/api.php"

	// DefaultSPARQLURL is the Wikidata query service
	DefaultSPARQLURL = "https://query.wikidata.org/sparql"

	// DefaultEntityPrefix is the concept URI prefix of Wikidata entities
	DefaultEntityPrefix = "http://www.wikidata.org/entity/"

	// DefaultUserAgent identifies the tool per the Wikimedia user-agent policy
	DefaultUserAgent = "factmap/0.1 (https://github.com/agentstation/factmap)"

	// EditGroupsLink is appended to edit summaries; %s is the edit group ID
	EditGroupsLink = "([[:toolforge:editgroups/b/CB/%s|details]])"
)

// Well-known properties and items used by the built-in policies
const (
	// PropertyReferenceURL is "reference URL"
	PropertyReferenceURL = "P854"

	// PropertyRetrieved is "retrieved"
	PropertyRetrieved = "P813"

	// PropertyArchiveURL is "archive URL"
	PropertyArchiveURL = "P1065"

	// PropertyArchiveDate is "archive date"
	PropertyArchiveDate = "P2960"

	// PropertyDeprecatedReason is "reason for deprecated rank"
	PropertyDeprecatedReason = "P2241"

	// PropertyPreferredReason is "reason for preferred rank"
	PropertyPreferredReason = "P7452"

	// ItemLinkRot is "link rot"
	ItemLinkRot = "Q1193907"

	// ItemGregorian is the proleptic Gregorian calendar model
	ItemGregorian = "Q1985727"

	// ItemJulian is the proleptic Julian calendar model
	ItemJulian = "Q1985786"

	// ItemEarth is the default globe of coordinates
	ItemEarth = "Q2"

	// UnitOne is the unit of dimensionless quantities
	UnitOne = "1"
)
