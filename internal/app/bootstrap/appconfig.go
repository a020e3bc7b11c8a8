// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level, request limits). AppConfig is everything specific to
// DojoHub: the database, the admin session, cache and batcher tuning, and
// the first-run owner account.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Member read-cache tuning
	CacheExpiry          time.Duration // how long an unused entry stays valid
	CacheRefreshInterval time.Duration // periodic refresh for subscribed entries
	CacheMaxEntries      int           // eviction threshold; 0 means unbounded

	// Write batcher tuning
	BatchWindow time.Duration // coalescing window for redundant writes

	// First-run owner account. Seeded on startup when no admin users exist.
	OwnerEmail    string
	OwnerName     string
	OwnerPassword string
}
