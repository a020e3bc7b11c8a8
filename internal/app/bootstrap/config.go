// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for DojoHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: DOJOHUB_MONGO_URI, DOJOHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "dojohub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Member read-cache tuning
	{Name: "cache_expiry", Default: "5m", Desc: "Member cache entry lifetime (e.g., 5m, 30s)"},
	{Name: "cache_refresh_interval", Default: "30s", Desc: "Refresh period for entries with live subscribers"},
	{Name: "cache_max_entries", Default: 10000, Desc: "Member cache eviction threshold (0 = unbounded)"},

	// Write batcher tuning
	{Name: "batch_window", Default: "100ms", Desc: "Coalescing window for redundant member writes"},

	// First-run owner account
	{Name: "owner_email", Default: "", Desc: "Email for the seeded owner account (first run only)"},
	{Name: "owner_name", Default: "Owner", Desc: "Display name for the seeded owner account"},
	{Name: "owner_password", Default: "", Desc: "Password for the seeded owner account (first run only)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, DOJOHUB_* for app), and
// command-line flags, merging with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DOJOHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		CacheExpiry:          appValues.Duration("cache_expiry", 5*time.Minute),
		CacheRefreshInterval: appValues.Duration("cache_refresh_interval", 30*time.Second),
		CacheMaxEntries:      appValues.Int("cache_max_entries"),

		BatchWindow: appValues.Duration("batch_window", 100*time.Millisecond),

		OwnerEmail:    appValues.String("owner_email"),
		OwnerName:     appValues.String("owner_name"),
		OwnerPassword: appValues.String("owner_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// DojoHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and rejects nonsensical tuning values
// that would make the cache or batcher silently useless.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.CacheExpiry <= 0 {
		return fmt.Errorf("cache_expiry must be positive, got %s", appCfg.CacheExpiry)
	}
	if appCfg.BatchWindow <= 0 {
		return fmt.Errorf("batch_window must be positive, got %s", appCfg.BatchWindow)
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be changed from the development default in production")
	}

	return nil
}
