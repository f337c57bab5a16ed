// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: core settings like HTTP
// ports, TLS, logging level, and CORS live in CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token configuration
	TokenSecret string        // HS256 signing secret (must be strong in production)
	TokenTTL    time.Duration // Token lifetime (default: 24h)

	// Google sign-in configuration
	GoogleClientID string // Google OAuth2 client ID; blank disables Google login

	// Reference data seeding
	SeedReferenceData bool // Seed judges and role templates on startup
}
