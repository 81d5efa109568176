package config // package config loads application configuration from environment variables

import (
	"errors"  // errors builds validation failures
	"fmt"     // fmt formats validation messages
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file into the process environment

	"github.com/iliyamo/gym-management/internal/model" // role vocabulary for DEFAULT_ROLE
)

// MinSecretLen is the shortest JWT signing secret accepted at startup.
const MinSecretLen = 16

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// fall back to the defaults documented next to each field.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign access tokens; mandatory
	AccessTTLMin int    // access token time‑to‑live in minutes (default 60)
	BcryptCost   int    // bcrypt cost for password hashing (default 10)
	DefaultRole  string // role given to accounts created without roles
	LogLevel     string // zap level: debug, info, warn, error
	AutoMigrate  bool   // apply the embedded schema at startup (default true)

	AdminInitEmail    string // email of the first admin seeded by cmd/admin-init
	AdminInitUsername string // username of the first admin
	AdminInitPassword string // password of the first admin
}

// Load reads a .env file when one exists, then builds a Config from the
// environment.  Missing required variables or an invalid combination of
// values terminate the program: there is no insecure default secret.
func Load() Config {
	// A missing .env is normal in containers; only the variables matter.
	_ = godotenv.Load()

	cfg := Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: intOr("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   intOr("BCRYPT_COST", 10),
		DefaultRole:  getenv("DEFAULT_ROLE", "receptionist"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		AutoMigrate:  boolEnv("DB_AUTO_MIGRATE", true),

		AdminInitEmail:    os.Getenv("ADMIN_INIT_EMAIL"),
		AdminInitUsername: os.Getenv("ADMIN_INIT_USERNAME"),
		AdminInitPassword: os.Getenv("ADMIN_INIT_PASSWORD"),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Validate checks the values that Load cannot express through must().
func (c Config) Validate() error {
	if len(c.JWTSecret) < MinSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLen)
	}
	if c.AccessTTLMin <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	// bcrypt accepts 4..31; anything outside is a typo, not a policy.
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	if !model.IsAllowedRole(c.DefaultRole) {
		return fmt.Errorf("DEFAULT_ROLE %q is not one of %v", c.DefaultRole, model.AllowedRoles)
	}
	return nil
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr returns the integer value of key, or def when the variable is unset.
// A present but malformed value is fatal so typos don't silently apply defaults.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
