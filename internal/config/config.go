package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"os"       // os provides access to environment variables
	"strings"  // strings normalises the store driver name
	"time"     // time parses the shutdown timeout

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Store drivers understood by database.OpenStore.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Driver-specific settings are only required when
// that driver is selected through STORE_DRIVER.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	LogLevel        string        // debug, info, warn, error
	StoreDriver     string        // mysql, postgres or memory
	DBUser          string        // MySQL username
	DBPass          string        // MySQL password (optional)
	DBHost          string        // MySQL host address
	DBPort          string        // MySQL port number
	DBName          string        // MySQL database name
	PostgresURL     string        // PostgreSQL connection string
	AutoMigrate     bool          // create the documents table at startup
	ShutdownTimeout time.Duration // grace period for in-flight requests
}

// LoadDotEnv loads variables from a .env file when one exists.  Variables
// already present in the environment win.  A missing file is not an error.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("config: could not load %s: %v", p, err)
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "3000"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		StoreDriver:     strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		AutoMigrate:     envBool("DB_AUTO_MIGRATE", true),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")     // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")     // database host
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME") // database name
	case DriverPostgres:
		cfg.PostgresURL = must("POSTGRES_URL")
	case DriverMemory:
	default:
		log.Fatalf("unknown STORE_DRIVER: %q", cfg.StoreDriver)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
