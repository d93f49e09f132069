package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "sort"
    "strconv"
    "strings"

    "github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Booking policy, notifications, Redis, rate
// limiting and caching have their own loaders.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    LogLevel     string // zap level name; empty picks a default per Env
    StoreDriver  string // "mysql" or "memory"
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    DBMigrate    bool   // create tables on startup
    JWTSecret    string // secret used to verify and sign JWTs
    AccessTTLMin int    // access token time-to-live in minutes
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables that are already set.  A
// missing file is not an error.
func LoadDotEnv(files ...string) error {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
            return fmt.Errorf("load %s: %w", f, err)
        }
    }
    return nil
}

// Load reads configuration values from environment variables.  Every
// missing or malformed required variable is collected and reported in
// a single error.  Database settings are only required for the mysql
// store driver.
func Load() (Config, error) {
    r := &reader{}
    cfg := Config{
        Env:         r.must("APP_ENV"),
        Port:        r.must("APP_PORT"),
        LogLevel:    os.Getenv("LOG_LEVEL"),
        StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
        JWTSecret:   r.must("JWT_SECRET"),
        DBMigrate:   envBool("DB_MIGRATE", false),
    }
    cfg.AccessTTLMin = r.mustInt("ACCESS_TOKEN_TTL_MIN")

    switch cfg.StoreDriver {
    case StoreMySQL:
        cfg.DBUser = r.must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = r.must("DB_HOST")
        cfg.DBPort = r.must("DB_PORT")
        cfg.DBName = r.must("DB_NAME")
    case StoreMemory:
    default:
        r.invalid = append(r.invalid, fmt.Sprintf("STORE_DRIVER=%q", cfg.StoreDriver))
    }
    return cfg, r.err()
}

// IsProduction reports whether the app runs with APP_ENV=prod or production.
func (c Config) IsProduction() bool {
    switch strings.ToLower(c.Env) {
    case "prod", "production":
        return true
    }
    return false
}

// reader collects problems instead of exiting on the first one.
type reader struct {
    missing []string
    invalid []string
}

func (r *reader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        r.missing = append(r.missing, key)
    }
    return v
}

func (r *reader) mustInt(key string) int {
    s := r.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, s))
    }
    return n
}

func (r *reader) err() error {
    var parts []string
    if len(r.missing) > 0 {
        sort.Strings(r.missing)
        parts = append(parts, "missing required env vars: "+strings.Join(r.missing, ", "))
    }
    if len(r.invalid) > 0 {
        parts = append(parts, "invalid env vars: "+strings.Join(r.invalid, ", "))
    }
    if len(parts) == 0 {
        return nil
    }
    return errors.New(strings.Join(parts, "; "))
}
