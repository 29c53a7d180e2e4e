package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    DayZone              string        // IANA zone in which calendar days are cut
    QuoteProviderURL     string        // quotable-compatible endpoint for the daily quote
    QuoteProviderTimeout time.Duration // upper bound for one quote draw
    CORSOrigins          []string      // browser origins allowed to call the API
    RabbitURL            string        // AMQP URL for engagement events; empty disables them
    ActivityLogPath      string        // file the activity consumer appends to
    LogLevel             string        // debug, info, warn or error
    LogFormat            string        // text or json
    MigrateOnStart       bool          // create missing tables at startup
}

// AccessTTL is the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is loaded first when present;
// variables already set in the environment win. Required variables are
// enforced by must() and missing values cause the program to exit with a
// fatal log message.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: ignoring .env: %v", err)
    }
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        DayZone:              envStr("DAY_ZONE", "UTC"),
        QuoteProviderURL:     envStr("QUOTE_PROVIDER_URL", "https://api.quotable.io/random?minLength=50&maxLength=200"),
        QuoteProviderTimeout: envDur("QUOTE_PROVIDER_TIMEOUT", 3*time.Second),
        CORSOrigins:          splitList(envStr("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
        RabbitURL:            firstEnv("RABBITMQ_URL", "AMQP_URL"),
        ActivityLogPath:      envStr("ACTIVITY_LOG_PATH", "logs/activity.log"),
        LogLevel:             envStr("LOG_LEVEL", "info"),
        LogFormat:            envStr("LOG_FORMAT", "text"),
        MigrateOnStart:       envBool("DB_MIGRATE", true),
    }
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
