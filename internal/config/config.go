package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

const minSigningKeyLen = 16

// App holds the runtime configuration. It is built once at startup and
// handed to whatever needs it.
type App struct {
	Env             string
	HTTPPort        string
	StoreBackend    string
	DatabaseURL     string
	MongoURL        string
	MongoDatabase   string
	RedisAddr       string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RequestTimeout  time.Duration
	RateLimitPerMin int
	CORSOrigins     []string
	DateKey         string
	AdminUsername   string
	AdminEmail      string
	AdminPassword   string
}

// Load reads an optional .env file and then the environment. Values already
// in the environment win over the file.
func Load() (App, error) {
	loadDotEnv()
	cfg := FromEnv()
	return cfg, cfg.Validate()
}

// LoadStore is Load for tools that only touch the database.
func LoadStore() (App, error) {
	loadDotEnv()
	cfg := FromEnv()
	return cfg, cfg.ValidateStore()
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
}

// FromEnv builds the configuration from environment variables without validating it.
func FromEnv() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8000"),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MongoURL:        getEnv("MONGODB_URL", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "attendance_db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", "attendance-portal"),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		AccessTTL:       durationEnv("ACCESS_TTL", 24*time.Hour),
		RequestTimeout:  durationEnv("REQUEST_TIMEOUT", 10*time.Second),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:     listEnv("CORS_ORIGINS", []string{"*"}),
		DateKey:         getEnv("ATTENDANCE_DATE_KEY", "exact"),
		AdminUsername:   os.Getenv("ADMIN_USERNAME"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
	}
}

// Production reports whether the app runs with release settings.
func (c App) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate rejects configurations the server cannot safely start with.
func (c App) Validate() error {
	var errs []error
	if len(c.JWTSigningKey) < minSigningKeyLen {
		errs = append(errs, fmt.Errorf("JWT_SIGNING_KEY must be set to at least %d bytes", minSigningKeyLen))
	}
	switch strings.ToLower(c.DateKey) {
	case "exact", "day":
	default:
		errs = append(errs, fmt.Errorf("ATTENDANCE_DATE_KEY must be exact or day, got %q", c.DateKey))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TTL must be positive"))
	}
	errs = append(errs, c.ValidateStore())
	return errors.Join(errs...)
}

// ValidateStore checks the backend selection and its connection settings.
func (c App) ValidateStore() error {
	var errs []error
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMongo:
		if c.MongoURL == "" {
			errs = append(errs, errors.New("MONGODB_URL is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
