package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxAttempts bounds FETCH_MAX_ATTEMPTS and PLACES_MAX_ATTEMPTS.
const MaxAttempts = 10

type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	CORSAllowOrigins []string

	// Planning service.
	ItineraryServiceURL string
	FetchMaxAttempts    int
	FetchInitialDelay   time.Duration
	HTTPTimeout         time.Duration

	// Places directory. An empty API key puts enrichment in degraded mode.
	GooglePlacesAPIKey string
	PlacesUpstreamURL  string
	PlacesLanguage     string
	PlacesRelayURL     string
	PlacesMaxAttempts  int
	PlacesRateLimit    float64
	PlacesBurst        int
	PlacesCacheTTL     time.Duration
	PhotoProxyBaseURL  string
	PhotoMaxWidth      int
	// PhotoDirectURLs puts key-bearing directory photo URLs into itineraries
	// instead of links to the photo proxy.
	PhotoDirectURLs bool

	EnrichMaxConcurrency int

	PostgresURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional outside local development.
	_ = godotenv.Load()
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from the given lookup function and applies defaults.
func FromLookup(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var err error
	cfg := &Config{
		Port:                get("PORT", "8080"),
		GinMode:             get("GIN_MODE", ""),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFormat:           get("LOG_FORMAT", "json"),
		ItineraryServiceURL: strings.TrimRight(get("ITINERARY_SERVICE_URL", "http://localhost:8001"), "/"),
		GooglePlacesAPIKey:  get("GOOGLE_PLACES_API_KEY", ""),
		PlacesUpstreamURL:   strings.TrimRight(get("PLACES_UPSTREAM_URL", "https://maps.googleapis.com/maps/api/place"), "/"),
		PlacesLanguage:      get("PLACES_LANGUAGE", "en"),
		PhotoProxyBaseURL:   strings.TrimRight(get("PHOTO_PROXY_BASE_URL", ""), "/"),
		PostgresURL:         get("POSTGRES_URL", ""),
		RedisAddr:           get("REDIS_ADDR", ""),
		RedisPassword:       get("REDIS_PASSWORD", ""),
	}
	cfg.PlacesRelayURL = get("PLACES_RELAY_URL", "http://127.0.0.1:"+cfg.Port+"/api/google-places")

	for _, o := range strings.Split(get("CORS_ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
		}
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"FETCH_MAX_ATTEMPTS", 3, &cfg.FetchMaxAttempts},
		{"PLACES_MAX_ATTEMPTS", 1, &cfg.PlacesMaxAttempts},
		{"PLACES_BURST", 5, &cfg.PlacesBurst},
		{"PHOTO_MAX_WIDTH", 400, &cfg.PhotoMaxWidth},
		{"ENRICH_MAX_CONCURRENCY", 8, &cfg.EnrichMaxConcurrency},
		{"REDIS_DB", 0, &cfg.RedisDB},
	}
	for _, it := range ints {
		if *it.dst, err = strconv.Atoi(get(it.key, strconv.Itoa(it.def))); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", it.key, err)
		}
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"FETCH_INITIAL_DELAY", time.Second, &cfg.FetchInitialDelay},
		{"HTTP_TIMEOUT", 15 * time.Second, &cfg.HTTPTimeout},
		{"PLACES_CACHE_TTL", 24 * time.Hour, &cfg.PlacesCacheTTL},
	}
	for _, it := range durations {
		if *it.dst, err = time.ParseDuration(get(it.key, it.def.String())); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", it.key, err)
		}
	}

	if cfg.PlacesRateLimit, err = strconv.ParseFloat(get("PLACES_RATE_LIMIT", "10"), 64); err != nil {
		return nil, fmt.Errorf("invalid PLACES_RATE_LIMIT: %w", err)
	}
	if cfg.PhotoDirectURLs, err = strconv.ParseBool(get("PLACES_PHOTO_DIRECT", "false")); err != nil {
		return nil, fmt.Errorf("invalid PLACES_PHOTO_DIRECT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.FetchMaxAttempts < 1 || c.FetchMaxAttempts > MaxAttempts {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be between 1 and %d, got %d", MaxAttempts, c.FetchMaxAttempts)
	}
	if c.PlacesMaxAttempts < 1 || c.PlacesMaxAttempts > MaxAttempts {
		return fmt.Errorf("PLACES_MAX_ATTEMPTS must be between 1 and %d, got %d", MaxAttempts, c.PlacesMaxAttempts)
	}
	if c.FetchInitialDelay <= 0 {
		return fmt.Errorf("FETCH_INITIAL_DELAY must be positive, got %s", c.FetchInitialDelay)
	}
	if c.EnrichMaxConcurrency < 1 {
		return fmt.Errorf("ENRICH_MAX_CONCURRENCY must be at least 1, got %d", c.EnrichMaxConcurrency)
	}
	if c.PlacesRateLimit <= 0 || c.PlacesBurst < 1 {
		return fmt.Errorf("PLACES_RATE_LIMIT and PLACES_BURST must be positive")
	}
	for name, raw := range map[string]string{
		"ITINERARY_SERVICE_URL": c.ItineraryServiceURL,
		"PLACES_UPSTREAM_URL":   c.PlacesUpstreamURL,
		"PLACES_RELAY_URL":      c.PlacesRelayURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	return nil
}

// PlacesEnabled reports whether the places directory credential is configured.
func (c *Config) PlacesEnabled() bool {
	return c.GooglePlacesAPIKey != ""
}
