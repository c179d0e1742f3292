package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (EDGESTORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"storefront listen address"`
	APIBaseURL string `default:"http://localhost:4242" usage:"base URL of the remote commerce API" flag:"api-base-url"`
	SessionDB  string `default:"storefront.db" usage:"path of the local session database file" flag:"session-db"`

	// APITimeout bounds commerce API calls client-side. Zero disables the
	// bound and lets the remote API's own timeout behaviour govern.
	APITimeout time.Duration `default:"0s" usage:"client-side timeout for commerce API calls (0 = none)" flag:"api-timeout"`

	// NoticeTTL is how long transient success notices stay visible.
	NoticeTTL time.Duration `default:"3s" usage:"lifetime of transient success notices" flag:"notice-ttl"`

	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "EDGESTORE",
		Files:     []string{"config.yaml", "/etc/edgestore/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.APIBaseURL == "" {
		return nil, errors.New("commerce API base URL is required: set EDGESTORE_APIBASEURL or API_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like API_URL and PORT to the application's
// EDGESTORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("API_URL"); v != "" && c.APIBaseURL == "http://localhost:4242" {
		c.APIBaseURL = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
