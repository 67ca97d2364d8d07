package engine

import (
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service configuration, constructed once at process start
// and threaded through constructors. Nothing reads the environment after
// LoadConfig returns.
type Config struct {
	CacheDir                string        `env:"YTMCP_CACHE_DIR" envDefault:".ytmcp_cache"`
	CacheTTLDays            int           `env:"YTMCP_CACHE_TTL_DAYS" envDefault:"14"`
	AllowAuto               bool          `env:"YTMCP_ALLOW_AUTO" envDefault:"true"`
	RejectPrivateOrUnlisted bool          `env:"YTMCP_REJECT_PRIVATE_OR_UNLISTED" envDefault:"true"`
	HTTPHost                string        `env:"YTMCP_HTTP_HOST" envDefault:"127.0.0.1"`
	HTTPPort                int           `env:"YTMCP_HTTP_PORT" envDefault:"8765"`
	TargetChars             int           `env:"YTMCP_TARGET_CHARS" envDefault:"1000"`
	OverlapChars            int           `env:"YTMCP_OVERLAP_CHARS" envDefault:"100"`
	MaxConcurrent           int64         `env:"YTMCP_MAX_CONCURRENT" envDefault:"8"`
	FetchTimeout            time.Duration `env:"YTMCP_FETCH_TIMEOUT" envDefault:"15s"`
	UpstreamRPS             float64       `env:"YTMCP_UPSTREAM_RPS" envDefault:"2"`

	HTTPClient *http.Client `env:"-"`
}

// LoadConfig parses configuration from YTMCP_-prefixed environment variables
// and fills in the shared HTTP client.
func LoadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: c.FetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	return c, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
