package analyze

import (
	"fmt"
	"net/http"
	"time"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/infra"
	"github.com/seenimoa/filinglens/internal/retrieval"
	"github.com/seenimoa/filinglens/internal/retrieval/edgar"
)

// BuildRegistry wires the configured retrieval sources. EDGAR is always
// registered; a fixture source joins it when a fixture directory is set.
// The registry default follows cfg.Source when named.
func BuildRegistry(cfg config.RetrievalConfig) (*retrieval.Registry, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}

	opts := []edgar.ClientOption{
		edgar.WithRateLimit(cfg.RateLimit, 4),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, edgar.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, edgar.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSec > 0 {
		opts = append(opts, edgar.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		}))
	}
	if cfg.CacheDir != "" && cfg.CacheTTL > 0 {
		dc, err := infra.NewDiskCache(cfg.CacheDir, time.Duration(cfg.CacheTTL)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("retrieval cache: %w", err)
		}
		opts = append(opts, edgar.WithDiskCache(dc))
	}

	reg := retrieval.NewRegistry()
	if err := reg.Register(edgar.NewSource(edgar.NewClient(ua, opts...))); err != nil {
		return nil, err
	}
	if cfg.FixtureDir != "" {
		if err := reg.Register(retrieval.NewFixture(cfg.FixtureDir)); err != nil {
			return nil, err
		}
	}
	if cfg.Source != "" {
		if err := reg.SetDefault(cfg.Source); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
