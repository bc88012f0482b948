package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/logging"
)

const (
	// StrategyDirect queries the release API over TLS.
	StrategyDirect = "direct"
	// StrategyProxy relays the same query through a plaintext proxy.
	StrategyProxy = "proxy"
)

// ErrUnknownStrategy is returned by BuildStrategies for an unrecognized name.
var ErrUnknownStrategy = errors.New("unknown fetch strategy")

// Strategy is one way of obtaining the release document.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, ownerRepo string) ([]byte, error)
}

// StrategyConfig holds the settings shared by the fetch strategies.
type StrategyConfig struct {
	APIBaseURL         string
	ProxyBaseURL       string
	UserAgent          string
	MaxResponseBytes   int64
	InsecureSkipVerify bool
}

// DirectStrategy fetches the latest release from the API host.
type DirectStrategy struct {
	client *http.Client
	cfg    StrategyConfig
}

// NewDirectStrategy creates the direct TLS strategy.
func NewDirectStrategy(client *http.Client, cfg StrategyConfig) *DirectStrategy {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &DirectStrategy{client: client, cfg: cfg}
}

// Name implements Strategy.
func (*DirectStrategy) Name() string { return StrategyDirect }

// ReleaseURL returns the latest-release endpoint for ownerRepo.
func (s *DirectStrategy) ReleaseURL(ownerRepo string) string {
	return s.cfg.APIBaseURL + "/repos/" + ownerRepo + "/releases/latest"
}

// Fetch implements Strategy.
func (s *DirectStrategy) Fetch(ctx context.Context, ownerRepo string) ([]byte, error) {
	log := logging.FromContext(ctx)
	target := s.ReleaseURL(ownerRepo)

	if s.cfg.InsecureSkipVerify {
		log.Warn().Str("url", target).Msg("TLS certificate validation is disabled")
	}
	log.Debug().Str("url", target).Msg("requesting release info")

	body, err := get(ctx, s.client, target, s.cfg.UserAgent, githubMediaType, s.cfg.MaxResponseBytes)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("bytes", len(body)).Str("preview", preview(body, previewLength)).Msg("release info received")
	return body, nil
}

// ProxyStrategy fetches the direct endpoint through a JSON envelope relay.
type ProxyStrategy struct {
	client *http.Client
	direct *DirectStrategy
	cfg    StrategyConfig
}

// NewProxyStrategy creates the relay strategy. direct provides the wrapped URL.
func NewProxyStrategy(client *http.Client, direct *DirectStrategy, cfg StrategyConfig) *ProxyStrategy {
	if cfg.ProxyBaseURL == "" {
		cfg.ProxyBaseURL = DefaultProxyBaseURL
	}
	cfg.ProxyBaseURL = strings.TrimRight(cfg.ProxyBaseURL, "/")
	return &ProxyStrategy{client: client, direct: direct, cfg: cfg}
}

// Name implements Strategy.
func (*ProxyStrategy) Name() string { return StrategyProxy }

// Fetch implements Strategy. The relay answers {"contents": "<escaped document>", ...};
// a body that is not such an envelope is returned as is.
func (s *ProxyStrategy) Fetch(ctx context.Context, ownerRepo string) ([]byte, error) {
	log := logging.FromContext(ctx)
	target := s.cfg.ProxyBaseURL + "/get?url=" + url.QueryEscape(s.direct.ReleaseURL(ownerRepo))

	log.Debug().Str("url", target).Msg("requesting release info through proxy")

	envelope, err := get(ctx, s.client, target, s.cfg.UserAgent, "", s.cfg.MaxResponseBytes)
	if err != nil {
		return nil, err
	}

	contents, err := jsonparser.GetString(envelope, "contents")
	if err != nil {
		log.Debug().Err(err).Msg("no contents field in proxy response, using raw body")
		return envelope, nil
	}

	log.Debug().
		Int("bytes", len(contents)).
		Str("preview", preview([]byte(contents), previewLength)).
		Msg("extracted release info from proxy envelope")
	return []byte(contents), nil
}

// BuildStrategies returns the strategies named in order.
func BuildStrategies(names []string, apiClient *http.Client, cfg StrategyConfig) ([]Strategy, error) {
	direct := NewDirectStrategy(apiClient, cfg)
	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case StrategyDirect:
			strategies = append(strategies, direct)
		case StrategyProxy:
			strategies = append(strategies, NewProxyStrategy(apiClient, direct, cfg))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
	}
	return strategies, nil
}

// Fetcher tries each strategy in order and returns the first non-empty document.
type Fetcher struct {
	connectivity port.Connectivity
	reclaimer    port.MemoryReclaimer
	strategies   []Strategy
}

// NewFetcher creates a fetcher over strategies.
func NewFetcher(connectivity port.Connectivity, reclaimer port.MemoryReclaimer, strategies ...Strategy) *Fetcher {
	return &Fetcher{
		connectivity: connectivity,
		reclaimer:    reclaimer,
		strategies:   strategies,
	}
}

// Fetch implements port.ReleaseFetcher.
func (f *Fetcher) Fetch(ctx context.Context, ownerRepo string) []byte {
	log := logging.FromContext(ctx)

	if !f.connectivity.IsUp(ctx) {
		log.Error().Msg("network not connected, release fetch skipped")
		return nil
	}

	for _, strategy := range f.strategies {
		if ctx.Err() != nil {
			return nil
		}

		f.reclaimer.Reclaim(ctx)

		body, err := strategy.Fetch(ctx, ownerRepo)
		if err != nil {
			log.Warn().Err(err).Str("strategy", strategy.Name()).Msg("release fetch attempt failed")
			continue
		}
		if len(body) == 0 {
			log.Warn().Str("strategy", strategy.Name()).Msg("release fetch attempt returned empty body")
			continue
		}

		log.Debug().Str("strategy", strategy.Name()).Int("bytes", len(body)).Msg("release info fetched")
		return body
	}

	log.Error().Int("strategies", len(f.strategies)).Msg("failed to fetch release info with every strategy")
	return nil
}
