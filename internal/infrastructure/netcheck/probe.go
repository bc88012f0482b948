// Package netcheck reports network reachability by dialing a known endpoint.
package netcheck

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/bnema/flashota/internal/logging"
)

const (
	// DefaultTarget is dialed to decide whether the network is up.
	DefaultTarget = "api.github.com:443"
	// DefaultTimeout bounds one probe dial.
	DefaultTimeout = 3 * time.Second
	// DefaultCacheTTL is how long a probe result is reused.
	DefaultCacheTTL = 5 * time.Second
)

// Config configures the probe.
type Config struct {
	Target   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Probe implements port.Connectivity with a TCP dial.
type Probe struct {
	cfg  Config
	dial func(ctx context.Context, network, address string) (net.Conn, error)
	now  func() time.Time

	mu        sync.Mutex
	up        bool
	checkedAt time.Time
}

// NewProbe creates a probe. Zero fields of cfg take their defaults.
func NewProbe(cfg Config) *Probe {
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}
	d := &net.Dialer{Timeout: cfg.Timeout}
	return &Probe{cfg: cfg, dial: d.DialContext, now: time.Now}
}

// IsUp implements port.Connectivity.
func (p *Probe) IsUp(ctx context.Context) bool {
	p.mu.Lock()
	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.cfg.CacheTTL {
		up := p.up
		p.mu.Unlock()
		return up
	}
	p.mu.Unlock()

	return p.probe(ctx)
}

// Reset implements port.Connectivity. It forgets the cached state and dials again.
func (p *Probe) Reset(ctx context.Context) {
	p.mu.Lock()
	p.checkedAt = time.Time{}
	p.mu.Unlock()

	up := p.probe(ctx)
	logging.FromContext(ctx).Debug().Bool("up", up).Str("target", p.cfg.Target).Msg("network link reset")
}

func (p *Probe) probe(ctx context.Context) bool {
	log := logging.FromContext(ctx)

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	conn, err := p.dial(dialCtx, "tcp", p.cfg.Target)
	up := err == nil
	if up {
		_ = conn.Close()
	} else {
		log.Debug().Err(err).Str("target", p.cfg.Target).Msg("network probe failed")
	}

	p.mu.Lock()
	p.up = up
	p.checkedAt = p.now()
	p.mu.Unlock()

	return up
}
