// Package memory returns fragmented heap to the runtime before TLS-heavy work
// and hands out the download scratch buffer.
package memory

import (
	"context"
	"runtime"
	"runtime/debug"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/logging"
)

const (
	defaultRounds        = 3
	defaultBlocksPerSize = 20
	exerciseFill         = 0xAA
)

// DefaultBlockSizes are the allocation sizes cycled through, largest first.
var DefaultBlockSizes = []int{16384, 8192, 4096, 2048, 1024, 512, 256}

// IdleCloser is anything holding pooled network connections, such as *http.Client.
type IdleCloser interface {
	CloseIdleConnections()
}

// Config configures the reclaimer.
type Config struct {
	Enabled       bool
	Rounds        int
	BlockSizes    []int
	BlocksPerSize int
}

// DefaultConfig returns the reclaimer defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Rounds:        defaultRounds,
		BlockSizes:    DefaultBlockSizes,
		BlocksPerSize: defaultBlocksPerSize,
	}
}

// Reclaimer implements port.MemoryReclaimer.
type Reclaimer struct {
	cfg          Config
	connectivity port.Connectivity
	pool         *PoolPolicy
	closers      []IdleCloser

	yield  func()
	freeOS func()
}

// NewReclaimer creates a reclaimer. connectivity and pool may be nil.
func NewReclaimer(cfg Config, connectivity port.Connectivity, pool *PoolPolicy, closers ...IdleCloser) *Reclaimer {
	def := DefaultConfig()
	if cfg.Rounds <= 0 {
		cfg.Rounds = def.Rounds
	}
	if len(cfg.BlockSizes) == 0 {
		cfg.BlockSizes = def.BlockSizes
	}
	if cfg.BlocksPerSize <= 0 {
		cfg.BlocksPerSize = def.BlocksPerSize
	}
	return &Reclaimer{
		cfg:          cfg,
		connectivity: connectivity,
		pool:         pool,
		closers:      closers,
		yield:        runtime.Gosched,
		freeOS:       debug.FreeOSMemory,
	}
}

// Reclaim drops idle connections, resets the network transport, cycles the
// allocator and warms the secondary pool. It never fails.
func (r *Reclaimer) Reclaim(ctx context.Context) {
	log := logging.FromContext(ctx)

	if !r.cfg.Enabled {
		log.Debug().Msg("memory reclaim disabled")
		return
	}

	before := heapStats()

	for _, c := range r.closers {
		c.CloseIdleConnections()
	}

	if r.connectivity != nil {
		r.connectivity.Reset(ctx)
	}

	r.exercise()
	r.freeOS()

	if r.pool.HasSecondary() {
		r.pool.Warm()
	}

	after := heapStats()
	log.Debug().
		Uint64("heap_alloc_before", before.HeapAlloc).
		Uint64("heap_alloc_after", after.HeapAlloc).
		Uint64("heap_idle_after", after.HeapIdle).
		Uint64("heap_released_after", after.HeapReleased).
		Int("secondary_free", r.pool.Available()).
		Msg("memory reclaimed")
}

// exercise allocates and releases blocks of decreasing size so that freed
// spans coalesce before the next large allocation.
func (r *Reclaimer) exercise() {
	blocks := make([][]byte, 0, r.cfg.BlocksPerSize)
	for range r.cfg.Rounds {
		for _, size := range r.cfg.BlockSizes {
			for range r.cfg.BlocksPerSize {
				b := make([]byte, size)
				for i := range b {
					b[i] = exerciseFill
				}
				blocks = append(blocks, b)
			}
			for i := len(blocks) - 1; i >= 0; i-- {
				blocks[i] = nil
			}
			blocks = blocks[:0]
			r.yield()
		}
	}
}

func heapStats() runtime.MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}
