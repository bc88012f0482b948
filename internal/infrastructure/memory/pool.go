package memory

import "sync"

const (
	// SecondaryBufferSize is the scratch buffer size handed out by the secondary pool.
	SecondaryBufferSize = 2048
	// HeapBufferSize is the scratch buffer size used when the secondary pool is absent or exhausted.
	HeapBufferSize = 1024

	warmFill = 0x55
)

// PoolPolicy decides where large allocations come from. It owns an optional
// secondary pool of fixed-size buffers; allocations above Threshold prefer it.
// A nil *PoolPolicy behaves as a policy with no secondary pool.
type PoolPolicy struct {
	mu        sync.Mutex
	free      [][]byte
	capacity  int
	threshold int
}

// NewPoolPolicy creates a policy with a secondary pool of buffers entries.
// buffers <= 0 means no secondary pool.
func NewPoolPolicy(buffers int) *PoolPolicy {
	p := &PoolPolicy{}
	if buffers <= 0 {
		return p
	}

	arena := make([]byte, buffers*SecondaryBufferSize)
	p.free = make([][]byte, 0, buffers)
	for i := range buffers {
		off := i * SecondaryBufferSize
		p.free = append(p.free, arena[off:off+SecondaryBufferSize:off+SecondaryBufferSize])
	}
	p.capacity = buffers
	return p
}

// HasSecondary reports whether a secondary pool exists.
func (p *PoolPolicy) HasSecondary() bool {
	return p != nil && p.capacity > 0
}

// Warm touches every free buffer of the secondary pool and routes allocations
// above HeapBufferSize to it. It is a no-op without a secondary pool.
func (p *PoolPolicy) Warm() {
	if !p.HasSecondary() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, buf := range p.free {
		for i := range buf {
			buf[i] = warmFill
		}
	}
	p.threshold = HeapBufferSize
}

// Threshold returns the size above which allocations prefer the secondary pool, 0 if unset.
func (p *PoolPolicy) Threshold() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threshold
}

// Available returns the number of free secondary buffers.
func (p *PoolPolicy) Available() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Scratch implements port.ScratchAllocator. It requests a SecondaryBufferSize
// chunk buffer. release may be called more than once.
func (p *PoolPolicy) Scratch() ([]byte, func()) {
	return p.Alloc(SecondaryBufferSize)
}

// Alloc returns a buffer for a request of size bytes. Once Warm has set the
// threshold, requests above it are served from the secondary pool while a
// buffer is free. Every other request gets a heap buffer of at most
// HeapBufferSize bytes.
func (p *PoolPolicy) Alloc(size int) ([]byte, func()) {
	if size > SecondaryBufferSize {
		size = SecondaryBufferSize
	}
	if p.HasSecondary() {
		p.mu.Lock()
		if n := len(p.free); p.threshold > 0 && size > p.threshold && n > 0 {
			buf := p.free[n-1]
			p.free = p.free[:n-1]
			p.mu.Unlock()

			var once sync.Once
			return buf[:size], func() { once.Do(func() { p.put(buf) }) }
		}
		p.mu.Unlock()
	}
	return make([]byte, min(size, HeapBufferSize)), func() {}
}

func (p *PoolPolicy) put(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, buf[:SecondaryBufferSize])
}
