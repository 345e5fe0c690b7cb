// Package frameauc implements the per-thread pooled allocator cache of
// §4.2, retargeted (per SPEC_FULL.md §4.2) from raw coroutine-frame
// allocation — which Go's runtime-managed goroutine stacks don't expose —
// onto the scratch byte buffers the rest of this module actually recycles
// on its hot paths: wait-list node closures' captured state, queue chunk
// buffers, generator rendezvous cells.
//
// Go has no per-OS-thread local storage usable from ordinary code, so
// "per-thread cache" becomes "per sync.Pool shard" — the Go runtime already
// shards a sync.Pool per-P to avoid the cross-core contention the original
// avoids with genuine thread-local state. A sync.Pool shard plays the role
// of the original's "prepared" chain (ready to hand out, transparently
// reclaimed under memory pressure by the GC instead of by an explicit byte
// quota); an explicit lock-free stack plays the role of the "global"
// spillover cache, which Put donates to first for as long as it holds less
// than the per-class byte cap. This is a deliberate simplification of the two-chain
// (prepared/dropped) design — see DESIGN.md.
package frameauc

import (
	"sync"
	"sync/atomic"
)

const (
	defaultStep        = 64
	defaultLevels      = 20
	defaultPerClassCap = 102_400
)

type chainNode struct {
	buf  []byte
	next *chainNode
}

type class struct {
	blockSize   int
	pool        sync.Pool
	global      atomic.Pointer[chainNode]
	globalBytes atomic.Int64
	cap         int64
}

// Cache is a size-classed scratch-buffer allocator. The zero value is not
// usable; construct with New.
type Cache struct {
	step        int
	levels      int
	perClassCap int64
	disabled    bool
	classes     []*class
}

// Option configures a Cache.
type Option func(*Cache)

// WithDisabled falls through to plain make([]byte, n) for every
// allocation, bypassing the cache entirely.
func WithDisabled() Option { return func(c *Cache) { c.disabled = true } }

// WithStep sets the size-class granularity.
func WithStep(n int) Option { return func(c *Cache) { c.step = n } }

// WithLevels sets the number of size classes (max cacheable size = step *
// levels).
func WithLevels(n int) Option { return func(c *Cache) { c.levels = n } }

// WithPerClassCap sets the maximum bytes held in a size class's global
// spillover chain.
func WithPerClassCap(n int64) Option { return func(c *Cache) { c.perClassCap = n } }

// New builds a Cache with the given options.
func New(opts ...Option) *Cache {
	c := &Cache{
		step:        defaultStep,
		levels:      defaultLevels,
		perClassCap: defaultPerClassCap,
	}
	for _, o := range opts {
		o(c)
	}
	c.classes = make([]*class, c.levels)
	for i := range c.classes {
		blockSize := c.step * (i + 1)
		c.classes[i] = &class{blockSize: blockSize, cap: c.perClassCap}
	}
	return c
}

func (c *Cache) classFor(n int) *class {
	if n <= 0 || c.disabled {
		return nil
	}
	idx := (n + c.step - 1) / c.step
	if idx > c.levels {
		return nil
	}
	return c.classes[idx-1]
}

// Get returns a []byte of length n. Sizes above the configured maximum size
// class fall through to the heap, as does every allocation when the cache
// is disabled.
func (c *Cache) Get(n int) []byte {
	cl := c.classFor(n)
	if cl == nil {
		return make([]byte, n)
	}
	if v := cl.pool.Get(); v != nil {
		buf := v.([]byte)
		return buf[:n]
	}
	for {
		head := cl.global.Load()
		if head == nil {
			break
		}
		if cl.global.CompareAndSwap(head, head.next) {
			cl.globalBytes.Add(-int64(cl.blockSize))
			return head.buf[:n]
		}
	}
	return make([]byte, cl.blockSize)[:n]
}

// Put returns buf to its size class's cache for reuse. A buffer whose
// capacity does not land exactly on a size-class boundary (e.g. grown by
// append) is dropped for the GC to collect rather than cached, since the
// cache only ever hands out exact size-class-sized blocks.
func (c *Cache) Put(buf []byte) {
	cl := c.classFor(cap(buf))
	if cl == nil || cap(buf) != cl.blockSize {
		return
	}
	full := buf[:cap(buf)]

	// Donate to the global spillover chain under quota, pushing onto
	// whatever is already there rather than only when empty, mirroring
	// the original's per-class byte quota on the "dropped" (global)
	// chain; once the quota is reached, keep it in the local shard
	// instead.
	if cl.globalBytes.Load() < cl.cap {
		node := &chainNode{buf: full}
		for {
			head := cl.global.Load()
			node.next = head
			if cl.global.CompareAndSwap(head, node) {
				cl.globalBytes.Add(int64(cl.blockSize))
				return
			}
		}
	}
	cl.pool.Put(full)
}
