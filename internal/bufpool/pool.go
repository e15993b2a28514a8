// Package bufpool implements a process-wide, size-classed allocator of
// byte pages for the hot encode/decode path of the column store.
//
// Pages are grouped into free lists by power-of-two capacity, from
// MinBucket to MaxBucket. Get rounds a requested capacity up to its
// bucket; Release returns a page to its bucket's free list unless its
// capacity exceeds MaxBucket, in which case it is simply dropped.
package bufpool

import (
	"math/bits"
	"sync"
	"sync/atomic"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/colbits/internal/metrics"
)

var log = logging.Logger("colbits/bufpool")

const (
	// MinBucket is the smallest page capacity the pool hands out.
	MinBucket = 256
	// MaxBucket is the largest page capacity the pool caches. Requests
	// above this are served with one-shot, uncached allocations.
	MaxBucket = 1 << 20 // 1 MiB
)

var (
	minBucketLog = bits.TrailingZeros(uint(MinBucket))
	maxBucketLog = bits.TrailingZeros(uint(MaxBucket))
	numBuckets   = maxBucketLog - minBucketLog + 1
)

// bucketIndex returns the free-list index for a power-of-two capacity,
// clamped to the pool's bucket range.
func bucketIndex(capacity int) int {
	idx := bits.TrailingZeros(uint(capacity)) - minBucketLog
	if idx < 0 {
		return 0
	}
	if idx >= numBuckets {
		return numBuckets - 1
	}
	return idx
}

// nextPow2 rounds n up to the next power of two, clamped to
// [MinBucket, MaxBucket].
func nextPow2(n int) int {
	if n <= MinBucket {
		return MinBucket
	}
	if n >= MaxBucket {
		return MaxBucket
	}
	return 1 << bits.Len(uint(n-1))
}

type bucket struct {
	mu   sync.Mutex
	free [][]byte
}

// Pool is a size-classed byte-page allocator. The zero value is not
// usable; construct with New.
type Pool struct {
	buckets  [numBuckets]bucket
	maxBytes int64

	bytesInPool atomic.Int64
	bytesInUse  atomic.Int64
	hits        atomic.Uint64
	misses      atomic.Uint64
}

// New constructs a pool with a soft ceiling on aggregate cached bytes.
// A maxBytes of 0 disables the ceiling (trim is never triggered
// automatically; callers may still call Trim explicitly).
func New(maxBytes int64) *Pool {
	return &Pool{maxBytes: maxBytes}
}

// Page is a contiguous byte buffer checked out from a Pool. It is
// exclusively owned by the caller until Release is called. Do not
// retain slices derived from Page.Bytes past Release.
type Page struct {
	buf      []byte
	capacity int
	pool     *Pool
	bucketAt int // -1 for one-shot pages that are not cached on release
	released bool
}

// Get rounds minCapacity up to the pool's next size class and returns a
// page with logical length 0 and capacity equal to the rounded target.
// Requests larger than MaxBucket get a one-shot page that is never
// cached.
func (p *Pool) Get(minCapacity int) *Page {
	if minCapacity > MaxBucket {
		p.bytesInUse.Add(int64(minCapacity))
		p.misses.Add(1)
		metrics.PoolMisses.Inc()
		p.reportGauges()
		return &Page{buf: make([]byte, 0, minCapacity), capacity: minCapacity, pool: p, bucketAt: -1}
	}

	target := nextPow2(minCapacity)
	idx := bucketIndex(target)
	b := &p.buckets[idx]

	b.mu.Lock()
	n := len(b.free)
	var buf []byte
	if n > 0 {
		buf = b.free[n-1]
		b.free = b.free[:n-1]
	}
	b.mu.Unlock()

	if buf != nil {
		p.hits.Add(1)
		p.bytesInPool.Add(-int64(target))
		metrics.PoolHits.Inc()
	} else {
		buf = make([]byte, 0, target)
		p.misses.Add(1)
		metrics.PoolMisses.Inc()
	}
	p.bytesInUse.Add(int64(target))
	p.reportGauges()

	p.maybeTrim()

	return &Page{buf: buf, capacity: target, pool: p, bucketAt: idx}
}

func (p *Pool) reportGauges() {
	metrics.PoolBytesInPool.Set(float64(p.bytesInPool.Load()))
	metrics.PoolBytesInUse.Set(float64(p.bytesInUse.Load()))
}

// Release returns the page to its bucket's free list, or frees it if it
// was a one-shot allocation. Release is idempotent; calling it twice is
// a no-op on the second call.
func (p *Page) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.pool.bytesInUse.Add(-int64(p.capacity))

	if p.bucketAt < 0 {
		p.buf = nil
		p.pool.reportGauges()
		return
	}

	buf := p.buf[:0]
	clear(buf[:cap(buf)])

	b := &p.pool.buckets[p.bucketAt]
	b.mu.Lock()
	b.free = append(b.free, buf)
	b.mu.Unlock()
	p.pool.bytesInPool.Add(int64(p.capacity))
	p.buf = nil
	p.pool.reportGauges()
}

// Bytes returns the page's current logical contents.
func (p *Page) Bytes() []byte {
	return p.buf
}

// Cap returns the page's capacity: a power of two for cached pages, or
// exactly the requested size for one-shot pages above MaxBucket.
func (p *Page) Cap() int {
	return p.capacity
}

// SetLen truncates or extends the logical length of the page's backing
// buffer up to its capacity, zero-filling any newly exposed bytes.
func (p *Page) SetLen(n int) {
	if n > p.capacity {
		panic("bufpool: SetLen beyond capacity")
	}
	if n <= len(p.buf) {
		p.buf = p.buf[:n]
		return
	}
	grown := p.buf[:n]
	clear(grown[len(p.buf):])
	p.buf = grown
}

// Append appends data to the page and reports whether it fit. On
// overflow it leaves the page unchanged and returns false, so callers
// can surface their own typed error (such as errs.CapacityError).
func (p *Page) Append(data []byte) bool {
	if len(p.buf)+len(data) > p.capacity {
		return false
	}
	p.buf = append(p.buf, data...)
	return true
}

// maybeTrim opportunistically drains free lists when the soft ceiling
// is exceeded. It never blocks a request and never fails.
func (p *Pool) maybeTrim() {
	if p.maxBytes <= 0 {
		return
	}
	if p.bytesInPool.Load() <= p.maxBytes {
		return
	}
	log.Debugw("soft ceiling exceeded, trimming free lists", "bytesInPool", p.bytesInPool.Load(), "bytesInUse", p.bytesInUse.Load(), "maxBytes", p.maxBytes)
	p.Trim()
}

// Trim drains all free lists, releasing cached pages for garbage
// collection and decrementing byte accounting accordingly.
func (p *Pool) Trim() {
	for i := range p.buckets {
		b := &p.buckets[i]
		b.mu.Lock()
		for _, buf := range b.free {
			p.bytesInPool.Add(-int64(cap(buf)))
		}
		b.free = nil
		b.mu.Unlock()
	}
	p.reportGauges()
}

// Stats returns cumulative hit/miss counts since construction.
func (p *Pool) Stats() (hits, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

// BytesInPool returns the current aggregate size of cached, unused
// pages.
func (p *Pool) BytesInPool() int64 {
	return p.bytesInPool.Load()
}

// BytesInUse returns the current aggregate capacity of pages checked
// out and not yet released.
func (p *Pool) BytesInUse() int64 {
	return p.bytesInUse.Load()
}
