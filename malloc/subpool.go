package malloc

import "reflect"
import "sync"
import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gcmalloc/lib"

// cacheline should always be power of 2.
const cacheline = 64

// bitmaplen worst case bitmap size, every block at Minblock size.
const bitmaplen = int(Chunksize / Minblock / 8)

// subpool book-keeping at offset zero of its chunk, the rest of the
// chunk carved into `total` blocks of `blocksize` bytes each, tracked
// by a bitmap where a set bit means used. The pad after magic keeps
// concurrent magic reads off the lock's cache line.
type subpool struct {
	magic uint32
	_pad  [cacheline - 4]byte
	lock  sync.Mutex

	blocksize int64
	dataoff   int64
	total     int64
	used      int64 // atomic
	hint      int64 // search start for the next bitmap scan

	prev *subpool // intrusive, owned by poollist
	next *subpool

	bitmap [bitmaplen]uint8
}

// initsubpool construct a subpool in place on a fresh chunk. `ptr`
// shall be the Chunksize aligned base of the chunk.
func initsubpool(ptr unsafe.Pointer, blocksize int64) *subpool {
	if ptr == nil {
		panicerr("initsubpool on nil chunk")
	} else if (uintptr(ptr) & uintptr(Chunksize-1)) != 0 {
		panicerr("initsubpool chunk %p is not %v aligned", ptr, Chunksize)
	} else if blocksize < Minblock || blocksize > Maxsmallalloc {
		panicerr("initsubpool blocksize %v beyond [%v,%v]", blocksize, Minblock, Maxsmallalloc)
	} else if (blocksize % Alignment) != 0 {
		panicerr("initsubpool blocksize %v is not multiple of %v", blocksize, Alignment)
	}

	pool := (*subpool)(ptr)

	// clear the header region, the chunk may be recycled
	var hdr []byte
	hdrlen := int(unsafe.Sizeof(*pool))
	sl := (*reflect.SliceHeader)(unsafe.Pointer(&hdr))
	sl.Data, sl.Len, sl.Cap = uintptr(ptr), hdrlen, hdrlen
	for i := range hdr {
		hdr[i] = 0
	}

	pool.magic = Poolmagic
	pool.blocksize = blocksize
	pool.dataoff = alignup(int64(unsafe.Sizeof(*pool)), cacheline)
	pool.total = (Chunksize - pool.dataoff) / blocksize

	// bits past total are permanently used, searches can never land on
	// an out of range slot.
	for bit := pool.total; (bit & 0x7) != 0; bit++ {
		q, r := bit>>3, uint8(bit&0x7)
		pool.bitmap[q] = lib.Bit8(pool.bitmap[q]).Setbit(r)
	}
	for q := ceil(pool.total, 8); q < int64(bitmaplen); q++ {
		pool.bitmap[q] = 0xff
	}
	return pool
}

// destroy forget the pool, the chunk can be recycled. Stale pointers
// into the chunk stop matching on magic.
func (pool *subpool) destroy() {
	pool.magic = 0
}

// ptrtopool recover the owning pool of a block by masking the low bits
// off its address, nil unless the magic checks out.
func ptrtopool(ptr unsafe.Pointer) *subpool {
	if ptr == nil {
		return nil
	}
	base := uintptr(ptr) &^ uintptr(Chunksize-1)
	pool := (*subpool)(unsafe.Pointer(base))
	if pool.magic != Poolmagic {
		return nil
	}
	return pool
}

//---- operations

// allocchunk claim a free block, (nil, false) when the pool is full.
func (pool *subpool) allocchunk() (unsafe.Pointer, bool) {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	nthblock := pool.findfree()
	if nthblock < 0 {
		return nil, false
	}
	q, r := nthblock>>3, uint8(nthblock&0x7)
	pool.bitmap[q] = lib.Bit8(pool.bitmap[q]).Setbit(r)
	pool.hint = nthblock + 1
	atomic.AddInt64(&pool.used, 1)
	ptr := uintptr(unsafe.Pointer(pool)) + uintptr(pool.dataoff) + uintptr(nthblock*pool.blocksize)
	initblock(ptr, pool.blocksize)
	return unsafe.Pointer(ptr), true
}

// free give back a block obtained via allocchunk.
func (pool *subpool) free(ptr unsafe.Pointer) {
	if ptr == nil {
		panic("subpool.free(): nil pointer")
	}
	pool.lock.Lock()
	defer pool.lock.Unlock()

	diffptr := int64(uintptr(ptr) - uintptr(unsafe.Pointer(pool)) - uintptr(pool.dataoff))
	if (diffptr % pool.blocksize) != 0 {
		panicerr("subpool.free(): unaligned pointer: %x,%v", diffptr, pool.blocksize)
	}
	nthblock := diffptr / pool.blocksize
	if nthblock < 0 || nthblock >= pool.total {
		panicerr("subpool.free(): pointer out of range: %v", nthblock)
	}
	q, r := nthblock>>3, uint8(nthblock&0x7)
	if (pool.bitmap[q] & (1 << r)) == 0 {
		panicerr("subpool.free(): block %v is already free", nthblock)
	}
	pool.bitmap[q] = lib.Bit8(pool.bitmap[q]).Clearbit(r)
	atomic.AddInt64(&pool.used, -1)
	if nthblock < pool.hint {
		pool.hint = nthblock
	}
}

// findfree first zero bit starting at the hint, wrapping to the front
// when the hint is past the last free slot. Caller shall hold the lock.
func (pool *subpool) findfree() int64 {
	nbytes := int64(bitmaplen)
	start := pool.hint >> 3
	if start >= nbytes {
		start = 0
	}
	for q := start; q < nbytes; q++ {
		if r := lib.Bit8(pool.bitmap[q]).Findfirstzero(); r >= 0 {
			return (q << 3) + int64(r)
		}
	}
	for q := int64(0); q < start; q++ { // wrap around
		if r := lib.Bit8(pool.bitmap[q]).Findfirstzero(); r >= 0 {
			return (q << 3) + int64(r)
		}
	}
	return -1
}

//---- statistics

func (pool *subpool) slabsize() int64 {
	return pool.blocksize
}

func (pool *subpool) isempty() bool {
	return atomic.LoadInt64(&pool.used) == 0
}

func (pool *subpool) isfull() bool {
	return atomic.LoadInt64(&pool.used) == pool.total
}

// info return capacity, heap, alloc, overhead for this pool.
func (pool *subpool) info() (capacity, heap, alloc, overhead int64) {
	alloc = atomic.LoadInt64(&pool.used) * pool.blocksize
	capacity = pool.total * pool.blocksize
	return capacity, Chunksize, alloc, pool.dataoff
}
