package malloc

import "sync"
import "unsafe"

import "github.com/bnclabs/gcmalloc/api"
import "github.com/cloudfoundry/gosigar"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// chunksupplier process wide cache of chunks between heaps and the OS.
// Chunks released by heaps are kept in a LIFO free list and handed back
// on the next acquire, the OS is involved only when the free list runs
// dry or overflows `maxcached`.
type chunksupplier struct {
	mapper api.Chunkmapper

	mu          sync.Mutex
	chunks      []unsafe.Pointer // LIFO
	outstanding int64            // mapped from OS and not yet unmapped

	// configuration
	targetcached int64
	maxcached    int64
}

func newchunksupplier(mapper api.Chunkmapper, setts s.Settings) *chunksupplier {
	supplier := &chunksupplier{
		mapper:       mapper,
		chunks:       make([]unsafe.Pointer, 0, setts.Int64("chunkcache.max")),
		targetcached: setts.Int64("chunkcache.target"),
		maxcached:    setts.Int64("chunkcache.max"),
	}
	mem := sigar.Mem{}
	if err := mem.Get(); err == nil {
		fmsg := "chunksupplier with %v chunks, %v free with OS\n"
		infof(fmsg, humanize.Ibytes(uint64(Chunksize)), humanize.Ibytes(mem.ActualFree))
	}
	return supplier
}

// acquirechunk return a Chunksize aligned chunk, nil only when the OS
// refuses memory and the free list is empty.
func (supplier *chunksupplier) acquirechunk(size int64) unsafe.Pointer {
	if size != Chunksize {
		panicerr("acquirechunk size %v, only %v supported", size, Chunksize)
	}
	supplier.mu.Lock()
	defer supplier.mu.Unlock()

	if len(supplier.chunks) == 0 {
		supplier.refill()
	}
	if ln := len(supplier.chunks); ln > 0 {
		ptr := supplier.chunks[ln-1]
		supplier.chunks = supplier.chunks[:ln-1]
		return ptr
	}
	errorf("malloc.chunksupplier: OS refused memory\n")
	return nil
}

// releasechunk take back a chunk obtained via acquirechunk, cache it or
// unmap it past the `maxcached` watermark.
func (supplier *chunksupplier) releasechunk(ptr unsafe.Pointer, size int64) {
	if ptr == nil {
		panicerr("releasechunk on nil pointer")
	} else if size != Chunksize {
		panicerr("releasechunk size %v, only %v supported", size, Chunksize)
	} else if (uintptr(ptr) & uintptr(Chunksize-1)) != 0 {
		panicerr("releasechunk pointer %p is not %v aligned", ptr, Chunksize)
	}
	supplier.mu.Lock()
	defer supplier.mu.Unlock()

	if int64(len(supplier.chunks)) < supplier.maxcached {
		supplier.chunks = append(supplier.chunks, ptr)
		return
	}
	supplier.mapper.Unmapchunk(ptr, Chunksize)
	supplier.outstanding--
}

// refill the free list upto `targetcached` chunks, partial refill is
// acceptable. Caller shall hold the lock.
func (supplier *chunksupplier) refill() {
	for int64(len(supplier.chunks)) < supplier.targetcached {
		ptr := supplier.mapper.Mapchunk(Chunksize)
		if ptr == nil {
			warnf("malloc.chunksupplier: refill stopped at %v chunks\n", len(supplier.chunks))
			return
		}
		supplier.chunks = append(supplier.chunks, ptr)
		supplier.outstanding++
	}
}

// cached number of chunks in the free list.
func (supplier *chunksupplier) cached() int64 {
	supplier.mu.Lock()
	defer supplier.mu.Unlock()
	return int64(len(supplier.chunks))
}

// netchunks number of chunks mapped from the OS and not yet unmapped,
// includes cached chunks and chunks held by heaps.
func (supplier *chunksupplier) netchunks() int64 {
	supplier.mu.Lock()
	defer supplier.mu.Unlock()
	return supplier.outstanding
}

// drain unmap every cached chunk back to the OS.
func (supplier *chunksupplier) drain() {
	supplier.mu.Lock()
	defer supplier.mu.Unlock()
	for _, ptr := range supplier.chunks {
		supplier.mapper.Unmapchunk(ptr, Chunksize)
		supplier.outstanding--
	}
	supplier.chunks = supplier.chunks[:0]
}

var supplier *chunksupplier
var supplieronce sync.Once

// getsupplier lazily construct the process wide supplier, safe for
// concurrent first callers.
func getsupplier() *chunksupplier {
	supplieronce.Do(func() {
		supplier = newchunksupplier(newosmapper(), Defaultsettings())
	})
	return supplier
}
