package malloc

import "math"
import "unsafe"

import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// Heap small-object allocator front-end. A Heap shall be owned by a
// single goroutine: Alloc, Gc and Release are owner-only, while Free
// and Freebig are safe from any goroutine. Blocks handed out by a heap
// are remembered in a managed list and reclaimed, after they have been
// freed, by the owner's next Gc pass.
type Heap struct {
	// 64-bit aligned stats
	n_allocs    int64
	n_bigallocs int64
	n_reclaims  int64
	n_gcpasses  int64

	slabs    []int64 // sorted list of block-sizes in this heap
	managers []*poolmanager
	managed  managedlist
	supplier *chunksupplier

	// configuration
	setts    s.Settings
	minblock int64
	maxblock int64
}

// NewHeap create a heap for the current goroutine. Refer to
// Defaultsettings() for explanation on settings.
func NewHeap(setts s.Settings) *Heap {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	heap := &Heap{
		supplier: getsupplier(),
		setts:    setts,
		minblock: setts.Int64("minblock"),
		maxblock: setts.Int64("maxblock"),
	}
	heap.slabs = Blocksizes(heap.minblock, heap.maxblock)
	heap.managers = make([]*poolmanager, len(heap.slabs))
	targetempty := setts.Int64("pools.target")
	highempty := setts.Int64("pools.high")
	for i, blocksize := range heap.slabs {
		mgr := newpoolmanager(blocksize, targetempty, highempty)
		mgr.setcallbacks(heap.makerefill(blocksize), heap.returnpool)
		heap.managers[i] = mgr
	}
	fmsg := "%v heap with %v block-sizes (%v to %v)\n"
	infof(fmsg, heap.logprefix(), len(heap.slabs),
		humanize.Ibytes(uint64(heap.minblock)), humanize.Ibytes(uint64(heap.maxblock)))
	return heap
}

//---- operations

// Alloc implement api.Mallocer{} interface. For `n` beyond "maxblock"
// the block is a whole chunk from the supplier, untracked by Gc, give
// it back via Freebig. Nil when the OS refuses memory.
func (heap *Heap) Alloc(n int64) unsafe.Pointer {
	if heap.managers == nil {
		panicerr("heap released")
	} else if n < 0 {
		panicerr("Alloc size %v", n)
	}
	if n > heap.maxblock { // big object bypass
		if n > Chunksize {
			errorf("%v Alloc size %v exceeds chunk size %v\n", heap.logprefix(), n, Chunksize)
			return nil
		}
		heap.n_bigallocs++
		return heap.supplier.acquirechunk(Chunksize)
	}
	class := suitableslab(heap.slabs, n)
	ptr := heap.managers[class].allocblock()
	if ptr == nil {
		errorf("%v Alloc(%v): out of memory\n", heap.logprefix(), n)
		return nil
	}
	heap.managed.attachused(blockat(ptr))
	heap.n_allocs++
	return ptr
}

// Free mark a block free, safe from any goroutine. The block stays with
// its owner heap until that heap's next Gc pass. Freeing a block twice
// within one life is a no-op, freeing it after it has been reclaimed
// and handed out again corrupts the new owner.
func Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	blockat(ptr).storefree()
}

// Freebig give back a block obtained through the big object bypass,
// safe from any goroutine.
func Freebig(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	getsupplier().releasechunk(ptr, Chunksize)
}

// Gc implement api.Mallocer{} interface. Walk the managed list and
// return freed blocks to their pools, upto `maxscan` blocks, zero or
// negative for no bound. Owner goroutine only.
func (heap *Heap) Gc(maxscan int64) int64 {
	if heap.managers == nil {
		panicerr("heap released")
	}
	if maxscan <= 0 {
		maxscan = math.MaxInt64
	}
	heap.managed.resetcursor()
	reclaimed := int64(0)
	for reclaimed < maxscan {
		blk := heap.managed.reclaimnext()
		if blk == nil {
			break
		}
		ptr := unsafe.Pointer(blk)
		pool := ptrtopool(ptr)
		if pool == nil {
			panicerr("Gc: reclaimed block %p without owner pool", ptr)
		}
		class := suitableslab(heap.slabs, pool.slabsize())
		if ok := heap.managers[class].releaseblock(ptr); !ok {
			panicerr("Gc: block %p refused by manager %v", ptr, heap.slabs[class])
		}
		reclaimed++
	}
	heap.n_reclaims += reclaimed
	heap.n_gcpasses++
	debugf("%v Gc reclaimed %v blocks\n", heap.logprefix(), reclaimed)
	return reclaimed
}

// Release implement api.Mallocer{} interface. Return every pool to the
// chunk supplier. Blocks still in the managed list are the caller's
// leaks, they are torn down with their pools.
func (heap *Heap) Release() {
	for _, mgr := range heap.managers {
		mgr.releasepools()
	}
	heap.managed = managedlist{}
	infof("%v released\n", heap.logprefix())
	heap.slabs, heap.managers = nil, nil
}

//---- callbacks into the chunk supplier

func (heap *Heap) makerefill(blocksize int64) func() *subpool {
	return func() *subpool {
		chunk := heap.supplier.acquirechunk(Chunksize)
		if chunk == nil {
			return nil
		}
		return initsubpool(chunk, blocksize)
	}
}

func (heap *Heap) returnpool(pool *subpool) {
	pool.destroy()
	heap.supplier.releasechunk(unsafe.Pointer(pool), Chunksize)
}

//---- statistics and maintenance

// Slabs implement api.Mallocer{} interface.
func (heap *Heap) Slabs() (sizes []int64) {
	return heap.slabs
}

// Slabsize implement api.Mallocer{} interface.
func (heap *Heap) Slabsize(ptr unsafe.Pointer) int64 {
	pool := ptrtopool(ptr)
	if pool == nil {
		panicerr("Slabsize: %p was not allocated from a pool", ptr)
	}
	return pool.slabsize()
}

// Info implement api.Mallocer{} interface.
func (heap *Heap) Info() (capacity, heapmem, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*heap))
	slicesz := int64(cap(heap.slabs)) * int64(unsafe.Sizeof(int64(1)))
	overhead += self + slicesz
	for _, mgr := range heap.managers {
		c, h, a, o := mgr.info()
		capacity, heapmem, alloc, overhead = capacity+c, heapmem+h, alloc+a, overhead+o
	}
	return
}

// Utilization implement api.Mallocer{} interface.
func (heap *Heap) Utilization() ([]int, []float64) {
	ss, zs := make([]int, 0), make([]float64, 0)
	for i, blocksize := range heap.slabs {
		capacity, _, alloc, _ := heap.managers[i].info()
		if capacity > 0 {
			ss = append(ss, int(blocksize))
			zs = append(zs, (float64(alloc)/float64(capacity))*100)
		}
	}
	return ss, zs
}

// Stats for this heap, diagnostic sampling only, not synchronized with
// ongoing mutation.
func (heap *Heap) Stats() map[string]interface{} {
	nempty, npartial, nfull := int64(0), int64(0), int64(0)
	for _, mgr := range heap.managers {
		e, p, f := mgr.counts()
		nempty, npartial, nfull = nempty+e, npartial+p, nfull+f
	}
	return map[string]interface{}{
		"n_allocs":      heap.n_allocs,
		"n_bigallocs":   heap.n_bigallocs,
		"n_reclaims":    heap.n_reclaims,
		"n_gcpasses":    heap.n_gcpasses,
		"pools.empty":   nempty,
		"pools.partial": npartial,
		"pools.full":    nfull,
	}
}

func (heap *Heap) logprefix() string {
	return "malloc.heap"
}
