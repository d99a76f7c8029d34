package malloc

import "unsafe"

// poolmanager per-heap cache of subpools for one block-size. Pools
// migrate between the empty, partial and full lists as their used count
// changes; refill and trim keep the empty list between the two
// watermarks. Single goroutine access only, the owning heap's.
type poolmanager struct {
	blocksize int64

	empty   poollist
	partial poollist
	full    poollist

	refillcb func() *subpool
	returncb func(pool *subpool)

	// configuration
	targetempty int64
	highempty   int64
}

func newpoolmanager(blocksize, targetempty, highempty int64) *poolmanager {
	return &poolmanager{
		blocksize:   blocksize,
		targetempty: targetempty,
		highempty:   highempty,
	}
}

// setcallbacks refill supplies a fresh empty pool of this manager's
// block-size, nil when memory is exhausted; returncb takes an empty
// pool off the manager's hands.
func (mgr *poolmanager) setcallbacks(refill func() *subpool, ret func(*subpool)) {
	mgr.refillcb, mgr.returncb = refill, ret
}

//---- operations

// allocblock claim a block from a partial pool, else from an empty
// pool, refilling when both lists are dry. Nil when refill cannot
// produce a pool.
func (mgr *poolmanager) allocblock() unsafe.Pointer {
	if mgr.partial.empty() && mgr.empty.empty() {
		mgr.refillempty()
	}

	pool := mgr.acquireusable()
	if pool == nil {
		return nil
	}

	ptr, ok := pool.allocchunk()
	if !ok { // should not happen, put the pool back where it belongs
		if pool.isempty() {
			mgr.empty.pushfront(pool)
		} else if pool.isfull() {
			mgr.full.pushfront(pool)
		} else {
			mgr.partial.pushfront(pool)
		}
		return nil
	}

	if pool.isfull() {
		mgr.full.pushfront(pool)
	} else {
		mgr.partial.pushfront(pool)
	}
	return ptr
}

// releaseblock give a block back to its pool and migrate the pool
// between lists. False when the pointer's owner pool does not carry
// this manager's block-size.
func (mgr *poolmanager) releaseblock(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}
	pool := ptrtopool(ptr)
	if pool == nil || pool.slabsize() != mgr.blocksize {
		return false
	}

	wasfull := pool.isfull()
	pool.free(ptr)

	if wasfull {
		mgr.full.remove(pool)
	} else {
		// the empty list cannot hold a pool with live blocks
		mgr.partial.remove(pool)
	}

	if pool.isempty() {
		mgr.empty.pushfront(pool)
		mgr.trimempty()
	} else {
		mgr.partial.pushfront(pool)
	}
	return true
}

// ownspointer true iff the pointer's owner pool carries this manager's
// block-size.
func (mgr *poolmanager) ownspointer(ptr unsafe.Pointer) bool {
	pool := ptrtopool(ptr)
	return pool != nil && pool.slabsize() == mgr.blocksize
}

// releasepools hand every pool back through the return callback, used
// when the owning heap is released. Pools with live blocks go too,
// blocks never reclaimed are leaks from the caller's perspective.
func (mgr *poolmanager) releasepools() {
	for _, pl := range []*poollist{&mgr.empty, &mgr.partial, &mgr.full} {
		for pool := pl.popfront(); pool != nil; pool = pl.popfront() {
			mgr.returncb(pool)
		}
	}
}

//---- watermarks

// refillempty top up the empty list to the target watermark, partial
// refill is acceptable, the next allocation retries.
func (mgr *poolmanager) refillempty() {
	if !mgr.empty.empty() || mgr.refillcb == nil {
		return
	}
	for mgr.empty.size() < mgr.targetempty {
		pool := mgr.refillcb()
		if pool == nil {
			warnf("malloc.poolmanager: refill stopped at %v pools\n", mgr.empty.size())
			break
		}
		mgr.empty.pushfront(pool)
	}
}

// trimempty cap the empty list at the high watermark.
func (mgr *poolmanager) trimempty() {
	if mgr.returncb == nil {
		return
	}
	for mgr.empty.size() > mgr.highempty {
		pool := mgr.empty.popfront()
		if pool == nil {
			break
		}
		mgr.returncb(pool)
	}
}

// acquireusable pop a pool that can serve an allocation, partial pools
// first.
func (mgr *poolmanager) acquireusable() *subpool {
	if !mgr.partial.empty() {
		return mgr.partial.popfront()
	}
	if mgr.empty.empty() {
		mgr.refillempty()
	}
	if !mgr.empty.empty() {
		return mgr.empty.popfront()
	}
	return nil
}

//---- statistics

func (mgr *poolmanager) slabsize() int64 {
	return mgr.blocksize
}

// counts of pools per list, diagnostic sampling only.
func (mgr *poolmanager) counts() (nempty, npartial, nfull int64) {
	return mgr.empty.size(), mgr.partial.size(), mgr.full.size()
}

// info return capacity, heap, alloc, overhead summed over every pool.
func (mgr *poolmanager) info() (capacity, heap, alloc, overhead int64) {
	for _, pl := range []*poollist{&mgr.empty, &mgr.partial, &mgr.full} {
		for pool := pl.front(); pool != nil; pool = pool.next {
			c, h, a, o := pool.info()
			capacity, heap, alloc, overhead = capacity+c, heap+h, alloc+a, overhead+o
		}
	}
	return
}
