package malloc

import "fmt"
import "testing"
import "unsafe"

import "github.com/bnclabs/gcmalloc/api"

var _ api.Mallocer = (*Heap)(nil)
var _ = fmt.Sprintf("dummy")

func TestNewHeap(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	slabs := heap.Slabs()
	if len(slabs) == 0 {
		t.Fatalf("expected slabs")
	} else if slabs[0] != Minblock {
		t.Errorf("expected %v, got %v", Minblock, slabs[0])
	} else if slabs[len(slabs)-1] != Maxsmallalloc {
		t.Errorf("expected %v, got %v", Maxsmallalloc, slabs[len(slabs)-1])
	} else if len(heap.managers) != len(slabs) {
		t.Errorf("expected %v, got %v", len(slabs), len(heap.managers))
	}
	heap.Release()

	// operations on a released heap panic
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		heap.Alloc(64)
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		heap.Gc(0)
	}()
}

func TestHeapAllocFree(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	ptr := heap.Alloc(64)
	if ptr == nil {
		t.Fatalf("unexpected allocation failure")
	}
	if x := blockat(ptr).loadstate(); x != blockused {
		t.Errorf("expected %v, got %v", blockused, x)
	}
	if x := heap.Slabsize(ptr); x != 64 {
		t.Errorf("expected %v, got %v", 64, x)
	}
	// owner pool is recovered by masking the low address bits
	pool := ptrtopool(ptr)
	if pool == nil {
		t.Fatalf("expected owner pool")
	} else if pool.magic != Poolmagic {
		t.Errorf("expected %x, got %x", Poolmagic, pool.magic)
	} else if pool.slabsize() != SuitableSize(heap.Slabs(), 64) {
		t.Errorf("expected %v, got %v", SuitableSize(heap.Slabs(), 64), pool.slabsize())
	}

	Free(ptr)
	if x := blockat(ptr).loadstate(); x != blockfree {
		t.Errorf("expected %v, got %v", blockfree, x)
	}
	Free(ptr) // double free within one life is a no-op
	if x := heap.Gc(0); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
	if x := heap.Gc(0); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
}

func TestHeapRoundtrip(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	// warm up the class, then the accounting must return to baseline
	warm := heap.Alloc(128)
	Free(warm)
	heap.Gc(0)
	_, _, alloc0, _ := heap.Info()

	ptr1 := heap.Alloc(128)
	ptr2 := heap.Alloc(128)
	if ptr1 == ptr2 {
		t.Errorf("expected distinct pointers")
	}
	_, _, alloc1, _ := heap.Info()
	if alloc1 != alloc0+2*128 {
		t.Errorf("expected %v, got %v", alloc0+2*128, alloc1)
	}
	Free(ptr2)
	Free(ptr1)
	if x := heap.Gc(0); x != 2 {
		t.Errorf("expected %v, got %v", 2, x)
	}
	_, _, alloc2, _ := heap.Info()
	if alloc2 != alloc0 {
		t.Errorf("expected %v, got %v", alloc0, alloc2)
	}

	// under light load the slot is reused
	ptr3 := heap.Alloc(128)
	if ptr3 != ptr1 {
		t.Errorf("expected %p, got %p", ptr1, ptr3)
	}
	Free(ptr3)
	heap.Gc(0)
}

func TestHeapBoundary(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	// zero byte requests land in the smallest class
	ptr := heap.Alloc(0)
	if x := heap.Slabsize(ptr); x != Minblock {
		t.Errorf("expected %v, got %v", Minblock, x)
	}
	Free(ptr)

	// the largest small request lands in the largest class
	ptr = heap.Alloc(Maxsmallalloc)
	if x := heap.Slabsize(ptr); x != Maxsmallalloc {
		t.Errorf("expected %v, got %v", Maxsmallalloc, x)
	}
	Free(ptr)
	heap.Gc(0)

	// negative requests panic
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		heap.Alloc(-1)
	}()
}

func TestHeapBigalloc(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	ptr := heap.Alloc(Maxsmallalloc + 1)
	if ptr == nil {
		t.Fatalf("unexpected allocation failure")
	}
	if (uintptr(ptr) & uintptr(Chunksize-1)) != 0 {
		t.Errorf("pointer %p is not %v aligned", ptr, Chunksize)
	}
	// big objects are not tracked by Gc
	if x := heap.Gc(0); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	Freebig(ptr)

	// beyond a chunk the allocator gives up
	if x := heap.Alloc(Chunksize + 1); x != nil {
		t.Errorf("expected nil, got %p", x)
	}
}

func TestHeapGcMaxscan(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	ptrs := make([]unsafe.Pointer, 0, 3)
	for i := 0; i < 3; i++ {
		ptrs = append(ptrs, heap.Alloc(64))
	}
	for _, ptr := range ptrs {
		Free(ptr)
	}
	if x := heap.Gc(2); x != 2 {
		t.Errorf("expected %v, got %v", 2, x)
	}
	if x := heap.Gc(0); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
}

func TestHeapForeignFree(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	ptr := heap.Alloc(64)
	pool := ptrtopool(ptr)
	used0 := atomicused(pool)

	done := make(chan bool)
	go func() {
		Free(ptr) // deallocation is safe from any goroutine
		close(done)
	}()
	<-done
	if x := heap.Gc(0); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
	if x := atomicused(pool); x != used0-1 {
		t.Errorf("expected %v, got %v", used0-1, x)
	}
}

func TestHeapStats(t *testing.T) {
	heap := NewHeap(Defaultsettings())
	defer heap.Release()

	ptr := heap.Alloc(512)
	Free(ptr)
	heap.Gc(0)
	stats := heap.Stats()
	if x := stats["n_allocs"].(int64); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	} else if x := stats["n_reclaims"].(int64); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
	nempty := stats["pools.empty"].(int64)
	if nempty < 1 || nempty > Highemptypools {
		t.Errorf("unexpected pools.empty %v", nempty)
	}

	if ss, zs := heap.Utilization(); len(ss) != len(zs) {
		t.Errorf("expected parallel slices")
	}
}
