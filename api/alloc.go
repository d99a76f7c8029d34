package api

import "unsafe"

// Mallocer interface for custom memory management.
type Mallocer interface {
	// Slabs allocatable slab of sizes.
	Slabs() (sizes []int64)

	// Alloc allocate a block of `n` bytes. Allocated memory is 16-byte
	// aligned, not necessarily aligned to its slab size, nil when memory
	// is exhausted.
	Alloc(n int64) unsafe.Pointer

	// Slabsize return the block's slab size.
	Slabsize(ptr unsafe.Pointer) int64

	// Gc reclaim blocks that were freed since the previous pass and
	// return the number of blocks reclaimed. Scan at most `maxscan`
	// freed blocks.
	Gc(maxscan int64) int64

	// Release mallocer, all its pools and resources.
	Release()

	// Info of memory accounting for this mallocer.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of slab-size and its utilization.
	Utilization() ([]int, []float64)
}
