package api

import "unsafe"

// Chunkmapper interface to map and unmap large aligned regions from the
// operating system. Implementations shall return regions whose base
// address is aligned to the chunk size.
type Chunkmapper interface {
	// Mapchunk obtain a `size` byte region aligned to the chunk size,
	// nil if the operating system refuses memory. `size` shall be a positive
	// multiple of the chunk size, violations panic.
	Mapchunk(size int64) unsafe.Pointer

	// Unmapchunk give back a region obtained via Mapchunk. `ptr` shall
	// be the exact base of a prior Mapchunk of the same size,
	// violations panic.
	Unmapchunk(ptr unsafe.Pointer, size int64)
}
