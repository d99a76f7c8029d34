//go:build linux || darwin
// +build linux darwin

package malloc

import "sync"
import "syscall"
import "unsafe"

import "github.com/bnclabs/gcmalloc/api"

var _ api.Chunkmapper = (*osmapper)(nil)

// osmapper maps anonymous memory for the chunk supplier. Alignment to
// Chunksize is obtained by over-mapping one extra chunk and returning
// the first aligned address within the mapping; the surrounding slack
// pages are never touched. Mappings are remembered by their aligned
// base, Unmapchunk on anything else is fatal.
type osmapper struct {
	mu      sync.Mutex
	regions map[uintptr][]byte // aligned base -> whole mapping
}

func newosmapper() *osmapper {
	return &osmapper{regions: make(map[uintptr][]byte)}
}

// Mapchunk implement api.Chunkmapper{} interface.
func (m *osmapper) Mapchunk(size int64) unsafe.Pointer {
	if size <= 0 || (size%Chunksize) != 0 {
		panicerr("Mapchunk size %v is not a positive multiple of %v", size, Chunksize)
	}
	length := int(size + Chunksize)
	buf, err := syscall.Mmap(
		-1, 0, length,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		errorf("malloc.osmapper: mmap %v bytes: %v\n", length, err)
		return nil
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	aligned := addr + ((uintptr(Chunksize) - addr%uintptr(Chunksize)) % uintptr(Chunksize))

	m.mu.Lock()
	m.regions[aligned] = buf
	m.mu.Unlock()
	return unsafe.Pointer(aligned)
}

// Unmapchunk implement api.Chunkmapper{} interface.
func (m *osmapper) Unmapchunk(ptr unsafe.Pointer, size int64) {
	if ptr == nil {
		panicerr("Unmapchunk on nil pointer")
	} else if size <= 0 || (size%Chunksize) != 0 {
		panicerr("Unmapchunk size %v is not a positive multiple of %v", size, Chunksize)
	}
	m.mu.Lock()
	buf, ok := m.regions[uintptr(ptr)]
	sizeok := ok && int64(len(buf)) == size+Chunksize
	if sizeok {
		delete(m.regions, uintptr(ptr))
	}
	m.mu.Unlock()
	if !ok {
		panicerr("Unmapchunk %p is not the base of a mapped chunk", ptr)
	} else if !sizeok {
		panicerr("Unmapchunk %p size %v does not match its mapping", ptr, size)
	}
	if err := syscall.Munmap(buf); err != nil {
		panicerr("malloc.osmapper: munmap: %v", err)
	}
}
