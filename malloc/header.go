package malloc

import "sync/atomic"
import "unsafe"

// block states, stored in the header's state word.
const (
	blockfree = uint64(0)
	blockused = uint64(1)
)

// blockhdrsize first bytes of every block reserved for the header.
const blockhdrsize = int64(16)

// blockheader lives in the first 16 bytes of every block: an owner-only
// `next` link and an atomic state word. The state word is the only part
// of a block a foreign goroutine may touch.
type blockheader struct {
	next  *blockheader
	state uint64 // atomic
}

func (blk *blockheader) loadstate() uint64 {
	return atomic.LoadUint64(&blk.state)
}

func (blk *blockheader) storefree() {
	atomic.StoreUint64(&blk.state, blockfree)
}

func (blk *blockheader) storeused() {
	atomic.StoreUint64(&blk.state, blockused)
}

func blockat(ptr unsafe.Pointer) *blockheader {
	return (*blockheader)(ptr)
}
