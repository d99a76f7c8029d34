// Package malloc supplies a small-object memory allocator with deferred,
// cross-thread free, within a limited scope:
//
//   - Memory is obtained from the OS in 2MB aligned chunks, each chunk is
//     carved into a pool of fixed sized blocks tracked by a bitmap.
//   - A Heap instance caches pools per block-size and shall be owned by a
//     single goroutine; only Free() and Freebig() are safe to call from
//     any goroutine.
//   - Free() does not return memory, it only marks the block. Marked
//     blocks are reclaimed when the owning goroutine calls Gc().
//   - Empty pools beyond a high watermark are given back to a process
//     wide chunk supplier, and chunks beyond the supplier's own
//     watermark are given back to the OS.
//   - There is no pointer re-write, no compaction and no coalescing
//     across block-sizes.
//
// Every chunk starts with its pool's book-keeping at offset zero, hence
// masking the low bits off any block pointer recovers the owning pool.
// This is the load-bearing trick behind cross-thread free: the free path
// touches nothing but the block's own header word.
package malloc
