package malloc

import s "github.com/bnclabs/gosettings"

// Chunksize size of a single chunk obtained from the OS. Chunks are
// always aligned to Chunksize.
const Chunksize = int64(2 * 1024 * 1024)

// Minblock smallest block-size allocatable, also the default for
// config-parameter `minblock`.
const Minblock = int64(32)

// Maxsmallalloc largest block-size allocatable from pools, also the
// default for config-parameter `maxblock`. Bigger allocations are
// served whole chunks.
const Maxsmallalloc = int64(1024 * 1024)

// Alignment block-sizes should be multiples of Alignment.
const Alignment = int64(16)

// MEMUtilization expected in a heap's pools.
const MEMUtilization = float64(0.95)

// Poolmagic stamped into every live pool's header, cleared when the
// pool is destroyed.
const Poolmagic = uint32(0xDEADBEEF)

// Targetemptypools refill watermark, per block-size. When a heap runs
// out of usable pools it refills upto this many empty pools.
const Targetemptypools = int64(2)

// Highemptypools trim watermark, per block-size. Empty pools beyond
// this count are returned to the chunk supplier.
const Highemptypools = int64(4)

// Targetcachedchunks refill watermark for the chunk supplier's free
// list.
const Targetcachedchunks = int64(8)

// Maxcachedchunks trim watermark for the chunk supplier's free list,
// chunks beyond this count are unmapped.
const Maxcachedchunks = int64(16)

// Defaultsettings for allocator.
//
// "minblock" (int64, default: <Minblock>)
//		Minimum block-size allocatable by a heap.
//
// "maxblock" (int64, default: <Maxsmallalloc>)
//		Maximum block-size allocatable by a heap, allocations bigger
//		than this are served whole chunks from the supplier.
//
// "pools.target" (int64, default: <Targetemptypools>)
//		When a block-size runs out of usable pools, acquire fresh
//		pools until this many empty pools are held.
//
// "pools.high" (int64, default: <Highemptypools>)
//		Empty pools held for a block-size beyond this count are
//		returned to the chunk supplier.
//
// "chunkcache.target" (int64, default: <Targetcachedchunks>)
//		When the supplier's free list is exhausted, map chunks from
//		the OS until this many are cached.
//
// "chunkcache.max" (int64, default: <Maxcachedchunks>)
//		Chunks returned to the supplier beyond this count are
//		unmapped back to the OS.
func Defaultsettings() s.Settings {
	return s.Settings{
		"minblock":          Minblock,
		"maxblock":          Maxsmallalloc,
		"pools.target":      Targetemptypools,
		"pools.high":        Highemptypools,
		"chunkcache.target": Targetcachedchunks,
		"chunkcache.max":    Maxcachedchunks,
	}
}
