package main

import "flag"
import "fmt"
import "math/rand"
import "os"
import "time"
import "unsafe"

import "github.com/bnclabs/gcmalloc/malloc"
import humanize "github.com/dustin/go-humanize"

var options struct {
	count   int
	live    int
	gcevery int
	seed    int
	verbose bool
}

func argparse() {
	flag.IntVar(&options.count, "count", 1000000,
		"number of allocations")
	flag.IntVar(&options.live, "live", 4096,
		"number of live blocks to maintain")
	flag.IntVar(&options.gcevery, "gcevery", 1024,
		"garbage collect every n allocations")
	flag.IntVar(&options.seed, "seed", 42,
		"rng seed")
	flag.BoolVar(&options.verbose, "v", false,
		"enable malloc logging")
	flag.Parse()
}

func main() {
	argparse()
	if options.verbose {
		malloc.LogComponents("all")
	}

	heap := malloc.NewHeap(malloc.Defaultsettings())
	slabs := heap.Slabs()
	if len(slabs) > 64 {
		slabs = slabs[:64] // keep the working set small
	}

	rnd := rand.New(rand.NewSource(int64(options.seed)))
	live := make([]unsafe.Pointer, 0, options.live+1)
	reclaimed := int64(0)

	start := time.Now()
	for i := 0; i < options.count; i++ {
		size := slabs[rnd.Intn(len(slabs))]
		ptr := heap.Alloc(size)
		if ptr == nil {
			fmt.Println("out of memory")
			os.Exit(1)
		}
		live = append(live, ptr)
		if len(live) > options.live {
			j := rnd.Intn(len(live))
			malloc.Free(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
		if (i % options.gcevery) == 0 {
			reclaimed += heap.Gc(0)
		}
	}
	for _, ptr := range live {
		malloc.Free(ptr)
	}
	reclaimed += heap.Gc(0)
	elapsed := time.Since(start)

	capacity, heapmem, alloc, overhead := heap.Info()
	fmt.Printf("allocations    : %v in %v\n", options.count, elapsed)
	fmt.Printf("reclaimed      : %v\n", reclaimed)
	fmt.Printf("capacity       : %v\n", humanize.Ibytes(uint64(capacity)))
	fmt.Printf("heap           : %v\n", humanize.Ibytes(uint64(heapmem)))
	fmt.Printf("alloc          : %v\n", humanize.Ibytes(uint64(alloc)))
	fmt.Printf("overhead       : %v\n", humanize.Ibytes(uint64(overhead)))
	for k, v := range heap.Stats() {
		fmt.Printf("%-15v: %v\n", k, v)
	}
	heap.Release()
}
