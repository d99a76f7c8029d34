package malloc

import "fmt"
import "errors"

// ErrorOutofMemory when the OS refuses memory and caches are empty.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// SuitableSize picks an optimal block-size for given size,
// to achieve MEMUtilization.
func SuitableSize(blocksizes []int64, size int64) int64 {
	return blocksizes[suitableslab(blocksizes, size)]
}

// suitableslab return the index of the smallest block-size >= size.
func suitableslab(blocksizes []int64, size int64) int {
	off := 0
	for {
		switch len(blocksizes) {
		case 1:
			return off

		case 2:
			if size <= blocksizes[0] {
				return off
			} else if size <= blocksizes[1] {
				return off + 1
			}
			panic("size greater than configured")

		default:
			pivot := len(blocksizes) / 2
			if blocksizes[pivot] < size {
				off += pivot + 1
				blocksizes = blocksizes[pivot+1:]
			} else {
				blocksizes = blocksizes[0 : pivot+1]
			}
		}
	}
}

// Blocksizes generate suitable block-sizes between minblock-size and
// maxblock-size, to acheive MEMUtilization.
func Blocksizes(minblock, maxblock int64) []int64 {
	if maxblock < minblock { // validate and cure the input params
		panic("minblock < maxblock")
	} else if (minblock % Alignment) != 0 {
		fmsg := "minblock %v is not multiple of %v"
		panic(fmt.Errorf(fmsg, minblock, Alignment))
	} else if (maxblock % Alignment) != 0 {
		panic(fmt.Errorf("maxblock is not multiple of %v", Alignment))
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - MEMUtilization))
		if addby <= Minblock {
			addby = Minblock
		} else if (addby % Alignment) != 0 {
			addby = (addby / Alignment) * Alignment
		}
		size := from + addby
		for (float64(from+size)/2.0)/float64(size) > MEMUtilization {
			size += addby
		}
		return size
	}

	sizes := make([]int64, 0, 64)
	for size := minblock; size < maxblock; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	sizes = append(sizes, maxblock)
	return sizes
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

func ceil(divident, divisor int64) int64 {
	if divident%divisor == 0 {
		return divident / divisor
	}
	return (divident / divisor) + 1
}

func alignup(n, align int64) int64 {
	return ((n + align - 1) / align) * align
}

var poolblkinit = make([]byte, 1024)
var zeroblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}
