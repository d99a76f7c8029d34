// Package lib supplies bit-twiddling primitives for the allocator's
// bitmap book-keeping.
package lib
