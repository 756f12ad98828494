// Package mmap provides read-only memory mapping of database files.
//
// MaxMind DB files are immutable once published, so the mapping is always
// PROT_READ; there is no write or sync support.
package mmap

import (
	"os"
)

type Options uint

const (
	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 0

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Trie lookups jump around the file, so this is the usual choice.
	// Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 1

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault Options = 1 << 2
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

// Map memory-maps the entire file read-only.
func Map(f *os.File, size int, opt Options) ([]byte, error) {
	return mmap(f, size, opt)
}

// Unmap unmaps the given slice from memory. The slice must have been
// returned by Map.
func Unmap(b []byte) error {
	return munmap(b)
}
