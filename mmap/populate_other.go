//go:build unix && !linux

package mmap

// MAP_POPULATE is Linux-only; elsewhere Prefault is a no-op.
const mapPopulate = 0
