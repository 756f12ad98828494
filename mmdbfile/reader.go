// Package mmdbfile reads MaxMind DB (.mmdb) files: it memory-maps the
// file, resolves IP addresses against the binary search trie, and walks
// the matched record into the flat entry sequence that package mmdbval
// decodes.
//
// A Reader is safe for concurrent lookups: the mapping is immutable and
// every lookup materializes its own entry slice with payloads copied out
// of the mapping, so lookup results outlive the Reader.
package mmdbfile

import (
	"fmt"
	"os"

	"github.com/mmdbtools/mmdbval"
	"github.com/mmdbtools/mmdbval/mmap"
)

// The search tree and the data section are separated by 16 zero bytes.
const dataSectionSeparatorSize = 16

type Reader struct {
	f       *os.File
	mapping []byte

	meta     Metadata
	tree     []byte
	data     []byte
	nodeSize int

	// ipv4Start is the node where IPv4 lookups begin in an IPv6 tree,
	// found by descending 96 zero bits once at open time.
	ipv4Start int
}

// Open memory-maps the database at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	if size == 0 || size > mmap.MaxSize {
		f.Close()
		return nil, fmt.Errorf("mmdbfile: %s: unreasonable file size %d", path, size)
	}

	mapping, err := mmap.Map(f, int(size), mmap.RandomAccess)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmdbfile: %s: mmap: %w", path, err)
	}

	r, err := FromBytes(mapping)
	if err != nil {
		_ = mmap.Unmap(mapping)
		f.Close()
		return nil, fmt.Errorf("mmdbfile: %s: %w", path, err)
	}
	r.f = f
	r.mapping = mapping
	return r, nil
}

// FromBytes opens a database held in memory. The buffer must stay alive
// and unmodified for the lifetime of the Reader.
func FromBytes(buf []byte) (*Reader, error) {
	meta, dataEnd, err := parseMetadata(buf)
	if err != nil {
		return nil, err
	}

	nodeSize := meta.RecordSize * 2 / 8
	treeSize := nodeSize * meta.NodeCount
	if treeSize+dataSectionSeparatorSize > dataEnd {
		return nil, formatErrf(treeSize, ErrCorrupt, "search tree of %d nodes overruns the file", meta.NodeCount)
	}

	r := &Reader{
		meta:     meta,
		tree:     buf[:treeSize],
		data:     buf[treeSize+dataSectionSeparatorSize : dataEnd],
		nodeSize: nodeSize,
	}
	if meta.IPVersion == 6 {
		node := 0
		for i := 0; i < 96 && node < meta.NodeCount; i++ {
			node = r.readNode(node, 0)
		}
		r.ipv4Start = node
	}
	return r, nil
}

func (r *Reader) Metadata() Metadata {
	return r.meta
}

// Close unmaps the database and invalidates the Reader; previously
// returned lookup results stay usable. Double close is allowed.
func (r *Reader) Close() error {
	var err error
	if r.mapping != nil {
		err = mmap.Unmap(r.mapping)
		r.mapping = nil
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	r.tree, r.data = nil, nil
	return err
}

// recordEntries walks the record at the given data-section offset.
func (r *Reader) recordEntries(offset int) ([]mmdbval.Entry, error) {
	w := walker{data: r.data}
	return w.record(offset)
}
