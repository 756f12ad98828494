package mmdbfile

import (
	"encoding/binary"
	"net/netip"

	"github.com/mmdbtools/mmdbval"
)

// Result is the outcome of one lookup: the containing network and, when
// the tree has a record for it, the record's flat entry sequence.
type Result struct {
	Network netip.Prefix
	Entries []mmdbval.Entry
}

// Found reports whether the database has a record for the address.
func (res *Result) Found() bool {
	return res.Entries != nil
}

// Decode decodes the record's entry sequence into a value tree.
func (res *Result) Decode() (*mmdbval.Map, error) {
	if !res.Found() {
		return nil, ErrNoRecord
	}
	return mmdbval.DecodeRecord(res.Entries)
}

// Lookup resolves addr against the search tree. A missing record is not an
// error: the Result reports Found() == false and still carries the network
// that was resolved.
func (r *Reader) Lookup(addr netip.Addr) (Result, error) {
	ip := addr.Unmap()
	var bits []byte
	node := 0
	if ip.Is4() {
		a := ip.As4()
		bits = a[:]
		if r.meta.IPVersion == 6 {
			node = r.ipv4Start
		}
	} else {
		if r.meta.IPVersion == 4 {
			return Result{}, formatErrf(0, ErrAddressVersion, "%v against an IPv4-only database", ip)
		}
		a := ip.As16()
		bits = a[:]
	}

	nodeCount := r.meta.NodeCount
	depth := 0
	for node < nodeCount && depth < len(bits)*8 {
		bit := int(bits[depth>>3]>>(7-depth&7)) & 1
		node = r.readNode(node, bit)
		depth++
	}

	network := netip.PrefixFrom(ip, depth).Masked()
	switch {
	case node == nodeCount:
		return Result{Network: network}, nil
	case node < nodeCount:
		return Result{}, formatErrf(0, ErrCorrupt, "search tree did not terminate for %v", ip)
	}

	dataOffset := node - nodeCount - dataSectionSeparatorSize
	if dataOffset < 0 || dataOffset >= len(r.data) {
		return Result{}, formatErrf(dataOffset, ErrCorrupt, "record pointer outside data section")
	}
	entries, err := r.recordEntries(dataOffset)
	if err != nil {
		return Result{}, err
	}
	return Result{Network: network, Entries: entries}, nil
}

// readNode returns the left (bit 0) or right (bit 1) record of a node.
// Callers guarantee node < NodeCount, so the read is in bounds.
func (r *Reader) readNode(node, bit int) int {
	switch r.nodeSize {
	case 6:
		off := node*6 + bit*3
		return int(r.tree[off])<<16 | int(r.tree[off+1])<<8 | int(r.tree[off+2])
	case 7:
		off := node * 7
		if bit == 0 {
			return int(r.tree[off+3]>>4)<<24 | int(r.tree[off])<<16 | int(r.tree[off+1])<<8 | int(r.tree[off+2])
		}
		return int(r.tree[off+3]&0x0F)<<24 | int(r.tree[off+4])<<16 | int(r.tree[off+5])<<8 | int(r.tree[off+6])
	default:
		off := node*8 + bit*4
		return int(binary.BigEndian.Uint32(r.tree[off : off+4]))
	}
}
