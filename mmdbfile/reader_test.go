package mmdbfile

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
)

func mustOpen(t *testing.T, buf []byte) *Reader {
	t.Helper()
	r, err := FromBytes(buf)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	return r
}

func TestMetadata(t *testing.T) {
	r := mustOpen(t, buildV4DB(24))
	meta := r.Metadata()
	if meta.DatabaseType != "Test-City" {
		t.Errorf("** DatabaseType = %q", meta.DatabaseType)
	}
	if meta.NodeCount != 8 || meta.RecordSize != 24 || meta.IPVersion != 4 {
		t.Errorf("** geometry = %d/%d/%d, wanted 8/24/4", meta.NodeCount, meta.RecordSize, meta.IPVersion)
	}
	if meta.BuildEpoch != 1724100000 {
		t.Errorf("** BuildEpoch = %d", meta.BuildEpoch)
	}
	if len(meta.Languages) != 1 || meta.Languages[0] != "en" {
		t.Errorf("** Languages = %v", meta.Languages)
	}
	if meta.Description["en"] != "test database" {
		t.Errorf("** Description = %v", meta.Description)
	}
	if meta.Raw.GetUint("node_count") != 8 {
		t.Errorf("** Raw.node_count = %d", meta.Raw.GetUint("node_count"))
	}
}

func TestLookup(t *testing.T) {
	for _, recordSize := range []int{24, 32} {
		r := mustOpen(t, buildV4DB(recordSize))

		res, err := r.Lookup(netip.MustParseAddr("1.2.3.4"))
		if err != nil {
			t.Fatalf("record size %d: Lookup failed: %v", recordSize, err)
		}
		if !res.Found() {
			t.Fatalf("record size %d: 1.2.3.4 not found", recordSize)
		}
		if res.Network != netip.MustParsePrefix("1.0.0.0/8") {
			t.Errorf("** record size %d: network = %v, wanted 1.0.0.0/8", recordSize, res.Network)
		}
		m, err := res.Decode()
		if err != nil {
			t.Fatalf("record size %d: Decode failed: %v", recordSize, err)
		}
		if iso := m.GetMap("country").GetString("iso_code"); iso != "T1" {
			t.Errorf("** record size %d: iso_code = %q", recordSize, iso)
		}
		if asn := m.GetUint("asn"); asn != 42 {
			t.Errorf("** record size %d: asn = %d", recordSize, asn)
		}
	}
}

func TestLookupNoRecord(t *testing.T) {
	r := mustOpen(t, buildV4DB(24))
	res, err := r.Lookup(netip.MustParseAddr("9.9.9.9"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.Found() {
		t.Fatalf("9.9.9.9 unexpectedly found: %v", res.Network)
	}
	if res.Network != netip.MustParsePrefix("8.0.0.0/5") {
		t.Errorf("** network = %v, wanted 8.0.0.0/5", res.Network)
	}
	if _, err := res.Decode(); !errors.Is(err, ErrNoRecord) {
		t.Errorf("** Decode error = %v, wanted ErrNoRecord", err)
	}
}

func TestLookupMappedV4(t *testing.T) {
	r := mustOpen(t, buildV4DB(24))
	res, err := r.Lookup(netip.MustParseAddr("::ffff:1.2.3.4"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.Found() || res.Network != netip.MustParsePrefix("1.0.0.0/8") {
		t.Errorf("** mapped lookup = found %v network %v", res.Found(), res.Network)
	}
}

func TestLookupV6AgainstV4Database(t *testing.T) {
	r := mustOpen(t, buildV4DB(24))
	_, err := r.Lookup(netip.MustParseAddr("2001:db8::1"))
	if !errors.Is(err, ErrAddressVersion) {
		t.Errorf("** Lookup error = %v, wanted ErrAddressVersion", err)
	}
}

func TestLookupV6Tree(t *testing.T) {
	r := mustOpen(t, buildV6DB(28))

	res, err := r.Lookup(netip.MustParseAddr("1.2.3.4"))
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.Found() {
		t.Fatalf("1.2.3.4 not found in v6 tree")
	}
	if res.Network != netip.MustParsePrefix("1.0.0.0/8") {
		t.Errorf("** network = %v, wanted 1.0.0.0/8", res.Network)
	}
	m, err := res.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if iso := m.GetMap("country").GetString("iso_code"); iso != "T6" {
		t.Errorf("** iso_code = %q", iso)
	}

	res, err = r.Lookup(netip.MustParseAddr("2001:db8::1"))
	if err != nil {
		t.Fatalf("v6 Lookup failed: %v", err)
	}
	if res.Found() {
		t.Errorf("** 2001:db8::1 unexpectedly found")
	}
}

func TestFromBytesRejectsGarbage(t *testing.T) {
	if _, err := FromBytes([]byte("not a database")); !errors.Is(err, ErrCorrupt) {
		t.Errorf("** FromBytes error = %v, wanted ErrCorrupt", err)
	}
}

func TestFromBytesRejectsBadMetadata(t *testing.T) {
	var w dbWriter
	w.recordSize = 24
	w.nodes = make([][2]int, 1)
	meta := defaultMeta(1, 20, 4) // record_size 20 is not allowed
	if _, err := FromBytes(w.bytes(meta)); !errors.Is(err, ErrInvalidMetadata) {
		t.Errorf("** FromBytes error = %v, wanted ErrInvalidMetadata", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mmdb")
	if err := os.WriteFile(path, buildV4DB(24), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	res, err := r.Lookup(netip.MustParseAddr("1.2.3.4"))
	if err != nil || !res.Found() {
		t.Fatalf("Lookup = %v, %v", res.Found(), err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	// Entry payloads are copies, so the result decodes after the mapping
	// is gone.
	m, err := res.Decode()
	if err != nil {
		t.Fatalf("Decode after close failed: %v", err)
	}
	if iso := m.GetMap("country").GetString("iso_code"); iso != "T1" {
		t.Errorf("** iso_code after close = %q", iso)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.mmdb")); err == nil {
		t.Errorf("** Open succeeded for a missing file")
	}
}
