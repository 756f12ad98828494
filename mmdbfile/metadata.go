package mmdbfile

import (
	"bytes"

	"github.com/mmdbtools/mmdbval"
)

var metadataMarker = []byte("\xAB\xCD\xEFMaxMind.com")

// The metadata section lives within the last 128 KiB of the file, per the
// format specification.
const metadataMaxSize = 128 * 1024

// Metadata describes the database: tree geometry plus informational fields.
type Metadata struct {
	BinaryFormatMajorVersion int
	BinaryFormatMinorVersion int
	NodeCount                int
	RecordSize               int
	IPVersion                int
	DatabaseType             string
	Languages                []string
	BuildEpoch               uint64
	Description              map[string]string

	// Raw is the full decoded metadata map, including any fields not
	// broken out above.
	Raw *mmdbval.Map
}

// parseMetadata locates the last metadata marker in the trailing portion
// of buf, decodes the metadata map that follows it, and returns the typed
// metadata plus the offset at which the marker starts (the end of the data
// section).
func parseMetadata(buf []byte) (Metadata, int, error) {
	tail := 0
	if len(buf) > metadataMaxSize {
		tail = len(buf) - metadataMaxSize
	}
	i := bytes.LastIndex(buf[tail:], metadataMarker)
	if i < 0 {
		return Metadata{}, 0, formatErrf(len(buf), ErrCorrupt, "metadata marker not found")
	}
	markerStart := tail + i

	w := walker{data: buf[markerStart+len(metadataMarker):]}
	entries, err := w.record(0)
	if err != nil {
		return Metadata{}, 0, err
	}
	raw, err := mmdbval.DecodeRecord(entries)
	if err != nil {
		return Metadata{}, 0, err
	}

	meta := Metadata{
		BinaryFormatMajorVersion: int(raw.GetUint("binary_format_major_version")),
		BinaryFormatMinorVersion: int(raw.GetUint("binary_format_minor_version")),
		NodeCount:                int(raw.GetUint("node_count")),
		RecordSize:               int(raw.GetUint("record_size")),
		IPVersion:                int(raw.GetUint("ip_version")),
		DatabaseType:             raw.GetString("database_type"),
		BuildEpoch:               raw.GetUint("build_epoch"),
		Raw:                      raw,
	}
	if langs, ok := raw.Get("languages"); ok {
		if arr, ok := langs.(mmdbval.Array); ok {
			for _, el := range arr {
				if s, ok := el.(mmdbval.String); ok {
					meta.Languages = append(meta.Languages, string(s))
				}
			}
		}
	}
	if desc := raw.GetMap("description"); desc != nil {
		meta.Description = make(map[string]string, desc.Len())
		for i, k := range desc.Keys {
			if s, ok := desc.Values[i].(mmdbval.String); ok {
				meta.Description[k] = string(s)
			}
		}
	}

	if err := meta.validate(); err != nil {
		return Metadata{}, 0, err
	}
	return meta, markerStart, nil
}

func (meta *Metadata) validate() error {
	switch meta.RecordSize {
	case 24, 28, 32:
	default:
		return formatErrf(0, ErrInvalidMetadata, "record_size %d", meta.RecordSize)
	}
	if meta.NodeCount <= 0 {
		return formatErrf(0, ErrInvalidMetadata, "node_count %d", meta.NodeCount)
	}
	if meta.IPVersion != 4 && meta.IPVersion != 6 {
		return formatErrf(0, ErrInvalidMetadata, "ip_version %d", meta.IPVersion)
	}
	if meta.BinaryFormatMajorVersion != 2 {
		return formatErrf(0, ErrInvalidMetadata, "binary_format_major_version %d", meta.BinaryFormatMajorVersion)
	}
	return nil
}
