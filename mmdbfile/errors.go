package mmdbfile

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt means the file violates the MaxMind DB format: a
	// truncated control sequence, an out-of-range pointer, a search tree
	// that does not terminate, or metadata that cannot be located.
	ErrCorrupt = errors.New("corrupt database")

	// ErrInvalidMetadata means the metadata map decoded but carries
	// values outside the format's allowed ranges.
	ErrInvalidMetadata = errors.New("invalid database metadata")

	// ErrUnsupportedType means the data section uses a type this reader
	// does not materialize (bytes, float32, uint128, containers).
	ErrUnsupportedType = errors.New("unsupported data type")

	// ErrAddressVersion means the looked-up address family is not covered
	// by the database (an IPv6 address against an IPv4-only tree).
	ErrAddressVersion = errors.New("address family not covered by database")

	// ErrNoRecord is returned by Result.Decode when the lookup found no
	// record for the address.
	ErrNoRecord = errors.New("address has no record")
)

// FormatError reports a format violation at a byte offset within the
// section being parsed. It wraps one of the Err* sentinels.
type FormatError struct {
	Offset int
	Err    error
	Msg    string
}

func formatErrf(offset int, err error, format string, args ...any) error {
	return &FormatError{offset, err, fmt.Sprintf(format, args...)}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("offset %#x: %v: %s", e.Offset, e.Err, e.Msg)
	}
	return fmt.Sprintf("offset %#x: %v", e.Offset, e.Err)
}
