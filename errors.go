package mmdbval

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEndOfData means the cursor ran past the end of the
	// entry sequence while a composite still expected children.
	ErrUnexpectedEndOfData = errors.New("unexpected end of entry data")

	// ErrInvalidKeyType means a map key entry carried a non-string tag.
	ErrInvalidKeyType = errors.New("map key is not a string")

	// ErrUnknownDataType means an entry carried a tag outside the known set.
	ErrUnknownDataType = errors.New("unknown data type")

	// ErrTopLevelNotMap means the record's root entry is not a map.
	ErrTopLevelNotMap = errors.New("top-level entry is not a map")

	// ErrInvalidPayload means a scalar payload does not fit its tag
	// (wrong length for its width, or a boolean byte other than 0/1).
	ErrInvalidPayload = errors.New("invalid scalar payload")
)

// DecodeError reports a structural violation at a specific cursor position.
// It wraps one of the Err* sentinels, so errors.Is works against them.
type DecodeError struct {
	Cursor int
	Err    error
	Msg    string
}

func decodeErrf(cursor int, err error, format string, args ...any) error {
	return &DecodeError{cursor, err, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("entry %d: %v: %s", e.Cursor, e.Err, e.Msg)
	}
	return fmt.Sprintf("entry %d: %v", e.Cursor, e.Err)
}
