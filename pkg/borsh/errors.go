package borsh

import (
	"fmt"

	"github.com/pkg/errors"
)

// Encode errors
var (
	ErrInvalidValueForSchema = errors.New("invalid value for schema")
)

// Decode errors
var (
	ErrLengthMismatch        = errors.New("length mismatch")
	ErrTruncatedBuffer       = errors.New("truncated buffer")
	ErrUnknownVariant        = errors.New("unknown variant")
	ErrInvalidBoolEncoding   = errors.New("invalid bool encoding")
	ErrInvalidOptionEncoding = errors.New("invalid option encoding")
	ErrInvalidFloatEncoding  = errors.New("invalid float encoding")
	ErrInvalidUTF8           = errors.New("invalid utf-8 string")
)

// Registry errors
var (
	ErrDuplicateSchema       = errors.New("duplicate schema")
	ErrUnknownSchema         = errors.New("unknown schema")
	ErrInvalidSchema         = errors.New("invalid schema")
	ErrMissingDiscriminant   = errors.New("variant missing explicit discriminant")
	ErrDuplicateDiscriminant = errors.New("duplicate variant discriminant")
	ErrNotStaticallySized    = errors.New("schema is not statically sized")
)

func invalidValue(path string, expected Type, v any) error {
	return errors.Wrapf(ErrInvalidValueForSchema, "%s: expected %s, got %T", path, expected.String(), v)
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
