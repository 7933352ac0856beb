package conductor

import "errors"

var (
	// ErrNilSource is returned when a load is requested without a source stream.
	ErrNilSource = errors.New("configuration source is nil")
	// ErrInvalidPlatform is returned when a platform name is not one of NONE, IOS or ANDROID.
	ErrInvalidPlatform = errors.New("invalid platform name")
	// ErrMalformedSource is returned when the source does not decode into a mapping.
	ErrMalformedSource = errors.New("malformed configuration source")
)
