package conductor

import (
	"fmt"
)

// Platform identifies the target device class.
type Platform int

const (
	// PlatformNone means no platform was selected; no platform block applies.
	PlatformNone Platform = iota
	// PlatformIOS selects the defaults.ios block and iOS capabilities.
	PlatformIOS
	// PlatformAndroid selects the defaults.android block and Android capabilities.
	PlatformAndroid
)

var platformNames = map[Platform]string{
	PlatformNone:    "NONE",
	PlatformIOS:     "IOS",
	PlatformAndroid: "ANDROID",
}

// ParsePlatform parses one of the exact names NONE, IOS or ANDROID.
func ParsePlatform(s string) (Platform, error) {
	for p, name := range platformNames {
		if name == s {
			return p, nil
		}
	}
	return PlatformNone, fmt.Errorf("%w: %q (must be one of NONE, IOS, ANDROID)", ErrInvalidPlatform, s)
}

func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Platform(%d)", int(p))
}

// blockKey returns the key of the nested defaults block for the platform.
func (p Platform) blockKey() string {
	switch p {
	case PlatformIOS:
		return keyIOS
	case PlatformAndroid:
		return keyAndroid
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
