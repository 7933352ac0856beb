package conductor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	keyIOS     = "ios"
	keyAndroid = "android"
)

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindBool
	kindInt
	kindPlatform
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBool:
		return "bool"
	case kindInt:
		return "int"
	case kindPlatform:
		return "platform"
	default:
		return "unknown"
	}
}

// field is a typed setter for one known Config field. Exactly one setter
// matching kind is non-nil.
type field struct {
	kind        fieldKind
	setString   func(*Config, string)
	setBool     func(*Config, bool)
	setInt      func(*Config, int)
	setPlatform func(*Config, Platform)
}

func stringField(set func(*Config, string)) field { return field{kind: kindString, setString: set} }
func boolField(set func(*Config, bool)) field     { return field{kind: kindBool, setBool: set} }
func intField(set func(*Config, int)) field       { return field{kind: kindInt, setInt: set} }

// fields maps the lower-cased key of every known field to its setter.
var fields = map[string]field{
	"timeout":             intField(func(c *Config, v int) { c.Timeout = v }),
	"retries":             intField(func(c *Config, v int) { c.Retries = v }),
	"screenshotonfail":    boolField(func(c *Config, v bool) { c.ScreenshotOnFail = v }),
	"startsessionretries": intField(func(c *Config, v int) { c.StartSessionRetries = v }),
	"newcommandtimeout":   intField(func(c *Config, v int) { c.NewCommandTimeout = v }),
	"idletimeout":         intField(func(c *Config, v int) { c.IdleTimeout = v }),

	"platformname": {kind: kindPlatform, setPlatform: func(c *Config, v Platform) { c.PlatformName = v }},

	"devicename":           stringField(func(c *Config, v string) { c.DeviceName = v }),
	"platformversion":      stringField(func(c *Config, v string) { c.PlatformVersion = v }),
	"appfile":              stringField(func(c *Config, v string) { c.AppFile = v }),
	"locale":               stringField(func(c *Config, v string) { c.Locale = v }),
	"language":             stringField(func(c *Config, v string) { c.Language = v }),
	"orientation":          stringField(func(c *Config, v string) { c.Orientation = v }),
	"automationname":       stringField(func(c *Config, v string) { c.AutomationName = v }),
	"appiumversion":        stringField(func(c *Config, v string) { c.AppiumVersion = v }),
	"hub":                  stringField(func(c *Config, v string) { c.Hub = v }),
	"udid":                 stringField(func(c *Config, v string) { c.UDID = v }),
	"noreset":              boolField(func(c *Config, v bool) { c.NoReset = v }),
	"fullreset":            boolField(func(c *Config, v bool) { c.FullReset = v }),
	"autograntpermissions": boolField(func(c *Config, v bool) { c.AutoGrantPermissions = v }),
	"apppackagename":       stringField(func(c *Config, v string) { c.AppPackageName = v }),

	"avd":             stringField(func(c *Config, v string) { c.AVD = v }),
	"appactivity":     stringField(func(c *Config, v string) { c.AppActivity = v }),
	"appwaitactivity": stringField(func(c *Config, v string) { c.AppWaitActivity = v }),
	"intentcategory":  stringField(func(c *Config, v string) { c.IntentCategory = v }),

	"xcodesigningid": stringField(func(c *Config, v string) { c.XcodeSigningID = v }),
	"xcodeorgid":     stringField(func(c *Config, v string) { c.XcodeOrgID = v }),
}

// BindError reports a value that could not be coerced into the type of the
// field it names. It never aborts a load.
type BindError struct {
	Key   string
	Value string
	Kind  string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s %q to %s field: %v", e.Key, e.Value, e.Kind, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// binder applies layer entries to a Config.
type binder struct {
	overrides Overrides
	logger    *zap.Logger
	// pinPlatform keeps platformName values from changing the platform chosen
	// by an override; they are still validated.
	pinPlatform bool
}

// bind applies one entry. Unknown keys land in caps. Only an invalid platform
// name is returned as a hard error; every other failure is logged and skipped.
func (b *binder) bind(cfg *Config, caps map[string]any, key string, raw any) error {
	if key == keyIOS || key == keyAndroid || raw == nil {
		return nil
	}

	text, ok := scalarText(raw)
	if !ok {
		b.logger.Warn("skipping non-scalar configuration value",
			zap.String("key", key),
			zap.String("type", fmt.Sprintf("%T", raw)),
		)
		return nil
	}
	if s, isString := raw.(string); isString {
		text = Substitute(s, b.overrides)
	}

	if f, known := fields[strings.ToLower(key)]; known && f.kind == kindPlatform && b.pinPlatform {
		_, err := ParsePlatform(text)
		return err
	}

	err := bindValue(cfg, caps, key, text, raw)
	if err == nil {
		return nil
	}
	var bindErr *BindError
	if errors.As(err, &bindErr) {
		b.logger.Warn("skipping configuration value",
			zap.String("key", bindErr.Key),
			zap.String("value", bindErr.Value),
			zap.String("kind", bindErr.Kind),
			zap.Error(bindErr.Err),
		)
		return nil
	}
	return err
}

// bindValue coerces text into the field named by key, or stores it in caps
// when no field matches. native is the value as decoded from the source, used
// to keep the type of non-string custom capabilities; it may be nil.
func bindValue(cfg *Config, caps map[string]any, key, text string, native any) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		caps[key] = capabilityValue(text, native)
		return nil
	}

	switch f.kind {
	case kindString:
		f.setString(cfg, text)
	case kindBool:
		v, err := parseBool(text)
		f.setBool(cfg, v)
		if err != nil {
			return &BindError{Key: key, Value: text, Kind: f.kind.String(), Err: err}
		}
	case kindInt:
		v, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return &BindError{Key: key, Value: text, Kind: f.kind.String(), Err: err}
		}
		f.setInt(cfg, v)
	case kindPlatform:
		p, err := ParsePlatform(text)
		if err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
		f.setPlatform(cfg, p)
	}
	return nil
}

// parseBool accepts true and false in any case. Anything else yields false
// and an error describing the malformed literal.
func parseBool(text string) (bool, error) {
	switch {
	case strings.EqualFold(strings.TrimSpace(text), "true"):
		return true, nil
	case strings.EqualFold(strings.TrimSpace(text), "false"):
		return false, nil
	default:
		return false, errors.New("not a boolean literal")
	}
}

// scalarText renders a decoded scalar as text. Sequences and mappings are rejected.
func scalarText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case map[string]any, map[any]any, []any:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

// capabilityValue picks the scalar type of a custom capability. Native bool and
// numeric values keep their type; strings become bool for true/false, int for
// base-10 integers and stay strings otherwise.
func capabilityValue(text string, native any) any {
	switch native.(type) {
	case bool, int, int64, uint64, float64:
		return native
	}
	if strings.EqualFold(text, "true") {
		return true
	}
	if strings.EqualFold(text, "false") {
		return false
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	return text
}
