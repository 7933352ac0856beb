package conductor

import (
	"maps"
	"strings"
)

const vendorPrefix = "appium:"

// Capabilities returns the desired capabilities for a new driver session.
// Non-standard keys carry the appium: vendor prefix; custom capabilities are
// copied last and win over derived ones.
func (c *Config) Capabilities() (map[string]any, error) {
	caps := map[string]any{}
	if c.PlatformName != PlatformNone {
		caps["platformName"] = c.platformCapability()
	}

	app, err := c.FullAppPath()
	if err != nil {
		return nil, err
	}

	vendor := map[string]any{
		"deviceName":        c.DeviceName,
		"platformVersion":   c.PlatformVersion,
		"app":               app,
		"locale":            c.Locale,
		"language":          c.Language,
		"orientation":       c.Orientation,
		"automationName":    c.AutomationName,
		"appiumVersion":     c.AppiumVersion,
		"udid":              c.UDID,
		"appPackage":        c.AppPackageName,
		"avd":               c.AVD,
		"appActivity":       c.AppActivity,
		"appWaitActivity":   c.AppWaitActivity,
		"intentCategory":    c.IntentCategory,
		"xcodeSigningId":    c.XcodeSigningID,
		"xcodeOrgId":        c.XcodeOrgID,
		"newCommandTimeout": c.NewCommandTimeout,
	}
	for key, v := range vendor {
		if isZero(v) {
			continue
		}
		caps[vendorPrefix+key] = v
	}
	caps[vendorPrefix+"noReset"] = c.NoReset
	caps[vendorPrefix+"fullReset"] = c.FullReset
	if c.PlatformName == PlatformAndroid {
		caps[vendorPrefix+"autoGrantPermissions"] = c.AutoGrantPermissions
	}

	maps.Copy(caps, c.CustomCapabilities)
	return caps, nil
}

func (c *Config) platformCapability() string {
	switch c.PlatformName {
	case PlatformIOS:
		return "iOS"
	case PlatformAndroid:
		return "Android"
	default:
		return strings.ToLower(c.PlatformName.String())
	}
}

func isZero(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case int:
		return t == 0
	default:
		return v == nil
	}
}
