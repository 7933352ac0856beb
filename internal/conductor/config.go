package conductor

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
)

const (
	defaultTimeout             = 5
	defaultRetries             = 5
	defaultStartSessionRetries = 1
)

// Config is the resolved configuration of a test session.
// A zero NewCommandTimeout or IdleTimeout means the driver default applies.
type Config struct {
	CurrentSchemes []string `json:"currentSchemes,omitempty" yaml:"currentSchemes,omitempty"`

	// Session control.
	Timeout             int  `json:"timeout" yaml:"timeout"`
	Retries             int  `json:"retries" yaml:"retries"`
	ScreenshotOnFail    bool `json:"screenshotOnFail" yaml:"screenshotOnFail"`
	StartSessionRetries int  `json:"startSessionRetries" yaml:"startSessionRetries"`
	NewCommandTimeout   int  `json:"newCommandTimeout,omitempty" yaml:"newCommandTimeout,omitempty"`
	IdleTimeout         int  `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`

	// Device and platform.
	PlatformName         Platform `json:"platformName" yaml:"platformName"`
	DeviceName           string   `json:"deviceName,omitempty" yaml:"deviceName,omitempty"`
	PlatformVersion      string   `json:"platformVersion,omitempty" yaml:"platformVersion,omitempty"`
	AppFile              string   `json:"appFile,omitempty" yaml:"appFile,omitempty"`
	Locale               string   `json:"locale,omitempty" yaml:"locale,omitempty"`
	Language             string   `json:"language,omitempty" yaml:"language,omitempty"`
	Orientation          string   `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	AutomationName       string   `json:"automationName,omitempty" yaml:"automationName,omitempty"`
	AppiumVersion        string   `json:"appiumVersion,omitempty" yaml:"appiumVersion,omitempty"`
	Hub                  string   `json:"hub,omitempty" yaml:"hub,omitempty"`
	UDID                 string   `json:"udid,omitempty" yaml:"udid,omitempty"`
	NoReset              bool     `json:"noReset" yaml:"noReset"`
	FullReset            bool     `json:"fullReset" yaml:"fullReset"`
	AutoGrantPermissions bool     `json:"autoGrantPermissions" yaml:"autoGrantPermissions"`
	AppPackageName       string   `json:"appPackageName,omitempty" yaml:"appPackageName,omitempty"`

	// Android only.
	AVD             string `json:"avd,omitempty" yaml:"avd,omitempty"`
	AppActivity     string `json:"appActivity,omitempty" yaml:"appActivity,omitempty"`
	AppWaitActivity string `json:"appWaitActivity,omitempty" yaml:"appWaitActivity,omitempty"`
	IntentCategory  string `json:"intentCategory,omitempty" yaml:"intentCategory,omitempty"`

	// iOS only.
	XcodeSigningID string `json:"xcodeSigningId,omitempty" yaml:"xcodeSigningId,omitempty"`
	XcodeOrgID     string `json:"xcodeOrgId,omitempty" yaml:"xcodeOrgId,omitempty"`

	// CustomCapabilities holds every key that does not name a known field.
	CustomCapabilities map[string]any `json:"customCapabilities,omitempty" yaml:"customCapabilities,omitempty"`

	workDir string
}

// NewConfig returns a Config holding the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Timeout:              defaultTimeout,
		Retries:              defaultRetries,
		ScreenshotOnFail:     true,
		StartSessionRetries:  defaultStartSessionRetries,
		PlatformName:         PlatformNone,
		NoReset:              true,
		FullReset:            false,
		AutoGrantPermissions: true,
		CustomCapabilities:   map[string]any{},
	}
}

// Set binds a single named value onto the config the same way a layer entry
// is bound. Unknown names become custom capabilities.
func (c *Config) Set(key, value string) error {
	if key == keyIOS || key == keyAndroid {
		return fmt.Errorf("%s is a platform block, not a field", key)
	}
	caps := map[string]any{}
	if err := bindValue(c, caps, key, value, nil); err != nil {
		return err
	}
	maps.Copy(c.customCapabilities(), caps)
	return nil
}

// FullAppPath returns AppFile resolved against the working directory captured
// at load time, or the process working directory when none was captured.
func (c *Config) FullAppPath() (string, error) {
	if c.AppFile == "" {
		return "", nil
	}
	wd := c.workDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
	}
	return ResolveAppPath(c.AppFile, wd), nil
}

// IsLocal reports whether the session runs against a local server, i.e. no hub is configured.
func (c *Config) IsLocal() bool {
	return c.Hub == ""
}

// HubURL parses the configured hub. It returns nil without error when no hub is set.
func (c *Config) HubURL() (*url.URL, error) {
	if c.Hub == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Hub)
	if err != nil {
		return nil, fmt.Errorf("parse hub url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("parse hub url: scheme and host are required")
	}
	return u, nil
}

// WorkingDirectory returns the directory relative app paths are resolved against.
func (c *Config) WorkingDirectory() string {
	return c.workDir
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	out.CurrentSchemes = slices.Clone(c.CurrentSchemes)
	out.CustomCapabilities = maps.Clone(c.CustomCapabilities)
	if out.CustomCapabilities == nil {
		out.CustomCapabilities = map[string]any{}
	}
	return &out
}

func (c *Config) customCapabilities() map[string]any {
	if c.CustomCapabilities == nil {
		c.CustomCapabilities = map[string]any{}
	}
	return c.CustomCapabilities
}
