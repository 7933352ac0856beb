package conductor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.Timeout != 5 || cfg.Retries != 5 || cfg.StartSessionRetries != 1 {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
	if !cfg.ScreenshotOnFail || !cfg.NoReset || cfg.FullReset || !cfg.AutoGrantPermissions {
		t.Fatalf("unexpected boolean defaults: %+v", cfg)
	}
	if cfg.PlatformName != PlatformNone {
		t.Fatalf("expected NONE platform, got %v", cfg.PlatformName)
	}
	if cfg.NewCommandTimeout != 0 || cfg.IdleTimeout != 0 {
		t.Fatalf("expected driver timeouts to be unset")
	}
	if cfg.CustomCapabilities == nil {
		t.Fatalf("expected custom capabilities map to be initialised")
	}
}

func TestConfigSet(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := cfg.Set("retries", "9"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if cfg.Retries != 9 {
		t.Fatalf("expected retries 9, got %d", cfg.Retries)
	}
	if err := cfg.Set("browserstack.debug", "true"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if cfg.CustomCapabilities["browserstack.debug"] != true {
		t.Fatalf("expected custom capability, got %v", cfg.CustomCapabilities)
	}

	var bindErr *BindError
	if err := cfg.Set("timeout", "later"); !errors.As(err, &bindErr) {
		t.Fatalf("expected BindError, got %v", err)
	}
	if cfg.Timeout != defaultTimeout {
		t.Fatalf("expected timeout to stay at default, got %d", cfg.Timeout)
	}
	if err := cfg.Set("platformName", "ios"); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
	if err := cfg.Set("android", "x"); err == nil {
		t.Fatalf("expected platform block key to be rejected")
	}
}

func TestConfigSetOnZeroValue(t *testing.T) {
	t.Parallel()

	var cfg Config
	if err := cfg.Set("custom", "value"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if cfg.CustomCapabilities["custom"] != "value" {
		t.Fatalf("expected capability on zero Config, got %v", cfg.CustomCapabilities)
	}
}

func TestConfigHubURL(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if u, err := cfg.HubURL(); u != nil || err != nil {
		t.Fatalf("expected no hub, got %v %v", u, err)
	}
	if !cfg.IsLocal() {
		t.Fatalf("expected local session without hub")
	}

	cfg.Hub = "http://grid.local:4444/wd/hub"
	u, err := cfg.HubURL()
	if err != nil {
		t.Fatalf("HubURL returned error: %v", err)
	}
	if u.Host != "grid.local:4444" || u.Path != "/wd/hub" {
		t.Fatalf("unexpected hub url %v", u)
	}
	if cfg.IsLocal() {
		t.Fatalf("expected remote session with hub")
	}

	cfg.Hub = "not a url"
	if _, err := cfg.HubURL(); err == nil {
		t.Fatalf("expected error for invalid hub")
	}
}

func TestConfigFullAppPath(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if path, err := cfg.FullAppPath(); err != nil || path != "" {
		t.Fatalf("expected empty path, got %q %v", path, err)
	}

	cfg.AppFile = "/abs/path/app.ipa"
	if path, _ := cfg.FullAppPath(); path != "/abs/path/app.ipa" {
		t.Fatalf("expected absolute path to be kept, got %q", path)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	cfg.AppFile = "./apps/android.apk"
	if path, _ := cfg.FullAppPath(); path != filepath.Join(wd, "apps", "android.apk") {
		t.Fatalf("expected path under process working directory, got %q", path)
	}
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.CurrentSchemes = []string{"a"}
	cfg.CustomCapabilities["k"] = "v"

	clone := cfg.Clone()
	clone.CurrentSchemes[0] = "b"
	clone.CustomCapabilities["k"] = "changed"
	clone.Retries = 1

	if cfg.CurrentSchemes[0] != "a" || cfg.CustomCapabilities["k"] != "v" || cfg.Retries != defaultRetries {
		t.Fatalf("clone mutated original: %+v", cfg)
	}
}
