package conductor

import (
	"strings"
	"testing"
)

func TestCapabilitiesAndroid(t *testing.T) {
	t.Parallel()

	src := `
platformName: ANDROID
defaults:
  deviceName: Pixel 7
  appFile: ./apps/android.apk
  noReset: false
  newCommandTimeout: 120
  android:
    appPackageName: com.example
    appActivity: .Main
  appium:noReset: true
  browserName: ""
`
	cfg, err := NewLoader(WithWorkingDirectory("/cwd")).Load(strings.NewReader(src), Overrides{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	caps, err := cfg.Capabilities()
	if err != nil {
		t.Fatalf("Capabilities returned error: %v", err)
	}

	want := map[string]any{
		"platformName":                "Android",
		"appium:deviceName":           "Pixel 7",
		"appium:app":                  "/cwd/apps/android.apk",
		"appium:appPackage":           "com.example",
		"appium:appActivity":          ".Main",
		"appium:newCommandTimeout":    120,
		"appium:fullReset":            false,
		"appium:autoGrantPermissions": true,
		// custom capabilities win over derived ones
		"appium:noReset": true,
		"browserName":    "",
	}
	for key, wantVal := range want {
		if got, ok := caps[key]; !ok || got != wantVal {
			t.Fatalf("capability %s = %#v, want %#v", key, got, wantVal)
		}
	}
	if _, ok := caps["appium:udid"]; ok {
		t.Fatalf("expected empty fields to be omitted")
	}
}

func TestCapabilitiesWithoutPlatform(t *testing.T) {
	t.Parallel()

	caps, err := NewConfig().Capabilities()
	if err != nil {
		t.Fatalf("Capabilities returned error: %v", err)
	}
	if _, ok := caps["platformName"]; ok {
		t.Fatalf("expected no platformName for NONE")
	}
	if _, ok := caps["appium:autoGrantPermissions"]; ok {
		t.Fatalf("autoGrantPermissions only applies to Android")
	}
	if caps["appium:noReset"] != true {
		t.Fatalf("expected noReset default in capabilities")
	}
}
