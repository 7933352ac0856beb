package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/conductor-config/internal/api"
	"github.com/eugenenazirov/conductor-config/internal/conductor"
	"github.com/eugenenazirov/conductor-config/internal/storage"
)

const sessionSource = `
platformName: IOS
currentSchemes: [farm, local]
defaults:
  timeout: 10
  appFile: build/app.ipa
  ios:
    deviceName: iPhone 15
    xcodeOrgId: ${TEAM_ID}
  android:
    deviceName: Pixel
farm:
  hub: http://grid.example.com:4444/wd/hub
  appFile: sauce-storage:app.ipa
  retries: often
local:
  hub: ""
  bundle: com.example.app
`

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	store := storage.NewMemoryStorage()
	loader := conductor.NewLoader(
		conductor.WithLogger(zaptest.NewLogger(t)),
		conductor.WithWorkingDirectory("/workspace"),
	)
	overrides := conductor.Overrides{Environment: map[string]string{"TEAM_ID": "ABCDE12345"}}
	handler := api.NewHandler(loader, store, api.WithOverrides(overrides))
	logger := zaptest.NewLogger(t)
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)
	yamlHeaders := map[string]string{"Content-Type": "application/yaml"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any configuration, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodPut, "/api/config", []byte(sessionSource), yamlHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config update, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/config", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from config, got %d", rec.Code)
	}

	var response struct {
		Config struct {
			PlatformName string `json:"platformName"`
			Timeout      int    `json:"timeout"`
			Retries      int    `json:"retries"`
			DeviceName   string `json:"deviceName"`
			XcodeOrgID   string `json:"xcodeOrgId"`
			Hub          string `json:"hub"`
		} `json:"config"`
		FullAppPath string `json:"fullAppPath"`
		Local       bool   `json:"local"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	cfg := response.Config
	if cfg.PlatformName != "IOS" || cfg.DeviceName != "iPhone 15" || cfg.Timeout != 10 {
		t.Fatalf("unexpected resolved config %+v", cfg)
	}
	if cfg.XcodeOrgID != "ABCDE12345" {
		t.Fatalf("expected substituted team id, got %s", cfg.XcodeOrgID)
	}
	// the malformed integer is skipped and the default survives
	if cfg.Retries != 5 {
		t.Fatalf("expected default retries, got %d", cfg.Retries)
	}
	// the later scheme clears the hub again
	if cfg.Hub != "" || !response.Local {
		t.Fatalf("expected local session, got hub %q", cfg.Hub)
	}
	if response.FullAppPath != "sauce-storage:app.ipa" {
		t.Fatalf("expected remote app reference kept verbatim, got %s", response.FullAppPath)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/capabilities", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from capabilities, got %d", rec.Code)
	}
	var capsResponse struct {
		Capabilities map[string]any `json:"capabilities"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&capsResponse); err != nil {
		t.Fatalf("decode capabilities: %v", err)
	}
	if capsResponse.Capabilities["platformName"] != "iOS" || capsResponse.Capabilities["bundle"] != "com.example.app" {
		t.Fatalf("unexpected capabilities %v", capsResponse.Capabilities)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/resolve?platform=ANDROID&schemes=farm", []byte(sessionSource), yamlHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from resolve, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode resolve response: %v", err)
	}
	if response.Config.PlatformName != "ANDROID" || response.Config.DeviceName != "Pixel" || response.Local {
		t.Fatalf("unexpected dry run result %+v (local=%v)", response.Config, response.Local)
	}
}
