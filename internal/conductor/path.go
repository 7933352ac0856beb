package conductor

import (
	"net/url"
	"path/filepath"
	"strings"
)

// remoteStoragePrefixes mark app files already uploaded to a device cloud.
var remoteStoragePrefixes = []string{"sauce-storage:", "storage:", "bs://"}

var urlSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ftp":   {},
	"file":  {},
	"jar":   {},
}

// ResolveAppPath normalizes an app path. Remote storage references, absolute
// paths and URLs are returned unchanged; anything else is joined with wd.
func ResolveAppPath(raw, wd string) string {
	if raw == "" {
		return ""
	}
	for _, prefix := range remoteStoragePrefixes {
		if strings.HasPrefix(raw, prefix) {
			return raw
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if isURL(raw) {
		return raw
	}
	return filepath.Join(wd, raw)
}

// isURL reports whether raw is a URL with a recognized scheme and a host,
// opaque part or path. Values that only resemble one, such as "C:app.apk",
// are treated as paths.
func isURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if _, ok := urlSchemes[strings.ToLower(u.Scheme)]; !ok {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}
