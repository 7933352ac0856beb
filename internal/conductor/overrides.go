package conductor

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// PlatformOverride names the variable that forces the platform.
	PlatformOverride = "conductorPlatformName"
	// SchemesOverride names the variable holding a comma-separated scheme list.
	SchemesOverride = "conductorCurrentSchemes"
)

// Overrides are the variables a load is resolved against. Properties are
// process-level settings (the CLI's -D flags) and always win over Environment.
type Overrides struct {
	Properties  map[string]string
	Environment map[string]string
}

// Lookup returns the value of name from Properties, then Environment.
func (o Overrides) Lookup(name string) (string, bool) {
	if v, ok := o.Properties[name]; ok {
		return v, true
	}
	if v, ok := o.Environment[name]; ok {
		return v, true
	}
	return "", false
}

// ProcessOverrides snapshots the process environment. The engine never reads
// process state on its own; callers that want it pass this in explicitly.
func ProcessOverrides(properties map[string]string) Overrides {
	return Overrides{
		Properties:  properties,
		Environment: env.ToMap(os.Environ()),
	}
}

// splitSchemes splits a comma-separated scheme list, trimming blanks.
func splitSchemes(raw string) []string {
	parts := strings.Split(raw, ",")
	schemes := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		schemes = append(schemes, part)
	}
	return schemes
}
