package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/conductor-config/internal/conductor"
)

const (
	formatJSON         = "json"
	formatYAML         = "yaml"
	formatCapabilities = "capabilities"
)

type resolveOptions struct {
	source     string
	properties map[string]string
	platform   string
	schemes    string
	sets       map[string]string
	format     string
}

// runResolve loads the session configuration described by opts and prints it to out.
func runResolve(opts resolveOptions, logger *zap.Logger, out io.Writer) error {
	properties := maps.Clone(opts.properties)
	if properties == nil {
		properties = map[string]string{}
	}
	if platform := strings.TrimSpace(opts.platform); platform != "" {
		properties[conductor.PlatformOverride] = platform
	}
	if schemes := strings.TrimSpace(opts.schemes); schemes != "" {
		properties[conductor.SchemesOverride] = schemes
	}

	loader := conductor.NewLoader(conductor.WithLogger(logger))
	overrides := conductor.ProcessOverrides(properties)

	var (
		cfg *conductor.Config
		err error
	)
	if opts.source != "" {
		cfg, err = loader.LoadFile(opts.source, overrides)
	} else {
		cfg, err = loader.LoadDefault(overrides)
	}
	if err != nil {
		return err
	}

	// map flags lose their order on the command line
	for _, key := range slices.Sorted(maps.Keys(opts.sets)) {
		if err := cfg.Set(key, opts.sets[key]); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return writeConfig(out, cfg, opts.format)
}

func writeConfig(out io.Writer, cfg *conductor.Config, format string) error {
	switch format {
	case "", formatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case formatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	case formatCapabilities:
		caps, err := cfg.Capabilities()
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(caps)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
