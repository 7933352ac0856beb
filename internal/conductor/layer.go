package conductor

import (
	"fmt"
	"slices"

	"dario.cat/mergo"
	"go.uber.org/zap"
)

const (
	keyPlatformName   = "platformName"
	keyCurrentSchemes = "currentSchemes"
	keyDefaults       = "defaults"
)

// Layer is one region of the source applied as a unit.
type Layer struct {
	Name    string
	Entries map[string]any
}

// planLayers lists the layers selected by the source, in the order they apply:
// defaults, the platform block of the defaults, then each scheme block.
// platform is the platform chosen before the defaults are read; unless pinned,
// a platformName inside the defaults, after substitution, decides which
// platform block follows.
func planLayers(raw map[string]any, platform Platform, pinned bool, schemes []string, overrides Overrides) ([]Layer, error) {
	var layers []Layer

	if defaults, ok := asMap(raw[keyDefaults]); ok {
		layers = append(layers, Layer{Name: keyDefaults, Entries: defaults})

		if !pinned {
			if v, found := defaults[keyPlatformName]; found && v != nil {
				p, err := ParsePlatform(platformText(v, overrides))
				if err != nil {
					return nil, fmt.Errorf("defaults: %w", err)
				}
				platform = p
			}
		}
		if key := platform.blockKey(); key != "" {
			if block, found := asMap(defaults[key]); found {
				layers = append(layers, Layer{Name: keyDefaults + "." + key, Entries: block})
			}
		}
	}

	for _, scheme := range schemes {
		block, ok := asMap(raw[scheme])
		if !ok {
			continue
		}
		layers = append(layers, Layer{Name: scheme, Entries: block})
	}

	return layers, nil
}

// fold applies layers to cfg left to right. Fields are overwritten by later
// layers; custom capabilities are merged key by key.
func fold(cfg *Config, layers []Layer, b *binder) error {
	for _, layer := range layers {
		caps := make(map[string]any, len(layer.Entries))

		keys := make([]string, 0, len(layer.Entries))
		for key := range layer.Entries {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			if err := b.bind(cfg, caps, key, layer.Entries[key]); err != nil {
				return fmt.Errorf("layer %s: %w", layer.Name, err)
			}
		}

		if len(caps) > 0 {
			if err := mergo.Merge(&cfg.CustomCapabilities, caps, mergo.WithOverride); err != nil {
				return fmt.Errorf("layer %s: merge capabilities: %w", layer.Name, err)
			}
		}
		b.logger.Debug("applied configuration layer",
			zap.String("layer", layer.Name),
			zap.Int("keys", len(keys)),
		)
	}
	return nil
}

// platformText renders a platformName value, resolving ${NAME} tokens in strings.
func platformText(v any, overrides Overrides) string {
	if s, ok := v.(string); ok {
		return Substitute(s, overrides)
	}
	return fmt.Sprint(v)
}

// asMap accepts both mapping shapes the YAML decoder produces.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
