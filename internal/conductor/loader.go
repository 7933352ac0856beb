package conductor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultSourceFile is read by LoadDefault from the working directory.
const DefaultSourceFile = "config.yaml"

// Loader resolves Config values from YAML sources.
type Loader struct {
	logger  *zap.Logger
	workDir string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger that receives binding warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithWorkingDirectory sets the directory relative app paths and the default
// source are resolved against. The process working directory is used otherwise.
func WithWorkingDirectory(dir string) Option {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves a Config from r. A nil reader is an error; an empty document
// yields the built-in defaults.
func Load(r io.Reader, overrides Overrides) (*Config, error) {
	return NewLoader().Load(r, overrides)
}

// LoadFile resolves a Config from the file at path.
func LoadFile(path string, overrides Overrides) (*Config, error) {
	return NewLoader().LoadFile(path, overrides)
}

// LoadDefault resolves a Config from the default source if it exists.
func LoadDefault(overrides Overrides) (*Config, error) {
	return NewLoader().LoadDefault(overrides)
}

// Load resolves a Config from r.
func (l *Loader) Load(r io.Reader, overrides Overrides) (*Config, error) {
	if r == nil {
		return nil, ErrNilSource
	}

	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
	}

	return l.resolve(raw, overrides)
}

// LoadBytes resolves a Config from an in-memory document.
func (l *Loader) LoadBytes(data []byte, overrides Overrides) (*Config, error) {
	return l.Load(bytes.NewReader(data), overrides)
}

// LoadFile resolves a Config from the file at path. A missing file is an error.
func (l *Loader) LoadFile(path string, overrides Overrides) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config source: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, err := l.Load(f, overrides)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault resolves a Config from DefaultSourceFile in the working
// directory. When the file does not exist the built-in defaults are returned.
func (l *Loader) LoadDefault(overrides Overrides) (*Config, error) {
	path := filepath.Join(l.workingDirectory(), DefaultSourceFile)
	cfg, err := l.LoadFile(path, overrides)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("default configuration source not found", zap.String("path", path))
		return l.resolve(nil, overrides)
	}
	return cfg, err
}

func (l *Loader) resolve(raw map[string]any, overrides Overrides) (*Config, error) {
	cfg := NewConfig()
	cfg.workDir = l.workingDirectory()

	platform, pinned, err := resolvePlatform(raw, overrides)
	if err != nil {
		return nil, err
	}
	cfg.PlatformName = platform

	schemes := resolveSchemes(raw, overrides)
	cfg.CurrentSchemes = schemes

	layers, err := planLayers(raw, platform, pinned, schemes, overrides)
	if err != nil {
		return nil, err
	}
	for _, scheme := range schemes {
		if _, ok := asMap(raw[scheme]); !ok {
			l.logger.Debug("scheme has no configuration block", zap.String("scheme", scheme))
		}
	}

	b := &binder{overrides: overrides, logger: l.logger, pinPlatform: pinned}
	if err := fold(cfg, layers, b); err != nil {
		return nil, err
	}

	l.logger.Info("configuration resolved",
		zap.Stringer("platform", cfg.PlatformName),
		zap.Strings("schemes", schemes),
		zap.Int("layers", len(layers)),
	)
	return cfg, nil
}

// resolvePlatform returns the platform chosen by the override or the source,
// and whether an override pinned it.
func resolvePlatform(raw map[string]any, overrides Overrides) (Platform, bool, error) {
	if name, ok := overrides.Lookup(PlatformOverride); ok {
		p, err := ParsePlatform(name)
		if err != nil {
			return PlatformNone, false, fmt.Errorf("%s: %w", PlatformOverride, err)
		}
		return p, true, nil
	}
	if v, ok := raw[keyPlatformName]; ok && v != nil {
		p, err := ParsePlatform(platformText(v, overrides))
		if err != nil {
			return PlatformNone, false, fmt.Errorf("%s: %w", keyPlatformName, err)
		}
		return p, false, nil
	}
	return PlatformNone, false, nil
}

// resolveSchemes returns the active scheme list. The override wins over the source.
func resolveSchemes(raw map[string]any, overrides Overrides) []string {
	if list, ok := overrides.Lookup(SchemesOverride); ok {
		return splitSchemes(list)
	}

	switch v := raw[keyCurrentSchemes].(type) {
	case []any:
		schemes := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			schemes = append(schemes, fmt.Sprint(item))
		}
		return schemes
	case string:
		return splitSchemes(v)
	default:
		return nil
	}
}

func (l *Loader) workingDirectory() string {
	if l.workDir != "" {
		return l.workDir
	}
	wd, err := os.Getwd()
	if err != nil {
		l.logger.Warn("cannot determine working directory", zap.Error(err))
		return ""
	}
	return wd
}
