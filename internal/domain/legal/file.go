package legal

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a legal parameter table.
type File struct {
	Configurations []Configuration `yaml:"configurations"`
}

// LoadFile reads and validates every configuration in a YAML table.
func LoadFile(path string) ([]Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legal table: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse legal table %s: %w", path, err)
	}
	effective := 0
	for _, cfg := range file.Configurations {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("legal table %s year %d: %w", path, cfg.Year, err)
		}
		if cfg.Effective {
			effective++
		}
	}
	if effective > 1 {
		return nil, fmt.Errorf("legal table %s marks %d years effective", path, effective)
	}
	return file.Configurations, nil
}

// FileProvider serves the effective configuration from a YAML table. The file
// is read on every call so edits apply without a restart.
type FileProvider struct {
	Path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) GetEffective(ctx context.Context) (Configuration, error) {
	if err := ctx.Err(); err != nil {
		return Configuration{}, err
	}
	configs, err := LoadFile(p.Path)
	if err != nil {
		return Configuration{}, err
	}
	return Static(configs...).GetEffective(ctx)
}

// StaticProvider serves a fixed set of configurations.
type StaticProvider struct {
	configs []Configuration
}

func Static(configs ...Configuration) StaticProvider {
	return StaticProvider{configs: configs}
}

func (p StaticProvider) GetEffective(ctx context.Context) (Configuration, error) {
	for _, cfg := range p.configs {
		if cfg.Effective {
			return cfg, nil
		}
	}
	return Configuration{}, ErrNoEffective
}
