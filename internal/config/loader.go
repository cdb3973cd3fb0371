package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Repository loads configuration and batch files.
// The format is chosen by the file extension: `.toml` files are TOML, anything else YAML.
type Repository struct {
	fs fs.FS
}

// NewRepository returns a new repository reading from the file system.
func NewRepository(filesystem fs.FS) *Repository {
	return &Repository{fs: filesystem}
}

// GetConfig loads the configuration file, unset values get the defaults.
func (r *Repository) GetConfig(ctx context.Context, path string) (Config, error) {
	var f fileConfig
	err := r.decode(ctx, path, &f)
	if err != nil {
		return Config{}, err
	}

	cfg := f.toConfig()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GetConfigOrDefault is like GetConfig but a missing file returns the defaults.
func (r *Repository) GetConfigOrDefault(ctx context.Context, path string) (Config, error) {
	cfg, err := r.GetConfig(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (r *Repository) decode(ctx context.Context, path string, v any) error {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
	}

	return nil
}

// fileConfig is the on disk structure of the configuration.
type fileConfig struct {
	Tasks   fileTasks               `yaml:"tasks" toml:"tasks"`
	Plugins filePlugins             `yaml:"plugins" toml:"plugins"`
	Opener  map[string][]fileOpener `yaml:"opener" toml:"opener"`
}

type fileTasks struct {
	MicroWorkers int    `yaml:"micro_workers" toml:"micro_workers"`
	MacroWorkers int    `yaml:"macro_workers" toml:"macro_workers"`
	BizarreRetry int    `yaml:"bizarre_retry" toml:"bizarre_retry"`
	TrashDir     string `yaml:"trash_dir" toml:"trash_dir"`
}

type filePlugins struct {
	Dir string `yaml:"dir" toml:"dir"`
}

type fileOpener struct {
	Run    string `yaml:"run" toml:"run"`
	Block  bool   `yaml:"block" toml:"block"`
	Orphan bool   `yaml:"orphan" toml:"orphan"`
	Desc   string `yaml:"desc" toml:"desc"`
}

func (f fileConfig) toConfig() Config {
	cfg := Default()

	if f.Tasks.MicroWorkers != 0 {
		cfg.Tasks.MicroWorkers = f.Tasks.MicroWorkers
	}
	if f.Tasks.MacroWorkers != 0 {
		cfg.Tasks.MacroWorkers = f.Tasks.MacroWorkers
	}
	if f.Tasks.BizarreRetry != 0 {
		cfg.Tasks.BizarreRetry = f.Tasks.BizarreRetry
	}
	if f.Tasks.TrashDir != "" {
		cfg.Tasks.TrashDir = expandHome(f.Tasks.TrashDir)
	}
	if f.Plugins.Dir != "" {
		cfg.Plugins.Dir = expandHome(f.Plugins.Dir)
	}

	for name, openers := range f.Opener {
		for _, o := range openers {
			cfg.Openers[name] = append(cfg.Openers[name], Opener(o))
		}
	}

	return cfg
}
