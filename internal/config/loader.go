package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidConfig is wrapped into the error Save returns when cfg fails
// validation.
var ErrInvalidConfig = errors.New("invalid dispatcher config")

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*DispatcherConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.dagsched/config.json
// Project: .dagsched/config.json (relative to cwd)
func LoadDefault() (*DispatcherConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".dagsched", "config.json")
	projectPath := filepath.Join(".dagsched", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *DispatcherConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded DispatcherConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.WorkerCount != 0 {
		base.WorkerCount = loaded.WorkerCount
	}
	if loaded.PerReadTimeoutSecs != 0 {
		base.PerReadTimeoutSecs = loaded.PerReadTimeoutSecs
	}
	if loaded.CollectionTimeoutSecs != 0 {
		base.CollectionTimeoutSecs = loaded.CollectionTimeoutSecs
	}
	base.Costs = base.Costs || loaded.Costs
	base.Inflate = base.Inflate || loaded.Inflate

	for key, graph := range loaded.Graphs {
		base.Graphs[key] = graph
	}

	return nil
}

// Save validates cfg and persists it to path as indented JSON, creating
// parent directories if needed. Unlike a plain marshal-and-write, a
// dispatcher config with a non-positive worker count or collection timeout
// is rejected with ErrInvalidConfig and nothing is written.
func Save(cfg *DispatcherConfig, path string) error {
	if cfg.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrInvalidConfig, cfg.WorkerCount)
	}
	if cfg.CollectionTimeoutSecs <= 0 {
		return fmt.Errorf("%w: collection_timeout_secs must be > 0, got %v", ErrInvalidConfig, cfg.CollectionTimeoutSecs)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
