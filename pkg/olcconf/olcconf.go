// Package olcconf is the daemon configuration for cmd/olcd.
package olcconf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DaemonConf holds the daemon's paths and switches. Relative paths are
// resolved against the directory of the file they were loaded from.
type DaemonConf struct {
	// --- Library ---
	LibDir     string `yaml:"lib_dir"`
	GameConfig string `yaml:"game_config"` // Global config file, legacy text or YAML

	// --- Persistence ---
	BoltPath       string `yaml:"bolt_path"`       // Prototype mirror; empty disables it
	HistoryPath    string `yaml:"history_path"`    // SQLite edit log; empty disables it
	HistoryTimeout int    `yaml:"history_timeout"` // Seconds
	ArchiveDir     string `yaml:"archive_dir"`     // Pre-boot snapshots; empty disables them
	ArchiveKeep    int    `yaml:"archive_keep"`    // Snapshots kept; 0 keeps all

	// --- Services ---
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9150"; empty disables /metrics
	Watch       bool   `yaml:"watch"`

	// --- Console ---
	Console ConsoleConf `yaml:"console"`
}

// ConsoleConf configures the stdin/stdout builder session.
type ConsoleConf struct {
	Player string `yaml:"player"`
	Level  int    `yaml:"level"`
	Prompt string `yaml:"prompt"`
}

// DefaultDaemonConf returns the configuration used when no file is given.
func DefaultDaemonConf() *DaemonConf {
	return &DaemonConf{
		LibDir:         "lib",
		GameConfig:     "lib/misc/game_configs",
		HistoryTimeout: 5,
		ArchiveKeep:    10,
		Console: ConsoleConf{
			Player: "Console",
			Level:  7,
			Prompt: "olc> ",
		},
	}
}

// LoadDaemonConf reads path over the defaults.
func LoadDaemonConf(path string) (*DaemonConf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	dc := DefaultDaemonConf()
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, fmt.Errorf("parsing YAML %s: %w", path, err)
	}
	dc.resolve(filepath.Dir(path))
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dc, nil
}

func (dc *DaemonConf) resolve(base string) {
	for _, p := range []*string{&dc.LibDir, &dc.GameConfig, &dc.BoltPath, &dc.HistoryPath, &dc.ArchiveDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate rejects settings the daemon cannot run with.
func (dc *DaemonConf) Validate() error {
	if dc.LibDir == "" {
		return fmt.Errorf("lib_dir is required")
	}
	if dc.HistoryTimeout < 0 || dc.ArchiveKeep < 0 {
		return fmt.Errorf("history_timeout and archive_keep may not be negative")
	}
	if dc.Console.Level < 0 {
		return fmt.Errorf("console level may not be negative")
	}
	return nil
}

// Write saves dc as YAML.
func (dc *DaemonConf) Write(path string) error {
	data, err := yaml.Marshal(dc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
