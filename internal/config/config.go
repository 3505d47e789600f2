// Package config handles obftool configuration loading and management.
package config

import "time"

// Config holds all obftool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Decode  DecodeConfig  `yaml:"decode"`
	Export  ExportConfig  `yaml:"export"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// DecodeConfig holds OBF decoder settings.
type DecodeConfig struct {
	StringEncoding string   `yaml:"string_encoding"`        // shift-jis, euc-jp or utf-8
	MaxElements    int      `yaml:"max_elements"`           // cap on any count field
	SearchPaths    []string `yaml:"search_paths,omitempty"` // roots for relative model names
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Binary       bool   `yaml:"binary"`     // write .glb instead of .gltf
	OutputDir    string `yaml:"output_dir"` // used when no output path is given
	ApplyOffsets bool   `yaml:"apply_offsets"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Decode: DecodeConfig{
			StringEncoding: "shift-jis",
			MaxElements:    1 << 20,
		},
		Export: ExportConfig{
			Binary:       false,
			OutputDir:    ".",
			ApplyOffsets: false,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
