package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/roomscope/internal/timetable"
)

// Default config file path.
const DefaultConfigPath = "~/.config/roomscope/config.yaml"

// Config holds all roomscope configuration.
type Config struct {
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Export     ExportConfig     `yaml:"export"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SnapshotConfig struct {
	Path     string `yaml:"path"`
	UserID   string `yaml:"user_id"`
	FinYear  string `yaml:"fin_year"`
	Semester string `yaml:"semester"`
}

type ClassifierConfig struct {
	MinLength int `yaml:"min_length"`
}

type NormalizerConfig struct {
	SlotPatterns []string `yaml:"slot_patterns"`
	Workers      int      `yaml:"workers"`
}

type AnalysisConfig struct {
	MinAvailability float64 `yaml:"min_availability"`
	TopN            int     `yaml:"top_n"`
	PeakTopN        int     `yaml:"peak_top_n"`
}

type ExportConfig struct {
	Dir         string `yaml:"dir"`
	TableFile   string `yaml:"table_file"`
	SummaryFile string `yaml:"summary_file"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Classifier.MinLength < 0 {
		return fmt.Errorf("classifier.min_length must be >= 0, got %d", c.Classifier.MinLength)
	}
	if c.Normalizer.Workers < 1 {
		return fmt.Errorf("normalizer.workers must be >= 1, got %d", c.Normalizer.Workers)
	}
	if len(c.Normalizer.SlotPatterns) == 0 {
		return fmt.Errorf("normalizer.slot_patterns must not be empty")
	}
	if _, err := timetable.CompileSlotPatterns(c.Normalizer.SlotPatterns); err != nil {
		return fmt.Errorf("normalizer.slot_patterns: %w", err)
	}
	if c.Analysis.MinAvailability < 0 || c.Analysis.MinAvailability > 100 {
		return fmt.Errorf("analysis.min_availability must be within 0..100, got %v", c.Analysis.MinAvailability)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// SlotClassifier returns the slot classifier the config describes.
func (c *Config) SlotClassifier() timetable.Classifier {
	return timetable.LengthThresholdClassifier{MinLength: c.Classifier.MinLength}
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
