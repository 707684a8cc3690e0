package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alpkeskin/gotoon"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/config"
	"github.com/runnerr0/roomscope/internal/storage"
	"github.com/runnerr0/roomscope/internal/timetable"
)

// loadConfig reads --config when given, otherwise the default config file
// (created with defaults on first use).
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	if g != nil && g.Config != "" {
		path, err := config.ExpandPath(g.Config)
		if err != nil {
			return nil, err
		}
		return config.Load(path)
	}
	return config.LoadOrCreate()
}

// newLogger returns a text logger on stderr. --verbose forces debug.
func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func verbose(g *GlobalFlags) bool {
	return g != nil && g.Verbose
}

// snapshotPath resolves the snapshot file: --snapshot wins over the config.
func snapshotPath(cfg *config.Config, g *GlobalFlags) (string, error) {
	path := cfg.Snapshot.Path
	if g != nil && g.Snapshot != "" {
		path = g.Snapshot
	}
	return config.ExpandPath(path)
}

// loadEngine loads the configured snapshot and wraps it in a query engine.
func loadEngine(g *GlobalFlags) (*analysis.Engine, *config.Config, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.Logging.Level, verbose(g))

	path, err := snapshotPath(cfg, g)
	if err != nil {
		return nil, nil, err
	}
	snap, err := timetable.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("snapshot loaded", "path", path, "rooms", snap.TotalRooms)
	return analysis.New(snap), cfg, nil
}

// defaultDBPath returns the configured export database path.
func defaultDBPath(cfg *config.Config) (string, error) {
	dir, err := config.ExpandPath(cfg.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cfg.Storage.SQLiteFile), nil
}

// openStore opens the export database at dbPath, runs migrations, and
// returns a ready-to-use store and the underlying *sql.DB.
func openStore(dbPath string) (*storage.SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// writeStructured prints v as JSON or Toon when one of those outputs was
// requested. It reports false when the caller should print the human form.
func writeStructured(g *GlobalFlags, v any) (bool, error) {
	switch {
	case g != nil && g.JSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return true, nil
	case g != nil && g.Toon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return true, nil
	}
	return false, nil
}

// formatPercent prints a percentage the way the analyzer reports it:
// 50 -> "50.0", 66.67 -> "66.67".
func formatPercent(v float64) string {
	return timetable.FormatDecimal(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
