package config

import "github.com/runnerr0/roomscope/internal/timetable"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path:     "~/ims_scraper_outputs/rooms_complete_data.json",
			UserID:   "",
			FinYear:  "2025-26",
			Semester: "ODD",
		},
		Classifier: ClassifierConfig{
			MinLength: timetable.DefaultMinContentLength,
		},
		Normalizer: NormalizerConfig{
			SlotPatterns: append([]string(nil), timetable.DefaultSlotExprs...),
			Workers:      4,
		},
		Analysis: AnalysisConfig{
			MinAvailability: 50,
			TopN:            10,
			PeakTopN:        5,
		},
		Export: ExportConfig{
			Dir:         "~/ims_scraper_outputs",
			TableFile:   "room_analysis.csv",
			SummaryFile: "availability_report.csv",
		},
		Storage: StorageConfig{
			Path:       "~/.config/roomscope",
			SQLiteFile: "roomscope.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
