package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/config"
	"github.com/runnerr0/roomscope/internal/timetable"
)

// scrapeSummaryTop is how many ranked rooms the ingest summary lists.
const scrapeSummaryTop = 5

type skipJSON struct {
	Room   string `json:"room"`
	Reason string `json:"reason"`
}

type ingestJSON struct {
	Output         string           `json:"output"`
	RoomsChecked   int              `json:"rooms_checked"`
	RoomsWithData  int              `json:"rooms_with_data"`
	Skipped        []skipJSON       `json:"skipped"`
	MostAvailable  []rankedRoomJSON `json:"most_available"`
	LeastAvailable []rankedRoomJSON `json:"least_available"`
}

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	out := c.Output
	if out == "" {
		out, err = snapshotPath(cfg, c.globals)
	} else {
		out, err = config.ExpandPath(out)
	}
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level, verbose(c.globals))
	return c.executeWith(cfg, logger, out, time.Now())
}

// executeWith runs the scrape pipeline over c.Input and saves the snapshot
// to out, stamped with now (for testing).
func (c *IngestCommand) executeWith(cfg *config.Config, logger *slog.Logger, out string, now time.Time) error {
	patterns, err := timetable.CompileSlotPatterns(cfg.Normalizer.SlotPatterns)
	if err != nil {
		return err
	}
	norm := timetable.NewNormalizer(cfg.SlotClassifier(),
		timetable.WithSlotPatterns(patterns),
		timetable.WithLogger(logger),
	)

	meta := timetable.Metadata{
		Timestamp: now,
		UserID:    cfg.Snapshot.UserID,
		FinYear:   cfg.Snapshot.FinYear,
	}

	result := ingestJSON{Output: out, Skipped: []skipJSON{}}
	passes := make([][]timetable.RoomSchedule, 0, len(c.Input))
	for _, path := range c.Input {
		batch, err := timetable.LoadBatch(path)
		if err != nil {
			return err
		}
		if batch.UserID != "" {
			meta.UserID = batch.UserID
		}
		if batch.FinYear != "" {
			meta.FinYear = batch.FinYear
		}
		for i := range batch.Rooms {
			if batch.Rooms[i].Semester == "" {
				batch.Rooms[i].Semester = cfg.Snapshot.Semester
			}
		}

		logger.Debug("batch loaded", "path", path, "rooms", len(batch.Rooms))
		res := norm.NormalizeBatch(batch.Rooms, cfg.Normalizer.Workers)
		result.RoomsChecked += res.Checked
		for _, s := range res.Skipped {
			result.Skipped = append(result.Skipped, skipJSON{Room: s.Room.Code, Reason: s.Err.Error()})
		}
		passes = append(passes, res.Rooms)
	}

	snap := timetable.Build(meta, timetable.Merge(passes...))
	report := analysis.Compute(snap)
	snap = snap.WithAnalysis(report)
	if err := timetable.Save(out, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("snapshot saved", "path", out, "rooms", snap.TotalRooms)

	result.RoomsWithData = snap.TotalRooms
	result.MostAvailable = rankedRooms(head(report.MostAvailable, scrapeSummaryTop))
	result.LeastAvailable = rankedRooms(head(report.LeastAvailable, scrapeSummaryTop))
	if handled, err := writeStructured(c.globals, result); handled {
		return err
	}

	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Println("Scraping complete!")
	fmt.Printf("   Total rooms checked: %d\n", result.RoomsChecked)
	fmt.Printf("   Rooms with data: %d\n", result.RoomsWithData)
	fmt.Printf("   Data saved to %s\n", out)
	fmt.Println()
	fmt.Println("Most available rooms:")
	for _, r := range head(report.MostAvailable, scrapeSummaryTop) {
		fmt.Printf("  Room %s: %s%% available\n", r.Room, formatPercent(r.AvailabilityPercent))
	}
	fmt.Println()
	fmt.Println("Least available rooms:")
	for _, r := range head(report.LeastAvailable, scrapeSummaryTop) {
		fmt.Printf("  Room %s: %s%% available\n", r.Room, formatPercent(r.AvailabilityPercent))
	}
	fmt.Println(rule)
	return nil
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
