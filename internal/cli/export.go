package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/config"
	"github.com/runnerr0/roomscope/internal/export"
	"github.com/runnerr0/roomscope/internal/storage"
)

type exportJSON struct {
	TableFile   string `json:"table_file"`
	SummaryFile string `json:"summary_file"`
	Rows        int    `json:"rows"`
	Rooms       int    `json:"rooms"`
	RunID       string `json:"run_id,omitempty"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	eng, cfg, err := loadEngine(c.globals)
	if err != nil {
		return err
	}

	var store storage.Store
	if c.DB != "" {
		dbPath, err := config.ExpandPath(c.DB)
		if err != nil {
			return err
		}
		s, db, err := openStore(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		defer s.Close()
		store = s
	}

	return c.executeWith(eng, cfg, store)
}

// executeWith writes both CSVs and, when store is non-nil, records the
// export as a run (for testing).
func (c *ExportCommand) executeWith(eng *analysis.Engine, cfg *config.Config, store storage.Store) error {
	dir := c.Dir
	if dir == "" {
		dir = cfg.Export.Dir
	}
	dir, err := config.ExpandPath(dir)
	if err != nil {
		return err
	}
	tableName, summaryName := c.Table, c.Summary
	if tableName == "" {
		tableName = cfg.Export.TableFile
	}
	if summaryName == "" {
		summaryName = cfg.Export.SummaryFile
	}

	rows := eng.ExportTable()
	summary := eng.ExportAvailabilitySummary()

	out := exportJSON{
		TableFile:   filepath.Join(dir, tableName),
		SummaryFile: filepath.Join(dir, summaryName),
		Rows:        len(rows),
		Rooms:       len(summary),
	}
	if err := export.WriteFile(out.TableFile, func(w io.Writer) error {
		return export.WriteTableCSV(w, rows)
	}); err != nil {
		return err
	}
	if err := export.WriteFile(out.SummaryFile, func(w io.Writer) error {
		return export.WriteSummaryCSV(w, summary)
	}); err != nil {
		return err
	}

	if store != nil {
		run := toRun(eng)
		if err := store.SaveRun(context.Background(), run, toSlotRows(rows), toAvailabilityRows(summary)); err != nil {
			return fmt.Errorf("record export run: %w", err)
		}
		out.RunID = run.ID
	}

	if handled, err := writeStructured(c.globals, out); handled {
		return err
	}
	fmt.Printf("Exported to %s\n", out.TableFile)
	fmt.Printf("Exported to %s\n", out.SummaryFile)
	if out.RunID != "" {
		fmt.Printf("Recorded export run %s (%d rows)\n", out.RunID, out.Rows)
	}
	return nil
}

func toRun(eng *analysis.Engine) *storage.Run {
	snap := eng.Snapshot()
	return &storage.Run{
		SnapshotTS: snap.Timestamp,
		UserID:     snap.UserID,
		FinYear:    snap.FinYear,
		TotalRooms: snap.TotalRooms,
		ExportedAt: time.Now(),
	}
}

func toSlotRows(rows []analysis.TableRow) []storage.SlotRow {
	out := make([]storage.SlotRow, len(rows))
	for i, r := range rows {
		out[i] = storage.SlotRow{Room: r.Room.Code, Day: r.Day, TimeSlot: r.TimeSlot, Occupied: r.Occupied, Content: r.Content}
	}
	return out
}

func toAvailabilityRows(rows []analysis.RoomSummary) []storage.AvailabilityRow {
	out := make([]storage.AvailabilityRow, len(rows))
	for i, r := range rows {
		out[i] = storage.AvailabilityRow{
			Room:            r.Room.Code,
			TotalSlots:      r.TotalSlots,
			OccupiedSlots:   r.OccupiedSlots,
			FreeSlots:       r.FreeSlots,
			AvailabilityPct: r.AvailabilityPercent,
		}
	}
	return out
}
