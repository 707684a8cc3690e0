// Package export writes query results to tabular sinks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/timetable"
)

// TableHeader and SummaryHeader are the CSV column sets.
var (
	TableHeader   = []string{"Room", "Day", "Time Slot", "Occupied", "Content"}
	SummaryHeader = []string{"Room", "Total Slots", "Occupied Slots", "Free Slots", "Availability %"}
)

// WriteTableCSV writes one row per schedule entry.
func WriteTableCSV(w io.Writer, rows []analysis.TableRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TableHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Room.Code, r.Day, r.TimeSlot, formatBool(r.Occupied), r.Content}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the per-room availability summary in the order given.
func WriteSummaryCSV(w io.Writer, rows []analysis.RoomSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Room.Code,
			strconv.Itoa(r.TotalSlots),
			strconv.Itoa(r.OccupiedSlots),
			strconv.Itoa(r.FreeSlots),
			timetable.FormatDecimal(r.AvailabilityPercent),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// formatBool matches the True/False spelling of the analyzer's CSVs.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
