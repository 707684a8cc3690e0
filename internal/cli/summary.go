package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/timetable"
)

type summaryJSON struct {
	TotalRooms     int              `json:"total_rooms"`
	Timestamp      string           `json:"timestamp"`
	MostAvailable  []rankedRoomJSON `json:"most_available"`
	LeastAvailable []rankedRoomJSON `json:"least_available"`
	PeakHours      []peakJSON       `json:"peak_hours"`
	ByDay          []dayJSON        `json:"by_day"`
}

// Execute implements the go-flags Commander interface for SummaryCommand.
func (c *SummaryCommand) Execute(args []string) error {
	eng, cfg, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	top, peak := c.Top, c.Peak
	if top <= 0 {
		top = cfg.Analysis.TopN
	}
	if peak <= 0 {
		peak = cfg.Analysis.PeakTopN
	}
	return c.executeWithEngine(eng, top, peak)
}

// executeWithEngine prints the overview of eng's snapshot (for testing).
func (c *SummaryCommand) executeWithEngine(eng *analysis.Engine, top, peak int) error {
	s := eng.Summary(top, peak)

	out := summaryJSON{
		TotalRooms:     s.TotalRooms,
		Timestamp:      s.Timestamp.Format(time.RFC3339Nano),
		MostAvailable:  rankedRooms(s.MostAvailable),
		LeastAvailable: rankedRooms(s.LeastAvailable),
		PeakHours:      peaks(s.PeakHours),
		ByDay:          dayUsages(s.ByDay),
	}
	if handled, err := writeStructured(c.globals, out); handled {
		return err
	}

	rule := strings.Repeat("=", 70)
	fmt.Println(rule)
	fmt.Println("ROOM TIMETABLE ANALYSIS")
	fmt.Println(rule)

	fmt.Println()
	fmt.Println("Overall Statistics:")
	fmt.Printf("   Total rooms analyzed: %d\n", s.TotalRooms)
	fmt.Printf("   Data timestamp: %s\n", out.Timestamp)

	fmt.Println()
	fmt.Printf("Most Available Rooms (Top %d):\n", top)
	printRanked(s.MostAvailable)

	fmt.Println()
	fmt.Printf("Least Available Rooms (Top %d):\n", top)
	printRanked(s.LeastAvailable)

	fmt.Println()
	fmt.Printf("Peak Usage Hours (Top %d):\n", peak)
	for _, u := range s.PeakHours {
		fmt.Printf("   %s: %s%% occupied (%d/%d rooms)\n", u.Key, formatPercent(u.UsagePercent), u.OccupiedCount, u.TotalCount)
	}

	fmt.Println()
	fmt.Println("Usage by Day:")
	for _, u := range s.ByDay {
		fmt.Printf("   %s: %s%% occupied (%d/%d slots)\n", u.Key, formatPercent(u.UsagePercent), u.OccupiedCount, u.TotalCount)
	}
	fmt.Println(rule)
	return nil
}

func printRanked(rs []timetable.RoomAvailability) {
	for _, r := range rs {
		fmt.Printf("   Room %s: %s%% available (%d/%d slots free)\n",
			r.Room, formatPercent(r.AvailabilityPercent), r.FreeSlots, r.TotalSlots)
	}
}
