package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/roomscope/internal/timetable"
)

// DefaultMinAvailability is the FindAvailableRooms threshold when none is given.
const DefaultMinAvailability = 50.0

// Engine answers read-only queries over one snapshot. It is safe to call
// any method any number of times, in any order, from any goroutine.
type Engine struct {
	snap *timetable.Snapshot
}

// New returns an Engine over s.
func New(s *timetable.Snapshot) *Engine {
	return &Engine{snap: s}
}

// Snapshot returns the snapshot the engine reads.
func (e *Engine) Snapshot() *timetable.Snapshot { return e.snap }

type filter struct {
	day  string
	slot string
	min  float64
}

// FilterOption narrows FindAvailableRooms.
type FilterOption func(*filter)

// OnDay keeps only entries of day.
func OnDay(day string) FilterOption {
	return func(f *filter) { f.day = day }
}

// SlotContaining keeps only entries whose slot label contains s.
func SlotContaining(s string) FilterOption {
	return func(f *filter) { f.slot = s }
}

// MinAvailability sets the availability threshold in percent.
func MinAvailability(pct float64) FilterOption {
	return func(f *filter) { f.min = pct }
}

// FindAvailableRooms ranks rooms by availability over the entries matching
// the filters, highest first. Rooms with no matching entries are left out.
func (e *Engine) FindAvailableRooms(opts ...FilterOption) []timetable.RoomAvailability {
	f := filter{min: DefaultMinAvailability}
	for _, opt := range opts {
		opt(&f)
	}

	out := make([]timetable.RoomAvailability, 0)
	for _, room := range e.snap.Rooms {
		total, free := 0, 0
		for _, d := range room.Schedule {
			if f.day != "" && d.Name != f.day {
				continue
			}
			for _, entry := range d.Entries {
				if f.slot != "" && !strings.Contains(entry.TimeSlot, f.slot) {
					continue
				}
				total++
				if !entry.Occupied {
					free++
				}
			}
		}
		if total == 0 {
			continue
		}
		pct := percent(free, total)
		if pct < f.min {
			continue
		}
		out = append(out, timetable.RoomAvailability{
			Room:                room.Room,
			AvailabilityPercent: round2(pct),
			FreeSlots:           free,
			TotalSlots:          total,
		})
	}
	sortByAvailability(out, true)
	return out
}

// FreeSlot is a room that is free in a given slot.
type FreeSlot struct {
	Room     timetable.RoomID
	TimeSlot string
}

// FindFreeAt lists the free slots on day whose label contains slot.
func (e *Engine) FindFreeAt(day, slot string) []FreeSlot {
	out := make([]FreeSlot, 0)
	for _, room := range e.snap.Rooms {
		entries, ok := room.Schedule.Get(day)
		if !ok {
			continue
		}
		for _, entry := range entries {
			if strings.Contains(entry.TimeSlot, slot) && !entry.Occupied {
				out = append(out, FreeSlot{Room: room.Room, TimeSlot: entry.TimeSlot})
			}
		}
	}
	return out
}

// RoomSchedule returns a copy of a room's schedule. An unknown room is not
// an error: it reports false.
func (e *Engine) RoomSchedule(id string) (timetable.DaySchedule, bool) {
	room, ok := e.snap.Lookup(id)
	if !ok {
		return nil, false
	}
	return room.Schedule, true
}

// Usage is the occupancy of one slot label or day across all rooms.
type Usage struct {
	Key           string
	UsagePercent  float64
	OccupiedCount int
	TotalCount    int
}

func usages(ts timetable.Tallies) []Usage {
	out := make([]Usage, 0, len(ts))
	for _, t := range ts {
		if t.Total == 0 {
			continue
		}
		out = append(out, Usage{
			Key:           t.Key,
			UsagePercent:  round2(percent(t.Occupied, t.Total)),
			OccupiedCount: t.Occupied,
			TotalCount:    t.Total,
		})
	}
	return out
}

// PeakHours ranks slot labels by usage, busiest first. Equal usage keeps the
// order in which the labels first appear.
func (e *Engine) PeakHours() []Usage {
	out := usages(fold(e.snap.Rooms).slots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsagePercent > out[j].UsagePercent
	})
	return out
}

// UsageByDay reports usage per day in the order days first appear.
func (e *Engine) UsageByDay() []Usage {
	return usages(fold(e.snap.Rooms).days)
}

// TableRow is one entry of the flat export.
type TableRow struct {
	Room     timetable.RoomID
	Day      string
	TimeSlot string
	Occupied bool
	Content  string
}

// ExportTable flattens the snapshot into one row per entry, in source order.
func (e *Engine) ExportTable() []TableRow {
	out := make([]TableRow, 0)
	for _, room := range e.snap.Rooms {
		for _, d := range room.Schedule {
			for _, entry := range d.Entries {
				out = append(out, TableRow{
					Room:     room.Room,
					Day:      d.Name,
					TimeSlot: entry.TimeSlot,
					Occupied: entry.Occupied,
					Content:  entry.Content,
				})
			}
		}
	}
	return out
}

// RoomSummary is one row of the availability export.
type RoomSummary struct {
	Room                timetable.RoomID
	TotalSlots          int
	OccupiedSlots       int
	FreeSlots           int
	AvailabilityPercent float64
}

// ExportAvailabilitySummary lists every room with slots, most available first.
func (e *Engine) ExportAvailabilitySummary() []RoomSummary {
	out := make([]RoomSummary, 0, len(e.snap.Rooms))
	for _, room := range e.snap.Rooms {
		total := room.TotalSlots()
		if total == 0 {
			continue
		}
		occupied := room.OccupiedSlots()
		out = append(out, RoomSummary{
			Room:                room.Room,
			TotalSlots:          total,
			OccupiedSlots:       occupied,
			FreeSlots:           total - occupied,
			AvailabilityPercent: round2(percent(total-occupied, total)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvailabilityPercent > out[j].AvailabilityPercent
	})
	return out
}

// Report recomputes the availability report.
func (e *Engine) Report() *timetable.Report {
	return Compute(e.snap)
}

// Summary is the overview printed after a scrape or on demand.
type Summary struct {
	TotalRooms     int
	Timestamp      time.Time
	MostAvailable  []timetable.RoomAvailability
	LeastAvailable []timetable.RoomAvailability
	PeakHours      []Usage
	ByDay          []Usage
}

// Summary assembles the overview: the topN most and least available rooms,
// the peakN busiest slots and usage per day.
func (e *Engine) Summary(topN, peakN int) Summary {
	ranked := e.FindAvailableRooms(MinAvailability(0))

	least := make([]timetable.RoomAvailability, len(ranked))
	copy(least, ranked)
	sortByAvailability(least, false)

	return Summary{
		TotalRooms:     e.snap.TotalRooms,
		Timestamp:      e.snap.Timestamp,
		MostAvailable:  head(ranked, topN),
		LeastAvailable: head(least, topN),
		PeakHours:      head(e.PeakHours(), peakN),
		ByDay:          e.UsageByDay(),
	}
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
