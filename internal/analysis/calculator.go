// Package analysis derives availability statistics from a timetable
// snapshot and answers queries over it. Everything here is a pure read.
package analysis

import (
	"math"
	"sort"

	"github.com/runnerr0/roomscope/internal/timetable"
)

// RankThreshold splits the report's most- and least-available lists.
const RankThreshold = 50.0

// accumulator folds entries into per-day and per-slot tallies. All keys are
// registered before the fold so the output order is fixed up front.
type accumulator struct {
	days    timetable.Tallies
	dayIdx  map[string]int
	slots   timetable.Tallies
	slotIdx map[string]int
}

func newAccumulator(rooms []timetable.RoomSchedule) *accumulator {
	a := &accumulator{
		days:    timetable.Tallies{},
		dayIdx:  make(map[string]int),
		slots:   timetable.Tallies{},
		slotIdx: make(map[string]int),
	}
	for _, room := range rooms {
		for _, d := range room.Schedule {
			if _, ok := a.dayIdx[d.Name]; !ok {
				a.dayIdx[d.Name] = len(a.days)
				a.days = append(a.days, timetable.Tally{Key: d.Name})
			}
			for _, e := range d.Entries {
				if _, ok := a.slotIdx[e.TimeSlot]; !ok {
					a.slotIdx[e.TimeSlot] = len(a.slots)
					a.slots = append(a.slots, timetable.Tally{Key: e.TimeSlot})
				}
			}
		}
	}
	return a
}

func (a *accumulator) add(day string, e timetable.Entry) {
	d := &a.days[a.dayIdx[day]]
	s := &a.slots[a.slotIdx[e.TimeSlot]]
	d.Total++
	s.Total++
	if e.Occupied {
		d.Occupied++
		s.Occupied++
	}
}

func fold(rooms []timetable.RoomSchedule) *accumulator {
	a := newAccumulator(rooms)
	for _, room := range rooms {
		for _, d := range room.Schedule {
			for _, e := range d.Entries {
				a.add(d.Name, e)
			}
		}
	}
	return a
}

// Compute derives the availability report of s. It is rebuilt from scratch
// on every call.
func Compute(s *timetable.Snapshot) *timetable.Report {
	a := fold(s.Rooms)

	most := make([]timetable.RoomAvailability, 0)
	least := make([]timetable.RoomAvailability, 0)
	for _, room := range s.Rooms {
		total := room.TotalSlots()
		if total == 0 {
			continue
		}
		free := total - room.OccupiedSlots()
		pct := percent(free, total)
		ra := timetable.RoomAvailability{
			Room:                room.Room,
			AvailabilityPercent: round2(pct),
			FreeSlots:           free,
			TotalSlots:          total,
		}
		if pct >= RankThreshold {
			most = append(most, ra)
		} else {
			least = append(least, ra)
		}
	}
	sortByAvailability(most, true)
	sortByAvailability(least, false)

	return &timetable.Report{
		TotalRooms:     len(s.Rooms),
		ByDay:          a.days,
		ByTimeSlot:     a.slots,
		MostAvailable:  most,
		LeastAvailable: least,
	}
}

// sortByAvailability orders rooms by their reported percentage. Ties keep
// room-scan order.
func sortByAvailability(rs []timetable.RoomAvailability, desc bool) {
	sort.SliceStable(rs, func(i, j int) bool {
		if desc {
			return rs[i].AvailabilityPercent > rs[j].AvailabilityPercent
		}
		return rs[i].AvailabilityPercent < rs[j].AvailabilityPercent
	})
}

func percent(part, total int) float64 {
	return float64(part) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
