package cli

import (
	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/timetable"
)

// JSON/Toon shapes of query results. Rooms are flattened to their code,
// with the display label alongside when there is one.

type rankedRoomJSON struct {
	Room         string  `json:"room"`
	RoomLabel    string  `json:"room_label,omitempty"`
	Availability float64 `json:"availability"`
	FreeSlots    int     `json:"free_slots"`
	TotalSlots   int     `json:"total_slots"`
}

func rankedRooms(rs []timetable.RoomAvailability) []rankedRoomJSON {
	out := make([]rankedRoomJSON, len(rs))
	for i, r := range rs {
		out[i] = rankedRoomJSON{
			Room:         r.Room.Code,
			RoomLabel:    r.Room.Label,
			Availability: r.AvailabilityPercent,
			FreeSlots:    r.FreeSlots,
			TotalSlots:   r.TotalSlots,
		}
	}
	return out
}

type freeSlotJSON struct {
	Room      string `json:"room"`
	RoomLabel string `json:"room_label,omitempty"`
	TimeSlot  string `json:"time_slot"`
}

func freeSlots(fs []analysis.FreeSlot) []freeSlotJSON {
	out := make([]freeSlotJSON, len(fs))
	for i, f := range fs {
		out[i] = freeSlotJSON{Room: f.Room.Code, RoomLabel: f.Room.Label, TimeSlot: f.TimeSlot}
	}
	return out
}

type peakJSON struct {
	TimeSlot        string  `json:"time_slot"`
	UsagePercentage float64 `json:"usage_percentage"`
	RoomsOccupied   int     `json:"rooms_occupied"`
	TotalRooms      int     `json:"total_rooms"`
}

func peaks(us []analysis.Usage) []peakJSON {
	out := make([]peakJSON, len(us))
	for i, u := range us {
		out[i] = peakJSON{TimeSlot: u.Key, UsagePercentage: u.UsagePercent, RoomsOccupied: u.OccupiedCount, TotalRooms: u.TotalCount}
	}
	return out
}

type dayJSON struct {
	Day             string  `json:"day"`
	UsagePercentage float64 `json:"usage_percentage"`
	SlotsOccupied   int     `json:"slots_occupied"`
	TotalSlots      int     `json:"total_slots"`
}

func dayUsages(us []analysis.Usage) []dayJSON {
	out := make([]dayJSON, len(us))
	for i, u := range us {
		out[i] = dayJSON{Day: u.Key, UsagePercentage: u.UsagePercent, SlotsOccupied: u.OccupiedCount, TotalSlots: u.TotalCount}
	}
	return out
}

type entryJSON struct {
	TimeSlot   string `json:"time_slot"`
	Content    string `json:"content"`
	IsOccupied bool   `json:"is_occupied"`
}

type scheduleDayJSON struct {
	Day     string      `json:"day"`
	Entries []entryJSON `json:"entries"`
}

func scheduleDays(s timetable.DaySchedule) []scheduleDayJSON {
	out := make([]scheduleDayJSON, len(s))
	for i, d := range s {
		entries := make([]entryJSON, len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = entryJSON{TimeSlot: e.TimeSlot, Content: e.Content, IsOccupied: e.Occupied}
		}
		out[i] = scheduleDayJSON{Day: d.Name, Entries: entries}
	}
	return out
}
