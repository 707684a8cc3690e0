package timetable

import (
	"strings"
	"time"
)

// Weekdays lists the canonical day tokens in calendar order.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var dayAliases = map[string]string{
	"mon": "Mon", "monday": "Mon",
	"tue": "Tue", "tues": "Tue", "tuesday": "Tue",
	"wed": "Wed", "wednesday": "Wed",
	"thu": "Thu", "thur": "Thu", "thurs": "Thu", "thursday": "Thu",
	"fri": "Fri", "friday": "Fri",
	"sat": "Sat", "saturday": "Sat",
	"sun": "Sun", "sunday": "Sun",
}

// CanonicalDay maps a day cell ("mon", "Monday", " TUE ") to its canonical
// token. It reports false for anything that is not a day.
func CanonicalDay(cell string) (string, bool) {
	day, ok := dayAliases[strings.ToLower(strings.TrimSpace(cell))]
	return day, ok
}

// RoomID identifies a room. Code is the canonical value used for lookups and
// persistence; Label is the optional display text shown by the room picker.
type RoomID struct {
	Code  string
	Label string
}

// NewRoomID resolves a room identifier once at ingestion. A bare label is
// promoted to the code, and a label equal to the code is dropped.
func NewRoomID(code, label string) RoomID {
	code = strings.TrimSpace(code)
	label = strings.TrimSpace(label)
	if code == "" {
		code = label
	}
	if label == code {
		label = ""
	}
	return RoomID{Code: code, Label: label}
}

// String returns the display form of the room.
func (r RoomID) String() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Code
}

// Matches reports whether s names this room, by exact code or label.
func (r RoomID) Matches(s string) bool {
	return s != "" && (s == r.Code || s == r.Label)
}

// Entry is one classified cell of the timetable grid.
type Entry struct {
	TimeSlot string
	Content  string
	Occupied bool
}

// Day is a single day row: its canonical token and entries in column order.
type Day struct {
	Name    string
	Entries []Entry
}

// DaySchedule is an ordered day -> entries mapping. Day names are unique.
type DaySchedule []Day

// Get returns the entries for a day.
func (s DaySchedule) Get(name string) ([]Entry, bool) {
	for _, d := range s {
		if d.Name == name {
			return d.Entries, true
		}
	}
	return nil, false
}

// Names returns the day names in order.
func (s DaySchedule) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// TotalSlots counts every entry across all days.
func (s DaySchedule) TotalSlots() int {
	n := 0
	for _, d := range s {
		n += len(d.Entries)
	}
	return n
}

// OccupiedSlots counts the occupied entries across all days.
func (s DaySchedule) OccupiedSlots() int {
	n := 0
	for _, d := range s {
		for _, e := range d.Entries {
			if e.Occupied {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy. The copy is never nil.
func (s DaySchedule) Clone() DaySchedule {
	out := make(DaySchedule, len(s))
	for i, d := range s {
		entries := make([]Entry, len(d.Entries))
		copy(entries, d.Entries)
		out[i] = Day{Name: d.Name, Entries: entries}
	}
	return out
}

// put sets a day's entries. A repeated day keeps its first position and
// takes the latest entries.
func (s DaySchedule) put(name string, entries []Entry) DaySchedule {
	for i := range s {
		if s[i].Name == name {
			s[i].Entries = entries
			return s
		}
	}
	return append(s, Day{Name: name, Entries: entries})
}

// RoomSchedule is the weekly timetable of one room for one semester.
type RoomSchedule struct {
	Room         RoomID
	Semester     string
	AcademicYear *string // nil when the page did not show one
	Schedule     DaySchedule
}

// TotalSlots counts every entry of the room.
func (r RoomSchedule) TotalSlots() int { return r.Schedule.TotalSlots() }

// OccupiedSlots counts the occupied entries of the room.
func (r RoomSchedule) OccupiedSlots() int { return r.Schedule.OccupiedSlots() }

func (r RoomSchedule) clone() RoomSchedule {
	r.Schedule = r.Schedule.Clone()
	if r.AcademicYear != nil {
		y := *r.AcademicYear
		r.AcademicYear = &y
	}
	return r
}

// Metadata describes the scrape pass a snapshot came from.
type Metadata struct {
	Timestamp time.Time
	UserID    string
	FinYear   string

	// TimestampLayout is the layout the timestamp was read with, so a
	// re-encoded snapshot keeps it. Empty means RFC 3339.
	TimestampLayout string
}

// Snapshot is one complete capture of all rooms' schedules. It is never
// mutated after Build; derive a new one instead.
type Snapshot struct {
	Metadata
	TotalRooms int
	Rooms      []RoomSchedule
	Analysis   *Report
}

// Tally is an occupancy count for one aggregation key (a day or a slot).
type Tally struct {
	Key      string
	Total    int
	Occupied int
}

// Free returns the number of unoccupied slots.
func (t Tally) Free() int { return t.Total - t.Occupied }

// Tallies is an ordered list of tallies with unique keys.
type Tallies []Tally

// Get returns the tally for key.
func (ts Tallies) Get(key string) (Tally, bool) {
	for _, t := range ts {
		if t.Key == key {
			return t, true
		}
	}
	return Tally{}, false
}

// RoomAvailability is one row of the availability ranking.
type RoomAvailability struct {
	Room                RoomID
	AvailabilityPercent float64
	FreeSlots           int
	TotalSlots          int
}

// Report is the availability analysis derived from a snapshot.
type Report struct {
	TotalRooms     int
	ByDay          Tallies
	ByTimeSlot     Tallies
	MostAvailable  []RoomAvailability
	LeastAvailable []RoomAvailability
}
