package timetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Snapshot file layout. Ordered objects (schedule, by_day, by_time_slot)
// travel as raw JSON so key order survives both directions.

type wireSnapshot struct {
	Timestamp  string      `json:"timestamp"`
	UserID     string      `json:"user_id"`
	FinYear    string      `json:"fin_year"`
	TotalRooms int         `json:"total_rooms"`
	Analysis   *wireReport `json:"analysis,omitempty"`
	Rooms      []wireRoom  `json:"rooms"`
}

type wireRoom struct {
	Room      string          `json:"room"`
	RoomLabel string          `json:"room_label,omitempty"`
	Semester  string          `json:"semester"`
	Year      *string         `json:"year"`
	Schedule  json.RawMessage `json:"schedule"`
}

type wireEntry struct {
	TimeSlot   string `json:"time_slot"`
	Content    string `json:"content"`
	IsOccupied bool   `json:"is_occupied"`
}

type wireTally struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

type wireRank struct {
	Room                   string     `json:"room"`
	AvailabilityPercentage percentage `json:"availability_percentage"`
	FreeSlots              int        `json:"free_slots"`
	TotalSlots             int        `json:"total_slots"`
}

// percentage is written as a float even when integral: 50 -> 50.0.
type percentage float64

func (p percentage) MarshalJSON() ([]byte, error) {
	return []byte(FormatDecimal(float64(p))), nil
}

// FormatDecimal formats v in its shortest form, always keeping a decimal
// part: 50 -> "50.0", 66.67 -> "66.67".
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type wireReport struct {
	TotalRooms     int             `json:"total_rooms"`
	ByDay          json.RawMessage `json:"by_day"`
	ByTimeSlot     json.RawMessage `json:"by_time_slot"`
	MostAvailable  []wireRank      `json:"most_available_rooms"`
	LeastAvailable []wireRank      `json:"least_available_rooms"`
}

// Decoding side: pointers tell a missing or null field from a zero value.

type snapshotIn struct {
	Timestamp  *string           `json:"timestamp"`
	UserID     *string           `json:"user_id"`
	FinYear    *string           `json:"fin_year"`
	TotalRooms *int              `json:"total_rooms"`
	Analysis   json.RawMessage   `json:"analysis"`
	Rooms      []json.RawMessage `json:"rooms"`
}

type roomIn struct {
	Room      *string         `json:"room"`
	RoomLabel *string         `json:"room_label"`
	Semester  *string         `json:"semester"`
	Year      *string         `json:"year"`
	Schedule  json.RawMessage `json:"schedule"`
}

type entryIn struct {
	TimeSlot   *string `json:"time_slot"`
	Content    *string `json:"content"`
	IsOccupied *bool   `json:"is_occupied"`
}

// Encode writes s as indented snapshot JSON.
func Encode(w io.Writer, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal returns the snapshot JSON of s, indented by two spaces with no
// trailing newline, the layout snapshot files have always had.
func Marshal(s *Snapshot) ([]byte, error) {
	wire, err := toWire(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Save writes s to path, creating parent directories.
func Save(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file. A missing or unreadable file yields a
// *NotFoundError, malformed content a *ParseError.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	return Decode(data)
}

// Decode parses snapshot JSON. Nothing is returned unless the whole
// document is valid.
func Decode(data []byte) (*Snapshot, error) {
	var in snapshotIn
	if err := unmarshalAt(data, "$", &in); err != nil {
		return nil, err
	}
	if in.Timestamp == nil {
		return nil, &ParseError{Path: "timestamp", Msg: "missing"}
	}
	ts, layout, err := parseTimestamp(*in.Timestamp)
	if err != nil {
		return nil, &ParseError{Path: "timestamp", Msg: err.Error()}
	}
	if in.Rooms == nil {
		return nil, &ParseError{Path: "rooms", Msg: "missing"}
	}

	s := &Snapshot{
		Metadata: Metadata{
			Timestamp:       ts,
			UserID:          deref(in.UserID),
			FinYear:         deref(in.FinYear),
			TimestampLayout: layout,
		},
		Rooms: make([]RoomSchedule, 0, len(in.Rooms)),
	}
	for i, raw := range in.Rooms {
		room, err := decodeRoom(raw, fmt.Sprintf("rooms[%d]", i))
		if err != nil {
			return nil, err
		}
		s.Rooms = append(s.Rooms, room)
	}

	s.TotalRooms = len(s.Rooms)
	if in.TotalRooms != nil && *in.TotalRooms != s.TotalRooms {
		return nil, &ParseError{
			Path: "total_rooms",
			Msg:  fmt.Sprintf("declares %d rooms, found %d", *in.TotalRooms, s.TotalRooms),
		}
	}

	if !isNull(in.Analysis) {
		report, err := decodeReport(in.Analysis, "analysis", s)
		if err != nil {
			return nil, err
		}
		s.Analysis = report
	}
	return s, nil
}

func decodeRoom(raw json.RawMessage, path string) (RoomSchedule, error) {
	var in roomIn
	if err := unmarshalAt(raw, path, &in); err != nil {
		return RoomSchedule{}, err
	}
	if in.Room == nil || *in.Room == "" {
		return RoomSchedule{}, &ParseError{Path: path + ".room", Msg: "missing"}
	}
	if isNull(in.Schedule) {
		return RoomSchedule{}, &ParseError{Path: path + ".schedule", Msg: "missing"}
	}

	room := RoomSchedule{
		Room:         RoomID{Code: *in.Room, Label: deref(in.RoomLabel)},
		Semester:     deref(in.Semester),
		AcademicYear: in.Year,
		Schedule:     DaySchedule{},
	}
	err := decodeObject(in.Schedule, path+".schedule", func(day string, val json.RawMessage, dayPath string) error {
		entries, err := decodeEntries(val, dayPath)
		if err != nil {
			return err
		}
		room.Schedule = append(room.Schedule, Day{Name: day, Entries: entries})
		return nil
	})
	if err != nil {
		return RoomSchedule{}, err
	}
	return room, nil
}

func decodeEntries(raw json.RawMessage, path string) ([]Entry, error) {
	if isNull(raw) {
		return nil, &ParseError{Path: path, Msg: "expected array, got null"}
	}
	var items []json.RawMessage
	if err := unmarshalAt(raw, path, &items); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		var in entryIn
		if err := unmarshalAt(item, itemPath, &in); err != nil {
			return nil, err
		}
		if in.TimeSlot == nil {
			return nil, &ParseError{Path: itemPath + ".time_slot", Msg: "missing"}
		}
		content := deref(in.Content)
		var occupied bool
		if in.IsOccupied != nil {
			occupied = *in.IsOccupied
		} else {
			_, occupied = DefaultClassifier.Classify(content)
		}
		entries = append(entries, Entry{TimeSlot: *in.TimeSlot, Content: content, Occupied: occupied})
	}
	return entries, nil
}

func decodeReport(raw json.RawMessage, path string, s *Snapshot) (*Report, error) {
	var in wireReport
	if err := unmarshalAt(raw, path, &in); err != nil {
		return nil, err
	}
	byDay, err := decodeTallies(in.ByDay, path+".by_day")
	if err != nil {
		return nil, err
	}
	bySlot, err := decodeTallies(in.ByTimeSlot, path+".by_time_slot")
	if err != nil {
		return nil, err
	}
	return &Report{
		TotalRooms:     in.TotalRooms,
		ByDay:          byDay,
		ByTimeSlot:     bySlot,
		MostAvailable:  fromWireRanks(in.MostAvailable, s),
		LeastAvailable: fromWireRanks(in.LeastAvailable, s),
	}, nil
}

func decodeTallies(raw json.RawMessage, path string) (Tallies, error) {
	out := Tallies{}
	if isNull(raw) {
		return out, nil
	}
	err := decodeObject(raw, path, func(key string, val json.RawMessage, keyPath string) error {
		var t wireTally
		if err := unmarshalAt(val, keyPath, &t); err != nil {
			return err
		}
		out = append(out, Tally{Key: key, Total: t.Total, Occupied: t.Occupied})
		return nil
	})
	return out, err
}

func fromWireRanks(ranks []wireRank, s *Snapshot) []RoomAvailability {
	out := make([]RoomAvailability, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, RoomAvailability{
			Room:                s.resolveRoom(r.Room),
			AvailabilityPercent: float64(r.AvailabilityPercentage),
			FreeSlots:           r.FreeSlots,
			TotalSlots:          r.TotalSlots,
		})
	}
	return out
}

func toWire(s *Snapshot) (*wireSnapshot, error) {
	layout := s.TimestampLayout
	if layout == "" {
		layout = time.RFC3339Nano
	}
	w := &wireSnapshot{
		Timestamp:  s.Timestamp.Format(layout),
		UserID:     s.UserID,
		FinYear:    s.FinYear,
		TotalRooms: len(s.Rooms),
		Rooms:      make([]wireRoom, 0, len(s.Rooms)),
	}
	for _, r := range s.Rooms {
		days := make(orderedObject, 0, len(r.Schedule))
		for _, d := range r.Schedule {
			entries := make([]wireEntry, 0, len(d.Entries))
			for _, e := range d.Entries {
				entries = append(entries, wireEntry{TimeSlot: e.TimeSlot, Content: e.Content, IsOccupied: e.Occupied})
			}
			days = append(days, member{Key: d.Name, Value: entries})
		}
		sched, err := days.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode schedule of room %s: %w", r.Room, err)
		}
		w.Rooms = append(w.Rooms, wireRoom{
			Room:      r.Room.Code,
			RoomLabel: r.Room.Label,
			Semester:  r.Semester,
			Year:      r.AcademicYear,
			Schedule:  sched,
		})
	}

	if s.Analysis != nil {
		rep, err := reportToWire(s.Analysis)
		if err != nil {
			return nil, err
		}
		w.Analysis = rep
	}
	return w, nil
}

func reportToWire(r *Report) (*wireReport, error) {
	byDay, err := talliesToJSON(r.ByDay)
	if err != nil {
		return nil, fmt.Errorf("encode by_day: %w", err)
	}
	bySlot, err := talliesToJSON(r.ByTimeSlot)
	if err != nil {
		return nil, fmt.Errorf("encode by_time_slot: %w", err)
	}
	return &wireReport{
		TotalRooms:     r.TotalRooms,
		ByDay:          byDay,
		ByTimeSlot:     bySlot,
		MostAvailable:  toWireRanks(r.MostAvailable),
		LeastAvailable: toWireRanks(r.LeastAvailable),
	}, nil
}

func talliesToJSON(ts Tallies) (json.RawMessage, error) {
	obj := make(orderedObject, 0, len(ts))
	for _, t := range ts {
		obj = append(obj, member{Key: t.Key, Value: wireTally{Total: t.Total, Occupied: t.Occupied}})
	}
	return obj.MarshalJSON()
}

func toWireRanks(rs []RoomAvailability) []wireRank {
	out := make([]wireRank, 0, len(rs))
	for _, r := range rs {
		out = append(out, wireRank{
			Room:                   r.Room.Code,
			AvailabilityPercentage: percentage(r.AvailabilityPercent),
			FreeSlots:              r.FreeSlots,
			TotalSlots:             r.TotalSlots,
		})
	}
	return out
}

const isoSeconds = "2006-01-02T15:04:05"

// parseTimestamp reads an ISO 8601 timestamp with or without fraction and
// zone. The returned layout reproduces s exactly; it is empty when RFC 3339
// already does.
func parseTimestamp(s string) (time.Time, string, error) {
	layout, ok := timestampLayout(s)
	if !ok {
		return time.Time{}, "", fmt.Errorf("cannot parse timestamp %q", s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("cannot parse timestamp %q", s)
	}
	if t.Format(time.RFC3339Nano) == s {
		layout = ""
	}
	return t, layout, nil
}

// timestampLayout derives the layout of s: the fraction keeps its digit
// count and the zone its spelling ("Z", "+05:30" or none).
func timestampLayout(s string) (string, bool) {
	if len(s) < len(isoSeconds) {
		return "", false
	}
	layout := isoSeconds
	rest := s[len(isoSeconds):]
	if strings.HasPrefix(rest, ".") {
		n := 1
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		digits := n - 1
		if digits == 0 || digits > 9 {
			return "", false
		}
		layout += "." + strings.Repeat("0", digits)
		rest = rest[n:]
	}
	switch {
	case rest == "":
	case rest == "Z":
		layout += "Z07:00"
	case len(rest) == 6 && (rest[0] == '+' || rest[0] == '-'):
		layout += "-07:00"
	default:
		return "", false
	}
	return layout, true
}

// unmarshalAt decodes raw into v and reports failures as a *ParseError
// rooted at path.
func unmarshalAt(raw []byte, path string, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		p := path
		if typeErr.Field != "" {
			p = joinPath(path, typeErr.Field)
		}
		return &ParseError{Path: p, Msg: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
	case errors.As(err, &syntaxErr):
		return &ParseError{Path: path, Msg: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr)}
	default:
		return &ParseError{Path: path, Msg: err.Error()}
	}
}

func joinPath(path, field string) string {
	if path == "$" {
		return field
	}
	return path + "." + field
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
