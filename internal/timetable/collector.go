package timetable

import (
	"encoding/json"
	"fmt"
	"os"
)

// CollectorBatch is the closed set of rooms produced by one scrape pass.
type CollectorBatch struct {
	UserID   string
	FinYear  string
	Semester string
	Rooms    []RawRoom
}

type batchIn struct {
	UserID   *string           `json:"user_id"`
	FinYear  *string           `json:"fin_year"`
	Semester *string           `json:"semester"`
	Rooms    []json.RawMessage `json:"rooms"`
}

type rawRoomIn struct {
	Code     *string    `json:"code"`
	Label    *string    `json:"label"`
	Semester *string    `json:"semester"`
	Year     *string    `json:"year"`
	Rows     [][]string `json:"rows"`
}

// LoadBatch reads a collector batch file.
func LoadBatch(path string) (*CollectorBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	return DecodeBatch(data)
}

// DecodeBatch parses a collector batch. Room identifiers are resolved here,
// once; a room-level semester overrides the batch one.
func DecodeBatch(data []byte) (*CollectorBatch, error) {
	var in batchIn
	if err := unmarshalAt(data, "$", &in); err != nil {
		return nil, err
	}
	if in.Rooms == nil {
		return nil, &ParseError{Path: "rooms", Msg: "missing"}
	}

	b := &CollectorBatch{
		UserID:   deref(in.UserID),
		FinYear:  deref(in.FinYear),
		Semester: deref(in.Semester),
		Rooms:    make([]RawRoom, 0, len(in.Rooms)),
	}
	for i, raw := range in.Rooms {
		path := fmt.Sprintf("rooms[%d]", i)
		var r rawRoomIn
		if err := unmarshalAt(raw, path, &r); err != nil {
			return nil, err
		}
		id := NewRoomID(deref(r.Code), deref(r.Label))
		if id.Code == "" {
			return nil, &ParseError{Path: path + ".code", Msg: "missing"}
		}
		semester := deref(r.Semester)
		if semester == "" {
			semester = b.Semester
		}
		b.Rooms = append(b.Rooms, RawRoom{
			Room:     id,
			Semester: semester,
			Year:     r.Year,
			Rows:     r.Rows,
		})
	}
	return b, nil
}
