package timetable

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is returned when none of a room's rows carries slot labels.
	ErrNoHeader = errors.New("no time-slot header row")
	// ErrNoData is returned when a room's table has no day with entries.
	ErrNoData = errors.New("no schedule data")
)

// NotFoundError reports a missing or unreadable input file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError reports malformed JSON input. Path names the offending field,
// e.g. "rooms[2].schedule.Mon[0].time_slot"; "$" is the document root.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}
