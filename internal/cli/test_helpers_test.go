package cli

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/roomscope/internal/analysis"
	"github.com/runnerr0/roomscope/internal/timetable"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

var sampleTime = time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)

// sampleEngine serves three rooms: 5306 at 75% free, LAB1 fully booked and
// EMPTY with no slots.
func sampleEngine() *analysis.Engine {
	occ := func(slot, content string) timetable.Entry {
		return timetable.Entry{TimeSlot: slot, Content: content, Occupied: true}
	}
	free := func(slot string) timetable.Entry {
		return timetable.Entry{TimeSlot: slot}
	}
	rooms := []timetable.RoomSchedule{
		{
			Room: timetable.NewRoomID("5306", ""),
			Schedule: timetable.DaySchedule{
				{Name: "Mon", Entries: []timetable.Entry{occ("T1", "CS101 Dr. A"), free("T2")}},
				{Name: "Tue", Entries: []timetable.Entry{free("T1"), free("T2")}},
			},
		},
		{
			Room: timetable.NewRoomID("LAB1", "Lab 1"),
			Schedule: timetable.DaySchedule{
				{Name: "Mon", Entries: []timetable.Entry{occ("T1", "PHY Lab Batch"), occ("T2", "PHY Lab Batch")}},
			},
		},
		{
			Room:     timetable.NewRoomID("EMPTY", ""),
			Schedule: timetable.DaySchedule{},
		},
	}
	meta := timetable.Metadata{Timestamp: sampleTime, UserID: "u-1", FinYear: "2025-26"}
	return analysis.New(timetable.Build(meta, rooms))
}
