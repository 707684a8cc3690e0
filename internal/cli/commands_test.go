package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/roomscope/internal/config"
	"github.com/runnerr0/roomscope/internal/storage"
	"github.com/runnerr0/roomscope/internal/timetable"
)

func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.NewMigrationRunner(db).Run())

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- summary ---

func TestSummary_Human(t *testing.T) {
	cmd := &SummaryCommand{globals: &GlobalFlags{}}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithEngine(sampleEngine(), 10, 5)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "ROOM TIMETABLE ANALYSIS")
	assert.Contains(t, output, "Total rooms analyzed: 3")
	assert.Contains(t, output, "Data timestamp: 2025-09-01T10:30:00Z")
	assert.Contains(t, output, "Room 5306: 75.0% available (3/4 slots free)")
	assert.Contains(t, output, "Room Lab 1: 0.0% available (0/2 slots free)")
	assert.Contains(t, output, "T1: 66.67% occupied (2/3 rooms)")
	assert.Contains(t, output, "Tue: 0.0% occupied (0/2 slots)")
	assert.NotContains(t, output, "EMPTY")

	most := strings.Index(output, "Most Available")
	least := strings.Index(output, "Least Available")
	require.True(t, most >= 0 && least > most)
	leastBlock := output[least:]
	assert.Less(t, strings.Index(leastBlock, "Lab 1"), strings.Index(leastBlock, "5306"),
		"least available lists ascending")
}

func TestSummary_JSON(t *testing.T) {
	cmd := &SummaryCommand{globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine(), 1, 1))
	})

	var got summaryJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, 3, got.TotalRooms)
	require.Len(t, got.MostAvailable, 1)
	assert.Equal(t, "5306", got.MostAvailable[0].Room)
	assert.Equal(t, 75.0, got.MostAvailable[0].Availability)
	require.Len(t, got.LeastAvailable, 1)
	assert.Equal(t, "LAB1", got.LeastAvailable[0].Room)
	assert.Equal(t, "Lab 1", got.LeastAvailable[0].RoomLabel)
	require.Len(t, got.PeakHours, 1)
	assert.Equal(t, "T1", got.PeakHours[0].TimeSlot)
	assert.Equal(t, 66.67, got.PeakHours[0].UsagePercentage)
	require.Len(t, got.ByDay, 2)
	assert.Equal(t, "Mon", got.ByDay[0].Day)
	assert.Equal(t, 75.0, got.ByDay[0].UsagePercentage)
}

func TestSummary_Toon(t *testing.T) {
	cmd := &SummaryCommand{globals: &GlobalFlags{Toon: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine(), 10, 5))
	})

	assert.NotEmpty(t, strings.TrimSpace(output))
	assert.Contains(t, output, "5306")
	assert.NotContains(t, output, "ROOM TIMETABLE ANALYSIS")
}

// --- available / free ---

func TestAvailable_DefaultThreshold(t *testing.T) {
	cmd := &AvailableCommand{globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine(), 50))
	})

	var got []rankedRoomJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "5306", got[0].Room)
}

func TestAvailable_DayFilter(t *testing.T) {
	cmd := &AvailableCommand{Day: "Tue", globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine(), 100))
	})

	var got []rankedRoomJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "5306", got[0].Room)
	assert.Equal(t, 2, got[0].TotalSlots)
}

func TestAvailable_NoneHuman(t *testing.T) {
	cmd := &AvailableCommand{Slot: "T9", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine(), 0))
	})
	assert.Contains(t, output, "No rooms with at least 0.0% availability.")
}

func TestFree_ListsFreeSlots(t *testing.T) {
	cmd := &FreeCommand{Day: "Mon", Slot: "T", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})
	assert.Contains(t, output, "Room 5306 at T2")
	assert.NotContains(t, output, "Lab 1")
}

func TestFree_UnknownDay(t *testing.T) {
	cmd := &FreeCommand{Day: "Sun", Slot: "T1", globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})
	assert.Equal(t, "[]", strings.TrimSpace(output))
}

// --- room ---

func TestRoom_FoundByLabel(t *testing.T) {
	cmd := &RoomCommand{ID: "Lab 1", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})
	assert.Contains(t, output, "Schedule for Room Lab 1:")
	assert.Contains(t, output, "Mon: 2/2 slots occupied")
	assert.Contains(t, output, "PHY Lab Batch")
}

func TestRoom_NotFoundIsNotAnError(t *testing.T) {
	cmd := &RoomCommand{ID: "9999", globals: &GlobalFlags{}}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithEngine(sampleEngine())
	})
	assert.NoError(t, err)
	assert.Contains(t, output, "Room 9999 not found in data")
}

func TestRoom_JSON(t *testing.T) {
	cmd := &RoomCommand{ID: "5306", globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})

	var got roomJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.True(t, got.Found)
	require.Len(t, got.Schedule, 2)
	assert.Equal(t, "Mon", got.Schedule[0].Day)
	assert.Equal(t, entryJSON{TimeSlot: "T1", Content: "CS101 Dr. A", IsOccupied: true}, got.Schedule[0].Entries[0])
}

// --- peak / days ---

func TestPeak_Limit(t *testing.T) {
	cmd := &PeakCommand{Limit: 1, globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})

	var got []peakJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got, 1)
	assert.Equal(t, peakJSON{TimeSlot: "T1", UsagePercentage: 66.67, RoomsOccupied: 2, TotalRooms: 3}, got[0])
}

func TestDays_Human(t *testing.T) {
	cmd := &DaysCommand{globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEngine(sampleEngine()))
	})
	assert.Contains(t, output, "Mon: 75.0% occupied (3/4 slots)")
	assert.Less(t, strings.Index(output, "Mon:"), strings.Index(output, "Tue:"))
}

// --- ingest ---

func writeBatch(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngest_BuildsSnapshot(t *testing.T) {
	dir := t.TempDir()
	in := writeBatch(t, dir, "pass1.json", `{
  "user_id": "u-9",
  "fin_year": "2025-26",
  "semester": "ODD",
  "rooms": [
    {"code": "5306", "label": "5306", "year": null,
     "rows": [["Day", "T1", "T2"], ["Mon", "CS101 Dr. A", "-"], ["Tue", "", ""]]},
    {"code": "9001", "rows": [["nothing here"]]}
  ]
}`)
	out := filepath.Join(dir, "out", "snapshot.json")

	cfg := config.DefaultConfig()
	cmd := &IngestCommand{Input: []string{in}, globals: &GlobalFlags{}}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWith(cfg, discardLogger(), out, sampleTime)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Total rooms checked: 2")
	assert.Contains(t, output, "Rooms with data: 1")
	assert.Contains(t, output, "Room 5306: 75.0% available")

	snap, err := timetable.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalRooms)
	assert.Equal(t, "u-9", snap.UserID)
	assert.True(t, sampleTime.Equal(snap.Timestamp))
	assert.Equal(t, "ODD", snap.Rooms[0].Semester)
	require.NotNil(t, snap.Analysis)
	require.Len(t, snap.Analysis.MostAvailable, 1)
	assert.Equal(t, 75.0, snap.Analysis.MostAvailable[0].AvailabilityPercent)
}

func TestIngest_MergesPasses(t *testing.T) {
	dir := t.TempDir()
	first := writeBatch(t, dir, "pass1.json", `{"rooms": [
    {"code": "A", "rows": [["", "T1"], ["Mon", "Maths lecture"]]},
    {"code": "B", "rows": [["", "T1"], ["Mon", ""]]}
  ]}`)
	second := writeBatch(t, dir, "pass2.json", `{"rooms": [
    {"code": "C", "rows": [["", "T1"], ["Mon", ""]]},
    {"code": "A", "rows": [["", "T1"], ["Mon", ""]]}
  ]}`)
	out := filepath.Join(dir, "snapshot.json")

	cmd := &IngestCommand{Input: []string{first, second}, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(config.DefaultConfig(), discardLogger(), out, sampleTime))
	})

	var got ingestJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, 4, got.RoomsChecked)
	assert.Equal(t, 3, got.RoomsWithData)
	assert.Empty(t, got.Skipped)

	snap, err := timetable.Load(out)
	require.NoError(t, err)
	require.Len(t, snap.Rooms, 3)
	assert.Equal(t, "A", snap.Rooms[0].Room.Code)
	assert.Equal(t, "B", snap.Rooms[1].Room.Code)
	assert.Equal(t, "C", snap.Rooms[2].Room.Code)
	assert.Equal(t, 0, snap.Rooms[0].OccupiedSlots(), "later pass replaces room A")
}

func TestIngest_ReportsSkips(t *testing.T) {
	dir := t.TempDir()
	in := writeBatch(t, dir, "pass.json", `{"rooms": [
    {"code": "X", "rows": [["Day", "T1"], ["Holiday"]]},
    {"code": "Y", "rows": [["Day", "T1"], ["Mon", "Chemistry"]]}
  ]}`)

	cmd := &IngestCommand{Input: []string{in}, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(config.DefaultConfig(), discardLogger(), filepath.Join(dir, "s.json"), sampleTime))
	})

	var got ingestJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "X", got.Skipped[0].Room)
	assert.Contains(t, got.Skipped[0].Reason, "no")
}

func TestIngest_MissingBatch(t *testing.T) {
	cmd := &IngestCommand{Input: []string{filepath.Join(t.TempDir(), "missing.json")}, globals: &GlobalFlags{}}

	err := cmd.executeWith(config.DefaultConfig(), discardLogger(), filepath.Join(t.TempDir(), "s.json"), sampleTime)
	var nf *timetable.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// --- export ---

func TestExport_WritesCSVAndRecordsRun(t *testing.T) {
	dir := t.TempDir()
	store := openTestStore(t)
	cmd := &ExportCommand{Dir: dir, globals: &GlobalFlags{JSON: true}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(sampleEngine(), config.DefaultConfig(), store))
	})

	var got exportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, filepath.Join(dir, "room_analysis.csv"), got.TableFile)
	assert.Equal(t, 6, got.Rows)
	assert.Equal(t, 2, got.Rooms)
	require.NotEmpty(t, got.RunID)

	table, err := os.ReadFile(got.TableFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(table)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Room,Day,Time Slot,Occupied,Content", lines[0])
	assert.Equal(t, "5306,Mon,T1,True,CS101 Dr. A", lines[1])

	summary, err := os.ReadFile(got.SummaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "5306,4,1,3,75.0")

	ctx := context.Background()
	run, err := store.GetRun(ctx, got.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.TotalRooms)
	assert.Equal(t, 6, run.SlotCount)
	assert.Equal(t, "u-1", run.UserID)

	rows, err := store.RunSummary(ctx, got.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5306", rows[0].Room)
	assert.Equal(t, "LAB1", rows[1].Room)
}

func TestExport_WithoutStore(t *testing.T) {
	dir := t.TempDir()
	cmd := &ExportCommand{Dir: dir, Table: "t.csv", Summary: "s.csv", globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWith(sampleEngine(), config.DefaultConfig(), nil))
	})
	assert.Contains(t, output, "Exported to "+filepath.Join(dir, "t.csv"))
	assert.NotContains(t, output, "Recorded export run")

	_, err := os.Stat(filepath.Join(dir, "s.csv"))
	assert.NoError(t, err)
}

// --- runs ---

func seedRuns(t *testing.T, store *storage.SQLiteStore, now time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, &storage.Run{ID: "old", ExportedAt: now.Add(-30 * 24 * time.Hour)}, nil, nil))
	require.NoError(t, store.SaveRun(ctx, &storage.Run{ID: "new", ExportedAt: now.Add(-time.Hour), TotalRooms: 3}, nil, nil))
}

func TestRuns_List(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seedRuns(t, store, now)

	cmd := &RunsCommand{Limit: 20, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, now))
	})

	var got runsJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got.Runs, 2)
	assert.Equal(t, "new", got.Runs[0].ID)
	assert.Equal(t, int64(0), got.Pruned)
}

func TestRuns_Prune(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seedRuns(t, store, now)

	cmd := &RunsCommand{Limit: 20, OlderThan: "7d", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, now))
	})
	assert.Contains(t, output, "Pruned 1 runs older than 7 days")
	assert.Contains(t, output, "new")
	assert.NotContains(t, output, "old  ")
}

func TestRuns_Delete(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seedRuns(t, store, now)

	cmd := &RunsCommand{Delete: "new", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, now))
	})

	var got runsJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "new", got.Deleted)
	require.Len(t, got.Runs, 1)
	assert.Equal(t, "old", got.Runs[0].ID)
}

func TestRuns_DeleteUnknown(t *testing.T) {
	store := openTestStore(t)
	cmd := &RunsCommand{Delete: "ghost", globals: &GlobalFlags{}}

	err := cmd.executeWithStore(store, time.Now())
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestRuns_BadDuration(t *testing.T) {
	store := openTestStore(t)
	cmd := &RunsCommand{OlderThan: "soon", globals: &GlobalFlags{}}

	assert.Error(t, cmd.executeWithStore(store, time.Now()))
}

func TestRuns_Empty(t *testing.T) {
	store := openTestStore(t)
	cmd := &RunsCommand{globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, time.Now()))
	})
	assert.Contains(t, output, "No export runs recorded.")
}

func seedRunWithRows(t *testing.T, store *storage.SQLiteStore, now time.Time) {
	t.Helper()
	run := &storage.Run{ID: "full", SnapshotTS: sampleTime, UserID: "u-1", FinYear: "2025-26", TotalRooms: 2, ExportedAt: now}
	slots := []storage.SlotRow{
		{Room: "5306", Day: "Mon", TimeSlot: "T1", Occupied: true, Content: "CS101 Lecture"},
		{Room: "5306", Day: "Mon", TimeSlot: "T2"},
		{Room: "LAB1", Day: "Mon", TimeSlot: "T1"},
	}
	summary := []storage.AvailabilityRow{
		{Room: "LAB1", TotalSlots: 1, FreeSlots: 1, AvailabilityPct: 100},
		{Room: "5306", TotalSlots: 2, OccupiedSlots: 1, FreeSlots: 1, AvailabilityPct: 50},
	}
	require.NoError(t, store.SaveRun(context.Background(), run, slots, summary))
}

func TestRuns_ShowJSON(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seedRunWithRows(t, store, now)

	cmd := &RunsCommand{Show: "full", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, now))
	})

	var got runDetailJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "full", got.Run.ID)
	assert.Equal(t, 3, got.Run.SlotCount)
	require.Len(t, got.Summary, 2)
	assert.Equal(t, "LAB1", got.Summary[0].Room)
	assert.Equal(t, 50.0, got.Summary[1].Availability)
	require.Len(t, got.Slots, 3)
	assert.Equal(t, slotRowJSON{Room: "5306", Day: "Mon", TimeSlot: "T1", Occupied: true, Content: "CS101 Lecture"}, got.Slots[0])
	assert.Equal(t, "LAB1", got.Slots[2].Room)
}

func TestRuns_ShowHuman(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seedRunWithRows(t, store, now)

	cmd := &RunsCommand{Show: "full", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, now))
	})

	assert.Contains(t, output, "Run full")
	assert.Contains(t, output, "Rooms: 2  Slots: 3")
	assert.Contains(t, output, "Room LAB1: 100.0% available (1/1 free)")
	assert.Contains(t, output, "Room 5306: 50.0% available (1/2 free)")
	assert.Contains(t, output, "5306  Mon  T1  occupied  CS101 Lecture")
	assert.NotContains(t, output, "Export Runs")
}

func TestRuns_ShowUnknown(t *testing.T) {
	store := openTestStore(t)
	cmd := &RunsCommand{Show: "ghost", globals: &GlobalFlags{}}

	err := cmd.executeWithStore(store, time.Now())
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

// --- helpers ---

func TestHead(t *testing.T) {
	s := []int{1, 2, 3}
	assert.Equal(t, []int{1, 2}, head(s, 2))
	assert.Equal(t, s, head(s, 5))
	assert.Empty(t, head(s, 0))
	assert.Equal(t, s, head(s, -1), "negative n keeps everything")
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30d": 30 * 24 * time.Hour,
		"24h": 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"15m": 15 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "d", "7x", "-3d", "abc"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "50.0", formatPercent(50))
	assert.Equal(t, "66.67", formatPercent(66.67))
	assert.Equal(t, "0.0", formatPercent(0))
}

func TestSnapshotPathPrefersFlag(t *testing.T) {
	cfg := config.DefaultConfig()

	got, err := snapshotPath(cfg, &GlobalFlags{Snapshot: "/data/s.json"})
	require.NoError(t, err)
	assert.Equal(t, "/data/s.json", got)

	cfg.Snapshot.Path = "/etc/rooms.json"
	got, err = snapshotPath(cfg, &GlobalFlags{})
	require.NoError(t, err)
	assert.Equal(t, "/etc/rooms.json", got)
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  top_n: 3\n"), 0644))

	cfg, err := loadConfig(&GlobalFlags{Config: path})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Analysis.TopN)
}
