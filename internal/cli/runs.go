package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/roomscope/internal/config"
	"github.com/runnerr0/roomscope/internal/storage"
)

type runJSON struct {
	ID         string `json:"id"`
	SnapshotTS string `json:"snapshot_ts"`
	UserID     string `json:"user_id"`
	FinYear    string `json:"fin_year"`
	TotalRooms int    `json:"total_rooms"`
	SlotCount  int    `json:"slot_count"`
	ExportedAt string `json:"exported_at"`
}

type runsJSON struct {
	Deleted string    `json:"deleted,omitempty"`
	Pruned  int64     `json:"pruned"`
	Runs    []runJSON `json:"runs"`
}

type slotRowJSON struct {
	Room     string `json:"room"`
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
	Occupied bool   `json:"is_occupied"`
	Content  string `json:"content"`
}

type availabilityRowJSON struct {
	Room          string  `json:"room"`
	TotalSlots    int     `json:"total_slots"`
	OccupiedSlots int     `json:"occupied_slots"`
	FreeSlots     int     `json:"free_slots"`
	Availability  float64 `json:"availability_percentage"`
}

type runDetailJSON struct {
	Run     runJSON               `json:"run"`
	Summary []availabilityRowJSON `json:"summary"`
	Slots   []slotRowJSON         `json:"slots"`
}

func toRunJSON(r storage.Run) runJSON {
	return runJSON{
		ID:         r.ID,
		SnapshotTS: r.SnapshotTS.UTC().Format(time.RFC3339),
		UserID:     r.UserID,
		FinYear:    r.FinYear,
		TotalRooms: r.TotalRooms,
		SlotCount:  r.SlotCount,
		ExportedAt: r.ExportedAt.UTC().Format(time.RFC3339),
	}
}

// Execute implements the go-flags Commander interface for RunsCommand.
func (c *RunsCommand) Execute(args []string) error {
	dbPath := c.DB
	if dbPath == "" {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		if dbPath, err = defaultDBPath(cfg); err != nil {
			return err
		}
	}
	dbPath, err := config.ExpandPath(dbPath)
	if err != nil {
		return err
	}

	store, db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, time.Now())
}

// executeWithStore applies --delete and --prune-older-than, then shows the
// --show run or lists the remaining runs (for testing).
func (c *RunsCommand) executeWithStore(store storage.Store, now time.Time) error {
	ctx := context.Background()
	out := runsJSON{Deleted: c.Delete}

	if c.Delete != "" {
		if err := store.DeleteRun(ctx, c.Delete); err != nil {
			return err
		}
	}

	var age time.Duration
	if c.OlderThan != "" {
		var err error
		age, err = parseDuration(c.OlderThan)
		if err != nil {
			return err
		}
		out.Pruned, err = store.PruneRuns(ctx, now.Add(-age))
		if err != nil {
			return err
		}
	}

	if c.Show != "" {
		return c.show(ctx, store)
	}

	runs, err := store.ListRuns(ctx, c.Limit)
	if err != nil {
		return err
	}
	out.Runs = make([]runJSON, len(runs))
	for i, r := range runs {
		out.Runs[i] = toRunJSON(r)
	}

	if handled, err := writeStructured(c.globals, out); handled {
		return err
	}

	if c.Delete != "" {
		fmt.Printf("Deleted run %s\n", c.Delete)
	}
	if c.OlderThan != "" {
		fmt.Printf("Pruned %d runs older than %s\n", out.Pruned, formatDurationHuman(age))
	}
	if len(runs) == 0 {
		fmt.Println("No export runs recorded.")
		return nil
	}
	fmt.Println("Export Runs")
	fmt.Println("===========")
	for _, r := range runs {
		fmt.Printf("%s  %s  rooms=%d slots=%d  snapshot=%s\n",
			r.ID, r.ExportedAt.Local().Format("2006-01-02 15:04"), r.TotalRooms, r.SlotCount,
			r.SnapshotTS.UTC().Format(time.RFC3339))
	}
	return nil
}

// show prints one recorded export: its run record, the ranked availability
// rows and the slot rows in export order.
func (c *RunsCommand) show(ctx context.Context, store storage.Store) error {
	run, err := store.GetRun(ctx, c.Show)
	if err != nil {
		return err
	}
	summary, err := store.RunSummary(ctx, run.ID)
	if err != nil {
		return err
	}
	slots, err := store.RunSlots(ctx, run.ID)
	if err != nil {
		return err
	}

	out := runDetailJSON{
		Run:     toRunJSON(*run),
		Summary: make([]availabilityRowJSON, len(summary)),
		Slots:   make([]slotRowJSON, len(slots)),
	}
	for i, r := range summary {
		out.Summary[i] = availabilityRowJSON{
			Room:          r.Room,
			TotalSlots:    r.TotalSlots,
			OccupiedSlots: r.OccupiedSlots,
			FreeSlots:     r.FreeSlots,
			Availability:  r.AvailabilityPct,
		}
	}
	for i, r := range slots {
		out.Slots[i] = slotRowJSON{Room: r.Room, Day: r.Day, TimeSlot: r.TimeSlot, Occupied: r.Occupied, Content: r.Content}
	}

	if handled, err := writeStructured(c.globals, out); handled {
		return err
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Exported:  %s\n", run.ExportedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  Snapshot:  %s (user %s, %s)\n", run.SnapshotTS.UTC().Format(time.RFC3339), run.UserID, run.FinYear)
	fmt.Printf("  Rooms: %d  Slots: %d\n", run.TotalRooms, run.SlotCount)

	fmt.Println("\nAvailability")
	for _, r := range summary {
		fmt.Printf("  Room %s: %s%% available (%d/%d free)\n",
			r.Room, formatPercent(r.AvailabilityPct), r.FreeSlots, r.TotalSlots)
	}

	fmt.Println("\nSlots")
	for _, r := range slots {
		state := "free"
		if r.Occupied {
			state = "occupied"
		}
		fmt.Printf("  %s  %s  %s  %s  %s\n", r.Room, r.Day, r.TimeSlot, state, r.Content)
	}
	return nil
}
