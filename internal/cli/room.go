package cli

import (
	"fmt"

	"github.com/runnerr0/roomscope/internal/analysis"
)

type roomJSON struct {
	Query    string            `json:"query"`
	Found    bool              `json:"found"`
	Schedule []scheduleDayJSON `json:"schedule"`
}

// Execute implements the go-flags Commander interface for RoomCommand.
func (c *RoomCommand) Execute(args []string) error {
	eng, _, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEngine(eng)
}

// executeWithEngine prints one room's schedule. An unknown room is reported,
// not returned as an error.
func (c *RoomCommand) executeWithEngine(eng *analysis.Engine) error {
	sched, ok := eng.RoomSchedule(c.ID)

	out := roomJSON{Query: c.ID, Found: ok, Schedule: scheduleDays(sched)}
	if handled, err := writeStructured(c.globals, out); handled {
		return err
	}

	if !ok {
		fmt.Printf("Room %s not found in data\n", c.ID)
		return nil
	}

	fmt.Printf("Schedule for Room %s:\n", c.ID)
	for _, d := range sched {
		occupied := 0
		for _, e := range d.Entries {
			if e.Occupied {
				occupied++
			}
		}
		fmt.Printf("   %s: %d/%d slots occupied\n", d.Name, occupied, len(d.Entries))
		for _, e := range d.Entries {
			state := "free"
			if e.Occupied {
				state = e.Content
			}
			fmt.Printf("      %-12s %s\n", e.TimeSlot, state)
		}
	}
	return nil
}
