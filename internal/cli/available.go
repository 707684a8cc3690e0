package cli

import (
	"fmt"

	"github.com/runnerr0/roomscope/internal/analysis"
)

// Execute implements the go-flags Commander interface for AvailableCommand.
func (c *AvailableCommand) Execute(args []string) error {
	eng, cfg, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	threshold := cfg.Analysis.MinAvailability
	if c.Min != nil {
		threshold = *c.Min
	}
	return c.executeWithEngine(eng, threshold)
}

// executeWithEngine ranks the rooms of eng's snapshot (for testing).
func (c *AvailableCommand) executeWithEngine(eng *analysis.Engine, threshold float64) error {
	opts := []analysis.FilterOption{analysis.MinAvailability(threshold)}
	if c.Day != "" {
		opts = append(opts, analysis.OnDay(c.Day))
	}
	if c.Slot != "" {
		opts = append(opts, analysis.SlotContaining(c.Slot))
	}
	rooms := eng.FindAvailableRooms(opts...)

	if handled, err := writeStructured(c.globals, rankedRooms(rooms)); handled {
		return err
	}

	if len(rooms) == 0 {
		fmt.Printf("No rooms with at least %s%% availability.\n", formatPercent(threshold))
		return nil
	}
	fmt.Printf("Rooms with at least %s%% availability:\n", formatPercent(threshold))
	printRanked(rooms)
	return nil
}

// Execute implements the go-flags Commander interface for FreeCommand.
func (c *FreeCommand) Execute(args []string) error {
	eng, _, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEngine(eng)
}

// executeWithEngine lists free rooms in eng's snapshot (for testing).
func (c *FreeCommand) executeWithEngine(eng *analysis.Engine) error {
	free := eng.FindFreeAt(c.Day, c.Slot)

	if handled, err := writeStructured(c.globals, freeSlots(free)); handled {
		return err
	}

	if len(free) == 0 {
		fmt.Printf("No free rooms on %s at %s.\n", c.Day, c.Slot)
		return nil
	}
	fmt.Printf("Rooms free on %s at %s:\n", c.Day, c.Slot)
	for _, f := range free {
		fmt.Printf("   Room %s at %s\n", f.Room, f.TimeSlot)
	}
	return nil
}
