package cli

import (
	"fmt"

	"github.com/runnerr0/roomscope/internal/analysis"
)

// Execute implements the go-flags Commander interface for PeakCommand.
func (c *PeakCommand) Execute(args []string) error {
	eng, _, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEngine(eng)
}

// executeWithEngine ranks slot usage in eng's snapshot (for testing).
func (c *PeakCommand) executeWithEngine(eng *analysis.Engine) error {
	usage := eng.PeakHours()
	if c.Limit > 0 && len(usage) > c.Limit {
		usage = usage[:c.Limit]
	}

	if handled, err := writeStructured(c.globals, peaks(usage)); handled {
		return err
	}

	fmt.Println("Peak Usage Hours:")
	for _, u := range usage {
		fmt.Printf("   %s: %s%% occupied (%d/%d rooms)\n", u.Key, formatPercent(u.UsagePercent), u.OccupiedCount, u.TotalCount)
	}
	return nil
}

// Execute implements the go-flags Commander interface for DaysCommand.
func (c *DaysCommand) Execute(args []string) error {
	eng, _, err := loadEngine(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEngine(eng)
}

// executeWithEngine reports per-day usage in eng's snapshot (for testing).
func (c *DaysCommand) executeWithEngine(eng *analysis.Engine) error {
	usage := eng.UsageByDay()

	if handled, err := writeStructured(c.globals, dayUsages(usage)); handled {
		return err
	}

	fmt.Println("Usage by Day:")
	for _, u := range usage {
		fmt.Printf("   %s: %s%% occupied (%d/%d slots)\n", u.Key, formatPercent(u.UsagePercent), u.OccupiedCount, u.TotalCount)
	}
	return nil
}
