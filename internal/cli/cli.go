package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Ingest    *IngestCommand
	Summary   *SummaryCommand
	Available *AvailableCommand
	Free      *FreeCommand
	Room      *RoomCommand
	Peak      *PeakCommand
	Days      *DaysCommand
	Export    *ExportCommand
	Runs      *RunsCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "roomscope"
	parser.LongDescription = "Normalize scraped room timetables and answer availability queries."

	cmds := &commands{
		Ingest:    &IngestCommand{globals: &globals, version: version},
		Summary:   &SummaryCommand{globals: &globals, version: version},
		Available: &AvailableCommand{globals: &globals, version: version},
		Free:      &FreeCommand{globals: &globals, version: version},
		Room:      &RoomCommand{globals: &globals, version: version},
		Peak:      &PeakCommand{globals: &globals, version: version},
		Days:      &DaysCommand{globals: &globals, version: version},
		Export:    &ExportCommand{globals: &globals, version: version},
		Runs:      &RunsCommand{globals: &globals, version: version},
	}

	parser.AddCommand("ingest", "Build a snapshot from collector batches", "Normalize collector batch files, compute the availability report and save the snapshot.", cmds.Ingest)
	parser.AddCommand("summary", "Print the availability overview", "Print totals, most and least available rooms, peak hours and usage by day.", cmds.Summary)
	parser.AddCommand("available", "Rank rooms by availability", "Rank rooms by availability, optionally restricted to a day and slot.", cmds.Available)
	parser.AddCommand("free", "List rooms free at a day and slot", "List every room with a free slot on the given day whose label contains the given text.", cmds.Free)
	parser.AddCommand("room", "Show one room's schedule", "Show the schedule of a room by code or label.", cmds.Room)
	parser.AddCommand("peak", "Rank time slots by usage", "Rank time slot labels by the share of rooms occupied, busiest first.", cmds.Peak)
	parser.AddCommand("days", "Show usage per day", "Show the share of occupied slots per day.", cmds.Days)
	parser.AddCommand("export", "Export CSV tables", "Write the flat slot table and the availability summary as CSV, optionally recording them in SQLite.", cmds.Export)
	parser.AddCommand("runs", "List recorded export runs", "List, delete or prune export runs recorded in the SQLite sink.", cmds.Runs)

	return parser, &globals, cmds
}

// Run is the main entry point for the roomscope CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("roomscope %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
