package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config   string `long:"config" description:"Path to config file" default:""`
	Snapshot string `long:"snapshot" description:"Snapshot JSON path (overrides snapshot.path)"`
	JSON     bool   `long:"json" description:"Output in JSON format"`
	Toon     bool   `long:"toon" description:"Output in Toon format (LLM-friendly)"`
	Verbose  bool   `long:"verbose" description:"Enable debug logging"`
	Version  bool   `long:"version" description:"Show version and exit"`
}

// IngestCommand normalizes collector batches into a snapshot.
type IngestCommand struct {
	Input  []string `long:"input" short:"i" description:"Collector batch file; repeat for several discovery passes" required:"true"`
	Output string   `long:"output" short:"o" description:"Snapshot output path (defaults to the snapshot path)"`

	globals *GlobalFlags
	version string
}

// SummaryCommand prints the availability overview of a snapshot.
type SummaryCommand struct {
	Top  int `long:"top" description:"Rooms listed per ranking (defaults to analysis.top_n)"`
	Peak int `long:"peak" description:"Peak slots listed (defaults to analysis.peak_top_n)"`

	globals *GlobalFlags
	version string
}

// AvailableCommand ranks rooms by availability.
type AvailableCommand struct {
	Day  string   `long:"day" description:"Only consider this day (e.g. Mon)"`
	Slot string   `long:"slot" description:"Only consider slots whose label contains this text"`
	Min  *float64 `long:"min" description:"Minimum availability percent (defaults to analysis.min_availability)"`

	globals *GlobalFlags
	version string
}

// FreeCommand lists rooms free on a day in a slot.
type FreeCommand struct {
	Day  string `long:"day" description:"Day token (e.g. Mon)" required:"true"`
	Slot string `long:"slot" description:"Slot label fragment (e.g. T1 or 09:00)" required:"true"`

	globals *GlobalFlags
	version string
}

// RoomCommand prints one room's schedule.
type RoomCommand struct {
	ID string `long:"id" description:"Room code or label" required:"true"`

	globals *GlobalFlags
	version string
}

// PeakCommand ranks slot labels by usage.
type PeakCommand struct {
	Limit int `long:"limit" description:"Maximum slots listed (0 for all)" default:"0"`

	globals *GlobalFlags
	version string
}

// DaysCommand reports usage per day.
type DaysCommand struct {
	globals *GlobalFlags
	version string
}

// ExportCommand writes the flat table and availability summary.
type ExportCommand struct {
	Dir     string `long:"dir" description:"Output directory (defaults to export.dir)"`
	Table   string `long:"table" description:"Table CSV file name (defaults to export.table_file)"`
	Summary string `long:"summary" description:"Summary CSV file name (defaults to export.summary_file)"`
	DB      string `long:"db" description:"Also record the export in this SQLite database"`

	globals *GlobalFlags
	version string
}

// RunsCommand lists, shows and prunes export runs recorded in the SQLite sink.
type RunsCommand struct {
	DB        string `long:"db" description:"SQLite database (defaults to storage.path/storage.sqlite_file)"`
	Limit     int    `long:"limit" description:"Maximum runs listed" default:"20"`
	OlderThan string `long:"prune-older-than" description:"Delete runs exported before this age (e.g. 30d, 24h, 2w)"`
	Delete    string `long:"delete" description:"Delete the run with this ID"`
	Show      string `long:"show" description:"Print the availability summary and slot rows of the run with this ID"`

	globals *GlobalFlags
	version string
}
