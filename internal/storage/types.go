package storage

import "time"

// Run is one export of a snapshot into the database.
type Run struct {
	ID         string
	SnapshotTS time.Time
	UserID     string
	FinYear    string
	TotalRooms int
	SlotCount  int
	ExportedAt time.Time
}

// SlotRow is one schedule entry of an export, in snapshot order.
type SlotRow struct {
	Room     string
	Day      string
	TimeSlot string
	Occupied bool
	Content  string
}

// AvailabilityRow is one room of an export's availability summary.
type AvailabilityRow struct {
	Room            string
	TotalSlots      int
	OccupiedSlots   int
	FreeSlots       int
	AvailabilityPct float64
}
