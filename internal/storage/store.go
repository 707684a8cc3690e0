package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("export run not found")

// Store defines the export sink operations.
type Store interface {
	SaveRun(ctx context.Context, run *Run, slots []SlotRow, summary []AvailabilityRow) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	RunSlots(ctx context.Context, id string) ([]SlotRow, error)
	RunSummary(ctx context.Context, id string) ([]AvailabilityRow, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	getRun    *sql.Stmt
	deleteRun *sql.Stmt
	listRuns  *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getRun, err = s.db.Prepare(`
		SELECT id, snapshot_ts, user_id, fin_year, total_rooms, slot_count, exported_at
		FROM export_runs WHERE id = ?
	`)
	if err != nil {
		return err
	}

	s.deleteRun, err = s.db.Prepare(`DELETE FROM export_runs WHERE id = ?`)
	if err != nil {
		return err
	}

	s.listRuns, err = s.db.Prepare(`
		SELECT id, snapshot_ts, user_id, fin_year, total_rooms, slot_count, exported_at
		FROM export_runs ORDER BY exported_at DESC, rowid DESC LIMIT ?
	`)
	return err
}

// tsLayout is fixed-width so stored timestamps compare correctly as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTimestamp tries the formats SQLite hands back for DATETIME columns.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// SaveRun records an export in a single transaction. The run's ID and
// ExportedAt are filled in when empty; SlotCount is taken from slots.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, slots []SlotRow, summary []AvailabilityRow) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.ExportedAt.IsZero() {
		run.ExportedAt = time.Now()
	}
	run.SlotCount = len(slots)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO export_runs (id, snapshot_ts, user_id, fin_year, total_rooms, slot_count, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SnapshotTS.UTC().Format(tsLayout), run.UserID, run.FinYear,
		run.TotalRooms, run.SlotCount, run.ExportedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insertSlot, err := tx.PrepareContext(ctx,
		`INSERT INTO slot_rows (run_id, seq, room, day, time_slot, occupied, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare slot insert: %w", err)
	}
	defer insertSlot.Close()
	for i, r := range slots {
		if _, err := insertSlot.ExecContext(ctx, run.ID, i, r.Room, r.Day, r.TimeSlot, r.Occupied, r.Content); err != nil {
			return fmt.Errorf("insert slot row %d: %w", i, err)
		}
	}

	insertAvail, err := tx.PrepareContext(ctx,
		`INSERT INTO room_availability (run_id, rank, room, total_slots, occupied_slots, free_slots, availability_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare availability insert: %w", err)
	}
	defer insertAvail.Close()
	for i, r := range summary {
		if _, err := insertAvail.ExecContext(ctx, run.ID, i, r.Room, r.TotalSlots, r.OccupiedSlots, r.FreeSlots, r.AvailabilityPct); err != nil {
			return fmt.Errorf("insert availability row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var r Run
	var snapTS, exportedAt string
	if err := sc.Scan(&r.ID, &snapTS, &r.UserID, &r.FinYear, &r.TotalRooms, &r.SlotCount, &exportedAt); err != nil {
		return nil, err
	}
	r.SnapshotTS, _ = parseTimestamp(snapTS)
	r.ExportedAt, _ = parseTimestamp(exportedAt)
	return &r, nil
}

// GetRun retrieves a single run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.getRun.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.listRuns.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// RunSlots returns a run's slot rows in export order.
func (s *SQLiteStore) RunSlots(ctx context.Context, id string) ([]SlotRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room, day, time_slot, occupied, content FROM slot_rows WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query slot rows: %w", err)
	}
	defer rows.Close()

	out := []SlotRow{}
	for rows.Next() {
		var r SlotRow
		if err := rows.Scan(&r.Room, &r.Day, &r.TimeSlot, &r.Occupied, &r.Content); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunSummary returns a run's availability rows in ranked order.
func (s *SQLiteStore) RunSummary(ctx context.Context, id string) ([]AvailabilityRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room, total_slots, occupied_slots, free_slots, availability_pct
		 FROM room_availability WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	out := []AvailabilityRow{}
	for rows.Next() {
		var r AvailabilityRow
		if err := rows.Scan(&r.Room, &r.TotalSlots, &r.OccupiedSlots, &r.FreeSlots, &r.AvailabilityPct); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run. Its rows are cascade-deleted by the schema.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.deleteRun.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// PruneRuns deletes runs exported before olderThan.
func (s *SQLiteStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM export_runs WHERE exported_at < ?", olderThan.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.getRun, s.deleteRun, s.listRuns} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
