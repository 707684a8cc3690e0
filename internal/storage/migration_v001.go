package storage

import "database/sql"

// migrateV001 creates the export schema. Every statement uses IF NOT EXISTS
// for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS export_runs (
			id          TEXT PRIMARY KEY,
			snapshot_ts DATETIME NOT NULL,
			user_id     TEXT NOT NULL DEFAULT '',
			fin_year    TEXT NOT NULL DEFAULT '',
			total_rooms INTEGER NOT NULL DEFAULT 0,
			slot_count  INTEGER NOT NULL DEFAULT 0,
			exported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS slot_rows (
			run_id    TEXT NOT NULL REFERENCES export_runs(id) ON DELETE CASCADE,
			seq       INTEGER NOT NULL,
			room      TEXT NOT NULL,
			day       TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			occupied  BOOLEAN NOT NULL DEFAULT 0,
			content   TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS room_availability (
			run_id           TEXT NOT NULL REFERENCES export_runs(id) ON DELETE CASCADE,
			rank             INTEGER NOT NULL,
			room             TEXT NOT NULL,
			total_slots      INTEGER NOT NULL,
			occupied_slots   INTEGER NOT NULL,
			free_slots       INTEGER NOT NULL,
			availability_pct REAL NOT NULL,
			PRIMARY KEY (run_id, rank)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_export_runs_exported_at ON export_runs(exported_at)`,
		`CREATE INDEX IF NOT EXISTS idx_slot_rows_room          ON slot_rows(run_id, room)`,
		`CREATE INDEX IF NOT EXISTS idx_slot_rows_day_slot      ON slot_rows(run_id, day, time_slot)`,
		`CREATE INDEX IF NOT EXISTS idx_room_availability_room  ON room_availability(run_id, room)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
