package store

import (
	"context"
	"database/sql"
)

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		student_id  TEXT NOT NULL UNIQUE,
		class_name  TEXT NOT NULL,
		rfid        TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS staff (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		staff_id    TEXT NOT NULL UNIQUE,
		department  TEXT,
		rfid        TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id          UUID PRIMARY KEY,
		role        TEXT NOT NULL,
		person_id   TEXT NOT NULL,
		name        TEXT NOT NULL,
		class_name  TEXT,
		date        DATE NOT NULL,
		status      TEXT NOT NULL,
		check_in    TIMESTAMPTZ,
		check_out   TIMESTAMPTZ,
		rfid        TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_person_day ON attendance (person_id, role, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance (date);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}
