package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wattend/internal/identity"
)

const recordColumns = `id, role, person_id, name, class_name, date, status, check_in, check_out, rfid`

// Repository persists the attendance ledger in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindForDay returns the record for (personID, role, date), or nil when
// the person has not scanned that day.
func (r *Repository) FindForDay(ctx context.Context, personID string, role identity.Role, date time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE person_id = $1 AND role = $2 AND date = $3
	`, personID, role, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new day record. The unique index on (person_id, role,
// date) makes concurrent first scans collapse to a single row: the loser
// gets inserted=false and must re-read.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, role, person_id, name, class_name, date, status, check_in, check_out, rfid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (person_id, role, date) DO NOTHING
	`, rec.ID, rec.Role, rec.PersonID, rec.Name, rec.ClassName, rec.Date, rec.Status, rec.CheckIn, rec.CheckOut, rec.RFID)
	if err != nil {
		return Record{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, err
	}
	if n == 0 {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// SetCheckOut stamps the check-out time, but only if it has not been set
// yet. Returns nil when the record was already complete (or missing), so
// a concurrent pair of second scans writes check_out exactly once.
func (r *Repository) SetCheckOut(ctx context.Context, personID string, role identity.Role, date, ts time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance
		SET check_out = $4
		WHERE person_id = $1 AND role = $2 AND date = $3 AND check_out IS NULL
		RETURNING `+recordColumns+`
	`, personID, role, date, ts)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns records matching the filter, newest day first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance`
	where, args := filterClauses(f)
	query += where + ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summarize counts records by status for the filter in one query.
func (r *Repository) Summarize(ctx context.Context, f Filter) (Summary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'Present'),
			COUNT(*) FILTER (WHERE status = 'Late'),
			COUNT(*) FILTER (WHERE status = 'Absent'),
			COUNT(*)
		FROM attendance`
	where, args := filterClauses(f)
	query += where

	var s Summary
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&s.Present, &s.Late, &s.Absent, &s.Total); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func filterClauses(f Filter) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(cond string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(cond, len(args)))
	}
	if f.Role != "" {
		add("role = $%d", f.Role)
	}
	if f.ClassName != "" {
		add("class_name = $%d", f.ClassName)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Role, &rec.PersonID, &rec.Name, &rec.ClassName,
		&rec.Date, &rec.Status, &rec.CheckIn, &rec.CheckOut, &rec.RFID)
	return rec, err
}
