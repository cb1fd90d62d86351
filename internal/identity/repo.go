package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists the student and staff directories in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateStudent inserts a new student. ID and CreatedAt are assigned here.
func (r *Repository) CreateStudent(ctx context.Context, st *Student) error {
	st.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, name, student_id, class_name, rfid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, st.ID, st.Name, st.StudentID, st.ClassName, st.RFID)
	return row.Scan(&st.CreatedAt)
}

// ListStudents returns all students ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, student_id, class_name, rfid, created_at
		FROM students
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.StudentID, &st.ClassName, &st.RFID, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// CreateStaff inserts a new staff member. ID and CreatedAt are assigned here.
func (r *Repository) CreateStaff(ctx context.Context, s *Staff) error {
	s.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO staff (id, name, staff_id, department, rfid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, s.ID, s.Name, s.StaffID, s.Department, s.RFID)
	return row.Scan(&s.CreatedAt)
}

// ListStaff returns all staff ordered by name.
func (r *Repository) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, staff_id, department, rfid, created_at
		FROM staff
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []Staff{}
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.StaffID, &s.Department, &s.RFID, &s.CreatedAt); err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

// FindByBadge resolves an RFID badge to a person. Students are checked
// first, then staff; returns (nil, nil) when the badge is unknown.
func (r *Repository) FindByBadge(ctx context.Context, rfid string) (*Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, class_name FROM students WHERE rfid = $1
	`, rfid)
	var p Person
	var className string
	err := row.Scan(&p.PersonID, &p.Name, &className)
	if err == nil {
		p.Role = RoleStudent
		p.ClassName = &className
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = r.db.QueryRowContext(ctx, `
		SELECT staff_id, name FROM staff WHERE rfid = $1
	`, rfid)
	err = row.Scan(&p.PersonID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Role = RoleStaff
	return &p, nil
}
