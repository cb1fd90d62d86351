package identity

import "time"

// Role tells which collection a person belongs to.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// Student is a registered student with an assigned RFID badge.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StudentID string    `json:"studentId"`
	ClassName string    `json:"className"`
	RFID      string    `json:"rfid"`
	CreatedAt time.Time `json:"createdAt"`
}

// Staff is a registered staff member with an assigned RFID badge.
type Staff struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StaffID    string    `json:"staffId"`
	Department *string   `json:"department"`
	RFID       string    `json:"rfid"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Person is the role-independent view returned by badge resolution.
// ClassName is nil for staff.
type Person struct {
	Role      Role
	PersonID  string
	Name      string
	ClassName *string
}
