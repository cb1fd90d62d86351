package attendance

import (
	"math"
	"time"

	"wattend/internal/identity"
)

// Status classifies a day's attendance record. Absent is part of the
// schema and summary counts but is never assigned by the mark rule.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

// Record is one person's attendance for one calendar day. Name and
// ClassName are snapshots taken at scan time, not live references.
type Record struct {
	ID        string        `json:"id"`
	Role      identity.Role `json:"role"`
	PersonID  string        `json:"personId"`
	Name      string        `json:"name"`
	ClassName *string       `json:"className"`
	Date      time.Time     `json:"date"`
	Status    Status        `json:"status"`
	CheckIn   *time.Time    `json:"checkIn,omitempty"`
	CheckOut  *time.Time    `json:"checkOut,omitempty"`
	RFID      string        `json:"rfid"`
}

// Filter narrows ledger queries. Zero values mean "any"; From/To are
// inclusive day boundaries.
type Filter struct {
	Role      string
	ClassName string
	Status    string
	From      *time.Time
	To        *time.Time
}

// Summary holds aggregate counts for a filtered slice of the ledger.
type Summary struct {
	Present    int     `json:"present"`
	Late       int     `json:"late"`
	Absent     int     `json:"absent"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// presentPercentage is round(present/total*1000)/10, one decimal place,
// and 0 when total is 0.
func presentPercentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*1000) / 10
}
