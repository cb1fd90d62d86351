package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wattend/internal/identity"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrBadgeNotRegistered = errors.New("RFID not registered")
	ErrNoRecords          = errors.New("no records to export")
)

// Messages reported for the three mark transitions.
const (
	MsgCheckIn  = "Check-in recorded"
	MsgCheckOut = "Check-out recorded"
	MsgComplete = "Already checked-in and out for today"
)

// Ledger is the persistence surface the service needs.
type Ledger interface {
	FindForDay(ctx context.Context, personID string, role identity.Role, date time.Time) (*Record, error)
	Insert(ctx context.Context, rec Record) (Record, bool, error)
	SetCheckOut(ctx context.Context, personID string, role identity.Role, date, ts time.Time) (*Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	Summarize(ctx context.Context, f Filter) (Summary, error)
}

// BadgeDirectory resolves badges to people.
type BadgeDirectory interface {
	FindByBadge(ctx context.Context, rfid string) (*identity.Person, error)
}

// Service implements the mark rule and the read-only projections over
// the ledger.
type Service struct {
	ledger Ledger
	dir    BadgeDirectory
	cutoff time.Duration
	log    *zap.Logger
}

// NewService creates a service. cutoff is the time-of-day after which a
// first scan counts as Late.
func NewService(ledger Ledger, dir BadgeDirectory, cutoff time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{ledger: ledger, dir: dir, cutoff: cutoff, log: log}
}

// Mark handles one badge scan. The first scan of a calendar day creates
// the record with a check-in, the second stamps the check-out, and any
// further scan is a no-op. Returns the resulting record and the message
// for the transition taken.
func (s *Service) Mark(ctx context.Context, rfid string, ts time.Time) (Record, string, error) {
	person, err := s.dir.FindByBadge(ctx, rfid)
	if err != nil {
		return Record{}, "", err
	}
	if person == nil {
		return Record{}, "", ErrBadgeNotRegistered
	}

	date := DayStart(ts)
	existing, err := s.ledger.FindForDay(ctx, person.PersonID, person.Role, date)
	if err != nil {
		return Record{}, "", err
	}

	if existing == nil {
		checkIn := ts
		rec := Record{
			Role:      person.Role,
			PersonID:  person.PersonID,
			Name:      person.Name,
			ClassName: person.ClassName,
			Date:      date,
			Status:    s.statusFor(ts),
			CheckIn:   &checkIn,
			RFID:      rfid,
		}
		rec, inserted, err := s.ledger.Insert(ctx, rec)
		if err != nil {
			return Record{}, "", err
		}
		if inserted {
			s.log.Info("check-in recorded",
				zap.String("personId", person.PersonID),
				zap.String("role", string(person.Role)),
				zap.String("status", string(rec.Status)))
			return rec, MsgCheckIn, nil
		}
		// Lost the first-scan race; the row exists now, treat this
		// scan as the second one.
		existing, err = s.ledger.FindForDay(ctx, person.PersonID, person.Role, date)
		if err != nil {
			return Record{}, "", err
		}
		if existing == nil {
			return Record{}, "", fmt.Errorf("attendance for %s on %s: insert conflicted but record not found", person.PersonID, date.Format("2006-01-02"))
		}
	}

	if existing.CheckOut == nil {
		updated, err := s.ledger.SetCheckOut(ctx, person.PersonID, person.Role, date, ts)
		if err != nil {
			return Record{}, "", err
		}
		if updated != nil {
			s.log.Info("check-out recorded",
				zap.String("personId", person.PersonID),
				zap.String("role", string(person.Role)))
			return *updated, MsgCheckOut, nil
		}
		// Someone else stamped the check-out between our read and
		// write; re-read and report the completed record.
		existing, err = s.ledger.FindForDay(ctx, person.PersonID, person.Role, date)
		if err != nil {
			return Record{}, "", err
		}
		if existing == nil {
			return Record{}, "", fmt.Errorf("attendance for %s on %s: record vanished during check-out", person.PersonID, date.Format("2006-01-02"))
		}
	}

	return *existing, MsgComplete, nil
}

// statusFor is Late iff the scan's time-of-day is strictly after the
// cutoff; exactly on the cutoff is Present.
func (s *Service) statusFor(ts time.Time) Status {
	if timeOfDay(ts) > s.cutoff {
		return StatusLate
	}
	return StatusPresent
}

// List returns records matching the filter, newest day first.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	return s.ledger.List(ctx, f)
}

// Summarize aggregates counts for the filter and derives the present
// percentage.
func (s *Service) Summarize(ctx context.Context, f Filter) (Summary, error) {
	sum, err := s.ledger.Summarize(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	sum.Percentage = presentPercentage(sum.Present, sum.Total)
	return sum, nil
}

// ExportCSV serializes the filtered records as CSV. An empty result is
// ErrNoRecords, not an empty file.
func (s *Service) ExportCSV(ctx context.Context, f Filter) ([]byte, error) {
	records, err := s.ledger.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return marshalCSV(records)
}
