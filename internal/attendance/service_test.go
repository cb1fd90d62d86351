package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wattend/internal/identity"
)

type fakeDirectory map[string]identity.Person

func (d fakeDirectory) FindByBadge(_ context.Context, rfid string) (*identity.Person, error) {
	p, ok := d[rfid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// fakeLedger keeps records in a map keyed by (person, role, day). The
// two "steal" knobs simulate a concurrent scanner winning the write
// between our read and write.
type fakeLedger struct {
	records map[string]*Record
	summary Summary

	hideOnFirstFind bool
	stealCheckOut   bool
	finds           int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*Record)}
}

func key(personID string, role identity.Role, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", personID, role, date.Format("2006-01-02"))
}

func (l *fakeLedger) FindForDay(_ context.Context, personID string, role identity.Role, date time.Time) (*Record, error) {
	l.finds++
	if l.hideOnFirstFind && l.finds == 1 {
		return nil, nil
	}
	rec, ok := l.records[key(personID, role, date)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (l *fakeLedger) Insert(_ context.Context, rec Record) (Record, bool, error) {
	k := key(rec.PersonID, rec.Role, rec.Date)
	if _, ok := l.records[k]; ok {
		return Record{}, false, nil
	}
	if rec.ID == "" {
		rec.ID = "rec-" + k
	}
	cp := rec
	l.records[k] = &cp
	return rec, true, nil
}

func (l *fakeLedger) SetCheckOut(_ context.Context, personID string, role identity.Role, date, ts time.Time) (*Record, error) {
	rec, ok := l.records[key(personID, role, date)]
	if !ok || rec.CheckOut != nil {
		return nil, nil
	}
	if l.stealCheckOut {
		stolen := ts.Add(-time.Minute)
		rec.CheckOut = &stolen
		return nil, nil
	}
	out := ts
	rec.CheckOut = &out
	cp := *rec
	return &cp, nil
}

func (l *fakeLedger) List(_ context.Context, _ Filter) ([]Record, error) {
	records := []Record{}
	for _, rec := range l.records {
		records = append(records, *rec)
	}
	return records, nil
}

func (l *fakeLedger) Summarize(_ context.Context, _ Filter) (Summary, error) {
	return l.summary, nil
}

var testCutoff = 8*time.Hour + 15*time.Minute

func newTestService(ledger *fakeLedger) *Service {
	dir := fakeDirectory{
		"R1": {Role: identity.RoleStudent, PersonID: "S1", Name: "Asha", ClassName: strPtr("10A")},
		"R9": {Role: identity.RoleStaff, PersonID: "T7", Name: "Mira"},
	}
	return NewService(ledger, dir, testCutoff, nil)
}

func strPtr(s string) *string { return &s }

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local)
	require.NoError(t, err)
	return ts
}

func TestMarkFirstScanBeforeCutoff(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	scan := at(t, "2025-09-18T08:05:00")
	rec, msg, err := svc.Mark(context.Background(), "R1", scan)
	require.NoError(t, err)
	require.Equal(t, MsgCheckIn, msg)
	require.Equal(t, StatusPresent, rec.Status)
	require.Equal(t, identity.RoleStudent, rec.Role)
	require.Equal(t, "S1", rec.PersonID)
	require.Equal(t, "Asha", rec.Name)
	require.NotNil(t, rec.ClassName)
	require.Equal(t, "10A", *rec.ClassName)
	require.NotNil(t, rec.CheckIn)
	require.True(t, rec.CheckIn.Equal(scan))
	require.Nil(t, rec.CheckOut)
	require.True(t, rec.Date.Equal(at(t, "2025-09-18T00:00:00")))
}

func TestMarkLateCutoff(t *testing.T) {
	cases := []struct {
		name string
		when string
		want Status
	}{
		{"well before", "2025-09-18T07:00:00", StatusPresent},
		{"exactly on cutoff", "2025-09-18T08:15:00", StatusPresent},
		{"one second after", "2025-09-18T08:15:01", StatusLate},
		{"afternoon", "2025-09-18T13:30:00", StatusLate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newFakeLedger())
			rec, _, err := svc.Mark(context.Background(), "R1", at(t, tc.when))
			require.NoError(t, err)
			require.Equal(t, tc.want, rec.Status)
		})
	}
}

func TestMarkSecondScanSetsCheckOut(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)

	first, _, err := svc.Mark(context.Background(), "R1", at(t, "2025-09-18T08:05:00"))
	require.NoError(t, err)

	out := at(t, "2025-09-18T17:00:00")
	rec, msg, err := svc.Mark(context.Background(), "R1", out)
	require.NoError(t, err)
	require.Equal(t, MsgCheckOut, msg)
	require.NotNil(t, rec.CheckOut)
	require.True(t, rec.CheckOut.Equal(out))
	// check-in and status untouched
	require.Equal(t, first.Status, rec.Status)
	require.True(t, rec.CheckIn.Equal(*first.CheckIn))
}

func TestMarkThirdScanIsNoop(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	_, _, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T08:05:00"))
	require.NoError(t, err)
	second, _, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T17:00:00"))
	require.NoError(t, err)

	rec, msg, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T18:45:00"))
	require.NoError(t, err)
	require.Equal(t, MsgComplete, msg)
	require.Equal(t, second, rec)
}

func TestMarkUnregisteredBadge(t *testing.T) {
	svc := newTestService(newFakeLedger())
	_, _, err := svc.Mark(context.Background(), "ZZZ", at(t, "2025-09-18T08:05:00"))
	require.ErrorIs(t, err, ErrBadgeNotRegistered)
}

func TestMarkDayBucketing(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	// 07:00 and 23:59 land on the same record
	_, msg, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T07:00:00"))
	require.NoError(t, err)
	require.Equal(t, MsgCheckIn, msg)

	rec, msg, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T23:59:00"))
	require.NoError(t, err)
	require.Equal(t, MsgCheckOut, msg)
	require.True(t, rec.Date.Equal(at(t, "2025-09-18T00:00:00")))

	// midnight starts a fresh record
	rec, msg, err = svc.Mark(ctx, "R1", at(t, "2025-09-19T00:00:00"))
	require.NoError(t, err)
	require.Equal(t, MsgCheckIn, msg)
	require.True(t, rec.Date.Equal(at(t, "2025-09-19T00:00:00")))
	require.Nil(t, rec.CheckOut)
}

func TestMarkStaffHasNoClassName(t *testing.T) {
	svc := newTestService(newFakeLedger())
	rec, _, err := svc.Mark(context.Background(), "R9", at(t, "2025-09-18T09:00:00"))
	require.NoError(t, err)
	require.Equal(t, identity.RoleStaff, rec.Role)
	require.Equal(t, "T7", rec.PersonID)
	require.Nil(t, rec.ClassName)
}

func TestMarkInsertRaceFallsThroughToCheckOut(t *testing.T) {
	ledger := newFakeLedger()
	ledger.hideOnFirstFind = true
	svc := newTestService(ledger)
	ctx := context.Background()

	// Seed the record a concurrent scanner "already" created.
	checkIn := at(t, "2025-09-18T08:05:00")
	seed := Record{
		Role: identity.RoleStudent, PersonID: "S1", Name: "Asha",
		Date: DayStart(checkIn), Status: StatusPresent, CheckIn: &checkIn, RFID: "R1",
	}
	_, inserted, err := ledger.Insert(ctx, seed)
	require.NoError(t, err)
	require.True(t, inserted)

	out := at(t, "2025-09-18T08:06:00")
	rec, msg, err := svc.Mark(ctx, "R1", out)
	require.NoError(t, err)
	require.Equal(t, MsgCheckOut, msg)
	require.NotNil(t, rec.CheckOut)
	require.True(t, rec.CheckIn.Equal(checkIn))
}

func TestMarkCheckOutRaceReportsComplete(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestService(ledger)
	ctx := context.Background()

	_, _, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T08:05:00"))
	require.NoError(t, err)

	ledger.stealCheckOut = true
	rec, msg, err := svc.Mark(ctx, "R1", at(t, "2025-09-18T17:00:00"))
	require.NoError(t, err)
	require.Equal(t, MsgComplete, msg)
	require.NotNil(t, rec.CheckOut)
}

func TestSummarizePercentage(t *testing.T) {
	cases := []struct {
		name    string
		summary Summary
		want    float64
	}{
		{"empty ledger", Summary{}, 0},
		{"three quarters", Summary{Present: 3, Late: 1, Total: 4}, 75},
		{"one third rounds", Summary{Present: 1, Late: 1, Absent: 1, Total: 3}, 33.3},
		{"two thirds rounds", Summary{Present: 2, Late: 1, Total: 3}, 66.7},
		{"all present", Summary{Present: 5, Total: 5}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.summary = tc.summary
			svc := newTestService(ledger)
			got, err := svc.Summarize(context.Background(), Filter{})
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Percentage)
			require.Equal(t, tc.summary.Present+tc.summary.Late+tc.summary.Absent, got.Total)
		})
	}
}
