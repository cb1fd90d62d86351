package attendance

import (
	"bytes"
	"encoding/csv"
	"time"
)

// Fixed export column order; consumers depend on it.
var csvHeader = []string{"name", "personId", "role", "className", "date", "status", "checkIn", "checkOut"}

func marshalCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.PersonID,
			string(rec.Role),
			strOrEmpty(rec.ClassName),
			rec.Date.Format("2006-01-02"),
			string(rec.Status),
			timeOrEmpty(rec.CheckIn),
			timeOrEmpty(rec.CheckOut),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
