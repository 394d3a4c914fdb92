package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanbarret/wallet-attendance-system/core"
)

// RecordReport is a record enriched with the derived hours worked, for the
// attendance listing. WorkedHours is empty until the day is complete.
type RecordReport struct {
	core.AttendanceRecord
	WorkedHours string `json:"worked_hours,omitempty"`
}

// Report returns the committed records with worked hours computed from the
// persisted in/out timestamps, rounded to two decimal places.
func (s *AttendanceService) Report(ctx context.Context) []RecordReport {
	records := s.ledger.List(ctx)
	out := make([]RecordReport, 0, len(records))
	for _, r := range records {
		out = append(out, RecordReport{
			AttendanceRecord: r,
			WorkedHours:      workedHours(r),
		})
	}
	return out
}

func workedHours(r core.AttendanceRecord) string {
	if !r.CheckedOut() {
		return ""
	}
	in, err := time.Parse(core.TimestampLayout, r.InTimestamp)
	if err != nil {
		return ""
	}
	out, err := time.Parse(core.TimestampLayout, r.OutTimestamp)
	if err != nil {
		return ""
	}

	seconds := decimal.NewFromInt(int64(out.Sub(in) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(2).String()
}
