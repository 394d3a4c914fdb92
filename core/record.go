package core

import "time"

// Status is the persisted state of an attendance record.
type Status string

const (
	// StatusCheckedIn means the record has an in-time and no out-time.
	StatusCheckedIn Status = "CheckedIn"

	// StatusPendingCheckout is transient only: it is the response to a
	// second scan of the day, never written to the store. The stored record
	// stays CheckedIn until the checkout is confirmed.
	StatusPendingCheckout Status = "PendingCheckout"

	// StatusPresent means the day is complete: checked in and out.
	StatusPresent Status = "Present"
)

// Timestamp layouts. Persisted timestamps keep microsecond precision;
// in/out display fields are wall-clock only.
const (
	TimestampLayout = "2006-01-02T15:04:05.000000"
	ClockLayout     = "15:04:05"
	DateLayout      = "2006-01-02"
)

// Employee is a registered identity: the directory's mapping from an
// employee id to a display name and an Ed25519 public key.
type Employee struct {
	ID           string `json:"emp_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Department   string `json:"department,omitempty"`
	PublicKey    string `json:"public_key"` // base58, 32 bytes
	RegisteredAt string `json:"registered_at"`
}

// AttendanceRecord is the one-per-(employee, date) attendance entry. All
// timestamps come from the server clock; the employee's signature proves
// who, the server decides when.
type AttendanceRecord struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"emp_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date"`
	InTime       string `json:"in_time"`
	InTimestamp  string `json:"in_timestamp"`
	OutTime      string `json:"out_time,omitempty"`
	OutTimestamp string `json:"out_timestamp,omitempty"`
	Status       Status `json:"status"`
	QRTimestamp  int64  `json:"qr_timestamp"`
	Verified     bool   `json:"verified"`
}

// CheckedOut reports whether the record has reached its terminal state for
// the day. No further transitions are accepted once this is true.
func (r AttendanceRecord) CheckedOut() bool {
	return r.OutTime != ""
}

// RecordKey identifies the single record an (employee, date) pair may own.
func RecordKey(employeeID, date string) string {
	return employeeID + "/" + date
}

// FormatTimestamp renders a persisted timestamp with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatClock renders the HH:MM:SS display field.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// FormatDate renders the calendar date a record is keyed on.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
