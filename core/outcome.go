package core

// OutcomeKind discriminates the result of a verified attendance event.
type OutcomeKind string

const (
	// OutcomeCheckInSuccess means a record was created with the in-time.
	OutcomeCheckInSuccess OutcomeKind = "check-in"

	// OutcomeConfirmCheckoutRequired means the employee is checked in and a
	// second scan arrived: the proposed out-time is returned but nothing is
	// written until the employee confirms.
	OutcomeConfirmCheckoutRequired OutcomeKind = "confirm-checkout"

	// OutcomeCheckOutSuccess means the out-time was written and the day is
	// complete.
	OutcomeCheckOutSuccess OutcomeKind = "check-out"

	// OutcomeAlreadyCheckedOut means the day was already complete; the
	// record was not touched.
	OutcomeAlreadyCheckedOut OutcomeKind = "already-checked-out"
)

// Outcome is what the ledger returns for a verified event. InTime is always
// set. OutTime is the proposed out-time for OutcomeConfirmCheckoutRequired
// and the recorded one for OutcomeCheckOutSuccess and
// OutcomeAlreadyCheckedOut.
type Outcome struct {
	Kind         OutcomeKind
	EmployeeID   string
	EmployeeName string
	InTime       string
	OutTime      string
	Status       Status

	// Record is the committed record for OutcomeCheckInSuccess and
	// OutcomeCheckOutSuccess; zero otherwise.
	Record AttendanceRecord
}
