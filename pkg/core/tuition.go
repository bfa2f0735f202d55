package core

import (
	"github.com/shopspring/decimal"
)

// TuitionBill is a tuition record resolved for a student identifier.
type TuitionBill struct {
	TuitionID string
	StudentID string
	// FullName is the student's name as stored by the tuition service.
	FullName  string
	TermNo    *int
	AmountDue decimal.Decimal
	Status    string
}

// StudentName returns the name to display next to the student identifier.
func (b TuitionBill) StudentName() string {
	return b.FullName
}
