package core

import (
	"github.com/shopspring/decimal"
)

// Profile holds identity and contact details of the authenticated payer.
// It is fetched once per session and never refreshed by the workflow.
type Profile struct {
	FullName    string
	PhoneNumber string
	Email       string
	Balance     decimal.Decimal
}
