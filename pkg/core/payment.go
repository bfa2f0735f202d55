package core

import (
	"github.com/shopspring/decimal"
)

// PaymentInitiationRequest asks the payment service to start a payment and send an OTP.
type PaymentInitiationRequest struct {
	TuitionID string
	Amount    decimal.Decimal
	TermNo    *int
}

// PaymentInitiationResult means the OTP was dispatched, not that the payment is complete.
type PaymentInitiationResult struct {
	PaymentID string
}
