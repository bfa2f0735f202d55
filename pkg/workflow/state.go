package workflow

import (
	"github.com/ibanking/tuitionpay/pkg/core"
)

type StateKind int

const (
	KindIdle StateKind = iota
	KindProfileLoading
	KindProfileReady
	KindProfileLoadFailed
	KindLookupPending
	KindLookupFailed
	KindBillReady
	KindConsentPending
	KindSubmittingPayment
	KindOtpRequested
	KindSubmissionFailed
	KindLoggedOut
)

var kindNames = map[StateKind]string{
	KindIdle:              "Idle",
	KindProfileLoading:    "ProfileLoading",
	KindProfileReady:      "ProfileReady",
	KindProfileLoadFailed: "ProfileLoadFailed",
	KindLookupPending:     "LookupPending",
	KindLookupFailed:      "LookupFailed",
	KindBillReady:         "BillReady",
	KindConsentPending:    "ConsentPending",
	KindSubmittingPayment: "SubmittingPayment",
	KindOtpRequested:      "OtpRequested",
	KindSubmissionFailed:  "SubmissionFailed",
	KindLoggedOut:         "LoggedOut",
}

func (k StateKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// State is one of the types below. Each carries only the data valid in it.
type State interface {
	Kind() StateKind
}

type Idle struct{}

type ProfileLoading struct{}

type ProfileReady struct {
	Profile core.Profile
}

// ProfileLoadFailed is terminal for the session, the user has to log in again.
type ProfileLoadFailed struct {
	Reason error
}

type LookupPending struct {
	Seq       uint64
	StudentID string
}

type LookupFailed struct {
	StudentID string
	Reason    error
}

// BillReady holds a bill the user has not consented to pay yet.
type BillReady struct {
	Bill core.TuitionBill
}

// ConsentPending holds a bill the user agreed to pay, waiting for submission.
type ConsentPending struct {
	Bill core.TuitionBill
}

type SubmittingPayment struct {
	Request core.PaymentInitiationRequest
}

type OtpRequested struct {
	PaymentID string
	Request   core.PaymentInitiationRequest
}

// SubmissionFailed keeps the bill so the user can submit again.
type SubmissionFailed struct {
	Bill   *core.TuitionBill
	Reason error
}

type LoggedOut struct{}

func (Idle) Kind() StateKind              { return KindIdle }
func (ProfileLoading) Kind() StateKind    { return KindProfileLoading }
func (ProfileReady) Kind() StateKind      { return KindProfileReady }
func (ProfileLoadFailed) Kind() StateKind { return KindProfileLoadFailed }
func (LookupPending) Kind() StateKind     { return KindLookupPending }
func (LookupFailed) Kind() StateKind      { return KindLookupFailed }
func (BillReady) Kind() StateKind         { return KindBillReady }
func (ConsentPending) Kind() StateKind    { return KindConsentPending }
func (SubmittingPayment) Kind() StateKind { return KindSubmittingPayment }
func (OtpRequested) Kind() StateKind      { return KindOtpRequested }
func (SubmissionFailed) Kind() StateKind  { return KindSubmissionFailed }
func (LoggedOut) Kind() StateKind         { return KindLoggedOut }
