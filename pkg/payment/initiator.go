package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/gateway"
)

const DefaultInitiatePath = "/payment/payments/initiate"

type doer interface {
	Do(ctx context.Context, r gateway.Request, out interface{}) error
}

// Initiator starts payments. A successful call means the OTP was sent.
type Initiator struct {
	gw     doer
	path   string
	logger *zap.Logger
}

type Option func(*Initiator)

func WithPath(path string) Option {
	return func(i *Initiator) {
		i.path = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(i *Initiator) {
		i.logger = logger
	}
}

func NewInitiator(gw doer, opts ...Option) *Initiator {
	i := &Initiator{gw: gw, path: DefaultInitiatePath, logger: zap.NewNop()}
	for _, o := range opts {
		o(i)
	}
	return i
}

// NewRequest builds the initiation request for bill.
// The amount is always the bill's amount due.
func NewRequest(bill *core.TuitionBill, consent bool) (core.PaymentInitiationRequest, error) {
	if !consent {
		return core.PaymentInitiationRequest{}, core.NewError(core.KindInvalidInput, "consent required")
	}
	if bill == nil || bill.TuitionID == "" {
		return core.PaymentInitiationRequest{}, core.NewError(core.KindInvalidInput, "no tuition bill")
	}
	return core.PaymentInitiationRequest{
		TuitionID: bill.TuitionID,
		Amount:    bill.AmountDue,
		TermNo:    bill.TermNo,
	}, nil
}

type initiateRequest struct {
	TuitionID string      `json:"tuition_id"`
	Amount    json.Number `json:"amount"`
	TermNo    *int        `json:"term_no,omitempty"`
}

type initiateResponse struct {
	PaymentID string `json:"payment_id"`
}

// InitiatePayment fails with InvalidAmount, Unauthorized, Transport or ServerRejected.
func (i *Initiator) InitiatePayment(ctx context.Context, req core.PaymentInitiationRequest) (core.PaymentInitiationResult, error) {
	if req.TuitionID == "" {
		return core.PaymentInitiationResult{}, core.NewError(core.KindInvalidInput, "tuition id is empty")
	}
	if !req.Amount.IsPositive() {
		return core.PaymentInitiationResult{}, core.NewError(core.KindInvalidAmount, "amount must be greater than zero")
	}
	var resp initiateResponse
	err := i.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   i.path,
		Body: initiateRequest{
			TuitionID: req.TuitionID,
			Amount:    json.Number(req.Amount.String()),
			TermNo:    req.TermNo,
		},
		Auth:           true,
		IdempotencyKey: IdempotencyKey(req),
		Endpoint:       "payment_initiate",
	}, &resp)
	if err != nil {
		return core.PaymentInitiationResult{}, errors.Wrap(initiateError(err), "initiate payment")
	}
	if resp.PaymentID == "" {
		return core.PaymentInitiationResult{}, core.NewError(core.KindTransport, "empty payment id")
	}
	i.logger.Info("payment initiated", zap.String("payment_id", resp.PaymentID), zap.String("tuition_id", req.TuitionID))
	return core.PaymentInitiationResult{PaymentID: resp.PaymentID}, nil
}

// IdempotencyKey is stable for identical requests so that the payment
// service can collapse a resubmission after a lost response.
func IdempotencyKey(req core.PaymentInitiationRequest) string {
	d := xxhash.New()
	_, _ = d.WriteString(req.TuitionID)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(req.Amount.String())
	_, _ = d.WriteString("|")
	if req.TermNo != nil {
		_, _ = d.WriteString(strconv.Itoa(*req.TermNo))
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// initiateError narrows gateway failures to the kinds an initiation may report.
func initiateError(err error) error {
	switch core.KindOf(err) {
	case core.KindUnauthorized, core.KindTransport, core.KindServerRejected, core.KindInvalidAmount:
		return err
	default:
		return core.WithKind(err, core.KindServerRejected)
	}
}
