package workflow

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/i18n"
	"github.com/ibanking/tuitionpay/pkg/lookup"
	"github.com/ibanking/tuitionpay/pkg/payment"
)

type SessionStore interface {
	Clear()
}

type ProfileSource interface {
	Me(ctx context.Context) (core.Profile, error)
}

type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, req core.PaymentInitiationRequest) (core.PaymentInitiationResult, error)
}

// BillCache drops remembered lookups that no longer reflect the backend.
type BillCache interface {
	Forget(studentID string)
	Purge()
}

type noCache struct{}

func (noCache) Forget(string) {}
func (noCache) Purge() {}

// ErrRejected is wrapped by the InvalidInput errors of actions refused
// locally. The user-facing reason is set as the snapshot message.
var ErrRejected = errors.New("action rejected")

func rejected(reason string) error {
	return &core.Error{Kind: core.KindInvalidInput, Reason: reason, Err: ErrRejected}
}

// Snapshot is a consistent copy of everything the user sees.
type Snapshot struct {
	State     State
	Profile   *core.Profile
	Bill      *core.TuitionBill
	StudentID string
	Consent   bool
	Message   string
}

// Controller is the payment workflow state machine. Every transition happens
// under one mutex, remote calls are made without holding it.
type Controller struct {
	store     SessionStore
	profiles  ProfileSource
	initiator PaymentInitiator
	bills     BillCache
	lookup    *lookup.Controller
	logger    *zap.Logger
	lang      string

	onChange    func(Snapshot)
	onLoggedOut func()
	lookupOpts  []lookup.Option

	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	profile   *core.Profile
	bill      *core.TuitionBill
	studentID string
	consent   bool
	message   i18n.Message
	// epoch changes on logout so late results of the previous session are ignored.
	epoch uint64
	// lastSeq is the newest lookup announced by the lookup controller.
	lastSeq uint64
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLanguage selects the language of Snapshot.Message.
func WithLanguage(lang string) Option {
	return func(c *Controller) {
		c.lang = lang
	}
}

// WithOnChange registers a callback receiving a snapshot after every transition.
// The callback must not call back into the controller.
func WithOnChange(f func(Snapshot)) Option {
	return func(c *Controller) {
		c.onChange = f
	}
}

// WithOnLoggedOut registers a callback invoked after Logout.
func WithOnLoggedOut(f func()) Option {
	return func(c *Controller) {
		c.onLoggedOut = f
	}
}

// WithBillCache registers the cache behind the resolver. It is purged on
// logout and forgets a student once a payment for them is initiated.
func WithBillCache(bc BillCache) Option {
	return func(c *Controller) {
		c.bills = bc
	}
}

// WithLookupOptions configures the debounced lookup controller.
func WithLookupOptions(opts ...lookup.Option) Option {
	return func(c *Controller) {
		c.lookupOpts = append(c.lookupOpts, opts...)
	}
}

func New(store SessionStore, profiles ProfileSource, resolver lookup.Resolver, initiator PaymentInitiator, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		profiles:    profiles,
		initiator:   initiator,
		bills:       noCache{},
		logger:      zap.NewNop(),
		lang:        "en",
		onChange:    func(Snapshot) {},
		onLoggedOut: func() {},
		state:       Idle{},
	}
	for _, o := range opts {
		o(c)
	}
	lookupOpts := append([]lookup.Option{
		lookup.WithOnIssue(c.lookupIssued),
		lookup.WithLogger(c.logger),
	}, c.lookupOpts...)
	c.lookup = lookup.New(resolver, c.lookupDelivered, lookupOpts...)
	return c
}

// Close stops the lookup controller and waits for in-flight lookups.
func (c *Controller) Close() {
	c.lookup.Close()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:     c.state,
		StudentID: c.studentID,
		Consent:   c.consent,
		Message:   c.message.Text(c.lang),
	}
	if c.profile != nil {
		p := *c.profile
		s.Profile = &p
	}
	if c.bill != nil {
		b := *c.bill
		s.Bill = &b
	}
	return s
}

// Mount loads the profile of the authenticated user.
// It is accepted from Idle, ProfileLoadFailed and LoggedOut.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	switch c.state.(type) {
	case Idle, ProfileLoadFailed, LoggedOut:
	default:
		c.mu.Unlock()
		return rejected("already mounted")
	}
	c.resetLocked()
	c.setStateLocked(ProfileLoading{})
	epoch := c.epoch
	c.mu.Unlock()
	c.notify()

	profile, err := c.profiles.Me(ctx)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return rejected("logged out while loading profile")
	}
	if err != nil {
		c.logger.Info("profile load failed", zap.Error(err))
		c.message = msgProfileLoadFailed
		c.setStateLocked(ProfileLoadFailed{Reason: err})
	} else {
		c.profile = &profile
		c.setStateLocked(ProfileReady{Profile: profile})
	}
	c.mu.Unlock()
	c.notify()
	return err
}

// ChangeStudentID forwards an edit of the student identifier to the debounced lookup.
func (c *Controller) ChangeStudentID(value string) error {
	c.mu.Lock()
	if !c.acceptsLookupLocked() {
		c.mu.Unlock()
		return rejected("profile not loaded")
	}
	c.studentID = value
	c.mu.Unlock()

	c.lookup.OnIdentifierChanged(value)
	return nil
}

// LookupNow looks value up without waiting for the quiet period.
func (c *Controller) LookupNow(value string) error {
	c.mu.Lock()
	if !c.acceptsLookupLocked() {
		c.mu.Unlock()
		return rejected("profile not loaded")
	}
	c.studentID = value
	c.mu.Unlock()

	if _, err := c.lookup.TriggerNow(value); err != nil {
		c.mu.Lock()
		c.message = msgStudentIDRequired
		c.mu.Unlock()
		c.notify()
		return err
	}
	return nil
}

// SetConsent records whether the user accepted the terms.
func (c *Controller) SetConsent(consent bool) {
	c.mu.Lock()
	c.consent = consent
	switch s := c.state.(type) {
	case BillReady:
		if consent {
			c.setStateLocked(ConsentPending(s))
		}
	case ConsentPending:
		if !consent {
			c.setStateLocked(BillReady(s))
		}
	}
	c.mu.Unlock()
	c.notify()
}

// SubmitPayment initiates the payment of the held bill.
// Rejected actions leave the state unchanged, make no network call and set a message.
func (c *Controller) SubmitPayment(ctx context.Context) (core.PaymentInitiationResult, error) {
	c.mu.Lock()
	if msg, ok := c.submitRejectionLocked(); !ok {
		c.message = msg
		c.mu.Unlock()
		c.notify()
		c.logger.Info("payment submission rejected", zap.String("state", c.State().Kind().String()), zap.String("reason", msg.ID))
		return core.PaymentInitiationResult{}, rejected(msg.ID)
	}
	req, err := payment.NewRequest(c.bill, c.consent)
	if err != nil {
		c.mu.Unlock()
		return core.PaymentInitiationResult{}, err
	}
	c.message = i18n.Message{}
	c.setStateLocked(SubmittingPayment{Request: req})
	epoch := c.epoch
	studentID := c.bill.StudentID
	c.mu.Unlock()
	c.notify()

	res, err := c.initiator.InitiatePayment(ctx, req)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Info("payment result after logout ignored")
		return res, err
	}
	if err != nil {
		c.logger.Info("payment initiation failed", zap.Error(err))
		c.message = paymentErrorMessage(err)
		c.setStateLocked(SubmissionFailed{Bill: copyBill(c.bill), Reason: err})
	} else {
		c.message = otpSent(res.PaymentID)
		c.setStateLocked(OtpRequested{PaymentID: res.PaymentID, Request: req})
	}
	c.mu.Unlock()
	if err == nil {
		c.bills.Forget(studentID)
	}
	c.notify()
	return res, err
}

// Logout clears the session from any state.
func (c *Controller) Logout() {
	c.lookup.Cancel()

	c.mu.Lock()
	c.epoch++
	c.store.Clear()
	c.resetLocked()
	c.setStateLocked(LoggedOut{})
	c.mu.Unlock()
	c.bills.Purge()

	c.notify()
	c.onLoggedOut()
}

func (c *Controller) submitRejectionLocked() (i18n.Message, bool) {
	switch s := c.state.(type) {
	case SubmittingPayment:
		return msgPaymentInProgress, false
	case OtpRequested:
		return otpAlreadyRequested(s.PaymentID), false
	case Idle, ProfileLoading, ProfileLoadFailed, LoggedOut:
		return msgReauthenticate, false
	}
	if !c.consent {
		return msgConsentRequired, false
	}
	switch c.state.(type) {
	case ConsentPending, SubmissionFailed:
	default:
		return msgLookupRequired, false
	}
	if c.bill == nil {
		return msgLookupRequired, false
	}
	if !c.bill.AmountDue.IsPositive() {
		return msgInvalidAmount, false
	}
	return i18n.Message{}, true
}

func (c *Controller) acceptsLookupLocked() bool {
	if c.profile == nil {
		return false
	}
	switch c.state.(type) {
	case Idle, ProfileLoading, ProfileLoadFailed, LoggedOut:
		return false
	}
	return true
}

func (c *Controller) lookupIssued(seq uint64, studentID string) {
	c.mu.Lock()
	if seq < c.lastSeq {
		c.mu.Unlock()
		c.logger.Info("out of order lookup announcement ignored", zap.Uint64("seq", seq))
		return
	}
	c.lastSeq = seq
	if !c.acceptsLookupLocked() {
		c.mu.Unlock()
		return
	}
	if _, submitting := c.state.(SubmittingPayment); !submitting {
		c.message = i18n.Message{}
		c.setStateLocked(LookupPending{Seq: seq, StudentID: studentID})
	}
	c.mu.Unlock()
	c.notify()
}

// lookupDelivered applies the outcome of the most recent lookup.
// While a payment is being submitted only the held bill changes, the state
// follows once the submission completes.
func (c *Controller) lookupDelivered(o lookup.Outcome) {
	c.mu.Lock()
	if o.Seq < c.lastSeq || !c.acceptsLookupLocked() {
		c.mu.Unlock()
		return
	}
	_, submitting := c.state.(SubmittingPayment)
	if o.Err != nil {
		c.logger.Info("lookup failed", zap.String("student_id", o.StudentID), zap.Error(o.Err))
		c.bill = nil
		c.message = lookupErrorMessage(o.Err, o.StudentID)
		if !submitting {
			c.setStateLocked(LookupFailed{StudentID: o.StudentID, Reason: o.Err})
		}
	} else {
		bill := o.Bill
		c.bill = &bill
		if !submitting {
			c.message = i18n.Message{}
			c.setStateLocked(c.billStateLocked(bill))
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) billStateLocked(bill core.TuitionBill) State {
	if c.consent {
		return ConsentPending{Bill: bill}
	}
	return BillReady{Bill: bill}
}

func (c *Controller) resetLocked() {
	c.profile = nil
	c.bill = nil
	c.studentID = ""
	c.consent = false
	c.message = i18n.Message{}
}

func (c *Controller) setStateLocked(s State) {
	c.logger.Debug("transition", zap.Stringer("from", c.state.Kind()), zap.Stringer("to", s.Kind()))
	c.state = s
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.onChange(c.Snapshot())
}

func copyBill(b *core.TuitionBill) *core.TuitionBill {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}
