package tuition

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/pkg/cache"
	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/gateway"
)

const lookupPath = "/tuition/tuition/"

type doer interface {
	Do(ctx context.Context, r gateway.Request, out interface{}) error
	Authenticated() bool
}

// Resolver looks up the tuition bill of a student.
type Resolver struct {
	gw       doer
	logger   *zap.Logger
	cache    *cache.Cache[string, core.TuitionBill]
	cacheTTL time.Duration
}

type Option func(*Resolver)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithCache keeps up to size successful lookups for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Resolver) {
		if size <= 0 {
			return
		}
		c := cache.NewLRUCache[string, core.TuitionBill](size, "tuition_lookup")
		r.cache = &c
		r.cacheTTL = ttl
	}
}

func NewResolver(gw doer, opts ...Option) *Resolver {
	r := &Resolver{gw: gw, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

type tuitionResponse struct {
	Ok        bool            `json:"ok"`
	TuitionID string          `json:"tuition_id"`
	StudentID string          `json:"student_id"`
	FullName  string          `json:"full_name"`
	TermNo    *int            `json:"term_no"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Status    string          `json:"status"`
}

// ResolveTuition returns the bill for studentID.
// It fails with NotFound, Unauthorized, InvalidInput (empty identifier) or Transport.
func (r *Resolver) ResolveTuition(ctx context.Context, studentID string) (core.TuitionBill, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return core.TuitionBill{}, core.NewError(core.KindInvalidInput, "student id is empty")
	}
	// cached bills are only served within a live session
	if r.cache != nil && r.gw.Authenticated() {
		if bill, ok := r.cache.Get(studentID); ok {
			return bill, nil
		}
	}

	var resp tuitionResponse
	err := r.gw.Do(ctx, gateway.Request{
		Method:   http.MethodGet,
		Path:     lookupPath + url.PathEscape(studentID),
		Auth:     true,
		Endpoint: "tuition_lookup",
	}, &resp)
	if err != nil {
		return core.TuitionBill{}, errors.Wrap(resolveError(err), "resolve tuition")
	}
	if !resp.Ok || resp.TuitionID == "" {
		return core.TuitionBill{}, &core.Error{Kind: core.KindNotFound, Err: errors.New("tuition response without tuition_id")}
	}
	if resp.AmountDue.IsNegative() {
		r.logger.Warn("negative amount due", zap.String("tuition_id", resp.TuitionID))
		return core.TuitionBill{}, core.NewError(core.KindTransport, "malformed tuition response")
	}
	bill := core.TuitionBill{
		TuitionID: resp.TuitionID,
		StudentID: resp.StudentID,
		FullName:  resp.FullName,
		TermNo:    resp.TermNo,
		AmountDue: resp.AmountDue,
		Status:    resp.Status,
	}
	if bill.StudentID == "" {
		bill.StudentID = studentID
	}
	if r.cache != nil {
		r.cache.Set(studentID, bill, cache.WithExpiration(r.cacheTTL))
	}
	return bill, nil
}

// Forget drops the cached bill of studentID.
func (r *Resolver) Forget(studentID string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(strings.TrimSpace(studentID))
}

// Purge drops every cached bill.
func (r *Resolver) Purge() {
	if r.cache == nil {
		return
	}
	for _, k := range r.cache.Keys() {
		r.cache.Delete(k)
	}
}

// resolveError narrows gateway failures to the kinds a lookup may report.
func resolveError(err error) error {
	switch core.KindOf(err) {
	case core.KindNotFound, core.KindUnauthorized:
		return err
	default:
		return core.WithKind(err, core.KindTransport)
	}
}
