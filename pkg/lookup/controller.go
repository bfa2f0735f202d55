package lookup

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/internal/clock"
	"github.com/ibanking/tuitionpay/pkg/core"
)

// DefaultQuietPeriod is how long the identifier must stay unchanged before a lookup is issued.
const DefaultQuietPeriod = 5 * time.Second

type Resolver interface {
	ResolveTuition(ctx context.Context, studentID string) (core.TuitionBill, error)
}

// Sequencer hands out strictly increasing query numbers.
type Sequencer interface {
	Next() uint64
}

type counter struct {
	n atomic.Uint64
}

func (c *counter) Next() uint64 {
	return c.n.Add(1)
}

type Trigger string

const (
	TriggerDebounce Trigger = "debounce"
	TriggerNow      Trigger = "now"
)

// Outcome is the result of one issued query. Err is nil on success.
type Outcome struct {
	Seq       uint64
	StudentID string
	Bill      core.TuitionBill
	Err       error
}

// Controller turns identifier edits into tuition lookups.
// Edits are debounced: only the last value of a burst is looked up, once the
// quiet period has passed. Only the outcome of the most recently issued query
// is delivered, whatever order the responses arrive in.
type Controller struct {
	resolver Resolver
	deliver  func(Outcome)
	onIssue  func(seq uint64, studentID string)
	clock    clock.Clock
	seq      Sequencer
	quiet    time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu       sync.Mutex
	timer    clock.Timer
	timerGen uint64
	latest   uint64
	closed   bool

	// issueMu serializes numbering, onIssue and deliver callbacks. It is
	// taken before mu.
	issueMu sync.Mutex
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

func WithSequencer(s Sequencer) Option {
	return func(ctl *Controller) {
		ctl.seq = s
	}
}

func WithQuietPeriod(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.quiet = d
	}
}

// WithTimeout bounds a single lookup call.
func WithTimeout(d time.Duration) Option {
	return func(ctl *Controller) {
		ctl.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(ctl *Controller) {
		ctl.logger = logger
	}
}

// WithOnIssue registers a callback invoked each time a query is sent.
func WithOnIssue(f func(seq uint64, studentID string)) Option {
	return func(ctl *Controller) {
		ctl.onIssue = f
	}
}

// New creates a controller delivering current outcomes to deliver.
func New(resolver Resolver, deliver func(Outcome), opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		resolver: resolver,
		deliver:  deliver,
		onIssue:  func(uint64, string) {},
		clock:    clock.Real{},
		seq:      &counter{},
		quiet:    DefaultQuietPeriod,
		timeout:  10 * time.Second,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnIdentifierChanged restarts the quiet period with value.
// An empty value only cancels the pending lookup.
func (c *Controller) OnIdentifierChanged(value string) {
	value = strings.TrimSpace(value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	if value == "" {
		return
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.quiet, func() {
		c.fire(gen, value)
	})
}

// TriggerNow looks value up immediately, dropping any pending debounced lookup.
// It returns the sequence number of the issued query.
func (c *Controller) TriggerNow(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, core.NewError(core.KindInvalidInput, "student id is empty")
	}
	c.issueMu.Lock()
	defer c.issueMu.Unlock()

	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()

	seq := c.issueLocked(value, TriggerNow)
	if seq == 0 {
		return 0, core.NewError(core.KindInvalidInput, "lookup controller is closed")
	}
	return seq, nil
}

// Cancel drops the pending lookup and makes every in-flight outcome stale.
func (c *Controller) Cancel() {
	c.issueMu.Lock()
	defer c.issueMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.latest = c.seq.Next()
}

// Close cancels everything and waits for in-flight lookups to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

// fire runs on timer expiry. A timer stopped by a newer edit, TriggerNow or
// Cancel after it started firing finds its generation outdated and does nothing.
func (c *Controller) fire(gen uint64, value string) {
	c.issueMu.Lock()
	defer c.issueMu.Unlock()

	c.mu.Lock()
	if c.closed || gen != c.timerGen || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.issueLocked(value, TriggerDebounce)
}

// issueLocked numbers a query and announces it. The caller holds issueMu, so
// onIssue calls happen in sequence order and never after a newer outcome.
func (c *Controller) issueLocked(value string, trigger Trigger) uint64 {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	seq := c.seq.Next()
	c.latest = seq
	c.mu.Unlock()

	issuedCounter.WithLabelValues(string(trigger)).Inc()
	c.logger.Debug("lookup issued", zap.Uint64("seq", seq), zap.String("trigger", string(trigger)))
	c.onIssue(seq, value)

	c.wg.Go(func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		bill, err := c.resolver.ResolveTuition(ctx, value)
		c.complete(Outcome{Seq: seq, StudentID: value, Bill: bill, Err: err})
	})
	return seq
}

func (c *Controller) complete(o Outcome) {
	c.issueMu.Lock()
	defer c.issueMu.Unlock()

	c.mu.Lock()
	current := !c.closed && o.Seq == c.latest
	c.mu.Unlock()
	if !current {
		droppedCounter.Inc()
		c.logger.Debug("stale lookup dropped", zap.Uint64("seq", o.Seq))
		return
	}
	c.deliver(o)
}
