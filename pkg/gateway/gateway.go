package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	ht "github.com/ogen-go/ogen/http"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/session"
)

const (
	CorrelationIDHeader  = "X-Correlation-Id"
	IdempotencyKeyHeader = "Idempotency-Key"

	maxBodySize = 1 << 20
)

// credentialStore is the part of session.Store the gateway needs.
type credentialStore interface {
	Get() (session.Credential, bool)
	Clear()
}

// Gateway executes every outbound call to the backend.
// It attaches the stored credential, encodes and decodes JSON and
// converts transport and HTTP failures into *core.Error values.
type Gateway struct {
	baseURL string
	client  ht.Client
	store   credentialStore
	logger  *zap.Logger
	report  func(title string, data map[string]interface{})
}

var _ ht.Client = (*http.Client)(nil)

type Option func(*Gateway)

// WithClient replaces the default *http.Client.
func WithClient(c ht.Client) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// WithTimeout sets the timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.client = &http.Client{Timeout: d}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithReporter sets a hook receiving server and network failures, see sentry.Send.
func WithReporter(report func(title string, data map[string]interface{})) Option {
	return func(g *Gateway) {
		g.report = report
	}
}

func New(baseURL string, store credentialStore, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		store:   store,
		logger:  zap.NewNop(),
		report:  func(string, map[string]interface{}) {},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Authenticated reports whether a usable credential is stored.
func (g *Gateway) Authenticated() bool {
	_, ok := g.store.Get()
	return ok
}

// Request describes a single backend call.
type Request struct {
	Method string
	// Path is appended to the base URL as is, callers escape user input.
	Path string
	// Body is encoded as JSON when not nil.
	Body interface{}
	// Auth requires the stored credential to be attached.
	Auth           bool
	IdempotencyKey string
	// Endpoint labels metrics, Path is used when empty.
	Endpoint string
}

// Do executes r and decodes a successful response into out, which may be nil.
// All failures are *core.Error. A 401 response clears the session store.
func (g *Gateway) Do(ctx context.Context, r Request, out interface{}) error {
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = r.Path
	}
	t := prometheus.NewTimer(requestDuration.WithLabelValues(endpoint))
	defer t.ObserveDuration()

	err := g.do(ctx, r, out)
	if err != nil {
		errorsCounter.WithLabelValues(core.KindOf(err).String()).Inc()
	}
	return err
}

func (g *Gateway) do(ctx context.Context, r Request, out interface{}) error {
	var credential session.Credential
	if r.Auth {
		c, ok := g.store.Get()
		if !ok {
			return &core.Error{Kind: core.KindUnauthorized, Reason: "not authenticated"}
		}
		credential = c
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return &core.Error{Kind: core.KindInvalidInput, Err: errors.Wrap(err, "encode body")}
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, g.baseURL+r.Path, body)
	if err != nil {
		return &core.Error{Kind: core.KindInvalidInput, Err: errors.Wrap(err, "build request")}
	}

	cid := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CorrelationIDHeader, cid)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Auth {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))
	}
	if r.IdempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, r.IdempotencyKey)
	}

	logger := g.logger.With(
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.String("correlation_id", cid),
	)
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn("request failed", zap.Error(err))
		g.report("gateway: request failed", map[string]interface{}{
			"path":           r.Path,
			"correlation_id": cid,
			"error":          err.Error(),
		})
		return &core.Error{Kind: core.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		logger.Warn("read response", zap.Error(err))
		return &core.Error{Kind: core.KindTransport, Status: resp.StatusCode, Err: errors.Wrap(err, "read response")}
	}
	logger.Debug("response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 300 {
		return g.statusError(logger, r, cid, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("decode response", zap.Error(err))
		return &core.Error{Kind: core.KindTransport, Status: resp.StatusCode, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func (g *Gateway) statusError(logger *zap.Logger, r Request, cid string, status int, body []byte) *core.Error {
	e := &core.Error{Status: status, Reason: errorDetail(body)}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = core.KindUnauthorized
		g.store.Clear()
		logger.Info("credential rejected, session cleared")
	case status == http.StatusNotFound:
		e.Kind = core.KindNotFound
	case status >= 500:
		e.Kind = core.KindTransport
		logger.Error("server error", zap.Int("status", status), zap.String("detail", e.Reason))
		g.report("gateway: server error", map[string]interface{}{
			"path":           r.Path,
			"status":         status,
			"correlation_id": cid,
			"detail":         e.Reason,
		})
	case status >= 400:
		e.Kind = core.KindServerRejected
		if e.Reason == "" {
			e.Reason = http.StatusText(status)
		}
	default:
		e.Kind = core.KindTransport
	}
	return e
}
