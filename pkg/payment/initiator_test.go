package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ibanking/tuitionpay/internal/g"
	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/gateway"
	"github.com/ibanking/tuitionpay/pkg/session"
	"github.com/ibanking/tuitionpay/pkg/tuition"
)

type captured struct {
	body           map[string]json.RawMessage
	idempotencyKey string
}

func newBackend(t *testing.T, hits *atomic.Int32, last *captured) *httptest.Server {
	r := chi.NewRouter()
	r.Get("/tuition/tuition/{studentID}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"tuition_id":"T1","student_id":"523K0017","full_name":"Tran Thi B","amount_due":5000000.0,"status":"unpaid"}`))
	})
	r.Post(DefaultInitiatePath, func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		last.idempotencyKey = req.Header.Get(gateway.IdempotencyKeyHeader)
		require.Nil(t, json.NewDecoder(req.Body).Decode(&last.body))
		var tuitionID string
		require.Nil(t, json.Unmarshal(last.body["tuition_id"], &tuitionID))
		switch tuitionID {
		case "T1":
			_, _ = w.Write([]byte(`{"payment_id":"P1"}`))
		case "POOR":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"Insufficient balance"}`))
		case "GONE":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Tuition is locked by another payment"}`))
		case "EMPTY":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(url string) *gateway.Gateway {
	store := session.NewStore()
	store.Set("token-1")
	return gateway.New(url, store)
}

func TestNewRequest(t *testing.T) {
	bill := &core.TuitionBill{TuitionID: "T1", AmountDue: decimal.NewFromInt(5000000), TermNo: g.Pointer(3)}

	_, err := NewRequest(bill, false)
	require.True(t, errors.Is(err, core.ErrInvalidInput))
	_, err = NewRequest(nil, true)
	require.True(t, errors.Is(err, core.ErrInvalidInput))
	_, err = NewRequest(&core.TuitionBill{}, true)
	require.True(t, errors.Is(err, core.ErrInvalidInput))

	req, err := NewRequest(bill, true)
	require.Nil(t, err)
	require.Equal(t, "T1", req.TuitionID)
	require.True(t, req.Amount.Equal(bill.AmountDue))
	require.Equal(t, 3, *req.TermNo)
}

func TestInitiator_LookupRoundTrip(t *testing.T) {
	var hits atomic.Int32
	var last captured
	srv := newBackend(t, &hits, &last)
	gw := newGateway(srv.URL)

	bill, err := tuition.NewResolver(gw).ResolveTuition(context.Background(), "523K0017")
	require.Nil(t, err)
	req, err := NewRequest(&bill, true)
	require.Nil(t, err)

	res, err := NewInitiator(gw).InitiatePayment(context.Background(), req)
	require.Nil(t, err)
	require.Equal(t, "P1", res.PaymentID)
	require.Equal(t, `"T1"`, string(last.body["tuition_id"]))
	require.Equal(t, `5000000`, string(last.body["amount"]))
	_, hasTerm := last.body["term_no"]
	require.False(t, hasTerm)
	require.Equal(t, IdempotencyKey(req), last.idempotencyKey)
}

func TestInitiator_Failures(t *testing.T) {
	tests := []struct {
		name       string
		req        core.PaymentInitiationRequest
		wantKind   core.ErrorKind
		wantReason string
		wantHits   int32
	}{
		{
			name:     "zero amount",
			req:      core.PaymentInitiationRequest{TuitionID: "T1", Amount: decimal.Zero},
			wantKind: core.KindInvalidAmount,
		},
		{
			name:     "negative amount",
			req:      core.PaymentInitiationRequest{TuitionID: "T1", Amount: decimal.NewFromInt(-5)},
			wantKind: core.KindInvalidAmount,
		},
		{
			name:       "business rejection",
			req:        core.PaymentInitiationRequest{TuitionID: "POOR", Amount: decimal.NewFromInt(10)},
			wantKind:   core.KindServerRejected,
			wantReason: "Insufficient balance",
			wantHits:   1,
		},
		{
			name:       "not found becomes rejection",
			req:        core.PaymentInitiationRequest{TuitionID: "GONE", Amount: decimal.NewFromInt(10)},
			wantKind:   core.KindServerRejected,
			wantReason: "Tuition is locked by another payment",
			wantHits:   1,
		},
		{
			name:     "empty payment id",
			req:      core.PaymentInitiationRequest{TuitionID: "EMPTY", Amount: decimal.NewFromInt(10)},
			wantKind: core.KindTransport,
			wantHits: 1,
		},
		{
			name:     "unavailable",
			req:      core.PaymentInitiationRequest{TuitionID: "DOWN", Amount: decimal.NewFromInt(10)},
			wantKind: core.KindTransport,
			wantHits: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			var last captured
			srv := newBackend(t, &hits, &last)

			_, err := NewInitiator(newGateway(srv.URL)).InitiatePayment(context.Background(), tt.req)
			require.NotNil(t, err)
			require.Equal(t, tt.wantKind, core.KindOf(err))
			if tt.wantReason != "" {
				require.Equal(t, tt.wantReason, core.ReasonOf(err))
			}
			require.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestIdempotencyKey(t *testing.T) {
	a := core.PaymentInitiationRequest{TuitionID: "T1", Amount: decimal.NewFromInt(5000000)}
	b := core.PaymentInitiationRequest{TuitionID: "T1", Amount: decimal.RequireFromString("5000000.00")}
	c := core.PaymentInitiationRequest{TuitionID: "T1", Amount: decimal.NewFromInt(5000000), TermNo: g.Pointer(1)}

	require.Equal(t, IdempotencyKey(a), IdempotencyKey(b))
	require.NotEqual(t, IdempotencyKey(a), IdempotencyKey(c))
}
