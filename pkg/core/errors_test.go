package core

import (
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same kind",
			err:    &Error{Kind: KindNotFound, Status: 404, Reason: "Tuition record not found for student"},
			target: ErrNotFound,
			want:   true,
		},
		{
			name:   "wrapped",
			err:    errors.Wrap(&Error{Kind: KindUnauthorized, Status: 401}, "get profile"),
			target: ErrUnauthorized,
			want:   true,
		},
		{
			name:   "different kind",
			err:    &Error{Kind: KindTransport, Status: 502},
			target: ErrNotFound,
			want:   false,
		},
		{
			name:   "plain error",
			err:    fmt.Errorf("boom"),
			target: ErrTransport,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindServerRejected, KindOf(errors.Wrap(NewError(KindServerRejected, "insufficient balance"), "initiate")))
	require.Equal(t, KindTransport, KindOf(fmt.Errorf("connection refused")))
	require.Equal(t, "insufficient balance", ReasonOf(NewError(KindServerRejected, "insufficient balance")))
	require.Equal(t, "", ReasonOf(fmt.Errorf("x")))
}

func TestWithKind(t *testing.T) {
	src := &Error{Kind: KindNotFound, Status: 404, Reason: "tuition not found"}
	got := WithKind(errors.Wrap(src, "initiate"), KindServerRejected)
	require.Equal(t, KindServerRejected, got.Kind)
	require.Equal(t, 404, got.Status)
	require.Equal(t, "tuition not found", got.Reason)

	plain := fmt.Errorf("eof")
	got = WithKind(plain, KindTransport)
	require.Equal(t, KindTransport, got.Kind)
	require.ErrorIs(t, got, plain)
}

func TestError_Error(t *testing.T) {
	require.Equal(t, "server_rejected (status 409): insufficient balance",
		(&Error{Kind: KindServerRejected, Status: 409, Reason: "insufficient balance"}).Error())
	require.Equal(t, "invalid_input: consent required", NewError(KindInvalidInput, "consent required").Error())
}
