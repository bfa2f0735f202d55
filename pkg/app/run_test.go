package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogger(t *testing.T) {
	lg := Logger("DEBUG")
	require.True(t, lg.Core().Enabled(zap.DebugLevel))

	lg = Logger("warn")
	require.False(t, lg.Core().Enabled(zap.InfoLevel))
	require.True(t, lg.Core().Enabled(zap.WarnLevel))

	require.Panics(t, func() { Logger("loud") })
}

func TestMetricsHandler(t *testing.T) {
	srv := httptest.NewServer(MetricsHandler())
	defer srv.Close()

	for path, want := range map[string]string{
		"/health":  `{"status":"ok"}`,
		"/metrics": "go_goroutines",
	} {
		resp, err := http.Get(srv.URL + path)
		require.Nil(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Nil(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), want)
	}
}

func TestStartMetricsDisabled(t *testing.T) {
	require.Nil(t, StartMetrics(0, zap.NewNop()))
	require.Nil(t, Shutdown(zap.NewNop(), nil))
}
