package health

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tengfone/clockblocker/internal/metrics"
)

func TestHealthReportsPlatform(t *testing.T) {
	srv := httptest.NewServer(New(":0", "telegram").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "telegram", got.Platform)
}

func TestMetricsEndpointExposesBotMetrics(t *testing.T) {
	metrics.TriggersTotal.WithLabelValues("telegram", "allowed").Inc()

	srv := httptest.NewServer(New(":0", "telegram").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "clockblocker_triggers_total")
}

func TestHealthRejectsOtherMethods(t *testing.T) {
	srv := httptest.NewServer(New(":0", "discord").Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
