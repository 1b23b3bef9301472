package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IdempotentAndExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg), "second registration is a no-op")

	before := testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "ok"))
	AuthAttempts.WithLabelValues("login", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AuthAttempts.WithLabelValues("login", "ok")))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "auth_attempts_total")
}

func TestPoolCollector_NilPool(t *testing.T) {
	c := NewPoolCollector(nil)
	ch := make(chan prometheus.Metric, 4)
	c.Collect(ch)
	close(ch)
	assert.Len(t, ch, 0)
}
