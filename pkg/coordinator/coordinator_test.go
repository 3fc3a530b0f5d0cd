package coordinator

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_HealthzServesOK(t *testing.T) {
	cfg := config.DefaultCoordinator()
	cfg.HTTPAddr = "127.0.0.1:0"
	c := New(cfg)

	srv := httptest.NewServer(c.httpServer.Handler)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCoordinator_MetricsEndpointServed(t *testing.T) {
	cfg := config.DefaultCoordinator()
	c := New(cfg)

	srv := httptest.NewServer(c.httpServer.Handler)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
