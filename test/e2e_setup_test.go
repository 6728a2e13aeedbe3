// File: test/e2e_setup_test.go
package test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/touchstone/bollywood"
	"github.com/lguibr/touchstone/monitor"
	"github.com/lguibr/touchstone/utils"
	"github.com/lguibr/touchstone/world"
	"github.com/stretchr/testify/require"
)

// E2ESetupResult holds the results of the setup function.
type E2ESetupResult struct {
	Engine   *bollywood.Engine
	WorldPID *bollywood.PID
	Sim      *world.Simulation
	Hub      *monitor.Hub
	Server   *httptest.Server
	WsURL    string
	Origin   string
	Cfg      utils.Config
}

// SetupE2ETest starts a world actor observed by a monitor hub and serves
// the monitor over httptest. The world only steps when asked.
func SetupE2ETest(t *testing.T, cfg utils.Config) E2ESetupResult {
	t.Helper()

	engine := bollywood.NewEngine()
	sim := world.New(cfg)
	hub := monitor.NewHub(64)
	sim.Dispatcher().Observe(hub)

	worldPID := world.Spawn(engine, sim)
	require.NotNil(t, worldPID, "world PID should not be nil")

	s := httptest.NewServer(monitor.NewServer(hub, engine, worldPID).Handler())

	return E2ESetupResult{
		Engine:   engine,
		WorldPID: worldPID,
		Sim:      sim,
		Hub:      hub,
		Server:   s,
		WsURL:    "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe",
		Origin:   "http://localhost/",
		Cfg:      cfg,
	}
}

// TeardownE2ETest shuts down the engine and closes the server.
func TeardownE2ETest(t *testing.T, setupResult E2ESetupResult, shutdownTimeout time.Duration) {
	t.Helper()
	if setupResult.Server != nil {
		setupResult.Server.Close()
	}
	if setupResult.Engine != nil {
		setupResult.Engine.Shutdown(shutdownTimeout)
	}
}

func e2eConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.GravityY = 0
	cfg.PoolCapacity = 2
	return cfg
}
