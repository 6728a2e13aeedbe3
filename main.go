package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguibr/touchstone/bollywood"
	"github.com/lguibr/touchstone/contact"
	"github.com/lguibr/touchstone/monitor"
	"github.com/lguibr/touchstone/physics"
	"github.com/lguibr/touchstone/script"
	"github.com/lguibr/touchstone/utils"
	"github.com/lguibr/touchstone/world"
)

const spikeScript = `
function begin_contact(a, b, dt)
  log(a.name .. " touched " .. b.name)
  return true
end

function end_contact(a, b, dt)
  log(a.name .. " left " .. b.name)
  return true
end
`

func main() {
	logger := log.New(os.Stdout, "touchstone ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(ctx, cfg)
	if err != nil {
		logger.Fatalf("tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	engine := bollywood.NewEngine()
	engine.SetLogger(logger)

	sim := world.New(cfg, world.WithLogger(logger))
	hub := monitor.NewHub(256)
	sim.Dispatcher().Observe(hub)

	worldPID := world.Spawn(engine, sim, world.WithTicker(cfg.TickPeriod))
	if worldPID == nil {
		logger.Fatal("world actor failed to spawn")
	}

	if err := loadScene(engine, worldPID, sim, logger); err != nil {
		logger.Fatalf("scene: %v", err)
	}

	var srv *http.Server
	if cfg.MonitorAddr != "" {
		srv = &http.Server{
			Addr:    cfg.MonitorAddr,
			Handler: monitor.NewServer(hub, engine, worldPID, monitor.WithLogger(logger)).Handler(),
		}
		go func() {
			logger.Printf("monitor listening on %s", cfg.MonitorAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("monitor: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Println("shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	engine.Shutdown(2 * time.Second)
}

// loadScene drops a hero through a spike sensor onto the ground, inside
// an activity zone. Every message goes through the world actor.
func loadScene(engine *bollywood.Engine, worldPID *bollywood.PID, sim *world.Simulation, logger *log.Logger) error {
	spike, err := script.NewLuaTrigger("spike", "", spikeScript, nil, script.WithLogger(logger))
	if err != nil {
		return err
	}

	zones := contact.NewActiveSet()
	zoneSystem, err := sim.ActiveZoneSystem("active-zones", zones)
	if err != nil {
		return err
	}

	messages := []interface{}{
		world.RegisterTrigger{Trigger: spike},
		world.RegisterSystem{System: zoneSystem},
		world.AddBody{Object: contact.NewEntity("ground", "ground"), Spec: physics.BodySpec{
			Kind: physics.Static, Y: -2,
			Fixtures: []physics.FixtureSpec{{Tag: contact.MustTag("ground", "ground", ""), HalfWidth: 10, HalfHeight: 0.5}},
		}},
		world.AddBody{Object: contact.NewEntity("spike", contact.TriggerType), Spec: physics.BodySpec{
			Kind: physics.Static, Y: -1,
			Fixtures: []physics.FixtureSpec{{Tag: contact.MustTag("spike", contact.TriggerType, ""), HalfWidth: 0.5, HalfHeight: 0.5, Sensor: true}},
		}},
		world.AddBody{Object: contact.NewEntity("zone", contact.ActiveZoneType), Spec: physics.BodySpec{
			Kind: physics.Static,
			Fixtures: []physics.FixtureSpec{{Tag: contact.MustTag("zone", contact.ActiveZoneType, ""), HalfWidth: 8, HalfHeight: 8, Sensor: true}},
		}},
		world.AddBody{Object: contact.NewEntity("hero", "player"), Spec: physics.BodySpec{
			Kind: physics.Dynamic, Y: 5,
			Fixtures: []physics.FixtureSpec{
				{Tag: contact.MustTag("hero", "player", ""), Radius: 0.5, Density: 1},
				{Tag: contact.MustTag("hero-feet", "player", "hero"), HalfWidth: 0.3, HalfHeight: 0.1, Sensor: true},
			},
		}},
	}
	for _, msg := range messages {
		if _, err := engine.Ask(worldPID, msg, time.Second); err != nil {
			return err
		}
	}
	return nil
}
