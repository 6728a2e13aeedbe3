package world

import (
	"context"
	"fmt"
	"time"

	"github.com/lguibr/touchstone/bollywood"
)

// ActorOption configures an Actor.
type ActorOption func(*Actor)

// WithTicker makes the actor step itself every period.
func WithTicker(period time.Duration) ActorOption {
	return func(a *Actor) { a.period = period }
}

// Actor owns a Simulation. Every mutation and every step arrives as a
// message, so the contact engine never runs concurrently with itself while
// other goroutines keep adding bodies or systems.
type Actor struct {
	sim          *Simulation
	period       time.Duration
	ticker       *time.Ticker
	stopTickerCh chan struct{}
	selfPID      *bollywood.PID
}

// NewActorProducer creates a producer for an Actor driving sim.
func NewActorProducer(sim *Simulation, opts ...ActorOption) bollywood.Producer {
	return func() bollywood.Actor {
		a := &Actor{
			sim:          sim,
			stopTickerCh: make(chan struct{}),
		}
		for _, opt := range opts {
			opt(a)
		}
		return a
	}
}

// Spawn starts an Actor for sim on engine.
func Spawn(engine *bollywood.Engine, sim *Simulation, opts ...ActorOption) *bollywood.PID {
	return engine.Spawn(bollywood.NewProps(NewActorProducer(sim, opts...)))
}

// Receive handles one message. Programming errors raised by dispatch
// systems propagate as panics; the engine stops the actor and replies to a
// pending Ask with a *bollywood.PanicError.
func (a *Actor) Receive(ctx bollywood.Context) {
	switch m := ctx.Message().(type) {
	case bollywood.Started:
		a.selfPID = ctx.Self()
		a.sim.logger.Printf("world %s: started", a.selfPID)
		if a.period > 0 {
			a.ticker = time.NewTicker(a.period)
			go a.runTicker(ctx.Engine(), a.selfPID)
		}

	case internalTick:
		a.step(context.Background(), 0)

	case StepTick:
		ctx.Reply(a.step(context.Background(), m.DT))

	case RawBegin:
		a.sim.listener.OnRawBegin(m.A, m.B)

	case RawEnd:
		a.sim.listener.OnRawEnd(m.A, m.B)

	case RegisterSystem:
		a.reply(ctx, a.sim.Register(m.System))

	case RegisterTrigger:
		a.reply(ctx, a.sim.triggers.Register(m.Trigger))

	case AddBody:
		_, err := a.sim.AddBody(m.Object, m.Spec)
		a.reply(ctx, err)

	case RemoveBody:
		a.reply(ctx, a.sim.RemoveBody(m.Name))

	case MoveBody:
		a.reply(ctx, a.sim.MoveBody(m.Name, m.X, m.Y))

	case SnapshotRequest:
		ctx.Reply(a.sim.Snapshot())

	case bollywood.Stopping:
		a.stopTicker()
		a.sim.logger.Printf("world %s: stopping after %d steps", a.selfPID, a.sim.steps)

	case bollywood.Stopped:

	default:
		a.sim.logger.Printf("world %s: unknown message %T", a.selfPID, m)
		a.reply(ctx, fmt.Errorf("world: unknown message %T", m))
	}
}

func (a *Actor) step(ctx context.Context, dt float64) int {
	if dt <= 0 {
		dt = a.sim.cfg.StepSeconds()
	}
	return a.sim.Step(ctx, dt)
}

// reply answers an Ask; errors on plain sends are logged.
func (a *Actor) reply(ctx bollywood.Context, err error) {
	if ctx.RequestID() != "" {
		ctx.Reply(err)
		return
	}
	if err != nil {
		a.sim.logger.Printf("world %s: %T: %v", a.selfPID, ctx.Message(), err)
	}
}

func (a *Actor) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
	}
	select {
	case <-a.stopTickerCh:
	default:
		close(a.stopTickerCh)
	}
}

// runTicker only sends messages; the step itself runs in Receive.
func (a *Actor) runTicker(engine *bollywood.Engine, self *bollywood.PID) {
	for {
		select {
		case <-a.stopTickerCh:
			return
		case <-a.ticker.C:
			engine.Send(self, internalTick{}, nil)
		}
	}
}
