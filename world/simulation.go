// Package world couples a box2d world to the contact engine and serializes
// access to it through a bollywood actor.
package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/ByteArena/box2d"
	"github.com/lguibr/touchstone/contact"
	"github.com/lguibr/touchstone/physics"
	"github.com/lguibr/touchstone/utils"
)

var (
	ErrUnknownBody = errors.New("unknown body")
	ErrNilSystem   = errors.New("nil system")
)

// Option configures a Simulation.
type Option func(*Simulation)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// Simulation owns one physics world and the contact engine fed by it.
// It is not safe for concurrent use; Actor serializes access.
type Simulation struct {
	cfg        utils.Config
	world      *box2d.B2World
	objects    *contact.Registry
	triggers   *contact.TriggerRegistry
	listener   *contact.Listener
	dispatcher *contact.Dispatcher
	bridge     *physics.Bridge
	bodies     map[string]*box2d.B2Body
	steps      uint64
	logger     *log.Logger
}

// New builds a simulation from cfg. A trigger system is registered first so
// triggers react before any user system.
func New(cfg utils.Config, opts ...Option) *Simulation {
	s := &Simulation{
		cfg:      cfg,
		objects:  contact.NewRegistry(),
		triggers: contact.NewTriggerRegistry(),
		bodies:   make(map[string]*box2d.B2Body),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	policy := contact.CleanupOne
	if cfg.CleanupAll {
		policy = contact.CleanupAll
	}
	s.listener = contact.NewListener(s.objects,
		contact.WithLogger(s.logger),
		contact.WithDebug(cfg.Debug),
		contact.WithCleanupPolicy(policy),
		contact.WithPoolCapacity(cfg.PoolCapacity),
	)
	s.dispatcher = contact.NewDispatcher(s.listener)

	triggers, err := contact.NewSystem("triggers", contact.NewTriggerSystem(s.triggers), contact.Full)
	if err != nil {
		panic(err)
	}
	if err := s.dispatcher.Register(triggers); err != nil {
		panic(err)
	}

	w := box2d.MakeB2World(box2d.MakeB2Vec2(cfg.GravityX, cfg.GravityY))
	s.world = &w
	s.bridge = physics.NewBridge(s.listener)
	s.world.SetContactListener(s.bridge)
	return s
}

func (s *Simulation) Registry() *contact.Registry        { return s.objects }
func (s *Simulation) Triggers() *contact.TriggerRegistry { return s.triggers }
func (s *Simulation) Listener() *contact.Listener        { return s.listener }
func (s *Simulation) Dispatcher() *contact.Dispatcher    { return s.dispatcher }
func (s *Simulation) Physics() *box2d.B2World            { return s.world }
func (s *Simulation) Steps() uint64                      { return s.steps }

func (s *Simulation) Body(name string) (*box2d.B2Body, bool) {
	b, ok := s.bodies[name]
	return b, ok
}

// Register adds a dispatch system after the ones already registered.
func (s *Simulation) Register(sys *contact.System) error {
	if sys == nil {
		return ErrNilSystem
	}
	return s.dispatcher.Register(sys)
}

// AddBody registers obj and spawns its body. Fixture tags should resolve
// to obj.Name(), either directly or through their owner.
func (s *Simulation) AddBody(obj contact.Object, spec physics.BodySpec) (*box2d.B2Body, error) {
	if err := s.objects.Register(obj); err != nil {
		return nil, err
	}
	body, err := physics.Spawn(s.world, spec)
	if err != nil {
		s.objects.Unregister(obj.Name())
		return nil, fmt.Errorf("add body %q: %w", obj.Name(), err)
	}
	s.bodies[obj.Name()] = body
	return body, nil
}

// RemoveBody destroys the named body. box2d reports its touching contacts
// as ended while the object is still registered, so they reach End.
func (s *Simulation) RemoveBody(name string) error {
	body, ok := s.bodies[name]
	if !ok {
		return fmt.Errorf("remove %q: %w", name, ErrUnknownBody)
	}
	s.world.DestroyBody(body)
	delete(s.bodies, name)
	s.objects.Unregister(name)
	return nil
}

// MoveBody teleports the named body.
func (s *Simulation) MoveBody(name string, x, y float64) error {
	body, ok := s.bodies[name]
	if !ok {
		return fmt.Errorf("move %q: %w", name, ErrUnknownBody)
	}
	physics.MoveTo(body, x, y)
	return nil
}

// Step advances physics by dt, which delivers raw contact events to the
// listener, then runs one dispatch pass. With CleanupAfterStep set, records
// released during the pass are freed before Step returns. It returns the
// number of transitions.
func (s *Simulation) Step(ctx context.Context, dt float64) int {
	s.world.Step(dt, s.cfg.VelocityIterations, s.cfg.PositionIterations)
	n := s.dispatcher.Step(ctx, dt)
	if s.cfg.CleanupAfterStep {
		if freed := s.listener.Cleanup(); freed > 0 && s.cfg.Debug {
			s.logger.Printf("step %d: freed %d contacts", s.steps, freed)
		}
	}
	s.steps++
	return n
}

// Snapshot is a copy of the simulation's contact state.
type Snapshot struct {
	Step     uint64               `json:"step"`
	Objects  []string             `json:"objects"`
	Systems  []string             `json:"systems"`
	Contacts []contact.RecordView `json:"contacts"`
	Pool     contact.PoolStats    `json:"pool"`
}

func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Step:     s.steps,
		Objects:  s.objects.Names(),
		Systems:  s.dispatcher.Systems(),
		Contacts: s.listener.Snapshot(),
		Pool:     s.listener.PoolStats(),
	}
}

// ActiveZoneSystem builds a dispatch system that wakes the bodies of
// objects entering an activity zone and puts them to sleep once their last
// zone contact ends. Register it with Register or a RegisterSystem message.
func (s *Simulation) ActiveZoneSystem(name string, set *contact.ActiveSet) (*contact.System, error) {
	h := contact.NewActiveZoneHandler(set, contact.WithWakeFunc(s.wakeBody))
	return contact.NewSystem(name, h, contact.BeginEnd)
}

// wakeBody runs during Step, on the goroutine that owns s.
func (s *Simulation) wakeBody(obj contact.Object, awake bool) {
	if body, ok := s.bodies[obj.Name()]; ok {
		body.SetAwake(awake)
	}
}
