package contact

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnsupportedTransition is wrapped by the panic raised when a system
	// is asked to run a transition its capabilities exclude.
	ErrUnsupportedTransition = errors.New("contact: transition not supported by system")
	ErrNoCapability          = errors.New("contact: system has no capability")
	ErrMissingHandler        = errors.New("contact: handler does not implement capability")
	ErrDuplicateSystem       = errors.New("contact: system already registered")
	ErrSystemName            = errors.New("contact: system name must not be empty")
)

// BeginHandler accepts a new contact. Returning false retries next step.
type BeginHandler interface {
	BeginContact(rec *Record, dt float64) bool
}

// StayHandler is called every step while the contact lasts. Its result is
// currently not used to change state.
type StayHandler interface {
	StayContact(rec *Record, dt float64) bool
}

// EndHandler confirms an ended contact. Returning true releases the record;
// false retries next step.
type EndHandler interface {
	EndContact(rec *Record, dt float64) bool
}

// Handler implements the whole lifecycle.
type Handler interface {
	BeginHandler
	StayHandler
	EndHandler
}

// Capability says which states a system handles.
type Capability uint8

const (
	CapBegin Capability = 1 << iota
	CapStay
	CapEnd

	Full = CapBegin | CapStay | CapEnd
	// BeginOnly systems skip Stay and End records; they never release a
	// record themselves, so another system must confirm the end.
	BeginOnly = CapBegin
	// StayOnly systems only observe ongoing contacts and never release a
	// record either.
	StayOnly = CapStay
	BeginEnd = CapBegin | CapEnd
)

func (c Capability) Has(o Capability) bool { return c&o == o }

func (c Capability) String() string {
	s := ""
	for _, p := range []struct {
		c    Capability
		name string
	}{{CapBegin, "begin"}, {CapStay, "stay"}, {CapEnd, "end"}} {
		if c.Has(p.c) {
			if s != "" {
				s += "+"
			}
			s += p.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

func capabilityFor(s State) Capability {
	switch s {
	case Begin:
		return CapBegin
	case Stay:
		return CapStay
	case End:
		return CapEnd
	}
	return 0
}

// TransitionError describes a call to a transition outside a system's
// capabilities.
type TransitionError struct {
	System string
	State  State
	Caps   Capability
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("contact: system %q (%s) cannot handle %s", e.System, e.Caps, e.State)
}

func (e *TransitionError) Unwrap() error { return ErrUnsupportedTransition }

// SystemOption configures a System.
type SystemOption func(*System)

// WithFilter gates the system on the objects' types.
func WithFilter(f *TypeFilter) SystemOption {
	return func(s *System) { s.filter = f }
}

// System drives the contact state machine for one handler.
type System struct {
	name   string
	caps   Capability
	filter *TypeFilter

	begin BeginHandler
	stay  StayHandler
	end   EndHandler
}

// NewSystem binds handler h to the states in caps. h must implement the
// handler interface of every capability requested.
func NewSystem(name string, h interface{}, caps Capability, opts ...SystemOption) (*System, error) {
	if name == "" {
		return nil, ErrSystemName
	}
	if caps&Full == 0 {
		return nil, fmt.Errorf("system %q: %w", name, ErrNoCapability)
	}
	s := &System{name: name, caps: caps & Full}
	var ok bool
	if caps.Has(CapBegin) {
		if s.begin, ok = h.(BeginHandler); !ok {
			return nil, fmt.Errorf("system %q: begin: %w", name, ErrMissingHandler)
		}
	}
	if caps.Has(CapStay) {
		if s.stay, ok = h.(StayHandler); !ok {
			return nil, fmt.Errorf("system %q: stay: %w", name, ErrMissingHandler)
		}
	}
	if caps.Has(CapEnd) {
		if s.end, ok = h.(EndHandler); !ok {
			return nil, fmt.Errorf("system %q: end: %w", name, ErrMissingHandler)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *System) Name() string             { return s.name }
func (s *System) Capabilities() Capability { return s.caps }
func (s *System) Filter() *TypeFilter      { return s.filter }

func (s *System) guard(st State) {
	if !s.caps.Has(capabilityFor(st)) {
		panic(&TransitionError{System: s.name, State: st, Caps: s.caps})
	}
}

// Begin calls the begin handler directly. It panics with a *TransitionError
// if the system was not registered for CapBegin.
func (s *System) Begin(rec *Record, dt float64) bool {
	s.guard(Begin)
	return s.begin.BeginContact(rec, dt)
}

// Stay calls the stay handler directly; see Begin.
func (s *System) Stay(rec *Record, dt float64) bool {
	s.guard(Stay)
	return s.stay.StayContact(rec, dt)
}

// End calls the end handler directly; see Begin.
func (s *System) End(rec *Record, dt float64) bool {
	s.guard(End)
	return s.end.EndContact(rec, dt)
}

// Process runs one step of the state machine on rec and reports the
// transition it caused, if any.
func (s *System) Process(rec *Record, dt float64) (Transition, bool) {
	if rec.mustDelete || !s.filter.Check(rec.ObjectA, rec.ObjectB) {
		return Transition{}, false
	}
	if !s.caps.Has(capabilityFor(rec.State)) {
		return Transition{}, false
	}

	switch rec.State {
	case Begin:
		if s.Begin(rec, dt) {
			rec.State = Stay
			rec.begun = true
			return s.transition(rec, Begin, Stay, false), true
		}
	case Stay:
		s.Stay(rec, dt)
	case End:
		if s.End(rec, dt) {
			rec.markDelete()
			return s.transition(rec, End, End, true), true
		}
	}
	return Transition{}, false
}

func (s *System) transition(rec *Record, from, to State, deleted bool) Transition {
	return Transition{
		Key:     rec.key.String(),
		System:  s.name,
		From:    from,
		To:      to,
		Deleted: deleted,
		ObjectA: rec.ObjectA.Name(),
		ObjectB: rec.ObjectB.Name(),
	}
}

// Transition is a state change caused by a dispatch system.
type Transition struct {
	Key     string `json:"key"`
	System  string `json:"system"`
	From    State  `json:"from"`
	To      State  `json:"to"`
	Deleted bool   `json:"deleted"`
	ObjectA string `json:"objectA"`
	ObjectB string `json:"objectB"`
}

// Observer receives the transitions of a step once the step has finished.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// Dispatcher runs registered systems over a Listener's records once per
// simulation step.
type Dispatcher struct {
	listener  *Listener
	systems   []*System
	observers []Observer
	tracer    trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTracerProvider takes step spans from tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

const tracerName = "github.com/lguibr/touchstone/contact"

// NewDispatcher creates a dispatcher over listener's records.
func NewDispatcher(listener *Listener, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		listener: listener,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register appends sys. Systems run in registration order.
func (d *Dispatcher) Register(sys *System) error {
	for _, s := range d.systems {
		if s.name == sys.name {
			return fmt.Errorf("register %q: %w", sys.name, ErrDuplicateSystem)
		}
	}
	d.systems = append(d.systems, sys)
	return nil
}

// Observe adds an observer for transitions.
func (d *Dispatcher) Observe(o Observer) {
	d.observers = append(d.observers, o)
}

// Systems returns the registered system names in order.
func (d *Dispatcher) Systems() []string {
	names := make([]string, len(d.systems))
	for i, s := range d.systems {
		names[i] = s.name
	}
	return names
}

// Step lets every system process every record once. A record released by
// one system's end handler is skipped by every system after it. Step
// returns the number of transitions.
func (d *Dispatcher) Step(ctx context.Context, dt float64) int {
	_, span := d.tracer.Start(ctx, "contact.dispatch.step", trace.WithAttributes(
		attribute.Int("contact.records", d.listener.Len()),
		attribute.Int("contact.systems", len(d.systems)),
	))
	defer span.End()

	var transitions []Transition
	for _, sys := range d.systems {
		d.listener.Each(func(rec *Record) {
			if t, ok := sys.Process(rec, dt); ok {
				transitions = append(transitions, t)
			}
		})
	}

	for _, t := range transitions {
		for _, o := range d.observers {
			o.OnTransition(t)
		}
	}
	span.SetAttributes(attribute.Int("contact.transitions", len(transitions)))
	return len(transitions)
}
