package contact

import (
	"errors"
	"fmt"
	"sync"
)

// TriggerType is the tag type marking a shape as a trigger.
const TriggerType = "trigger"

var (
	ErrDuplicateTrigger = errors.New("contact: trigger already registered")
	ErrTriggerName      = errors.New("contact: trigger name must not be empty")
	// ErrTriggerNotFound is the panic value when a trigger-tagged shape has
	// no registered trigger.
	ErrTriggerNotFound = errors.New("contact: trigger not found")
	// ErrTriggerOwner is the panic value when the registered trigger belongs
	// to another object than the shape it was found through.
	ErrTriggerOwner = errors.New("contact: trigger bound to another object")
)

// Trigger reacts to contacts of one named shape owned by one object.
type Trigger interface {
	Name() string
	Owner() string
	BeginContact(a, b Object, dt float64) bool
	StayContact(a, b Object, dt float64) bool
	EndContact(a, b Object, dt float64) bool
}

// BaseTrigger is a trigger without custom logic: every callback returns the
// type filter's verdict. Embed it and override the callbacks you need.
type BaseTrigger struct {
	name   string
	owner  string
	filter *TypeFilter
}

// NewBaseTrigger names a trigger owned by owner; an empty owner matches any
// object carrying the trigger shape.
func NewBaseTrigger(name, owner string, filter *TypeFilter) BaseTrigger {
	return BaseTrigger{name: name, owner: owner, filter: filter}
}

func (t BaseTrigger) Name() string        { return t.name }
func (t BaseTrigger) Owner() string       { return t.owner }
func (t BaseTrigger) Filter() *TypeFilter { return t.filter }

func (t BaseTrigger) BeginContact(a, b Object, _ float64) bool { return t.filter.Check(a, b) }
func (t BaseTrigger) StayContact(a, b Object, _ float64) bool  { return t.filter.Check(a, b) }
func (t BaseTrigger) EndContact(a, b Object, _ float64) bool   { return t.filter.Check(a, b) }

// TriggerRegistry maps trigger shape names to triggers.
type TriggerRegistry struct {
	mu       sync.RWMutex
	triggers map[string]Trigger
}

func NewTriggerRegistry() *TriggerRegistry {
	return &TriggerRegistry{triggers: make(map[string]Trigger)}
}

// Register binds t under t.Name().
func (r *TriggerRegistry) Register(t Trigger) error {
	if t.Name() == "" {
		return ErrTriggerName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.triggers[t.Name()]; exists {
		return fmt.Errorf("register trigger %q: %w", t.Name(), ErrDuplicateTrigger)
	}
	r.triggers[t.Name()] = t
	return nil
}

// Unregister removes the trigger bound under name, if any.
func (r *TriggerRegistry) Unregister(name string) {
	r.mu.Lock()
	delete(r.triggers, name)
	r.mu.Unlock()
}

// Lookup returns the trigger bound under name.
func (r *TriggerRegistry) Lookup(name string) (Trigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.triggers[name]
	return t, ok
}

func (r *TriggerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.triggers)
}

// TriggerSystem forwards contacts involving a trigger-tagged shape to the
// trigger registered under that shape's name. Register it with Full caps.
type TriggerSystem struct {
	triggers *TriggerRegistry
}

func NewTriggerSystem(triggers *TriggerRegistry) *TriggerSystem {
	return &TriggerSystem{triggers: triggers}
}

func (s *TriggerSystem) BeginContact(rec *Record, dt float64) bool {
	t := s.find(rec)
	if t == nil {
		return false
	}
	return t.BeginContact(rec.ObjectA, rec.ObjectB, dt)
}

func (s *TriggerSystem) StayContact(rec *Record, dt float64) bool {
	t := s.find(rec)
	if t == nil {
		return false
	}
	return t.StayContact(rec.ObjectA, rec.ObjectB, dt)
}

func (s *TriggerSystem) EndContact(rec *Record, dt float64) bool {
	t := s.find(rec)
	if t == nil {
		return false
	}
	return t.EndContact(rec.ObjectA, rec.ObjectB, dt)
}

// find returns the trigger for rec, or nil when neither or both shapes are
// triggers. A trigger shape without a matching registered trigger panics.
func (s *TriggerSystem) find(rec *Record) Trigger {
	aIs := rec.TagA != nil && rec.TagA.Type() == TriggerType
	bIs := rec.TagB != nil && rec.TagB.Type() == TriggerType
	if aIs == bIs {
		return nil
	}

	tag, owner := rec.TagA, rec.ObjectA
	if bIs {
		tag, owner = rec.TagB, rec.ObjectB
	}

	t, ok := s.triggers.Lookup(tag.Name())
	if !ok {
		panic(fmt.Errorf("%w: %q on %q", ErrTriggerNotFound, tag.Name(), owner.Name()))
	}
	if t.Owner() != "" && t.Owner() != owner.Name() {
		panic(fmt.Errorf("%w: %q is owned by %q, shape resolves to %q", ErrTriggerOwner, tag.Name(), t.Owner(), owner.Name()))
	}
	return t
}
