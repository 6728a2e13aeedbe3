package contact

import (
	"sort"
	"sync"
)

// ActiveZoneType is the tag type of activity-zone sensors.
const ActiveZoneType = "active-zone"

type activeEntry struct {
	obj      Object
	contacts int
}

// ActiveSet tracks which objects are currently inside an activity zone.
// An object stays active while any of its zone contacts lasts, so a body
// and a sensor owned by the same object count separately.
type ActiveSet struct {
	mu       sync.RWMutex
	active   map[string]*activeEntry
	contacts map[PairKey]string
}

// NewActiveSet creates an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{
		active:   make(map[string]*activeEntry),
		contacts: make(map[PairKey]string),
	}
}

// IsActive reports whether name is inside at least one zone.
func (s *ActiveSet) IsActive(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[name]
	return ok
}

// Contacts returns how many zone contacts keep name active.
func (s *ActiveSet) Contacts(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.active[name]; ok {
		return e.contacts
	}
	return 0
}

// Active returns the names of active objects, sorted.
func (s *ActiveSet) Active() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// add counts the contact key for obj and reports whether obj just became
// active. A key already counted is ignored.
func (s *ActiveSet) add(key PairKey, obj Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[key]; ok {
		return false
	}
	s.contacts[key] = obj.Name()
	e, ok := s.active[obj.Name()]
	if !ok {
		e = &activeEntry{obj: obj}
		s.active[obj.Name()] = e
	}
	e.contacts++
	return e.contacts == 1
}

// remove drops the contact key and reports whether its object just became
// inactive. Keys never added are ignored.
func (s *ActiveSet) remove(key PairKey) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.contacts[key]
	if !ok {
		return nil, false
	}
	delete(s.contacts, key)
	e := s.active[name]
	e.contacts--
	if e.contacts > 0 {
		return e.obj, false
	}
	delete(s.active, name)
	return e.obj, true
}

// WakeFunc wakes or sleeps whatever simulates obj, typically its physics
// body.
type WakeFunc func(obj Object, awake bool)

// ActiveZoneOption configures an ActiveZoneHandler.
type ActiveZoneOption func(*ActiveZoneHandler)

// WithWakeFunc calls fn whenever an object becomes active or inactive.
func WithWakeFunc(fn WakeFunc) ActiveZoneOption {
	return func(h *ActiveZoneHandler) { h.wake = fn }
}

// ActiveZoneHandler activates objects entering an activity zone and puts
// them back to sleep when they leave. Objects implementing Sleeper are
// woken and put to sleep along the way, as is anything a WakeFunc reaches.
type ActiveZoneHandler struct {
	set  *ActiveSet
	wake WakeFunc
}

func NewActiveZoneHandler(set *ActiveSet, opts ...ActiveZoneOption) *ActiveZoneHandler {
	h := &ActiveZoneHandler{set: set}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ActiveZoneHandler) setAwake(obj Object, awake bool) {
	if s, ok := obj.(Sleeper); ok {
		s.SetAwake(awake)
	}
	if h.wake != nil {
		h.wake(obj, awake)
	}
}

func (h *ActiveZoneHandler) BeginContact(rec *Record, _ float64) bool {
	_, other, ok := rec.TagOfType(ActiveZoneType)
	if !ok {
		return false
	}
	if h.set.add(rec.Key(), other) {
		h.setAwake(other, true)
	}
	return true
}

func (h *ActiveZoneHandler) StayContact(*Record, float64) bool { return false }

// EndContact puts the object to sleep once its last zone contact ends.
func (h *ActiveZoneHandler) EndContact(rec *Record, _ float64) bool {
	if _, _, ok := rec.TagOfType(ActiveZoneType); !ok {
		return false
	}
	if obj, last := h.set.remove(rec.Key()); last {
		h.setAwake(obj, false)
	}
	return true
}
