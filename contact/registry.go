package contact

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrObjectName      = errors.New("contact: object name must not be empty")
	ErrDuplicateObject = errors.New("contact: object already registered")
)

// Object is a logical game object that can take part in a contact.
type Object interface {
	Name() string
	Type() string
}

// Sleeper is implemented by objects whose physical body can be put to sleep
// and woken up (see ActiveZoneHandler).
type Sleeper interface {
	SetAwake(awake bool)
}

// Entity is the default Object implementation.
type Entity struct {
	name string
	typ  string

	mu    sync.Mutex
	awake bool
}

// NewEntity creates an entity. Entities start awake.
func NewEntity(name, typ string) *Entity {
	return &Entity{name: name, typ: typ, awake: true}
}

func (e *Entity) Name() string { return e.name }
func (e *Entity) Type() string { return e.typ }

func (e *Entity) SetAwake(awake bool) {
	e.mu.Lock()
	e.awake = awake
	e.mu.Unlock()
}

func (e *Entity) Awake() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.awake
}

// Registry maps object names to live objects. It is filled by whatever
// builds the map (possibly on a loader goroutine) and read by the Listener,
// hence the lock.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]Object)}
}

// Register adds obj under obj.Name().
func (r *Registry) Register(obj Object) error {
	name := obj.Name()
	if name == "" {
		return ErrObjectName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateObject)
	}
	r.objects[name] = obj
	return nil
}

// Unregister removes name and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[name]
	delete(r.objects, name)
	return ok
}

// Lookup returns the object registered under name.
func (r *Registry) Lookup(name string) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Resolve finds the object a shape tag belongs to. A nil tag never resolves.
func (r *Registry) Resolve(tag *Tag) (Object, bool) {
	if tag == nil {
		return nil, false
	}
	return r.Lookup(tag.ResolveName())
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Clear drops every object, e.g. on map teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.objects = make(map[string]Object)
	r.mu.Unlock()
}
