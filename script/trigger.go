// Package script implements triggers whose reactions are written in Lua.
package script

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/lguibr/touchstone/contact"
)

const (
	beginFunc = "begin_contact"
	stayFunc  = "stay_contact"
	endFunc   = "end_contact"
)

// Option configures a LuaTrigger.
type Option func(*LuaTrigger)

// WithLogger receives runtime script errors and output of the Lua log() helper.
func WithLogger(l *log.Logger) Option {
	return func(t *LuaTrigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// LuaTrigger is a contact.Trigger backed by a Lua chunk. The chunk may
// define begin_contact, stay_contact and end_contact, each called as
// fn(a, b, dt) with a and b tables of the form {name=..., type=...}.
// A missing function falls back to the embedded BaseTrigger. Contacts the
// filter rejects never reach the script.
type LuaTrigger struct {
	contact.BaseTrigger

	mu     sync.Mutex
	state  *lua.State
	logger *log.Logger
}

var _ contact.Trigger = (*LuaTrigger)(nil)

// NewLuaTrigger compiles and runs source once so its globals are defined.
func NewLuaTrigger(name, owner, source string, filter *contact.TypeFilter, opts ...Option) (*LuaTrigger, error) {
	t := &LuaTrigger{
		BaseTrigger: contact.NewBaseTrigger(name, owner, filter),
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}

	state := lua.NewState()
	lua.OpenLibraries(state)
	state.Register("log", t.luaLog)

	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load trigger %q: %w", name, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run trigger %q: %w", name, err)
	}
	t.state = state
	return t, nil
}

func (t *LuaTrigger) luaLog(state *lua.State) int {
	t.logger.Printf("[lua %s] %s", t.Name(), lua.CheckString(state, 1))
	return 0
}

// Defines reports whether the chunk defines the named global function.
func (t *LuaTrigger) Defines(fn string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Global(fn)
	defined := t.state.IsFunction(-1)
	t.state.Pop(1)
	return defined
}

func (t *LuaTrigger) BeginContact(a, b contact.Object, dt float64) bool {
	return t.call(beginFunc, a, b, dt, t.BaseTrigger.BeginContact)
}

func (t *LuaTrigger) StayContact(a, b contact.Object, dt float64) bool {
	return t.call(stayFunc, a, b, dt, t.BaseTrigger.StayContact)
}

func (t *LuaTrigger) EndContact(a, b contact.Object, dt float64) bool {
	return t.call(endFunc, a, b, dt, t.BaseTrigger.EndContact)
}

func (t *LuaTrigger) call(fn string, a, b contact.Object, dt float64, fallback func(a, b contact.Object, dt float64) bool) bool {
	if !t.Filter().Check(a, b) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	top := t.state.Top()
	defer t.state.SetTop(top)

	t.state.Global(fn)
	if !t.state.IsFunction(-1) {
		return fallback(a, b, dt)
	}
	pushObject(t.state, a)
	pushObject(t.state, b)
	t.state.PushNumber(dt)
	if err := t.state.ProtectedCall(3, 1, 0); err != nil {
		t.logger.Printf("trigger %s: %s: %v", t.Name(), fn, err)
		return false
	}
	return t.state.ToBoolean(-1)
}

func pushObject(state *lua.State, obj contact.Object) {
	if obj == nil {
		state.PushNil()
		return
	}
	state.NewTable()
	state.PushString(obj.Name())
	state.SetField(-2, "name")
	state.PushString(obj.Type())
	state.SetField(-2, "type")
}
