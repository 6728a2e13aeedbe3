package bollywood

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTimeout is returned by Ask when no reply arrives in time.
	ErrTimeout = errors.New("bollywood: ask timed out")
	// ErrNotFound is returned by Ask when the target actor is not running.
	ErrNotFound = errors.New("bollywood: actor not found")
	// ErrStopping is returned by Ask once Shutdown has begun.
	ErrStopping = errors.New("bollywood: engine is stopping")
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter uint64
	reqCounter uint64
	actors     map[string]*process
	mu         sync.RWMutex // Protects the actors map
	stopping   atomic.Bool
	logger     *log.Logger
}

// NewEngine creates a new actor engine. Engine diagnostics are discarded
// until a logger is set with SetLogger.
func NewEngine() *Engine {
	return &Engine{
		actors: make(map[string]*process),
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger routes engine diagnostics (dropped messages, actor panics) to l.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns nil once the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		e.logger.Println("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()

	return pid
}

// Send delivers a message to the actor identified by the PID.
// sender can be nil if the message originates from outside the actor system.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	if pid == nil {
		return
	}
	if e.stopping.Load() {
		if _, ok := message.(Stopping); !ok {
			return
		}
	}

	proc, ok := e.lookup(pid)
	if !ok {
		e.logger.Printf("actor %s not found, dropping %T", pid.ID, message)
		return
	}
	proc.deliver(&messageEnvelope{Sender: sender, Message: message})
}

// Ask sends message to pid and blocks until the actor calls Context.Reply or
// timeout elapses. A reply that is itself an error is returned as the error.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	if pid == nil {
		return nil, ErrNotFound
	}
	if e.stopping.Load() {
		return nil, ErrStopping
	}
	proc, ok := e.lookup(pid)
	if !ok {
		return nil, fmt.Errorf("ask %s: %w", pid.ID, ErrNotFound)
	}

	replyCh := make(chan interface{}, 1)
	reqID := fmt.Sprintf("req-%d", atomic.AddUint64(&e.reqCounter, 1))
	if !proc.deliver(&messageEnvelope{Message: message, requestID: reqID, replyCh: replyCh}) {
		if proc.stopped.Load() {
			return nil, fmt.Errorf("ask %s: %w", pid.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("ask %s: mailbox full", pid.ID)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply := <-replyCh:
		if err, isErr := reply.(error); isErr {
			return nil, err
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("ask %s %T: %w", pid.ID, message, ErrTimeout)
	}
}

// Stop requests an actor to stop. The actor processes Stopping, then Stopped.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	if proc, ok := e.lookup(pid); ok {
		proc.deliver(&messageEnvelope{Message: Stopping{}})
	}
}

// Alive reports whether pid is still registered with the engine.
func (e *Engine) Alive(pid *PID) bool {
	if pid == nil {
		return false
	}
	_, ok := e.lookup(pid)
	return ok
}

func (e *Engine) lookup(pid *PID) (*process, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	proc, ok := e.actors[pid.ID]
	return proc, ok
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits up to timeout for them to terminate.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}

	e.mu.RLock()
	pidsToStop := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pidsToStop = append(pidsToStop, proc.pid)
	}
	e.mu.RUnlock()

	for _, pid := range pidsToStop {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.mu.Lock()
	if len(e.actors) > 0 {
		e.logger.Printf("shutdown timeout: %d actors did not stop gracefully", len(e.actors))
		e.actors = make(map[string]*process)
	}
	e.mu.Unlock()
}
