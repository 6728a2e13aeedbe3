package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// process is the running instance of an actor: its mailbox and run loop.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props

	// mu orders deliver against markStopped, so nothing enters the mailbox
	// after the final drain.
	mu      sync.Mutex
	stopped atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, props.mailboxSize),
	}
}

// deliver enqueues without blocking; a full mailbox drops the message.
func (p *process) deliver(env *messageEnvelope) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped.Load() {
		return false
	}
	select {
	case p.mailbox <- env:
		return true
	default:
		p.engine.logger.Printf("actor %s mailbox full, dropping %T", p.pid.ID, env.Message)
		return false
	}
}

func (p *process) run() {
	defer p.engine.remove(p.pid)

	p.actor = p.props.Produce()
	if p.actor == nil {
		p.engine.logger.Printf("actor %s producer returned nil actor", p.pid.ID)
		return
	}

	if !p.invoke(&messageEnvelope{Message: Started{}}) {
		p.finish()
		return
	}

	for env := range p.mailbox {
		if _, ok := env.Message.(Stopping); ok {
			p.markStopped()
			p.invoke(env)
			p.finish()
			return
		}
		if !p.invoke(env) {
			p.finish()
			return
		}
	}
}

// finish marks the process stopped, delivers Stopped as the final message
// and fails every Ask still queued behind it.
func (p *process) finish() {
	p.markStopped()
	p.invoke(&messageEnvelope{Message: Stopped{}})
	p.drain()
}

func (p *process) markStopped() {
	p.mu.Lock()
	p.stopped.Store(true)
	p.mu.Unlock()
}

func (p *process) drain() {
	for {
		select {
		case env := <-p.mailbox:
			if env.replyCh == nil {
				continue
			}
			select {
			case env.replyCh <- fmt.Errorf("ask %s: %w", p.pid.ID, ErrNotFound):
			default:
			}
		default:
			return
		}
	}
}

// invoke runs Receive for one envelope and reports false if the actor
// panicked. A panicking actor is stopped; a pending Ask receives the panic
// as an error so the caller does not wait for the timeout.
func (p *process) invoke(env *messageEnvelope) (ok bool) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    env.Sender,
		message:   env.Message,
		requestID: env.requestID,
		replyCh:   env.replyCh,
	}
	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Printf("actor %s panicked during Receive(%T): %v\n%s", p.pid.ID, env.Message, r, debug.Stack())
			ctx.Reply(&PanicError{PID: p.pid.ID, Value: r})
			ok = false
		}
	}()
	p.actor.Receive(ctx)
	return true
}
