package monitor

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/lguibr/touchstone/bollywood"
	"github.com/lguibr/touchstone/world"
	"golang.org/x/net/websocket"
)

const defaultAskTimeout = 500 * time.Millisecond

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithAskTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Server exposes a world actor over HTTP.
type Server struct {
	hub      *Hub
	engine   *bollywood.Engine
	worldPID *bollywood.PID
	timeout  time.Duration
	logger   *log.Logger
}

func NewServer(hub *Hub, engine *bollywood.Engine, worldPID *bollywood.PID, opts ...Option) *Server {
	s := &Server{
		hub:      hub,
		engine:   engine,
		worldPID: worldPID,
		timeout:  defaultAskTimeout,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes /subscribe (websocket) and /contacts (GET).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))
	mux.HandleFunc("/contacts", s.HandleContacts())
	return mux
}

// HandleSubscribe streams every transition as a JSON frame until the
// client disconnects.
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		addr := ws.Request().RemoteAddr
		defer func() {
			if r := recover(); r != nil {
				s.logger.Printf("monitor: panic in subscribe for %s: %v\n%s", addr, r, debug.Stack())
			}
			_ = ws.Close()
		}()

		sub := s.hub.Subscribe()
		defer s.hub.Unsubscribe(sub)
		s.logger.Printf("monitor: %s subscribed", addr)

		closed := make(chan struct{})
		go s.readLoop(ws, closed)

		for {
			select {
			case <-closed:
				s.logger.Printf("monitor: %s disconnected (%d dropped)", addr, sub.Dropped())
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if err := websocket.JSON.Send(ws, ev); err != nil {
					s.logger.Printf("monitor: send to %s: %v", addr, err)
					return
				}
			}
		}
	}
}

// readLoop discards client frames and closes done when the connection ends.
func (s *Server) readLoop(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	var discard string
	for {
		if err := websocket.Message.Receive(ws, &discard); err != nil {
			return
		}
	}
}

// HandleContacts answers with the world's current world.Snapshot.
func (s *Server) HandleContacts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		reply, err := s.engine.Ask(s.worldPID, world.SnapshotRequest{}, s.timeout)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, bollywood.ErrTimeout) || errors.Is(err, bollywood.ErrNotFound) || errors.Is(err, bollywood.ErrStopping) {
				status = http.StatusServiceUnavailable
			}
			s.logger.Printf("monitor: snapshot: %v", err)
			http.Error(w, err.Error(), status)
			return
		}
		snap, ok := reply.(world.Snapshot)
		if !ok {
			http.Error(w, "unexpected snapshot reply", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			s.logger.Printf("monitor: encode snapshot: %v", err)
		}
	}
}
