// Package spectate streams read-only world frames to websocket observers.
package spectate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Garsondee/opp-block/internal/sim"
)

const (
	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	pingEvery   = readWait / 3
	clientQueue = 16
)

// EventView is the wire form of a sim.Event with its kind spelled out.
type EventView struct {
	Kind  string  `json:"kind"`
	Time  float64 `json:"time"`
	Agent int     `json:"agent"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Frame is one message on the feed.
type Frame struct {
	Type     string            `json:"type"`
	Snapshot sim.WorldSnapshot `json:"snapshot"`
	Events   []EventView       `json:"events,omitempty"`
}

type client struct {
	id  uint64
	out chan []byte
}

// Server fans published frames out to every connected observer. Observers
// never send input; anything they write is read and discarded.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	pilot    *sim.Autopilot

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

// NewServer builds a server. A nil logger discards.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    4 * 1024,
			WriteBufferSize:   64 * 1024,
			EnableCompression: true,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// SetPilot drives the player in Run. Without one the player stands still.
func (s *Server) SetPilot(p *sim.Autopilot) { s.pilot = p }

// Handler serves /ws (the feed) and /snapshot (the latest frame as JSON).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/snapshot", s.serveSnapshot)
	return mux
}

// Clients reports the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish encodes one frame and queues it for every observer. Slow observers
// drop frames rather than stall the caller.
func (s *Server) Publish(snap sim.WorldSnapshot, events []sim.Event) {
	f := Frame{Type: "frame", Snapshot: snap}
	for _, e := range events {
		f.Events = append(f.Events, EventView{
			Kind: e.Kind.String(), Time: e.Time, Agent: int(e.Agent), X: e.X, Y: e.Y, Value: e.Value,
		})
	}
	b, err := json.Marshal(f)
	if err != nil {
		s.log.Warn("encode frame", "tick", snap.Tick, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = b
	for c := range s.clients {
		select {
		case c.out <- b:
		default:
		}
	}
}

// Run advances w at tickHz and publishes a frame every tick until ctx ends or
// the session is decided. It owns w for its lifetime.
func (s *Server) Run(ctx context.Context, w *sim.World, tickHz int) error {
	if tickHz <= 0 {
		tickHz = 60
	}
	dt := 1 / float64(tickHz)
	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()

	s.Publish(w.Snapshot(), nil)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		var in sim.Input
		if s.pilot != nil {
			in = s.pilot.Next(w)
		}
		w.Update(dt, in)
		evs := w.DrainEvents()
		if s.pilot != nil {
			s.pilot.HandleEvents(w, evs)
		}
		s.Publish(w.Snapshot(), evs)
		if w.Outcome != sim.OutcomeRunning {
			s.log.Info("session decided", "outcome", w.Outcome.String(), "tick", w.Tick)
			return nil
		}
	}
}

func (s *Server) serveSnapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	b := s.last
	s.mu.Unlock()
	if b == nil {
		http.Error(rw, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_, _ = rw.Write(b)
}

func (s *Server) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{id: s.nextID.Add(1), out: make(chan []byte, clientQueue)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.out <- s.last
	}
	s.mu.Unlock()
	s.log.Info("observer joined", "id", c.id)
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		s.log.Info("observer left", "id", c.id)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	writeErr := make(chan error, 1)
	go func() {
		ping := time.NewTicker(pingEvery)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					writeErr <- err
					return
				}
			case b := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
}
