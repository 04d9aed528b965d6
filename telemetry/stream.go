package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sdf-planet/planet"
)

// Message types exchanged over the stream.
const (
	MsgSnapshot = "snapshot"
	MsgParams   = "params"
	MsgError    = "error"

	MsgEdit    = "edit"
	MsgCommit  = "commit"
	MsgReset   = "reset"
	MsgPreset  = "preset"
	MsgElapsed = "elapsed"
)

const writeTimeout = 2 * time.Second

// Message is the envelope for both directions.
type Message struct {
	Type     string             `json:"type"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
	Params   json.RawMessage    `json:"params,omitempty"`
	Preset   string             `json:"preset,omitempty"`
	Seconds  *float64           `json:"seconds,omitempty"`
	Error    string             `json:"error,omitempty"`
	Live     *planet.Parameters `json:"live,omitempty"`
}

// Request is a client command the frame loop must apply between frames.
type Request struct {
	Type    string
	Preset  planet.Preset
	Seconds float64
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream serves /ws. Clients receive snapshots and may stage parameter
// edits. Edits go straight into the staging buffer; commits, resets, preset
// changes and time jumps are queued for the frame loop.
type Stream struct {
	staging *planet.Staging
	logger  *slog.Logger

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	requests chan Request

	server   *http.Server
	listener net.Listener
}

// NewStream creates a stream bound to staging. Call Start to listen.
func NewStream(staging *planet.Staging, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		staging:  staging,
		logger:   logger,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		requests: make(chan Request, 64),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Stream) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on addr and serves in the background.
func (s *Stream) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telemetry stream listen: %w", err)
	}
	s.listener = ln
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("telemetry stream stopped", "err", err)
		}
	}()
	s.logger.Info("telemetry stream listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Stream) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the server and disconnects every client.
func (s *Stream) Close(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.clientsMu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.clientsMu.Unlock()
	return err
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Drain returns every queued request without blocking.
func (s *Stream) Drain() []Request {
	var out []Request
	for {
		select {
		case r := <-s.requests:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Broadcast sends a snapshot to every client. Clients that fail to accept
// it are dropped.
func (s *Stream) Broadcast(snap Snapshot) {
	s.broadcast(Message{Type: MsgSnapshot, Snapshot: &snap})
}

// BroadcastParams sends the live parameters to every client.
func (s *Stream) BroadcastParams() {
	live := s.staging.Live()
	s.broadcast(Message{Type: MsgParams, Live: &live})
}

func (s *Stream) broadcast(msg Message) {
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		if err := writeMessage(conn, mu, msg); err != nil {
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	if len(failed) == 0 {
		return
	}
	s.clientsMu.Lock()
	for _, conn := range failed {
		delete(s.clients, conn)
		conn.Close()
	}
	s.clientsMu.Unlock()
}

func writeMessage(conn *websocket.Conn, mu *sync.Mutex, msg Message) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

func (s *Stream) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	mu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = mu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	s.logger.Info("telemetry client connected", "remote", r.RemoteAddr)
	live := s.staging.Live()
	if err := writeMessage(conn, mu, Message{Type: MsgParams, Live: &live}); err != nil {
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", "err", err)
			}
			return
		}
		if err := s.handle(msg); err != nil {
			s.logger.Warn("rejected client message", "type", msg.Type, "err", err)
			if werr := writeMessage(conn, mu, Message{Type: MsgError, Error: err.Error()}); werr != nil {
				return
			}
		}
	}
}

func (s *Stream) handle(msg Message) error {
	switch msg.Type {
	case MsgEdit:
		return s.stageEdit(msg.Params)
	case MsgCommit, MsgReset:
		return s.enqueue(Request{Type: msg.Type})
	case MsgPreset:
		preset, err := planet.ParsePreset(msg.Preset)
		if err != nil {
			return err
		}
		return s.enqueue(Request{Type: MsgPreset, Preset: preset})
	case MsgElapsed:
		if msg.Seconds == nil {
			return errors.New("elapsed: missing seconds")
		}
		return s.enqueue(Request{Type: MsgElapsed, Seconds: *msg.Seconds})
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

// stageEdit overlays a partial parameter document on the editing copy.
// Keys absent from the document keep their staged values; a rejected
// document changes nothing.
func (s *Stream) stageEdit(raw json.RawMessage) error {
	if len(raw) == 0 {
		return errors.New("edit: missing params")
	}
	var err error
	s.staging.Stage(func(p *planet.Parameters) {
		next := *p
		if err = json.Unmarshal(raw, &next); err != nil {
			return
		}
		if !next.SetSunDirection(next.SunDirection) {
			next.SunDirection = p.SunDirection
		}
		*p = next
	})
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	return nil
}

func (s *Stream) enqueue(r Request) error {
	select {
	case s.requests <- r:
		return nil
	default:
		return errors.New("request queue full")
	}
}
