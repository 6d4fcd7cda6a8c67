package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/session"
	"github.com/solarsim/solarsim/pkg/types"
)

const (
	streamWriteWait  = 10 * time.Second
	streamSendBuffer = 64
)

// streamMessage is pushed to every /api/stream client. The first message on
// a connection is "init" with a snapshot, then one "tick" per applied tick.
type streamMessage struct {
	Type     string               `json:"type"`
	State    *types.PlaybackState `json:"state,omitempty"`
	Sample   *types.Sample        `json:"sample,omitempty"`
	Snapshot *session.Snapshot    `json:"snapshot,omitempty"`
}

type streamClient struct {
	conn   *websocket.Conn
	remote string
	send   chan streamMessage
}

// hub fans tick messages out to connected clients. A client that can't keep
// up is disconnected rather than slowing down playback.
type hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

func newHub() *hub {
	return &hub{
		clients: make(map[*streamClient]struct{}),
	}
}

func (h *hub) add(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// remove closes the client's send channel once. It is safe to call more than
// once.
func (h *hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(msg streamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("dropping slow stream client", slog.String("remote", c.remote))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// broadcastTick is registered as a playback listener.
func (h *hub) broadcastTick(state types.PlaybackState, sample types.Sample) {
	h.broadcast(streamMessage{Type: "tick", State: &state, Sample: &sample})
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{}
	if s.streamAnyOrigin {
		u.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
	return u
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Ctx(ctx).DebugContext(ctx, "stream upgrade failed", slog.Any("error", err))
		return
	}

	c := &streamClient{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan streamMessage, streamSendBuffer),
	}
	snap := s.session.Snapshot()
	c.send <- streamMessage{Type: "init", Snapshot: &snap}
	s.stream.add(c)
	log.Ctx(ctx).DebugContext(ctx, "stream client connected", slog.String("remote", c.remote))

	go c.writeLoop()

	// reads only detect the close, clients have nothing to say
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.stream.remove(c)
	log.Ctx(ctx).DebugContext(ctx, "stream client disconnected", slog.String("remote", c.remote))
}

func (c *streamClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
			return
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	// the hub closed us, tell the peer
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait),
	)
}
