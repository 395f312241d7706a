package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
)

// Socket tuning shared by every renderer connection. Pings keep the
// read deadline ahead of idle periods on a display that never talks.
const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = (pongTimeout * 9) / 10
	readLimit    = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Renderer and daemon share localhost on a kiosk host
		return true
	},
}

// rendererConn ties one renderer socket to the hub
type rendererConn struct {
	hub    *hub
	sock   *websocket.Conn
	outbox chan []byte
	remote string
	log    *slog.Logger

	// wake handles the single inbound control verb
	wake func(context.Context) error
}

func (c *rendererConn) teardown() {
	select {
	case c.hub.leave <- c:
	case <-c.hub.done:
	}

	if err := c.sock.Close(); err != nil {
		c.log.Error("error closing websocket connection", "error", err, "remote", c.remote)
	}
}

func (c *rendererConn) readLoop() {
	defer c.teardown()

	c.sock.SetReadLimit(readLimit)
	if err := c.sock.SetReadDeadline(time.Now().Add(pongTimeout)); err != nil {
		c.log.Error("failed to set read deadline", "error", err, "remote", c.remote)
		return
	}

	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, frame, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Error("websocket read error", "error", err, "remote", c.remote)
			}
			return
		}

		var msg v1alpha1.ControlMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			c.log.Error("invalid control message", "error", err, "remote", c.remote)
			continue
		}

		// WAKE is the only verb a renderer may send; a tap on a blanked
		// display lands here. Anything else is dropped, not fatal.
		if msg.Type != v1alpha1.ControlMessageWake {
			c.log.Error("unexpected message type", "type", msg.Type, "remote", c.remote)
			continue
		}

		if err := c.wake(context.Background()); err != nil {
			c.log.Error("wake request failed", "error", err, "remote", c.remote)
		}
	}
}

func (c *rendererConn) write(kind int, payload []byte) error {
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.sock.WriteMessage(kind, payload)
}

func (c *rendererConn) writeLoop() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		if err := c.sock.Close(); err != nil {
			c.log.Error("error closing websocket connection in write loop", "error", err, "remote", c.remote)
		}
	}()

	for {
		select {
		case frame, ok := <-c.outbox:
			if !ok {
				if err := c.write(websocket.CloseMessage, []byte{}); err != nil {
					c.log.Error("failed to write close message", "error", err, "remote", c.remote)
				}
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.log.Error("failed to write frame", "error", err, "remote", c.remote)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte{}); err != nil {
				c.log.Error("failed to write ping", "error", err, "remote", c.remote)
				return
			}
		}
	}
}

// hub tracks renderer sockets and fans controller frames out to them
type hub struct {
	conns map[*rendererConn]struct{}

	join  chan *rendererConn
	leave chan *rendererConn
	cast  chan []byte

	// done closes when run returns; joins and teardowns select on it so
	// a late socket cannot block on a stopped hub
	done chan struct{}

	log *slog.Logger
}

func newHub(log *slog.Logger) *hub {
	return &hub{
		conns: make(map[*rendererConn]struct{}),
		join:  make(chan *rendererConn),
		leave: make(chan *rendererConn),
		cast:  make(chan []byte),
		done:  make(chan struct{}),
		log:   log,
	}
}

func (h *hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.conns {
				close(c.outbox)
				delete(h.conns, c)
			}
			return

		case c := <-h.join:
			h.conns[c] = struct{}{}
			h.log.Info("renderer connected", "remote", c.remote, "connections", len(h.conns))

		case c := <-h.leave:
			if _, ok := h.conns[c]; ok {
				delete(h.conns, c)
				close(c.outbox)
				h.log.Info("renderer disconnected", "remote", c.remote, "connections", len(h.conns))
			}

		case frame := <-h.cast:
			for c := range h.conns {
				select {
				case c.outbox <- frame:
				default:
					// A renderer that cannot drain its outbox is cut
					// loose rather than allowed to stall the fan-out
					close(c.outbox)
					delete(h.conns, c)
				}
			}
		}
	}
}

// ServeWs upgrades a renderer connection and seeds it with the current
// state and device feed
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &rendererConn{
		hub:    h.hub,
		sock:   sock,
		outbox: make(chan []byte, 256),
		remote: r.RemoteAddr,
		log:    h.logger,
		wake:   h.controller.Wake,
	}

	// Seed the outbox so the renderer paints without polling first
	if frame, err := json.Marshal(stateMessage(h.controller.Snapshot())); err == nil {
		c.outbox <- frame
	}
	if frame, err := json.Marshal(deviceMessage(h.controller.DeviceFeed())); err == nil {
		c.outbox <- frame
	}

	select {
	case h.hub.join <- c:
	case <-h.hub.done:
		if err := sock.Close(); err != nil {
			h.logger.Error("error closing websocket connection", "error", err, "remote", r.RemoteAddr)
		}
		return
	}

	go c.writeLoop()
	c.readLoop()
}

func stateMessage(s kiosk.State) *v1alpha1.ControlMessage {
	return &v1alpha1.ControlMessage{
		TypeMeta: v1alpha1.TypeMeta{
			Kind:       "ControlMessage",
			APIVersion: "v1alpha1",
		},
		Type:      v1alpha1.ControlMessageStateUpdate,
		State:     stateToAPI(s),
		Timestamp: time.Now(),
	}
}

func deviceMessage(feed kiosk.DeviceFeed) *v1alpha1.ControlMessage {
	return &v1alpha1.ControlMessage{
		TypeMeta: v1alpha1.TypeMeta{
			Kind:       "ControlMessage",
			APIVersion: "v1alpha1",
		},
		Type:      v1alpha1.ControlMessageDeviceUpdate,
		Devices:   reportToAPI(feed),
		Timestamp: time.Now(),
	}
}

// forwardEvent turns a controller event into a broadcast frame
func (h *Handler) forwardEvent(ctx context.Context, e kiosk.Event) {
	var msg *v1alpha1.ControlMessage
	switch {
	case e.Type == kiosk.EventDevicesUpdated:
		msg = deviceMessage(h.controller.DeviceFeed())
	case e.State != nil:
		msg = stateMessage(*e.State)
	default:
		return
	}

	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal control message", "error", err, "event", e.Type)
		return
	}

	select {
	case h.hub.cast <- frame:
	case <-ctx.Done():
	}
}
