package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"household_simulator/internal/log"
	"household_simulator/internal/model"
	"household_simulator/internal/runner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes requests to the
// runner. Steps are broadcast to every client through the runner's
// callback; errors and descriptions go to the requesting client only.
type Handler struct {
	hub    *Hub
	runner *runner.Runner
}

func NewHandler(hub *Hub, r *runner.Runner) *Handler {
	return &Handler{hub: hub, runner: r}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	ctx = log.With(ctx, log.Ctx(ctx).With("client_id", client.id))

	h.hub.Register(client)
	go client.writePump()
	log.Ctx(ctx).DebugContext(ctx, "client connected", "remote_addr", r.RemoteAddr, "clients", h.hub.ClientCount())

	h.sendState(ctx, client)
	h.readPump(ctx, client)
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Ctx(ctx).DebugContext(ctx, "client disconnected", "clients", h.hub.ClientCount())
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Ctx(ctx).WarnContext(ctx, "websocket read failed", "error", err)
			}
			return
		}

		h.handleMessage(ctx, c, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sendError(ctx, c, fmt.Errorf("invalid message: %w", err))
		return
	}

	switch env.Type {
	case TypeSimStep:
		var p StepPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(ctx, c, fmt.Errorf("invalid %s payload: %w", env.Type, err))
			return
		}
		dt, err := p.Duration()
		if err != nil {
			h.sendError(ctx, c, err)
			return
		}
		if _, err := h.runner.Step(p.Action, dt); err != nil {
			log.Ctx(ctx).InfoContext(ctx, "step rejected", "error", err)
			h.sendError(ctx, c, err)
		}

	case TypeSimGetState:
		h.sendState(ctx, c)

	case TypeSimGetHistory:
		var p HistoryRequestPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				h.sendError(ctx, c, fmt.Errorf("invalid %s payload: %w", env.Type, err))
				return
			}
		}
		msg, err := NewEnvelope(TypeSimHistory, h.history(p))
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "marshal history", "error", err)
			return
		}
		c.trySend(msg)

	case TypeSimDescribe:
		msg, err := NewEnvelope(TypeSimDescription, DescriptionPayload{Text: h.runner.Describe()})
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "marshal description", "error", err)
			return
		}
		c.trySend(msg)

	default:
		h.sendError(ctx, c, fmt.Errorf("unknown message type: %q", env.Type))
	}
}

// history answers a range query, or a point query when p.At is set.
func (h *Handler) history(p HistoryRequestPayload) HistoryPayload {
	hist := h.runner.History()
	out := HistoryPayload{States: []model.State{}, Retained: hist.Len()}
	if tr, ok := hist.TimeRange(); ok {
		out.Range = &tr
	}
	if p.At != nil {
		if st, ok := hist.At(*p.At); ok {
			out.States = append(out.States, st)
		}
		return out
	}
	if states := hist.InRange(p.From, p.To); states != nil {
		out.States = states
	}
	return out
}

func (h *Handler) sendState(ctx context.Context, c *Client) {
	msg, err := NewEnvelope(TypeSimState, h.runner.State())
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "marshal sim state", "error", err)
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendError(ctx context.Context, c *Client, err error) {
	msg, mErr := NewEnvelope(TypeSimError, ErrorPayload{Message: err.Error()})
	if mErr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "marshal error message", "error", mErr)
		return
	}
	c.trySend(msg)
}
