package ws

import (
	"household_simulator/internal/log"
	"household_simulator/internal/model"
	"household_simulator/internal/runner"
)

var _ runner.Callback = (*Bridge)(nil)

// Bridge implements runner.Callback and broadcasts every new state to
// the WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnState(s model.State) {
	msg, err := NewEnvelope(TypeSimState, s)
	if err != nil {
		log.Default().Error("marshal sim state", "error", err)
		return
	}
	b.hub.Broadcast(msg)
}
