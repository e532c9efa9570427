package ws

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"household_simulator/internal/model"
	"household_simulator/internal/store"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

const (
	TypeSimStep       = "sim:step"
	TypeSimGetState   = "sim:get_state"
	TypeSimDescribe   = "sim:describe"
	TypeSimGetHistory = "sim:get_history"
)

// StepPayload asks for one simulation step of DtSec seconds.
type StepPayload struct {
	Action model.Action `json:"action"`
	DtSec  float64      `json:"dt_sec"`
}

// Duration converts DtSec, rejecting values a time.Duration cannot hold.
func (p StepPayload) Duration() (time.Duration, error) {
	if math.IsNaN(p.DtSec) || math.IsInf(p.DtSec, 0) || math.Abs(p.DtSec) > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("invalid dt_sec: %v", p.DtSec)
	}
	return time.Duration(p.DtSec * float64(time.Second)), nil
}

// HistoryRequestPayload bounds a history query. Zero bounds are open.
// When At is set the reply holds only the latest snapshot at or before
// it, and From and To are ignored.
type HistoryRequestPayload struct {
	From time.Time  `json:"from"`
	To   time.Time  `json:"to"`
	At   *time.Time `json:"at,omitempty"`
}

// Server -> Client messages

const (
	// TypeSimState carries a model.State.
	TypeSimState       = "sim:state"
	TypeSimDescription = "sim:description"
	TypeSimHistory     = "sim:history"
	TypeSimError       = "sim:error"
)

type DescriptionPayload struct {
	Text string `json:"text"`
}

// HistoryPayload carries the matching snapshots plus the span and size
// of everything retained.
type HistoryPayload struct {
	States   []model.State    `json:"states"`
	Range    *store.TimeRange `json:"range,omitempty"`
	Retained int              `json:"retained"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
