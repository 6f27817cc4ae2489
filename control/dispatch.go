// Package control translates UI events into session and input updates and
// serves them over HTTP and a websocket.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"lautenbacher.net/lightoy/input"
	"lautenbacher.net/lightoy/session"
)

// Event types understood by the dispatcher.
const (
	EvTouchStart   = "touchstart"
	EvTouchMove    = "touchmove"
	EvTouchEnd     = "touchend"
	EvTouchCancel  = "touchcancel"
	EvSliderUpdate = "sliderUpdate"
	EvSelectEffect = "selectEffect"
	EvParamAction  = "paramAction"
)

// Message is one event from the UI. Only the fields of the given event
// type are consulted.
type Message struct {
	Ev      string        `json:"ev"`
	Touches []input.Touch `json:"touches,omitempty"`
	Name    string        `json:"name,omitempty"`
	Value   *float64      `json:"value,omitempty"`
	Global  bool          `json:"global,omitempty"`
	Action  string        `json:"action,omitempty"`
}

// TouchResponse echoes the touches of a touch event.
type TouchResponse struct {
	Pos []input.Touch `json:"pos"`
}

// ErrMissingValue is reported for a sliderUpdate without a value.
var ErrMissingValue = errors.New("missing value")

// Result answers every non-touch event.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Dispatcher struct {
	session *session.Session
}

func NewDispatcher(s *session.Session) *Dispatcher {
	return &Dispatcher{session: s}
}

// Handle applies msg. The second return value is false for events that
// get no answer.
func (d *Dispatcher) Handle(msg Message) (any, bool) {
	in := d.session.Input()
	switch msg.Ev {
	case EvTouchStart, EvTouchMove, EvTouchEnd, EvTouchCancel:
		t := d.session.GetTime()
		switch msg.Ev {
		case EvTouchStart:
			in.OnTouchStart(msg.Touches, t)
		case EvTouchMove:
			in.OnTouchMove(msg.Touches, t)
		case EvTouchEnd:
			in.OnTouchEnd(t)
		case EvTouchCancel:
			in.OnTouchCancel(t)
		}
		pos := msg.Touches
		if pos == nil {
			pos = []input.Touch{}
		}
		return TouchResponse{Pos: pos}, true
	case EvSliderUpdate:
		if msg.Value == nil {
			slog.Warn("Ignoring slider update without value", "name", msg.Name)
			return result(fmt.Errorf("%s: %w", msg.Name, ErrMissingValue)), true
		}
		return result(d.session.SetParam(msg.Name, *msg.Value, msg.Global)), true
	case EvSelectEffect:
		return result(d.session.SetActiveEffect(msg.Name)), true
	case EvParamAction:
		return result(d.session.DoParamAction(msg.Name, msg.Action, msg.Global)), true
	default:
		slog.Warn("Ignoring unknown event", "ev", msg.Ev)
		return nil, false
	}
}

// HandleMessage decodes a JSON event, applies it and encodes the answer.
// A nil answer means nothing is to be sent back.
func (d *Dispatcher) HandleMessage(data []byte) ([]byte, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	resp, ok := d.Handle(msg)
	if !ok {
		return nil, nil
	}
	return json.Marshal(resp)
}

func result(err error) Result {
	if err != nil {
		return Result{OK: false, Error: err.Error()}
	}
	return Result{OK: true}
}
