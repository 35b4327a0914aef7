package ws

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/outofforest/rendezvous"
)

// Frame types.
const (
	TypeRegister          = "register"
	TypeRequestConnection = "request-connection"
	TypeJoin              = "join"
	TypeLeave             = "leave"
	TypeSignal            = "signal"
	TypeAuth              = "auth"
	TypeIncomingRequest   = "incoming-request"
)

// Frame is the envelope of every message exchanged over the websocket.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RequestConnectionPayload is the payload of the request-connection frame.
type RequestConnectionPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// RelayPayload is the payload of signal and auth frames sent by the client.
type RelayPayload struct {
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// IncomingRequestPayload is the payload of the incoming-request frame.
type IncomingRequestPayload struct {
	From string `json:"from"`
}

func decodeEvent(frame Frame) (rendezvous.Event, error) {
	switch frame.Type {
	case TypeRegister:
		var identifier string
		if err := json.Unmarshal(frame.Payload, &identifier); err != nil {
			return nil, errors.Wrap(err, "identifier is not a string")
		}
		return rendezvous.RegisterEvent{Identifier: identifier}, nil
	case TypeRequestConnection:
		var payload RequestConnectionPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, errors.Wrap(err, "invalid connection request")
		}
		return rendezvous.RequestConnectionEvent{To: payload.To, From: payload.From}, nil
	case TypeJoin, TypeLeave:
		var room string
		if err := json.Unmarshal(frame.Payload, &room); err != nil {
			return nil, errors.Wrap(err, "room is not a string")
		}
		if frame.Type == TypeLeave {
			return rendezvous.LeaveEvent{Room: room}, nil
		}
		return rendezvous.JoinEvent{Room: room}, nil
	case TypeSignal, TypeAuth:
		var payload RelayPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, errors.Wrapf(err, "invalid %s message", frame.Type)
		}
		return rendezvous.RelayEvent{
			Channel: rendezvous.Channel(frame.Type),
			Room:    payload.Room,
			Payload: payload.Payload,
		}, nil
	default:
		return nil, errors.Errorf("unknown message type %q", frame.Type)
	}
}

func encodeMessage(msg rendezvous.Message) (Frame, error) {
	switch msg.Type {
	case rendezvous.MessageIncomingRequest:
		payload, err := json.Marshal(IncomingRequestPayload{From: msg.From})
		if err != nil {
			return Frame{}, errors.WithStack(err)
		}
		return Frame{Type: TypeIncomingRequest, Payload: payload}, nil
	case rendezvous.MessageSignal, rendezvous.MessageAuth:
		payload := msg.Payload
		// Payloads relayed from native peers are not required to be JSON.
		if len(payload) > 0 && !json.Valid(payload) {
			var err error
			payload, err = json.Marshal(string(payload))
			if err != nil {
				return Frame{}, errors.WithStack(err)
			}
		}
		return Frame{Type: msg.Type.String(), Payload: payload}, nil
	default:
		return Frame{}, errors.Errorf("unexpected message type %d", msg.Type)
	}
}
