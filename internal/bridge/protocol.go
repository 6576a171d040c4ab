// Package bridge connects the game host to the loot service over a
// WebSocket. The host pushes events and answers command requests; the
// service dispatches events one at a time and sends command lines back.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/villagerloot/internal/model"
)

// Message purposes.
const (
	PurposeSubscribe       = "subscribe"
	PurposeEvent           = "event"
	PurposeCommandRequest  = "commandRequest"
	PurposeCommandResponse = "commandResponse"
	PurposeError           = "error"
)

// Event names the service subscribes to.
const (
	EventEntityDie     = "EntityDie"
	EventPlayerJoin    = "PlayerJoin"
	EventPlayerLeave   = "PlayerLeave"
	EventPlayerUpdate  = "PlayerUpdate"
	EventPlayerMessage = "PlayerMessage"
)

// SubscribedEvents lists events requested from the host after connecting.
var SubscribedEvents = []string{
	EventEntityDie,
	EventPlayerJoin,
	EventPlayerLeave,
	EventPlayerUpdate,
	EventPlayerMessage,
}

// protocolVersion is sent with every command request.
const protocolVersion = 1

// Header is common to every frame.
type Header struct {
	RequestID      string `json:"requestId"`
	MessagePurpose string `json:"messagePurpose"`
	EventName      string `json:"eventName,omitempty"`
	Version        int    `json:"version,omitempty"`
}

// Frame is one WebSocket text message.
type Frame struct {
	Header Header          `json:"header"`
	Body   json.RawMessage `json:"body"`
}

// SubscribeBody asks the host to start pushing an event.
type SubscribeBody struct {
	EventName string `json:"eventName"`
}

// CommandRequestBody carries one command line to execute.
type CommandRequestBody struct {
	CommandLine string `json:"commandLine"`
	Version     int    `json:"version"`
}

// CommandResponseBody is the host's answer to a command request.
type CommandResponseBody struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// EntityBody references an entity in event payloads.
type EntityBody struct {
	ID     string `json:"id"`
	TypeID string `json:"typeId"`
	Name   string `json:"name,omitempty"`
}

// EntityDieBody reports a death.
type EntityDieBody struct {
	DeadEntity     EntityBody     `json:"deadEntity"`
	IsBaby         bool           `json:"isBaby"`
	Location       model.Location `json:"location"`
	Dimension      string         `json:"dimension"`
	DamagingEntity *EntityBody    `json:"damagingEntity,omitempty"`
}

// PlayerBody describes a player in roster events.
type PlayerBody struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Location        model.Location `json:"location"`
	Dimension       string         `json:"dimension"`
	PermissionLevel int32          `json:"permissionLevel"`
}

// PlayerMessageBody is a chat message.
type PlayerMessageBody struct {
	Sender  PlayerBody `json:"sender"`
	Message string     `json:"message"`
}

// KillEvent converts the payload to the domain event.
func (b EntityDieBody) KillEvent() model.KillEvent {
	ev := model.KillEvent{
		Victim:       entityRef(b.DeadEntity),
		VictimIsBaby: b.IsBaby,
		Location:     b.Location,
		Dimension:    b.Dimension,
	}
	if b.DamagingEntity != nil {
		killer := entityRef(*b.DamagingEntity)
		ev.Killer = &killer
	}
	return ev
}

func entityRef(e EntityBody) model.EntityRef {
	return model.EntityRef{ID: e.ID, TypeID: e.TypeID, Name: e.Name}
}

// newFrame encodes body into a frame with a fresh request id.
func newFrame(purpose string, body any) (Frame, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Frame{}, fmt.Errorf("encoding %s body: %w", purpose, err)
	}
	return Frame{
		Header: Header{
			RequestID:      uuid.NewString(),
			MessagePurpose: purpose,
			Version:        protocolVersion,
		},
		Body: raw,
	}, nil
}

// decodeBody unmarshals the frame body into v.
func decodeBody(f Frame, v any) error {
	if len(f.Body) == 0 {
		return fmt.Errorf("%s frame without body", f.Header.MessagePurpose)
	}
	if err := json.Unmarshal(f.Body, v); err != nil {
		return fmt.Errorf("decoding %s body: %w", f.Header.MessagePurpose, err)
	}
	return nil
}
