package session

import "github.com/raviakbar97/eluno/internal/game"

type MessageType string

const (
	MsgReady           MessageType = "ready"
	MsgBootstrapState  MessageType = "bootstrapState"
	MsgBootstrapAck    MessageType = "bootstrapAck"
	MsgProposedAction  MessageType = "proposedAction"
	MsgConfirmedAction MessageType = "confirmedAction"
	MsgActionRejected  MessageType = "actionRejected"
	MsgRematchRequest  MessageType = "rematchRequest"
	MsgRematchAccept   MessageType = "rematchAccept"
)

// Message is the direct-channel envelope exchanged between peers. The
// broker never sees these; only the two session ends interpret them.
type Message struct {
	Type MessageType `json:"type"`

	// full authoritative state, bootstrapState only
	State *game.State `json:"state,omitempty"`

	// the action being proposed or confirmed
	Action *game.Command `json:"action,omitempty"`

	// advisory turn indicator on confirmedAction; receivers recompute the
	// turn from the action itself and never trust this field
	NextTurn game.Seat `json:"next_turn,omitempty"`

	// human-readable reason, actionRejected only
	Error string `json:"error,omitempty"`
}
