package types

// ClientMessage is what a participant sends over the signaling channel.
// Joining the queue is implicit in connecting; everything else is explicit.
type ClientMessage struct {
	Type string `json:"type"` // "Leave" | "Heartbeat"
}

// ServerMessage is pushed to a queued participant.
type ServerMessage struct {
	Type        string `json:"type"` // "PositionUpdate" | "Matched" | "TimedOut" | "Error"
	Position    int    `json:"position,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Role        string `json:"role,omitempty"`
	PeerAddress string `json:"peer_address,omitempty"`
	Error       string `json:"error,omitempty"`
}
