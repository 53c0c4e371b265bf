package types

// Signaling channel (participant <-> broker), one JSON object per frame.

// Client -> Server
// Leave: {}            // exit the queue; also implied by closing the socket
// Heartbeat: {}        // refresh liveness while waiting

// Server -> Client
// PositionUpdate:
//   position: number   // new 1-based queue position
//
// Matched:
//   session_id: string
//   role: "host" | "guest"
//   peer_address: string // opaque rendezvous token for the direct channel
//
// TimedOut: {}         // queue-wait expired; re-join to retry
//
// Error:
//   error: string
