package types

// Direct channel (peer <-> peer), one JSON object per frame. The broker
// never sees these messages.

// ready: {}                       // sent by both sides once the channel opens
//
// bootstrapState:
//   state: State                  // full authoritative deal, Host -> Guest only
//
// bootstrapAck: {}                // Guest confirms it applied the bootstrap
//
// proposedAction:                 // Guest -> Host; subject to Host validation
//   action: { type: "PlayCard" | "DrawCard", card?: Card }
//
// confirmedAction:                // Host -> Guest after validating + applying
//   action: { type, seat, card? }
//   next_turn: "host" | "guest"   // advisory; receivers replay the turn rule
//
// actionRejected:
//   error: string
//
// rematchRequest: {}              // either side, after the game ends
// rematchAccept: {}               // silence past the reply bound is a decline
