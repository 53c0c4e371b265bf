package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/raviakbar97/eluno/internal/game"
)

var ErrHandshakeTimeout = errors.New("handshake deadline exceeded")
var ErrChannelLost = errors.New("direct channel lost")
var ErrActionRejected = errors.New("action rejected by host")

type Phase string

const (
	PhaseHandshaking Phase = "handshaking"
	PhaseActive      Phase = "active"
	PhaseEnded       Phase = "ended"
	PhaseFailed      Phase = "failed"
)

// Bounds are the session timing contract. Handshake is honored
// identically by both peers so either side can give up deterministically
// without coordination.
type Bounds struct {
	Handshake    time.Duration
	AckGrace     time.Duration
	RematchReply time.Duration
}

func DefaultBounds() Bounds {
	return Bounds{
		Handshake:    15 * time.Second,
		AckGrace:     3 * time.Second,
		RematchReply: 10 * time.Second,
	}
}

type UpdateKind string

const (
	UpdatePhase           UpdateKind = "phase"
	UpdateState           UpdateKind = "state"
	UpdateRejected        UpdateKind = "rejected"
	UpdateRematchOffer    UpdateKind = "rematchOffer"
	UpdateRematchDeclined UpdateKind = "rematchDeclined"
)

// Update is what the presentation layer observes. Every failure path
// produces a phase update, so a UI waiting on this channel can always
// fall back to its find-match state instead of hanging.
type Update struct {
	Kind   UpdateKind
	Phase  Phase
	State  *game.State
	Reason string
}

// Outcome is how a finished Run reports back. Rematch means both sides
// agreed: the caller starts a fresh Session on the same conn with the
// roles swapped, so authority alternates between rounds.
type Outcome struct {
	Phase   Phase
	Winner  game.Seat
	Rematch bool
}

type cmdKind int

const (
	cmdPlay cmdKind = iota
	cmdDraw
	cmdRematchRequest
	cmdRematchAccept
)

type command struct {
	kind cmdKind
	card game.Card
}

// Session drives one run of the direct-channel protocol for one peer.
// The two sides share no memory; everything is message exchange through
// conn, validated by the Host and replayed by the Guest.
type Session struct {
	role   game.Seat
	conn   Conn
	bounds Bounds
	log    *zap.Logger

	seed    int64
	cmds    chan command
	updates chan Update

	phase Phase
	st    game.State
}

func New(role game.Seat, conn Conn, bounds Bounds, log *zap.Logger) *Session {
	return &Session{
		role:    role,
		conn:    conn,
		bounds:  bounds,
		log:     log,
		seed:    time.Now().UnixNano(),
		cmds:    make(chan command, 8),
		updates: make(chan Update, 16),
		phase:   PhaseHandshaking,
	}
}

// Updates exposes the UI-facing event stream.
func (s *Session) Updates() <-chan Update { return s.updates }

// PlayCard submits a play. On the Guest it becomes a proposal the Host
// must confirm. Safe to call at any time; commands sent to a session
// that is no longer running are dropped.
func (s *Session) PlayCard(c game.Card) { s.submit(command{kind: cmdPlay, card: c}) }

// DrawCard submits a draw.
func (s *Session) DrawCard() { s.submit(command{kind: cmdDraw}) }

// RequestRematch offers the peer a new round. No reply within the
// rematch bound counts as a decline.
func (s *Session) RequestRematch() { s.submit(command{kind: cmdRematchRequest}) }

// AcceptRematch accepts a pending offer from the peer.
func (s *Session) AcceptRematch() { s.submit(command{kind: cmdRematchAccept}) }

func (s *Session) submit(c command) {
	select {
	case s.cmds <- c:
	default:
	}
}

// Run executes the handshake and then the authority loop until the
// session ends, fails, or ctx is cancelled. The returned error is one of
// the session sentinels (or a ctx error); every error resolves to the
// caller re-entering the broker, never to retrying this session.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	readCtx, readCancel := context.WithCancel(ctx)
	defer readCancel()

	netCh := make(chan Message)
	netErr := make(chan error, 1)
	go func() {
		for {
			m, err := s.conn.Recv(readCtx)
			if err != nil {
				netErr <- err
				return
			}
			select {
			case netCh <- m:
			case <-readCtx.Done():
				return
			}
		}
	}()

	if err := s.handshake(ctx, netCh, netErr); err != nil {
		s.setPhase(PhaseFailed)
		return Outcome{Phase: PhaseFailed}, err
	}

	s.setPhase(PhaseActive)
	s.emitState()
	return s.active(ctx, netCh, netErr)
}

func (s *Session) handshake(ctx context.Context, netCh <-chan Message, netErr <-chan error) error {
	deadline := time.NewTimer(s.bounds.Handshake)
	defer deadline.Stop()

	if err := s.conn.Send(ctx, Message{Type: MsgReady}); err != nil {
		return ErrChannelLost
	}

	bootstrapSent := false
	var ackGrace <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline.C:
			return ErrHandshakeTimeout

		case err := <-netErr:
			s.log.Debug("channel lost during handshake", zap.Error(err))
			return ErrChannelLost

		case <-ackGrace:
			// ack never arrived; tolerate the loss, the Guest is either
			// active or will hit its own handshake deadline
			return nil

		case m := <-netCh:
			switch m.Type {
			case MsgReady:
				if s.role != game.SeatHost || bootstrapSent {
					break
				}
				// both ready signals observed: Host deals and transmits
				// the full authoritative initial state
				s.st = game.NewGame(s.seed)
				snap := s.st
				if err := s.conn.Send(ctx, Message{Type: MsgBootstrapState, State: &snap}); err != nil {
					return ErrChannelLost
				}
				bootstrapSent = true
				t := time.NewTimer(s.bounds.AckGrace)
				defer t.Stop()
				ackGrace = t.C

			case MsgBootstrapAck:
				if s.role == game.SeatHost && bootstrapSent {
					return nil
				}

			case MsgBootstrapState:
				if s.role != game.SeatGuest || m.State == nil {
					break
				}
				s.st = *m.State
				if err := s.conn.Send(ctx, Message{Type: MsgBootstrapAck}); err != nil {
					return ErrChannelLost
				}
				return nil

			default:
				// stray message from a previous round; drop
			}
		}
	}
}

func (s *Session) active(ctx context.Context, netCh <-chan Message, netErr <-chan error) (Outcome, error) {
	requested := false
	peerRequested := false
	var rematchDeadline <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return s.outcome(false), ctx.Err()

		case err := <-netErr:
			if s.phase == PhaseEnded {
				// peer walked away after the game ended: implicit decline
				return s.outcome(false), nil
			}
			s.log.Debug("channel lost mid-session", zap.Error(err))
			s.setPhase(PhaseFailed)
			return Outcome{Phase: PhaseFailed}, ErrChannelLost

		case <-rematchDeadline:
			if requested {
				requested = false
				rematchDeadline = nil
				s.emit(Update{Kind: UpdateRematchDeclined, Phase: s.phase})
			}

		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdPlay, cmdDraw:
				if s.phase != PhaseActive {
					break
				}
				action := game.Command{Type: game.CmdPlayCard, Seat: s.role, Card: cmd.card}
				if cmd.kind == cmdDraw {
					action = game.Command{Type: game.CmdDrawCard, Seat: s.role}
				}
				if s.role == game.SeatHost {
					if err := s.confirm(ctx, action); err != nil {
						return Outcome{Phase: PhaseFailed}, err
					}
				} else {
					if err := s.conn.Send(ctx, Message{Type: MsgProposedAction, Action: &action}); err != nil {
						s.setPhase(PhaseFailed)
						return Outcome{Phase: PhaseFailed}, ErrChannelLost
					}
				}

			case cmdRematchRequest:
				if s.phase != PhaseEnded {
					break
				}
				if err := s.conn.Send(ctx, Message{Type: MsgRematchRequest}); err != nil {
					return s.outcome(false), nil
				}
				requested = true
				t := time.NewTimer(s.bounds.RematchReply)
				defer t.Stop()
				rematchDeadline = t.C

			case cmdRematchAccept:
				if s.phase != PhaseEnded || !peerRequested {
					break
				}
				if err := s.conn.Send(ctx, Message{Type: MsgRematchAccept}); err != nil {
					return s.outcome(false), nil
				}
				return s.outcome(true), nil
			}

		case m := <-netCh:
			switch m.Type {
			case MsgProposedAction:
				if s.role != game.SeatHost || s.phase != PhaseActive || m.Action == nil {
					break
				}
				// never trust the seat on the wire: proposals can only
				// originate from the Guest
				action := *m.Action
				action.Seat = game.SeatGuest
				if err := s.confirm(ctx, action); err != nil {
					return Outcome{Phase: PhaseFailed}, err
				}

			case MsgConfirmedAction:
				if s.role != game.SeatGuest || s.phase != PhaseActive || m.Action == nil {
					break
				}
				_, next, err := game.Apply(s.st, *m.Action)
				if err != nil {
					// a confirmed action the local engine rejects means the
					// replicas have diverged; terminal for this session
					s.log.Error("replica diverged on confirmed action", zap.Error(err))
					s.setPhase(PhaseFailed)
					return Outcome{Phase: PhaseFailed}, ErrChannelLost
				}
				s.st = next
				if m.NextTurn != "" && m.NextTurn != next.Turn {
					s.log.Warn("peer turn indicator disagrees with replayed rule",
						zap.String("wire", string(m.NextTurn)),
						zap.String("local", string(next.Turn)),
					)
				}
				s.emitState()
				s.checkEnded()

			case MsgActionRejected:
				if s.role == game.SeatGuest {
					s.emit(Update{Kind: UpdateRejected, Phase: s.phase, Reason: m.Error})
				}

			case MsgRematchRequest:
				if s.phase == PhaseEnded {
					peerRequested = true
					s.emit(Update{Kind: UpdateRematchOffer, Phase: s.phase})
				}

			case MsgRematchAccept:
				if s.phase == PhaseEnded && requested {
					return s.outcome(true), nil
				}

			default:
				// out-of-order or unknown message; tolerate and drop
			}
		}
	}
}

// confirm validates an action against the authoritative state (Host
// only), applies it, and broadcasts the confirmation. A validation
// failure from the Host's own command surfaces as a local rejection
// notice; a Guest proposal failure is answered over the wire.
func (s *Session) confirm(ctx context.Context, action game.Command) error {
	_, next, err := game.Apply(s.st, action)
	if err != nil {
		if action.Seat == game.SeatHost {
			s.emit(Update{Kind: UpdateRejected, Phase: s.phase, Reason: err.Error()})
			return nil
		}
		if err := s.conn.Send(ctx, Message{Type: MsgActionRejected, Error: err.Error()}); err != nil {
			s.setPhase(PhaseFailed)
			return ErrChannelLost
		}
		return nil
	}

	s.st = next
	msg := Message{Type: MsgConfirmedAction, Action: &action, NextTurn: next.Turn}
	if err := s.conn.Send(ctx, msg); err != nil {
		s.setPhase(PhaseFailed)
		return ErrChannelLost
	}
	s.emitState()
	s.checkEnded()
	return nil
}

func (s *Session) checkEnded() {
	if s.st.Done && s.phase != PhaseEnded {
		s.setPhase(PhaseEnded)
	}
}

func (s *Session) outcome(rematch bool) Outcome {
	return Outcome{Phase: s.phase, Winner: s.st.Winner, Rematch: rematch}
}

func (s *Session) setPhase(p Phase) {
	s.phase = p
	s.emit(Update{Kind: UpdatePhase, Phase: p})
}

func (s *Session) emitState() {
	// Apply never mutates a published state, so a shallow snapshot is safe
	snap := s.st
	s.emit(Update{Kind: UpdateState, Phase: s.phase, State: &snap})
}

// emit is fire-and-forget: a presentation layer that stops draining
// updates loses snapshots, not correctness.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
	}
}
