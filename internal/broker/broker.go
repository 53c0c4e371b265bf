package broker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raviakbar97/eluno/internal/game"
	"github.com/raviakbar97/eluno/internal/queue"
)

type Msg interface{ isBrokerMsg() }

// Join enqueues an identity and subscribes its outbox to queue events.
// Joining while already queued is an idempotent no-op for the queue
// position; the new outbox replaces the previous subscription so a
// reconnecting participant keeps receiving updates.
type Join struct {
	Identity string
	Outbox   chan Event
}

func (Join) isBrokerMsg() {}

// Leave removes an identity from the queue and drops its subscription.
// Safe to send for identities that were never queued.
type Leave struct{ Identity string }

func (Leave) isBrokerMsg() {}

// Heartbeat refreshes liveness metadata for a queued identity.
type Heartbeat struct{ Identity string }

func (Heartbeat) isBrokerMsg() {}

type Health struct {
	Reply chan HealthView
}

func (Health) isBrokerMsg() {}

// GetState is test-only: it reflects internal state without data races.
type GetState struct {
	Reply chan View
}

func (GetState) isBrokerMsg() {}

type Shutdown struct{}

func (Shutdown) isBrokerMsg() {}

type EventKind string

const (
	EventPositionUpdate EventKind = "positionUpdate"
	EventMatched        EventKind = "matched"
	EventTimedOut       EventKind = "timedOut"
)

// Match is the recipient-relevant slice of an Assignment: its own role,
// the opaque token used to reach the peer, and the session id. Internal
// sequencing data never leaves the broker.
type Match struct {
	SessionID   string
	Role        game.Seat
	PeerAddress string
}

// Event is what a subscribed participant receives on its outbox.
type Event struct {
	Kind     EventKind
	Position int
	Match    *Match
}

// Assignment pairs two identities removed from the queue together.
// Immutable once created.
type Assignment struct {
	SessionID string
	Host      string
	Guest     string
	CreatedAt time.Time
}

type HealthView struct {
	QueueDepth int
	UpSince    time.Time
}

type View struct {
	QueueDepth     int
	NumSubscribers int
	Assignments    int
}

type Config struct {
	// QueueWait bounds how long a record may sit in the queue before the
	// supervisor evicts it.
	QueueWait time.Duration
	// SweepInterval is how often the supervisor scans the queue. The sweep
	// runs inside the actor loop, on the same serialization point as every
	// other queue mutation.
	SweepInterval time.Duration
}

// Broker owns the matchmaking queue. Every mutation flows through the
// single actor goroutine, so pairing (which touches two records at once)
// can never interleave with a concurrent removal or eviction of either
// record.
type Broker struct {
	inbox       chan Msg
	q           *queue.Queue
	subs        map[string]chan Event
	cfg         Config
	upSince     time.Time
	assignments int
	log         *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(parent context.Context, cfg Config, log *zap.Logger) *Broker {
	ctx, cancel := context.WithCancel(parent)

	b := &Broker{
		inbox:   make(chan Msg, 64),
		q:       queue.New(),
		subs:    make(map[string]chan Event),
		cfg:     cfg,
		upSince: time.Now(),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	go b.loop()
	return b
}

// Inbox exposes the actor mailbox to the transport layer and tests.
func (b *Broker) Inbox() chan<- Msg { return b.inbox }

func (b *Broker) loop() {
	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.shutdown()
			return

		case <-ticker.C:
			b.sweep()

		case m := <-b.inbox:
			switch msg := m.(type) {
			case Join:
				b.handleJoin(msg)

			case Leave:
				b.handleLeave(msg.Identity)

			case Heartbeat:
				b.q.Touch(msg.Identity, time.Now())

			case Health:
				msg.Reply <- HealthView{QueueDepth: b.q.Size(), UpSince: b.upSince}

			case GetState:
				msg.Reply <- View{
					QueueDepth:     b.q.Size(),
					NumSubscribers: len(b.subs),
					Assignments:    b.assignments,
				}

			case Shutdown:
				b.shutdown()
				return
			}
		}
	}
}

func (b *Broker) handleJoin(msg Join) {
	_, created := b.q.Enqueue(msg.Identity, time.Now())

	if old, ok := b.subs[msg.Identity]; ok && old != msg.Outbox {
		close(old)
	}
	b.subs[msg.Identity] = msg.Outbox

	if !created {
		b.log.Debug("duplicate join", zap.String("identity", msg.Identity))
	}

	b.broadcastPositions()
	if b.tryPair() {
		b.broadcastPositions()
	}
}

func (b *Broker) handleLeave(identity string) {
	removed := b.q.RemoveByIdentity(identity)
	if ch, ok := b.subs[identity]; ok {
		close(ch)
		delete(b.subs, identity)
	}
	if removed {
		b.broadcastPositions()
	}
}

// tryPair drains the queue two records at a time, front-most first. The
// earlier record (lower sequence counter) becomes Host. Reports whether
// at least one Assignment was made.
func (b *Broker) tryPair() bool {
	paired := false
	for {
		host, guest, ok := b.q.DequeuePair()
		if !ok {
			return paired
		}
		paired = true

		asg := Assignment{
			SessionID: uuid.NewString(),
			Host:      host.Identity,
			Guest:     guest.Identity,
			CreatedAt: time.Now(),
		}
		b.assignments++

		b.log.Info("paired",
			zap.String("session_id", asg.SessionID),
			zap.String("host", asg.Host),
			zap.String("guest", asg.Guest),
		)

		b.deliver(asg.Host, Event{Kind: EventMatched, Match: &Match{
			SessionID:   asg.SessionID,
			Role:        game.SeatHost,
			PeerAddress: asg.Guest,
		}})
		b.deliver(asg.Guest, Event{Kind: EventMatched, Match: &Match{
			SessionID:   asg.SessionID,
			Role:        game.SeatGuest,
			PeerAddress: asg.Host,
		}})

		// Both leave broker oversight; no further events for them.
		b.retire(asg.Host)
		b.retire(asg.Guest)
	}
}

// sweep evicts records older than the queue-wait bound and retries
// pairing as a safety net.
func (b *Broker) sweep() {
	cutoff := time.Now().Add(-b.cfg.QueueWait)
	evicted := b.q.EvictBefore(cutoff)
	for _, r := range evicted {
		b.log.Info("queue wait expired",
			zap.String("identity", r.Identity),
			zap.Time("enqueued_at", r.EnqueuedAt),
		)
		b.deliver(r.Identity, Event{Kind: EventTimedOut})
		b.retire(r.Identity)
	}
	if len(evicted) > 0 {
		b.broadcastPositions()
	}
	if b.tryPair() {
		b.broadcastPositions()
	}
}

// broadcastPositions pushes each queued identity its new 1-based position.
func (b *Broker) broadcastPositions() {
	for i, id := range b.q.Identities() {
		b.deliver(id, Event{Kind: EventPositionUpdate, Position: i + 1})
	}
}

// deliver is fire-and-forget: a participant whose outbox is full is
// treated as gone and dropped, and the queue mutation that produced the
// event is never rolled back.
func (b *Broker) deliver(identity string, ev Event) {
	ch, ok := b.subs[identity]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		b.log.Warn("dropping slow subscriber", zap.String("identity", identity))
		close(ch)
		delete(b.subs, identity)
		b.q.RemoveByIdentity(identity)
	}
}

// retire closes and forgets a subscription whose identity has left broker
// oversight. Buffered events remain readable by the subscriber.
func (b *Broker) retire(identity string) {
	if ch, ok := b.subs[identity]; ok {
		close(ch)
		delete(b.subs, identity)
	}
}

func (b *Broker) shutdown() {
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.cancel()
}
