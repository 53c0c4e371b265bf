package game

import (
	"errors"
	"slices"
)

var ErrWrongTurn = errors.New("invalid turn")
var ErrIllegalPlay = errors.New("card does not match discard")
var ErrCardNotHeld = errors.New("card not in hand")
var ErrDeckEmpty = errors.New("no cards left to draw")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameAlreadyCompleted = errors.New("game already completed")

type Seat string

const (
	SeatHost  Seat = "host"
	SeatGuest Seat = "guest"
)

// Other returns the opposing seat.
func Other(s Seat) Seat {
	if s == SeatHost {
		return SeatGuest
	}
	return SeatHost
}

type Suit string

const (
	SuitRed    Suit = "red"
	SuitBlue   Suit = "blue"
	SuitGreen  Suit = "green"
	SuitYellow Suit = "yellow"
)

var Suits = []Suit{SuitRed, SuitBlue, SuitGreen, SuitYellow}

// Card is a single card: a suit plus a counter value 0..9.
type Card struct {
	Suit    Suit `json:"suit"`
	Counter int  `json:"counter"`
}

// State is the authoritative game state. The Host owns it; the Guest only
// holds replicas derived from Host-confirmed commands.
type State struct {
	Turn    Seat            `json:"turn"`
	Hands   map[Seat][]Card `json:"hands"`
	Deck    []Card          `json:"deck"`
	Discard []Card          `json:"discard"` // top card is the last element
	Winner  Seat            `json:"winner,omitempty"`
	Done    bool            `json:"done"`
}

type CommandType string

const (
	CmdPlayCard CommandType = "PlayCard"
	CmdDrawCard CommandType = "DrawCard"
)

type Command struct {
	Type CommandType `json:"type"`
	Seat Seat        `json:"seat"`
	Card Card        `json:"card,omitempty"`
}

type EventType string

const (
	EvtCardPlayed    EventType = "CardPlayed"
	EvtCardDrawn     EventType = "CardDrawn"
	EvtTurnAdvanced  EventType = "TurnAdvanced"
	EvtExtraTurn     EventType = "ExtraTurn"
	EvtGameCompleted EventType = "GameCompleted"
)

type Event struct {
	Type EventType
	Seat Seat
	Card Card
}

// Apply validates cmd against s and returns the events plus the next state.
// s itself is never mutated, so the same state can be replayed on both
// sides of a session and must produce identical results.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Done {
		return nil, s, ErrGameAlreadyCompleted
	}
	if cmd.Seat != s.Turn {
		return nil, s, ErrWrongTurn
	}

	next := clone(s)

	switch cmd.Type {
	case CmdPlayCard:
		i := slices.Index(next.Hands[cmd.Seat], cmd.Card)
		if i < 0 {
			return nil, s, ErrCardNotHeld
		}
		top := next.Discard[len(next.Discard)-1]
		if !matches(top, cmd.Card) {
			return nil, s, ErrIllegalPlay
		}

		next.Hands[cmd.Seat] = slices.Delete(next.Hands[cmd.Seat], i, i+1)
		next.Discard = append(next.Discard, cmd.Card)

		events := []Event{{Type: EvtCardPlayed, Seat: cmd.Seat, Card: cmd.Card}}

		if len(next.Hands[cmd.Seat]) == 0 {
			next.Done = true
			next.Winner = cmd.Seat
			events = append(events, Event{Type: EvtGameCompleted, Seat: cmd.Seat})
			return events, next, nil
		}

		// The extra-turn rule is recomputed here from the card values, never
		// read off the wire, so both sides always agree on whose turn it is.
		if extraTurn(top, cmd.Card) {
			events = append(events, Event{Type: EvtExtraTurn, Seat: cmd.Seat})
		} else {
			next.Turn = Other(cmd.Seat)
			events = append(events, Event{Type: EvtTurnAdvanced})
		}
		return events, next, nil

	case CmdDrawCard:
		if len(next.Deck) == 0 {
			recycleDiscard(&next)
		}
		if len(next.Deck) == 0 {
			return nil, s, ErrDeckEmpty
		}

		drawn := next.Deck[len(next.Deck)-1]
		next.Deck = next.Deck[:len(next.Deck)-1]
		next.Hands[cmd.Seat] = append(next.Hands[cmd.Seat], drawn)
		next.Turn = Other(cmd.Seat)

		events := []Event{
			{Type: EvtCardDrawn, Seat: cmd.Seat, Card: drawn},
			{Type: EvtTurnAdvanced},
		}
		return events, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// matches reports whether c is playable on top.
func matches(top, c Card) bool {
	return c.Suit == top.Suit || c.Counter == top.Counter
}

// extraTurn reports whether playing c on top grants the acting seat
// another turn: a counter match keeps the turn, a suit-only match does not.
func extraTurn(top, c Card) bool {
	return c.Counter == top.Counter
}

// recycleDiscard moves every discard below the top card back into the deck.
// The order is the reversed discard order, deliberately with no shuffle:
// mid-game refills must be deterministic so Host and Guest replicas never
// diverge.
func recycleDiscard(s *State) {
	if len(s.Discard) < 2 {
		return
	}
	top := s.Discard[len(s.Discard)-1]
	below := s.Discard[:len(s.Discard)-1]
	for i := len(below) - 1; i >= 0; i-- {
		s.Deck = append(s.Deck, below[i])
	}
	s.Discard = []Card{top}
}

func clone(s State) State {
	next := s
	next.Hands = map[Seat][]Card{
		SeatHost:  slices.Clone(s.Hands[SeatHost]),
		SeatGuest: slices.Clone(s.Hands[SeatGuest]),
	}
	next.Deck = slices.Clone(s.Deck)
	next.Discard = slices.Clone(s.Discard)
	return next
}
