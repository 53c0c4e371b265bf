package game

import (
	"errors"
	"reflect"
	"testing"
)

func testState() State {
	return State{
		Turn: SeatHost,
		Hands: map[Seat][]Card{
			SeatHost:  {{Suit: SuitRed, Counter: 3}, {Suit: SuitBlue, Counter: 5}},
			SeatGuest: {{Suit: SuitGreen, Counter: 5}, {Suit: SuitRed, Counter: 7}},
		},
		Deck:    []Card{{Suit: SuitYellow, Counter: 1}, {Suit: SuitYellow, Counter: 2}},
		Discard: []Card{{Suit: SuitRed, Counter: 5}},
	}
}

func containsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func TestApply_RejectsOutOfTurnCommand(t *testing.T) {
	s := testState()
	cmd := Command{Type: CmdPlayCard, Seat: SeatGuest, Card: Card{Suit: SuitGreen, Counter: 5}}

	_, _, err := Apply(s, cmd)
	if err == nil || !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("want ErrWrongTurn, got %v", err)
	}
}

func TestApply_PlayLegality(t *testing.T) {
	cases := []struct {
		name    string
		card    Card
		wantErr error
	}{
		{
			name: "suit match is legal",
			card: Card{Suit: SuitRed, Counter: 3},
		},
		{
			name: "counter match is legal",
			card: Card{Suit: SuitBlue, Counter: 5},
		},
		{
			name:    "no match is rejected",
			card:    Card{Suit: SuitBlue, Counter: 9},
			wantErr: ErrIllegalPlay,
		},
		{
			name:    "card not in hand is rejected",
			card:    Card{Suit: SuitRed, Counter: 5},
			wantErr: ErrCardNotHeld,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testState()
			if tc.wantErr == ErrIllegalPlay {
				// make the card held but unplayable
				s.Hands[SeatHost] = append(s.Hands[SeatHost], tc.card)
			}
			_, _, err := Apply(s, Command{Type: CmdPlayCard, Seat: SeatHost, Card: tc.card})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestApply_SuitMatchFlipsTurn(t *testing.T) {
	s := testState()
	events, next, err := Apply(s, Command{Type: CmdPlayCard, Seat: SeatHost, Card: Card{Suit: SuitRed, Counter: 3}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if next.Turn != SeatGuest {
		t.Fatalf("want turn %q, got %q", SeatGuest, next.Turn)
	}
	if !containsEvent(events, EvtTurnAdvanced) || containsEvent(events, EvtExtraTurn) {
		t.Fatalf("want TurnAdvanced without ExtraTurn, got %+v", events)
	}
}

func TestApply_CounterMatchKeepsTurn(t *testing.T) {
	s := testState()
	events, next, err := Apply(s, Command{Type: CmdPlayCard, Seat: SeatHost, Card: Card{Suit: SuitBlue, Counter: 5}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if next.Turn != SeatHost {
		t.Fatalf("extra-turn play must keep turn with host, got %q", next.Turn)
	}
	if !containsEvent(events, EvtExtraTurn) || containsEvent(events, EvtTurnAdvanced) {
		t.Fatalf("want ExtraTurn without TurnAdvanced, got %+v", events)
	}
}

func TestApply_EmptyHandEndsGame(t *testing.T) {
	s := testState()
	s.Hands[SeatHost] = []Card{{Suit: SuitRed, Counter: 3}}

	events, next, err := Apply(s, Command{Type: CmdPlayCard, Seat: SeatHost, Card: Card{Suit: SuitRed, Counter: 3}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !next.Done || next.Winner != SeatHost {
		t.Fatalf("want done with host winner, got done=%v winner=%q", next.Done, next.Winner)
	}
	if !containsEvent(events, EvtGameCompleted) {
		t.Fatalf("expected EvtGameCompleted, got %+v", events)
	}

	_, _, err = Apply(next, Command{Type: CmdDrawCard, Seat: next.Turn})
	if !errors.Is(err, ErrGameAlreadyCompleted) {
		t.Fatalf("want ErrGameAlreadyCompleted, got %v", err)
	}
}

func TestApply_DrawTakesDeckTopAndFlipsTurn(t *testing.T) {
	s := testState()
	events, next, err := Apply(s, Command{Type: CmdDrawCard, Seat: SeatHost})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(next.Deck) != len(s.Deck)-1 {
		t.Fatalf("deck not consumed: %d -> %d", len(s.Deck), len(next.Deck))
	}
	want := Card{Suit: SuitYellow, Counter: 2}
	hand := next.Hands[SeatHost]
	if hand[len(hand)-1] != want {
		t.Fatalf("want drawn card %+v, got %+v", want, hand[len(hand)-1])
	}
	if next.Turn != SeatGuest || !containsEvent(events, EvtTurnAdvanced) {
		t.Fatalf("draw must pass turn, got turn=%q events=%+v", next.Turn, events)
	}
}

func TestApply_DrawRecyclesDiscardDeterministically(t *testing.T) {
	s := testState()
	s.Deck = nil
	s.Discard = []Card{
		{Suit: SuitGreen, Counter: 1},
		{Suit: SuitGreen, Counter: 2},
		{Suit: SuitRed, Counter: 5},
	}

	_, next, err := Apply(s, Command{Type: CmdDrawCard, Seat: SeatHost})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Below-top discards re-enter the deck reversed; the draw takes the
	// deck top, which must be the oldest discard.
	want := Card{Suit: SuitGreen, Counter: 1}
	hand := next.Hands[SeatHost]
	if hand[len(hand)-1] != want {
		t.Fatalf("want recycled draw %+v, got %+v", want, hand[len(hand)-1])
	}
	if len(next.Discard) != 1 || next.Discard[0] != (Card{Suit: SuitRed, Counter: 5}) {
		t.Fatalf("top card must survive recycle, got %+v", next.Discard)
	}
}

func TestApply_DrawOnExhaustedPilesRejected(t *testing.T) {
	s := testState()
	s.Deck = nil
	s.Discard = []Card{{Suit: SuitRed, Counter: 5}}

	_, _, err := Apply(s, Command{Type: CmdDrawCard, Seat: SeatHost})
	if !errors.Is(err, ErrDeckEmpty) {
		t.Fatalf("want ErrDeckEmpty, got %v", err)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := testState()
	snapshot := clone(s)

	_, _, err := Apply(s, Command{Type: CmdPlayCard, Seat: SeatHost, Card: Card{Suit: SuitRed, Counter: 3}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(s, snapshot) {
		t.Fatalf("Apply mutated its input: %+v vs %+v", s, snapshot)
	}
}

func TestReplay_IdenticalCommandsConverge(t *testing.T) {
	// Host and Guest replay the same confirmed command sequence against
	// the same bootstrap state; their replicas must stay identical.
	host := NewGame(42)
	guest := clone(host)

	cmds := []Command{
		{Type: CmdDrawCard, Seat: host.Turn},
	}
	for _, cmd := range cmds {
		var err error
		_, host, err = Apply(host, cmd)
		if err != nil {
			t.Fatalf("host apply: %v", err)
		}
		_, guest, err = Apply(guest, cmd)
		if err != nil {
			t.Fatalf("guest apply: %v", err)
		}
	}

	if !reflect.DeepEqual(host, guest) {
		t.Fatalf("replicas diverged:\nhost:  %+v\nguest: %+v", host, guest)
	}
}

func TestNewGame_DealsSixEach(t *testing.T) {
	s := NewGame(7)
	if len(s.Hands[SeatHost]) != HandSize || len(s.Hands[SeatGuest]) != HandSize {
		t.Fatalf("want %d cards per hand, got %d/%d", HandSize, len(s.Hands[SeatHost]), len(s.Hands[SeatGuest]))
	}
	if len(s.Discard) != 1 {
		t.Fatalf("want one starter discard, got %d", len(s.Discard))
	}
	total := len(s.Deck) + len(s.Discard) + len(s.Hands[SeatHost]) + len(s.Hands[SeatGuest])
	if total != len(newDeck()) {
		t.Fatalf("cards lost in deal: %d != %d", total, len(newDeck()))
	}
	if s.Turn != SeatHost {
		t.Fatalf("host leads a fresh game, got %q", s.Turn)
	}
}
