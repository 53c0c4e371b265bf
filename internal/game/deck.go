package game

import "math/rand"

const (
	// HandSize is the number of cards dealt to each seat at game start.
	HandSize = 6
	// counterCopies is how many cards exist per suit/counter combination.
	counterCopies = 2
	maxCounter    = 9
)

func newDeck() []Card {
	var deck []Card
	for _, s := range Suits {
		for c := 0; c <= maxCounter; c++ {
			for n := 0; n < counterCopies; n++ {
				deck = append(deck, Card{Suit: s, Counter: c})
			}
		}
	}
	return deck
}

// NewGame builds a dealt starting state. The seed pins the shuffle so the
// Host can reproduce a deal in tests; the Guest never deals, it receives
// the dealt state during the session bootstrap.
func NewGame(seed int64) State {
	deck := newDeck()
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	s := State{
		Turn:  SeatHost,
		Hands: map[Seat][]Card{SeatHost: {}, SeatGuest: {}},
	}

	for i := 0; i < HandSize; i++ {
		for _, seat := range []Seat{SeatHost, SeatGuest} {
			s.Hands[seat] = append(s.Hands[seat], deck[len(deck)-1])
			deck = deck[:len(deck)-1]
		}
	}

	// Flip the starter card.
	s.Discard = []Card{deck[len(deck)-1]}
	s.Deck = deck[:len(deck)-1]
	return s
}
