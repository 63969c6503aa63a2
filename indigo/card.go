package indigo

import (
	"encoding/json"
	"fmt"
)

// Suit of a card.
type Suit int

// The different Card Suits, in deck order.
const (
	Diamonds Suit = iota
	Hearts
	Spades
	Clubs
)

// Suits lists every suit in deck order.
var Suits = []Suit{Diamonds, Hearts, Spades, Clubs}

// String is the suit symbol.
func (s Suit) String() string {
	switch s {
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	case Clubs:
		return "♣"
	}
	return "?"
}

// Red is true for the red suits.
func (s Suit) Red() bool {
	return s == Diamonds || s == Hearts
}

// Rank of a card.
type Rank int

// The different Card Ranks, in deck order.
const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// Ranks lists every rank in deck order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankSigns = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String is the rank sign printed on the card.
func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankSigns[r]
}

// Points is what a captured card of this rank is worth.
func (r Rank) Points() int {
	switch r {
	case Ace, Ten, Jack, Queen, King:
		return 1
	}
	return 0
}

// Card is a Card that is in the game.
type Card struct {
	Rank Rank
	Suit Suit
}

// String is the human readable representation of the card, e.g. "10♥".
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Matches is true when c can capture a table whose top card is top.
func (c Card) Matches(top Card) bool {
	return c.Rank == top.Rank || c.Suit == top.Suit
}

// MarshalJSON customizes the Card JSON representation to include a "Name" field.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank int
		Suit int
		Name string
	}{
		int(c.Rank),
		int(c.Suit),
		c.String(),
	})
}

// UnmarshalJSON reads back what MarshalJSON writes; "Name" is ignored.
func (c *Card) UnmarshalJSON(b []byte) error {
	var v struct {
		Rank int
		Suit int
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Rank < int(Ace) || v.Rank > int(King) || v.Suit < int(Diamonds) || v.Suit > int(Clubs) {
		return fmt.Errorf("invalid card rank=%d suit=%d", v.Rank, v.Suit)
	}
	c.Rank, c.Suit = Rank(v.Rank), Suit(v.Suit)
	return nil
}
