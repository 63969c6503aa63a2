package indigo

import "math/rand"

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Deck is the draw pile. The zero value is an empty deck; call Reset to fill it.
type Deck struct {
	cards []Card
}

// NewDeck creates a full deck in canonical, unshuffled order.
func NewDeck() *Deck {
	d := &Deck{}
	d.Reset()
	return d
}

// Reset puts back exactly one of every card: all ranks of the first suit, then the next suit...
func (d *Deck) Reset() {
	d.cards = make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			d.cards = append(d.cards, Card{r, s})
		}
	}
}

// Shuffle randomly permutes the remaining cards.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// TakeTop removes and returns the first n cards.
func (d *Deck) TakeTop(n int) ([]Card, error) {
	if n < 1 || n > len(d.cards) {
		return nil, &InsufficientCardsError{Requested: n, Remaining: len(d.cards)}
	}
	top := make([]Card, n)
	copy(top, d.cards[:n])
	d.cards = d.cards[n:]
	return top, nil
}

// Remove takes the given cards out of the deck. Cards not in the deck are ignored.
func (d *Deck) Remove(cards ...Card) {
	kept := d.cards[:0]
	for _, c := range d.cards {
		if !contains(c, cards) {
			kept = append(kept, c)
		}
	}
	d.cards = kept
}

// Len is the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards is a copy of the remaining cards, top first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

func contains(c Card, s []Card) bool {
	for _, i := range s {
		if i == c {
			return true
		}
	}
	return false
}
