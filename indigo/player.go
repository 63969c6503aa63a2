package indigo

// PlayerID identifies one of the two sides.
type PlayerID int

// NoPlayer is the unset PlayerID, e.g. before anyone has won a trick.
const (
	NoPlayer PlayerID = iota
	Human
	Computer
)

func (id PlayerID) String() string {
	switch id {
	case Human:
		return "Human"
	case Computer:
		return "Computer"
	}
	return "NoPlayer"
}

// Player is a participant in the Indigo game.
type Player struct {
	ID    PlayerID
	Name  string
	Hand  []Card
	Won   []Card
	Bonus int
}

// Score is the points of every won card plus bonus points.
func (p Player) Score() int {
	s := p.Bonus
	for _, c := range p.Won {
		s += c.Rank.Points()
	}
	return s
}

// take removes and returns the card at index i of the hand, which must be valid.
func (p *Player) take(i int) Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
	return c
}
