package indigo

import "fmt"

// MoveError is used when a player is attempting an invalid move.
type MoveError struct {
	Message string
}

func (e *MoveError) Error() string {
	return e.Message
}

func moveErrorf(format string, a ...interface{}) error {
	return &MoveError{fmt.Sprintf(format, a...)}
}

func badIndex(p *Player, index int) error {
	return moveErrorf("%s has no card at index %d, hand is %v", p.Name, index, p.Hand)
}

func gameFinished() error {
	return moveErrorf("The game is already finished")
}

// InsufficientCardsError is returned when more cards are requested than the deck holds.
type InsufficientCardsError struct {
	Requested int
	Remaining int
}

func (e *InsufficientCardsError) Error() string {
	return fmt.Sprintf("The remaining cards are insufficient to meet the request: wanted %d, %d left", e.Requested, e.Remaining)
}
