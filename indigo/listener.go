package indigo

// Listener is told about everything that happens in a Game, synchronously and in
// registration order.
type Listener interface {
	// OnPlay announces a card played by the computer.
	OnPlay(p *Player, c Card)
	// OnWin announces that winner captured the table on the given turn.
	OnWin(winner, other *Player, firstMoverWon bool, turn int)
	// OnGameOver announces the final state once the deck runs out.
	OnGameOver(human, computer *Player)
}

// ListenerFuncs adapts plain functions into a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Play     func(p *Player, c Card)
	Win      func(winner, other *Player, firstMoverWon bool, turn int)
	GameOver func(human, computer *Player)
}

// OnPlay calls l.Play if set.
func (l ListenerFuncs) OnPlay(p *Player, c Card) {
	if l.Play != nil {
		l.Play(p, c)
	}
}

// OnWin calls l.Win if set.
func (l ListenerFuncs) OnWin(winner, other *Player, firstMoverWon bool, turn int) {
	if l.Win != nil {
		l.Win(winner, other, firstMoverWon, turn)
	}
}

// OnGameOver calls l.GameOver if set.
func (l ListenerFuncs) OnGameOver(human, computer *Player) {
	if l.GameOver != nil {
		l.GameOver(human, computer)
	}
}
