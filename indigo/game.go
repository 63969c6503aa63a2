// Package indigo implements the rules of Indigo, a two player card game where a
// card captures the whole table when it matches the rank or suit of the top card.
package indigo

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// State of a Game. A Game only ever goes from Running to Finished.
type State int

// The possible game states.
const (
	Running State = iota
	Finished
)

func (s State) String() string {
	if s == Finished {
		return "Finished"
	}
	return "Running"
}

// MarshalText writes the state name into JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Game rule constants.
const (
	// TableSize is the number of cards put face-up when the game starts.
	TableSize = 4
	// HandSize is the number of cards each player gets per deal.
	HandSize = 6
	// LastTurn is the turn on which the last card of the deck is played.
	LastTurn = DeckSize - TableSize
	// BonusPoints go to the player that captured the most cards.
	BonusPoints = 3

	dealSize = 2 * HandSize
)

// Game exposes all of the state of an Indigo game between a human and the computer.
// A Game is not safe for concurrent use.
type Game struct {
	State      State
	Turn       int
	Table      []Card
	LastWinner PlayerID
	FirstMover PlayerID
	Players    []Player

	deck      *Deck
	rng       *rand.Rand
	listeners []Listener
}

// Option configures a new Game.
type Option func(*Game)

// WithSeed makes the shuffle and the computer's choices reproducible.
func WithSeed(seed int64) Option {
	return func(g *Game) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithListeners registers listeners, notified in the given order.
func WithListeners(l ...Listener) Option {
	return func(g *Game) {
		g.listeners = append(g.listeners, l...)
	}
}

// WithNames renames the two players.
func WithNames(human, computer string) Option {
	return func(g *Game) {
		g.Player(Human).Name = human
		g.Player(Computer).Name = computer
	}
}

// NewGame creates a game with a full, unshuffled deck. Call Start to begin playing.
func NewGame(opts ...Option) *Game {
	g := &Game{
		Players: []Player{
			{ID: Human, Name: "Player"},
			{ID: Computer, Name: "Computer"},
		},
		deck: NewDeck(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Player returns the player with the given id, or nil for NoPlayer.
func (g *Game) Player(id PlayerID) *Player {
	for i, p := range g.Players {
		if p.ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// Opponent returns the other player.
func (g *Game) Opponent(id PlayerID) *Player {
	if id == Human {
		return g.Player(Computer)
	}
	return g.Player(Human)
}

// DeckCount is the number of cards still in the deck.
func (g *Game) DeckCount() int {
	return g.deck.Len()
}

// Start shuffles the deck and puts the first cards face-up on the table.
// The cards put on the table are returned so they can be announced.
func (g *Game) Start(humanFirst bool) ([]Card, error) {
	if g.FirstMover != NoPlayer {
		return nil, fmt.Errorf("game already started, %s went first", g.FirstMover)
	}
	g.FirstMover = Computer
	if humanFirst {
		g.FirstMover = Human
	}

	g.deck.Shuffle(g.rng)
	cards, err := g.deck.TakeTop(TableSize)
	if err != nil {
		return nil, err
	}
	g.Table = append(g.Table, cards...)
	return cards, nil
}

// PlayCard plays the card at index of the human's hand.
func (g *Game) PlayCard(index int) (Card, error) {
	return g.play(Human, index, false)
}

// ComputerPlay plays a random card from the computer's hand and announces it.
func (g *Game) ComputerPlay() (Card, error) {
	p := g.Player(Computer)
	if len(p.Hand) == 0 {
		return Card{}, moveErrorf("%s has no cards to play", p.Name)
	}
	return g.play(Computer, g.rng.Intn(len(p.Hand)), true)
}

// Play is PlayCard or ComputerPlay, checked against NextToPlay.
// The index is ignored for the computer, which picks its own card.
func (g *Game) Play(id PlayerID, index int) (Card, error) {
	if next := g.NextToPlay(); id != next {
		return Card{}, moveErrorf("Not %s's turn, waiting for %s", id, next)
	}
	if id == Computer {
		return g.ComputerPlay()
	}
	return g.PlayCard(index)
}

func (g *Game) play(id PlayerID, index int, announce bool) (Card, error) {
	if g.State == Finished {
		return Card{}, gameFinished()
	}
	p := g.Player(id)
	if index < 0 || index >= len(p.Hand) {
		return Card{}, badIndex(p, index)
	}

	g.Turn++
	c := p.take(index)
	if announce {
		for _, l := range g.listeners {
			l.OnPlay(p, c)
		}
	}

	if len(g.Table) == 0 {
		g.Table = append(g.Table, c)
		return c, nil
	}

	won := c.Matches(g.Table[len(g.Table)-1])
	g.Table = append(g.Table, c)
	if won {
		p.Won = append(p.Won, g.Table...)
		g.Table = nil
		g.LastWinner = p.ID
		other := g.Opponent(p.ID)
		for _, l := range g.listeners {
			l.OnWin(p, other, p.ID == g.FirstMover, g.Turn)
		}
	}
	return c, nil
}

// NextToPlay is the player expected to play the next card, or NoPlayer when
// the game hasn't started or is over.
func (g *Game) NextToPlay() PlayerID {
	if g.State == Finished || g.FirstMover == NoPlayer {
		return NoPlayer
	}
	if g.Turn%2 == 0 {
		return g.FirstMover
	}
	return g.Opponent(g.FirstMover).ID
}

// NeedsDeal is true when both hands are empty and the game is still going.
func (g *Game) NeedsDeal() bool {
	if g.State == Finished || g.FirstMover == NoPlayer {
		return false
	}
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// DealCards starts a round by giving each player a new hand.
// When the deck can't cover a full deal the game ends instead.
func (g *Game) DealCards() error {
	if g.State == Finished {
		return nil
	}
	if g.FirstMover == NoPlayer {
		return moveErrorf("Can't deal before the game has started")
	}
	if g.deck.Len() < dealSize {
		g.finish()
		return nil
	}

	cards, err := g.deck.TakeTop(dealSize)
	if err != nil {
		return err
	}
	h, c := g.Player(Human), g.Player(Computer)
	h.Hand = append(h.Hand, cards[:HandSize]...)
	c.Hand = append(c.Hand, cards[HandSize:]...)
	return nil
}

// Exit ends the game right away: no bonus and no game over notification.
func (g *Game) Exit() {
	g.State = Finished
}

func (g *Game) finish() {
	if len(g.Table) > 0 {
		if w := g.Player(g.LastWinner); w != nil {
			w.Won = append(w.Won, g.Table...)
		} else {
			// Nobody ever took the table, the first mover keeps it in hand.
			f := g.Player(g.FirstMover)
			f.Hand = append(f.Hand, g.Table...)
		}
		g.Table = nil
	}

	g.calculateBonus()
	g.State = Finished

	h, c := g.Player(Human), g.Player(Computer)
	for _, l := range g.listeners {
		l.OnGameOver(h, c)
	}
}

func (g *Game) calculateBonus() {
	h, c := g.Player(Human), g.Player(Computer)
	switch {
	case len(h.Won) > len(c.Won):
		h.Bonus += BonusPoints
	case len(c.Won) > len(h.Won):
		c.Bonus += BonusPoints
	default:
		g.Player(g.FirstMover).Bonus += BonusPoints
	}
}

// CheckCards verifies that every card of the deck is in exactly one place.
func (g *Game) CheckCards() error {
	seen := make(map[Card]string, DeckSize)
	add := func(where string, cards []Card) error {
		for _, c := range cards {
			if w, ok := seen[c]; ok {
				return fmt.Errorf("%s is both in %s and %s", c, w, where)
			}
			seen[c] = where
		}
		return nil
	}

	if err := add("the deck", g.deck.cards); err != nil {
		return err
	}
	if err := add("the table", g.Table); err != nil {
		return err
	}
	for _, p := range g.Players {
		if err := add(p.Name+"'s hand", p.Hand); err != nil {
			return err
		}
		if err := add(p.Name+"'s won cards", p.Won); err != nil {
			return err
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("Failed %d card check, found %d", DeckSize, len(seen))
	}
	return nil
}

type playerJSON struct {
	ID       PlayerID
	Name     string
	HandSize int
	Won      int
	Bonus    int
	Score    int
}

// JSONForPlayer is the game as the human sees it: the computer's hand and the
// deck are only given as counts.
func (g *Game) JSONForPlayer() ([]byte, error) {
	j := struct {
		State      State
		Turn       int
		Table      []Card
		LastWinner PlayerID
		FirstMover PlayerID
		NextToPlay PlayerID
		DeckSize   int
		Hand       []Card
		Players    []playerJSON
	}{
		g.State,
		g.Turn,
		g.Table,
		g.LastWinner,
		g.FirstMover,
		g.NextToPlay(),
		g.deck.Len(),
		g.Player(Human).Hand,
		make([]playerJSON, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		j.Players = append(j.Players, playerJSON{p.ID, p.Name, len(p.Hand), len(p.Won), p.Bonus, p.Score()})
	}
	return json.Marshal(j)
}
