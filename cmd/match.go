package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sbadame/indigo/indigo"
)

// Event is something that happened in a match, sent to the websocket clients.
type Event struct {
	Type   string
	Player string         `json:",omitempty"`
	Card   *indigo.Card   `json:",omitempty"`
	Turn   int            `json:",omitempty"`
	Scores map[string]int `json:",omitempty"`
}

// Match is one human playing against the computer.
// Every method expects the lock to be held, except newMatch.
type Match struct {
	sync.Mutex
	ID       string
	Nickname string
	game     *indigo.Game
	events   []Event
	logs     []string
	clients  []chan struct{}
	recorded bool
	// over is when the game finished, zero while it's running.
	over time.Time
	log  *zap.Logger
}

func newMatch(nick string, playFirst bool, seed int64, sb *scoreboard, log *zap.Logger) (*Match, error) {
	m := &Match{
		ID:       uuid.NewString(),
		Nickname: nick,
	}
	m.log = log.With(zap.String("match", m.ID), zap.String("nickname", nick))
	m.game = indigo.NewGame(
		indigo.WithSeed(seed),
		indigo.WithNames(nick, "Computer"),
		indigo.WithListeners(m),
	)

	table, err := m.game.Start(playFirst)
	if err != nil {
		return nil, err
	}
	m.logs = append(m.logs, fmt.Sprintf("start: first=%s table=%v", m.game.FirstMover, table))
	m.log.Info("match started", zap.Bool("play_first", playFirst), zap.Int64("seed", seed))

	if err := m.advance(sb); err != nil {
		return nil, err
	}
	return m, nil
}

// advance deals and lets the computer play until it's the human's turn or the game is over.
func (m *Match) advance(sb *scoreboard) error {
	g := m.game
	for g.State != indigo.Finished {
		if g.NeedsDeal() {
			if err := g.DealCards(); err != nil {
				return err
			}
			m.logs = append(m.logs, fmt.Sprintf("deal: deck=%d", g.DeckCount()))
			continue
		}
		if g.NextToPlay() != indigo.Computer {
			break
		}
		c, err := g.ComputerPlay()
		if err != nil {
			return err
		}
		m.logs = append(m.logs, fmt.Sprintf("computer: %s turn=%d", c, g.Turn))
	}

	if g.State == indigo.Finished && m.over.IsZero() {
		m.over = time.Now()
	}
	if g.State == indigo.Finished && !m.recorded && m.finishedNaturally() {
		h, c := g.Player(indigo.Human), g.Player(indigo.Computer)
		sb.record(m.Nickname, h.Score(), c.Score())
		m.recorded = true
		m.log.Info("match over", zap.Int("score", h.Score()), zap.Int("computer_score", c.Score()))
	}
	return nil
}

func (m *Match) finishedNaturally() bool {
	for _, e := range m.events {
		if e.Type == "gameover" {
			return true
		}
	}
	return false
}

// play plays the human's card at index, then lets the computer answer.
func (m *Match) play(index int, sb *scoreboard) error {
	c, err := m.game.Play(indigo.Human, index)
	if err != nil {
		m.logs = append(m.logs, fmt.Sprintf("FAIL play: %d, %v", index, err))
		return err
	}
	m.logs = append(m.logs, fmt.Sprintf("human: %s turn=%d", c, m.game.Turn))
	m.log.Debug("human played", zap.String("card", c.String()), zap.Int("turn", m.game.Turn))
	if err := m.advance(sb); err != nil {
		return err
	}
	m.notify()
	return nil
}

func (m *Match) exit() {
	m.game.Exit()
	if m.over.IsZero() {
		m.over = time.Now()
	}
	m.logs = append(m.logs, "exit")
	m.log.Info("match exited", zap.Int("turn", m.game.Turn))
	m.notify()
}

func (m *Match) stateJSON() ([]byte, error) {
	s, err := m.game.JSONForPlayer()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		MatchID string
		State   json.RawMessage
		Events  []Event
	}{m.ID, s, m.events})
}

func (m *Match) subscribe() chan struct{} {
	c := make(chan struct{}, 1)
	m.clients = append(m.clients, c)
	return c
}

func (m *Match) unsubscribe(c chan struct{}) {
	for i, x := range m.clients {
		if x == c {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			return
		}
	}
}

// notify tells every client that there is some new state.
func (m *Match) notify() {
	for _, c := range m.clients {
		select {
		case c <- struct{}{}:
		default:
			// Already has an update pending.
		}
	}
}

// OnPlay records the computer's card.
func (m *Match) OnPlay(p *indigo.Player, c indigo.Card) {
	m.events = append(m.events, Event{Type: "play", Player: p.Name, Card: &c, Turn: m.game.Turn})
}

// OnWin records a captured table, with the scores unless it's the last turn.
func (m *Match) OnWin(winner, other *indigo.Player, firstMoverWon bool, turn int) {
	e := Event{Type: "win", Player: winner.Name, Turn: turn}
	if turn != indigo.LastTurn {
		e.Scores = map[string]int{winner.Name: winner.Score(), other.Name: other.Score()}
	}
	m.events = append(m.events, e)
}

// OnGameOver records the final scores.
func (m *Match) OnGameOver(human, computer *indigo.Player) {
	m.events = append(m.events, Event{
		Type:   "gameover",
		Turn:   m.game.Turn,
		Scores: map[string]int{human.Name: human.Score(), computer.Name: computer.Score()},
	})
}

// scoreboard keeps every nickname's results against the computer for the life of the process.
type scoreboard struct {
	sync.Mutex
	cards map[string]*scorecard
}

type scorecard struct {
	Games          int
	Wins           int
	Points         int
	ComputerPoints int
}

func newScoreboard() *scoreboard {
	return &scoreboard{cards: make(map[string]*scorecard)}
}

func (sb *scoreboard) record(nick string, score, computerScore int) {
	sb.Lock()
	defer sb.Unlock()

	s, ok := sb.cards[nick]
	if !ok {
		s = &scorecard{}
		sb.cards[nick] = s
	}
	s.Games++
	s.Points += score
	s.ComputerPoints += computerScore
	if score > computerScore {
		s.Wins++
	}
}

func (sb *scoreboard) scores(nick string) scorecard {
	sb.Lock()
	defer sb.Unlock()
	if s, ok := sb.cards[nick]; ok {
		return *s
	}
	return scorecard{}
}

func (sb *scoreboard) nicknames() []string {
	sb.Lock()
	defer sb.Unlock()
	n := make([]string, 0, len(sb.cards))
	for k := range sb.cards {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}
