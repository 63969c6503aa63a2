// Package console plays an Indigo game against the computer on a text terminal.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/text/cases"

	"github.com/sbadame/indigo/indigo"
)

// Driver asks the human for moves on In and prints the game on Out.
type Driver struct {
	In    io.Reader
	Out   io.Writer
	Title string
	// Color prints red suits in red.
	Color bool

	g    *indigo.Game
	in   *bufio.Scanner
	fold cases.Caser
}

// Run plays g from the "play first?" question until the game is over or the human exits.
// The driver prints the game's events, so g must be created with
// indigo.WithListeners(d).
func (d *Driver) Run(g *indigo.Game) error {
	d.g = g
	d.in = bufio.NewScanner(d.In)
	d.fold = cases.Fold()

	if d.Title != "" {
		d.println(d.Title)
	}

	humanFirst, err := d.askFirst()
	if err != nil {
		return err
	}

	cards, err := g.Start(humanFirst)
	if err != nil {
		return err
	}
	fmt.Fprint(d.Out, "Initial cards on the table: ")
	d.println(d.cards(cards))

	first, second := d.humanPlay, d.computerPlay
	if !humanFirst {
		first, second = second, first
	}
	for g.State != indigo.Finished {
		if err := d.round(first, second); err != nil {
			return err
		}
	}
	d.println("Game Over")
	return nil
}

func (d *Driver) round(first, second func() error) error {
	if err := d.g.DealCards(); err != nil {
		return err
	}
	for i := 0; i < indigo.HandSize; i++ {
		if d.g.State == indigo.Finished {
			break
		}
		d.printBoard()
		if err := first(); err != nil {
			return err
		}
		if d.g.State == indigo.Finished {
			break
		}
		d.printBoard()
		if err := second(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) humanPlay() error {
	hand := d.g.Player(indigo.Human).Hand
	cards := make([]string, 0, len(hand))
	for i, c := range hand {
		cards = append(cards, fmt.Sprintf("%d)%s", i+1, d.card(c)))
	}
	d.println("Cards in hand: " + strings.Join(cards, " "))

	choice, err := d.askCard(len(hand))
	if err != nil {
		return err
	}
	if choice == 0 {
		d.g.Exit()
		return nil
	}
	if _, err := d.g.PlayCard(choice - 1); err != nil {
		return err
	}
	d.lastTurnBoard()
	return nil
}

func (d *Driver) computerPlay() error {
	if _, err := d.g.ComputerPlay(); err != nil {
		return err
	}
	d.lastTurnBoard()
	return nil
}

func (d *Driver) lastTurnBoard() {
	if d.g.Turn == indigo.LastTurn && len(d.g.Table) > 0 {
		d.printBoard()
	}
}

func (d *Driver) readLine() (string, error) {
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", fmt.Errorf("reading input: %w", io.ErrUnexpectedEOF)
	}
	return strings.TrimSpace(d.in.Text()), nil
}

func (d *Driver) askFirst() (bool, error) {
	for {
		d.println("Play first?")
		answer, err := d.readLine()
		if err != nil {
			return false, err
		}
		switch d.fold.String(answer) {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
}

// askCard returns a 1 based card number, or 0 when the human wants to exit.
func (d *Driver) askCard(upTo int) (int, error) {
	for {
		d.println(fmt.Sprintf("Choose a card to play (1-%d):", upTo))
		answer, err := d.readLine()
		if err != nil {
			d.g.Exit()
			return 0, err
		}
		if answer == "exit" {
			return 0, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= upTo {
			return n, nil
		}
	}
}

func (d *Driver) printBoard() {
	t := d.g.Table
	if len(t) == 0 {
		d.println("No cards on the table")
		return
	}
	d.println(fmt.Sprintf("%d cards on the table, and the top card is %s", len(t), d.card(t[len(t)-1])))
}

func (d *Driver) printScores(human, computer *indigo.Player) {
	d.println(fmt.Sprintf("Score: %s %d - %s %d", human.Name, human.Score(), computer.Name, computer.Score()))
	d.println(fmt.Sprintf("Cards: %s %d - %s %d", human.Name, len(human.Won), computer.Name, len(computer.Won)))
}

func (d *Driver) card(c indigo.Card) string {
	if d.Color && c.Suit.Red() {
		return pterm.LightRed(c.String())
	}
	return c.String()
}

func (d *Driver) cards(cs []indigo.Card) string {
	s := make([]string, 0, len(cs))
	for _, c := range cs {
		s = append(s, d.card(c))
	}
	return strings.Join(s, " ")
}

func (d *Driver) println(s string) {
	fmt.Fprintln(d.Out, s)
}

// OnPlay announces the computer's card.
func (d *Driver) OnPlay(p *indigo.Player, c indigo.Card) {
	d.println(fmt.Sprintf("%s plays %s", p.Name, d.card(c)))
}

// OnWin announces who took the table and, except on the last turn, the scores.
func (d *Driver) OnWin(winner, other *indigo.Player, firstMoverWon bool, turn int) {
	d.println(winner.Name + " wins cards")
	if turn == indigo.LastTurn {
		return
	}
	human, computer := winner, other
	if winner.ID == indigo.Computer {
		human, computer = other, winner
	}
	d.printScores(human, computer)
}

// OnGameOver prints the final scores.
func (d *Driver) OnGameOver(human, computer *indigo.Player) {
	d.printScores(human, computer)
}
