package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sbadame/indigo/console"
	"github.com/sbadame/indigo/indigo"
)

var (
	seed  = flag.Int64("seed", 0, "Seed for the shuffle and the computer's moves, 0 picks one from the clock.")
	color = flag.Bool("color", true, "Print red suits in red.")
)

func main() {
	flag.Parse()
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	d := &console.Driver{
		In:    os.Stdin,
		Out:   os.Stdout,
		Title: "Indigo Card Game",
		Color: *color,
	}
	g := indigo.NewGame(indigo.WithSeed(*seed), indigo.WithListeners(d))
	if err := d.Run(g); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
