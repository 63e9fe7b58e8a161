// Command play runs a grid game against the engine in the terminal.
//
//	play -game connect4 -level hard
//
// Moves are entered as a column number (connect four) or "row col"
// (gomoku). "undo" takes back the last exchange, "hint" shows the
// engine's threat analysis, "quit" exits.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
)

func main() {
	gameName := flag.String("game", "connect4", "connect4 or gomoku")
	level := flag.String("level", "medium", "easy, medium or hard")
	seed := flag.Int64("seed", time.Now().UnixNano(), "selector seed")
	flag.Parse()

	var (
		state *engine.State
		err   error
	)
	gravity := false
	switch *gameName {
	case "connect4":
		geo, _ := board.NewQuadraticGrid(6, 7, board.Octagonal)
		state, err = engine.NewState(engine.Config{Geometry: geo, WinLength: 4, Gravity: true})
		gravity = true
	case "gomoku":
		geo, _ := board.NewQuadraticGrid(15, 15, board.Octagonal)
		state, err = engine.NewState(engine.Config{Geometry: geo, WinLength: 5})
	default:
		fmt.Fprintf(os.Stderr, "unknown game %q\n", *gameName)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := termenv.NewOutput(os.Stdout)
	sel := engine.NewSelector(*seed)
	tier := game.ParseLevel(*level)

	fmt.Printf("%s, %s level, board storage %s (%d bytes)\n",
		*gameName, tier, humanize.Bytes(uint64(state.MemoryUsage())), state.MemoryUsage())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		render(out, state)
		if state.IsGameOver() {
			switch state.Winner() {
			case 1:
				fmt.Println("you win")
			case 2:
				fmt.Println("the engine wins")
			default:
				fmt.Println("draw")
			}
			return
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "quit", "q":
			return
		case "undo":
			// one engine ply and one of ours
			state.UndoMove()
			state.UndoMove()
			continue
		case "hint":
			printHint(state)
			continue
		}

		coord, err := parseMove(state, line, gravity)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if _, err := state.MakeMove(coord); err != nil {
			fmt.Println(err)
			continue
		}
		if state.IsGameOver() {
			continue
		}
		reply, err := sel.Choose(state, tier)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if _, err := state.MakeMove(reply); err != nil {
			fmt.Println(err)
		}
	}
}

func parseMove(state *engine.State, line string, gravity bool) (board.Coord, error) {
	if gravity {
		var col int
		if _, err := fmt.Sscanf(line, "%d", &col); err != nil {
			return board.Coord{}, fmt.Errorf("enter a column number")
		}
		return state.Landing(col)
	}
	var row, col int
	if _, err := fmt.Sscanf(line, "%d %d", &row, &col); err != nil {
		return board.Coord{}, fmt.Errorf("enter: row col")
	}
	return board.Coord{Row: row, Col: col}, nil
}

func printHint(state *engine.State) {
	me := state.CurrentPlayer()
	if wins := engine.WinningMoves(state, me); len(wins) > 0 {
		fmt.Printf("winning: %v\n", wins)
		return
	}
	if blocks := engine.BlockingMoves(state, me); len(blocks) > 0 {
		fmt.Printf("block: %v\n", blocks)
		return
	}
	fmt.Println("no immediate threats")
}

func render(out *termenv.Output, state *engine.State) {
	profile := out.ColorProfile()
	yellow := profile.Color("11")
	red := profile.Color("9")
	green := profile.Color("10")

	winning := make(map[board.Coord]bool)
	for _, c := range state.WinningLine() {
		winning[c] = true
	}

	geo := state.Geometry()
	cells := state.Board()
	fmt.Print("   ")
	for col := 0; col < geo.Cols(); col++ {
		fmt.Printf("%2d ", col)
	}
	fmt.Println()
	for row := 0; row < geo.Rows(); row++ {
		fmt.Printf("%2d ", row)
		for col := 0; col < geo.Cols(); col++ {
			idx, _ := geo.ToIndex(board.Coord{Row: row, Col: col})
			glyph := " ."
			var style termenv.Style
			switch cells[idx] {
			case 1:
				glyph = " X"
				style = out.String(glyph).Foreground(yellow)
			case 2:
				glyph = " O"
				style = out.String(glyph).Foreground(red)
			}
			if cells[idx] == 0 {
				fmt.Print(glyph, " ")
				continue
			}
			if winning[board.Coord{Row: row, Col: col}] {
				style = style.Foreground(green).Bold()
			}
			fmt.Print(style.String(), " ")
		}
		fmt.Println()
	}
}
