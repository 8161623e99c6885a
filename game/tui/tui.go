package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/wricardo/minewalk/game/console"
	"github.com/wricardo/minewalk/game/engine"
)

const help = "arrows/u d l r: move   e/space/enter: expose   s: score   q/esc: quit"

// Game drives one engine from a tview application
type Game struct {
	engine *engine.GameEngine
	app    *tview.Application
	board  *tview.Table
	status *tview.TextView
}

// New builds the view for eng. Call Run to take over the terminal.
func New(eng *engine.GameEngine) *Game {
	g := &Game{
		engine: eng,
		app:    tview.NewApplication(),
		board:  tview.NewTable(),
		status: tview.NewTextView(),
	}

	g.board.SetBorder(true).SetTitle(" " + eng.GetConfig().Name + " ")
	g.status.SetBorder(true).SetTitle(" minewalk ")

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(g.board, eng.GetConfig().Height+2, 0, true).
		AddItem(g.status, 6, 0, false)

	g.app.SetRoot(layout, true).SetInputCapture(g.handleKey)

	g.draw()
	g.show(eng.Message())
	return g
}

// Run blocks until the player leaves the finished game or ctx is cancelled
func (g *Game) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			g.app.Stop()
		case <-done:
		}
	}()

	return g.app.Run()
}

// KeyCommand maps a key press to a console command
func KeyCommand(event *tcell.EventKey) (console.Command, bool) {
	switch event.Key() {
	case tcell.KeyUp:
		return console.CmdUp, true
	case tcell.KeyDown:
		return console.CmdDown, true
	case tcell.KeyLeft:
		return console.CmdLeft, true
	case tcell.KeyRight:
		return console.CmdRight, true
	case tcell.KeyEnter:
		return console.CmdExpose, true
	case tcell.KeyEsc:
		return console.CmdQuit, true
	case tcell.KeyRune:
		if event.Rune() == ' ' {
			return console.CmdExpose, true
		}
		cmd, err := console.ParseCommand(string(event.Rune()))
		return cmd, err == nil
	}
	return 0, false
}

// CellText renders one square. The player's square is bracketed.
func CellText(view engine.SquareView, player bool) string {
	var mark string
	switch {
	case view.Exposed && view.Mine:
		mark = "*"
	case view.Exposed:
		mark = strconv.Itoa(view.AdjacentMines)
	case view.Mine:
		// only set once the game is over
		mark = "+"
	default:
		mark = "."
	}

	if player {
		return "[" + mark + "]"
	}
	return " " + mark + " "
}

func cellColor(view engine.SquareView, player bool) tcell.Color {
	switch {
	case player:
		return tcell.ColorYellow
	case view.Mine:
		return tcell.ColorRed
	case view.Exposed:
		return tcell.ColorGreen
	}
	return tcell.ColorWhite
}

func (g *Game) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if g.engine.IsGameOver() {
		g.app.Stop()
		return nil
	}

	cmd, ok := KeyCommand(event)
	if !ok {
		return event
	}

	lines, err := console.Apply(g.engine, cmd)
	if err != nil {
		lines = []string{err.Error()}
	}
	if g.engine.IsGameOver() {
		lines = append(lines, "Game over. Press any key to exit.")
	}

	g.draw()
	g.show(lines...)
	return nil
}

func (g *Game) draw() {
	state := g.engine.GetState()
	for y, row := range state.Grid {
		for x, view := range row {
			player := state.PlayerPos == engine.Position{X: x, Y: y}
			g.board.SetCell(y, x, tview.NewTableCell(CellText(view, player)).
				SetAlign(tview.AlignCenter).
				SetTextColor(cellColor(view, player)))
		}
	}
}

func (g *Game) show(lines ...string) {
	status := fmt.Sprintf("Score: %d   Safe squares left: %d", g.engine.GetScore(), g.engine.GetState().SafeRemaining)
	text := append([]string{status}, lines...)
	text = append(text, help)
	g.status.SetText(strings.Join(text, "\n"))
}
