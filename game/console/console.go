package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/minewalk/game/engine"
)

// Prompt is printed before every command is read
const Prompt = "Enter command (u/d/l/r/e/s/q): "

// Command is one parsed line of player input
type Command int

const (
	CmdUp Command = iota
	CmdDown
	CmdLeft
	CmdRight
	CmdExpose
	CmdScore
	CmdQuit
)

var commands = map[string]Command{
	"u": CmdUp, "up": CmdUp,
	"d": CmdDown, "down": CmdDown,
	"l": CmdLeft, "left": CmdLeft,
	"r": CmdRight, "right": CmdRight,
	"e": CmdExpose, "expose": CmdExpose,
	"s": CmdScore, "score": CmdScore,
	"q": CmdQuit, "quit": CmdQuit,
}

// ErrUnknownCommand is returned by ParseCommand for unrecognised input
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand maps a line of input to a Command. Case and surrounding
// whitespace are ignored.
func ParseCommand(line string) (Command, error) {
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(line))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	return cmd, nil
}

// Direction returns the movement direction of cmd, if it is a move
func (c Command) Direction() (engine.Direction, bool) {
	switch c {
	case CmdUp:
		return engine.Up, true
	case CmdDown:
		return engine.Down, true
	case CmdLeft:
		return engine.Left, true
	case CmdRight:
		return engine.Right, true
	}
	return "", false
}

// Console plays one game on a text stream
type Console struct {
	engine *engine.GameEngine
	in     *bufio.Reader
	out    io.Writer
	msgs   engine.Messages
}

// New creates a console driving eng, reading commands from in and writing
// the board and messages to out
func New(eng *engine.GameEngine, in io.Reader, out io.Writer) *Console {
	return &Console{
		engine: eng,
		in:     bufio.NewReader(in),
		out:    out,
		msgs:   eng.GetConfig().Messages,
	}
}

// Run plays until the player is dead. It returns early if ctx is cancelled
// or the output cannot be written.
func (c *Console) Run(ctx context.Context) error {
	if c.msgs.Welcome != "" {
		if err := c.println(c.msgs.Welcome); err != nil {
			return err
		}
	}

	for !c.engine.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.draw(); err != nil {
			return err
		}

		cmd, err := c.prompt()
		if errors.Is(err, io.EOF) {
			cmd = CmdQuit
		} else if err != nil {
			return err
		}

		if err := c.handle(cmd); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"score": c.engine.GetScore(),
		"quit":  c.engine.GetState().Quit,
		"moves": len(c.engine.GetMoveHistory()),
	}).Debug("[CONSOLE] Game finished")
	return nil
}

// prompt reads lines until one parses as a command
func (c *Console) prompt() (Command, error) {
	for {
		if err := c.println(Prompt); err != nil {
			return 0, err
		}

		line, err := c.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return 0, err
		}

		cmd, perr := ParseCommand(line)
		if perr == nil {
			return cmd, nil
		}
		if err != nil {
			// last unterminated line was not a command either
			return 0, err
		}
		if err := c.println(c.msgs.Invalid); err != nil {
			return 0, err
		}
	}
}

func (c *Console) handle(cmd Command) error {
	lines, err := Apply(c.engine, cmd)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := c.println(line); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs cmd against eng and returns the lines a driver should show
func Apply(eng *engine.GameEngine, cmd Command) ([]string, error) {
	msgs := eng.GetConfig().Messages
	score := func() string { return fmt.Sprintf(msgs.Score, eng.GetScore()) }

	if d, ok := cmd.Direction(); ok {
		outcome, err := eng.Move(d)
		if err != nil {
			return nil, err
		}
		if outcome.HitWall {
			return []string{msgs.Wall}, nil
		}
		return nil, nil
	}

	switch cmd {
	case CmdExpose:
		result, err := eng.Expose()
		if err != nil {
			return nil, err
		}
		if result.HitMine {
			return []string{msgs.Boom, score()}, nil
		}
		return []string{fmt.Sprintf(msgs.Safe, result.AdjacentMines), score()}, nil
	case CmdScore:
		return []string{score()}, nil
	case CmdQuit:
		eng.Quit()
		return []string{msgs.Goodbye}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, cmd)
}

func (c *Console) draw() error {
	for _, row := range engine.RenderBoard(c.engine.Board(), c.engine.Player(), false) {
		if err := c.println(row); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) println(s string) error {
	_, err := fmt.Fprintln(c.out, s)
	return err
}
