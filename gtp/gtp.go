// Package gtp is a Go Text Protocol front end for a game.Game.
package gtp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/goban/game"
	"github.com/domino14/goban/move"
)

const (
	EngineName      = "goban"
	ProtocolVersion = "2"
)

// Version is set at build time.
var Version = "dev"

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type gtpcmd struct {
	id   string
	cmd  string
	args []string
}

type handler func(context.Context, *gtpcmd) (*Response, error)

// Controller runs GTP commands against one game.
type Controller struct {
	game     *game.Game
	commands map[string]handler
	quit     bool
}

func NewController(g *game.Game) *Controller {
	c := &Controller{game: g}
	c.commands = map[string]handler{
		"protocol_version": c.protocolVersion,
		"name":             c.name,
		"version":          c.version,
		"known_command":    c.knownCommand,
		"list_commands":    c.listCommands,
		"quit":             c.doQuit,
		"boardsize":        c.boardsize,
		"clear_board":      c.clearBoard,
		"komi":             c.komi,
		"play":             c.play,
		"genmove":          c.genmove,
		"fixed_handicap":   c.fixedHandicap,
		"showboard":        c.showboard,
		"final_score":      c.finalScore,
		"undo":             c.undo,
		"selfplay":         c.selfplay,
		"solve":            c.solve,
	}
	return c
}

// preprocess drops comments and control characters and turns tabs into
// spaces.
func preprocess(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, line)
	return strings.TrimSpace(line)
}

func parse(line string) (*gtpcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	cmd := &gtpcmd{}
	if len(fields) > 0 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			cmd.id = fields[0]
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return nil, errors.New("missing command")
	}
	cmd.cmd = strings.ToLower(fields[0])
	cmd.args = fields[1:]
	return cmd, nil
}

func format(id string, ok bool, message string) string {
	prefix := "?"
	if ok {
		prefix = "="
	}
	return prefix + id + " " + message + "\n\n"
}

// Execute runs one line of input and returns the formatted reply. Blank
// lines and comments produce no reply.
func (c *Controller) Execute(ctx context.Context, line string) string {
	line = preprocess(line)
	if line == "" {
		return ""
	}
	cmd, err := parse(line)
	if err != nil {
		return format("", false, err.Error())
	}
	h, ok := c.commands[cmd.cmd]
	if !ok {
		return format(cmd.id, false, "unknown command")
	}
	resp, err := h(ctx, cmd)
	if err != nil {
		log.Debug().Err(err).Str("cmd", cmd.cmd).Msg("command-failed")
		return format(cmd.id, false, err.Error())
	}
	return format(cmd.id, true, resp.message)
}

// Quit is true once the quit command has run.
func (c *Controller) Quit() bool {
	return c.quit
}

// LineReader is the input side of the loop. A readline.Instance
// satisfies it.
type LineReader interface {
	Readline() (string, error)
}

type scannerReader struct {
	s *bufio.Scanner
}

// NewScannerReader reads lines from r.
func NewScannerReader(r io.Reader) LineReader {
	return &scannerReader{s: bufio.NewScanner(r)}
}

func (sr *scannerReader) Readline() (string, error) {
	if !sr.s.Scan() {
		if err := sr.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return sr.s.Text(), nil
}

// Loop reads commands until quit, end of input or cancellation, writing
// every reply to w.
func (c *Controller) Loop(ctx context.Context, r LineReader, w io.Writer) error {
	for !c.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.Readline()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		reply := c.Execute(ctx, line)
		if reply == "" {
			continue
		}
		if _, err := io.WriteString(w, reply); err != nil {
			return err
		}
	}
	log.Debug().Msg("gtp-loop-exiting")
	return nil
}

func (c *Controller) argCount(cmd *gtpcmd, n int) error {
	if len(cmd.args) < n {
		return fmt.Errorf("syntax error: %s needs %d argument(s)", cmd.cmd, n)
	}
	return nil
}

func (c *Controller) protocolVersion(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	return msg(ProtocolVersion), nil
}

func (c *Controller) name(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	return msg(EngineName), nil
}

func (c *Controller) version(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	return msg(Version), nil
}

func (c *Controller) knownCommand(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.argCount(cmd, 1); err != nil {
		return nil, err
	}
	_, ok := c.commands[strings.ToLower(cmd.args[0])]
	return msg(strconv.FormatBool(ok)), nil
}

func (c *Controller) listCommands(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	names := lo.Keys(c.commands)
	slices.Sort(names)
	return msg(strings.Join(names, "\n")), nil
}

func (c *Controller) doQuit(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	c.quit = true
	return msg(""), nil
}

func (c *Controller) boardsize(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.argCount(cmd, 1); err != nil {
		return nil, err
	}
	size, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, errors.New("syntax error: boardsize is not an integer")
	}
	if err := c.game.SetBoardSize(size); err != nil {
		return nil, errors.New("unacceptable size")
	}
	return msg(""), nil
}

func (c *Controller) clearBoard(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	c.game.ClearBoard()
	return msg(""), nil
}

func (c *Controller) komi(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.argCount(cmd, 1); err != nil {
		return nil, err
	}
	k, err := strconv.ParseFloat(cmd.args[0], 64)
	if err != nil {
		return nil, errors.New("syntax error: komi is not a number")
	}
	c.game.SetKomi(k)
	return msg(""), nil
}

func (c *Controller) color(cmd *gtpcmd) (move.Color, error) {
	if err := c.argCount(cmd, 1); err != nil {
		return move.Empty, err
	}
	return ParseColor(cmd.args[0])
}

func (c *Controller) play(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.argCount(cmd, 2); err != nil {
		return nil, err
	}
	color, err := ParseColor(cmd.args[0])
	if err != nil {
		return nil, err
	}
	m, err := ParseVertex(cmd.args[1], c.game.Board().Size())
	if err != nil {
		return nil, err
	}
	if err := c.game.Play(color, m); err != nil {
		return nil, fmt.Errorf("illegal move: %w", err)
	}
	return msg(""), nil
}

func (c *Controller) genmove(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	color, err := c.color(cmd)
	if err != nil {
		return nil, err
	}
	m, err := c.game.GenMove(ctx, color)
	if err != nil {
		return nil, err
	}
	return msg(VertexString(m)), nil
}

func (c *Controller) fixedHandicap(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.argCount(cmd, 1); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, errors.New("syntax error: handicap is not an integer")
	}
	pts, err := c.game.FixedHandicap(n)
	if err != nil {
		return nil, err
	}
	return msg(strings.Join(lo.Map(pts, func(m move.Move, _ int) string {
		return VertexString(m)
	}), " ")), nil
}

func (c *Controller) showboard(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	return msg("\n" + strings.TrimRight(c.game.Board().ToDisplayText(), "\n")), nil
}

func (c *Controller) finalScore(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	return msg(ScoreString(c.game.FinalScore())), nil
}

func (c *Controller) undo(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	if err := c.game.Undo(); err != nil {
		return nil, errors.New("cannot undo")
	}
	return msg(""), nil
}

// selfplay plays the game out, Black first unless a color is given, and
// reports the final score.
func (c *Controller) selfplay(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	color := move.Black
	if len(cmd.args) > 0 {
		var err error
		if color, err = ParseColor(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	n, err := c.game.SelfPlay(ctx, color)
	if err != nil {
		return nil, err
	}
	log.Info().Int("moves", n).Msg("selfplay-done")
	return msg(ScoreString(c.game.FinalScore())), nil
}

// solve runs the alpha-beta searcher for a color without playing; the
// reply is the best move and its value.
func (c *Controller) solve(ctx context.Context, cmd *gtpcmd) (*Response, error) {
	color, err := c.color(cmd)
	if err != nil {
		return nil, err
	}
	m, val, err := c.game.Solve(ctx, color)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s %s", VertexString(m), strconv.FormatFloat(val, 'f', 1, 64))), nil
}
