// Package console drives one OLC session from a line-oriented stream,
// such as the daemon's stdin.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/gameconfig"
	"github.com/crystal-mush/empireolc/pkg/history"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/crystal-mush/empireolc/pkg/world"
	"golang.org/x/term"
)

// Handler is the signature for console command implementations.
type Handler func(c *Console, args string)

// Command is a registered console command.
type Command struct {
	Name    string
	Handler Handler
	Help    string
}

// Console binds a session to a world and an output stream.
type Console struct {
	World   *world.World
	Session *olc.Session
	History *history.Store // optional

	out      io.Writer
	prompt   string
	commands map[string]*Command
	olcCmds  map[string]*Command
	quit     bool
}

// New creates a console for sess, which is attached to w's registry.
func New(w *world.World, sess *olc.Session, out io.Writer) *Console {
	c := &Console{
		World:   w,
		Session: sess,
		out:     out,
		prompt:  "olc> ",
	}
	c.commands = initCommands()
	c.olcCmds = initOLCCommands()
	w.Registry.Attach(sess)
	return c
}

// SetPrompt changes the prompt shown on interactive terminals.
func (c *Console) SetPrompt(p string) { c.prompt = p }

func (c *Console) send(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// report prints an error the way a player would see it.
func (c *Console) report(err error) {
	var ie *olc.InputError
	if errors.As(err, &ie) {
		c.send("%s", ie.Msg)
		return
	}
	var ce *gameconfig.InputError
	if errors.As(err, &ce) {
		c.send("%s", ce.Msg)
		return
	}
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	c.send("%s", msg)
}

// FlushNotices prints notices queued by the event bus.
func (c *Console) FlushNotices() {
	for _, n := range c.Session.Notices() {
		c.send("%s", n)
	}
}

// Exec runs one input line.
func (c *Console) Exec(line string) {
	defer c.FlushNotices()

	if c.Session.Capturing() {
		c.World.Registry.Do(func() { c.Session.TextLine(line) })
		return
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line[0] == '.' {
		name, arg := olc.SplitArg(line[1:])
		if name == "" {
			c.send("Which field? Try: %s", strings.Join(c.World.Registry.FieldNames(c.Session), " "))
			return
		}
		if err := c.World.Registry.Field(c.Session, name, arg); err != nil {
			c.report(err)
		}
		return
	}

	word, args := olc.SplitArg(line)
	cmd, ok := c.commands[strings.ToLower(word)]
	if !ok {
		c.send("Huh? Type 'help' for commands.")
		return
	}
	cmd.Handler(c, args)
}

// Run reads lines from in until EOF, "quit" or ctx is done. A prompt is
// printed only when in is a terminal.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
		close(lines)
	}()

	for !c.quit {
		if interactive {
			io.WriteString(c.out, c.prompt)
		}
		select {
		case <-ctx.Done():
			c.World.Registry.Detach(c.Session)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				c.World.Registry.Detach(c.Session)
				return <-errc
			}
			c.Exec(line)
		}
	}
	c.World.Registry.Detach(c.Session)
	return nil
}

func parseVnum(arg string) (proto.Vnum, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 {
		return proto.Nothing, false
	}
	return proto.Vnum(n), true
}
