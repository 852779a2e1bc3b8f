package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/factoid"
)

// Channel is the single channel the console pretends to be in
const Channel = "#console"

// Engine is the factoid engine as seen by the console
type Engine interface {
	Nick() string
	Handle(ctx context.Context, line bucket.Line) *factoid.Message
	HandleJoin(ctx context.Context, nick, channel string) *factoid.Message
	HandlePart(ctx context.Context, nick, channel string)
}

// Console is an interactive transport reading lines from a reader. Lines are spoken as the
// current nick; "/me" sends an action, "/nick" switches speaker, "/join" and "/part" simulate
// channel events and "/admin" toggles admin rights
type Console struct {
	engine Engine
	out    io.Writer
	mutex  sync.Mutex // Guards out against the idle prompter

	nick  string
	admin bool
}

// New creates a console speaking as nick
func New(engine Engine, out io.Writer, nick string) *Console {
	return &Console{engine: engine, out: out, nick: nick}
}

// Send prints a message from the bot
func (c *Console) Send(channel string, msg *factoid.Message) error {
	if msg == nil {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var err error
	if msg.Action {
		_, err = fmt.Fprintf(c.out, "%s * %s %s\n", channel, c.engine.Nick(), msg.Text)
	} else {
		_, err = fmt.Fprintf(c.out, "%s <%s> %s\n", channel, c.engine.Nick(), msg.Text)
	}
	return err
}

// Run reads lines until the reader is exhausted, "exit" is typed or ctx is done
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "exit" {
			return nil
		}
		if input == "" {
			continue
		}

		if err := c.Send(Channel, c.process(ctx, input)); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// process handles one typed line and returns the bot's reply, if any
func (c *Console) process(ctx context.Context, input string) *factoid.Message {
	command, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/nick":
		if rest != "" {
			c.nick = rest
		}
		return nil
	case "/admin":
		c.admin = !c.admin
		return nil
	case "/join":
		return c.engine.HandleJoin(ctx, c.nick, Channel)
	case "/part":
		c.engine.HandlePart(ctx, c.nick, Channel)
		return nil
	case "/me":
		return c.engine.Handle(ctx, bucket.Line{
			Nick:    c.nick,
			Channel: Channel,
			Text:    rest,
			Action:  true,
			Admin:   c.admin,
			Op:      c.admin,
		})
	}

	text, addressed := bucket.StripAddress(c.engine.Nick(), input)
	return c.engine.Handle(ctx, bucket.Line{
		Nick:      c.nick,
		Channel:   Channel,
		Text:      text,
		Addressed: addressed,
		Admin:     c.admin,
		Op:        c.admin,
	})
}
