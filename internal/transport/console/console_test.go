package console

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	bucket_store "github.com/ethanbaker/bucket/internal/stores/bucket"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	lines []bucket.Line
	joins []string
	parts []string
}

func (f *fakeEngine) Nick() string { return "bucket" }

func (f *fakeEngine) Handle(ctx context.Context, line bucket.Line) *factoid.Message {
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeEngine) HandleJoin(ctx context.Context, nick, channel string) *factoid.Message {
	f.joins = append(f.joins, nick)
	return &factoid.Message{Text: "hi " + nick}
}

func (f *fakeEngine) HandlePart(ctx context.Context, nick, channel string) {
	f.parts = append(f.parts, nick)
}

func TestConsoleCommands(t *testing.T) {
	engine := &fakeEngine{}
	var out bytes.Buffer
	c := New(engine, &out, "user")

	input := strings.Join([]string{
		"hello world",
		"/nick alice",
		"bucket: coffee is hot",
		"/admin",
		"/me waves",
		"/join",
		"/part",
		"",
		"exit",
		"never read",
	}, "\n")

	require.NoError(t, c.Run(t.Context(), strings.NewReader(input)))

	require.Len(t, engine.lines, 3)
	assert.Equal(t, bucket.Line{Nick: "user", Channel: Channel, Text: "hello world"}, engine.lines[0])
	assert.Equal(t, bucket.Line{Nick: "alice", Channel: Channel, Text: "coffee is hot", Addressed: true}, engine.lines[1])
	assert.Equal(t, bucket.Line{Nick: "alice", Channel: Channel, Text: "waves", Action: true, Admin: true, Op: true}, engine.lines[2])

	assert.Equal(t, []string{"alice"}, engine.joins)
	assert.Equal(t, []string{"alice"}, engine.parts)
	assert.Equal(t, "#console <bucket> hi alice\n", out.String())
}

func TestConsoleSend(t *testing.T) {
	var out bytes.Buffer
	c := New(&fakeEngine{}, &out, "user")

	require.NoError(t, c.Send("#idle", &factoid.Message{Text: "is bored", Action: true}))
	require.NoError(t, c.Send("#idle", nil))
	require.NoError(t, c.Send("#idle", &factoid.Message{Text: "anyone?"}))

	assert.Equal(t, "#idle * bucket is bored\n#idle <bucket> anyone?\n", out.String())
}

func TestConsoleWithEngine(t *testing.T) {
	ctx := t.Context()

	s := bucket_store.NewInMemoryStore()
	_, err := bucket_store.Seed(ctx, s, nil)
	require.NoError(t, err)

	engine, err := bucket.New(ctx, s, bucket.DefaultConfig(),
		bucket.WithRand(rand.New(rand.NewSource(1))),
		bucket.WithSleep(func(ctx context.Context, d time.Duration) {}),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	c := New(engine, &out, "alice")

	input := "bucket: coffee is hot\nbucket, coffee\n"
	require.NoError(t, c.Run(ctx, strings.NewReader(input)))

	assert.Equal(t, "#console <bucket> Okay, alice\n#console <bucket> coffee is hot\n", out.String())
}
