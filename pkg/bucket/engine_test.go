package bucket_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	bucket_store "github.com/ethanbaker/bucket/internal/stores/bucket"
	"github.com/ethanbaker/bucket/pkg/bucket"
	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dontKnow = "++?????++ Out of Cheese Error. Redo From Start."

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

type harness struct {
	t      *testing.T
	ctx    context.Context
	store  *bucket_store.InMemoryStore
	engine *bucket.Engine
	clock  *clock
	dir    string
}

func newHarness(t *testing.T, mutate ...func(cfg *bucket.Config)) *harness {
	t.Helper()
	ctx := context.Background()

	s := bucket_store.NewInMemoryStore()
	_, err := bucket_store.Seed(ctx, s, nil)
	require.NoError(t, err)

	return newHarnessWithStore(t, s, s, mutate...)
}

func newHarnessWithStore(t *testing.T, mem *bucket_store.InMemoryStore, s store.Store, mutate ...func(cfg *bucket.Config)) *harness {
	t.Helper()

	h := &harness{
		t:     t,
		ctx:   context.Background(),
		store: mem,
		clock: &clock{t: time.Unix(1_700_000_000, 0)},
		dir:   t.TempDir(),
	}

	cfg := bucket.DefaultConfig()
	cfg.LiteralPath = h.dir
	for _, m := range mutate {
		m(cfg)
	}

	e, err := bucket.New(h.ctx, s, cfg,
		bucket.WithRand(rand.New(rand.NewSource(1))),
		bucket.WithClock(h.clock.now),
		bucket.WithSleep(func(ctx context.Context, d time.Duration) {}),
	)
	require.NoError(t, err)
	h.engine = e
	return h
}

// say sends an addressed line from nick and returns the reply text ("" for no reply)
func (h *harness) say(nick, text string) string {
	return msgText(h.engine.Handle(h.ctx, bucket.Line{Nick: nick, Channel: "#test", Text: text, Addressed: true}))
}

// admin sends an addressed line from an admin
func (h *harness) admin(nick, text string) string {
	return msgText(h.engine.Handle(h.ctx, bucket.Line{Nick: nick, Channel: "#test", Text: text, Addressed: true, Admin: true}))
}

// ambient sends an unaddressed line
func (h *harness) ambient(nick, text string) string {
	return msgText(h.engine.Handle(h.ctx, bucket.Line{Nick: nick, Channel: "#test", Text: text}))
}

// act sends a narrated action and returns the whole message
func (h *harness) act(nick, text string) *factoid.Message {
	return h.engine.Handle(h.ctx, bucket.Line{Nick: nick, Channel: "#test", Text: text, Action: true})
}

func msgText(msg *factoid.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Text
}

func TestNew(t *testing.T) {
	_, err := bucket.New(context.Background(), nil, nil)
	assert.Error(t, err)

	s := bucket_store.NewInMemoryStore()
	_, err = bucket.New(context.Background(), s, &bucket.Config{})
	assert.Error(t, err)

	_, err = bucket.New(context.Background(), s, &bucket.Config{Nick: "bucket", InventorySize: 0})
	assert.Error(t, err)

	e, err := bucket.New(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, "bucket", e.Nick())
}

func TestTeachAndQuery(t *testing.T) {
	t.Run("sky is blue", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "sky is blue"))
		assert.Equal(t, "sky is blue", h.say("ann", "sky"))
		assert.Equal(t, "sky is blue", h.say("bob", "SKY?"))
	})

	t.Run("duplicate teach", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "sky is blue"))
		assert.Equal(t, "I already had it that way!", h.say("bob", "sky is blue"))

		rows, err := h.engine.Lookup(h.ctx, "sky")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("generic teaching strips punctuation from the fact", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "hello, world! is a program"))
		assert.Equal(t, "hello world is a program", h.say("ann", "hello world"))
	})

	t.Run("questions are not taught", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, dontKnow, h.say("ann", "what is love?"))

		rows, err := h.engine.Lookup(h.ctx, "what")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("verb teaching", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "coffee <reply> Coffee is life, $who"))
		assert.Equal(t, "Okay, ann", h.say("ann", "tea <action> sips some tea"))
		assert.Equal(t, "Okay, ann", h.say("ann", "cats <love> fish"))

		assert.Equal(t, "Coffee is life, bob", h.say("bob", "coffee"))
		assert.Equal(t, &factoid.Message{Text: "sips some tea", Action: true}, h.engine.Handle(h.ctx, bucket.Line{Nick: "bob", Channel: "#test", Text: "tea", Addressed: true}))
		assert.Equal(t, "cats love fish", h.say("bob", "cats"))
	})

	t.Run("direct verbs need addressing", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "pingpong <directreply> pong"))
		assert.Equal(t, "", h.ambient("bob", "pingpong"))
		assert.Equal(t, "pong", h.say("bob", "pingpong"))
	})

	t.Run("aliases", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "ann: You can't alias like this!", h.say("ann", "loop <alias> loop"))
		assert.Equal(t, "Okay, ann. but, FYI, hello doesn't exist yet", h.say("ann", "hi <alias> hello"))
		assert.Equal(t, "Okay, ann", h.say("ann", "hey <alias> hi"))
		assert.Equal(t, "Okay, ann", h.say("ann", "hello <reply> Hello there"))

		assert.Equal(t, "Hello there", h.say("bob", "hey"))
	})

	t.Run("alias depth is configurable", func(t *testing.T) {
		h := newHarness(t, func(cfg *bucket.Config) { cfg.AliasDepth = 1 })
		assert.Equal(t, "Okay, ann. but, FYI, hello doesn't exist yet", h.say("ann", "hi <alias> hello"))
		assert.Equal(t, "Okay, ann", h.say("ann", "hey <alias> hi"))
		assert.Equal(t, "Okay, ann", h.say("ann", "hello <reply> Hello there"))

		assert.Equal(t, "Hello there", h.say("bob", "hi"))
		assert.Equal(t, dontKnow, h.say("bob", "hey"))
	})

	t.Run("unknown addressed query", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, dontKnow, h.say("ann", "the meaning of life"))
		assert.Equal(t, "", h.ambient("ann", "the meaning of life"))
	})

	t.Run("short ambient lines are ignored", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Okay, ann", h.say("ann", "yo is hi"))
		assert.Equal(t, "", h.ambient("bob", "yo"))
		assert.Equal(t, "yo is hi", h.say("bob", "yo"))
	})

	t.Run("reload and update never get a don't know", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "", h.say("ann", "reload bucket"))
		assert.Equal(t, "", h.say("ann", "update"))
	})

	t.Run("pattern queries", func(t *testing.T) {
		h := newHarness(t)
		h.say("ann", "sky is blue")
		h.say("ann", "sky is big")

		assert.Equal(t, "sky is blue", h.say("bob", "sky ~= /blu/"))
		assert.Equal(t, "bob: Sorry, I couldn't find anything matching your query", h.say("bob", "sky ~= /green/"))
	})
}

func TestQuiet(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Okay, ann", h.say("ann", "the weather <reply> always raining"))
	assert.Equal(t, "always raining", h.ambient("bob", "the weather"))

	assert.Equal(t, "bob: Okay...", h.say("bob", "shut up"))
	assert.Equal(t, "", h.ambient("bob", "the weather"))
	assert.Equal(t, "always raining", h.say("bob", "the weather"))

	assert.Equal(t, "ann: I'm back!", h.say("ann", "come back"))
	assert.Equal(t, "always raining", h.ambient("bob", "the weather"))
	assert.Equal(t, "ann: Uhm, what? I was here all the time!", h.say("ann", "unshutup"))

	friend, err := h.engine.Friend(h.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int32(0), friend.Friendly) // -1 for shut up, +1 for the addressed query
}

func TestRemember(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "", h.ambient("Bob", "I like big boats."))
	assert.Nil(t, h.act("Bob", "dances wildly"))

	assert.Equal(t, "ann: Remembered that bob quotes <reply> <Bob> I like big boats.", h.say("ann", "remember bob BOATS"))
	assert.Equal(t, "ann: Remembered that bob quotes <reply> * Bob dances wildly", h.say("ann", "remember Bob wild"))
	assert.Equal(t, "I already had it that way!", h.say("ann", "remember bob boats"))
	assert.Equal(t, "Sorry, I don't remember what bob said about cars", h.say("ann", "remember bob cars"))
	assert.Equal(t, "Sorry, I don't remember what carl said about boats", h.say("ann", "remember carl boats"))

	quote := h.say("ann", "random quote")
	assert.Contains(t, []string{"<Bob> I like big boats.", "* Bob dances wildly"}, quote)
}

func TestDeleteAndUndo(t *testing.T) {
	t.Run("delete", func(t *testing.T) {
		h := newHarness(t)
		h.say("ann", "sky is blue")
		rows, err := h.engine.Lookup(h.ctx, "sky")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		id := rows[0].ID

		assert.Equal(t, dontKnow, h.say("ann", fmt.Sprintf("delete #%d", id)))
		assert.Equal(t, "Okay, ann, forgot that sky is blue", h.admin("ann", fmt.Sprintf("delete #%d", id)))
		assert.Equal(t, "ann: No such factoid", h.admin("ann", fmt.Sprintf("delete #%d", id)))
		assert.Equal(t, dontKnow, h.say("ann", "sky"))
	})

	t.Run("undo", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "ann: Nothing to undo!", h.admin("ann", "undo last"))

		h.say("bob", "sky is blue")
		assert.Equal(t, dontKnow, h.say("bob", "undo last"))
		assert.Equal(t, "Okay, ann. Forgot that sky is blue", h.admin("ann", "undo last"))
		assert.Equal(t, "ann: Nothing to undo!", h.admin("ann", "undo last"))

		rows, err := h.engine.Lookup(h.ctx, "sky")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("undo of something already deleted", func(t *testing.T) {
		h := newHarness(t)
		h.say("bob", "sky is blue")
		rows, err := h.engine.Lookup(h.ctx, "sky")
		require.NoError(t, err)

		_, err = h.engine.Forget(h.ctx, rows[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "ann: Nothing to undo!", h.admin("ann", "undo last"))
	})
}

func TestInventory(t *testing.T) {
	t.Run("give and take", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, "Oh, thanks, I'll keep this a spoon safe", h.say("ann", "have a spoon"))
		assert.Equal(t, "No thanks, I've already got a spoon", h.say("ann", "have a spoon"))
		assert.Equal(t, "Oh, thanks, I'll keep this ann's hat safe", h.say("ann", "take my hat"))
		assert.Equal(t, "Oh, thanks, I'll keep this bucket's cup safe", h.say("ann", "take your cup"))
		assert.Equal(t, "Oh, thanks, I'll keep this pen safe", h.say("ann", "take this pen"))
		assert.Equal(t, "Oh, thanks, I'll keep this a fork safe", msgText(h.act("bob", "gives bucket a fork")))
		assert.Equal(t, "Oh, thanks, I'll keep this bob's sock safe", msgText(h.act("bob", "puts his sock in bucket")))
		assert.Equal(t, "Oh, thanks, I'll keep this a rock safe", msgText(h.act("bob", "hands a rock to bucket")))

		assert.Equal(t, []string{"a rock", "bob's sock", "a fork", "pen", "bucket's cup", "ann's hat", "a spoon"}, h.engine.Items())
		assert.Equal(t, &factoid.Message{Text: "is carrying a rock, bob's sock, a fork, pen, bucket's cup, ann's hat, a spoon", Action: true},
			h.engine.Handle(h.ctx, bucket.Line{Nick: "ann", Channel: "#test", Text: "inventory", Addressed: true}))

		friend, err := h.engine.Friend(h.ctx, "ann")
		require.NoError(t, err)
		assert.Equal(t, int32(5), friend.Friendly)
	})

	t.Run("steal", func(t *testing.T) {
		h := newHarness(t)
		h.say("ann", "take this pen")

		assert.Equal(t, "Hey! Give it back, it's mine!", msgText(h.act("bob", "steals bucket's pen")))
		assert.Equal(t, "But I don't have any pen", msgText(h.act("bob", "takes pen from bucket")))
		assert.Empty(t, h.engine.Items())

		friend, err := h.engine.Friend(h.ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int32(-2), friend.Friendly)
	})

	t.Run("full holding", func(t *testing.T) {
		h := newHarness(t, func(cfg *bucket.Config) { cfg.InventorySize = 2 })
		h.say("ann", "take this apple")
		h.say("ann", "take this banana")

		msg := h.engine.Handle(h.ctx, bucket.Line{Nick: "ann", Channel: "#test", Text: "take this cherry", Addressed: true})
		assert.Equal(t, &factoid.Message{Text: "takes cherry but drops apple", Action: true}, msg)
		assert.Equal(t, []string{"cherry", "banana"}, h.engine.Items())
	})

	t.Run("empty inventory", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, &factoid.Message{Text: "is carrying nothing", Action: true},
			h.engine.Handle(h.ctx, bucket.Line{Nick: "ann", Channel: "#test", Text: "inventory", Addressed: true}))
	})

	t.Run("new things", func(t *testing.T) {
		h := newHarness(t)
		for _, item := range []string{"apple", "banana", "cherry"} {
			h.say("ann", "take this "+item)
		}
		h.act("bob", "steals bucket's apple")
		h.act("bob", "steals bucket's banana")

		msg := h.engine.Handle(h.ctx, bucket.Line{Nick: "ann", Channel: "#test", Text: "you need new things", Addressed: true})
		assert.Equal(t, &factoid.Message{Text: "drops all his inventory and picks up random things instead", Action: true}, msg)
		assert.ElementsMatch(t, []string{"apple", "banana", "cherry"}, h.engine.Items())
	})

	t.Run("unfriendly gifts are refused", func(t *testing.T) {
		h := newHarness(t)
		h.ambient("eve", "hello everyone")
		require.NoError(t, h.store.SetFriendly(h.ctx, "eve", -100))

		refused := 0
		for n := 0; n < 20; n++ {
			reply := h.say("eve", fmt.Sprintf("take this rock %d", n))
			if reply == fmt.Sprintf("No thanks, eve, keep your rock %d", n) {
				refused++
				assert.NotContains(t, h.engine.Items(), fmt.Sprintf("rock %d", n))
			}
		}
		assert.Greater(t, refused, 0)
	})

	t.Run("annihilate", func(t *testing.T) {
		h := newHarness(t)
		h.say("ann", "take this pen")

		assert.Equal(t, "", h.say("ann", "annihilate item pen"))
		assert.Equal(t, "ann: I don't know what that item is", h.admin("ann", "annihilate item sword"))
		assert.Equal(t, "ann: Okay, ann, destroyed pen", h.admin("ann", "annihilate item pen"))
		assert.Empty(t, h.engine.Items())

		items, err := h.store.ListItems(h.ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("item variables", func(t *testing.T) {
		h := newHarness(t)
		h.say("ann", "take this pen")
		h.say("ann", "juggle <action> juggles $item")
		h.say("ann", "gift <reply> here, have $giveitem")

		assert.Equal(t, &factoid.Message{Text: "juggles pen", Action: true},
			h.engine.Handle(h.ctx, bucket.Line{Nick: "bob", Channel: "#test", Text: "juggle", Addressed: true}))
		assert.Equal(t, "here, have pen", h.say("bob", "gift"))
		assert.Empty(t, h.engine.Items())
	})
}

func TestWhatWasThat(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "I have no idea", h.say("ann", "what was that?"))

	h.say("ann", "sky is blue")
	rows, err := h.engine.Lookup(h.ctx, "sky")
	require.NoError(t, err)

	h.say("bob", "sky")
	assert.Equal(t, fmt.Sprintf("That was #%d - sky is blue", rows[0].ID), h.say("bob", "what was that"))
}

func TestLiteral(t *testing.T) {
	h := newHarness(t)
	h.say("ann", "sky is blue")
	rows, err := h.engine.Lookup(h.ctx, "sky")
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("#%d - sky is blue", rows[0].ID), h.say("bob", "literal sky"))

	h.say("ann", "sky is big")
	assert.Equal(t, "bob: Here you go! http://localhost:8080/api/literal/sky.txt (2 factoids)", h.say("bob", "literal sky"))

	data, err := os.ReadFile(filepath.Join(h.dir, "sky.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sky is blue\n")
	assert.Contains(t, string(data), "sky is big\n")
}

func TestStoreUnavailable(t *testing.T) {
	mem := bucket_store.NewInMemoryStore()
	_, err := bucket_store.Seed(context.Background(), mem, nil)
	require.NoError(t, err)

	h := newHarnessWithStore(t, mem, unavailableStore{mem})
	assert.Equal(t, "ann: Sorry, I can't remember anything right now", h.say("ann", "sky is blue"))
	assert.Equal(t, "ann: Sorry, I can't hold on to anything right now", h.say("ann", "take this pen"))
	assert.Empty(t, h.engine.Items())

	rows, err := h.engine.Lookup(h.ctx, "sky")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// unavailableStore fails every write
type unavailableStore struct {
	*bucket_store.InMemoryStore
}

func (u unavailableStore) InsertFact(ctx context.Context, f *store.Factoid) error {
	return fmt.Errorf("failed to insert factoid: %w", store.ErrStoreUnavailable)
}

func (u unavailableStore) InsertItem(ctx context.Context, item *store.Item) error {
	return fmt.Errorf("failed to insert item: %w", store.ErrStoreUnavailable)
}

func TestJoinAndPart(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.engine.HandleJoin(h.ctx, "bucket", "#test"))

	// First sight is never greeted
	assert.Nil(t, h.engine.HandleJoin(h.ctx, "carl", "#test"))
	require.NoError(t, h.store.SetFriendly(h.ctx, "carl", 100))

	// Seen too recently
	h.clock.t = h.clock.t.Add(time.Minute)
	assert.Nil(t, h.engine.HandleJoin(h.ctx, "carl", "#test"))

	h.clock.t = h.clock.t.Add(time.Hour)
	assert.Equal(t, &factoid.Message{Text: "Hi, Carl"}, h.engine.HandleJoin(h.ctx, "Carl", "#test"))

	h.clock.t = h.clock.t.Add(time.Hour)
	h.engine.HandlePart(h.ctx, "carl", "#test")
	friend, err := h.engine.Friend(h.ctx, "carl")
	require.NoError(t, err)
	assert.Equal(t, h.clock.t.Unix(), friend.LastSeen.Unix())
}

func TestIdleMessage(t *testing.T) {
	s := bucket_store.NewInMemoryStore()
	h := newHarnessWithStore(t, s, s)

	h.engine.Locker().Lock()
	msg, err := h.engine.IdleMessage(h.ctx)
	h.engine.Locker().Unlock()
	require.NoError(t, err)
	assert.Nil(t, msg)

	h.say("ann", "greeting <reply> Good day, $who")
	h.ambient("bob", "I like big boats")
	h.say("ann", "remember bob boats")

	for n := 0; n < 10; n++ {
		h.engine.Locker().Lock()
		msg, err = h.engine.IdleMessage(h.ctx)
		h.engine.Locker().Unlock()
		require.NoError(t, err)
		assert.Equal(t, &factoid.Message{Text: "Good day, god of time"}, msg)
	}
}

func TestActivity(t *testing.T) {
	h := newHarness(t)
	h.ambient("dave", "hello there everyone")

	friend, err := h.engine.Friend(h.ctx, "DAVE")
	require.NoError(t, err)
	assert.Equal(t, "dave", friend.Nick)

	activity, ok := h.engine.Channels().Get("#test")
	require.True(t, ok)
	assert.Equal(t, h.clock.t, activity.LastSaid)

	h.engine.Handle(h.ctx, bucket.Line{Nick: "dave", Channel: "dave", Text: "psst", Private: true})
	_, ok = h.engine.Channels().Get("dave")
	assert.False(t, ok)
}
