package bucket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/idle"
	"github.com/ethanbaker/bucket/pkg/inventory"
	"github.com/ethanbaker/bucket/pkg/reputation"
	"github.com/ethanbaker/bucket/pkg/store"
)

// Names of the system factoids the engine looks up
const (
	FactDontKnow       = "Don't Know"
	FactPickupFull     = "pickup full"
	FactDuplicateItem  = "duplicate item"
	FactTakesItem      = "takes item"
	FactRefuseItem     = "refuse to take item"
	FactGreetOnJoin    = "greet on join"
	idleWho            = "god of time"
	randomQuoteTerm    = "random quote"
	randomQuoteDumpKey = "quotes"
)

// Engine classifies inbound lines and answers them from the factoid store, the inventory and
// the reputation tracker. Lines are handled one at a time
type Engine struct {
	cfg   *Config
	store store.Store

	facts      *factoid.Facts
	inventory  *inventory.Inventory
	reputation *reputation.Tracker
	channels   *idle.Channels
	dumper     factoid.Dumper
	classifier *classifier
	quotes     *quoteBuffer

	whatWasThat map[string]*store.Factoid // Last factoid said, per channel
	lastTeach   map[string]*store.Factoid // Last factoid taught, per channel

	rand  *rand.Rand
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	mutex sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithRand sets the random source shared by every component
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleep replaces the function used to wait before greeting
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithDumper sets where multi-row literal listings are published
func WithDumper(d factoid.Dumper) Option {
	return func(e *Engine) { e.dumper = d }
}

// New creates an engine over s, loading the item catalog
func New(ctx context.Context, s store.Store, cfg *Config, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("a valid store must be provided")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Nick == "" {
		return nil, fmt.Errorf("the bot nick cannot be empty")
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	if cfg.AliasDepth <= 0 {
		cfg.AliasDepth = factoid.MaxAliasDepth
	}

	e := &Engine{
		cfg:         cfg,
		store:       s,
		channels:    idle.NewChannels(),
		classifier:  newClassifier(cfg.Nick, cfg.FactLength),
		quotes:      newQuoteBuffer(),
		whatWasThat: make(map[string]*store.Factoid),
		lastTeach:   make(map[string]*store.Factoid),
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		sleep:       sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dumper == nil {
		e.dumper = factoid.NewFileDumper(cfg.LiteralPath, cfg.LiteralBaseURL)
	}

	e.facts = factoid.New(s, factoid.WithRand(e.rand), factoid.WithMaxAliasDepth(cfg.AliasDepth))
	e.reputation = reputation.New(s, reputation.WithRand(e.rand), reputation.WithClock(e.now))

	inv, err := inventory.New(ctx, s, cfg.InventorySize, inventory.WithRand(e.rand))
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}
	e.inventory = inv

	return e, nil
}

// Locker returns the lock that serializes line handling, for collaborators that touch engine
// state on their own schedule
func (e *Engine) Locker() sync.Locker {
	return &e.mutex
}

// Channels returns the per-channel activity registry
func (e *Engine) Channels() *idle.Channels {
	return e.channels
}

// Nick returns the bot nick
func (e *Engine) Nick() string {
	return e.cfg.Nick
}

// Handle processes one line and returns what to say in reply, if anything. Failures are logged
// and turned into plain replies, so the engine keeps going whatever happens
func (e *Engine) Handle(ctx context.Context, line Line) *factoid.Message {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	intent := e.classifier.Classify(line)
	msg := e.dispatch(ctx, line, intent)
	e.observe(ctx, line)

	return msg
}

// Classify returns the intent of a line without acting on it
func (e *Engine) Classify(line Line) Intent {
	return e.classifier.Classify(line)
}

// dispatch acts on a classified line (called with mutex held)
func (e *Engine) dispatch(ctx context.Context, line Line, intent Intent) *factoid.Message {
	switch intent.Kind {
	case KindTeachVerb:
		return e.teachVerb(ctx, line, intent)
	case KindTeachIsAre:
		return e.teachIsAre(ctx, line, intent)
	case KindRemember:
		return e.remember(ctx, line, intent)
	case KindDelete:
		return e.deleteFact(ctx, line, intent)
	case KindUndo:
		return e.undo(ctx, line)
	case KindDestroyItem:
		return e.destroyItem(ctx, line, intent)
	case KindGive:
		return e.give(ctx, line, intent)
	case KindSteal:
		return e.steal(ctx, line, intent)
	case KindPopulate:
		e.inventory.Populate(e.inventory.Size())
		return action("drops all his inventory and picks up random things instead")
	case KindInventory:
		items := e.inventory.Items()
		if len(items) == 0 {
			return action("is carrying nothing")
		}
		return action("is carrying " + strings.Join(items, ", "))
	case KindShutUp:
		e.channels.SetQuiet(line.Channel, true)
		e.adjust(ctx, line.Nick, -1)
		return reply(line, "Okay...")
	case KindComeBack:
		if !e.channels.IsQuiet(line.Channel) {
			return reply(line, "Uhm, what? I was here all the time!")
		}
		e.channels.SetQuiet(line.Channel, false)
		return reply(line, "I'm back!")
	case KindWhatWasThat:
		was, ok := e.whatWasThat[line.Channel]
		if !ok {
			return say("I have no idea")
		}
		return say("That was " + factoid.Literal(was))
	case KindQuery:
		return e.query(ctx, line, intent)
	default:
		// Ignored commands and unmatched lines
		return nil
	}
}

// observe records a handled line in the quote buffer, channel activity and reputation
// (called with mutex held)
func (e *Engine) observe(ctx context.Context, line Line) {
	e.quotes.add(line.Channel, line.Nick, line.Text, line.Action)
	if !line.Private {
		e.channels.Said(line.Channel, e.now())
	}

	if err := e.reputation.Touch(ctx, line.Nick); err != nil {
		log.Printf("[BUCKET]: Failed to record activity of '%s': %v", line.Nick, err)
	}
}

func (e *Engine) teachVerb(ctx context.Context, line Line, intent Intent) *factoid.Message {
	verb := factoid.NormalizeVerb(intent.Verb)
	if verb == factoid.VerbAlias && strings.EqualFold(strings.TrimSpace(intent.Fact), strings.TrimSpace(intent.Tidbit)) {
		return reply(line, "You can't alias like this!")
	}

	row, err := e.facts.Insert(ctx, intent.Fact, intent.Tidbit, intent.Verb)
	if err != nil {
		return e.teachFailed(line, err)
	}
	e.taught(ctx, line, row)

	if row.Verb == factoid.VerbAlias {
		targets, err := e.facts.LookupExact(ctx, row.Tidbit)
		if err != nil {
			log.Printf("[BUCKET]: Failed to check alias target '%s': %v", row.Tidbit, err)
		} else if len(targets) == 0 {
			return say(fmt.Sprintf("Okay, %s. but, FYI, %s doesn't exist yet", line.Nick, row.Tidbit))
		}
	}
	return say("Okay, " + line.Nick)
}

func (e *Engine) teachIsAre(ctx context.Context, line Line, intent Intent) *factoid.Message {
	row, err := e.facts.InsertGeneric(ctx, intent.Fact, intent.Tidbit, intent.Verb)
	if err != nil {
		return e.teachFailed(line, err)
	}
	e.taught(ctx, line, row)

	return say("Okay, " + line.Nick)
}

func (e *Engine) remember(ctx context.Context, line Line, intent Intent) *factoid.Message {
	quote, ok := e.quotes.find(line.Channel, intent.Quotee, intent.Word)
	if !ok {
		return say(fmt.Sprintf("Sorry, I don't remember what %s said about %s", intent.Quotee, intent.Word))
	}

	row, err := e.facts.Insert(ctx, intent.Quotee+" quotes", quote.tidbit(), factoid.VerbReply)
	if err != nil {
		return e.teachFailed(line, err)
	}
	e.taught(ctx, line, row)

	return reply(line, fmt.Sprintf("Remembered that %s %s %s", row.Fact, row.Verb, row.Tidbit))
}

// taught records a successful teach (called with mutex held)
func (e *Engine) taught(ctx context.Context, line Line, row *store.Factoid) {
	e.lastTeach[line.Channel] = row
	e.adjust(ctx, line.Nick, 1)
	log.Printf("[BUCKET]: %s taught #%d '%s %s %s'", line.Nick, row.ID, row.Fact, row.Verb, row.Tidbit)
}

// teachFailed turns a failed insert into a reply
func (e *Engine) teachFailed(line Line, err error) *factoid.Message {
	if errors.Is(err, store.ErrDuplicate) {
		return say("I already had it that way!")
	}

	log.Printf("[BUCKET]: Failed to teach for '%s': %v", line.Nick, err)
	if errors.Is(err, store.ErrStoreUnavailable) {
		return reply(line, "Sorry, I can't remember anything right now")
	}
	return reply(line, "Sorry, I couldn't make sense of that")
}

func (e *Engine) deleteFact(ctx context.Context, line Line, intent Intent) *factoid.Message {
	if !line.Admin {
		return e.dontKnow(ctx, line)
	}

	row, err := e.facts.DeleteByID(ctx, intent.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return reply(line, "No such factoid")
	case errors.Is(err, store.ErrDataIntegrity):
		log.Printf("[BUCKET]: Refusing to delete #%d: %v", intent.ID, err)
		return say("More than one factoid with the same ID. I refuse to continue.")
	case err != nil:
		log.Printf("[BUCKET]: Failed to delete #%d: %v", intent.ID, err)
		return say("Delete failed! are you sure this is a valid factoid ID?")
	}

	return say(fmt.Sprintf("Okay, %s, forgot that %s %s %s", line.Nick, row.Fact, row.Verb, row.Tidbit))
}

func (e *Engine) undo(ctx context.Context, line Line) *factoid.Message {
	if !line.Admin {
		return e.dontKnow(ctx, line)
	}

	last, ok := e.lastTeach[line.Channel]
	if !ok {
		return reply(line, "Nothing to undo!")
	}

	err := e.facts.DeleteTuple(ctx, last.Fact, last.Verb, last.Tidbit)
	switch {
	case errors.Is(err, store.ErrNotFound):
		delete(e.lastTeach, line.Channel)
		return reply(line, "Nothing to undo!")
	case err != nil:
		log.Printf("[BUCKET]: Failed to undo #%d: %v", last.ID, err)
		return say("Undo failed, this shouldn't have happened!")
	}

	delete(e.lastTeach, line.Channel)
	return say(fmt.Sprintf("Okay, %s. Forgot that %s %s %s", line.Nick, last.Fact, last.Verb, last.Tidbit))
}

func (e *Engine) destroyItem(ctx context.Context, line Line, intent Intent) *factoid.Message {
	if !line.Admin {
		return nil
	}

	ok, err := e.inventory.Destroy(ctx, intent.Item)
	if err != nil {
		log.Printf("[BUCKET]: Failed to destroy '%s': %v", intent.Item, err)
		return reply(line, "Sorry, I couldn't get rid of that right now")
	}
	if !ok {
		return reply(line, "I don't know what that item is")
	}
	return reply(line, fmt.Sprintf("Okay, %s, destroyed %s", line.Nick, intent.Item))
}

func (e *Engine) give(ctx context.Context, line Line, intent Intent) *factoid.Message {
	refuse, err := e.reputation.ShouldRefuse(ctx, line.Nick)
	if err != nil {
		log.Printf("[BUCKET]: Failed to read friendliness of '%s': %v", line.Nick, err)
	}

	term := FactRefuseItem
	sub := substitution{who: line.Nick}
	if !refuse {
		res, err := e.inventory.Add(ctx, intent.Item, line.Nick, line.Channel)
		if err != nil {
			log.Printf("[BUCKET]: Failed to take '%s': %v", intent.Item, err)
			return reply(line, "Sorry, I can't hold on to anything right now")
		}

		switch res.Outcome {
		case inventory.Added:
			term = FactTakesItem
		case inventory.Duplicate:
			term = FactDuplicateItem
		case inventory.Dropped:
			term = FactPickupFull
			sub.giveItem = res.Dropped
		}
		e.adjust(ctx, line.Nick, 1)
	}

	row := e.lookupRandom(ctx, term)
	if row == nil {
		return nil
	}
	e.whatWasThat[line.Channel] = row

	shown := *row
	shown.Tidbit = expand(itemVar.ReplaceAllLiteralString(row.Tidbit, intent.Item), e.inventory, sub)
	return factoid.Render(&shown, true)
}

func (e *Engine) steal(ctx context.Context, line Line, intent Intent) *factoid.Message {
	e.adjust(ctx, line.Nick, -1)

	if e.inventory.Remove(intent.Item) {
		return say("Hey! Give it back, it's mine!")
	}
	return say("But I don't have any " + intent.Item)
}

func (e *Engine) query(ctx context.Context, line Line, intent Intent) *factoid.Message {
	if !line.Addressed && e.channels.IsQuiet(line.Channel) {
		return nil
	}
	if line.Addressed {
		e.adjust(ctx, line.Nick, 1)
	}

	var rows []*store.Factoid
	var err error
	switch {
	case intent.Term == randomQuoteTerm:
		rows, err = e.facts.Quotes(ctx)
	case intent.Pattern:
		rows, err = e.facts.LookupPattern(ctx, intent.Term, intent.Substring)
	default:
		rows, err = e.facts.LookupExact(ctx, intent.Term)
	}

	var row *store.Factoid
	if err == nil {
		row, err = e.facts.PickRandom(ctx, rows)
	}
	if errors.Is(err, store.ErrRecursionLimit) {
		log.Printf("[BUCKET]: Alias chain of '%s' is too deep: %v", intent.Term, err)
		row, err = nil, nil
	}
	if err != nil {
		log.Printf("[BUCKET]: Failed to look up '%s': %v", intent.Term, err)
		if line.Addressed {
			return reply(line, "Sorry, I can't remember anything right now")
		}
		return nil
	}

	switch {
	case row == nil && intent.Pattern:
		return reply(line, "Sorry, I couldn't find anything matching your query")
	case row == nil && line.Addressed:
		return e.dontKnow(ctx, line)
	case row == nil:
		return nil
	}

	if intent.Literal {
		return e.literal(line, intent, rows)
	}

	e.whatWasThat[line.Channel] = row
	shown := *row
	shown.Tidbit = expand(row.Tidbit, e.inventory, substitution{who: line.Nick, randomItem: true})
	return factoid.Render(&shown, line.Addressed)
}

// literal lists rows with their ids, inline for a single row or as a published dump
func (e *Engine) literal(line Line, intent Intent, rows []*store.Factoid) *factoid.Message {
	if len(rows) == 1 {
		return say(factoid.Literal(rows[0]))
	}

	name := intent.Term
	if name == randomQuoteTerm {
		name = randomQuoteDumpKey
	}

	link, err := e.dumper.Dump(name, rows)
	if err != nil {
		log.Printf("[BUCKET]: Failed to dump literal of '%s': %v", name, err)
		return say("Can't create the list right now, sorry!")
	}
	return reply(line, fmt.Sprintf("Here you go! %s (%d factoids)", link, len(rows)))
}

// dontKnow answers with a "Don't Know" factoid (called with mutex held)
func (e *Engine) dontKnow(ctx context.Context, line Line) *factoid.Message {
	row := e.lookupRandom(ctx, FactDontKnow)
	if row == nil {
		return nil
	}
	e.whatWasThat[line.Channel] = row

	shown := *row
	shown.Tidbit = expand(row.Tidbit, e.inventory, substitution{who: line.Nick, randomItem: true})
	return factoid.Render(&shown, true)
}

// lookupRandom picks one resolved factoid for fact, or nil on any failure
func (e *Engine) lookupRandom(ctx context.Context, fact string) *store.Factoid {
	rows, err := e.facts.LookupExact(ctx, fact)
	if err != nil {
		log.Printf("[BUCKET]: Failed to look up '%s': %v", fact, err)
		return nil
	}

	row, err := e.facts.PickRandom(ctx, rows)
	if err != nil {
		log.Printf("[BUCKET]: Failed to pick a '%s' factoid: %v", fact, err)
		return nil
	}
	return row
}

// adjust moves the friendliness of nick, logging failures
func (e *Engine) adjust(ctx context.Context, nick string, delta int64) {
	if _, err := e.reputation.Adjust(ctx, nick, delta); err != nil {
		log.Printf("[BUCKET]: Failed to adjust friendliness of '%s': %v", nick, err)
	}
}

func say(text string) *factoid.Message {
	return &factoid.Message{Text: text}
}

func reply(line Line, text string) *factoid.Message {
	return &factoid.Message{Text: line.Nick + ": " + text}
}

func action(text string) *factoid.Message {
	return &factoid.Message{Text: text, Action: true}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
