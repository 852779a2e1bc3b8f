package bucket

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/store"
)

// HandleJoin greets a nick joining channel when it is friendly enough and has been away for a
// while. The greeting is delayed by a second or more of jitter
func (e *Engine) HandleJoin(ctx context.Context, nick, channel string) *factoid.Message {
	if strings.EqualFold(nick, e.cfg.Nick) {
		return nil
	}

	e.mutex.Lock()
	greet, err := e.withTimeout(ctx, func(ctx context.Context) (bool, error) {
		return e.reputation.ShouldGreet(ctx, nick)
	})
	wait := time.Second + time.Duration(e.rand.Int63n(int64(5*time.Second)))
	e.mutex.Unlock()

	if err != nil {
		log.Printf("[BUCKET]: Failed to check greeting for '%s': %v", nick, err)
		return nil
	}
	if !greet {
		return nil
	}

	e.sleep(ctx, wait)

	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	row := e.lookupRandom(ctx, FactGreetOnJoin)
	if row == nil {
		return nil
	}
	e.whatWasThat[channel] = row

	shown := *row
	shown.Tidbit = expand(row.Tidbit, e.inventory, substitution{who: nick, randomItem: true})
	return factoid.Render(&shown, true)
}

// HandlePart records a nick leaving or quitting
func (e *Engine) HandlePart(ctx context.Context, nick, channel string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	if err := e.reputation.Touch(ctx, nick); err != nil {
		log.Printf("[BUCKET]: Failed to record part of '%s': %v", nick, err)
	}
}

// IdleMessage returns a random non-quote factoid to say in an idle channel. Callers must hold
// the engine lock (see Locker)
func (e *Engine) IdleMessage(ctx context.Context) (*factoid.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	row, err := e.facts.RandomNonQuote(ctx)
	if errors.Is(err, store.ErrRecursionLimit) {
		log.Printf("[IDLE]: Random factoid resolved too deep: %v", err)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	shown := *row
	shown.Tidbit = expand(row.Tidbit, e.inventory, substitution{who: idleWho, randomItem: true})
	return factoid.Render(&shown, false), nil
}

// Items returns what the bot is holding, newest first
func (e *Engine) Items() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.inventory.Items()
}

// Lookup returns every factoid for fact, oldest first
func (e *Engine) Lookup(ctx context.Context, fact string) ([]*store.Factoid, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	return e.facts.LookupExact(ctx, fact)
}

// Forget deletes a factoid by id and returns it
func (e *Engine) Forget(ctx context.Context, id uint) (*store.Factoid, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	return e.facts.DeleteByID(ctx, id)
}

// Friend returns the reputation record of nick
func (e *Engine) Friend(ctx context.Context, nick string) (*store.Friend, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	return e.reputation.Get(ctx, nick)
}

// withTimeout runs fn under the store deadline
func (e *Engine) withTimeout(ctx context.Context, fn func(ctx context.Context) (bool, error)) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	return fn(ctx)
}

// InventorySize is the capacity of the bot's holding
func (e *Engine) InventorySize() int {
	return e.inventory.Size()
}
