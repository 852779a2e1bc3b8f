package store

import (
	"context"
	"time"
)

// FactStore defines the persistence operations needed for factoids.
// Fact comparisons are case-insensitive.
type FactStore interface {
	// InsertFact stores a new factoid and sets its ID. Returns ErrDuplicate if the
	// exact (fact, tidbit, verb) tuple already exists
	InsertFact(ctx context.Context, fact *Factoid) error

	// FactsByID returns every row carrying the given id
	FactsByID(ctx context.Context, id uint) ([]*Factoid, error)

	// DeleteFactByID removes the row with the given id
	DeleteFactByID(ctx context.Context, id uint) error

	// DeleteFactByTuple removes rows matching the exact tuple and returns how many were removed
	DeleteFactByTuple(ctx context.Context, fact, verb, tidbit string) (int64, error)

	// FactsByTrigger returns all rows for a fact, ordered by id ascending
	FactsByTrigger(ctx context.Context, fact string) ([]*Factoid, error)

	// FactsByTriggerAndTidbit returns rows for a fact whose tidbit contains substring, ordered by id
	FactsByTriggerAndTidbit(ctx context.Context, fact, substring string) ([]*Factoid, error)

	// FactsByTriggerSuffix returns rows whose fact ends with suffix, ordered by id
	FactsByTriggerSuffix(ctx context.Context, suffix string) ([]*Factoid, error)

	// RandomFact returns one random row whose fact does not contain exclude, or nil if none
	RandomFact(ctx context.Context, exclude string) (*Factoid, error)
}

// ItemStore defines the persistence operations for the inventory catalog
type ItemStore interface {
	// ListItems returns the whole catalog
	ListItems(ctx context.Context) ([]*Item, error)

	// InsertItem adds a catalog entry. Returns ErrDuplicate if the name already exists
	InsertItem(ctx context.Context, item *Item) error

	// DeleteItem removes a catalog entry by name
	DeleteItem(ctx context.Context, what string) error
}

// FriendStore defines the persistence operations for reputation records.
// Nicks are expected to be normalized (lowercased) by the caller
type FriendStore interface {
	// GetFriend returns the record for nick or ErrNotFound
	GetFriend(ctx context.Context, nick string) (*Friend, error)

	// TouchFriend creates the record if missing and sets its last seen time
	TouchFriend(ctx context.Context, nick string, seen time.Time) error

	// SetFriendly overwrites the friendliness score of an existing record
	SetFriendly(ctx context.Context, nick string, friendly int32) error
}

// Store bundles every persistence concern of the bot
type Store interface {
	FactStore
	ItemStore
	FriendStore

	Close() error
}
