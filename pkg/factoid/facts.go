package factoid

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
)

// MaxAliasDepth bounds how many aliases are followed before giving up
const MaxAliasDepth = 20

// Facts manages the factoid table: teaching, lookup, deletion and alias resolution
type Facts struct {
	store    store.FactStore
	rand     *rand.Rand
	maxDepth int
}

// Option configures a Facts instance
type Option func(*Facts)

// WithRand sets the random source used to pick between duplicate triggers
func WithRand(r *rand.Rand) Option {
	return func(f *Facts) { f.rand = r }
}

// WithMaxAliasDepth overrides MaxAliasDepth
func WithMaxAliasDepth(depth int) Option {
	return func(f *Facts) { f.maxDepth = depth }
}

// New creates a Facts component on top of a fact store
func New(s store.FactStore, opts ...Option) *Facts {
	f := &Facts{
		store:    s,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		maxDepth: MaxAliasDepth,
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Insert stores a factoid as given (verb-path teaching). Returns store.ErrDuplicate if the
// exact tuple already exists
func (f *Facts) Insert(ctx context.Context, fact, tidbit, verb string) (*store.Factoid, error) {
	row := &store.Factoid{
		Fact:   strings.TrimSpace(fact),
		Tidbit: strings.TrimSpace(tidbit),
		Verb:   NormalizeVerb(verb),
	}

	if row.Fact == "" || row.Tidbit == "" || row.Verb == "" {
		return nil, fmt.Errorf("fact, tidbit and verb must not be empty")
	}

	if err := f.store.InsertFact(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// InsertGeneric stores a factoid taught through "X is/are Y", stripping punctuation from the fact
func (f *Facts) InsertGeneric(ctx context.Context, fact, tidbit, verb string) (*store.Factoid, error) {
	return f.Insert(ctx, RemovePunctuation(fact), tidbit, verb)
}

// DeleteByID removes exactly one factoid and returns it. More than one row for the id is
// refused with store.ErrDataIntegrity
func (f *Facts) DeleteByID(ctx context.Context, id uint) (*store.Factoid, error) {
	rows, err := f.store.FactsByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case len(rows) == 0:
		return nil, fmt.Errorf("factoid #%d: %w", id, store.ErrNotFound)
	case len(rows) > 1:
		return nil, fmt.Errorf("%d factoids share id #%d: %w", len(rows), id, store.ErrDataIntegrity)
	}

	if err := f.store.DeleteFactByID(ctx, id); err != nil {
		return nil, err
	}
	return rows[0], nil
}

// DeleteTuple removes the factoid matching an exact tuple
func (f *Facts) DeleteTuple(ctx context.Context, fact, verb, tidbit string) error {
	removed, err := f.store.DeleteFactByTuple(ctx, fact, verb, tidbit)
	if err != nil {
		return err
	}

	if removed == 0 {
		return fmt.Errorf("factoid '%s %s %s': %w", fact, verb, tidbit, store.ErrNotFound)
	}
	return nil
}

// LookupExact returns all rows for a fact, oldest first
func (f *Facts) LookupExact(ctx context.Context, fact string) ([]*store.Factoid, error) {
	return f.store.FactsByTrigger(ctx, strings.TrimSpace(fact))
}

// LookupPattern returns rows for a fact whose tidbit contains substring
func (f *Facts) LookupPattern(ctx context.Context, fact, substring string) ([]*store.Factoid, error) {
	return f.store.FactsByTriggerAndTidbit(ctx, strings.TrimSpace(fact), substring)
}

// Quotes returns every remembered quote
func (f *Facts) Quotes(ctx context.Context) ([]*store.Factoid, error) {
	return f.store.FactsByTriggerSuffix(ctx, " quotes")
}

// RandomNonQuote returns a random resolved factoid whose fact is not a quote collection
func (f *Facts) RandomNonQuote(ctx context.Context) (*store.Factoid, error) {
	row, err := f.store.RandomFact(ctx, "quotes")
	if err != nil || row == nil {
		return nil, err
	}

	return f.PickRandom(ctx, []*store.Factoid{row})
}

// PickRandom chooses uniformly among rows and follows aliases until a non-alias factoid is
// found. Returns nil when any level has no rows, and store.ErrRecursionLimit when the alias
// chain is longer than the configured depth
func (f *Facts) PickRandom(ctx context.Context, rows []*store.Factoid) (*store.Factoid, error) {
	for depth := 0; depth <= f.maxDepth; depth++ {
		if len(rows) == 0 {
			return nil, nil
		}

		picked := rows[f.rand.Intn(len(rows))]
		if NormalizeVerb(picked.Verb) != VerbAlias {
			return picked, nil
		}

		next, err := f.store.FactsByTrigger(ctx, strings.TrimSpace(picked.Tidbit))
		if err != nil {
			return nil, err
		}
		rows = next
	}

	return nil, fmt.Errorf("gave up after %d aliases: %w", f.maxDepth, store.ErrRecursionLimit)
}
