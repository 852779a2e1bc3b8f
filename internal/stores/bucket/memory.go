package bucket

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
)

// InMemoryStore provides an in-memory implementation of store.Store for testing and local runs.
// Matching follows the case-insensitive collation of the MySQL tables
type InMemoryStore struct {
	facts   map[uint]*store.Factoid
	items   []*store.Item
	friends map[string]*store.Friend

	nextFactID uint
	nextItemID uint

	rand  *rand.Rand
	mutex sync.RWMutex
}

// NewInMemoryStore creates a new in-memory bucket store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		facts:      make(map[uint]*store.Factoid),
		friends:    make(map[string]*store.Friend),
		nextFactID: 1,
		nextItemID: 1,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// InsertFact stores a new factoid row
func (s *InMemoryStore) InsertFact(ctx context.Context, fact *store.Factoid) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, f := range s.facts {
		if strings.EqualFold(f.Fact, fact.Fact) && strings.EqualFold(f.Tidbit, fact.Tidbit) && strings.EqualFold(f.Verb, fact.Verb) {
			return fmt.Errorf("failed to insert factoid: %w", store.ErrDuplicate)
		}
	}

	fact.ID = s.nextFactID
	s.nextFactID++

	// Store a copy to avoid shared references
	stored := *fact
	s.facts[stored.ID] = &stored
	return nil
}

// FactsByID returns every row with the given id
func (s *InMemoryStore) FactsByID(ctx context.Context, id uint) ([]*store.Factoid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.filterFacts(func(f *store.Factoid) bool { return f.ID == id }), nil
}

// DeleteFactByID removes a factoid by id
func (s *InMemoryStore) DeleteFactByID(ctx context.Context, id uint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.facts[id]; !exists {
		return fmt.Errorf("factoid #%d: %w", id, store.ErrNotFound)
	}

	delete(s.facts, id)
	return nil
}

// DeleteFactByTuple removes factoids matching an exact tuple
func (s *InMemoryStore) DeleteFactByTuple(ctx context.Context, fact, verb, tidbit string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var removed int64
	for id, f := range s.facts {
		if strings.EqualFold(f.Fact, fact) && strings.EqualFold(f.Verb, verb) && strings.EqualFold(f.Tidbit, tidbit) {
			delete(s.facts, id)
			removed++
		}
	}

	return removed, nil
}

// FactsByTrigger returns all rows for a fact, oldest first
func (s *InMemoryStore) FactsByTrigger(ctx context.Context, fact string) ([]*store.Factoid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.filterFacts(func(f *store.Factoid) bool {
		return strings.EqualFold(f.Fact, fact)
	}), nil
}

// FactsByTriggerAndTidbit returns rows for a fact whose tidbit contains substring
func (s *InMemoryStore) FactsByTriggerAndTidbit(ctx context.Context, fact, substring string) ([]*store.Factoid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	substring = strings.ToLower(substring)
	return s.filterFacts(func(f *store.Factoid) bool {
		return strings.EqualFold(f.Fact, fact) && strings.Contains(strings.ToLower(f.Tidbit), substring)
	}), nil
}

// FactsByTriggerSuffix returns rows whose fact ends with suffix
func (s *InMemoryStore) FactsByTriggerSuffix(ctx context.Context, suffix string) ([]*store.Factoid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	suffix = strings.ToLower(suffix)
	return s.filterFacts(func(f *store.Factoid) bool {
		return strings.HasSuffix(strings.ToLower(f.Fact), suffix)
	}), nil
}

// RandomFact returns a random factoid whose fact does not contain exclude
func (s *InMemoryStore) RandomFact(ctx context.Context, exclude string) (*store.Factoid, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	exclude = strings.ToLower(exclude)
	candidates := s.filterFacts(func(f *store.Factoid) bool {
		return !strings.Contains(strings.ToLower(f.Fact), exclude)
	})
	if len(candidates) == 0 {
		return nil, nil
	}

	return candidates[s.rand.Intn(len(candidates))], nil
}

// filterFacts returns copies of matching rows ordered by id (called with mutex held)
func (s *InMemoryStore) filterFacts(match func(f *store.Factoid) bool) []*store.Factoid {
	out := make([]*store.Factoid, 0)
	for _, f := range s.facts {
		if match(f) {
			fact := *f
			out = append(out, &fact)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListItems returns the whole item catalog
func (s *InMemoryStore) ListItems(ctx context.Context) ([]*store.Item, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]*store.Item, len(s.items))
	for i, item := range s.items {
		copied := *item
		items[i] = &copied
	}
	return items, nil
}

// InsertItem adds a new catalog entry
func (s *InMemoryStore) InsertItem(ctx context.Context, item *store.Item) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.items {
		if strings.EqualFold(existing.What, item.What) {
			return fmt.Errorf("failed to insert item: %w", store.ErrDuplicate)
		}
	}

	item.ID = s.nextItemID
	s.nextItemID++

	stored := *item
	s.items = append(s.items, &stored)
	return nil
}

// DeleteItem removes a catalog entry by name
func (s *InMemoryStore) DeleteItem(ctx context.Context, what string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, existing := range s.items {
		if existing.What == what {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("item '%s': %w", what, store.ErrNotFound)
}

// GetFriend returns the reputation record for nick
func (s *InMemoryStore) GetFriend(ctx context.Context, nick string) (*store.Friend, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	friend, exists := s.friends[nick]
	if !exists {
		return nil, fmt.Errorf("friend '%s': %w", nick, store.ErrNotFound)
	}

	copied := *friend
	return &copied, nil
}

// TouchFriend creates nick if missing and updates its last seen time
func (s *InMemoryStore) TouchFriend(ctx context.Context, nick string, seen time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	friend, exists := s.friends[nick]
	if !exists {
		friend = &store.Friend{Nick: nick}
		s.friends[nick] = friend
	}

	friend.LastSeen = seen
	return nil
}

// SetFriendly overwrites the friendliness score of nick
func (s *InMemoryStore) SetFriendly(ctx context.Context, nick string, friendly int32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	friend, exists := s.friends[nick]
	if !exists {
		return fmt.Errorf("friend '%s': %w", nick, store.ErrNotFound)
	}

	friend.Friendly = friendly
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
