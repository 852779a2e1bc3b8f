package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
)

// Sentinel is handed out when there is nothing else to give
const Sentinel = "bananas!"

// Outcome describes what happened when an item was offered to the bot
type Outcome int

const (
	// Added means the item is now held
	Added Outcome = iota

	// Dropped means the item is now held but the holding was full, so the oldest item was dropped
	Dropped

	// Duplicate means the item was already held and nothing changed
	Duplicate
)

// String returns the name of the outcome
func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Dropped:
		return "dropped"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by Add
type Result struct {
	Outcome Outcome
	Dropped string // Item that fell out of the holding when Outcome is Dropped
}

// Inventory is the bounded set of items the bot is holding, backed by a persistent catalog of
// every item it has ever been given. Holding is ordered newest first
type Inventory struct {
	store   store.ItemStore
	size    int
	catalog []string
	holding []string
	rand    *rand.Rand
}

// Option configures an Inventory
type Option func(*Inventory)

// WithRand sets the random source
func WithRand(r *rand.Rand) Option {
	return func(i *Inventory) { i.rand = r }
}

// New creates an inventory of the given capacity and loads the catalog from the store
func New(ctx context.Context, s store.ItemStore, size int, opts ...Option) (*Inventory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("inventory size must be a positive integer")
	}

	inv := &Inventory{
		store: s,
		size:  size,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(inv)
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item catalog: %w", err)
	}
	for _, item := range items {
		inv.catalog = append(inv.catalog, strings.TrimSpace(item.What))
	}

	return inv, nil
}

// Size returns the holding capacity
func (i *Inventory) Size() int {
	return i.size
}

// Items returns a copy of the current holding, newest first
func (i *Inventory) Items() []string {
	out := make([]string, len(i.holding))
	copy(out, i.holding)
	return out
}

// Catalog returns a copy of every known item
func (i *Inventory) Catalog() []string {
	out := make([]string, len(i.catalog))
	copy(out, i.catalog)
	return out
}

// AddRandom picks an item from the catalog that is not currently held and holds it. When the
// catalog is exhausted the sentinel item is used instead
func (i *Inventory) AddRandom() string {
	candidates := i.unheld()

	item := Sentinel
	if len(candidates) > 0 {
		item = candidates[i.rand.Intn(len(candidates))]
	} else if i.holds(Sentinel) {
		return Sentinel
	}

	i.push(item)
	return item
}

// Add registers item in the catalog if it is new and puts it at the front of the holding.
// The catalog write happens first, so a store failure leaves the inventory untouched
func (i *Inventory) Add(ctx context.Context, item, owner, channel string) (Result, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return Result{}, fmt.Errorf("item must not be empty")
	}

	if !i.known(item) {
		err := i.store.InsertItem(ctx, &store.Item{Channel: channel, What: item, User: owner})
		switch {
		case err == nil:
		case errors.Is(err, store.ErrDuplicate):
			log.Printf("[INVENTORY]: Catalog already had '%s': %v", item, err)
		default:
			return Result{}, fmt.Errorf("failed to register item: %w", err)
		}
		i.catalog = append(i.catalog, item)
	}

	if i.holds(item) {
		return Result{Outcome: Duplicate}, nil
	}

	full := len(i.holding) >= i.size
	dropped := i.push(item)
	if full {
		return Result{Outcome: Dropped, Dropped: dropped}, nil
	}
	return Result{Outcome: Added}, nil
}

// RandomItem returns a random held item, or the sentinel when nothing is held
func (i *Inventory) RandomItem() string {
	if len(i.holding) == 0 {
		return Sentinel
	}
	return i.holding[i.rand.Intn(len(i.holding))]
}

// GiveItem returns a random held item and removes it from the holding
func (i *Inventory) GiveItem() string {
	item := i.RandomItem()
	i.Remove(item)
	return item
}

// Remove drops the first occurrence of item from the holding
func (i *Inventory) Remove(item string) bool {
	for idx, held := range i.holding {
		if held == item {
			i.holding = append(i.holding[:idx], i.holding[idx+1:]...)
			return true
		}
	}
	return false
}

// Destroy deletes an item from the holding, the catalog and the store. Returns false when the
// item was never in the catalog
func (i *Inventory) Destroy(ctx context.Context, item string) (bool, error) {
	item = strings.TrimSpace(item)

	idx := -1
	for n, known := range i.catalog {
		if strings.EqualFold(known, item) {
			idx = n
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	name := i.catalog[idx]
	if err := i.store.DeleteItem(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("failed to destroy item: %w", err)
	}

	i.catalog = append(i.catalog[:idx], i.catalog[idx+1:]...)

	// Every case variant goes, the catalog no longer knows any of them
	kept := i.holding[:0]
	for _, held := range i.holding {
		if !strings.EqualFold(held, name) {
			kept = append(kept, held)
		}
	}
	i.holding = kept
	return true, nil
}

// Populate clears the holding and fills it with random catalog items, stopping early when the
// catalog cannot supply enough distinct items
func (i *Inventory) Populate(target int) {
	if target > i.size {
		target = i.size
	}

	i.holding = nil
	for attempts := 0; len(i.holding) < target && attempts < target*2; attempts++ {
		if len(i.unheld()) == 0 {
			break
		}
		i.AddRandom()
	}
}

// unheld returns the catalog items not currently held
func (i *Inventory) unheld() []string {
	out := make([]string, 0, len(i.catalog))
	for _, item := range i.catalog {
		if !i.holds(item) {
			out = append(out, item)
		}
	}
	return out
}

// push puts item at the front of the holding and returns the item evicted to respect the
// capacity, if any
func (i *Inventory) push(item string) string {
	i.holding = append([]string{item}, i.holding...)
	if len(i.holding) <= i.size {
		return ""
	}

	dropped := i.holding[len(i.holding)-1]
	i.holding = i.holding[:len(i.holding)-1]
	return dropped
}

// holds reports whether item is currently held (case-sensitive)
func (i *Inventory) holds(item string) bool {
	for _, held := range i.holding {
		if held == item {
			return true
		}
	}
	return false
}

// known reports whether item is in the catalog (case-insensitive)
func (i *Inventory) known(item string) bool {
	for _, c := range i.catalog {
		if strings.EqualFold(c, item) {
			return true
		}
	}
	return false
}
