package reputation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
)

// GreetCooldown is how long a nick must have been away before a join can be greeted
const GreetCooldown = 15 * time.Minute

// Tracker keeps a friendliness score and last-seen time for every nick the bot observes
type Tracker struct {
	store store.FriendStore
	now   func() time.Time
	rand  *rand.Rand
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithRand sets the random source
func WithRand(r *rand.Rand) Option {
	return func(t *Tracker) { t.rand = r }
}

// New creates a tracker over the friends table
func New(s store.FriendStore, opts ...Option) *Tracker {
	t := &Tracker{
		store: s,
		now:   time.Now,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Normalize returns the key a nick is stored under
func Normalize(nick string) string {
	return strings.ToLower(strings.TrimSpace(nick))
}

// Touch records activity from nick, creating its record on first sight
func (t *Tracker) Touch(ctx context.Context, nick string) error {
	if err := t.store.TouchFriend(ctx, Normalize(nick), t.now()); err != nil {
		return fmt.Errorf("failed to touch friend: %w", err)
	}
	return nil
}

// Adjust touches nick and moves its score by delta, saturating at the int32 bounds
func (t *Tracker) Adjust(ctx context.Context, nick string, delta int64) (int32, error) {
	key := Normalize(nick)
	if err := t.Touch(ctx, key); err != nil {
		return 0, err
	}

	friend, err := t.store.GetFriend(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read friend: %w", err)
	}

	score := SaturatingAdd(friend.Friendly, delta)
	if score == friend.Friendly {
		return score, nil
	}
	if err := t.store.SetFriendly(ctx, key, score); err != nil {
		return friend.Friendly, fmt.Errorf("failed to adjust friend: %w", err)
	}
	return score, nil
}

// Get returns the record for nick. Unknown nicks yield store.ErrNotFound
func (t *Tracker) Get(ctx context.Context, nick string) (*store.Friend, error) {
	return t.store.GetFriend(ctx, Normalize(nick))
}

// Score returns the friendliness of nick, or zero for unknown nicks
func (t *Tracker) Score(ctx context.Context, nick string) (int32, error) {
	friend, err := t.Get(ctx, nick)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return friend.Friendly, nil
}

// ShouldGreet decides whether a joining nick gets a greeting. Nicks seen within the cooldown are
// never greeted, otherwise the chance grows with friendliness. The record is touched either way
func (t *Tracker) ShouldGreet(ctx context.Context, nick string) (bool, error) {
	friend, err := t.Get(ctx, nick)
	if errors.Is(err, store.ErrNotFound) {
		return false, t.Touch(ctx, nick)
	} else if err != nil {
		return false, err
	}

	greet := false
	if t.now().After(friend.LastSeen.Add(GreetCooldown)) {
		greet = t.rand.Intn(100) < GreetChance(friend.Friendly)
	}
	return greet, t.Touch(ctx, nick)
}

// ShouldRefuse decides whether a gift from nick is refused. Only nicks with a score below -3 are
// refused, and then two times out of three
func (t *Tracker) ShouldRefuse(ctx context.Context, nick string) (bool, error) {
	score, err := t.Score(ctx, nick)
	if err != nil {
		return false, err
	}
	return score < -3 && t.rand.Intn(3) > 0, nil
}

// GreetChance returns the percent chance of greeting a nick with the given score
func GreetChance(score int32) int {
	step := math.Floor(float64(score) / 5)
	chance := 25 + step*step*step
	return int(math.Max(0, math.Min(100, chance)))
}

// Clamp saturates v to the int32 range
func Clamp(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

// SaturatingAdd moves score by delta, pinning the result to the int32 bounds even when the
// sum would not fit in an int64
func SaturatingAdd(score int32, delta int64) int32 {
	cur := int64(score)
	switch {
	case delta > 0 && cur > math.MaxInt64-delta:
		return math.MaxInt32
	case delta < 0 && cur < math.MinInt64-delta:
		return math.MinInt32
	}
	return Clamp(cur + delta)
}
