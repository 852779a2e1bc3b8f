package idle

import (
	"sort"
	"sync"
	"time"
)

// Activity is the state kept for one channel
type Activity struct {
	LastSaid time.Time `json:"last_said"`
	Quiet    bool      `json:"quiet"`
}

// Channels tracks activity for every channel the bot has heard from
type Channels struct {
	channels map[string]*Activity
	mutex    sync.RWMutex
}

// NewChannels creates an empty channel registry
func NewChannels() *Channels {
	return &Channels{channels: make(map[string]*Activity)}
}

// Said records that something was said in channel at t
func (c *Channels) Said(channel string, t time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.get(channel).LastSaid = t
}

// SetQuiet sets or clears the quiet flag of channel
func (c *Channels) SetQuiet(channel string, quiet bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.get(channel).Quiet = quiet
}

// IsQuiet reports whether channel has been told to shut up
func (c *Channels) IsQuiet(channel string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	a, exists := c.channels[channel]
	return exists && a.Quiet
}

// Get returns a copy of the activity for channel
func (c *Channels) Get(channel string) (Activity, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	a, exists := c.channels[channel]
	if !exists {
		return Activity{}, false
	}
	return *a, true
}

// Names returns every known channel, sorted
func (c *Channels) Names() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// get returns the activity for channel, creating it (called with mutex held)
func (c *Channels) get(channel string) *Activity {
	a, exists := c.channels[channel]
	if !exists {
		a = &Activity{}
		c.channels[channel] = a
	}
	return a
}
