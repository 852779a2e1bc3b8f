package store

import "time"

// Factoid is a single (fact, verb, tidbit) row in the factoid table
type Factoid struct {
	ID     uint   `json:"id" yaml:"-"`
	Fact   string `json:"fact" yaml:"fact"`
	Tidbit string `json:"tidbit" yaml:"tidbit"`
	Verb   string `json:"verb" yaml:"verb"`

	// Protected is persisted but not enforced anywhere yet
	Protected bool `json:"protected" yaml:"protected"`
}

// Item is an entry in the persistent item catalog
type Item struct {
	ID      uint   `json:"id"`
	Channel string `json:"channel"` // Channel the item was first received in
	What    string `json:"what"`
	User    string `json:"user"` // Nick of the user who first gave the item
}

// Friend is the persisted reputation record for a nick
type Friend struct {
	Nick     string    `json:"nick"`
	Friendly int32     `json:"friendly"`
	LastSeen time.Time `json:"last_seen"`
}
