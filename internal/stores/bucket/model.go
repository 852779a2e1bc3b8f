package bucket

import (
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
)

// FactModel represents the database model for factoids. The unique index mirrors the
// classic bucket table: (fact, tidbit(200), verb)
type FactModel struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	Fact      string `json:"fact" gorm:"column:fact;not null;size:128;index:idx_bucket_facts_trigger;uniqueIndex:idx_bucket_facts_tuple,priority:1"`
	Tidbit    string `json:"tidbit" gorm:"column:tidbit;type:text;not null;uniqueIndex:idx_bucket_facts_tuple,priority:2,length:200"`
	Verb      string `json:"verb" gorm:"column:verb;not null;size:16;default:is;uniqueIndex:idx_bucket_facts_tuple,priority:3"`
	RE        bool   `json:"re" gorm:"column:RE;not null;default:false"`
	Protected bool   `json:"protected" gorm:"column:protected;not null;default:false"`
	Mood      *uint8 `json:"mood" gorm:"column:mood"`
	Chance    *uint8 `json:"chance" gorm:"column:chance"`
}

// TableName sets the table name for GORM
func (FactModel) TableName() string {
	return "bucket_facts"
}

func (m *FactModel) toFactoid() *store.Factoid {
	return &store.Factoid{
		ID:        m.ID,
		Fact:      m.Fact,
		Tidbit:    m.Tidbit,
		Verb:      m.Verb,
		Protected: m.Protected,
	}
}

// ItemModel represents the database model for the inventory catalog
type ItemModel struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	Channel string `json:"channel" gorm:"column:channel;not null;size:64;index:idx_bucket_items_where"`
	What    string `json:"what" gorm:"column:what;not null;size:255;uniqueIndex:idx_bucket_items_what"`
	User    string `json:"user" gorm:"column:user;not null;size:64;index:idx_bucket_items_from"`
}

// TableName sets the table name for GORM
func (ItemModel) TableName() string {
	return "bucket_items"
}

func (m *ItemModel) toItem() *store.Item {
	return &store.Item{
		ID:      m.ID,
		Channel: m.Channel,
		What:    m.What,
		User:    m.User,
	}
}

// FriendModel represents the database model for reputation records. LastSeen is kept as a
// unix timestamp for compatibility with existing bucket databases
type FriendModel struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	Nick     string `json:"nick" gorm:"column:nick;not null;size:64;uniqueIndex:idx_bucket_friends_nick"`
	Friendly int32  `json:"friendly" gorm:"column:friendly;not null;default:0"`
	LastSeen int64  `json:"lastseen" gorm:"column:lastseen;not null"`
}

// TableName sets the table name for GORM
func (FriendModel) TableName() string {
	return "bucket_friends"
}

func (m *FriendModel) toFriend() *store.Friend {
	return &store.Friend{
		Nick:     m.Nick,
		Friendly: m.Friendly,
		LastSeen: time.Unix(m.LastSeen, 0),
	}
}
