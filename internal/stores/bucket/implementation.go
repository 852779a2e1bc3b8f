package bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanbaker/bucket/pkg/store"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// MySqlStore handles factoid, item and friend persistence using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore creates a new bucket store with GORM connection
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(gormmysql.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &MySqlStore{db: db}

	// Auto-migrate tables
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return s, nil
}

// migrate creates or updates the required database tables
func (s *MySqlStore) migrate() error {
	return s.db.AutoMigrate(&FactModel{}, &ItemModel{}, &FriendModel{})
}

// classify maps a database error onto the store error taxonomy
func classify(action string, err error) error {
	if err == nil {
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry) {
		return fmt.Errorf("failed to %s: %w", action, store.ErrDuplicate)
	}

	return fmt.Errorf("failed to %s: %w: %w", action, store.ErrStoreUnavailable, err)
}

// InsertFact stores a new factoid row
func (s *MySqlStore) InsertFact(ctx context.Context, fact *store.Factoid) error {
	model := &FactModel{
		Fact:      fact.Fact,
		Tidbit:    fact.Tidbit,
		Verb:      fact.Verb,
		Protected: fact.Protected,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return classify("insert factoid", err)
	}

	fact.ID = model.ID
	return nil
}

// FactsByID returns every row with the given id
func (s *MySqlStore) FactsByID(ctx context.Context, id uint) ([]*store.Factoid, error) {
	var models []*FactModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Find(&models).Error; err != nil {
		return nil, classify("query factoid by id", err)
	}

	return toFactoids(models), nil
}

// DeleteFactByID removes a factoid by id
func (s *MySqlStore) DeleteFactByID(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&FactModel{})
	if result.Error != nil {
		return classify("delete factoid", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("factoid #%d: %w", id, store.ErrNotFound)
	}

	return nil
}

// DeleteFactByTuple removes factoids matching an exact tuple
func (s *MySqlStore) DeleteFactByTuple(ctx context.Context, fact, verb, tidbit string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("fact = ? AND verb = ? AND tidbit = ?", fact, verb, tidbit).
		Delete(&FactModel{})
	if result.Error != nil {
		return 0, classify("delete factoid", result.Error)
	}

	return result.RowsAffected, nil
}

// FactsByTrigger returns all rows for a fact. The table collation makes the match case-insensitive
func (s *MySqlStore) FactsByTrigger(ctx context.Context, fact string) ([]*store.Factoid, error) {
	var models []*FactModel
	if err := s.db.WithContext(ctx).Where("fact = ?", fact).Order("id ASC").Find(&models).Error; err != nil {
		return nil, classify("query factoids", err)
	}

	return toFactoids(models), nil
}

// FactsByTriggerAndTidbit returns rows for a fact whose tidbit contains substring
func (s *MySqlStore) FactsByTriggerAndTidbit(ctx context.Context, fact, substring string) ([]*store.Factoid, error) {
	var models []*FactModel
	err := s.db.WithContext(ctx).
		Where("fact = ? AND tidbit LIKE ?", fact, "%"+escapeLike(substring)+"%").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, classify("search factoids", err)
	}

	return toFactoids(models), nil
}

// FactsByTriggerSuffix returns rows whose fact ends with suffix
func (s *MySqlStore) FactsByTriggerSuffix(ctx context.Context, suffix string) ([]*store.Factoid, error) {
	var models []*FactModel
	err := s.db.WithContext(ctx).
		Where("fact LIKE ?", "%"+escapeLike(suffix)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, classify("search factoids", err)
	}

	return toFactoids(models), nil
}

// RandomFact returns a random factoid whose fact does not contain exclude
func (s *MySqlStore) RandomFact(ctx context.Context, exclude string) (*store.Factoid, error) {
	var models []*FactModel
	err := s.db.WithContext(ctx).
		Where("fact NOT LIKE ?", "%"+escapeLike(exclude)+"%").
		Order(clause.Expr{SQL: "RAND()"}).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, classify("pick random factoid", err)
	}

	if len(models) == 0 {
		return nil, nil
	}
	return models[0].toFactoid(), nil
}

// ListItems returns the whole item catalog
func (s *MySqlStore) ListItems(ctx context.Context) ([]*store.Item, error) {
	var models []*ItemModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, classify("list items", err)
	}

	items := make([]*store.Item, len(models))
	for i, m := range models {
		items[i] = m.toItem()
	}
	return items, nil
}

// InsertItem adds a new catalog entry
func (s *MySqlStore) InsertItem(ctx context.Context, item *store.Item) error {
	model := &ItemModel{
		Channel: item.Channel,
		What:    item.What,
		User:    item.User,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return classify("insert item", err)
	}

	item.ID = model.ID
	return nil
}

// DeleteItem removes a catalog entry by name
func (s *MySqlStore) DeleteItem(ctx context.Context, what string) error {
	result := s.db.WithContext(ctx).Where("what = ?", what).Delete(&ItemModel{})
	if result.Error != nil {
		return classify("delete item", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("item '%s': %w", what, store.ErrNotFound)
	}

	return nil
}

// GetFriend returns the reputation record for nick
func (s *MySqlStore) GetFriend(ctx context.Context, nick string) (*store.Friend, error) {
	var model FriendModel
	result := s.db.WithContext(ctx).Where("nick = ?", nick).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("friend '%s': %w", nick, store.ErrNotFound)
		}
		return nil, classify("get friend", result.Error)
	}

	return model.toFriend(), nil
}

// TouchFriend upserts the last seen time of nick
func (s *MySqlStore) TouchFriend(ctx context.Context, nick string, seen time.Time) error {
	model := &FriendModel{Nick: nick, LastSeen: seen.Unix()}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "nick"}},
		DoUpdates: clause.AssignmentColumns([]string{"lastseen"}),
	}).Create(model).Error
	if err != nil {
		return classify("touch friend", err)
	}

	return nil
}

// SetFriendly overwrites the friendliness score of nick
func (s *MySqlStore) SetFriendly(ctx context.Context, nick string, friendly int32) error {
	result := s.db.WithContext(ctx).Model(&FriendModel{}).Where("nick = ?", nick).Update("friendly", friendly)
	if result.Error != nil {
		return classify("update friend", result.Error)
	}

	return nil
}

// Close closes the database connection
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// toFactoids converts database models to store records
func toFactoids(models []*FactModel) []*store.Factoid {
	facts := make([]*store.Factoid, len(models))
	for i, m := range models {
		facts[i] = m.toFactoid()
	}
	return facts
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
