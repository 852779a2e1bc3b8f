package bucket

import (
	"context"
	"fmt"
	"log"

	"github.com/ethanbaker/bucket/pkg/store"
	"github.com/ethanbaker/bucket/pkg/utils"
	"github.com/go-sql-driver/mysql"
)

// DSN assembles the MySQL connection string from the MYSQL_* settings
func DSN(cfg *utils.Config) string {
	dbConfig := mysql.Config{
		User:      cfg.Get("MYSQL_USERNAME"),
		Passwd:    cfg.Get("MYSQL_ROOT_PASSWORD"),
		Net:       "tcp",
		Addr:      fmt.Sprintf("%s:%s", cfg.Get("MYSQL_HOST"), cfg.GetWithDefault("MYSQL_PORT", "3306")),
		DBName:    cfg.Get("MYSQL_DATABASE"),
		ParseTime: true,
	}
	return dbConfig.FormatDSN()
}

// Open returns the MySQL store when MYSQL_HOST is configured and an in-memory store otherwise.
// Either way the system factoids are seeded before returning
func Open(ctx context.Context, cfg *utils.Config) (store.Store, error) {
	var s store.Store
	if cfg.Get("MYSQL_HOST") != "" {
		db, err := NewMySqlStore(DSN(cfg))
		if err != nil {
			return nil, err
		}
		s = db
	} else {
		log.Println("[STORE]: MYSQL_HOST not set, factoids will not survive a restart")
		s = NewInMemoryStore()
	}

	if _, err := Seed(ctx, s, nil); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to seed factoids: %w", err)
	}

	return s, nil
}
