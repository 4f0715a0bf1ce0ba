package back

import (
	"context"
	"fmt"
	"log"
	"puma/internal/config"
	"puma/internal/util"

	"github.com/jmoiron/sqlx"
)

type Back struct {
	db     *sqlx.DB
	config *config.Config
}

// New opens the database, applies pending migrations and returns a Back
// ready to serve.
func New(conf *config.Config) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect("sqlite3", conf.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	// SQLite does not handle concurrent writers, and an in-memory database
	// only lives as long as its single connection.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	log.Printf("info: opened database %s", conf.DatabaseDSN)

	return &Back{
		db:     db,
		config: conf,
	}, nil
}

func (b *Back) Close() error {
	return b.db.Close()
}

func (b *Back) maxOptimalCombinations() int {
	if b.config.MaxOptimalCombinations <= 0 {
		return config.DefaultMaxOptimalCombinations
	}

	return b.config.MaxOptimalCombinations
}

func (b *Back) transaction(cb util.TransactionCallback) error {
	return util.Transaction(context.Background(), b.db, cb)
}
