package store

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"pqchat/internal/domain"
)

const (
	sqlitePrefix = "sqlite:"
)

// Open picks a backend from dsn:
//
//	postgres://… or postgresql://…   SQLStore on postgres
//	sqlite:<path>                    SQLStore on sqlite
//	anything else                    FileStore rooted at that directory
func Open(dsn string, logSQL bool) (domain.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := OpenSQL(postgres.Open(dsn), logSQL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case strings.HasPrefix(dsn, sqlitePrefix):
		s, err := OpenSQL(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), logSQL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case dsn == "":
		return nil, fmt.Errorf("empty store location: %w", domain.ErrValidation)
	default:
		if err := os.MkdirAll(dsn, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return NewFileStore(dsn), nil
	}
}
