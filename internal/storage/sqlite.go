package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/napflow/internal/logger"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a SQLite database at path and ensures the
// schema exists.
func OpenSQLite(path string, log *logger.Logger) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s, err := newSQLStore(context.Background(), db, "sqlite", keepPlaceholders, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite store at %s", path)
	return s, nil
}
