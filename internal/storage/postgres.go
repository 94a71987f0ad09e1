package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hammamikhairi/napflow/internal/logger"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to PostgreSQL, pings, and runs migrations.
func OpenPostgres(connStr string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s, err := newSQLStore(ctx, db, "postgres", numberPlaceholders, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("postgres store connected")
	return s, nil
}
