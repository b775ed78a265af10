package store

import (
	"context"
	"database/sql"

	"github.com/robwizzie/FantasyFlicks/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// DriverMemory selects the in-process store. Nothing survives a restart.
const DriverMemory = "memory"

// Open connects the configured backend and applies the schema. The returned
// *sql.DB is nil for the memory driver.
func Open(ctx context.Context, cfg dbconfig.Config) (Backend, *sql.DB, error) {
	if cfg.Driver == DriverMemory {
		log.Warn().Msg("using in-memory draft store")
		return NewMemory(), nil, nil
	}

	db, err := cfg.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	s := NewSQL(db, cfg.Driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, db, nil
}
