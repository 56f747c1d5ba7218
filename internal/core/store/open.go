package store

import (
	"fmt"

	"go.uber.org/zap"

	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/database"
)

// Open builds the Store for the configured driver.
func Open(c config.Store, l *zap.Logger) (*Store, error) {
	switch c.Driver {
	case "", "file":
		b, err := NewFileBackend(c.DataDir)
		if err != nil {
			return nil, err
		}
		return New(b, l), nil
	case "mysql", "postgres":
		db, err := database.NewGorm(database.OptsFromConfig(c), l)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", c.Driver, err)
		}
		b, err := NewSQLBackend(db)
		if err != nil {
			return nil, fmt.Errorf("migrate collections: %w", err)
		}
		return New(b, l), nil
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, c.Driver)
	}
}
