package store

import (
	"fmt"
	"strings"
)

// StoreConfig holds configuration for creating a history store
type StoreConfig struct {
	Type    string // "csv", "mysql" or "redis"
	CSVPath string
	Retain  int // records kept per target (Redis only; the others keep everything)

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewStore creates a history store based on the configuration (factory pattern)
func NewStore(cfg StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "csv", "":
		s, err = NewCSVStore(cfg.CSVPath)

	case "mysql":
		s, err = NewMySQLStore(cfg.MySQLDSN)

	case "redis":
		s, err = NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Retain)

	default:
		return nil, fmt.Errorf("unknown history store type: %s (supported: 'csv', 'mysql', 'redis')", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s history store: %w", cfg.Type, err)
	}
	return s, nil
}
