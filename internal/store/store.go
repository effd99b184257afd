package store

import (
	"errors"

	"github.com/evyataryagoni/ipgeo/internal/models"
)

// ErrEmptyTarget is returned when a record or query has no target.
// Lookups of the caller's own address have no stable key and are not kept.
var ErrEmptyTarget = errors.New("history target is empty")

// Store keeps the history of successful lookups.
// It is never consulted to answer a lookup; it only records what happened.
type Store interface {
	// Append records one successful lookup
	Append(rec models.HistoryRecord) error

	// Recent returns up to limit records for target, newest first
	Recent(target string, limit int) ([]models.HistoryRecord, error)

	// Close cleans up resources (database connections, file handles, etc.)
	Close() error
}
