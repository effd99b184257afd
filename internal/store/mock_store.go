package store

import (
	"github.com/evyataryagoni/ipgeo/internal/models"
)

// MockStore is a test double for the Store interface
// It keeps records in memory and records every call
type MockStore struct {
	// Records holds appended records in append order
	Records []models.HistoryRecord

	// Track method calls for verification in tests
	RecentCalls []string
	CloseCalled bool

	// Control behavior for error scenarios
	AppendError error
	RecentError error
	CloseError  error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Records:     []models.HistoryRecord{},
		RecentCalls: []string{},
	}
}

// Append implements the Store interface
func (m *MockStore) Append(rec models.HistoryRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	if rec.Target == "" {
		return ErrEmptyTarget
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Recent implements the Store interface, newest first
func (m *MockStore) Recent(target string, limit int) ([]models.HistoryRecord, error) {
	m.RecentCalls = append(m.RecentCalls, target)

	if m.RecentError != nil {
		return nil, m.RecentError
	}

	result := []models.HistoryRecord{}
	for i := len(m.Records) - 1; i >= 0 && len(result) < limit; i-- {
		if m.Records[i].Target == target {
			result = append(result, m.Records[i])
		}
	}
	return result, nil
}

// Close implements the Store interface
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
