package service

import (
	"errors"
	"time"

	"github.com/evyataryagoni/ipgeo/internal/logger"
	"github.com/evyataryagoni/ipgeo/internal/metrics"
	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/internal/store"
	"github.com/evyataryagoni/ipgeo/ipapi"
)

// Lookuper performs a single ip-api lookup. *ipapi.Client satisfies it.
type Lookuper interface {
	Lookup(target string, encrypted bool) (*ipapi.Result, error)
}

// LookupService handles business logic for lookups
// This is the service layer - it sits between handlers, the upstream client and the history store
//
// Responsibilities:
//   - Call the upstream exactly once per lookup
//   - Track outcome metrics
//   - Record successful lookups in history
type LookupService struct {
	client       Lookuper         // The ip-api client
	store        store.Store      // The history store (CSV, MySQL, or Redis)
	metrics      *metrics.Metrics // Metrics collector
	logger       *logger.Logger   // Structured logger
	historyLimit int              // Records returned by History
	now          func() time.Time
}

// NewLookupService creates a new lookup service
//
// Parameters:
//   - client: the upstream client
//   - st: any implementation of the Store interface
//   - historyLimit: how many records History returns per target
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewLookupService(client Lookuper, st store.Store, historyLimit int, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		client:       client,
		store:        st,
		metrics:      m,
		logger:       log.WithComponent("LookupService"),
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Lookup asks ip-api.com about target. An empty target means the caller's own address.
//
// Flow:
//  1. Call the upstream
//  2. Track the outcome
//  3. Append successful results to history (failures there are logged, never returned)
func (s *LookupService) Lookup(target string, encrypted bool) (*ipapi.Result, error) {
	log := s.logger.WithTarget(target)

	start := s.now()
	result, err := s.client.Lookup(target, encrypted)
	s.observeUpstream(encrypted, s.now().Sub(start))

	if err != nil {
		kind := ipapi.KindOther
		var apiErr *ipapi.Error
		if errors.As(err, &apiErr) {
			kind = apiErr.Kind
		}
		s.countLookup(kind.String())

		if kind == ipapi.KindOther {
			log.Error().Err(err).Bool("encrypted", encrypted).Msg("Lookup failed")
		} else {
			log.Warn().Str("kind", kind.String()).Msg("Lookup rejected by upstream")
		}
		return nil, err
	}

	s.countLookup("success")
	country, _ := result.Country()
	city, _ := result.City()
	log.Info().
		Str("country", country).
		Str("city", city).
		Bool("encrypted", encrypted).
		Msg("Lookup successful")

	// Own-address lookups have no stable key
	if target != "" {
		s.record(log, models.HistoryRecord{
			Target:     target,
			Encrypted:  encrypted,
			Record:     result.Record(),
			LookedUpAt: s.now().UTC(),
		})
	}

	return result, nil
}

// History returns the most recent lookups of target, newest first
func (s *LookupService) History(target string) ([]models.HistoryRecord, error) {
	if target == "" {
		return nil, store.ErrEmptyTarget
	}

	start := s.now()
	records, err := s.store.Recent(target, s.historyLimit)
	s.observeHistory("recent", err, s.now().Sub(start))
	if err != nil {
		s.logger.WithTarget(target).Error().Err(err).Msg("Failed to read history")
		return nil, err
	}
	return records, nil
}

// Close cleans up resources
// This will close the underlying store (database connections, etc.)
func (s *LookupService) Close() error {
	return s.store.Close()
}

func (s *LookupService) record(log *logger.Logger, rec models.HistoryRecord) {
	start := s.now()
	err := s.store.Append(rec)
	s.observeHistory("append", err, s.now().Sub(start))
	if err != nil {
		log.Error().Err(err).Msg("Failed to record lookup in history")
	}
}

func (s *LookupService) countLookup(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LookupsTotal.WithLabelValues(result).Inc()
}

func (s *LookupService) observeUpstream(encrypted bool, d time.Duration) {
	if s.metrics == nil {
		return
	}
	scheme := "http"
	if encrypted {
		scheme = "https"
	}
	s.metrics.UpstreamRequestDuration.WithLabelValues(scheme).Observe(d.Seconds())
}

func (s *LookupService) observeHistory(operation string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.HistoryOperationsTotal.WithLabelValues(operation, status).Inc()
	s.metrics.HistoryOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
