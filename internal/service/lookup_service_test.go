package service

import (
	"errors"
	"testing"
	"time"

	"github.com/evyataryagoni/ipgeo/internal/logger"
	"github.com/evyataryagoni/ipgeo/internal/metrics"
	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/internal/store"
	"github.com/evyataryagoni/ipgeo/ipapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeLookuper returns a canned result or error and records its calls
type fakeLookuper struct {
	result *ipapi.Result
	err    error
	calls  []lookupCall
}

type lookupCall struct {
	target    string
	encrypted bool
}

func (f *fakeLookuper) Lookup(target string, encrypted bool) (*ipapi.Result, error) {
	f.calls = append(f.calls, lookupCall{target, encrypted})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

var googleRecord = ipapi.Record{
	Country:          "United States",
	CountryCode:      "US",
	Region:           "VA",
	RegionName:       "Virginia",
	City:             "Ashburn",
	Zip:              "20149",
	Latitude:         39.03,
	Longitude:        -77.5,
	Timezone:         "America/New_York",
	ISP:              "Google LLC",
	Organization:     "Google Public DNS",
	AutonomousSystem: "AS15169 Google LLC",
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(client Lookuper, st store.Store, m *metrics.Metrics) *LookupService {
	svc := NewLookupService(client, st, 5, m, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// TestLookupService_Lookup_Success tests a successful lookup and its history record
func TestLookupService_Lookup_Success(t *testing.T) {
	client := &fakeLookuper{result: ipapi.NewResult(googleRecord)}
	mockStore := store.NewMockStore()
	svc := newTestService(client, mockStore, nil)

	result, err := svc.Lookup("8.8.8.8", true)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if city, _ := result.City(); city != "Ashburn" {
		t.Errorf("expected city Ashburn, got %s", city)
	}

	if len(client.calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(client.calls))
	}
	if client.calls[0] != (lookupCall{"8.8.8.8", true}) {
		t.Errorf("unexpected upstream call: %+v", client.calls[0])
	}

	if len(mockStore.Records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(mockStore.Records))
	}
	want := models.HistoryRecord{
		Target:     "8.8.8.8",
		Encrypted:  true,
		Record:     googleRecord,
		LookedUpAt: fixedNow,
	}
	if mockStore.Records[0] != want {
		t.Errorf("expected record %+v, got %+v", want, mockStore.Records[0])
	}
}

// TestLookupService_Lookup_Self tests that own-address lookups are not recorded
func TestLookupService_Lookup_Self(t *testing.T) {
	client := &fakeLookuper{result: ipapi.NewResult(googleRecord)}
	mockStore := store.NewMockStore()
	svc := newTestService(client, mockStore, nil)

	if _, err := svc.Lookup("", false); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if client.calls[0].target != "" {
		t.Errorf("expected empty target upstream, got %q", client.calls[0].target)
	}
	if len(mockStore.Records) != 0 {
		t.Errorf("expected no history records, got %d", len(mockStore.Records))
	}
}

// TestLookupService_Lookup_Errors tests that upstream errors pass through untouched
func TestLookupService_Lookup_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		label    string
	}{
		{"private range", &ipapi.Error{Kind: ipapi.KindPrivateRange}, ipapi.ErrPrivateRange, "private_range"},
		{"reserved range", &ipapi.Error{Kind: ipapi.KindReservedRange}, ipapi.ErrReservedRange, "reserved_range"},
		{"invalid query", &ipapi.Error{Kind: ipapi.KindInvalidQuery}, ipapi.ErrInvalidQuery, "invalid_query"},
		{"quota exceeded", &ipapi.Error{Kind: ipapi.KindQuotaExceeded}, ipapi.ErrQuotaExceeded, "quota_exceeded"},
		{"other", &ipapi.Error{Kind: ipapi.KindOther, Message: "request failed"}, ipapi.ErrOther, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			mockStore := store.NewMockStore()
			svc := newTestService(&fakeLookuper{err: tt.err}, mockStore, m)

			result, err := svc.Lookup("10.0.0.1", false)
			if result != nil {
				t.Error("expected nil result")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}
			if len(mockStore.Records) != 0 {
				t.Errorf("expected no history on failure, got %d records", len(mockStore.Records))
			}
			if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues(tt.label)); got != 1 {
				t.Errorf("expected %s counter 1, got %v", tt.label, got)
			}
		})
	}
}

// TestLookupService_Lookup_HistoryFailure tests that a store failure does not fail the lookup
func TestLookupService_Lookup_HistoryFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	mockStore := store.NewMockStore()
	mockStore.AppendError = errors.New("disk full")
	svc := newTestService(&fakeLookuper{result: ipapi.NewResult(googleRecord)}, mockStore, m)

	result, err := svc.Lookup("8.8.8.8", false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	if got := testutil.ToFloat64(m.HistoryOperationsTotal.WithLabelValues("append", "error")); got != 1 {
		t.Errorf("expected append error counter 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("expected success counter 1, got %v", got)
	}
}

// TestLookupService_History tests reading history through the service
func TestLookupService_History(t *testing.T) {
	mockStore := store.NewMockStore()
	for i := 0; i < 7; i++ {
		mockStore.Records = append(mockStore.Records, models.HistoryRecord{
			Target:     "8.8.8.8",
			Record:     googleRecord,
			LookedUpAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}
	svc := newTestService(&fakeLookuper{}, mockStore, nil)

	records, err := svc.History("8.8.8.8")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected history limit of 5, got %d", len(records))
	}
	if !records[0].LookedUpAt.Equal(fixedNow.Add(6 * time.Minute)) {
		t.Errorf("expected newest record first, got %v", records[0].LookedUpAt)
	}
}

// TestLookupService_History_Errors tests the empty target and store failures
func TestLookupService_History_Errors(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := newTestService(&fakeLookuper{}, mockStore, nil)

	if _, err := svc.History(""); !errors.Is(err, store.ErrEmptyTarget) {
		t.Errorf("expected ErrEmptyTarget, got %v", err)
	}
	if len(mockStore.RecentCalls) != 0 {
		t.Error("expected store not to be queried for an empty target")
	}

	mockStore.RecentError = errors.New("connection refused")
	if _, err := svc.History("8.8.8.8"); err == nil {
		t.Error("expected store error, got nil")
	}
}

// TestLookupService_Close tests that Close closes the store
func TestLookupService_Close(t *testing.T) {
	mockStore := store.NewMockStore()
	svc := newTestService(&fakeLookuper{}, mockStore, nil)

	if err := svc.Close(); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if !mockStore.CloseCalled {
		t.Error("expected store Close to be called")
	}
}
