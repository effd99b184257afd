package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/ipapi"
)

// csvHeader is the first row of every history file
var csvHeader = []string{
	"target", "encrypted", "looked_up_at",
	"country", "country_code", "region", "region_name", "city", "zip",
	"lat", "lon", "timezone", "isp", "org", "as", "mobile", "proxy",
}

// CSVStore implements Store with an append-only CSV file.
// Good enough for a single instance; reads scan the whole file.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore opens (or creates) the history file at filePath
// and writes the header row if the file is new
func NewCSVStore(filePath string) (*CSVStore, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat CSV file: %w", err)
	}

	if info.Size() == 0 {
		writer := csv.NewWriter(file)
		if err := writer.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	} else {
		header, err := csv.NewReader(file).Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		if len(header) != len(csvHeader) {
			return nil, fmt.Errorf("unexpected CSV header: %d columns, want %d", len(header), len(csvHeader))
		}
	}

	return &CSVStore{path: filePath}, nil
}

// Append writes one row at the end of the file
func (s *CSVStore) Append(rec models.HistoryRecord) error {
	if rec.Target == "" {
		return ErrEmptyTarget
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(toRow(rec)); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// Recent scans the file and returns the last limit rows for target
func (s *CSVStore) Recent(target string, limit int) ([]models.HistoryRecord, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if limit <= 0 {
		return []models.HistoryRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(csvHeader)

	var matches []models.HistoryRecord
	for i := 0; ; i++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		// Skip header row
		if i == 0 || row[0] != target {
			continue
		}

		rec, err := fromRow(row)
		if err != nil {
			// Skip damaged rows instead of failing the whole read
			continue
		}
		matches = append(matches, rec)
	}

	// Rows are in append order; newest first
	result := make([]models.HistoryRecord, 0, min(len(matches), limit))
	for i := len(matches) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, matches[i])
	}
	return result, nil
}

// Close has nothing to release; the file is opened per operation
func (s *CSVStore) Close() error {
	return nil
}

func toRow(rec models.HistoryRecord) []string {
	r := rec.Record
	return []string{
		rec.Target,
		strconv.FormatBool(rec.Encrypted),
		rec.LookedUpAt.UTC().Format(time.RFC3339Nano),
		r.Country, r.CountryCode, r.Region, r.RegionName, r.City, r.Zip,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		r.Timezone, r.ISP, r.Organization, r.AutonomousSystem,
		strconv.FormatBool(r.Mobile),
		strconv.FormatBool(r.Proxy),
	}
}

func fromRow(row []string) (models.HistoryRecord, error) {
	var rec models.HistoryRecord

	encrypted, err := strconv.ParseBool(row[1])
	if err != nil {
		return rec, err
	}
	lookedUpAt, err := time.Parse(time.RFC3339Nano, row[2])
	if err != nil {
		return rec, err
	}
	lat, err := strconv.ParseFloat(row[9], 64)
	if err != nil {
		return rec, err
	}
	lon, err := strconv.ParseFloat(row[10], 64)
	if err != nil {
		return rec, err
	}
	mobile, err := strconv.ParseBool(row[15])
	if err != nil {
		return rec, err
	}
	proxy, err := strconv.ParseBool(row[16])
	if err != nil {
		return rec, err
	}

	return models.HistoryRecord{
		Target:     row[0],
		Encrypted:  encrypted,
		LookedUpAt: lookedUpAt,
		Record: ipapi.Record{
			Country:          row[3],
			CountryCode:      row[4],
			Region:           row[5],
			RegionName:       row[6],
			City:             row[7],
			Zip:              row[8],
			Latitude:         lat,
			Longitude:        lon,
			Timezone:         row[11],
			ISP:              row[12],
			Organization:     row[13],
			AutonomousSystem: row[14],
			Mobile:           mobile,
			Proxy:            proxy,
		},
	}, nil
}
