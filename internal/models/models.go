package models

import (
	"time"

	"github.com/evyataryagoni/ipgeo/ipapi"
)

// Location is a known latitude/longitude pair
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// LookupResponse is the JSON view of an ipapi.Result.
// Unknown fields are encoded as null rather than empty strings.
type LookupResponse struct {
	Target           string    `json:"target"` // What was asked for; empty means the caller's own address
	Country          *string   `json:"country"`
	CountryCode      *string   `json:"country_code"`
	Region           *string   `json:"region"`
	RegionName       *string   `json:"region_name"`
	City             *string   `json:"city"`
	Zip              *string   `json:"zip"`
	Location         *Location `json:"location"`
	Timezone         *string   `json:"timezone"`
	ISP              *string   `json:"isp"`
	Organization     *string   `json:"organization"`
	AutonomousSystem *string   `json:"autonomous_system"`
	Mobile           bool      `json:"mobile"`
	Proxy            bool      `json:"proxy"`
}

// NewLookupResponse builds the view for a lookup result
func NewLookupResponse(target string, r *ipapi.Result) LookupResponse {
	resp := LookupResponse{
		Target:           target,
		Country:          optional(r.Country()),
		CountryCode:      optional(r.CountryCode()),
		Region:           optional(r.Region()),
		RegionName:       optional(r.RegionName()),
		City:             optional(r.City()),
		Zip:              optional(r.Zip()),
		Timezone:         optional(r.Timezone()),
		ISP:              optional(r.ISP()),
		Organization:     optional(r.Organization()),
		AutonomousSystem: optional(r.AutonomousSystem()),
		Mobile:           r.IsMobile(),
		Proxy:            r.IsProxy(),
	}
	if lat, lon, ok := r.Location(); ok {
		resp.Location = &Location{Latitude: lat, Longitude: lon}
	}
	return resp
}

func optional(value string, ok bool) *string {
	if !ok {
		return nil
	}
	return &value
}

// HistoryRecord is one successful lookup kept by the history store
type HistoryRecord struct {
	Target     string       `json:"target"`
	Encrypted  bool         `json:"encrypted"`
	Record     ipapi.Record `json:"record"`
	LookedUpAt time.Time    `json:"looked_up_at"`
}

// HistoryEntry is one past lookup as returned by GET /v1/history
type HistoryEntry struct {
	LookupResponse
	Encrypted  bool      `json:"encrypted"`
	LookedUpAt time.Time `json:"looked_up_at"`
}

// NewHistoryEntry builds the view for a stored record
func NewHistoryEntry(rec HistoryRecord) HistoryEntry {
	return HistoryEntry{
		LookupResponse: NewLookupResponse(rec.Target, ipapi.NewResult(rec.Record)),
		Encrypted:      rec.Encrypted,
		LookedUpAt:     rec.LookedUpAt,
	}
}

// HistoryResponse is returned by GET /v1/history
type HistoryResponse struct {
	Target  string         `json:"target"`
	Lookups []HistoryEntry `json:"lookups"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`          // Error message
	Kind  string `json:"kind,omitempty"` // Lookup failure kind, e.g. "quota_exceeded"
}
