package ipapi

// Record is the success payload exactly as the upstream sent it.
// Empty strings and zero coordinates are kept; use Result to read them
// with "unknown" semantics.
type Record struct {
	Country          string  `json:"country"`     // e.g. "United States"
	CountryCode      string  `json:"countryCode"` // e.g. "US"
	Region           string  `json:"region"`      // e.g. "CA" or "10"
	RegionName       string  `json:"regionName"`  // e.g. "California"
	City             string  `json:"city"`        // e.g. "Mountain View"
	Zip              string  `json:"zip"`         // e.g. "94043"
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lon"`
	Timezone         string  `json:"timezone"` // e.g. "America/Los_Angeles"
	ISP              string  `json:"isp"`
	Organization     string  `json:"org"`
	AutonomousSystem string  `json:"as"` // e.g. "AS15169 Google Inc."
	Mobile           bool    `json:"mobile"`
	Proxy            bool    `json:"proxy"`
}

// Result is the outcome of one successful lookup.
// It is immutable; accessors report false for fields the upstream left empty.
type Result struct {
	rec Record
}

// NewResult wraps a raw record
func NewResult(rec Record) *Result {
	return &Result{rec: rec}
}

// Record returns a copy of the raw payload
func (r *Result) Record() Record {
	return r.rec
}

func known(s string) (string, bool) {
	return s, s != ""
}

// Country returns the country name
func (r *Result) Country() (string, bool) { return known(r.rec.Country) }

// CountryCode returns the two-letter country code
func (r *Result) CountryCode() (string, bool) { return known(r.rec.CountryCode) }

// Region returns the short region code
func (r *Result) Region() (string, bool) { return known(r.rec.Region) }

// RegionName returns the full region name
func (r *Result) RegionName() (string, bool) { return known(r.rec.RegionName) }

// City returns the city
func (r *Result) City() (string, bool) { return known(r.rec.City) }

// Zip returns the zip code
func (r *Result) Zip() (string, bool) { return known(r.rec.Zip) }

// Timezone returns the IANA timezone name
func (r *Result) Timezone() (string, bool) { return known(r.rec.Timezone) }

// ISP returns the internet service provider
func (r *Result) ISP() (string, bool) { return known(r.rec.ISP) }

// Organization returns the organization
func (r *Result) Organization() (string, bool) { return known(r.rec.Organization) }

// AutonomousSystem returns the AS number and name
func (r *Result) AutonomousSystem() (string, bool) { return known(r.rec.AutonomousSystem) }

// Location returns latitude and longitude.
// (0, 0) is how the upstream reports a missing location, so it is treated as
// unknown even though it is a real point.
func (r *Result) Location() (lat, lon float64, ok bool) {
	if r.rec.Latitude == 0 && r.rec.Longitude == 0 {
		return 0, 0, false
	}
	return r.rec.Latitude, r.rec.Longitude, true
}

// IsMobile reports whether the address is on a cellular connection
func (r *Result) IsMobile() bool { return r.rec.Mobile }

// IsProxy reports whether the address is a known proxy
func (r *Result) IsProxy() bool { return r.rec.Proxy }
