// Package ipapi looks up geolocation data for an IP address or hostname
// through the ip-api.com JSON endpoint.
//
// The free endpoint is rate limited by the upstream (callers going over the
// limit are banned by IP for a while) and HTTPS access is a paid feature, so an
// encrypted lookup without a subscription fails through the normal error path.
// The data is approximate.
package ipapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultHost is the upstream host
	DefaultHost = "ip-api.com"

	// FieldsMask selects every field Record understands
	FieldsMask = 258047

	// MaxBodySize caps how much of a response is read; a real answer is well under 1 KiB
	MaxBodySize = 1 << 20

	statusSuccess = "success"
	statusFail    = "fail"
)

// Doer performs a single HTTP request. *http.Client satisfies it.
// Timeouts and TLS settings are the Doer's concern.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the upstream. The zero value is not usable; use NewClient.
type Client struct {
	host      string
	doer      Doer
	validator *validator.Validate
}

// Option configures a Client
type Option func(*Client)

// WithHost points the client at a different host (host or host:port)
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = host
	}
}

// WithDoer sets the HTTP transport
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// NewClient creates a client for ip-api.com.
// Without WithDoer it uses an http.Client with a 10 second timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		host:      DefaultHost,
		doer:      &http.Client{Timeout: 10 * time.Second},
		validator: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClient = NewClient()

// Lookup queries ip-api.com with the default client.
// An empty target looks up the caller's own public address.
func Lookup(target string, encrypted bool) (*Result, error) {
	return defaultClient.Lookup(target, encrypted)
}

// URL returns the request URL for target. target is not validated or escaped;
// the upstream answers "invalid query" for anything it cannot resolve.
func (c *Client) URL(target string, encrypted bool) string {
	scheme := "http"
	if encrypted {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/json/%s?fields=%d", scheme, c.host, target, FieldsMask)
}

// LookupSelf looks up the caller's own public address as the upstream sees it
func (c *Client) LookupSelf(encrypted bool) (*Result, error) {
	return c.Lookup("", encrypted)
}

// Lookup performs one request for target and interprets the response.
// Every failure is an *Error; there are no retries.
func (c *Client) Lookup(target string, encrypted bool) (*Result, error) {
	body, err := c.get(c.URL(target, encrypted))
	if err != nil {
		return nil, err
	}
	return c.interpret(body)
}

// get performs the GET and returns the body bytes
func (c *Client) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, otherf("failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, otherf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, otherf("failed to read response body: %v", err)
	}
	if len(body) > MaxBodySize {
		return nil, otherf("response body exceeds %d bytes", MaxBodySize)
	}
	return body, nil
}

// envelope holds the discriminator fields of every response.
// They stay raw so a non-string status or message can be told apart from a
// missing one.
type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message json.RawMessage `json:"message"`
}

// wireRecord mirrors Record with pointer fields so a missing field can be
// detected; validator's "required" rejects nil pointers.
type wireRecord struct {
	Country     *string  `json:"country" validate:"required"`
	CountryCode *string  `json:"countryCode" validate:"required"`
	Region      *string  `json:"region" validate:"required"`
	RegionName  *string  `json:"regionName" validate:"required"`
	City        *string  `json:"city" validate:"required"`
	Zip         *string  `json:"zip" validate:"required"`
	Lat         *float64 `json:"lat" validate:"required"`
	Lon         *float64 `json:"lon" validate:"required"`
	Timezone    *string  `json:"timezone" validate:"required"`
	ISP         *string  `json:"isp" validate:"required"`
	Org         *string  `json:"org" validate:"required"`
	AS          *string  `json:"as" validate:"required"`
	Mobile      *bool    `json:"mobile" validate:"required"`
	Proxy       *bool    `json:"proxy" validate:"required"`
}

func (w *wireRecord) record() Record {
	return Record{
		Country:          *w.Country,
		CountryCode:      *w.CountryCode,
		Region:           *w.Region,
		RegionName:       *w.RegionName,
		City:             *w.City,
		Zip:              *w.Zip,
		Latitude:         *w.Lat,
		Longitude:        *w.Lon,
		Timezone:         *w.Timezone,
		ISP:              *w.ISP,
		Organization:     *w.Org,
		AutonomousSystem: *w.AS,
		Mobile:           *w.Mobile,
		Proxy:            *w.Proxy,
	}
}

// interpret maps a response body onto a Result or an *Error
func (c *Client) interpret(body []byte) (*Result, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, otherf("error interpreting body as json: %v; body is: %s", err, body)
	}

	status, ok := rawString(env.Status)
	if !ok {
		return nil, unexpectedResponse("missing or non-string status", body)
	}

	switch status {
	case statusSuccess:
		var wire wireRecord
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, otherf("error deserializing json to Record: %v", err)
		}
		if err := c.validator.Struct(&wire); err != nil {
			return nil, otherf("error deserializing json to Record: %v", err)
		}
		return NewResult(wire.record()), nil

	case statusFail:
		message, ok := rawString(env.Message)
		if !ok {
			return nil, unexpectedResponse("missing or non-string message", body)
		}
		if e := failure(message); e != nil {
			return nil, e
		}
		return nil, unexpectedResponse("unknown error message", body)

	default:
		return nil, unexpectedResponse("unknown status", body)
	}
}

// failure maps a known upstream failure message onto its error, nil otherwise
func failure(message string) *Error {
	switch message {
	case "private range":
		return &Error{Kind: KindPrivateRange}
	case "reserved range":
		return &Error{Kind: KindReservedRange}
	case "invalid query":
		return &Error{Kind: KindInvalidQuery}
	case "quota", "quota exceeded":
		return &Error{Kind: KindQuotaExceeded}
	default:
		return nil
	}
}

// rawString decodes raw as a JSON string; false when absent or not a string
func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
