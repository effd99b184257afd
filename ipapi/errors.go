package ipapi

import "fmt"

// Kind identifies why a lookup failed
type Kind int

const (
	// KindOther covers transport failures, malformed bodies, schema mismatches
	// and any failure reason the upstream reports that is not listed below
	KindOther Kind = iota
	// KindPrivateRange means the address belongs to a private range
	KindPrivateRange
	// KindReservedRange means the address belongs to a reserved range
	KindReservedRange
	// KindInvalidQuery means the upstream rejected the IP address or hostname
	KindInvalidQuery
	// KindQuotaExceeded means the caller went over the upstream request quota
	KindQuotaExceeded
)

// String returns the snake_case name used in logs, metrics and API responses
func (k Kind) String() string {
	switch k {
	case KindPrivateRange:
		return "private_range"
	case KindReservedRange:
		return "reserved_range"
	case KindInvalidQuery:
		return "invalid_query"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "other"
	}
}

// Error is the error returned by every failed lookup.
// Message is only set for KindOther.
type Error struct {
	Kind    Kind
	Message string
}

// Sentinels for errors.Is. They match any *Error of the same Kind,
// whatever its Message.
var (
	ErrPrivateRange  = &Error{Kind: KindPrivateRange}
	ErrReservedRange = &Error{Kind: KindReservedRange}
	ErrInvalidQuery  = &Error{Kind: KindInvalidQuery}
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded}
	ErrOther         = &Error{Kind: KindOther}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindPrivateRange:
		return "ipapi: the IP address is part of a private range"
	case KindReservedRange:
		return "ipapi: the IP address is part of a reserved range"
	case KindInvalidQuery:
		return "ipapi: invalid IP address or domain name"
	case KindQuotaExceeded:
		return "ipapi: request quota exceeded"
	default:
		if e.Message == "" {
			return "ipapi: lookup failed"
		}
		return "ipapi: " + e.Message
	}
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// otherf builds a KindOther error
func otherf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindOther, Message: fmt.Sprintf(format, args...)}
}

// unexpectedResponse builds a KindOther error that carries the raw body,
// so callers can see what the upstream actually sent
func unexpectedResponse(reason string, body []byte) *Error {
	return otherf("unexpected response: %s; body is: %s", reason, body)
}
