package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/internal/service"
	"github.com/evyataryagoni/ipgeo/ipapi"
	"github.com/go-playground/validator/v10"
)

// lookupQuery holds the query parameters of GET /v1/lookup
type lookupQuery struct {
	Target string `validate:"max=253"`
	HTTPS  string `validate:"omitempty,boolean"`
}

// historyQuery holds the query parameters of GET /v1/history
type historyQuery struct {
	Target string `validate:"required,max=253"`
}

// LookupHandler handles HTTP requests for lookups
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse and validate query parameters
//   - Call service methods
//   - Map lookup failures to status codes
//   - Format HTTP responses (JSON)
type LookupHandler struct {
	service          *service.LookupService
	validator        *validator.Validate
	defaultEncrypted bool // used when the request has no https parameter
}

// NewLookupHandler creates a new lookup handler with the given service
func NewLookupHandler(svc *service.LookupService, defaultEncrypted bool) *LookupHandler {
	return &LookupHandler{
		service:          svc,
		validator:        validator.New(),
		defaultEncrypted: defaultEncrypted,
	}
}

// Lookup handles GET /v1/lookup?target=<ip-or-host>&https=<bool>
// An empty target looks up the caller's own address as seen by ip-api.com.
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := lookupQuery{
		Target: r.URL.Query().Get("target"),
		HTTPS:  r.URL.Query().Get("https"),
	}
	if err := h.validator.Struct(q); err != nil {
		h.respondError(w, http.StatusBadRequest, invalidParam(err), "")
		return
	}

	encrypted := h.defaultEncrypted
	if q.HTTPS != "" {
		// Already validated as a boolean
		encrypted, _ = strconv.ParseBool(q.HTTPS)
	}

	result, err := h.service.Lookup(q.Target, encrypted)
	if err != nil {
		status, kind := lookupFailure(err)
		h.respondError(w, status, err.Error(), kind)
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewLookupResponse(q.Target, result))
}

// History handles GET /v1/history?target=<ip-or-host>
func (h *LookupHandler) History(w http.ResponseWriter, r *http.Request) {
	q := historyQuery{Target: r.URL.Query().Get("target")}
	if err := h.validator.Struct(q); err != nil {
		h.respondError(w, http.StatusBadRequest, invalidParam(err), "")
		return
	}

	records, err := h.service.History(q.Target)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	resp := models.HistoryResponse{
		Target:  q.Target,
		Lookups: make([]models.HistoryEntry, 0, len(records)),
	}
	for _, rec := range records {
		resp.Lookups = append(resp.Lookups, models.NewHistoryEntry(rec))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// lookupFailure maps a lookup error to a status code and kind label
func lookupFailure(err error) (int, string) {
	var apiErr *ipapi.Error
	if !errors.As(err, &apiErr) {
		return http.StatusBadGateway, ipapi.KindOther.String()
	}

	switch apiErr.Kind {
	case ipapi.KindInvalidQuery:
		return http.StatusBadRequest, apiErr.Kind.String()
	case ipapi.KindPrivateRange, ipapi.KindReservedRange:
		return http.StatusUnprocessableEntity, apiErr.Kind.String()
	case ipapi.KindQuotaExceeded:
		return http.StatusServiceUnavailable, apiErr.Kind.String()
	default:
		return http.StatusBadGateway, apiErr.Kind.String()
	}
}

// invalidParam turns a validation error into a message naming the parameter
func invalidParam(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Target":
			if verrs[0].Tag() == "required" {
				return "Missing 'target' query parameter"
			}
			return "Invalid 'target' query parameter"
		case "HTTPS":
			return "Invalid 'https' query parameter, expected a boolean"
		}
	}
	return "Invalid query parameters"
}

// respondJSON writes a JSON response with the given status code
func (h *LookupHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func (h *LookupHandler) respondError(w http.ResponseWriter, statusCode int, message, kind string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message, Kind: kind})
}
