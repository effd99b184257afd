package v1

import (
	"github.com/evyataryagoni/ipgeo/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all v1 API routes
func SetupRoutes(lookupHandler *handler.LookupHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/lookup?target=<ip-or-host>&https=<bool>
	r.Get("/lookup", lookupHandler.Lookup)

	// GET /v1/history?target=<ip-or-host>
	r.Get("/history", lookupHandler.History)

	return r
}
