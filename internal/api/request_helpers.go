package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/nutrition-api/internal/api/shared"
	"github.com/phrazzld/nutrition-api/internal/domain"
)

// getPathID extracts an integer ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	return parseID(paramName, pathParam)
}

// getOptionalQueryID parses an integer query parameter. A missing
// parameter yields nil.
func getOptionalQueryID(r *http.Request, paramName string) (*int64, error) {
	raw := r.URL.Query().Get(paramName)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(paramName, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrInvalidID)
	}
	return id, nil
}

// handleAPIError maps err to a status code and a safe message, logging the
// details.
func handleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
