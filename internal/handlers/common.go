package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"lightning-pass/internal/status"
)

// User roles stored on the auth collection.
const (
	RoleCustomer = "customer"
	RoleVenue    = "venue"
	RoleAdmin    = "admin"
	RoleScanner  = "scanner"
)

// respondError maps a service error onto the HTTP boundary. Sentinel
// categories become stable status codes; anything uncategorized is
// logged and hidden behind a generic 500.
func respondError(err error) error {
	switch status.Categorize(err) {
	case status.CategoryValidation:
		return apis.NewBadRequestError(err.Error(), nil)
	case status.CategoryNotFound:
		return apis.NewNotFoundError(err.Error(), nil)
	case status.CategoryConflict:
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)
	case status.CategoryUnauthorized:
		return apis.NewForbiddenError(err.Error(), nil)
	case status.CategoryUpstream:
		return apis.NewApiError(http.StatusBadGateway, "payment provider unavailable", nil)
	default:
		slog.Error("unhandled service error", "error", err)
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", nil)
	}
}

// requireRole rejects unauthenticated requests and requests whose auth
// record carries none of the given roles. Superusers always pass.
func requireRole(e *core.RequestEvent, roles ...string) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if e.HasSuperuserAuth() {
		return nil
	}
	role := e.Auth.GetString("role")
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return apis.NewForbiddenError("Access denied", nil)
}

func isAdmin(e *core.RequestEvent) bool {
	if e.Auth == nil {
		return false
	}
	return e.HasSuperuserAuth() || e.Auth.GetString("role") == RoleAdmin
}

// requireVenueAccess allows the venue owner and admins through.
func requireVenueAccess(e *core.RequestEvent, venueRecord *core.Record) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if isAdmin(e) {
		return nil
	}
	if venueRecord.GetString("owner") == e.Auth.Id {
		return nil
	}
	return apis.NewForbiddenError("Access denied", nil)
}
