package api

import (
	"errors"
	"log"
	"strings"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/gofiber/fiber/v2"
)

// mapDomainError translates a core error kind into an HTTP response.
// Errors returned through the service container arrive flattened to their
// message, so after the errors.Is checks we fall back to matching the
// sentinel texts.
func mapDomainError(c *fiber.Ctx, err error) error {
	kind, status := classify(err)
	if status == fiber.StatusInternalServerError {
		// Log the real error but never expose internals to the client.
		log.Printf("[api] Internal error: %v", err)
		return c.Status(status).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   kind,
		Message: err.Error(),
	})
}

// classify maps an error to its taxonomy kind and HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, entry.ErrValidation) || contains(err, entry.ErrValidation):
		return "validation_error", fiber.StatusBadRequest
	case errors.Is(err, entry.ErrNotFound) || contains(err, entry.ErrNotFound):
		return "not_found", fiber.StatusNotFound
	case errors.Is(err, entry.ErrForbidden) || contains(err, entry.ErrForbidden):
		return "forbidden", fiber.StatusForbidden
	case errors.Is(err, entry.ErrConflict) || contains(err, entry.ErrConflict):
		return "conflict", fiber.StatusConflict
	case errors.Is(err, entry.ErrStoreUnavailable) || contains(err, entry.ErrStoreUnavailable):
		return "store_unavailable", fiber.StatusServiceUnavailable
	default:
		return "internal_error", fiber.StatusInternalServerError
	}
}

func contains(err error, sentinel error) bool {
	return strings.Contains(err.Error(), sentinel.Error())
}
