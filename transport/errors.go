package transport

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorBadInput
	case goerrors.CategoryAuth:
		return core.ErrorUnauthorized
	case goerrors.CategoryNotFound:
		return core.ErrorNotFound
	case goerrors.CategoryExternal:
		return core.ErrorDownstreamFailure
	default:
		return core.ErrorInternal
	}
}

// StatusError converts a non-2xx response into a categorized error. A 404
// maps to not found and 401/403 to auth so callers can branch on category.
func StatusError(res core.TransportResponse, operation string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	metadata := map[string]any{
		"operation":   operation,
		"status_code": res.StatusCode,
	}
	message := fmt.Sprintf("transport: %s returned status %d", operation, res.StatusCode)
	switch res.StatusCode {
	case http.StatusNotFound:
		return transportError(message, goerrors.CategoryNotFound, http.StatusNotFound, metadata)
	case http.StatusUnauthorized, http.StatusForbidden:
		return transportError(message, goerrors.CategoryAuth, http.StatusUnauthorized, metadata)
	default:
		return transportError(message, goerrors.CategoryExternal, http.StatusBadGateway, metadata)
	}
}
