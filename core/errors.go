package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput          = "SHIPBRIDGE_BAD_INPUT"
	ErrorUnauthorized      = "SHIPBRIDGE_UNAUTHORIZED"
	ErrorSignatureMissing  = "SHIPBRIDGE_SIGNATURE_MISSING"
	ErrorSignatureInvalid  = "SHIPBRIDGE_SIGNATURE_INVALID"
	ErrorNotFound          = "SHIPBRIDGE_NOT_FOUND"
	ErrorConflict          = "SHIPBRIDGE_CONFLICT"
	ErrorDownstreamFailure = "SHIPBRIDGE_DOWNSTREAM_FAILED"
	ErrorInternal          = "SHIPBRIDGE_INTERNAL_ERROR"
)

// NewError builds a categorized error carrying an HTTP status and text code.
func NewError(
	message string,
	category goerrors.Category,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(HTTPStatus(category)).
		WithTextCode(textCodeOrDefault(textCode, category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapError(
	source error,
	category goerrors.Category,
	message string,
	textCode string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return NewError(message, category, textCode, metadata)
	}
	// Wrapping a categorized error keeps the source category.
	err := goerrors.Wrap(source, category, message)
	err.WithCode(HTTPStatus(err.Category)).
		WithTextCode(textCodeOrDefault(textCode, err.Category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func NotFoundError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryNotFound, ErrorNotFound, metadata)
}

func UnauthorizedError(message string, metadata map[string]any) *goerrors.Error {
	return NewError(message, goerrors.CategoryAuth, ErrorUnauthorized, metadata)
}

func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// MapError normalizes any error into a goerrors envelope with an HTTP status
// and a shipbridge text code.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func textCodeOrDefault(textCode string, category goerrors.Category) string {
	if strings.TrimSpace(textCode) != "" {
		return textCode
	}
	return defaultTextCode(category)
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorUnauthorized
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryExternal:
		return ErrorDownstreamFailure
	default:
		return ErrorInternal
	}
}

func HTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
