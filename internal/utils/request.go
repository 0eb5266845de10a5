package utils

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/farmsmart/farm-smart/internal/errors"
	"github.com/farmsmart/farm-smart/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		slog.Warn("Invalid request", slog.String("error", err.Error()))
		response.Error(w, errors.BadRequestError(err.Error()))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		slog.Warn("Validation failed", slog.String("error", err.Error()))
		if validationErrs, ok := AsValidationErrors(err); ok {
			response.ValidationError(w, validationErrs)
			return false
		}
		response.Error(w, errors.InvalidInputError("invalid input data"))
		return false
	}

	return true

}

// ParseID reads a UUID path value.
func ParseID(r *http.Request, key string) (uuid.UUID, error) {

	raw := r.PathValue(key)
	if raw == "" {
		return uuid.Nil, errors.InvalidInputError("Missing " + key)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.InvalidInputError("Invalid " + key + " format").WithError(err)
	}

	return id, nil
}

// ParseInt64ID reads a positive integer path value.
func ParseInt64ID(r *http.Request, key string) (int64, error) {

	raw := r.PathValue(key)
	if raw == "" {
		return 0, errors.InvalidInputError("Missing " + key)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidInputError("Invalid " + key + " format").WithError(err)
	}

	return id, nil
}

// ParsePagination reads page and pageSize query params, leaving defaults to the services.
func ParsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	return page, pageSize
}
