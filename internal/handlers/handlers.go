// Package handlers implements the JSON HTTP API of the school schedule service.
// Handlers parse and validate input, call the services layer and render results;
// every error is returned to ErrorHandler, which owns the status code mapping.
package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/apperr"
	"github.com/unnme/school-schedule/internal/models"
	"github.com/unnme/school-schedule/internal/validation"
)

// PostgreSQL error codes that can slip past the pre-write validator under concurrency.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string              `json:"detail"`
	Errors []apperr.FieldError `json:"errors,omitempty"`
}

// ErrorHandler maps domain errors to HTTP statuses:
//
//	ValidationError, DuplicatePeerError, InvalidPeerError -> 400
//	NotFoundError                                          -> 404
//	DuplicateNameError                                     -> 409
//	anything else                                          -> 500
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)

		if status >= fiber.StatusInternalServerError {
			requestID, _ := c.Locals("request_id").(string)
			log.Error().Err(err).
				Str("request_id", requestID).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("Request failed")
		}

		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, ErrorResponse) {
	var (
		validationErr *apperr.ValidationError
		duplicatePeer *apperr.DuplicatePeerError
		invalidPeer   *apperr.InvalidPeerError
		duplicateName *apperr.DuplicateNameError
		notFound      *apperr.NotFoundError
		fiberErr      *fiber.Error
		pgErr         *pgconn.PgError
	)

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, ErrorResponse{Detail: validationErr.Error(), Errors: validationErr.Fields}
	case errors.As(err, &duplicatePeer):
		return fiber.StatusBadRequest, ErrorResponse{Detail: duplicatePeer.Error()}
	case errors.As(err, &invalidPeer):
		return fiber.StatusBadRequest, ErrorResponse{Detail: invalidPeer.Error()}
	case errors.As(err, &duplicateName):
		return fiber.StatusConflict, ErrorResponse{Detail: duplicateName.Error()}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, ErrorResponse{Detail: notFound.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse{Detail: fiberErr.Message}
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return fiber.StatusConflict, ErrorResponse{Detail: "resource already exists"}
	case errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation:
		return fiber.StatusBadRequest, ErrorResponse{Detail: "referenced resource does not exist"}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Detail: "internal server error"}
	}
}

// parseID reads the :id route parameter.
func parseID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return 0, apperr.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// parsePagination reads offset, limit, order_by and desc from the query string.
// limit defaults to maxLimit and may not exceed it.
func parsePagination(c *fiber.Ctx, maxLimit int) (models.Pagination, error) {
	page := models.Pagination{Limit: maxLimit, OrderBy: c.Query("order_by")}

	var fields []apperr.FieldError

	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			fields = append(fields, apperr.FieldError{Field: "offset", Message: "must be a non-negative integer"})
		}
		page.Offset = v
	}

	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxLimit {
			fields = append(fields, apperr.FieldError{
				Field:   "limit",
				Message: "must be an integer from 1 to " + strconv.Itoa(maxLimit),
			})
		}
		page.Limit = v
	}

	if raw := c.Query("desc"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "desc", Message: "must be a boolean"})
		}
		page.Desc = v
	}

	if len(fields) > 0 {
		return models.Pagination{}, &apperr.ValidationError{Fields: fields}
	}
	return page, nil
}

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.NewValidationError("body", "must be a valid JSON object")
	}
	return v.Struct(dst)
}
