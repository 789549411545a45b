package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clientDirectory/internal/validation"
	"clientDirectory/repository"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

const (
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeValidation   ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes what went wrong.
type ErrorDetail struct {
	Code    ErrorCode               `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// DataResponse wraps a single resource.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse wraps a collection.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func list[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse{Data: items, Total: len(items)})
}

func errorJSON(c *gin.Context, status int, code ErrorCode, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func badRequest(c *gin.Context, message string) {
	errorJSON(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func notFound(c *gin.Context, message string) {
	errorJSON(c, http.StatusNotFound, ErrCodeNotFound, message)
}

func forbidden(c *gin.Context, message string) {
	errorJSON(c, http.StatusForbidden, ErrCodeForbidden, message)
}

func unauthorized(c *gin.Context, message string) {
	errorJSON(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func validationFailed(c *gin.Context, fields validation.Errors) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
		Code:    ErrCodeValidation,
		Message: fields.Error(),
		Fields:  fields,
	}})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.Error("internal error",
		zap.String("request_id", requestIDFrom(c)),
		zap.String("route", c.FullPath()),
		zap.Error(err))
	errorJSON(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// handleRepoError writes the response for a repository error and reports whether it did.
func (h *Handler) handleRepoError(c *gin.Context, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		notFound(c, notFoundMsg)
	case errors.Is(err, repository.ErrCompanyTaken):
		badRequest(c, "Company already taken by another client")
	case errors.Is(err, repository.ErrInvalidReference):
		badRequest(c, err.Error())
	case errors.Is(err, repository.ErrAlreadyExists):
		errorJSON(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, repository.ErrInUse):
		errorJSON(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		h.internalError(c, err)
	}
	return true
}
