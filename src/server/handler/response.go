package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	// Human-readable error message
	Error string `json:"error"`
	// Machine-readable error code (e.g., INVALID_INPUT, NOT_FOUND)
	Code string `json:"code"`
	// HTTP status code
	Status int `json:"status"`
	// Additional error context (validation errors, upstream details)
	Details map[string]interface{} `json:"details,omitempty"`
}

// Common error codes
const (
	ErrInvalidInput    = "INVALID_INPUT"
	ErrNotFound        = "NOT_FOUND"
	ErrBadRequest      = "BAD_REQUEST"
	ErrConflict        = "CONFLICT"
	ErrInternal        = "INTERNAL_ERROR"
	ErrExternalService = "EXTERNAL_SERVICE_ERROR"
)

// RespondError sends a standardized error response
// Format: {"error": "Human readable message", "code": "ERROR_CODE", "status": 400, "details": {}}
func RespondError(c *gin.Context, status int, code string, message string, details ...map[string]interface{}) {
	response := ErrorResponse{
		Error:  message,
		Code:   code,
		Status: status,
	}
	if len(details) > 0 {
		response.Details = details[0]
	}

	c.JSON(status, response)
}

// RespondData sends the item directly without a wrapper
func RespondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(c *gin.Context, message string, details ...map[string]interface{}) {
	RespondError(c, http.StatusBadRequest, ErrBadRequest, message, details...)
}

// InvalidInput returns a 400 Invalid Input error
func InvalidInput(c *gin.Context, message string, details ...map[string]interface{}) {
	RespondError(c, http.StatusBadRequest, ErrInvalidInput, message, details...)
}

// NotFound returns a 404 Not Found error
func NotFound(c *gin.Context, message string) {
	RespondError(c, http.StatusNotFound, ErrNotFound, message)
}

// Conflict returns a 409 Conflict error
func Conflict(c *gin.Context, message string, details ...map[string]interface{}) {
	RespondError(c, http.StatusConflict, ErrConflict, message, details...)
}

// InternalError returns a 500 Internal Server Error
func InternalError(c *gin.Context, message string) {
	RespondError(c, http.StatusInternalServerError, ErrInternal, message)
}
