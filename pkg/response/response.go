package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kinderbasar/backend/internal/bazaar"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends a 202 JSON response for work handed to the background worker.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Toggle answers the AJAX toggles (accept, deny, delete, complete) with a bare success flag.
func Toggle(c *gin.Context, ok bool) {
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

var statusByKind = map[bazaar.Kind]int{
	bazaar.KindNotFound:   http.StatusNotFound,
	bazaar.KindClosed:     http.StatusGone,
	bazaar.KindConflict:   http.StatusConflict,
	bazaar.KindLimit:      http.StatusUnprocessableEntity,
	bazaar.KindInvalid:    http.StatusUnprocessableEntity,
	bazaar.KindForbidden:  http.StatusForbidden,
	bazaar.KindAuth:       http.StatusUnauthorized,
	bazaar.KindSaveFailed: http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if e, ok := bazaar.AsError(err); ok {
		if status, ok := statusByKind[e.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Error sends a domain error with its German message and code. Unknown errors are
// reported as a failed save without leaking details.
func Error(c *gin.Context, err error) {
	e, ok := bazaar.AsError(err)
	if !ok {
		e = bazaar.ErrSaveFailed
	}
	c.JSON(StatusFor(e), Body{Success: false, Error: e.Message, Code: e.Code})
}
