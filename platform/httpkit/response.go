package httpkit

import (
	"errors"
	"net/http"

	"leadscore_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) { c.JSON(status, payload) }
func OK(c *gin.Context, payload any)               { c.JSON(http.StatusOK, payload) }
func Created(c *gin.Context, payload any)          { c.JSON(http.StatusCreated, payload) }

// Error writes an ErrorResponse with an explicit status.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// BindJSON decodes the body into dst and answers 400 when it is malformed.
// It reports whether the handler should continue.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

// HandleError writes err and reports whether there was one. An *apperr.Error
// picks the status and message; anything else is a 500 with a generic
// message. Server-side failures are attached to the gin context so
// RequestLogger records the cause.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return true
	}

	status := domainErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, ErrorResponse{Error: domainErr.Message, Details: domainErr.Details})
	return true
}
