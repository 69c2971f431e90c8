package tools

import (
	"errors"
	"net/http"

	"eldertales_api/types"

	"cloud.google.com/go/logging"
	"github.com/gin-gonic/gin"
)

// StatusForError maps an error kind to the HTTP status the client sees.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrInvalidOperation), errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LogError logs err and aborts the request with the error envelope.
func LogError(logger Logger, c *gin.Context, err error) {
	status := StatusForError(err)
	kind := types.ErrorKind(err)

	severity := logging.Warning
	if status >= http.StatusInternalServerError {
		severity = logging.Error
	}

	logger.Log(logging.Entry{
		Severity: severity,
		Payload:  err.Error(),
		Labels: map[string]string{
			"status": "error",
			"kind":   kind,
			"route":  c.FullPath(),
		},
	})

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Unexpected error occurred"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"statusCode": status,
		"data":       gin.H{},
		"message":    message,
		"success":    false,
		"error":      kind,
	})
}

// Respond writes the success envelope shared by every route.
func Respond(c *gin.Context, status int, data interface{}, message string) {
	if data == nil {
		data = gin.H{}
	}

	c.JSON(status, gin.H{
		"statusCode": status,
		"data":       data,
		"message":    message,
		"success":    status < http.StatusBadRequest,
	})
}
