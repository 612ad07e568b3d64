package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/lookthrough/internal/domain/dto"
)

// ErrorHandler renders errors attached with c.Error when the handler did not
// write a response itself. The status set by the handler is kept when it is
// an error status; otherwise 500 is used.
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	last := c.Errors.Last().Err
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	var resp dto.ErrorResponse
	if !errors.As(last, &resp) {
		resp = dto.NewErrorResponse(http.StatusText(status), last)
	}
	c.AbortWithStatusJSON(status, resp)
}

// AbortWithError records err on the context and aborts with a standard error
// body carrying message.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
