package middleware

import (
	"savepaws-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error translates errors attached to the gin context into the response
// envelope. BaseError codes map to HTTP statuses; anything else is a 500.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		if v, ok := errutil.From(last.Err); ok {
			c.JSON(v.Code.HTTPStatus(), errorBody{
				Success: false,
				Message: v.Message,
				Code:    string(v.Code),
			})
			return
		}

		zap.L().Error("unhandled request error",
			zap.String("path", c.FullPath()),
			zap.Error(last.Err),
		)
		c.JSON(errutil.StatusInternal.HTTPStatus(), errorBody{
			Success: false,
			Message: "internal server error",
			Code:    string(errutil.StatusInternal),
		})
	}
}
