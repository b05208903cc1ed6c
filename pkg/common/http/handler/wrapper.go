package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/huynhanx03/go-timedqueue/pkg/common/http/response"
)

// QueryFunc is the signature of a read-only handler.
type QueryFunc[R any] func(context.Context) (R, error)

// Wrap converts a read-only handler to a Gin handler
func Wrap[R any](h QueryFunc[R]) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h(c.Request.Context())
		if err != nil {
			response.ErrorResponse(c, response.CodeInternalServer, err)
			return
		}

		response.SuccessResponse(c, response.CodeSuccess, res)
	}
}
