package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried in every response body.
const (
	CodeSuccess        = 20000
	CodeNotFound       = 40400
	CodeInternalServer = 50000
)

var codeMessages = map[int]string{
	CodeSuccess:        "success",
	CodeNotFound:       "not found",
	CodeInternalServer: "internal server error",
}

var codeStatus = map[int]int{
	CodeSuccess:        http.StatusOK,
	CodeNotFound:       http.StatusNotFound,
	CodeInternalServer: http.StatusInternalServerError,
}

// Response is the envelope for every JSON reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SuccessResponse writes data with the status mapped from code.
func SuccessResponse(c *gin.Context, code int, data any) {
	c.JSON(statusOf(code), Response{
		Code:    code,
		Message: codeMessages[code],
		Data:    data,
	})
}

// ErrorResponse aborts the request with the status mapped from code.
func ErrorResponse(c *gin.Context, code int, err error) {
	msg := codeMessages[code]
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(statusOf(code), Response{
		Code:    code,
		Message: msg,
	})
}

func statusOf(code int) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
