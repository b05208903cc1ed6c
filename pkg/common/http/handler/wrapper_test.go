package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhanx03/go-timedqueue/pkg/common/http/handler"
	"github.com/huynhanx03/go-timedqueue/pkg/common/http/response"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestWrap_Success(t *testing.T) {
	w, body := serve(t, handler.Wrap(func(context.Context) (int, error) {
		return 7, nil
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, body.Code)
	assert.EqualValues(t, 7, body.Data)
}

func TestWrap_Error(t *testing.T) {
	w, body := serve(t, handler.Wrap(func(context.Context) (int, error) {
		return 0, errors.New("queue gone")
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.CodeInternalServer, body.Code)
	assert.Equal(t, "queue gone", body.Message)
	assert.Nil(t, body.Data)
}
