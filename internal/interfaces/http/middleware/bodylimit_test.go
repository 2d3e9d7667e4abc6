package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/batch", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.String(http.StatusRequestEntityTooLarge, "streamed body too large")
				return
			}
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		bodyLimitRouter(1024).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(`{"booking_ids":[1]}`)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		bodyLimitRouter(100).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(strings.Repeat("x", 200))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		bodyLimitRouter(50).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "streamed body too large", w.Body.String())
	})
}
