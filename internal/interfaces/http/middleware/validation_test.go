package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
)

type cancelBody struct {
	BookingIDs []int64 `json:"booking_ids" binding:"required,min=1,max=3,dive,gt=0"`
	Reason     string  `json:"cancellation_reason" binding:"required,max=10"`
	CheckIn    string  `json:"check_in_date" binding:"omitempty,datetime=2006-01-02"`
}

func validationRouter(limit int64) *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/cancel", func(c *gin.Context) {
		var req cancelBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/cancel", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleBindError_Validation(t *testing.T) {
	w, resp := postJSON(validationRouter(1<<20), `{"booking_ids":[1,0],"cancellation_reason":"far too long a reason","check_in_date":"15/08/2024"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	raw, err := json.Marshal(resp.Error.Details)
	require.NoError(t, err)
	var details []dto.ValidationDetail
	require.NoError(t, json.Unmarshal(raw, &details))
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "booking_ids[1]", Message: "Must be greater than 0"},
		{Field: "cancellation_reason", Message: "Must be at most 10 characters"},
		{Field: "check_in_date", Message: "Must be a date in 2006-01-02 format"},
	}, details)
}

func TestHandleBindError_MissingFields(t *testing.T) {
	_, resp := postJSON(validationRouter(1<<20), `{}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
}

func TestHandleBindError_MalformedJSON(t *testing.T) {
	w, resp := postJSON(validationRouter(1<<20), `{"booking_ids": [1,`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestHandleBindError_TooLarge(t *testing.T) {
	w, resp := postJSON(validationRouter(16), `{"booking_ids":[1,2,3],"cancellation_reason":"x"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
}

func TestValidationDetails_OtherError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
