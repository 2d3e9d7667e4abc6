// Package handler implements the HTTP handlers of the booking batch API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/logger"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by every handler
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta dto.Meta) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BindError responds to a request that could not be decoded or validated
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleBindError(c, err)
}

// HandleError converts an application error into a response.
//
//   - *batch.ValidationError: 400 VALIDATION_ERROR with every violation as details
//   - batch.ErrJobNotRunning: 404 NOT_FOUND
//   - batch.ErrProcessor: 500 BATCH_PROCESSING_FAILED; stored state may be unreconciled
//   - *shared.DomainError: its code, 422 when the code has no mapping
//   - anything else: 500 INTERNAL_ERROR
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)
	log := logger.FromContext(c.Request.Context())

	var validationErr *batch.ValidationError
	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(dto.ErrCodeValidation,
			validationErr.Error(), requestID, validationErr.Issues))
	case errors.Is(err, batch.ErrJobNotRunning):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, err.Error(), requestID))
	case errors.Is(err, batch.ErrProcessor):
		log.Error("Batch processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeBatchFailed, err.Error(), requestID))
	case errors.As(err, &domainErr):
		status := dto.GetHTTPStatusOr(domainErr.Code, http.StatusUnprocessableEntity)
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID))
	default:
		log.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal,
			"An unexpected error occurred", requestID))
	}
}
