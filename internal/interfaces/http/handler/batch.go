package handler

import (
	"github.com/gin-gonic/gin"
	appbatch "github.com/wishup-shore/booking-system-backend/internal/application/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/middleware"
)

// BatchHandler serves the /batch endpoints
type BatchHandler struct {
	BaseHandler
	service *appbatch.BatchOperationService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(service *appbatch.BatchOperationService) *BatchHandler {
	return &BatchHandler{service: service}
}

// dryRunQuery is the ?dry_run= flag of the business endpoints
type dryRunQuery struct {
	DryRun bool `form:"dry_run"`
}

// bindBusiness decodes the dry_run flag and the JSON body into req
func (h *BatchHandler) bindBusiness(c *gin.Context, req any) (bool, bool) {
	var q dryRunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return false, false
	}
	if err := c.ShouldBindJSON(req); err != nil {
		h.BindError(c, err)
		return false, false
	}
	return q.DryRun, true
}

// BulkUpdateBookingStatus godoc
// @Summary      Bulk update booking status
// @Description  Move bookings to a new status. Illegal transitions reject the whole request; execution stops at the first failure and compensates.
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkStatusUpdateRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/bookings/status-update [post]
func (h *BatchHandler) BulkUpdateBookingStatus(c *gin.Context) {
	var req appbatch.BulkStatusUpdateRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkUpdateBookingStatus(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkCancelBookings godoc
// @Summary      Bulk cancel bookings
// @Description  Cancel bookings and append the reason to their comments. Failures do not stop the remaining cancellations.
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkCancelRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/bookings/cancel [post]
func (h *BatchHandler) BulkCancelBookings(c *gin.Context) {
	var req appbatch.BulkCancelRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkCancelBookings(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkSetBookingDates godoc
// @Summary      Bulk set booking dates
// @Description  Assign dates to open-dates bookings, optionally checking accommodation availability
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkSetDatesRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/bookings/set-dates [post]
func (h *BatchHandler) BulkSetBookingDates(c *gin.Context) {
	var req appbatch.BulkSetDatesRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkSetBookingDates(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkConfirmBookings godoc
// @Summary      Bulk confirm bookings
// @Description  Confirm pending bookings, optionally requiring full payment
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkConfirmRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/bookings/confirm [post]
func (h *BatchHandler) BulkConfirmBookings(c *gin.Context) {
	var req appbatch.BulkConfirmRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkConfirmBookings(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkAssignDates godoc
// @Summary      Bulk assign dates
// @Description  Assign dates to open-dates bookings, picking free accommodations for assignments that name none
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkDateAssignmentRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/bookings/assign-dates [post]
func (h *BatchHandler) BulkAssignDates(c *gin.Context) {
	var req appbatch.BulkDateAssignmentRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkAssignDates(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkUpdateAccommodationStatus godoc
// @Summary      Bulk update accommodation status
// @Description  Change the status and optionally the condition of accommodations
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.BulkAccommodationStatusRequest true "Operations"
// @Param        dry_run query bool false "Describe the changes without applying them" default(false)
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/accommodations/status-update [post]
func (h *BatchHandler) BulkUpdateAccommodationStatus(c *gin.Context) {
	var req appbatch.BulkAccommodationStatusRequest
	dryRun, ok := h.bindBusiness(c, &req)
	if !ok {
		return
	}
	result, err := h.service.BulkUpdateAccommodationStatus(c.Request.Context(), req, middleware.GetUserID(c), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExecuteBatch godoc
// @Summary      Execute a batch
// @Description  Run a generic batch of typed operations with explicit execution flags
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.ExecuteBatchRequest true "Batch request"
// @Param        Idempotency-Key header string false "Client key that rejects repeated submissions"
// @Success      200 {object} dto.Response{data=batch.BatchJobResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      501 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/execute [post]
func (h *BatchHandler) ExecuteBatch(c *gin.Context) {
	var req appbatch.ExecuteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.service.ExecuteBatch(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ValidateBatch godoc
// @Summary      Validate a batch
// @Description  Validate a generic batch and preview it with a dry run. A batch that fails validation is still a 200 with valid=false.
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request body appbatch.ExecuteBatchRequest true "Batch request"
// @Success      200 {object} dto.Response{data=appbatch.ValidateBatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/validate [post]
func (h *BatchHandler) ValidateBatch(c *gin.Context) {
	var req appbatch.ExecuteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.service.ValidateBatch(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetJobStatus godoc
// @Summary      Get batch job status
// @Description  Return the recorded saga transactions of a job
// @Tags         batch
// @Produce      json
// @Param        job_id path string true "Job ID"
// @Success      200 {object} dto.Response{data=appbatch.JobStatusResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/status/{job_id} [get]
func (h *BatchHandler) GetJobStatus(c *gin.Context) {
	status, err := h.service.GetJobStatus(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// ListJobs godoc
// @Summary      List batch jobs
// @Description  Paginated list of recorded saga transactions, newest first
// @Tags         batch
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        status query string false "Transaction status"
// @Success      200 {object} dto.Response{data=[]batch.SagaTransaction,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/jobs [get]
func (h *BatchHandler) ListJobs(c *gin.Context) {
	var q dto.ListJobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.Status != "" {
		filter.Filters["status"] = q.Status
	}

	page, err := h.service.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, dto.Meta{
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

// CancelJob godoc
// @Summary      Cancel a running batch job
// @Description  Stop a job running in this process. Operations not yet started are skipped and completed ones are compensated.
// @Tags         batch
// @Produce      json
// @Param        job_id path string true "Job ID"
// @Success      200 {object} dto.Response{data=map[string]any}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/cancel/{job_id} [post]
func (h *BatchHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if err := h.service.CancelJob(jobID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"job_id": jobID, "cancelled": true})
}

// ListExamples godoc
// @Summary      List batch examples
// @Tags         batch
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/examples [get]
func (h *BatchHandler) ListExamples(c *gin.Context) {
	h.Success(c, appbatch.ExampleNames())
}

// GetExample godoc
// @Summary      Get a batch example
// @Description  Return an example payload and the endpoint it belongs to
// @Tags         batch
// @Produce      json
// @Param        name path string true "Example name"
// @Success      200 {object} dto.Response{data=appbatch.Example}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /batch/examples/{name} [get]
func (h *BatchHandler) GetExample(c *gin.Context) {
	example, err := appbatch.GetExample(c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, example)
}
