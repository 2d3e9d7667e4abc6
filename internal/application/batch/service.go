package batch

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"go.uber.org/zap"
)

// serviceValidationSummary prefixes business-rule rejections
const serviceValidationSummary = "Validation errors"

// BatchOperationService exposes the bulk business operations on top of the
// batch processor. Each method checks its own business rules, builds the
// batch with its execution flags and delegates to the processor.
type BatchOperationService struct {
	processor      *SagaBatchProcessor
	bookings       booking.Repository
	accommodations accommodation.Repository
	sagas          batch.SagaTransactionRepository
	logger         *zap.Logger
}

// NewBatchOperationService creates a new BatchOperationService
func NewBatchOperationService(
	processor *SagaBatchProcessor,
	bookings booking.Repository,
	accommodations accommodation.Repository,
	sagas batch.SagaTransactionRepository,
	log *zap.Logger,
) *BatchOperationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchOperationService{
		processor:      processor,
		bookings:       bookings,
		accommodations: accommodations,
		sagas:          sagas,
		logger:         log,
	}
}

// Processor returns the underlying batch processor
func (s *BatchOperationService) Processor() *SagaBatchProcessor {
	return s.processor
}

// BulkUpdateBookingStatus moves bookings to a new status. Every transition
// must be legal or nothing runs; execution stops at the first failure.
func (s *BatchOperationService) BulkUpdateBookingStatus(ctx context.Context, req BulkStatusUpdateRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	newStatus, err := booking.ParseStatus(req.NewStatus)
	if err != nil {
		return nil, err
	}

	issues, err := s.validateStatusUpdate(ctx, req.BookingIDs, newStatus)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, batch.NewValidationError(serviceValidationSummary, issues)
	}

	ops := make([]*batch.BatchOperationItem, 0, len(req.BookingIDs))
	for _, id := range req.BookingIDs {
		ops = append(ops, batch.NewOperationItem(id, &batch.StatusUpdateParams{
			NewStatus:     newStatus,
			Reason:        req.Reason,
			NotifyClients: req.NotifyClients,
		}))
	}

	return s.run(ctx, submittedBy,
		fmt.Sprintf("Bulk Status Update: %d bookings to %s", len(req.BookingIDs), newStatus),
		fmt.Sprintf("Update booking status to %s. Reason: %s", newStatus, req.Reason),
		ops, batch.Options{DryRun: dryRun, FailFast: true, EnableCompensation: true})
}

// BulkCancelBookings cancels bookings and keeps going past individual failures
func (s *BatchOperationService) BulkCancelBookings(ctx context.Context, req BulkCancelRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	issues, err := s.validateCancellation(ctx, req.BookingIDs)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, batch.NewValidationError(serviceValidationSummary, issues)
	}

	params := &batch.CancelParams{
		Reason:        req.CancellationReason,
		RefundAmount:  req.RefundAmount,
		NotifyClients: boolOr(req.NotifyClients, true),
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ops := make([]*batch.BatchOperationItem, 0, len(req.BookingIDs))
	for _, id := range req.BookingIDs {
		p := *params
		ops = append(ops, batch.NewOperationItem(id, &p))
	}

	return s.run(ctx, submittedBy,
		fmt.Sprintf("Bulk Cancellation: %d bookings", len(req.BookingIDs)),
		fmt.Sprintf("Cancel bookings. Reason: %s", req.CancellationReason),
		ops, batch.Options{DryRun: dryRun, FailFast: false, EnableCompensation: true})
}

// BulkSetBookingDates assigns dates to open-dates bookings and stops at the
// first availability conflict
func (s *BatchOperationService) BulkSetBookingDates(ctx context.Context, req BulkSetDatesRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	validateAvailability := boolOr(req.ValidateAvailability, true)

	assignments, issues, err := s.validateDateAssignments(ctx, req.Assignments, validateAvailability)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, batch.NewValidationError(serviceValidationSummary, issues)
	}

	ops := make([]*batch.BatchOperationItem, 0, len(assignments))
	for _, a := range assignments {
		ops = append(ops, batch.NewOperationItem(a.bookingID, &batch.SetDatesParams{
			Range:                a.dates,
			AccommodationID:      a.accommodationID,
			ValidateAvailability: validateAvailability,
		}))
	}

	return s.run(ctx, submittedBy,
		fmt.Sprintf("Bulk Date Assignment: %d bookings", len(assignments)),
		"Assign dates to open-date bookings",
		ops, batch.Options{DryRun: dryRun, FailFast: true, EnableCompensation: true})
}

// BulkUpdateAccommodationStatus changes the status of accommodations
func (s *BatchOperationService) BulkUpdateAccommodationStatus(ctx context.Context, req BulkAccommodationStatusRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	params, err := accommodationParams(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.accommodations.ExistingIDs(ctx, req.AccommodationIDs)
	if err != nil {
		return nil, err
	}
	var issues []batch.ValidationIssue
	for _, id := range missingIDs(req.AccommodationIDs, existing) {
		issues = append(issues, issue(id, batch.CodeAccommodationAbsent, fmt.Sprintf("Accommodation %d not found", id)))
	}
	if len(issues) > 0 {
		return nil, batch.NewValidationError(serviceValidationSummary, issues)
	}

	ops := make([]*batch.BatchOperationItem, 0, len(req.AccommodationIDs))
	for _, id := range req.AccommodationIDs {
		p := *params
		ops = append(ops, batch.NewOperationItem(id, &p))
	}

	return s.run(ctx, submittedBy,
		fmt.Sprintf("Bulk Accommodation Status Update: %d accommodations", len(req.AccommodationIDs)),
		fmt.Sprintf("Update accommodation status to %s. Reason: %s", params.NewStatus, req.Reason),
		ops, batch.Options{DryRun: dryRun, FailFast: false, EnableCompensation: true})
}

// BulkConfirmBookings confirms pending bookings, optionally only fully paid ones
func (s *BatchOperationService) BulkConfirmBookings(ctx context.Context, req BulkConfirmRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	var issues []batch.ValidationIssue
	for _, id := range req.BookingIDs {
		b, err := s.bookings.FindByID(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			issues = append(issues, issue(id, batch.CodeBookingNotFound, fmt.Sprintf("Booking %d not found", id)))
			continue
		}
		if err != nil {
			return nil, err
		}
		if !b.IsPending() {
			issues = append(issues, issue(id, batch.CodeNotPending, fmt.Sprintf("Booking %d is not in PENDING status", id)))
			continue
		}
		if req.RequireFullPayment && !b.IsFullyPaid() {
			issues = append(issues, issue(id, batch.CodePaymentRequired, fmt.Sprintf("Booking %d does not have full payment", id)))
		}
	}
	if len(issues) > 0 {
		return nil, batch.NewValidationError(serviceValidationSummary, issues)
	}

	return s.BulkUpdateBookingStatus(ctx, BulkStatusUpdateRequest{
		BookingIDs:    req.BookingIDs,
		NewStatus:     booking.StatusConfirmed.String(),
		Reason:        "Bulk confirmation",
		NotifyClients: boolOr(req.SendConfirmationEmails, true),
	}, submittedBy, dryRun)
}

// BulkAssignDates assigns dates to open-dates bookings, picking an available
// accommodation for assignments that name none when auto-assignment is on.
// If any assignment cannot be placed nothing runs.
func (s *BatchOperationService) BulkAssignDates(ctx context.Context, req BulkDateAssignmentRequest, submittedBy string, dryRun bool) (*batch.BatchJobResult, error) {
	processed := make([]DateAssignment, 0, len(req.Assignments))

	// Placements made by this request, which the store does not know about yet
	var claims []accommodationClaim
	for _, a := range req.Assignments {
		if a.AccommodationID == nil {
			continue
		}
		if dates, err := parseRange(a); err == nil {
			claims = append(claims, accommodationClaim{accommodationID: *a.AccommodationID, dates: dates})
		}
	}

	for _, a := range req.Assignments {
		if a.AccommodationID == nil && req.AutoAssignAccommodations {
			dates, err := parseRange(a)
			if err != nil {
				return nil, err
			}
			id, found, err := s.findAvailableAccommodation(ctx, dates, req.PreferredAccommodationTypes, claims)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, batch.NewValidationError(serviceValidationSummary, []batch.ValidationIssue{
					issue(a.BookingID, batch.CodeNoAccommodation,
						fmt.Sprintf("No available accommodation found for booking %d on %s to %s", a.BookingID, a.CheckInDate, a.CheckOutDate)),
				})
			}
			a.AccommodationID = &id
			claims = append(claims, accommodationClaim{accommodationID: id, dates: dates})
		}
		processed = append(processed, a)
	}

	validate := boolOr(req.ValidateAccommodationAvailability, true)
	return s.BulkSetBookingDates(ctx, BulkSetDatesRequest{
		Assignments:          processed,
		ValidateAvailability: &validate,
	}, submittedBy, dryRun)
}

// ExecuteBatch runs a generic batch request
func (s *BatchOperationService) ExecuteBatch(ctx context.Context, req ExecuteBatchRequest, submittedBy string) (*batch.BatchJobResult, error) {
	batchReq, err := req.ToBatchRequest()
	if err != nil {
		return nil, err
	}
	return s.processor.Execute(ctx, batchReq, submittedBy)
}

// ValidateBatch checks a generic batch without executing it: generic
// validation first, then a dry run. Rejections are reported in the response,
// not as an error.
func (s *BatchOperationService) ValidateBatch(ctx context.Context, req ExecuteBatchRequest, submittedBy string) (*ValidateBatchResponse, error) {
	batchReq, err := req.ToBatchRequest()
	if err != nil {
		return invalidResponse(err), nil
	}
	batchReq.DryRun = true

	if err := s.processor.validateRequest(ctx, batchReq); err != nil {
		if errors.Is(err, batch.ErrProcessor) {
			return nil, err
		}
		return invalidResponse(err), nil
	}

	result, err := s.processor.Execute(ctx, batchReq, submittedBy)
	if err != nil {
		return invalidResponse(err), nil
	}

	previews := make([]DryRunPreview, len(result.OperationResults))
	for i, r := range result.OperationResults {
		previews[i] = DryRunPreview{
			OperationID:   r.OperationID,
			TargetID:      r.TargetID,
			OperationType: r.OperationType,
			Success:       r.Success,
			ErrorMessage:  r.ErrorMessage,
		}
	}
	return &ValidateBatchResponse{
		Valid:                    true,
		EstimatedExecutionTimeMs: result.TotalExecutionTimeMs,
		TotalOperations:          result.TotalOperations,
		DryRunResults:            previews,
	}, nil
}

// GetJobStatus returns the recorded transactions of jobID
func (s *BatchOperationService) GetJobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	running := s.processor.Jobs().IsRunning(jobID)

	var txs []batch.SagaTransaction
	if s.sagas != nil {
		found, err := s.sagas.FindByJobID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		txs = found
	}
	if len(txs) == 0 && !running {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Batch job %s not found", jobID))
	}
	if txs == nil {
		txs = []batch.SagaTransaction{}
	}
	return &JobStatusResponse{JobID: jobID, Running: running, Transactions: txs}, nil
}

// ListJobs pages through recorded transactions
func (s *BatchOperationService) ListJobs(ctx context.Context, filter shared.Filter) (shared.Paginated[batch.SagaTransaction], error) {
	if s.sagas == nil {
		return shared.NewPaginated([]batch.SagaTransaction{}, 0, filter.Page, filter.PageSize), nil
	}
	txs, total, err := s.sagas.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[batch.SagaTransaction]{}, err
	}
	return shared.NewPaginated(txs, total, filter.Page, filter.PageSize), nil
}

// CancelJob stops a job running in this process
func (s *BatchOperationService) CancelJob(jobID string) error {
	if err := s.processor.Jobs().Cancel(jobID); err != nil {
		return err
	}
	s.logger.Info("Batch job cancellation requested", zap.String("job_id", jobID))
	return nil
}

func (s *BatchOperationService) run(ctx context.Context, submittedBy, jobName, description string, ops []*batch.BatchOperationItem, opts batch.Options) (*batch.BatchJobResult, error) {
	opts.CompensationTimeout = s.processor.Config().CompensationTimeout
	req, err := batch.NewBatchRequest(jobName, description, ops, opts)
	if err != nil {
		return nil, err
	}
	return s.processor.Execute(ctx, req, submittedBy)
}

// ==================== Business rule checks ====================

func (s *BatchOperationService) validateStatusUpdate(ctx context.Context, ids []int64, newStatus booking.Status) ([]batch.ValidationIssue, error) {
	found, err := s.bookings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	foundIDs := make([]int64, len(found))
	for i := range found {
		foundIDs[i] = found[i].ID
	}

	var issues []batch.ValidationIssue
	for _, id := range missingIDs(ids, foundIDs) {
		issues = append(issues, issue(id, batch.CodeBookingNotFound, fmt.Sprintf("Booking %d not found", id)))
	}
	for _, b := range found {
		if !b.Status.CanTransitionTo(newStatus) {
			issues = append(issues, issue(b.ID, batch.CodeInvalidTransition,
				fmt.Sprintf("Invalid status transition for booking %d: %s -> %s", b.ID, b.Status.Name(), newStatus.Name())))
		}
	}
	return issues, nil
}

func (s *BatchOperationService) validateCancellation(ctx context.Context, ids []int64) ([]batch.ValidationIssue, error) {
	found, err := s.bookings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	foundIDs := make([]int64, len(found))
	for i := range found {
		foundIDs[i] = found[i].ID
	}

	var issues []batch.ValidationIssue
	for _, id := range missingIDs(ids, foundIDs) {
		issues = append(issues, issue(id, batch.CodeBookingNotFound, fmt.Sprintf("Booking %d not found", id)))
	}
	for _, b := range found {
		if !b.Status.CanBeCancelled() {
			issues = append(issues, issue(b.ID, batch.CodeNotCancellable,
				fmt.Sprintf("Booking %d cannot be cancelled (status: %s)", b.ID, b.Status.Name())))
		}
	}
	return issues, nil
}

type dateAssignment struct {
	bookingID       int64
	dates           booking.DateRange
	accommodationID *int64
}

func (s *BatchOperationService) validateDateAssignments(ctx context.Context, assignments []DateAssignment, validateAvailability bool) ([]dateAssignment, []batch.ValidationIssue, error) {
	ids := make([]int64, len(assignments))
	for i, a := range assignments {
		ids[i] = a.BookingID
	}
	found, err := s.bookings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[int64]*booking.Booking, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	var (
		valid  []dateAssignment
		issues []batch.ValidationIssue
	)
	for _, a := range assignments {
		b, ok := byID[a.BookingID]
		if !ok {
			issues = append(issues, issue(a.BookingID, batch.CodeBookingNotFound, fmt.Sprintf("Booking %d not found", a.BookingID)))
			continue
		}
		if !b.IsOpenDates {
			issues = append(issues, issue(a.BookingID, batch.CodeNotOpenDates, fmt.Sprintf("Booking %d is not an open-dates booking", a.BookingID)))
			continue
		}
		dates, err := parseRange(a)
		if err != nil {
			issues = append(issues, issue(a.BookingID, batch.CodeInvalidDateRange,
				fmt.Sprintf("Invalid date range for booking %d: check-in must be before check-out", a.BookingID)))
			continue
		}

		if validateAvailability {
			accommodationID := b.AccommodationID
			if a.AccommodationID != nil {
				accommodationID = *a.AccommodationID
			}
			n, err := s.bookings.CountOverlapping(ctx, accommodationID, dates, b.ID)
			if err != nil {
				return nil, nil, err
			}
			if n > 0 {
				issues = append(issues, issue(a.BookingID, batch.CodeNotAvailable,
					fmt.Sprintf("Accommodation not available for booking %d on %s to %s", a.BookingID, a.CheckInDate, a.CheckOutDate)))
				continue
			}
		}
		valid = append(valid, dateAssignment{bookingID: a.BookingID, dates: dates, accommodationID: a.AccommodationID})
	}
	return valid, issues, nil
}

// accommodationClaim is an accommodation placed for dates earlier in the same request
type accommodationClaim struct {
	accommodationID int64
	dates           booking.DateRange
}

// findAvailableAccommodation returns the first AVAILABLE accommodation, of a
// preferred type when given, with no overlapping occupancy for dates in the
// store or among claims
func (s *BatchOperationService) findAvailableAccommodation(ctx context.Context, dates booking.DateRange, preferredTypes []int64, claims []accommodationClaim) (int64, bool, error) {
	candidates, err := s.accommodations.FindAvailable(ctx, preferredTypes)
	if err != nil {
		return 0, false, err
	}
	for _, a := range candidates {
		if claimed(claims, a.ID, dates) {
			continue
		}
		n, err := s.bookings.CountOverlapping(ctx, a.ID, dates, 0)
		if err != nil {
			return 0, false, err
		}
		if n == 0 {
			return a.ID, true, nil
		}
	}
	return 0, false, nil
}

func claimed(claims []accommodationClaim, accommodationID int64, dates booking.DateRange) bool {
	for _, c := range claims {
		if c.accommodationID == accommodationID && c.dates.Overlaps(dates) {
			return true
		}
	}
	return false
}

func accommodationParams(req BulkAccommodationStatusRequest) (*batch.AccommodationStatusParams, error) {
	status, err := accommodation.ParseStatus(req.NewStatus)
	if err != nil {
		return nil, err
	}
	params := &batch.AccommodationStatusParams{
		NewStatus:        status,
		Reason:           req.Reason,
		MaintenanceNotes: req.MaintenanceNotes,
	}
	if req.NewCondition != nil && *req.NewCondition != "" {
		condition, err := accommodation.ParseCondition(*req.NewCondition)
		if err != nil {
			return nil, err
		}
		params.NewCondition = &condition
	}
	return params, nil
}

func parseRange(a DateAssignment) (booking.DateRange, error) {
	checkIn, err := booking.ParseDate(a.CheckInDate)
	if err != nil {
		return booking.DateRange{}, err
	}
	checkOut, err := booking.ParseDate(a.CheckOutDate)
	if err != nil {
		return booking.DateRange{}, err
	}
	return booking.NewDateRange(checkIn, checkOut)
}

// missingIDs returns the requested ids absent from found, in request order
func missingIDs(requested, found []int64) []int64 {
	foundSet := mapset.NewThreadUnsafeSet(found...)
	reported := mapset.NewThreadUnsafeSet[int64]()

	var missing []int64
	for _, id := range requested {
		if foundSet.Contains(id) || reported.Contains(id) {
			continue
		}
		reported.Add(id)
		missing = append(missing, id)
	}
	return missing
}

func issue(targetID int64, code, message string) batch.ValidationIssue {
	return batch.ValidationIssue{TargetID: targetID, ErrorCode: code, ErrorMessage: message}
}

func invalidResponse(err error) *ValidateBatchResponse {
	return &ValidateBatchResponse{Valid: false, Error: err.Error(), ValidationFailed: true}
}
