package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type operationService struct {
	operationRepo    portsrepo.OperationRepositoryFacade
	instrumentRepo   portsrepo.InstrumentRepositoryFacade
	counterpartyRepo portsrepo.CounterpartyReader
	critiqueRepo     portsrepo.CritiqueRepositoryFacade
	settlement       portsvc.SettlementAcceptor
	clock            func() time.Time
}

// NewOperationService creates the repurchase-operation lifecycle service.
func NewOperationService(
	operationRepo portsrepo.OperationRepositoryFacade,
	instrumentRepo portsrepo.InstrumentRepositoryFacade,
	counterpartyRepo portsrepo.CounterpartyReader,
	critiqueRepo portsrepo.CritiqueRepositoryFacade,
	settlement portsvc.SettlementAcceptor,
) portsvc.OperationSvcFacade {
	return &operationService{
		operationRepo:    operationRepo,
		instrumentRepo:   instrumentRepo,
		counterpartyRepo: counterpartyRepo,
		critiqueRepo:     critiqueRepo,
		settlement:       settlement,
		clock:            time.Now,
	}
}

var _ portsvc.OperationSvcFacade = (*operationService)(nil)

// truncateDay normalizes a timestamp to its calendar day, midnight UTC.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FindOrCreateForDay returns the single operation of (counterparty, assignor,
// day), creating it in Open when absent.
func (s *operationService) FindOrCreateForDay(ctx context.Context, counterpartyID, assignorID string, day time.Time) (*domain.RepurchaseOperation, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if counterpartyID == "" || assignorID == "" {
		return nil, false, fmt.Errorf("%w: counterparty and assignor are required", apperrors.ErrValidation)
	}

	now := s.clock()
	operation := domain.RepurchaseOperation{
		OperationID:    uuid.NewString(),
		CounterpartyID: counterpartyID,
		AssignorID:     assignorID,
		OperationDate:  truncateDay(day),
		Status:         domain.OperationOpen,
		TotalAmount:    decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     systemActor,
			LastUpdatedAt: now,
			LastUpdatedBy: systemActor,
		},
	}

	stored, created, err := s.operationRepo.FindOrCreateOperation(ctx, operation)
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Info("Repurchase operation opened",
			"operationID", stored.OperationID,
			"counterpartyID", counterpartyID,
			"assignorID", assignorID,
			"day", stored.OperationDate.Format("2006-01-02"))
	}
	return stored, created, nil
}

// AttachInstrument links the instrument, re-sums the operation total from the
// attached set and moves Open operations to Valued. Attaching an already
// attached instrument is a no-op on the sum.
func (s *operationService) AttachInstrument(ctx context.Context, operationID string, instrument domain.Instrument) error {
	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return err
	}
	if operation.Status != domain.OperationOpen && operation.Status != domain.OperationValued {
		return fmt.Errorf("%w: operation %s is %s, instruments can no longer be attached", apperrors.ErrConflict, operationID, operation.Status)
	}

	if err := s.instrumentRepo.AttachToOperation(ctx, instrument.InstrumentID, operationID, systemActor); err != nil {
		return err
	}

	// The total is always recomputed from the attached set, never incremented,
	// so replays converge on the same value.
	attached, err := s.instrumentRepo.ListInstrumentsByOperation(ctx, operationID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, in := range attached {
		total = total.Add(in.RepurchaseValue)
	}

	now := s.clock()
	if err := s.operationRepo.UpdateOperationTotal(ctx, operationID, total, systemActor, now); err != nil {
		return err
	}
	if operation.Status == domain.OperationOpen {
		return s.operationRepo.UpdateOperationStatus(ctx, operationID, domain.OperationValued, systemActor, now)
	}
	return nil
}

// MarkChargeIssued records the issued charge and advances to ChargeIssued.
func (s *operationService) MarkChargeIssued(ctx context.Context, operationID, chargeID string) error {
	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return err
	}
	if !operation.CanTransitionTo(domain.OperationChargeIssued) {
		return fmt.Errorf("%w: operation %s is %s, cannot record an issued charge", apperrors.ErrConflict, operationID, operation.Status)
	}

	now := s.clock()
	if err := s.operationRepo.LinkCharge(ctx, operationID, chargeID, systemActor, now); err != nil {
		return err
	}
	if operation.Status == domain.OperationChargeIssued {
		return nil
	}
	return s.operationRepo.UpdateOperationStatus(ctx, operationID, domain.OperationChargeIssued, systemActor, now)
}

// MarkPaid advances the operation whose charge was settled. Replays are no-ops.
func (s *operationService) MarkPaid(ctx context.Context, operationID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return err
	}
	if operation.Paid {
		return nil
	}
	if !operation.CanTransitionTo(domain.OperationPaid) {
		return fmt.Errorf("%w: operation %s is %s, cannot be marked paid", apperrors.ErrConflict, operationID, operation.Status)
	}

	now := s.clock()
	if err := s.operationRepo.MarkOperationPaid(ctx, operationID, systemActor, now); err != nil {
		return err
	}
	if err := s.operationRepo.UpdateOperationStatus(ctx, operationID, domain.OperationPaid, systemActor, now); err != nil {
		return err
	}
	logger.Info("Operation paid", "operationID", operationID, "total", operation.TotalAmount.StringFixed(2))
	return nil
}

// WriteOff settles every countable instrument of a paid operation via the
// settlement acceptor. A per-instrument failure records a critique and leaves
// the instrument unmarked for the next run; the operation advances to
// WrittenOff only once every countable instrument is settled.
func (s *operationService) WriteOff(ctx context.Context, operationID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return err
	}
	if operation.Status == domain.OperationWrittenOff || operation.Status == domain.OperationBankWrittenOff {
		return nil
	}
	if !operation.CanTransitionTo(domain.OperationWrittenOff) {
		return fmt.Errorf("%w: operation %s is %s, cannot be written off", apperrors.ErrConflict, operationID, operation.Status)
	}

	counterparty, err := s.counterpartyRepo.FindCounterpartyByID(ctx, operation.CounterpartyID)
	if err != nil {
		return err
	}
	instruments, err := s.instrumentRepo.ListInstrumentsByOperation(ctx, operationID)
	if err != nil {
		return err
	}

	allSettled := true
	for _, instrument := range instruments {
		if !instrument.CountsTowardWriteOff() || instrument.WrittenOff {
			continue
		}
		if err := s.settlement.AcceptSettlement(ctx, *counterparty, *operation, instrument); err != nil {
			allSettled = false
			logger.Error("Instrument settlement failed",
				"operationID", operationID,
				"instrumentID", instrument.InstrumentID,
				"error", err)
			s.recordCritique(ctx, *operation, instrument, domain.CritiqueWriteOffFailed, err.Error())
			continue
		}
		if err := s.instrumentRepo.MarkWrittenOff(ctx, instrument.InstrumentID, systemActor); err != nil {
			return err
		}
		s.recordCritique(ctx, *operation, instrument, domain.CritiqueWriteOffDone, "instrument settled")
	}

	if !allSettled {
		logger.Warn("Operation write-off incomplete, will retry", "operationID", operationID)
		return nil
	}

	now := s.clock()
	if err := s.operationRepo.MarkOperationWrittenOff(ctx, operationID, systemActor, now); err != nil {
		return err
	}
	if err := s.operationRepo.UpdateOperationStatus(ctx, operationID, domain.OperationWrittenOff, systemActor, now); err != nil {
		return err
	}
	logger.Info("Operation written off", "operationID", operationID)
	return nil
}

// BankWriteOff performs the bank-side confirmation for operations of the
// current calendar day. Operations of earlier days are skipped; re-running an
// old batch must never touch the bank again.
func (s *operationService) BankWriteOff(ctx context.Context, operationID string, today time.Time) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return err
	}
	if operation.Status == domain.OperationBankWrittenOff {
		return nil
	}
	if !operation.CanTransitionTo(domain.OperationBankWrittenOff) {
		return fmt.Errorf("%w: operation %s is %s, cannot be bank written off", apperrors.ErrConflict, operationID, operation.Status)
	}
	if operation.OperationDate.Before(truncateDay(today)) {
		logger.Warn("Skipping bank write-off of stale operation",
			"operationID", operationID,
			"operationDate", operation.OperationDate.Format("2006-01-02"))
		return nil
	}

	counterparty, err := s.counterpartyRepo.FindCounterpartyByID(ctx, operation.CounterpartyID)
	if err != nil {
		return err
	}
	instruments, err := s.instrumentRepo.ListInstrumentsByOperation(ctx, operationID)
	if err != nil {
		return err
	}

	allConfirmed := true
	for _, instrument := range instruments {
		if !instrument.CountsTowardWriteOff() || instrument.BankWrittenOff {
			continue
		}
		if err := s.settlement.ConfirmBankWriteOff(ctx, *counterparty, instrument); err != nil {
			allConfirmed = false
			logger.Error("Bank write-off confirmation failed",
				"operationID", operationID,
				"instrumentID", instrument.InstrumentID,
				"error", err)
			s.recordCritique(ctx, *operation, instrument, domain.CritiqueWriteOffFailed, "bank confirmation: "+err.Error())
			continue
		}
		if err := s.instrumentRepo.MarkBankWrittenOff(ctx, instrument.InstrumentID, systemActor); err != nil {
			return err
		}
	}

	if !allConfirmed {
		logger.Warn("Operation bank write-off incomplete, will retry", "operationID", operationID)
		return nil
	}
	return s.operationRepo.UpdateOperationStatus(ctx, operationID, domain.OperationBankWrittenOff, systemActor, s.clock())
}

// GetOperation retrieves an operation with its instruments.
func (s *operationService) GetOperation(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error) {
	operation, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	instruments, err := s.instrumentRepo.ListInstrumentsByOperation(ctx, operationID)
	if err != nil {
		return nil, err
	}
	operation.Instruments = instruments
	return operation, nil
}

// ListByStatus retrieves operations in the given lifecycle status.
func (s *operationService) ListByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error) {
	return s.operationRepo.ListOperationsByStatus(ctx, status)
}

// ListByDay retrieves the operations of one calendar day.
func (s *operationService) ListByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error) {
	return s.operationRepo.ListOperationsByDay(ctx, truncateDay(day))
}

// recordCritique writes the audit record for an automated action. Critique
// failure is logged and swallowed; it never blocks the action itself.
func (s *operationService) recordCritique(ctx context.Context, operation domain.RepurchaseOperation, instrument domain.Instrument, critiqueType domain.CritiqueType, detail string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := s.clock()
	critique := domain.Critique{
		CritiqueID:     uuid.NewString(),
		Date:           truncateDay(now),
		CounterpartyID: operation.CounterpartyID,
		AssignorID:     operation.AssignorID,
		Type:           critiqueType,
		InstrumentID:   instrument.InstrumentID,
		Detail:         detail,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     systemActor,
			LastUpdatedAt: now,
			LastUpdatedBy: systemActor,
		},
	}
	if _, _, err := s.critiqueRepo.FindOrCreateCritique(ctx, critique); err != nil {
		logger.Error("Failed to record critique", "instrumentID", instrument.InstrumentID, "type", critiqueType, "error", err)
	}
}
