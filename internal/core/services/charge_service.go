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
	"github.com/cobranca-ops/fidc-backoffice/internal/utils/txid"
	"github.com/google/uuid"
)

// systemActor is recorded in audit fields for writes performed by batch jobs.
const systemActor = "system"

type chargeService struct {
	chargeRepo       portsrepo.ChargeRepositoryFacade
	counterpartyRepo portsrepo.CounterpartyReader
	assignorRepo     portsrepo.AssignorRepositoryFacade
	dispatcher       portsvc.NotificationDispatcher
	clock            func() time.Time
}

// NewChargeService creates the charge ledger service.
func NewChargeService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	counterpartyRepo portsrepo.CounterpartyReader,
	assignorRepo portsrepo.AssignorRepositoryFacade,
	dispatcher portsvc.NotificationDispatcher,
) portsvc.ChargeLedgerSvcFacade {
	return &chargeService{
		chargeRepo:       chargeRepo,
		counterpartyRepo: counterpartyRepo,
		assignorRepo:     assignorRepo,
		dispatcher:       dispatcher,
		clock:            time.Now,
	}
}

var _ portsvc.ChargeLedgerSvcFacade = (*chargeService)(nil)

// FindOrCreate registers the charge idempotently by its natural key. The
// caller provides the business fields; ids and audit fields are filled here.
func (s *chargeService) FindOrCreate(ctx context.Context, charge domain.Charge) (*domain.Charge, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(charge.TxID) != txid.KeyLength {
		return nil, false, fmt.Errorf("%w: txid must be %d characters, got %d", apperrors.ErrValidation, txid.KeyLength, len(charge.TxID))
	}
	if !charge.Amount.IsPositive() {
		return nil, false, fmt.Errorf("%w: charge amount must be positive", apperrors.ErrValidation)
	}
	if charge.CounterpartyID == "" || charge.AssignorID == "" {
		return nil, false, fmt.Errorf("%w: counterparty and assignor are required", apperrors.ErrValidation)
	}

	now := s.clock()
	if charge.ChargeID == "" {
		charge.ChargeID = uuid.NewString()
	}
	if charge.IssuedAt.IsZero() {
		charge.IssuedAt = now
	}
	charge.CreatedAt = now
	charge.CreatedBy = systemActor
	charge.LastUpdatedAt = now
	charge.LastUpdatedBy = systemActor

	stored, created, err := s.chargeRepo.FindOrCreateCharge(ctx, charge)
	if err != nil {
		return nil, false, err
	}
	if created {
		logger.Info("Charge registered", "chargeID", stored.ChargeID, "txid", stored.TxID, "amount", stored.Amount.StringFixed(2))
	}
	return stored, created, nil
}

// GetByTxID retrieves a charge with its payment events.
func (s *chargeService) GetByTxID(ctx context.Context, txID string) (*domain.Charge, error) {
	charge, err := s.chargeRepo.FindChargeByTxID(ctx, txID)
	if err != nil {
		return nil, err
	}
	events, err := s.chargeRepo.ListPaymentEvents(ctx, charge.ChargeID)
	if err != nil {
		return nil, err
	}
	charge.Events = events
	return charge, nil
}

// MarkPaid latches the paid flag on the charge and emits the payable notice.
// An already-paid charge is a replay; nothing is re-emitted.
func (s *chargeService) MarkPaid(ctx context.Context, chargeID string) error {
	charge, err := s.chargeRepo.FindChargeByID(ctx, chargeID)
	if err != nil {
		return err
	}
	if charge.Paid {
		return nil
	}
	if err := s.chargeRepo.MarkChargePaid(ctx, chargeID, systemActor, s.clock()); err != nil {
		return err
	}
	s.notifyPayable(ctx, *charge)
	return nil
}

// RecordPaymentEvent records payment evidence idempotently and settles the
// charge once the event sum equals the charge amount exactly. Partial
// payments accumulate; overpayment never marks the charge paid.
func (s *chargeService) RecordPaymentEvent(ctx context.Context, charge *domain.Charge, event domain.PaymentEvent) (*domain.PaymentEvent, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if event.EndToEndID == "" {
		return nil, false, fmt.Errorf("%w: payment event requires an end-to-end id", apperrors.ErrValidation)
	}
	if !event.Amount.IsPositive() {
		return nil, false, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	now := s.clock()
	event.ChargeID = charge.ChargeID
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.CreatedAt = now
	event.CreatedBy = systemActor
	event.LastUpdatedAt = now
	event.LastUpdatedBy = systemActor

	stored, created, err := s.chargeRepo.FindOrCreatePaymentEvent(ctx, event)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// Replayed evidence; the sum is unchanged, nothing to re-evaluate.
		return stored, false, nil
	}

	events, err := s.chargeRepo.ListPaymentEvents(ctx, charge.ChargeID)
	if err != nil {
		return stored, true, err
	}
	if !charge.IsSettledBy(events) {
		logger.Info("Charge partially paid",
			"chargeID", charge.ChargeID,
			"paid", domain.Charge{Events: events}.PaidTotal().StringFixed(2),
			"due", charge.Amount.StringFixed(2))
		return stored, true, nil
	}

	if err := s.chargeRepo.MarkChargePaid(ctx, charge.ChargeID, systemActor, now); err != nil {
		return stored, true, err
	}
	logger.Info("Charge settled", "chargeID", charge.ChargeID, "txid", charge.TxID)

	s.notifyPayable(ctx, *charge)
	return stored, true, nil
}

// notifyPayable emits the charge-payable notice. Notification failure never
// rolls back the settlement.
func (s *chargeService) notifyPayable(ctx context.Context, charge domain.Charge) {
	logger := middleware.GetLoggerFromCtx(ctx)

	counterparty, err := s.counterpartyRepo.FindCounterpartyByID(ctx, charge.CounterpartyID)
	if err != nil {
		logger.Error("Failed to load counterparty for notification", "counterpartyID", charge.CounterpartyID, "error", err)
		return
	}
	assignor, err := s.assignorRepo.FindAssignorByID(ctx, charge.AssignorID)
	if err != nil {
		logger.Error("Failed to load assignor for notification", "assignorID", charge.AssignorID, "error", err)
		return
	}
	if err := s.dispatcher.NotifyChargePayable(ctx, *counterparty, *assignor, charge); err != nil {
		logger.Error("Failed to dispatch charge-payable notice", "chargeID", charge.ChargeID, "error", err)
	}
}

// RecordGatewayRefs stores the references echoed by the gateway.
func (s *chargeService) RecordGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string) error {
	return s.chargeRepo.UpdateGatewayRefs(ctx, chargeID, location, revision, gatewayCreatedAt, copyPaste, systemActor, s.clock())
}
