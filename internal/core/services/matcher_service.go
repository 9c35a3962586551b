package services

import (
	"context"
	"errors"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
)

type matcherService struct {
	chargeRepo    portsrepo.ChargeRepositoryFacade
	chargeLedger  portsvc.ChargeLedgerSvcFacade
	operations    portsvc.OperationSvcFacade
	reposter      portsvc.LedgerReposter
	repostHorizon time.Duration
	clock         func() time.Time
}

// NewMatcherService creates the reconciliation service.
func NewMatcherService(
	chargeRepo portsrepo.ChargeRepositoryFacade,
	chargeLedger portsvc.ChargeLedgerSvcFacade,
	operations portsvc.OperationSvcFacade,
	reposter portsvc.LedgerReposter,
	repostHorizon time.Duration,
) portsvc.MatcherSvcFacade {
	return &matcherService{
		chargeRepo:    chargeRepo,
		chargeLedger:  chargeLedger,
		operations:    operations,
		reposter:      reposter,
		repostHorizon: repostHorizon,
		clock:         time.Now,
	}
}

var _ portsvc.MatcherSvcFacade = (*matcherService)(nil)

// IngestGatewayCharge reconciles one charge-status document: resolves the
// local charge by txid (falling back to location, amount and key), stores the
// gateway references, records new payment events and reposts recent events to
// the operational ledger. Unknown charges are skipped; the gateway also lists
// charges issued outside this system.
func (s *matcherService) IngestGatewayCharge(ctx context.Context, counterparty domain.Counterparty, doc dto.ChargeDocument) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	charge, err := s.resolveCharge(ctx, doc)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Debug("Gateway charge has no local counterpart, skipping", "txid", doc.TxID)
			return nil
		}
		return err
	}

	if doc.Location != "" && (charge.Location != doc.Location || charge.Revision != doc.Revision) {
		var createdAt *time.Time
		if !doc.CreatedAt.IsZero() {
			createdAt = &doc.CreatedAt
		}
		if err := s.chargeLedger.RecordGatewayRefs(ctx, charge.ChargeID, doc.Location, doc.Revision, createdAt, doc.CopyPaste); err != nil {
			return err
		}
	}

	for _, event := range doc.Events {
		payment := domain.PaymentEvent{
			ChargeID:   charge.ChargeID,
			EndToEndID: event.EndToEndID,
			Amount:     event.Amount,
			PaidAt:     event.Timestamp,
		}
		if _, _, err := s.chargeLedger.RecordPaymentEvent(ctx, charge, payment); err != nil {
			return err
		}
	}

	if err := s.repostRecentEvents(ctx, counterparty, *charge); err != nil {
		return err
	}
	return s.advancePaidOperation(ctx, *charge)
}

// resolveCharge looks up the local charge by txid, then by the secondary
// evidence the gateway echoes.
func (s *matcherService) resolveCharge(ctx context.Context, doc dto.ChargeDocument) (*domain.Charge, error) {
	charge, err := s.chargeRepo.FindChargeByTxID(ctx, doc.TxID)
	if err == nil {
		return charge, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if doc.Location == "" {
		return nil, apperrors.ErrNotFound
	}
	return s.chargeRepo.FindChargeByEvidence(ctx, doc.Location, doc.Amount, doc.PixKey)
}

// repostRecentEvents pushes unreposted events inside the repost horizon to
// the operational ledger. Delivery is at-least-once: the reposted flag is set
// only after a successful call, and the ledger deduplicates on end-to-end id.
func (s *matcherService) repostRecentEvents(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	events, err := s.chargeRepo.ListPaymentEvents(ctx, charge.ChargeID)
	if err != nil {
		return err
	}
	now := s.clock()
	for _, event := range events {
		if event.Reposted || now.Sub(event.PaidAt) > s.repostHorizon {
			continue
		}
		if err := s.reposter.RepostPayment(ctx, counterparty, charge, event); err != nil {
			return err
		}
		if err := s.chargeRepo.MarkEventReposted(ctx, event.EventID, systemActor, now); err != nil {
			return err
		}
		logger.Info("Payment reposted to ledger", "eventID", event.EventID, "endToEndID", event.EndToEndID)
	}
	return nil
}

// advancePaidOperation moves the linked operation to Paid once the charge is
// settled. The charge state is re-read because RecordPaymentEvent may have
// latched the flag during this ingestion.
func (s *matcherService) advancePaidOperation(ctx context.Context, charge domain.Charge) error {
	if charge.OperationID == nil {
		return nil
	}
	current, err := s.chargeRepo.FindChargeByID(ctx, charge.ChargeID)
	if err != nil {
		return err
	}
	if !current.Paid {
		return nil
	}
	return s.operations.MarkPaid(ctx, *charge.OperationID)
}

// IngestPaymentNotification reconciles one payment-received document. Only
// notifications carrying a txid can be tied to a charge; loose transfers are
// left for statement reconciliation.
func (s *matcherService) IngestPaymentNotification(ctx context.Context, counterparty domain.Counterparty, notification dto.PaymentNotification) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if notification.TxID == "" {
		return nil
	}
	charge, err := s.chargeRepo.FindChargeByTxID(ctx, notification.TxID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Debug("Payment notification has no local charge, skipping", "txid", notification.TxID)
			return nil
		}
		return err
	}

	payment := domain.PaymentEvent{
		ChargeID:   charge.ChargeID,
		EndToEndID: notification.EndToEndID,
		Amount:     notification.Amount,
		PaidAt:     notification.Timestamp,
	}
	if _, _, err := s.chargeLedger.RecordPaymentEvent(ctx, charge, payment); err != nil {
		return err
	}
	if err := s.repostRecentEvents(ctx, counterparty, *charge); err != nil {
		return err
	}
	return s.advancePaidOperation(ctx, *charge)
}

// IngestStatementLine reconciles one bank-statement posting. Only credits are
// considered. A candidate charge must be unpaid, issued on or before the
// posting date and match the amount exactly; with several candidates the
// oldest wins and the ambiguity is logged.
func (s *matcherService) IngestStatementLine(ctx context.Context, line domain.StatementLine) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if line.Direction != domain.StatementCredit {
		return nil
	}

	candidates, err := s.chargeRepo.ListUnpaidCharges(ctx, line.CounterpartyID, line.Date, line.Amount)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		logger.Debug("Statement credit matches no unpaid charge",
			"counterpartyID", line.CounterpartyID,
			"amount", line.Amount.StringFixed(2),
			"date", line.Date.Format("2006-01-02"))
		return nil
	}
	if len(candidates) > 1 {
		logger.Warn("Ambiguous statement match, settling the oldest charge",
			"counterpartyID", line.CounterpartyID,
			"amount", line.Amount.StringFixed(2),
			"candidates", len(candidates))
	}

	charge := candidates[0]
	if err := s.chargeLedger.MarkPaid(ctx, charge.ChargeID); err != nil {
		return err
	}
	logger.Info("Charge settled by statement",
		"chargeID", charge.ChargeID,
		"txid", charge.TxID,
		"documentID", line.DocumentID)

	return s.advancePaidOperation(ctx, charge)
}
