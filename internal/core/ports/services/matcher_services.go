package services

import (
	"context"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// MatcherSvcFacade is the reconciliation engine. Both ingestion paths share
// one post-condition: charge and operation state reflect the evidence, with
// at most one ledger repost per distinct payment event.
type MatcherSvcFacade interface {
	// IngestGatewayCharge reconciles a charge-status document from the
	// gateway: resolves the local charge, records new payment events and
	// reposts recent events to the operational ledger.
	IngestGatewayCharge(ctx context.Context, counterparty domain.Counterparty, doc dto.ChargeDocument) error

	// IngestPaymentNotification reconciles one payment-received document.
	// Notifications without a txid reference are skipped.
	IngestPaymentNotification(ctx context.Context, counterparty domain.Counterparty, notification dto.PaymentNotification) error

	// IngestStatementLine reconciles one bank-statement posting against the
	// unpaid charges of the counterparty.
	IngestStatementLine(ctx context.Context, line domain.StatementLine) error
}
