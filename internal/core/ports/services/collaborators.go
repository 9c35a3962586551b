package services

import (
	"context"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// ChargeGateway is the contract against the external mutual-TLS payment
// gateway. Implementations must put an explicit timeout on every call and
// surface failures with the apperrors taxonomy so callers can tell retryable
// network errors from fatal credential or business rejections.
type ChargeGateway interface {
	// IssueCharge submits the charge body under the charge's txid. The
	// gateway echoes transaction id, location, revision and creation time.
	IssueCharge(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge) (*dto.ChargeDocument, error)

	// QueryCharge re-reads the charge state. Idempotent, never re-issues.
	QueryCharge(ctx context.Context, counterparty domain.Counterparty, txid string) (*dto.ChargeDocument, error)

	// ListCharges retrieves the charges created inside the window.
	ListCharges(ctx context.Context, counterparty domain.Counterparty, window dto.DateWindow) ([]dto.ChargeDocument, error)

	// ListPayments retrieves the payments received inside the window.
	ListPayments(ctx context.Context, counterparty domain.Counterparty, window dto.DateWindow) ([]dto.PaymentNotification, error)
}

// LedgerReposter pushes a confirmed payment into the operational ledger
// maintained by the downstream back-office software. Delivery is
// at-least-once; the end-to-end id lets the ledger deduplicate replays.
type LedgerReposter interface {
	RepostPayment(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge, event domain.PaymentEvent) error
}

// SettlementAcceptor drives settlement of a repurchased instrument at the
// counterparty's bank and its later bank-side confirmation.
type SettlementAcceptor interface {
	// AcceptSettlement accepts and settles one instrument of a paid operation.
	AcceptSettlement(ctx context.Context, counterparty domain.Counterparty, operation domain.RepurchaseOperation, instrument domain.Instrument) error

	// ConfirmBankWriteOff performs the bank-specific write-off confirmation.
	ConfirmBankWriteOff(ctx context.Context, counterparty domain.Counterparty, instrument domain.Instrument) error
}

// CritiqueForwarder pushes critique records into the downstream operational
// system. Delivery is at-least-once; the natural key lets the downstream
// deduplicate replays.
type CritiqueForwarder interface {
	ForwardCritique(ctx context.Context, critique domain.Critique) error
}

// NotificationDispatcher emits a human notice once a charge is confirmed
// payable at the gateway.
type NotificationDispatcher interface {
	NotifyChargePayable(ctx context.Context, counterparty domain.Counterparty, assignor domain.Assignor, charge domain.Charge) error
}

// StatementBatch is one statement export reduced to matcher tuples.
type StatementBatch struct {
	Object string // source object key, used for archiving
	Lines  []domain.StatementLine
}

// StatementSource lists and reduces pending bank-statement exports.
type StatementSource interface {
	// PullStatements fetches the pending exports of a counterparty.
	PullStatements(ctx context.Context, counterparty domain.Counterparty) ([]StatementBatch, error)

	// ArchiveStatement moves a processed export out of the pending prefix.
	ArchiveStatement(ctx context.Context, object string) error
}
