package repositories

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ChargeReader defines read operations for charge data
type ChargeReader interface {
	// FindChargeByID retrieves a charge by its unique identifier.
	FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error)

	// FindChargeByTxID retrieves a charge by its gateway transaction id.
	FindChargeByTxID(ctx context.Context, txid string) (*domain.Charge, error)

	// FindChargeByEvidence retrieves a charge by the secondary evidence the
	// gateway returns: location, amount and PIX key.
	FindChargeByEvidence(ctx context.Context, location string, amount decimal.Decimal, pixKey string) (*domain.Charge, error)

	// ListUnpaidCharges retrieves the unpaid charges of a counterparty issued
	// on or before the given calendar day with exactly the given amount,
	// oldest first. Issue dates compare at day granularity, so a charge issued
	// later the same day still matches that day's statement line.
	ListUnpaidCharges(ctx context.Context, counterpartyID string, issuedOnOrBefore time.Time, amount decimal.Decimal) ([]domain.Charge, error)
}

// ChargeWriter defines write operations for charge data
type ChargeWriter interface {
	// FindOrCreateCharge looks up the charge by its natural key (operation,
	// counterparty, assignor, instruction type, txid, date, amount) and
	// inserts it when absent. Insert-then-reselect on unique violation.
	// Returns the stored charge and whether a row was created.
	FindOrCreateCharge(ctx context.Context, charge domain.Charge) (*domain.Charge, bool, error)

	// UpdateGatewayRefs stores the references echoed by the gateway.
	UpdateGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string, updatedBy string, updatedAt time.Time) error

	// MarkChargePaid latches the paid flag. Never reverts true to false.
	MarkChargePaid(ctx context.Context, chargeID string, updatedBy string, updatedAt time.Time) error
}

// PaymentEventRepository defines persistence operations for payment events
type PaymentEventRepository interface {
	// FindOrCreatePaymentEvent is idempotent on (charge, endToEndID, amount).
	// Returns the stored event and whether a row was created.
	FindOrCreatePaymentEvent(ctx context.Context, event domain.PaymentEvent) (*domain.PaymentEvent, bool, error)

	// ListPaymentEvents retrieves the events recorded against a charge.
	ListPaymentEvents(ctx context.Context, chargeID string) ([]domain.PaymentEvent, error)

	// MarkEventReposted flags the event as pushed to the operational ledger.
	MarkEventReposted(ctx context.Context, eventID string, updatedBy string, updatedAt time.Time) error
}

// ChargeRepositoryFacade combines all charge-related repository interfaces
type ChargeRepositoryFacade interface {
	ChargeReader
	ChargeWriter
	PaymentEventRepository
}
