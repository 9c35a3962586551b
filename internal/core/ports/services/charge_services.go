package services

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// ChargeLedgerSvcFacade is the persistence-backed registry of charges keyed
// by business key. All charge mutation goes through it so the invariants
// (one charge per natural key, monotonic paid flag) stay centralized.
type ChargeLedgerSvcFacade interface {
	// FindOrCreate registers the charge idempotently by its natural key.
	FindOrCreate(ctx context.Context, charge domain.Charge) (*domain.Charge, bool, error)

	// GetByTxID retrieves a charge and its payment events.
	GetByTxID(ctx context.Context, txid string) (*domain.Charge, error)

	// MarkPaid latches the paid flag and emits the payable notice on the
	// first latch. One-way, replay safe.
	MarkPaid(ctx context.Context, chargeID string) error

	// RecordPaymentEvent records payment evidence idempotently on
	// (charge, endToEndID, amount), then recomputes the event sum and marks
	// the charge paid when it equals the charge amount exactly.
	RecordPaymentEvent(ctx context.Context, charge *domain.Charge, event domain.PaymentEvent) (*domain.PaymentEvent, bool, error)

	// RecordGatewayRefs stores the references echoed by the gateway.
	RecordGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string) error
}
