package services

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// OperationSvcFacade drives the repurchase-operation lifecycle:
// Open -> Valued -> ChargeIssued -> Paid -> WrittenOff -> BankWrittenOff.
type OperationSvcFacade interface {
	// FindOrCreateForDay returns the single operation of
	// (counterparty, assignor, day), creating it when absent.
	FindOrCreateForDay(ctx context.Context, counterpartyID, assignorID string, day time.Time) (*domain.RepurchaseOperation, bool, error)

	// AttachInstrument links the instrument and re-sums the operation total,
	// moving Open operations to Valued.
	AttachInstrument(ctx context.Context, operationID string, instrument domain.Instrument) error

	// MarkChargeIssued records the issued charge and advances to ChargeIssued.
	MarkChargeIssued(ctx context.Context, operationID, chargeID string) error

	// MarkPaid advances the operation whose charge was settled. Monotonic.
	MarkPaid(ctx context.Context, operationID string) error

	// WriteOff settles every countable instrument of a paid operation via the
	// settlement acceptor and advances to WrittenOff once all are settled.
	// Per-instrument failures leave the instrument unmarked, record a
	// critique and are retried on the next run.
	WriteOff(ctx context.Context, operationID string) error

	// BankWriteOff performs the bank-specific confirmation for operations of
	// the current calendar day and advances to BankWrittenOff. Operations
	// older than today are skipped (stale-date guard).
	BankWriteOff(ctx context.Context, operationID string, today time.Time) error

	// GetOperation retrieves an operation with its instruments.
	GetOperation(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error)

	// ListByStatus retrieves operations in the given status.
	ListByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error)

	// ListByDay retrieves the operations of one calendar day.
	ListByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error)
}
