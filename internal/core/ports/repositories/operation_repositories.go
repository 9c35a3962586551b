package repositories

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OperationReader defines read operations for repurchase operations
type OperationReader interface {
	// FindOperationByID retrieves an operation by its unique identifier.
	FindOperationByID(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error)

	// ListOperationsByStatus retrieves operations in a given lifecycle status.
	ListOperationsByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error)

	// ListOperationsByDay retrieves the operations of one calendar day.
	ListOperationsByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error)
}

// OperationWriter defines write operations for repurchase operations
type OperationWriter interface {
	// FindOrCreateOperation looks up the operation by its natural key
	// (counterparty, assignor, day) and inserts it when absent. The unique
	// index on the natural key makes racing callers converge on one row;
	// a constraint violation falls back to re-select. Returns the stored
	// operation and whether a row was created.
	FindOrCreateOperation(ctx context.Context, operation domain.RepurchaseOperation) (*domain.RepurchaseOperation, bool, error)

	// UpdateOperationStatus moves the operation to a new lifecycle status.
	UpdateOperationStatus(ctx context.Context, operationID string, status domain.OperationStatus, updatedBy string, updatedAt time.Time) error

	// UpdateOperationTotal stores the recomputed instrument sum.
	UpdateOperationTotal(ctx context.Context, operationID string, total decimal.Decimal, updatedBy string, updatedAt time.Time) error

	// LinkCharge records the charge issued for the operation.
	LinkCharge(ctx context.Context, operationID, chargeID string, updatedBy string, updatedAt time.Time) error

	// MarkOperationPaid latches the paid flag. Never reverts true to false.
	MarkOperationPaid(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error

	// MarkOperationWrittenOff latches the written-off flag.
	MarkOperationWrittenOff(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error
}

// OperationRepositoryFacade combines all operation repository interfaces
type OperationRepositoryFacade interface {
	OperationReader
	OperationWriter
}
