package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxOperationRepository struct {
	BaseRepository
}

// NewOperationRepository creates a new repository for repurchase operations.
func NewOperationRepository(pool *pgxpool.Pool) portsrepo.OperationRepositoryFacade {
	return &PgxOperationRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.OperationRepositoryFacade = (*PgxOperationRepository)(nil)

const operationColumns = `
	operation_id, counterparty_id, assignor_id, operation_date, status,
	total_amount, paid, written_off, charge_id,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanOperation(row pgx.Row) (*domain.RepurchaseOperation, error) {
	var op domain.RepurchaseOperation
	err := row.Scan(
		&op.OperationID,
		&op.CounterpartyID,
		&op.AssignorID,
		&op.OperationDate,
		&op.Status,
		&op.TotalAmount,
		&op.Paid,
		&op.WrittenOff,
		&op.ChargeID,
		&op.CreatedAt,
		&op.CreatedBy,
		&op.LastUpdatedAt,
		&op.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// FindOperationByID retrieves an operation by its ID.
func (r *PgxOperationRepository) FindOperationByID(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error) {
	query := `SELECT ` + operationColumns + ` FROM repurchase_operations WHERE operation_id = $1;`
	op, err := scanOperation(r.Pool.QueryRow(ctx, query, operationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find operation %s: %w", operationID, err)
	}
	return op, nil
}

// ListOperationsByStatus retrieves operations in the given lifecycle status.
func (r *PgxOperationRepository) ListOperationsByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error) {
	query := `SELECT ` + operationColumns + ` FROM repurchase_operations WHERE status = $1 ORDER BY operation_date, operation_id;`
	return r.queryOperations(ctx, query, status)
}

// ListOperationsByDay retrieves the operations of one calendar day.
func (r *PgxOperationRepository) ListOperationsByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error) {
	query := `SELECT ` + operationColumns + ` FROM repurchase_operations WHERE operation_date = $1 ORDER BY operation_id;`
	return r.queryOperations(ctx, query, day)
}

func (r *PgxOperationRepository) queryOperations(ctx context.Context, query string, args ...any) ([]domain.RepurchaseOperation, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	operations := []domain.RepurchaseOperation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		operations = append(operations, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}
	return operations, nil
}

// FindOrCreateOperation looks up the operation by its natural key and inserts
// it when absent. Lookup-then-insert is not atomic, so the insert relies on
// the unique index over (counterparty_id, assignor_id, operation_date); a
// constraint violation falls back to re-select instead of erroring.
func (r *PgxOperationRepository) FindOrCreateOperation(ctx context.Context, op domain.RepurchaseOperation) (*domain.RepurchaseOperation, bool, error) {
	selectQuery := `
		SELECT ` + operationColumns + `
		FROM repurchase_operations
		WHERE counterparty_id = $1 AND assignor_id = $2 AND operation_date = $3;
	`
	existing, err := scanOperation(r.Pool.QueryRow(ctx, selectQuery, op.CounterpartyID, op.AssignorID, op.OperationDate))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up operation by natural key: %w", err)
	}

	insertQuery := `
		INSERT INTO repurchase_operations (` + operationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.Pool.Exec(ctx, insertQuery,
		op.OperationID,
		op.CounterpartyID,
		op.AssignorID,
		op.OperationDate,
		op.Status,
		op.TotalAmount,
		op.Paid,
		op.WrittenOff,
		op.ChargeID,
		op.CreatedAt,
		op.CreatedBy,
		op.LastUpdatedAt,
		op.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A racing caller inserted first; converge on its row.
			winner, selErr := scanOperation(r.Pool.QueryRow(ctx, selectQuery, op.CounterpartyID, op.AssignorID, op.OperationDate))
			if selErr != nil {
				return nil, false, fmt.Errorf("failed to re-select operation after constraint hit: %w", selErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert operation %s: %w", op.OperationID, err)
	}
	return &op, true, nil
}

// UpdateOperationStatus moves the operation to a new lifecycle status.
func (r *PgxOperationRepository) UpdateOperationStatus(ctx context.Context, operationID string, status domain.OperationStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE repurchase_operations
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, operationID, status, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update status of operation %s: %w", operationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateOperationTotal stores the recomputed instrument sum.
func (r *PgxOperationRepository) UpdateOperationTotal(ctx context.Context, operationID string, total decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE repurchase_operations
		SET total_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, operationID, total, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update total of operation %s: %w", operationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LinkCharge records the charge issued for the operation.
func (r *PgxOperationRepository) LinkCharge(ctx context.Context, operationID, chargeID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE repurchase_operations
		SET charge_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE operation_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, operationID, chargeID, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to link charge %s to operation %s: %w", chargeID, operationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkOperationPaid latches the paid flag. The WHERE clause only moves false
// to true so the latch never reverts.
func (r *PgxOperationRepository) MarkOperationPaid(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE repurchase_operations
		SET paid = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE operation_id = $1 AND NOT paid;
	`
	if _, err := r.Pool.Exec(ctx, query, operationID, updatedAt, updatedBy); err != nil {
		return fmt.Errorf("failed to mark operation %s paid: %w", operationID, err)
	}
	return nil
}

// MarkOperationWrittenOff latches the written-off flag.
func (r *PgxOperationRepository) MarkOperationWrittenOff(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE repurchase_operations
		SET written_off = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE operation_id = $1 AND NOT written_off;
	`
	if _, err := r.Pool.Exec(ctx, query, operationID, updatedAt, updatedBy); err != nil {
		return fmt.Errorf("failed to mark operation %s written off: %w", operationID, err)
	}
	return nil
}
