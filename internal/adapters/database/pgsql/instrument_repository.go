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
)

type PgxInstrumentRepository struct {
	BaseRepository
}

// NewInstrumentRepository creates a new repository for instrument data.
func NewInstrumentRepository(pool *pgxpool.Pool) portsrepo.InstrumentRepositoryFacade {
	return &PgxInstrumentRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.InstrumentRepositoryFacade = (*PgxInstrumentRepository)(nil)

const instrumentColumns = `
	instrument_id, external_id, counterparty_id, assignor_id,
	original_amount, repurchase_value, due_date, collection_type,
	abated, settled, overdue, prorogued, written_off, bank_written_off,
	operation_id, created_at, created_by, last_updated_at, last_updated_by
`

func scanInstrument(row pgx.Row) (*domain.Instrument, error) {
	var in domain.Instrument
	err := row.Scan(
		&in.InstrumentID,
		&in.ExternalID,
		&in.CounterpartyID,
		&in.AssignorID,
		&in.OriginalAmount,
		&in.RepurchaseValue,
		&in.DueDate,
		&in.CollectionType,
		&in.Abated,
		&in.Settled,
		&in.Overdue,
		&in.Prorogued,
		&in.WrittenOff,
		&in.BankWrittenOff,
		&in.OperationID,
		&in.CreatedAt,
		&in.CreatedBy,
		&in.LastUpdatedAt,
		&in.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// FindInstrumentByID retrieves an instrument by its ID.
func (r *PgxInstrumentRepository) FindInstrumentByID(ctx context.Context, instrumentID string) (*domain.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE instrument_id = $1;`
	in, err := scanInstrument(r.Pool.QueryRow(ctx, query, instrumentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find instrument %s: %w", instrumentID, err)
	}
	return in, nil
}

// FindInstrumentByExternalID retrieves an instrument by its origination-system id.
func (r *PgxInstrumentRepository) FindInstrumentByExternalID(ctx context.Context, counterpartyID, externalID string) (*domain.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE counterparty_id = $1 AND external_id = $2;`
	in, err := scanInstrument(r.Pool.QueryRow(ctx, query, counterpartyID, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find instrument %s/%s: %w", counterpartyID, externalID, err)
	}
	return in, nil
}

// ListEligibleForRepurchase retrieves instruments due on or before the cutoff
// that are neither settled nor written off.
func (r *PgxInstrumentRepository) ListEligibleForRepurchase(ctx context.Context, counterpartyID string, cutoff time.Time) ([]domain.Instrument, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM instruments
		WHERE counterparty_id = $1
		  AND due_date <= $2
		  AND NOT settled
		  AND NOT written_off
		ORDER BY due_date, external_id;
	`
	return r.queryInstruments(ctx, query, counterpartyID, cutoff)
}

// ListInstrumentsByOperation retrieves the instruments attached to an operation.
func (r *PgxInstrumentRepository) ListInstrumentsByOperation(ctx context.Context, operationID string) ([]domain.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE operation_id = $1 ORDER BY external_id;`
	return r.queryInstruments(ctx, query, operationID)
}

func (r *PgxInstrumentRepository) queryInstruments(ctx context.Context, query string, args ...any) ([]domain.Instrument, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	instruments := []domain.Instrument{}
	for rows.Next() {
		in, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument row: %w", err)
		}
		instruments = append(instruments, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument rows: %w", err)
	}
	return instruments, nil
}

// ImportInstruments inserts each instrument or refreshes its mutable fields,
// keyed by (counterparty, external id). Instruments are never deleted. The
// batch commits in a single transaction so a partial export never lands.
func (r *PgxInstrumentRepository) ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	if len(instruments) == 0 {
		return 0, nil
	}

	upsert := `
		INSERT INTO instruments (` + instrumentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (counterparty_id, external_id) DO UPDATE
		SET original_amount = EXCLUDED.original_amount,
		    repurchase_value = EXCLUDED.repurchase_value,
		    due_date = EXCLUDED.due_date,
		    collection_type = EXCLUDED.collection_type,
		    abated = EXCLUDED.abated,
		    settled = EXCLUDED.settled,
		    overdue = EXCLUDED.overdue,
		    prorogued = EXCLUDED.prorogued,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by
		RETURNING (xmax = 0);
	`

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	created := 0
	for _, in := range instruments {
		var inserted bool
		err := tx.QueryRow(ctx, upsert,
			in.InstrumentID,
			in.ExternalID,
			in.CounterpartyID,
			in.AssignorID,
			in.OriginalAmount,
			in.RepurchaseValue,
			in.DueDate,
			in.CollectionType,
			in.Abated,
			in.Settled,
			in.Overdue,
			in.Prorogued,
			in.WrittenOff,
			in.BankWrittenOff,
			in.OperationID,
			in.CreatedAt,
			in.CreatedBy,
			in.LastUpdatedAt,
			in.LastUpdatedBy,
		).Scan(&inserted)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert instrument %s/%s: %w", in.CounterpartyID, in.ExternalID, err)
		}
		if inserted {
			created++
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return created, nil
}

// AttachToOperation links an instrument to a repurchase operation.
func (r *PgxInstrumentRepository) AttachToOperation(ctx context.Context, instrumentID, operationID string, updatedBy string) error {
	query := `
		UPDATE instruments
		SET operation_id = $2, last_updated_at = now(), last_updated_by = $3
		WHERE instrument_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, instrumentID, operationID, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to attach instrument %s to operation %s: %w", instrumentID, operationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkWrittenOff latches the internal written-off flag. The WHERE clause only
// moves false to true, so replays are no-ops.
func (r *PgxInstrumentRepository) MarkWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error {
	query := `
		UPDATE instruments
		SET written_off = TRUE, last_updated_at = now(), last_updated_by = $2
		WHERE instrument_id = $1 AND NOT written_off;
	`
	if _, err := r.Pool.Exec(ctx, query, instrumentID, updatedBy); err != nil {
		return fmt.Errorf("failed to mark instrument %s written off: %w", instrumentID, err)
	}
	return nil
}

// MarkBankWrittenOff latches the bank-confirmation written-off flag.
func (r *PgxInstrumentRepository) MarkBankWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error {
	query := `
		UPDATE instruments
		SET bank_written_off = TRUE, last_updated_at = now(), last_updated_by = $2
		WHERE instrument_id = $1 AND NOT bank_written_off;
	`
	if _, err := r.Pool.Exec(ctx, query, instrumentID, updatedBy); err != nil {
		return fmt.Errorf("failed to mark instrument %s bank written off: %w", instrumentID, err)
	}
	return nil
}
