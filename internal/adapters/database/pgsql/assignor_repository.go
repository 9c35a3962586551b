package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAssignorRepository struct {
	BaseRepository
}

// NewAssignorRepository creates a new repository for assignor data.
func NewAssignorRepository(pool *pgxpool.Pool) portsrepo.AssignorRepositoryFacade {
	return &PgxAssignorRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.AssignorRepositoryFacade = (*PgxAssignorRepository)(nil)

const assignorColumns = `
	assignor_id, counterparty_id, tax_id, name, notify_emails, fee_rate,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanAssignor(row pgx.Row) (*domain.Assignor, error) {
	var a domain.Assignor
	err := row.Scan(
		&a.AssignorID,
		&a.CounterpartyID,
		&a.TaxID,
		&a.Name,
		&a.NotifyEmails,
		&a.FeeRate,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAssignorByID retrieves an assignor by its ID.
func (r *PgxAssignorRepository) FindAssignorByID(ctx context.Context, assignorID string) (*domain.Assignor, error) {
	query := `SELECT ` + assignorColumns + ` FROM assignors WHERE assignor_id = $1;`
	a, err := scanAssignor(r.Pool.QueryRow(ctx, query, assignorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignor %s: %w", assignorID, err)
	}
	return a, nil
}

// ListAssignorsByCounterparty retrieves the assignors under a counterparty.
func (r *PgxAssignorRepository) ListAssignorsByCounterparty(ctx context.Context, counterpartyID string) ([]domain.Assignor, error) {
	query := `SELECT ` + assignorColumns + ` FROM assignors WHERE counterparty_id = $1 ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignors for %s: %w", counterpartyID, err)
	}
	defer rows.Close()

	assignors := []domain.Assignor{}
	for rows.Next() {
		a, err := scanAssignor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignor row: %w", err)
		}
		assignors = append(assignors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignor rows: %w", err)
	}
	return assignors, nil
}

// SaveAssignor persists a new assignor.
func (r *PgxAssignorRepository) SaveAssignor(ctx context.Context, a domain.Assignor) error {
	query := `
		INSERT INTO assignors (` + assignorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		a.AssignorID,
		a.CounterpartyID,
		a.TaxID,
		a.Name,
		a.NotifyEmails,
		a.FeeRate,
		a.CreatedAt,
		a.CreatedBy,
		a.LastUpdatedAt,
		a.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert assignor %s: %w", a.AssignorID, err)
	}
	return nil
}
