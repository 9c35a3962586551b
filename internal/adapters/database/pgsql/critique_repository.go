package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCritiqueRepository struct {
	BaseRepository
}

// NewCritiqueRepository creates a new repository for critique audit records.
func NewCritiqueRepository(pool *pgxpool.Pool) portsrepo.CritiqueRepositoryFacade {
	return &PgxCritiqueRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.CritiqueRepositoryFacade = (*PgxCritiqueRepository)(nil)

const critiqueColumns = `
	critique_id, critique_date, counterparty_id, assignor_id, critique_type,
	instrument_id, detail, forwarded,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanCritique(row pgx.Row) (*domain.Critique, error) {
	var cr domain.Critique
	err := row.Scan(
		&cr.CritiqueID,
		&cr.Date,
		&cr.CounterpartyID,
		&cr.AssignorID,
		&cr.Type,
		&cr.InstrumentID,
		&cr.Detail,
		&cr.Forwarded,
		&cr.CreatedAt,
		&cr.CreatedBy,
		&cr.LastUpdatedAt,
		&cr.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// FindOrCreateCritique is idempotent on the natural key
// (date, counterparty, assignor, type, instrument).
func (r *PgxCritiqueRepository) FindOrCreateCritique(ctx context.Context, cr domain.Critique) (*domain.Critique, bool, error) {
	selectQuery := `
		SELECT ` + critiqueColumns + `
		FROM critiques
		WHERE critique_date = $1 AND counterparty_id = $2 AND assignor_id = $3
		  AND critique_type = $4 AND instrument_id = $5;
	`
	selArgs := []any{cr.Date, cr.CounterpartyID, cr.AssignorID, cr.Type, cr.InstrumentID}

	existing, err := scanCritique(r.Pool.QueryRow(ctx, selectQuery, selArgs...))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up critique: %w", err)
	}

	insertQuery := `
		INSERT INTO critiques (` + critiqueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, insertQuery,
		cr.CritiqueID,
		cr.Date,
		cr.CounterpartyID,
		cr.AssignorID,
		cr.Type,
		cr.InstrumentID,
		cr.Detail,
		cr.Forwarded,
		cr.CreatedAt,
		cr.CreatedBy,
		cr.LastUpdatedAt,
		cr.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			winner, selErr := scanCritique(r.Pool.QueryRow(ctx, selectQuery, selArgs...))
			if selErr != nil {
				return nil, false, fmt.Errorf("failed to re-select critique after constraint hit: %w", selErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert critique %s: %w", cr.CritiqueID, err)
	}
	return &cr, true, nil
}

// ListUnforwardedCritiques retrieves critiques not yet pushed downstream.
func (r *PgxCritiqueRepository) ListUnforwardedCritiques(ctx context.Context, limit int) ([]domain.Critique, error) {
	query := `
		SELECT ` + critiqueColumns + `
		FROM critiques
		WHERE NOT forwarded
		ORDER BY critique_date, critique_id
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unforwarded critiques: %w", err)
	}
	defer rows.Close()

	critiques := []domain.Critique{}
	for rows.Next() {
		cr, err := scanCritique(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan critique row: %w", err)
		}
		critiques = append(critiques, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating critique rows: %w", err)
	}
	return critiques, nil
}

// MarkCritiqueForwarded flags the critique as delivered downstream.
func (r *PgxCritiqueRepository) MarkCritiqueForwarded(ctx context.Context, critiqueID string) error {
	query := `UPDATE critiques SET forwarded = TRUE, last_updated_at = now() WHERE critique_id = $1 AND NOT forwarded;`
	if _, err := r.Pool.Exec(ctx, query, critiqueID); err != nil {
		return fmt.Errorf("failed to mark critique %s forwarded: %w", critiqueID, err)
	}
	return nil
}
