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

type PgxCounterpartyRepository struct {
	BaseRepository
}

// NewCounterpartyRepository creates a new repository for counterparty data.
func NewCounterpartyRepository(pool *pgxpool.Pool) portsrepo.CounterpartyRepositoryFacade {
	return &PgxCounterpartyRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.CounterpartyRepositoryFacade = (*PgxCounterpartyRepository)(nil)

const counterpartyColumns = `
	counterparty_id, tax_id, name,
	bank_code, bank_agency, bank_account, bank_account_digit, pix_key,
	keystore_file, keystore_token, client_id, client_secret,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanCounterparty(row pgx.Row) (*domain.Counterparty, error) {
	var cp domain.Counterparty
	err := row.Scan(
		&cp.CounterpartyID,
		&cp.TaxID,
		&cp.Name,
		&cp.Bank.BankCode,
		&cp.Bank.Agency,
		&cp.Bank.Account,
		&cp.Bank.AccountDigit,
		&cp.Bank.PixKey,
		&cp.Bank.KeystoreFile,
		&cp.Bank.KeystoreToken,
		&cp.Bank.ClientID,
		&cp.Bank.ClientSecret,
		&cp.CreatedAt,
		&cp.CreatedBy,
		&cp.LastUpdatedAt,
		&cp.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// FindCounterpartyByID retrieves a counterparty by its ID.
func (r *PgxCounterpartyRepository) FindCounterpartyByID(ctx context.Context, counterpartyID string) (*domain.Counterparty, error) {
	query := `SELECT ` + counterpartyColumns + ` FROM counterparties WHERE counterparty_id = $1;`
	cp, err := scanCounterparty(r.Pool.QueryRow(ctx, query, counterpartyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find counterparty %s: %w", counterpartyID, err)
	}
	return cp, nil
}

// ListCounterparties retrieves every onboarded counterparty.
func (r *PgxCounterpartyRepository) ListCounterparties(ctx context.Context) ([]domain.Counterparty, error) {
	query := `SELECT ` + counterpartyColumns + ` FROM counterparties ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query counterparties: %w", err)
	}
	defer rows.Close()

	counterparties := []domain.Counterparty{}
	for rows.Next() {
		cp, err := scanCounterparty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counterparty row: %w", err)
		}
		counterparties = append(counterparties, *cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counterparty rows: %w", err)
	}
	return counterparties, nil
}

// SaveCounterparty persists a new counterparty.
func (r *PgxCounterpartyRepository) SaveCounterparty(ctx context.Context, cp domain.Counterparty) error {
	query := `
		INSERT INTO counterparties (` + counterpartyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		cp.CounterpartyID,
		cp.TaxID,
		cp.Name,
		cp.Bank.BankCode,
		cp.Bank.Agency,
		cp.Bank.Account,
		cp.Bank.AccountDigit,
		cp.Bank.PixKey,
		cp.Bank.KeystoreFile,
		cp.Bank.KeystoreToken,
		cp.Bank.ClientID,
		cp.Bank.ClientSecret,
		cp.CreatedAt,
		cp.CreatedBy,
		cp.LastUpdatedAt,
		cp.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert counterparty %s: %w", cp.CounterpartyID, err)
	}
	return nil
}

// UpdateBankLinkage replaces the bank linkage of an existing counterparty.
func (r *PgxCounterpartyRepository) UpdateBankLinkage(ctx context.Context, counterpartyID string, bank domain.BankLinkage, updatedBy string) error {
	query := `
		UPDATE counterparties
		SET bank_code = $2, bank_agency = $3, bank_account = $4, bank_account_digit = $5,
		    pix_key = $6, keystore_file = $7, keystore_token = $8, client_id = $9, client_secret = $10,
		    last_updated_at = now(), last_updated_by = $11
		WHERE counterparty_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		counterpartyID,
		bank.BankCode,
		bank.Agency,
		bank.Account,
		bank.AccountDigit,
		bank.PixKey,
		bank.KeystoreFile,
		bank.KeystoreToken,
		bank.ClientID,
		bank.ClientSecret,
		updatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update bank linkage for %s: %w", counterpartyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
