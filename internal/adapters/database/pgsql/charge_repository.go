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

type PgxChargeRepository struct {
	BaseRepository
}

// NewChargeRepository creates a new repository for charge and payment-event data.
func NewChargeRepository(pool *pgxpool.Pool) portsrepo.ChargeRepositoryFacade {
	return &PgxChargeRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.ChargeRepositoryFacade = (*PgxChargeRepository)(nil)

const chargeColumns = `
	charge_id, operation_id, counterparty_id, assignor_id, instruction_type,
	txid, location, revision, debtor_tax_id, debtor_name, pix_key, amount,
	issued_at, gateway_created_at, copy_paste, paid,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanCharge(row pgx.Row) (*domain.Charge, error) {
	var c domain.Charge
	err := row.Scan(
		&c.ChargeID,
		&c.OperationID,
		&c.CounterpartyID,
		&c.AssignorID,
		&c.InstructionType,
		&c.TxID,
		&c.Location,
		&c.Revision,
		&c.DebtorTaxID,
		&c.DebtorName,
		&c.PixKey,
		&c.Amount,
		&c.IssuedAt,
		&c.GatewayCreatedAt,
		&c.CopyPaste,
		&c.Paid,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindChargeByID retrieves a charge by its ID.
func (r *PgxChargeRepository) FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE charge_id = $1;`
	return r.findOne(ctx, query, chargeID)
}

// FindChargeByTxID retrieves a charge by its gateway transaction id.
func (r *PgxChargeRepository) FindChargeByTxID(ctx context.Context, txid string) (*domain.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE txid = $1;`
	return r.findOne(ctx, query, txid)
}

// FindChargeByEvidence retrieves a charge by location, amount and PIX key.
func (r *PgxChargeRepository) FindChargeByEvidence(ctx context.Context, location string, amount decimal.Decimal, pixKey string) (*domain.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE location = $1 AND amount = $2 AND pix_key = $3;`
	return r.findOne(ctx, query, location, amount, pixKey)
}

func (r *PgxChargeRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Charge, error) {
	c, err := scanCharge(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find charge: %w", err)
	}
	return c, nil
}

// ListUnpaidCharges retrieves the unpaid charges of a counterparty issued on
// or before the given date with exactly the given amount. The issue date is
// compared at calendar-day granularity: statement lines carry a bare date, and
// a charge issued at any hour must match that same day's line. Oldest first,
// then charge id, so ambiguous statement matches resolve deterministically.
func (r *PgxChargeRepository) ListUnpaidCharges(ctx context.Context, counterpartyID string, issuedOnOrBefore time.Time, amount decimal.Decimal) ([]domain.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE counterparty_id = $1
		  AND NOT paid
		  AND issued_at::date <= $2::date
		  AND amount = $3
		ORDER BY issued_at, charge_id;
	`
	rows, err := r.Pool.Query(ctx, query, counterpartyID, issuedOnOrBefore, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpaid charges: %w", err)
	}
	defer rows.Close()

	charges := []domain.Charge{}
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charge row: %w", err)
		}
		charges = append(charges, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating charge rows: %w", err)
	}
	return charges, nil
}

// FindOrCreateCharge looks up the charge by its natural key and inserts it
// when absent. On a unique-violation race the loser re-selects the winner's
// row; the constraint is never surfaced as an error.
func (r *PgxChargeRepository) FindOrCreateCharge(ctx context.Context, c domain.Charge) (*domain.Charge, bool, error) {
	selectQuery := `
		SELECT ` + chargeColumns + `
		FROM charges
		WHERE counterparty_id = $1
		  AND assignor_id = $2
		  AND instruction_type = $3
		  AND txid = $4
		  AND issued_at::date = $5::date
		  AND amount = $6
		  AND operation_id IS NOT DISTINCT FROM $7;
	`
	selArgs := []any{c.CounterpartyID, c.AssignorID, c.InstructionType, c.TxID, c.IssuedAt, c.Amount, c.OperationID}

	existing, err := scanCharge(r.Pool.QueryRow(ctx, selectQuery, selArgs...))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up charge by natural key: %w", err)
	}

	insertQuery := `
		INSERT INTO charges (` + chargeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err = r.Pool.Exec(ctx, insertQuery,
		c.ChargeID,
		c.OperationID,
		c.CounterpartyID,
		c.AssignorID,
		c.InstructionType,
		c.TxID,
		c.Location,
		c.Revision,
		c.DebtorTaxID,
		c.DebtorName,
		c.PixKey,
		c.Amount,
		c.IssuedAt,
		c.GatewayCreatedAt,
		c.CopyPaste,
		c.Paid,
		c.CreatedAt,
		c.CreatedBy,
		c.LastUpdatedAt,
		c.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			winner, selErr := scanCharge(r.Pool.QueryRow(ctx, selectQuery, selArgs...))
			if selErr != nil {
				return nil, false, fmt.Errorf("failed to re-select charge after constraint hit: %w", selErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert charge %s: %w", c.ChargeID, err)
	}
	return &c, true, nil
}

// UpdateGatewayRefs stores the references echoed by the gateway.
func (r *PgxChargeRepository) UpdateGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE charges
		SET location = $2, revision = $3, gateway_created_at = $4, copy_paste = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE charge_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, chargeID, location, revision, gatewayCreatedAt, copyPaste, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update gateway refs of charge %s: %w", chargeID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkChargePaid latches the paid flag. One-way, replay safe.
func (r *PgxChargeRepository) MarkChargePaid(ctx context.Context, chargeID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE charges
		SET paid = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE charge_id = $1 AND NOT paid;
	`
	if _, err := r.Pool.Exec(ctx, query, chargeID, updatedAt, updatedBy); err != nil {
		return fmt.Errorf("failed to mark charge %s paid: %w", chargeID, err)
	}
	return nil
}

const eventColumns = `
	event_id, charge_id, end_to_end_id, amount, paid_at, reposted,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanEvent(row pgx.Row) (*domain.PaymentEvent, error) {
	var ev domain.PaymentEvent
	err := row.Scan(
		&ev.EventID,
		&ev.ChargeID,
		&ev.EndToEndID,
		&ev.Amount,
		&ev.PaidAt,
		&ev.Reposted,
		&ev.CreatedAt,
		&ev.CreatedBy,
		&ev.LastUpdatedAt,
		&ev.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// FindOrCreatePaymentEvent is idempotent on (charge, endToEndID, amount).
func (r *PgxChargeRepository) FindOrCreatePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.PaymentEvent, bool, error) {
	selectQuery := `
		SELECT ` + eventColumns + `
		FROM payment_events
		WHERE charge_id = $1 AND end_to_end_id = $2 AND amount = $3;
	`
	existing, err := scanEvent(r.Pool.QueryRow(ctx, selectQuery, ev.ChargeID, ev.EndToEndID, ev.Amount))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up payment event: %w", err)
	}

	insertQuery := `
		INSERT INTO payment_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.Pool.Exec(ctx, insertQuery,
		ev.EventID,
		ev.ChargeID,
		ev.EndToEndID,
		ev.Amount,
		ev.PaidAt,
		ev.Reposted,
		ev.CreatedAt,
		ev.CreatedBy,
		ev.LastUpdatedAt,
		ev.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			winner, selErr := scanEvent(r.Pool.QueryRow(ctx, selectQuery, ev.ChargeID, ev.EndToEndID, ev.Amount))
			if selErr != nil {
				return nil, false, fmt.Errorf("failed to re-select payment event after constraint hit: %w", selErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert payment event %s: %w", ev.EventID, err)
	}
	return &ev, true, nil
}

// ListPaymentEvents retrieves the events recorded against a charge.
func (r *PgxChargeRepository) ListPaymentEvents(ctx context.Context, chargeID string) ([]domain.PaymentEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM payment_events WHERE charge_id = $1 ORDER BY paid_at, event_id;`
	rows, err := r.Pool.Query(ctx, query, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment events for charge %s: %w", chargeID, err)
	}
	defer rows.Close()

	events := []domain.PaymentEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment event row: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment event rows: %w", err)
	}
	return events, nil
}

// MarkEventReposted flags the event as pushed to the operational ledger.
func (r *PgxChargeRepository) MarkEventReposted(ctx context.Context, eventID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE payment_events
		SET reposted = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE event_id = $1 AND NOT reposted;
	`
	if _, err := r.Pool.Exec(ctx, query, eventID, updatedAt, updatedBy); err != nil {
		return fmt.Errorf("failed to mark payment event %s reposted: %w", eventID, err)
	}
	return nil
}
