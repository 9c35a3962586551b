package repositories

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// InstrumentReader defines read operations for instrument data
type InstrumentReader interface {
	// FindInstrumentByID retrieves an instrument by its unique identifier.
	FindInstrumentByID(ctx context.Context, instrumentID string) (*domain.Instrument, error)

	// FindInstrumentByExternalID retrieves an instrument by its origination-system id.
	FindInstrumentByExternalID(ctx context.Context, counterpartyID, externalID string) (*domain.Instrument, error)

	// ListEligibleForRepurchase retrieves instruments due on or before the cutoff
	// that are not settled and not yet written off.
	ListEligibleForRepurchase(ctx context.Context, counterpartyID string, cutoff time.Time) ([]domain.Instrument, error)

	// ListInstrumentsByOperation retrieves the instruments attached to an operation.
	ListInstrumentsByOperation(ctx context.Context, operationID string) ([]domain.Instrument, error)
}

// InstrumentWriter defines write operations for instrument data
type InstrumentWriter interface {
	// ImportInstruments inserts each instrument or refreshes its mutable
	// fields, keyed by (counterparty, external id). The whole batch commits in
	// one transaction. Returns how many rows were created.
	ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error)

	// AttachToOperation links an instrument to a repurchase operation.
	AttachToOperation(ctx context.Context, instrumentID, operationID string, updatedBy string) error

	// MarkWrittenOff latches the internal written-off flag.
	MarkWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error

	// MarkBankWrittenOff latches the bank-confirmation written-off flag.
	MarkBankWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error
}

// InstrumentRepositoryFacade combines all instrument repository interfaces
type InstrumentRepositoryFacade interface {
	InstrumentReader
	InstrumentWriter
}
