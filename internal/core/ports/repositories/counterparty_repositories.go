package repositories

import (
	"context"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// CounterpartyReader defines read operations for counterparty data
type CounterpartyReader interface {
	// FindCounterpartyByID retrieves a counterparty by its unique identifier.
	FindCounterpartyByID(ctx context.Context, counterpartyID string) (*domain.Counterparty, error)

	// ListCounterparties retrieves every onboarded counterparty.
	ListCounterparties(ctx context.Context) ([]domain.Counterparty, error)
}

// CounterpartyWriter defines write operations for counterparty data
type CounterpartyWriter interface {
	// SaveCounterparty persists a new counterparty.
	SaveCounterparty(ctx context.Context, counterparty domain.Counterparty) error

	// UpdateBankLinkage replaces the bank linkage of an existing counterparty.
	UpdateBankLinkage(ctx context.Context, counterpartyID string, bank domain.BankLinkage, updatedBy string) error
}

// CounterpartyRepositoryFacade combines all counterparty repository interfaces
type CounterpartyRepositoryFacade interface {
	CounterpartyReader
	CounterpartyWriter
}

// AssignorRepositoryFacade defines persistence operations for assignors
type AssignorRepositoryFacade interface {
	// FindAssignorByID retrieves an assignor by its unique identifier.
	FindAssignorByID(ctx context.Context, assignorID string) (*domain.Assignor, error)

	// ListAssignorsByCounterparty retrieves the assignors under a counterparty.
	ListAssignorsByCounterparty(ctx context.Context, counterpartyID string) ([]domain.Assignor, error)

	// SaveAssignor persists a new assignor.
	SaveAssignor(ctx context.Context, assignor domain.Assignor) error
}
