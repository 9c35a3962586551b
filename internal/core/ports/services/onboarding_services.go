package services

import (
	"context"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// OnboardingSvcFacade covers the operator-driven registry: counterparty and
// assignor onboarding plus instrument imports from the origination system.
type OnboardingSvcFacade interface {
	// CreateCounterparty onboards a fund with its bank linkage.
	CreateCounterparty(ctx context.Context, req dto.CreateCounterpartyRequest, actor string) (*domain.Counterparty, error)

	// ListCounterparties retrieves every onboarded counterparty.
	ListCounterparties(ctx context.Context) ([]domain.Counterparty, error)

	// UpdateBankLinkage replaces the bank linkage of a counterparty.
	UpdateBankLinkage(ctx context.Context, counterpartyID string, req dto.BankLinkageRequest, actor string) error

	// CreateAssignor registers an originator under a counterparty.
	CreateAssignor(ctx context.Context, counterpartyID string, req dto.CreateAssignorRequest, actor string) (*domain.Assignor, error)

	// ListAssignors retrieves the assignors under a counterparty.
	ListAssignors(ctx context.Context, counterpartyID string) ([]domain.Assignor, error)

	// ImportInstruments upserts a batch of instruments pushed by the
	// origination system. The batch lands atomically.
	ImportInstruments(ctx context.Context, counterpartyID string, req dto.ImportInstrumentsRequest, actor string) (dto.ImportInstrumentsResponse, error)

	// GetInstrumentByExternalID retrieves an instrument by its origination id.
	GetInstrumentByExternalID(ctx context.Context, counterpartyID, externalID string) (*domain.Instrument, error)
}
