package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/google/uuid"
)

// onboardingService maintains the registry the automated pipeline reads:
// counterparties, their assignors and the instrument book.
type onboardingService struct {
	counterpartyRepo portsrepo.CounterpartyRepositoryFacade
	assignorRepo     portsrepo.AssignorRepositoryFacade
	instrumentRepo   portsrepo.InstrumentRepositoryFacade
	clock            func() time.Time
}

var _ portsvc.OnboardingSvcFacade = (*onboardingService)(nil)

// NewOnboardingService creates a new onboarding service.
func NewOnboardingService(
	counterpartyRepo portsrepo.CounterpartyRepositoryFacade,
	assignorRepo portsrepo.AssignorRepositoryFacade,
	instrumentRepo portsrepo.InstrumentRepositoryFacade,
) portsvc.OnboardingSvcFacade {
	return &onboardingService{
		counterpartyRepo: counterpartyRepo,
		assignorRepo:     assignorRepo,
		instrumentRepo:   instrumentRepo,
		clock:            time.Now,
	}
}

// CreateCounterparty onboards a fund with its bank linkage.
func (s *onboardingService) CreateCounterparty(ctx context.Context, req dto.CreateCounterpartyRequest, actor string) (*domain.Counterparty, error) {
	now := s.clock()
	counterparty := domain.Counterparty{
		CounterpartyID: uuid.NewString(),
		TaxID:          req.TaxID,
		Name:           req.Name,
		Bank:           req.Bank.ToDomain(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if err := s.counterpartyRepo.SaveCounterparty(ctx, counterparty); err != nil {
		return nil, err
	}
	return &counterparty, nil
}

// ListCounterparties retrieves every onboarded counterparty.
func (s *onboardingService) ListCounterparties(ctx context.Context) ([]domain.Counterparty, error) {
	return s.counterpartyRepo.ListCounterparties(ctx)
}

// UpdateBankLinkage replaces the bank linkage of a counterparty.
func (s *onboardingService) UpdateBankLinkage(ctx context.Context, counterpartyID string, req dto.BankLinkageRequest, actor string) error {
	return s.counterpartyRepo.UpdateBankLinkage(ctx, counterpartyID, req.ToDomain(), actor)
}

// CreateAssignor registers an originator under an existing counterparty.
func (s *onboardingService) CreateAssignor(ctx context.Context, counterpartyID string, req dto.CreateAssignorRequest, actor string) (*domain.Assignor, error) {
	if req.FeeRate.IsNegative() {
		return nil, fmt.Errorf("%w: fee rate must not be negative", apperrors.ErrValidation)
	}
	if _, err := s.counterpartyRepo.FindCounterpartyByID(ctx, counterpartyID); err != nil {
		return nil, err
	}

	now := s.clock()
	assignor := domain.Assignor{
		AssignorID:     uuid.NewString(),
		CounterpartyID: counterpartyID,
		TaxID:          req.TaxID,
		Name:           req.Name,
		NotifyEmails:   req.NotifyEmails,
		FeeRate:        req.FeeRate,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if err := s.assignorRepo.SaveAssignor(ctx, assignor); err != nil {
		return nil, err
	}
	return &assignor, nil
}

// ListAssignors retrieves the assignors under a counterparty.
func (s *onboardingService) ListAssignors(ctx context.Context, counterpartyID string) ([]domain.Assignor, error) {
	return s.assignorRepo.ListAssignorsByCounterparty(ctx, counterpartyID)
}

// ImportInstruments upserts a batch of instruments pushed by the origination
// system. Every record is validated before any row lands; the repository
// commits the batch in one transaction.
func (s *onboardingService) ImportInstruments(ctx context.Context, counterpartyID string, req dto.ImportInstrumentsRequest, actor string) (dto.ImportInstrumentsResponse, error) {
	response := dto.ImportInstrumentsResponse{Received: len(req.Instruments)}

	if _, err := s.counterpartyRepo.FindCounterpartyByID(ctx, counterpartyID); err != nil {
		return response, err
	}

	knownAssignors := map[string]bool{}
	now := s.clock()
	instruments := make([]domain.Instrument, 0, len(req.Instruments))
	for _, record := range req.Instruments {
		if !record.RepurchaseValue.IsPositive() {
			return response, fmt.Errorf("%w: instrument %s has non-positive repurchase value", apperrors.ErrValidation, record.ExternalID)
		}
		if !knownAssignors[record.AssignorID] {
			assignor, err := s.assignorRepo.FindAssignorByID(ctx, record.AssignorID)
			if err != nil {
				return response, fmt.Errorf("assignor %s: %w", record.AssignorID, err)
			}
			if assignor.CounterpartyID != counterpartyID {
				return response, fmt.Errorf("%w: assignor %s does not belong to counterparty %s", apperrors.ErrValidation, record.AssignorID, counterpartyID)
			}
			knownAssignors[record.AssignorID] = true
		}
		dueDate, err := record.ParseDueDate()
		if err != nil {
			return response, fmt.Errorf("%w: instrument %s has invalid due date", apperrors.ErrValidation, record.ExternalID)
		}

		instruments = append(instruments, domain.Instrument{
			InstrumentID:    uuid.NewString(),
			ExternalID:      record.ExternalID,
			CounterpartyID:  counterpartyID,
			AssignorID:      record.AssignorID,
			OriginalAmount:  record.OriginalAmount,
			RepurchaseValue: record.RepurchaseValue,
			DueDate:         dueDate,
			CollectionType:  record.CollectionType,
			Abated:          record.Abated,
			Settled:         record.Settled,
			Overdue:         record.Overdue,
			Prorogued:       record.Prorogued,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor,
				LastUpdatedAt: now,
				LastUpdatedBy: actor,
			},
		})
	}

	created, err := s.instrumentRepo.ImportInstruments(ctx, instruments)
	if err != nil {
		return response, err
	}
	response.Created = created
	response.Updated = response.Received - created
	return response, nil
}

// GetInstrumentByExternalID retrieves an instrument by its origination id.
func (s *onboardingService) GetInstrumentByExternalID(ctx context.Context, counterpartyID, externalID string) (*domain.Instrument, error) {
	return s.instrumentRepo.FindInstrumentByExternalID(ctx, counterpartyID, externalID)
}
