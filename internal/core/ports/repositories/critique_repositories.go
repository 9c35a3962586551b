package repositories

import (
	"context"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// CritiqueRepositoryFacade defines persistence operations for critiques
type CritiqueRepositoryFacade interface {
	// FindOrCreateCritique is idempotent on the natural key
	// (date, counterparty, assignor, type, instrument).
	FindOrCreateCritique(ctx context.Context, critique domain.Critique) (*domain.Critique, bool, error)

	// ListUnforwardedCritiques retrieves critiques not yet pushed downstream.
	ListUnforwardedCritiques(ctx context.Context, limit int) ([]domain.Critique, error)

	// MarkCritiqueForwarded flags the critique as delivered downstream.
	MarkCritiqueForwarded(ctx context.Context, critiqueID string) error
}
