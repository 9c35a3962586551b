package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCritiqueRepo struct {
	pending []domain.Critique
}

func (s *stubCritiqueRepo) FindOrCreateCritique(ctx context.Context, critique domain.Critique) (*domain.Critique, bool, error) {
	return &critique, true, nil
}

func (s *stubCritiqueRepo) ListUnforwardedCritiques(ctx context.Context, limit int) ([]domain.Critique, error) {
	if len(s.pending) > limit {
		return append([]domain.Critique{}, s.pending[:limit]...), nil
	}
	return append([]domain.Critique{}, s.pending...), nil
}

func (s *stubCritiqueRepo) MarkCritiqueForwarded(ctx context.Context, critiqueID string) error {
	remaining := s.pending[:0]
	for _, critique := range s.pending {
		if critique.CritiqueID != critiqueID {
			remaining = append(remaining, critique)
		}
	}
	s.pending = remaining
	return nil
}

type stubForwarder struct {
	rejected map[string]bool
	sent     []string
}

func (s *stubForwarder) ForwardCritique(ctx context.Context, critique domain.Critique) error {
	if s.rejected[critique.CritiqueID] {
		return &apperrors.GatewayRejectedError{StatusCode: 422, Detail: "unknown instrument"}
	}
	s.sent = append(s.sent, critique.CritiqueID)
	return nil
}

func TestForwardCritiquesFlagsOnlyDeliveredRecords(t *testing.T) {
	repo := &stubCritiqueRepo{pending: []domain.Critique{
		{CritiqueID: "cr-1", Type: domain.CritiqueWriteOffDone, Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{CritiqueID: "cr-2", Type: domain.CritiqueWriteOffFailed, Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{CritiqueID: "cr-3", Type: domain.CritiqueChargeIssued, Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}}
	forwarder := &stubForwarder{rejected: map[string]bool{"cr-2": true}}

	job := NewForwardCritiquesJob(repo, forwarder)
	summary, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.ElementsMatch(t, []string{"cr-1", "cr-3"}, forwarder.sent)

	// the rejected record stays pending for the next run
	require.Len(t, repo.pending, 1)
	assert.Equal(t, "cr-2", repo.pending[0].CritiqueID)
}

func TestForwardCritiquesDrainsEmptyBacklog(t *testing.T) {
	job := NewForwardCritiquesJob(&stubCritiqueRepo{}, &stubForwarder{})
	summary, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
}
