package jobs

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

const critiqueBatchSize = 100

// ForwardCritiquesJob pushes unforwarded critique records into the downstream
// operational system. Delivery is at-least-once; a critique is only flagged
// forwarded after the downstream accepted it, so failures retry on the next
// run.
type ForwardCritiquesJob struct {
	critiques portsrepo.CritiqueRepositoryFacade
	forwarder portsvc.CritiqueForwarder
	clock     func() time.Time
}

// NewForwardCritiquesJob creates the job.
func NewForwardCritiquesJob(critiques portsrepo.CritiqueRepositoryFacade, forwarder portsvc.CritiqueForwarder) *ForwardCritiquesJob {
	return &ForwardCritiquesJob{
		critiques: critiques,
		forwarder: forwarder,
		clock:     time.Now,
	}
}

func (j *ForwardCritiquesJob) Name() string { return "forward-critiques" }

func (j *ForwardCritiquesJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: j.clock()}

	for {
		batch, err := j.critiques.ListUnforwardedCritiques(ctx, critiqueBatchSize)
		if err != nil {
			summary.FinishedAt = j.clock()
			return summary, fmt.Errorf("failed to list unforwarded critiques: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		forwarded := 0
		for _, critique := range batch {
			err := withRetry(ctx, "critique forward", func() error {
				return j.forwarder.ForwardCritique(ctx, critique)
			})
			if err != nil {
				summary.RecordFailure(fmt.Errorf("critique %s: %w", critique.CritiqueID, err))
				continue
			}
			if err := j.critiques.MarkCritiqueForwarded(ctx, critique.CritiqueID); err != nil {
				summary.RecordFailure(fmt.Errorf("mark critique %s forwarded: %w", critique.CritiqueID, err))
				continue
			}
			forwarded++
			summary.RecordSuccess()
		}

		// Failed rows stay unforwarded and would come straight back from the
		// next list call. Stop at the first pass with failures; the next run
		// picks them up.
		if forwarded < len(batch) {
			break
		}
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
