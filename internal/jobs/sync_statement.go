package jobs

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
)

// SyncStatementJob pulls pending bank-statement exports and reconciles every
// line through the matcher. An export is archived only when all of its lines
// went through; a partially failed export stays pending and is re-read on the
// next run, which is safe because statement matching is idempotent.
type SyncStatementJob struct {
	counterparties portsrepo.CounterpartyReader
	statements     portsvc.StatementSource
	matcher        portsvc.MatcherSvcFacade
	clock          func() time.Time
}

// NewSyncStatementJob creates the job.
func NewSyncStatementJob(
	counterparties portsrepo.CounterpartyReader,
	statements portsvc.StatementSource,
	matcher portsvc.MatcherSvcFacade,
) *SyncStatementJob {
	return &SyncStatementJob{
		counterparties: counterparties,
		statements:     statements,
		matcher:        matcher,
		clock:          time.Now,
	}
}

func (j *SyncStatementJob) Name() string { return "sync-statement" }

func (j *SyncStatementJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: j.clock()}

	counterparties, err := j.counterparties.ListCounterparties(ctx)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list counterparties: %w", err)
	}

	for _, counterparty := range counterparties {
		var batches []portsvc.StatementBatch
		err := withRetry(ctx, "pull statements "+counterparty.CounterpartyID, func() error {
			var pullErr error
			batches, pullErr = j.statements.PullStatements(ctx, counterparty)
			return pullErr
		})
		if err != nil {
			summary.RecordFailure(fmt.Errorf("pull statements for %s: %w", counterparty.CounterpartyID, err))
			continue
		}

		for _, batch := range batches {
			clean := true
			for _, line := range batch.Lines {
				if err := j.matcher.IngestStatementLine(ctx, line); err != nil {
					clean = false
					summary.RecordFailure(fmt.Errorf("statement line in %s: %w", batch.Object, err))
					continue
				}
				summary.RecordSuccess()
			}
			if !clean {
				logger.Warn("Statement export kept pending after line failures", "object", batch.Object)
				continue
			}
			if err := j.statements.ArchiveStatement(ctx, batch.Object); err != nil {
				summary.RecordFailure(fmt.Errorf("archive %s: %w", batch.Object, err))
			}
		}
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
