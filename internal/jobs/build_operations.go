package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
)

// BuildOperationsJob opens the day's repurchase operations: it scans each
// counterparty for instruments due for repurchase, groups them per assignor
// and attaches them to that pair's single operation of the day.
type BuildOperationsJob struct {
	counterparties portsrepo.CounterpartyReader
	instruments    portsrepo.InstrumentRepositoryFacade
	operations     portsvc.OperationSvcFacade
	clock          func() time.Time
}

// NewBuildOperationsJob creates the job.
func NewBuildOperationsJob(
	counterparties portsrepo.CounterpartyReader,
	instruments portsrepo.InstrumentRepositoryFacade,
	operations portsvc.OperationSvcFacade,
) *BuildOperationsJob {
	return &BuildOperationsJob{
		counterparties: counterparties,
		instruments:    instruments,
		operations:     operations,
		clock:          time.Now,
	}
}

func (j *BuildOperationsJob) Name() string { return "build-operations" }

func (j *BuildOperationsJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := j.clock()
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: now}

	counterparties, err := j.counterparties.ListCounterparties(ctx)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list counterparties: %w", err)
	}

	for _, counterparty := range counterparties {
		eligible, err := j.instruments.ListEligibleForRepurchase(ctx, counterparty.CounterpartyID, now)
		if err != nil {
			summary.RecordFailure(fmt.Errorf("counterparty %s: %w", counterparty.CounterpartyID, err))
			continue
		}

		byAssignor := map[string][]domain.Instrument{}
		for _, instrument := range eligible {
			byAssignor[instrument.AssignorID] = append(byAssignor[instrument.AssignorID], instrument)
		}

		for assignorID, instruments := range byAssignor {
			operation, _, err := j.operations.FindOrCreateForDay(ctx, counterparty.CounterpartyID, assignorID, now)
			if err != nil {
				summary.RecordFailure(fmt.Errorf("operation for %s/%s: %w", counterparty.CounterpartyID, assignorID, err))
				continue
			}

			for _, instrument := range instruments {
				if instrument.OperationID != nil && *instrument.OperationID != operation.OperationID {
					logger.Warn("Instrument already attached to another operation, skipping",
						"instrumentID", instrument.InstrumentID,
						"operationID", *instrument.OperationID)
					continue
				}
				if err := j.operations.AttachInstrument(ctx, operation.OperationID, instrument); err != nil {
					summary.RecordFailure(fmt.Errorf("attach instrument %s: %w", instrument.InstrumentID, err))
					continue
				}
				summary.RecordSuccess()
			}
		}
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
