package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// WriteOffJob settles the instruments of every paid operation. Operations
// with remaining unsettled instruments stay in Paid and are retried here on
// the next run.
type WriteOffJob struct {
	operations portsvc.OperationSvcFacade
	clock      func() time.Time
}

// NewWriteOffJob creates the job.
func NewWriteOffJob(operations portsvc.OperationSvcFacade) *WriteOffJob {
	return &WriteOffJob{operations: operations, clock: time.Now}
}

func (j *WriteOffJob) Name() string { return "write-off" }

func (j *WriteOffJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: j.clock()}

	paid, err := j.operations.ListByStatus(ctx, domain.OperationPaid)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list paid operations: %w", err)
	}

	for _, operation := range paid {
		if err := j.operations.WriteOff(ctx, operation.OperationID); err != nil {
			summary.RecordFailure(fmt.Errorf("operation %s: %w", operation.OperationID, err))
			continue
		}
		summary.RecordSuccess()
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
