package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// BankWriteOffJob runs the bank-side write-off confirmation for operations
// written off today. The service skips operations of earlier days, so a late
// or replayed run never touches the bank for stale batches.
type BankWriteOffJob struct {
	operations portsvc.OperationSvcFacade
	clock      func() time.Time
}

// NewBankWriteOffJob creates the job.
func NewBankWriteOffJob(operations portsvc.OperationSvcFacade) *BankWriteOffJob {
	return &BankWriteOffJob{operations: operations, clock: time.Now}
}

func (j *BankWriteOffJob) Name() string { return "bank-write-off" }

func (j *BankWriteOffJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	now := j.clock()
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: now}

	writtenOff, err := j.operations.ListByStatus(ctx, domain.OperationWrittenOff)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list written-off operations: %w", err)
	}

	for _, operation := range writtenOff {
		if err := j.operations.BankWriteOff(ctx, operation.OperationID, now); err != nil {
			summary.RecordFailure(fmt.Errorf("operation %s: %w", operation.OperationID, err))
			continue
		}
		summary.RecordSuccess()
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
