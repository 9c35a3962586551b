package jobs

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
)

// SyncGatewayJob pulls the gateway's view of charges and payments inside the
// lookback window and feeds every document through the matcher. Running it
// twice over the same window is harmless; all ingestion is idempotent.
type SyncGatewayJob struct {
	counterparties portsrepo.CounterpartyReader
	gateway        portsvc.ChargeGateway
	matcher        portsvc.MatcherSvcFacade
	lookbackDays   int
	clock          func() time.Time
}

// NewSyncGatewayJob creates the job.
func NewSyncGatewayJob(
	counterparties portsrepo.CounterpartyReader,
	gateway portsvc.ChargeGateway,
	matcher portsvc.MatcherSvcFacade,
	lookbackDays int,
) *SyncGatewayJob {
	return &SyncGatewayJob{
		counterparties: counterparties,
		gateway:        gateway,
		matcher:        matcher,
		lookbackDays:   lookbackDays,
		clock:          time.Now,
	}
}

func (j *SyncGatewayJob) Name() string { return "sync-gateway" }

func (j *SyncGatewayJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	now := j.clock()
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: now}
	window := dto.LookbackWindow(now, j.lookbackDays)

	counterparties, err := j.counterparties.ListCounterparties(ctx)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list counterparties: %w", err)
	}

	for _, counterparty := range counterparties {
		var documents []dto.ChargeDocument
		err := withRetry(ctx, "list charges "+counterparty.CounterpartyID, func() error {
			var listErr error
			documents, listErr = j.gateway.ListCharges(ctx, counterparty, window)
			return listErr
		})
		if err != nil {
			summary.RecordFailure(fmt.Errorf("list charges for %s: %w", counterparty.CounterpartyID, err))
		} else {
			for _, document := range documents {
				if err := j.matcher.IngestGatewayCharge(ctx, counterparty, document); err != nil {
					summary.RecordFailure(fmt.Errorf("charge %s: %w", document.TxID, err))
					continue
				}
				summary.RecordSuccess()
			}
		}

		var payments []dto.PaymentNotification
		err = withRetry(ctx, "list payments "+counterparty.CounterpartyID, func() error {
			var listErr error
			payments, listErr = j.gateway.ListPayments(ctx, counterparty, window)
			return listErr
		})
		if err != nil {
			summary.RecordFailure(fmt.Errorf("list payments for %s: %w", counterparty.CounterpartyID, err))
			continue
		}
		for _, payment := range payments {
			if err := j.matcher.IngestPaymentNotification(ctx, counterparty, payment); err != nil {
				summary.RecordFailure(fmt.Errorf("payment %s: %w", payment.EndToEndID, err))
				continue
			}
			summary.RecordSuccess()
		}
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}
