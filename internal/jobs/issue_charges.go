package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/cobranca-ops/fidc-backoffice/internal/utils/txid"
)

// repurchaseInstruction is the instruction-type code baked into repurchase
// charge txids.
const repurchaseInstruction = "R"

// IssueChargesJob issues the PIX charge of every valued operation. The txid
// is derived deterministically from the operation, so a crashed or replayed
// run re-submits the same key instead of double-billing.
type IssueChargesJob struct {
	counterparties portsrepo.CounterpartyReader
	assignors      portsrepo.AssignorRepositoryFacade
	operations     portsvc.OperationSvcFacade
	charges        portsvc.ChargeLedgerSvcFacade
	gateway        portsvc.ChargeGateway
	clock          func() time.Time
}

// NewIssueChargesJob creates the job.
func NewIssueChargesJob(
	counterparties portsrepo.CounterpartyReader,
	assignors portsrepo.AssignorRepositoryFacade,
	operations portsvc.OperationSvcFacade,
	charges portsvc.ChargeLedgerSvcFacade,
	gateway portsvc.ChargeGateway,
) *IssueChargesJob {
	return &IssueChargesJob{
		counterparties: counterparties,
		assignors:      assignors,
		operations:     operations,
		charges:        charges,
		gateway:        gateway,
		clock:          time.Now,
	}
}

func (j *IssueChargesJob) Name() string { return "issue-charges" }

func (j *IssueChargesJob) Run(ctx context.Context) (dto.JobRunSummary, error) {
	summary := dto.JobRunSummary{Job: j.Name(), StartedAt: j.clock()}

	valued, err := j.operations.ListByStatus(ctx, domain.OperationValued)
	if err != nil {
		summary.FinishedAt = j.clock()
		return summary, fmt.Errorf("failed to list valued operations: %w", err)
	}

	for _, operation := range valued {
		if err := j.issueFor(ctx, operation); err != nil {
			summary.RecordFailure(fmt.Errorf("operation %s: %w", operation.OperationID, err))
			continue
		}
		summary.RecordSuccess()
	}

	summary.FinishedAt = j.clock()
	return summary, nil
}

func (j *IssueChargesJob) issueFor(ctx context.Context, operation domain.RepurchaseOperation) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !operation.TotalAmount.IsPositive() {
		logger.Warn("Valued operation has no positive total, skipping", "operationID", operation.OperationID)
		return nil
	}

	counterparty, err := j.counterparties.FindCounterpartyByID(ctx, operation.CounterpartyID)
	if err != nil {
		return err
	}
	assignor, err := j.assignors.FindAssignorByID(ctx, operation.AssignorID)
	if err != nil {
		return err
	}

	key, err := txid.Build(txid.Request{
		Date:            operation.OperationDate,
		InstructionType: repurchaseInstruction,
		DebtorTaxID:     assignor.TaxID,
		CreditorAgency:  counterparty.Bank.Agency,
		CreditorAccount: counterparty.Bank.Account + counterparty.Bank.AccountDigit,
		CreditorTaxID:   counterparty.TaxID,
		Amount:          operation.TotalAmount,
	})
	if err != nil {
		return fmt.Errorf("deriving txid: %w", err)
	}

	operationID := operation.OperationID
	charge, _, err := j.charges.FindOrCreate(ctx, domain.Charge{
		OperationID:     &operationID,
		CounterpartyID:  operation.CounterpartyID,
		AssignorID:      operation.AssignorID,
		InstructionType: repurchaseInstruction,
		TxID:            key,
		DebtorTaxID:     assignor.TaxID,
		DebtorName:      assignor.Name,
		PixKey:          counterparty.Bank.PixKey,
		Amount:          operation.TotalAmount,
		IssuedAt:        j.clock(),
	})
	if err != nil {
		return err
	}

	// A charge that already carries gateway refs was issued by an earlier
	// run that died before advancing the operation. Re-read it instead of
	// re-submitting.
	alreadyIssued := charge.Location != ""

	var document *dto.ChargeDocument
	err = withRetry(ctx, "issue charge "+key, func() error {
		var issueErr error
		if alreadyIssued {
			document, issueErr = j.gateway.QueryCharge(ctx, *counterparty, key)
		} else {
			document, issueErr = j.gateway.IssueCharge(ctx, *counterparty, *charge)
		}
		return issueErr
	})
	if err != nil {
		var rejected *apperrors.GatewayRejectedError
		if errors.As(err, &rejected) {
			logger.Error("Gateway rejected charge",
				"operationID", operation.OperationID,
				"txid", key,
				"status", rejected.StatusCode,
				"detail", rejected.Detail)
		}
		return err
	}

	var createdAt *time.Time
	if !document.CreatedAt.IsZero() {
		createdAt = &document.CreatedAt
	}
	if err := j.charges.RecordGatewayRefs(ctx, charge.ChargeID, document.Location, document.Revision, createdAt, document.CopyPaste); err != nil {
		return err
	}
	return j.operations.MarkChargeIssued(ctx, operation.OperationID, charge.ChargeID)
}
