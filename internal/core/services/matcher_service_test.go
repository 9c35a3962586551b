package services

import (
	"context"
	"testing"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMatcherForTest() (*matcherService, *MockChargeRepository, *MockChargeLedger, *MockOperationLifecycle, *MockLedgerReposter) {
	chargeRepo := new(MockChargeRepository)
	chargeLedger := new(MockChargeLedger)
	operations := new(MockOperationLifecycle)
	reposter := new(MockLedgerReposter)

	svc := &matcherService{
		chargeRepo:    chargeRepo,
		chargeLedger:  chargeLedger,
		operations:    operations,
		reposter:      reposter,
		repostHorizon: 24 * time.Hour,
		clock:         fixedClock,
	}
	return svc, chargeRepo, chargeLedger, operations, reposter
}

func TestMatcherIngestGatewayChargeRecordsEventsAndAdvancesOperation(t *testing.T) {
	svc, chargeRepo, chargeLedger, operations, reposter := newMatcherForTest()
	ctx := context.Background()

	operationID := "op-1"
	charge := validCharge()
	charge.OperationID = &operationID
	charge.Location = "pix.example.com/qr/abc"
	charge.Revision = 1

	paidAt := fixedClock().Add(-time.Hour)
	doc := dto.ChargeDocument{
		TxID:     charge.TxID,
		Location: charge.Location,
		Revision: 1,
		Amount:   charge.Amount,
		Events: []dto.PixEvent{
			{EndToEndID: "E-1", Amount: charge.Amount, Timestamp: paidAt},
		},
	}

	recorded := domain.PaymentEvent{EventID: "ev-1", ChargeID: charge.ChargeID, EndToEndID: "E-1", Amount: charge.Amount, PaidAt: paidAt}
	paidCharge := charge
	paidCharge.Paid = true

	chargeRepo.On("FindChargeByTxID", ctx, charge.TxID).Return(&charge, nil).Once()
	chargeLedger.On("RecordPaymentEvent", ctx, &charge, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&recorded, true, nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, charge.ChargeID).
		Return([]domain.PaymentEvent{recorded}, nil).Once()
	reposter.On("RepostPayment", ctx, mock.Anything, mock.Anything, recorded).Return(nil).Once()
	chargeRepo.On("MarkEventReposted", ctx, "ev-1", systemActor, fixedClock()).Return(nil).Once()
	chargeRepo.On("FindChargeByID", ctx, charge.ChargeID).Return(&paidCharge, nil).Once()
	operations.On("MarkPaid", ctx, operationID).Return(nil).Once()

	err := svc.IngestGatewayCharge(ctx, domain.Counterparty{CounterpartyID: "cp-1"}, doc)
	require.NoError(t, err)

	chargeRepo.AssertExpectations(t)
	chargeLedger.AssertExpectations(t)
	operations.AssertExpectations(t)
	reposter.AssertExpectations(t)
}

func TestMatcherIngestGatewayChargeSkipsUnknownCharge(t *testing.T) {
	svc, chargeRepo, chargeLedger, _, _ := newMatcherForTest()
	ctx := context.Background()

	doc := dto.ChargeDocument{TxID: "unknown-txid", Location: "pix.example.com/qr/zzz", Amount: decimal.RequireFromString("10.00")}
	chargeRepo.On("FindChargeByTxID", ctx, "unknown-txid").Return(nil, apperrors.ErrNotFound).Once()
	chargeRepo.On("FindChargeByEvidence", ctx, doc.Location, doc.Amount, "").Return(nil, apperrors.ErrNotFound).Once()

	err := svc.IngestGatewayCharge(ctx, domain.Counterparty{}, doc)
	require.NoError(t, err)
	chargeLedger.AssertNotCalled(t, "RecordPaymentEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcherIngestGatewayChargeFallsBackToEvidence(t *testing.T) {
	svc, chargeRepo, chargeLedger, _, _ := newMatcherForTest()
	ctx := context.Background()

	charge := validCharge()
	doc := dto.ChargeDocument{
		TxID:     "gateway-assigned-txid",
		Location: "pix.example.com/qr/abc",
		Revision: 2,
		Amount:   charge.Amount,
		PixKey:   charge.PixKey,
	}

	chargeRepo.On("FindChargeByTxID", ctx, "gateway-assigned-txid").Return(nil, apperrors.ErrNotFound).Once()
	chargeRepo.On("FindChargeByEvidence", ctx, doc.Location, doc.Amount, doc.PixKey).Return(&charge, nil).Once()
	chargeLedger.On("RecordGatewayRefs", ctx, charge.ChargeID, doc.Location, 2, (*time.Time)(nil), "").Return(nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, charge.ChargeID).Return([]domain.PaymentEvent{}, nil).Once()
	chargeRepo.On("FindChargeByID", ctx, charge.ChargeID).Return(&charge, nil).Maybe()

	err := svc.IngestGatewayCharge(ctx, domain.Counterparty{}, doc)
	require.NoError(t, err)
	chargeLedger.AssertExpectations(t)
}

func TestMatcherRepostRespectsHorizonAndFlag(t *testing.T) {
	svc, chargeRepo, _, _, reposter := newMatcherForTest()
	ctx := context.Background()

	charge := validCharge()
	fresh := domain.PaymentEvent{EventID: "ev-fresh", EndToEndID: "E-1", Amount: charge.Amount, PaidAt: fixedClock().Add(-time.Hour)}
	stale := domain.PaymentEvent{EventID: "ev-stale", EndToEndID: "E-2", Amount: charge.Amount, PaidAt: fixedClock().Add(-48 * time.Hour)}
	done := domain.PaymentEvent{EventID: "ev-done", EndToEndID: "E-3", Amount: charge.Amount, PaidAt: fixedClock().Add(-time.Hour), Reposted: true}

	chargeRepo.On("ListPaymentEvents", ctx, charge.ChargeID).
		Return([]domain.PaymentEvent{fresh, stale, done}, nil).Once()
	reposter.On("RepostPayment", ctx, mock.Anything, charge, fresh).Return(nil).Once()
	chargeRepo.On("MarkEventReposted", ctx, "ev-fresh", systemActor, fixedClock()).Return(nil).Once()

	err := svc.repostRecentEvents(ctx, domain.Counterparty{}, charge)
	require.NoError(t, err)

	reposter.AssertNumberOfCalls(t, "RepostPayment", 1)
	chargeRepo.AssertExpectations(t)
}

func TestMatcherRepostFlagSetOnlyAfterSuccessfulCall(t *testing.T) {
	svc, chargeRepo, _, _, reposter := newMatcherForTest()
	ctx := context.Background()

	charge := validCharge()
	event := domain.PaymentEvent{EventID: "ev-1", EndToEndID: "E-1", Amount: charge.Amount, PaidAt: fixedClock().Add(-time.Hour)}

	chargeRepo.On("ListPaymentEvents", ctx, charge.ChargeID).
		Return([]domain.PaymentEvent{event}, nil).Once()
	reposter.On("RepostPayment", ctx, mock.Anything, charge, event).Return(assert.AnError).Once()

	err := svc.repostRecentEvents(ctx, domain.Counterparty{}, charge)
	require.Error(t, err)
	chargeRepo.AssertNotCalled(t, "MarkEventReposted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcherStatementLineSettlesOldestCandidate(t *testing.T) {
	svc, chargeRepo, chargeLedger, operations, _ := newMatcherForTest()
	ctx := context.Background()

	operationID := "op-1"
	older := validCharge()
	older.ChargeID = "charge-older"
	older.OperationID = &operationID
	older.IssuedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := validCharge()
	newer.ChargeID = "charge-newer"
	newer.IssuedAt = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	line := domain.StatementLine{
		CounterpartyID: "cp-1",
		Date:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.RequireFromString("250.00"),
		Direction:      domain.StatementCredit,
	}

	settled := older
	settled.Paid = true

	chargeRepo.On("ListUnpaidCharges", ctx, "cp-1", line.Date, line.Amount).
		Return([]domain.Charge{older, newer}, nil).Once()
	chargeLedger.On("MarkPaid", ctx, "charge-older").Return(nil).Once()
	chargeRepo.On("FindChargeByID", ctx, "charge-older").Return(&settled, nil).Once()
	operations.On("MarkPaid", ctx, operationID).Return(nil).Once()

	err := svc.IngestStatementLine(ctx, line)
	require.NoError(t, err)
	chargeLedger.AssertExpectations(t)
	operations.AssertExpectations(t)
}

func TestMatcherStatementLineSettlesChargeIssuedSameDay(t *testing.T) {
	svc, chargeRepo, chargeLedger, _, _ := newMatcherForTest()
	ctx := context.Background()

	// Statement lines carry a bare date. A charge issued mid-afternoon on the
	// same day must still settle against that day's line.
	charge := validCharge()
	charge.IssuedAt = time.Date(2024, 3, 2, 14, 37, 0, 0, time.UTC)

	line := domain.StatementLine{
		CounterpartyID: "cp-1",
		Date:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Amount:         charge.Amount,
		Direction:      domain.StatementCredit,
	}

	chargeRepo.On("ListUnpaidCharges", ctx, "cp-1", line.Date, line.Amount).
		Return([]domain.Charge{charge}, nil).Once()
	chargeLedger.On("MarkPaid", ctx, charge.ChargeID).Return(nil).Once()
	chargeRepo.On("FindChargeByID", ctx, charge.ChargeID).Return(&charge, nil).Once()

	err := svc.IngestStatementLine(ctx, line)
	require.NoError(t, err)
	chargeLedger.AssertExpectations(t)
}

func TestMatcherStatementLineWithoutExactMatchDoesNothing(t *testing.T) {
	svc, chargeRepo, chargeLedger, _, _ := newMatcherForTest()
	ctx := context.Background()

	// 250.01 against a 250.00 charge: the repository's exact-amount query
	// returns nothing, so nothing settles.
	line := domain.StatementLine{
		CounterpartyID: "cp-1",
		Date:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.RequireFromString("250.01"),
		Direction:      domain.StatementCredit,
	}
	chargeRepo.On("ListUnpaidCharges", ctx, "cp-1", line.Date, line.Amount).
		Return([]domain.Charge{}, nil).Once()

	err := svc.IngestStatementLine(ctx, line)
	require.NoError(t, err)
	chargeLedger.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}

func TestMatcherStatementLineIgnoresDebits(t *testing.T) {
	svc, chargeRepo, _, _, _ := newMatcherForTest()
	ctx := context.Background()

	line := domain.StatementLine{
		CounterpartyID: "cp-1",
		Date:           fixedClock(),
		Amount:         decimal.RequireFromString("87.90"),
		Direction:      domain.StatementDebit,
	}

	err := svc.IngestStatementLine(ctx, line)
	require.NoError(t, err)
	chargeRepo.AssertNotCalled(t, "ListUnpaidCharges", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcherPaymentNotificationWithoutTxIDIsSkipped(t *testing.T) {
	svc, chargeRepo, _, _, _ := newMatcherForTest()
	ctx := context.Background()

	err := svc.IngestPaymentNotification(ctx, domain.Counterparty{}, dto.PaymentNotification{EndToEndID: "E-1"})
	require.NoError(t, err)
	chargeRepo.AssertNotCalled(t, "FindChargeByTxID", mock.Anything, mock.Anything)
}
