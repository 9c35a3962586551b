package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func newChargeServiceForTest() (*chargeService, *MockChargeRepository, *MockCounterpartyReader, *MockAssignorRepository, *MockNotificationDispatcher) {
	chargeRepo := new(MockChargeRepository)
	counterpartyRepo := new(MockCounterpartyReader)
	assignorRepo := new(MockAssignorRepository)
	dispatcher := new(MockNotificationDispatcher)

	svc := &chargeService{
		chargeRepo:       chargeRepo,
		counterpartyRepo: counterpartyRepo,
		assignorRepo:     assignorRepo,
		dispatcher:       dispatcher,
		clock:            fixedClock,
	}
	return svc, chargeRepo, counterpartyRepo, assignorRepo, dispatcher
}

func validCharge() domain.Charge {
	return domain.Charge{
		ChargeID:        "charge-1",
		CounterpartyID:  "cp-1",
		AssignorID:      "as-1",
		InstructionType: "R",
		TxID:            strings.Repeat("X", 35),
		Amount:          decimal.RequireFromString("100.00"),
		IssuedAt:        fixedClock(),
	}
}

func TestChargeServiceFindOrCreateValidation(t *testing.T) {
	svc, _, _, _, _ := newChargeServiceForTest()
	ctx := context.Background()

	t.Run("rejects short txid", func(t *testing.T) {
		charge := validCharge()
		charge.TxID = "too-short"
		_, _, err := svc.FindOrCreate(ctx, charge)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		charge := validCharge()
		charge.Amount = decimal.Zero
		_, _, err := svc.FindOrCreate(ctx, charge)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects missing parties", func(t *testing.T) {
		charge := validCharge()
		charge.AssignorID = ""
		_, _, err := svc.FindOrCreate(ctx, charge)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestChargeServiceFindOrCreateDelegates(t *testing.T) {
	svc, chargeRepo, _, _, _ := newChargeServiceForTest()
	ctx := context.Background()
	charge := validCharge()

	chargeRepo.On("FindOrCreateCharge", ctx, mock.AnythingOfType("domain.Charge")).Return(&charge, true, nil).Once()

	stored, created, err := svc.FindOrCreate(ctx, charge)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, charge.ChargeID, stored.ChargeID)
	chargeRepo.AssertExpectations(t)
}

func TestChargeServiceMarkPaidLatchesAndNotifies(t *testing.T) {
	svc, chargeRepo, counterpartyRepo, assignorRepo, dispatcher := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()

	chargeRepo.On("FindChargeByID", ctx, "charge-1").Return(&charge, nil).Once()
	chargeRepo.On("MarkChargePaid", ctx, "charge-1", systemActor, fixedClock()).Return(nil).Once()
	counterpartyRepo.On("FindCounterpartyByID", ctx, "cp-1").Return(&domain.Counterparty{CounterpartyID: "cp-1"}, nil).Once()
	assignorRepo.On("FindAssignorByID", ctx, "as-1").Return(&domain.Assignor{AssignorID: "as-1"}, nil).Once()
	dispatcher.On("NotifyChargePayable", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.MarkPaid(ctx, "charge-1"))
	chargeRepo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestChargeServiceMarkPaidOnPaidChargeIsReplay(t *testing.T) {
	svc, chargeRepo, _, _, dispatcher := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()
	charge.Paid = true

	chargeRepo.On("FindChargeByID", ctx, "charge-1").Return(&charge, nil).Once()

	require.NoError(t, svc.MarkPaid(ctx, "charge-1"))
	chargeRepo.AssertNotCalled(t, "MarkChargePaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	dispatcher.AssertNotCalled(t, "NotifyChargePayable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChargeServicePartialPaymentsSettleExactly(t *testing.T) {
	svc, chargeRepo, counterpartyRepo, assignorRepo, dispatcher := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()
	first := domain.PaymentEvent{EndToEndID: "E-1", Amount: decimal.RequireFromString("60.00"), PaidAt: fixedClock()}
	second := domain.PaymentEvent{EndToEndID: "E-2", Amount: decimal.RequireFromString("40.00"), PaidAt: fixedClock()}

	// First event covers 60.00 of 100.00. The charge must stay unpaid.
	chargeRepo.On("FindOrCreatePaymentEvent", ctx, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&first, true, nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, "charge-1").
		Return([]domain.PaymentEvent{first}, nil).Once()

	_, created, err := svc.RecordPaymentEvent(ctx, &charge, first)
	require.NoError(t, err)
	assert.True(t, created)
	chargeRepo.AssertNotCalled(t, "MarkChargePaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Second event completes the sum exactly. Now the charge settles and the
	// payable notice goes out.
	chargeRepo.On("FindOrCreatePaymentEvent", ctx, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&second, true, nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, "charge-1").
		Return([]domain.PaymentEvent{first, second}, nil).Once()
	chargeRepo.On("MarkChargePaid", ctx, "charge-1", systemActor, fixedClock()).Return(nil).Once()
	counterpartyRepo.On("FindCounterpartyByID", ctx, "cp-1").Return(&domain.Counterparty{CounterpartyID: "cp-1"}, nil).Once()
	assignorRepo.On("FindAssignorByID", ctx, "as-1").Return(&domain.Assignor{AssignorID: "as-1"}, nil).Once()
	dispatcher.On("NotifyChargePayable", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, created, err = svc.RecordPaymentEvent(ctx, &charge, second)
	require.NoError(t, err)
	assert.True(t, created)
	chargeRepo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestChargeServiceDuplicateEventDoesNotDoubleCount(t *testing.T) {
	svc, chargeRepo, _, _, _ := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()
	event := domain.PaymentEvent{EndToEndID: "E-1", Amount: decimal.RequireFromString("60.00"), PaidAt: fixedClock()}

	// The repository reports the event as already known. The sum is unchanged,
	// so no re-evaluation and no paid latch.
	chargeRepo.On("FindOrCreatePaymentEvent", ctx, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&event, false, nil).Once()

	stored, created, err := svc.RecordPaymentEvent(ctx, &charge, event)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "E-1", stored.EndToEndID)
	chargeRepo.AssertNotCalled(t, "ListPaymentEvents", mock.Anything, mock.Anything)
	chargeRepo.AssertNotCalled(t, "MarkChargePaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChargeServiceOverpaymentNeverSettles(t *testing.T) {
	svc, chargeRepo, _, _, _ := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()
	event := domain.PaymentEvent{EndToEndID: "E-1", Amount: decimal.RequireFromString("100.01"), PaidAt: fixedClock()}

	chargeRepo.On("FindOrCreatePaymentEvent", ctx, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&event, true, nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, "charge-1").
		Return([]domain.PaymentEvent{event}, nil).Once()

	_, _, err := svc.RecordPaymentEvent(ctx, &charge, event)
	require.NoError(t, err)
	chargeRepo.AssertNotCalled(t, "MarkChargePaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChargeServiceNotificationFailureDoesNotFailSettlement(t *testing.T) {
	svc, chargeRepo, counterpartyRepo, assignorRepo, dispatcher := newChargeServiceForTest()
	ctx := context.Background()

	charge := validCharge()
	event := domain.PaymentEvent{EndToEndID: "E-1", Amount: decimal.RequireFromString("100.00"), PaidAt: fixedClock()}

	chargeRepo.On("FindOrCreatePaymentEvent", ctx, mock.AnythingOfType("domain.PaymentEvent")).
		Return(&event, true, nil).Once()
	chargeRepo.On("ListPaymentEvents", ctx, "charge-1").
		Return([]domain.PaymentEvent{event}, nil).Once()
	chargeRepo.On("MarkChargePaid", ctx, "charge-1", systemActor, fixedClock()).Return(nil).Once()
	counterpartyRepo.On("FindCounterpartyByID", ctx, "cp-1").Return(&domain.Counterparty{}, nil).Once()
	assignorRepo.On("FindAssignorByID", ctx, "as-1").Return(&domain.Assignor{}, nil).Once()
	dispatcher.On("NotifyChargePayable", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError).Once()

	_, created, err := svc.RecordPaymentEvent(ctx, &charge, event)
	require.NoError(t, err)
	assert.True(t, created)
	chargeRepo.AssertExpectations(t)
}
