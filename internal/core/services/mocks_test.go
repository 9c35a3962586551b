package services

import (
	"context"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsrepo "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/repositories"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindChargeByTxID(ctx context.Context, txid string) (*domain.Charge, error) {
	args := m.Called(ctx, txid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindChargeByEvidence(ctx context.Context, location string, amount decimal.Decimal, pixKey string) (*domain.Charge, error) {
	args := m.Called(ctx, location, amount, pixKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) ListUnpaidCharges(ctx context.Context, counterpartyID string, issuedOnOrBefore time.Time, amount decimal.Decimal) ([]domain.Charge, error) {
	args := m.Called(ctx, counterpartyID, issuedOnOrBefore, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindOrCreateCharge(ctx context.Context, charge domain.Charge) (*domain.Charge, bool, error) {
	args := m.Called(ctx, charge)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Charge), args.Bool(1), args.Error(2)
}

func (m *MockChargeRepository) UpdateGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, chargeID, location, revision, gatewayCreatedAt, copyPaste, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockChargeRepository) MarkChargePaid(ctx context.Context, chargeID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, chargeID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockChargeRepository) FindOrCreatePaymentEvent(ctx context.Context, event domain.PaymentEvent) (*domain.PaymentEvent, bool, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PaymentEvent), args.Bool(1), args.Error(2)
}

func (m *MockChargeRepository) ListPaymentEvents(ctx context.Context, chargeID string) ([]domain.PaymentEvent, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentEvent), args.Error(1)
}

func (m *MockChargeRepository) MarkEventReposted(ctx context.Context, eventID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, eventID, updatedBy, updatedAt)
	return args.Error(0)
}

type MockCounterpartyReader struct {
	mock.Mock
}

func (m *MockCounterpartyReader) FindCounterpartyByID(ctx context.Context, counterpartyID string) (*domain.Counterparty, error) {
	args := m.Called(ctx, counterpartyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Counterparty), args.Error(1)
}

func (m *MockCounterpartyReader) ListCounterparties(ctx context.Context) ([]domain.Counterparty, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Counterparty), args.Error(1)
}

type MockCounterpartyRepository struct {
	MockCounterpartyReader
}

func (m *MockCounterpartyRepository) SaveCounterparty(ctx context.Context, counterparty domain.Counterparty) error {
	args := m.Called(ctx, counterparty)
	return args.Error(0)
}

func (m *MockCounterpartyRepository) UpdateBankLinkage(ctx context.Context, counterpartyID string, bank domain.BankLinkage, updatedBy string) error {
	args := m.Called(ctx, counterpartyID, bank, updatedBy)
	return args.Error(0)
}

type MockAssignorRepository struct {
	mock.Mock
}

func (m *MockAssignorRepository) FindAssignorByID(ctx context.Context, assignorID string) (*domain.Assignor, error) {
	args := m.Called(ctx, assignorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignor), args.Error(1)
}

func (m *MockAssignorRepository) ListAssignorsByCounterparty(ctx context.Context, counterpartyID string) ([]domain.Assignor, error) {
	args := m.Called(ctx, counterpartyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Assignor), args.Error(1)
}

func (m *MockAssignorRepository) SaveAssignor(ctx context.Context, assignor domain.Assignor) error {
	args := m.Called(ctx, assignor)
	return args.Error(0)
}

type MockInstrumentRepository struct {
	mock.Mock
}

func (m *MockInstrumentRepository) FindInstrumentByID(ctx context.Context, instrumentID string) (*domain.Instrument, error) {
	args := m.Called(ctx, instrumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) FindInstrumentByExternalID(ctx context.Context, counterpartyID, externalID string) (*domain.Instrument, error) {
	args := m.Called(ctx, counterpartyID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) ListEligibleForRepurchase(ctx context.Context, counterpartyID string, cutoff time.Time) ([]domain.Instrument, error) {
	args := m.Called(ctx, counterpartyID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) ListInstrumentsByOperation(ctx context.Context, operationID string) ([]domain.Instrument, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) ImportInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	args := m.Called(ctx, instruments)
	return args.Int(0), args.Error(1)
}

func (m *MockInstrumentRepository) AttachToOperation(ctx context.Context, instrumentID, operationID string, updatedBy string) error {
	args := m.Called(ctx, instrumentID, operationID, updatedBy)
	return args.Error(0)
}

func (m *MockInstrumentRepository) MarkWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error {
	args := m.Called(ctx, instrumentID, updatedBy)
	return args.Error(0)
}

func (m *MockInstrumentRepository) MarkBankWrittenOff(ctx context.Context, instrumentID string, updatedBy string) error {
	args := m.Called(ctx, instrumentID, updatedBy)
	return args.Error(0)
}

type MockOperationRepository struct {
	mock.Mock
}

func (m *MockOperationRepository) FindOperationByID(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepurchaseOperation), args.Error(1)
}

func (m *MockOperationRepository) ListOperationsByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepurchaseOperation), args.Error(1)
}

func (m *MockOperationRepository) ListOperationsByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepurchaseOperation), args.Error(1)
}

func (m *MockOperationRepository) FindOrCreateOperation(ctx context.Context, operation domain.RepurchaseOperation) (*domain.RepurchaseOperation, bool, error) {
	args := m.Called(ctx, operation)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.RepurchaseOperation), args.Bool(1), args.Error(2)
}

func (m *MockOperationRepository) UpdateOperationStatus(ctx context.Context, operationID string, status domain.OperationStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, operationID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockOperationRepository) UpdateOperationTotal(ctx context.Context, operationID string, total decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, operationID, total, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockOperationRepository) LinkCharge(ctx context.Context, operationID, chargeID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, operationID, chargeID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkOperationPaid(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, operationID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkOperationWrittenOff(ctx context.Context, operationID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, operationID, updatedBy, updatedAt)
	return args.Error(0)
}

type MockCritiqueRepository struct {
	mock.Mock
}

func (m *MockCritiqueRepository) FindOrCreateCritique(ctx context.Context, critique domain.Critique) (*domain.Critique, bool, error) {
	args := m.Called(ctx, critique)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Critique), args.Bool(1), args.Error(2)
}

func (m *MockCritiqueRepository) ListUnforwardedCritiques(ctx context.Context, limit int) ([]domain.Critique, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Critique), args.Error(1)
}

func (m *MockCritiqueRepository) MarkCritiqueForwarded(ctx context.Context, critiqueID string) error {
	args := m.Called(ctx, critiqueID)
	return args.Error(0)
}

type MockSettlementAcceptor struct {
	mock.Mock
}

func (m *MockSettlementAcceptor) AcceptSettlement(ctx context.Context, counterparty domain.Counterparty, operation domain.RepurchaseOperation, instrument domain.Instrument) error {
	args := m.Called(ctx, counterparty, operation, instrument)
	return args.Error(0)
}

func (m *MockSettlementAcceptor) ConfirmBankWriteOff(ctx context.Context, counterparty domain.Counterparty, instrument domain.Instrument) error {
	args := m.Called(ctx, counterparty, instrument)
	return args.Error(0)
}

type MockNotificationDispatcher struct {
	mock.Mock
}

func (m *MockNotificationDispatcher) NotifyChargePayable(ctx context.Context, counterparty domain.Counterparty, assignor domain.Assignor, charge domain.Charge) error {
	args := m.Called(ctx, counterparty, assignor, charge)
	return args.Error(0)
}

type MockLedgerReposter struct {
	mock.Mock
}

func (m *MockLedgerReposter) RepostPayment(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge, event domain.PaymentEvent) error {
	args := m.Called(ctx, counterparty, charge, event)
	return args.Error(0)
}

type MockChargeLedger struct {
	mock.Mock
}

func (m *MockChargeLedger) FindOrCreate(ctx context.Context, charge domain.Charge) (*domain.Charge, bool, error) {
	args := m.Called(ctx, charge)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Charge), args.Bool(1), args.Error(2)
}

func (m *MockChargeLedger) GetByTxID(ctx context.Context, txid string) (*domain.Charge, error) {
	args := m.Called(ctx, txid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *MockChargeLedger) MarkPaid(ctx context.Context, chargeID string) error {
	args := m.Called(ctx, chargeID)
	return args.Error(0)
}

func (m *MockChargeLedger) RecordPaymentEvent(ctx context.Context, charge *domain.Charge, event domain.PaymentEvent) (*domain.PaymentEvent, bool, error) {
	args := m.Called(ctx, charge, event)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.PaymentEvent), args.Bool(1), args.Error(2)
}

func (m *MockChargeLedger) RecordGatewayRefs(ctx context.Context, chargeID, location string, revision int, gatewayCreatedAt *time.Time, copyPaste string) error {
	args := m.Called(ctx, chargeID, location, revision, gatewayCreatedAt, copyPaste)
	return args.Error(0)
}

type MockOperationLifecycle struct {
	mock.Mock
}

func (m *MockOperationLifecycle) FindOrCreateForDay(ctx context.Context, counterpartyID, assignorID string, day time.Time) (*domain.RepurchaseOperation, bool, error) {
	args := m.Called(ctx, counterpartyID, assignorID, day)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.RepurchaseOperation), args.Bool(1), args.Error(2)
}

func (m *MockOperationLifecycle) AttachInstrument(ctx context.Context, operationID string, instrument domain.Instrument) error {
	args := m.Called(ctx, operationID, instrument)
	return args.Error(0)
}

func (m *MockOperationLifecycle) MarkChargeIssued(ctx context.Context, operationID, chargeID string) error {
	args := m.Called(ctx, operationID, chargeID)
	return args.Error(0)
}

func (m *MockOperationLifecycle) MarkPaid(ctx context.Context, operationID string) error {
	args := m.Called(ctx, operationID)
	return args.Error(0)
}

func (m *MockOperationLifecycle) WriteOff(ctx context.Context, operationID string) error {
	args := m.Called(ctx, operationID)
	return args.Error(0)
}

func (m *MockOperationLifecycle) BankWriteOff(ctx context.Context, operationID string, today time.Time) error {
	args := m.Called(ctx, operationID, today)
	return args.Error(0)
}

func (m *MockOperationLifecycle) GetOperation(ctx context.Context, operationID string) (*domain.RepurchaseOperation, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepurchaseOperation), args.Error(1)
}

func (m *MockOperationLifecycle) ListByStatus(ctx context.Context, status domain.OperationStatus) ([]domain.RepurchaseOperation, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepurchaseOperation), args.Error(1)
}

func (m *MockOperationLifecycle) ListByDay(ctx context.Context, day time.Time) ([]domain.RepurchaseOperation, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RepurchaseOperation), args.Error(1)
}

// compile checks keep the mocks honest against the real interfaces
var (
	_ portsrepo.ChargeRepositoryFacade       = (*MockChargeRepository)(nil)
	_ portsrepo.CounterpartyReader           = (*MockCounterpartyReader)(nil)
	_ portsrepo.CounterpartyRepositoryFacade = (*MockCounterpartyRepository)(nil)
	_ portsrepo.AssignorRepositoryFacade     = (*MockAssignorRepository)(nil)
	_ portsrepo.InstrumentRepositoryFacade   = (*MockInstrumentRepository)(nil)
	_ portsrepo.OperationRepositoryFacade    = (*MockOperationRepository)(nil)
	_ portsrepo.CritiqueRepositoryFacade     = (*MockCritiqueRepository)(nil)
	_ portsvc.SettlementAcceptor             = (*MockSettlementAcceptor)(nil)
	_ portsvc.NotificationDispatcher         = (*MockNotificationDispatcher)(nil)
	_ portsvc.LedgerReposter                 = (*MockLedgerReposter)(nil)
	_ portsvc.ChargeLedgerSvcFacade          = (*MockChargeLedger)(nil)
	_ portsvc.OperationSvcFacade             = (*MockOperationLifecycle)(nil)
)
