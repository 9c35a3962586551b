package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationStatus indicates where a repurchase operation sits in its lifecycle.
type OperationStatus string

const (
	OperationOpen           OperationStatus = "OPEN"
	OperationValued         OperationStatus = "VALUED"
	OperationChargeIssued   OperationStatus = "CHARGE_ISSUED"
	OperationPaid           OperationStatus = "PAID"
	OperationWrittenOff     OperationStatus = "WRITTEN_OFF"
	OperationBankWrittenOff OperationStatus = "BANK_WRITTEN_OFF"
)

// RepurchaseOperation is one batch repurchase of instruments by a counterparty
// for a single assignor on a single calendar day. At most one open operation
// may exist per (counterparty, assignor, day); the natural-key unique index
// enforces it.
type RepurchaseOperation struct {
	OperationID    string          `json:"operationID"` // Primary Key (UUID)
	CounterpartyID string          `json:"counterpartyID"`
	AssignorID     string          `json:"assignorID"`
	OperationDate  time.Time       `json:"operationDate"` // calendar day, truncated to midnight UTC
	Status         OperationStatus `json:"status"`
	TotalAmount    decimal.Decimal `json:"totalAmount"` // sum of instrument repurchase values

	// Paid and WrittenOff are monotonic latches: once true they never revert
	// outside explicit correction flows.
	Paid       bool `json:"paid"`
	WrittenOff bool `json:"writtenOff"`

	ChargeID    *string      `json:"chargeID,omitempty"`
	Instruments []Instrument `json:"instruments,omitempty"`
	AuditFields
}

// next reports the legal forward transitions of the lifecycle.
var nextStatus = map[OperationStatus]OperationStatus{
	OperationOpen:         OperationValued,
	OperationValued:       OperationChargeIssued,
	OperationChargeIssued: OperationPaid,
	OperationPaid:         OperationWrittenOff,
	OperationWrittenOff:   OperationBankWrittenOff,
}

// CanTransitionTo reports whether moving to target is a legal forward step.
// Re-asserting the current status is allowed so replayed jobs stay idempotent.
func (o RepurchaseOperation) CanTransitionTo(target OperationStatus) bool {
	if o.Status == target {
		return true
	}
	return nextStatus[o.Status] == target
}
