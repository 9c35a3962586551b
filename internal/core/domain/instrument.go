package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is a receivable title tracked per counterparty/assignor,
// identified by the external instrument id assigned at origination.
// Instruments are created when discovered eligible for repurchase, updated
// repeatedly afterwards and never deleted.
type Instrument struct {
	InstrumentID    string          `json:"instrumentID"` // Primary Key (UUID)
	ExternalID      string          `json:"externalID"`   // id in the origination system
	CounterpartyID  string          `json:"counterpartyID"`
	AssignorID      string          `json:"assignorID"`
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	RepurchaseValue decimal.Decimal `json:"repurchaseValue"`
	DueDate         time.Time       `json:"dueDate"`
	CollectionType  string          `json:"collectionType"` // collection-type code from the origination system

	// Independent condition flags. They gate eligibility checks but never
	// advance operation state by themselves.
	Abated    bool `json:"abated"`
	Settled   bool `json:"settled"`
	Overdue   bool `json:"overdue"`
	Prorogued bool `json:"prorogued"`

	// Two separate written-off flags: one for the internal operational
	// ledger, one mirroring the bank's own confirmation.
	WrittenOff     bool `json:"writtenOff"`
	BankWrittenOff bool `json:"bankWrittenOff"`

	OperationID *string `json:"operationID,omitempty"` // current repurchase batch, if any
	AuditFields
}

// CountsTowardWriteOff reports whether the instrument must be individually
// settled before its operation may be written off. Abated, prorogued and
// overdue instruments are excluded from the gate.
func (i Instrument) CountsTowardWriteOff() bool {
	return !i.Abated && !i.Prorogued && !i.Overdue
}
