package domain

import "time"

// CritiqueType classifies the automated action that produced the audit record.
type CritiqueType string

const (
	CritiqueChargeIssued   CritiqueType = "CHARGE_ISSUED"
	CritiquePaymentMatched CritiqueType = "PAYMENT_MATCHED"
	CritiqueWriteOffFailed CritiqueType = "WRITE_OFF_FAILED"
	CritiqueWriteOffDone   CritiqueType = "WRITE_OFF_DONE"
	CritiqueChargeRejected CritiqueType = "CHARGE_REJECTED"
	CritiqueStatementMatch CritiqueType = "STATEMENT_MATCH"
)

// Critique is an audit record logged against an instrument whenever the
// system takes an automated action. Keyed by (date, counterparty, assignor,
// type, instrument); the forwarded flag marks whether it has reached the
// downstream operational system.
type Critique struct {
	CritiqueID     string       `json:"critiqueID"` // Primary Key (UUID)
	Date           time.Time    `json:"date"`       // calendar day
	CounterpartyID string       `json:"counterpartyID"`
	AssignorID     string       `json:"assignorID"`
	Type           CritiqueType `json:"type"`
	InstrumentID   string       `json:"instrumentID"`
	Detail         string       `json:"detail"`
	Forwarded      bool         `json:"forwarded"`
	AuditFields
}
