package domain

import "github.com/shopspring/decimal"

// Assignor is a receivables originator under a Counterparty. Holds the
// notification addresses and fee parameters used when charging repurchases.
type Assignor struct {
	AssignorID     string          `json:"assignorID"` // Primary Key (UUID)
	CounterpartyID string          `json:"counterpartyID"`
	TaxID          string          `json:"taxID"`
	Name           string          `json:"name"`
	NotifyEmails   []string        `json:"notifyEmails"`
	FeeRate        decimal.Decimal `json:"feeRate"` // daily fee applied to repurchase values
	AuditFields
}
