package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementDirection distinguishes credits from debits on a statement line.
type StatementDirection string

const (
	StatementCredit StatementDirection = "CREDIT"
	StatementDebit  StatementDirection = "DEBIT"
)

// StatementLine is one bank-statement posting reduced to the tuple the
// matcher cares about, regardless of whether it came from a live-scraped
// table or an offline export.
type StatementLine struct {
	CounterpartyID string             `json:"counterpartyID"`
	Date           time.Time          `json:"date"`
	Amount         decimal.Decimal    `json:"amount"` // always positive
	Direction      StatementDirection `json:"direction"`
	Description    string             `json:"description,omitempty"`
	DocumentID     string             `json:"documentID,omitempty"`
}
