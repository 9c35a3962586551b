package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge is a dynamic billing request issued against the payment gateway,
// at most one per repurchase operation (or ad-hoc balance). The TxID is the
// locally derived idempotency key; the natural key of the row prevents
// duplicate issuance for the same {operation, date, debtor, account, amount}.
// Once paid a charge is immutable except for nested payment events.
type Charge struct {
	ChargeID         string          `json:"chargeID"` // Primary Key (UUID)
	OperationID      *string         `json:"operationID,omitempty"`
	CounterpartyID   string          `json:"counterpartyID"`
	AssignorID       string          `json:"assignorID"`
	InstructionType  string          `json:"instructionType"` // instruction-type code baked into the txid
	TxID             string          `json:"txid"`            // 35-char idempotency key, echoed by the gateway
	Location         string          `json:"location"`        // gateway payment location URL
	Revision         int             `json:"revision"`
	DebtorTaxID      string          `json:"debtorTaxID"`
	DebtorName       string          `json:"debtorName"`
	PixKey           string          `json:"pixKey"`
	Amount           decimal.Decimal `json:"amount"` // cents-exact, 2 decimal places
	IssuedAt         time.Time       `json:"issuedAt"`
	GatewayCreatedAt *time.Time      `json:"gatewayCreatedAt,omitempty"`
	CopyPaste        string          `json:"pixCopiaECola,omitempty"`
	Paid             bool            `json:"paid"` // one-way latch

	Events []PaymentEvent `json:"events,omitempty"`
	AuditFields
}

// PaymentEvent is one confirmed transfer matched to a charge. A charge can be
// partially paid by several transfers, so uniqueness is on
// (charge, endToEndID, amount) rather than endToEndID alone.
type PaymentEvent struct {
	EventID    string          `json:"eventID"` // Primary Key (UUID)
	ChargeID   string          `json:"chargeID"`
	EndToEndID string          `json:"endToEndID"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     time.Time       `json:"paidAt"`
	Reposted   bool            `json:"reposted"` // pushed to the operational ledger
	AuditFields
}

// PaidTotal sums the recorded payment events.
func (c Charge) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, ev := range c.Events {
		total = total.Add(ev.Amount)
	}
	return total
}

// IsSettledBy reports whether the event sum covers the charge amount exactly.
// Amounts are pre-rounded to cents; comparison is exact, no epsilon.
func (c Charge) IsSettledBy(events []PaymentEvent) bool {
	total := decimal.Zero
	for _, ev := range events {
		total = total.Add(ev.Amount)
	}
	return total.Equal(c.Amount)
}
