package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateWindow bounds the gateway list reads. The sync jobs use a fixed
// lookback (10 days back to now) so delayed settlements are still seen while
// the scan stays bounded.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// LookbackWindow builds the standard window ending at now.
func LookbackWindow(now time.Time, days int) DateWindow {
	return DateWindow{Start: now.AddDate(0, 0, -days), End: now}
}

// PixEvent is one settlement reported inside a charge-status document.
type PixEvent struct {
	EndToEndID string          `json:"endToEndId"`
	TxID       string          `json:"txid"`
	Amount     decimal.Decimal `json:"valor"`
	Timestamp  time.Time       `json:"horario"`
}

// ChargeDocument is the parsed charge-status document returned by the
// gateway on create, query and list. PixCopiaECola and Events may be absent.
type ChargeDocument struct {
	TxID        string          `json:"txid"`
	Location    string          `json:"location"`
	Revision    int             `json:"revisao"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"criacao"`
	DebtorTaxID string          `json:"devedorTaxId"`
	DebtorName  string          `json:"devedorNome"`
	Amount      decimal.Decimal `json:"valorOriginal"`
	PixKey      string          `json:"chave"`
	CopyPaste   string          `json:"pixCopiaECola,omitempty"`
	Events      []PixEvent      `json:"pix,omitempty"`
}

// PaymentNotification is the distinct payment-received document shape. TxID
// is present only when the transfer settled a charge.
type PaymentNotification struct {
	EndToEndID string          `json:"endToEndId"`
	TxID       string          `json:"txid,omitempty"`
	Amount     decimal.Decimal `json:"valor"`
	PixKey     string          `json:"chave"`
	Timestamp  time.Time       `json:"horario"`
	PayerName  string          `json:"pagadorNome"`
	PayerTaxID string          `json:"pagadorTaxId"`
	PayerInfo  string          `json:"infoPagador,omitempty"`
}
