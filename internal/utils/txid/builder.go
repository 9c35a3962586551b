// Package txid derives the deterministic idempotency key used as the PIX
// transaction id of a charge. Repeated charge-creation attempts for the same
// logical event produce the same key and therefore never double-bill.
package txid

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// KeyLength is the fixed output length, the maximum the gateway accepts.
	KeyLength = 35

	dateWidth    = 8
	debtorWidth  = 11
	accountWidth = 7
	amountWidth  = 8

	// shortDebtorTag marks debtor ids that arrived with fewer than the
	// canonical eleven digits, so a malformed id can never collide with a
	// well-formed one after zero padding.
	shortDebtorTag = "9"
)

// Request carries the fields the key is derived from.
type Request struct {
	Date            time.Time
	InstructionType string // single-character instruction-type code
	DebtorTaxID     string
	CreditorAgency  string
	CreditorAccount string // account number including check digit
	CreditorTaxID   string
	Amount          decimal.Decimal // absolute value, pre-rounded to cents
}

// Build derives the 35-character key:
// typeCode(1) + yyyyMMdd(8) + debtor(11) + account(7) + amountCents(8).
// The amount is the trailing field, so two keys for the same event differing
// only in amount differ only in their last eight characters.
func Build(req Request) (string, error) {
	if len(req.InstructionType) != 1 {
		return "", fmt.Errorf("instruction type must be a single character, got %q", req.InstructionType)
	}
	if req.Date.IsZero() {
		return "", fmt.Errorf("operation date is required")
	}
	if req.CreditorTaxID == "" {
		return "", fmt.Errorf("creditor tax id is required")
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("amount must be positive, got %s", req.Amount)
	}

	debtor := normalizeDebtor(req.DebtorTaxID)
	if debtor == "" {
		return "", fmt.Errorf("debtor tax id has no digits: %q", req.DebtorTaxID)
	}

	account := digitsOnly(req.CreditorAgency + req.CreditorAccount)
	if account == "" {
		return "", fmt.Errorf("creditor agency/account has no digits")
	}

	cents := req.Amount.Shift(2).IntPart()
	amountField := fmt.Sprintf("%0*d", amountWidth, cents)
	if len(amountField) > amountWidth {
		return "", fmt.Errorf("amount %s exceeds the key's amount field", req.Amount)
	}

	key := req.InstructionType +
		req.Date.Format("20060102") +
		debtor +
		lastPadded(account, accountWidth) +
		amountField

	if len(key) != KeyLength {
		return "", fmt.Errorf("derived key has length %d, want %d", len(key), KeyLength)
	}
	return key, nil
}

// normalizeDebtor reduces the debtor tax id to exactly debtorWidth digits.
// CPF ids are eleven digits and pass through; CNPJ ids keep their last eleven;
// shorter ids are tagged and zero padded.
func normalizeDebtor(taxID string) string {
	digits := digitsOnly(taxID)
	switch {
	case digits == "":
		return ""
	case len(digits) == debtorWidth:
		return digits
	case len(digits) > debtorWidth:
		return digits[len(digits)-debtorWidth:]
	default:
		return lastPadded(shortDebtorTag+digits, debtorWidth)
	}
}

// lastPadded zero-pads s to width, keeping the last width characters when s
// is longer.
func lastPadded(s string, width int) string {
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
