package txid_test

import (
	"testing"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/utils/txid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() txid.Request {
	return txid.Request{
		Date:            time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		InstructionType: "R",
		DebtorTaxID:     "12.345.678/0001-95",
		CreditorAgency:  "0001",
		CreditorAccount: "1234567-8",
		CreditorTaxID:   "98765432000188",
		Amount:          decimal.RequireFromString("742.00"),
	}
}

func TestBuild_FixedLengthAndDeterminism(t *testing.T) {
	first, err := txid.Build(validRequest())
	require.NoError(t, err)
	assert.Len(t, first, txid.KeyLength)

	second, err := txid.Build(validRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must yield identical keys")
}

func TestBuild_AmountOnlyChangesTrailingField(t *testing.T) {
	base, err := txid.Build(validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Amount = decimal.RequireFromString("743.50")
	other, err := txid.Build(req)
	require.NoError(t, err)

	assert.Equal(t, base[:txid.KeyLength-8], other[:txid.KeyLength-8],
		"prefix must be stable when only the amount changes")
	assert.NotEqual(t, base[txid.KeyLength-8:], other[txid.KeyLength-8:])
	assert.Equal(t, "00074350", other[txid.KeyLength-8:])
}

func TestBuild_EncodesDateAndType(t *testing.T) {
	key, err := txid.Build(validRequest())
	require.NoError(t, err)
	assert.Equal(t, "R", key[:1])
	assert.Equal(t, "20240301", key[1:9])
}

func TestBuild_ShortDebtorIDGetsTagged(t *testing.T) {
	req := validRequest()
	req.DebtorTaxID = "1234567" // malformed, shorter than a CPF
	key, err := txid.Build(req)
	require.NoError(t, err)
	assert.Len(t, key, txid.KeyLength)
	assert.Equal(t, "00091234567", key[9:20], "short ids carry the tag before zero padding")
}

func TestBuild_CNPJDebtorKeepsLastElevenDigits(t *testing.T) {
	req := validRequest()
	req.DebtorTaxID = "12345678000195"
	key, err := txid.Build(req)
	require.NoError(t, err)
	assert.Equal(t, "45678000195", key[9:20])
}

func TestBuild_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*txid.Request)
	}{
		{"zero amount", func(r *txid.Request) { r.Amount = decimal.Zero }},
		{"negative amount", func(r *txid.Request) { r.Amount = decimal.RequireFromString("-1.00") }},
		{"empty instruction type", func(r *txid.Request) { r.InstructionType = "" }},
		{"long instruction type", func(r *txid.Request) { r.InstructionType = "RC" }},
		{"zero date", func(r *txid.Request) { r.Date = time.Time{} }},
		{"debtor without digits", func(r *txid.Request) { r.DebtorTaxID = "n/a" }},
		{"missing creditor tax id", func(r *txid.Request) { r.CreditorTaxID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := txid.Build(req)
			assert.Error(t, err)
		})
	}
}
