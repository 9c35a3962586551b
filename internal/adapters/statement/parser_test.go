package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	export := strings.Join([]string{
		"Data;Valor;Descricao;Documento",
		"01/03/2024;1.250,00;PIX RECEBIDO;DOC001",
		"02/03/2024;-87,90;TARIFA BANCARIA;DOC002",
		"02/03/2024;250,00;PIX RECEBIDO;DOC003",
	}, "\n")

	lines, err := parseCSV("cp-1", strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "cp-1", lines[0].CounterpartyID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), lines[0].Date)
	assert.True(t, decimal.RequireFromString("1250.00").Equal(lines[0].Amount))
	assert.Equal(t, domain.StatementCredit, lines[0].Direction)
	assert.Equal(t, "PIX RECEBIDO", lines[0].Description)
	assert.Equal(t, "DOC001", lines[0].DocumentID)

	// Debits come out positive with the direction flipped.
	assert.True(t, decimal.RequireFromString("87.90").Equal(lines[1].Amount))
	assert.Equal(t, domain.StatementDebit, lines[1].Direction)
}

func TestParseCSVRejectsBadRows(t *testing.T) {
	testCases := []struct {
		name   string
		export string
	}{
		{"bad date", "Data;Valor;Descricao;Documento\n2024-03-01;10,00;X;D"},
		{"bad amount", "Data;Valor;Descricao;Documento\n01/03/2024;dez;X;D"},
		{"missing columns", "Data;Valor;Descricao;Documento\n01/03/2024;10,00"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCSV("cp-1", strings.NewReader(tc.export))
			assert.Error(t, err)
		})
	}
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{"1.234.567,89", "1234567.89"},
		{"-87,90", "-87.90"},
		{" 250,00 ", "250.00"},
		{"0,01", "0.01"},
	}
	for _, tc := range testCases {
		value, err := parseAmount(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.True(t, decimal.RequireFromString(tc.expected).Equal(value), "parsing %q", tc.raw)
	}

	_, err := parseAmount("R$ 10")
	assert.Error(t, err)
}
