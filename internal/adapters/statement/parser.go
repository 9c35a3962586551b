package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Statement exports carry four columns: posting date, signed amount,
// description and bank document number. Debits are exported as negative
// amounts; the reduced line always carries a positive amount plus a direction.
const (
	columnDate = iota
	columnAmount
	columnDescription
	columnDocument
	columnCount
)

const dateLayout = "02/01/2006"

// parseAmount reads a Brazilian-format number: thousands dots, comma decimal
// separator, optional leading minus.
func parseAmount(raw string) (decimal.Decimal, error) {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return value, nil
}

// reduceRecord turns one export row into a matcher tuple.
func reduceRecord(counterpartyID string, record []string) (domain.StatementLine, error) {
	if len(record) < columnCount {
		return domain.StatementLine{}, fmt.Errorf("expected %d columns, got %d", columnCount, len(record))
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(record[columnDate]))
	if err != nil {
		return domain.StatementLine{}, fmt.Errorf("invalid date %q: %w", record[columnDate], err)
	}
	amount, err := parseAmount(record[columnAmount])
	if err != nil {
		return domain.StatementLine{}, err
	}

	direction := domain.StatementCredit
	if amount.IsNegative() {
		direction = domain.StatementDebit
		amount = amount.Neg()
	}

	return domain.StatementLine{
		CounterpartyID: counterpartyID,
		Date:           date,
		Amount:         amount,
		Direction:      direction,
		Description:    strings.TrimSpace(record[columnDescription]),
		DocumentID:     strings.TrimSpace(record[columnDocument]),
	}, nil
}

// parseCSV reduces a semicolon-separated export. The first row is a header.
func parseCSV(counterpartyID string, r io.Reader) ([]domain.StatementLine, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv export: %w", err)
	}

	lines := []domain.StatementLine{}
	for i, record := range records {
		if i == 0 {
			continue
		}
		line, err := reduceRecord(counterpartyID, record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// parseXLSX reduces the first sheet of an xlsx export. The first row is a
// header.
func parseXLSX(counterpartyID string, data []byte) ([]domain.StatementLine, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx export: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx export has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	lines := []domain.StatementLine{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		line, err := reduceRecord(counterpartyID, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
