package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
)

// RepostClient pushes confirmed payments into the operational ledger kept by
// the downstream back-office software. Delivery is at-least-once; the ledger
// deduplicates on the end-to-end id.
type RepostClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ portsvc.LedgerReposter = (*RepostClient)(nil)

// NewRepostClient builds the ledger repost client.
func NewRepostClient(cfg *config.Config) *RepostClient {
	return &RepostClient{
		baseURL:    cfg.LedgerRepostURL,
		httpClient: &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type repostRequest struct {
	EndToEndID        string    `json:"endToEndId"`
	TxID              string    `json:"txid"`
	ChargeID          string    `json:"chargeId"`
	OperationID       string    `json:"operationId,omitempty"`
	CounterpartyTaxID string    `json:"counterpartyTaxId"`
	Amount            string    `json:"amount"`
	PaidAt            time.Time `json:"paidAt"`
}

// RepostPayment posts one confirmed transfer to the ledger.
func (c *RepostClient) RepostPayment(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge, event domain.PaymentEvent) error {
	body := repostRequest{
		EndToEndID:        event.EndToEndID,
		TxID:              charge.TxID,
		ChargeID:          charge.ChargeID,
		CounterpartyTaxID: counterparty.TaxID,
		Amount:            event.Amount.StringFixed(2),
		PaidAt:            event.PaidAt,
	}
	if charge.OperationID != nil {
		body.OperationID = *charge.OperationID
	}
	return postJSON(ctx, c.httpClient, c.baseURL+"/payments", "ledger repost", body)
}

// SettlementClient drives instrument settlement and bank-side write-off
// confirmation at the counterparty's bank integration.
type SettlementClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ portsvc.SettlementAcceptor = (*SettlementClient)(nil)

// NewSettlementClient builds the settlement client.
func NewSettlementClient(cfg *config.Config) *SettlementClient {
	return &SettlementClient{
		baseURL:    cfg.SettlementURL,
		httpClient: &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type settlementRequest struct {
	CounterpartyTaxID string    `json:"counterpartyTaxId"`
	BankCode          string    `json:"bankCode"`
	Agency            string    `json:"agency"`
	Account           string    `json:"account"`
	InstrumentID      string    `json:"instrumentId"`
	ExternalID        string    `json:"externalId"`
	OperationID       string    `json:"operationId,omitempty"`
	OperationDate     time.Time `json:"operationDate,omitempty"`
	Amount            string    `json:"amount"`
}

// AcceptSettlement accepts and settles one instrument of a paid operation.
func (c *SettlementClient) AcceptSettlement(ctx context.Context, counterparty domain.Counterparty, operation domain.RepurchaseOperation, instrument domain.Instrument) error {
	body := settlementRequest{
		CounterpartyTaxID: counterparty.TaxID,
		BankCode:          counterparty.Bank.BankCode,
		Agency:            counterparty.Bank.Agency,
		Account:           counterparty.Bank.Account + counterparty.Bank.AccountDigit,
		InstrumentID:      instrument.InstrumentID,
		ExternalID:        instrument.ExternalID,
		OperationID:       operation.OperationID,
		OperationDate:     operation.OperationDate,
		Amount:            instrument.RepurchaseValue.StringFixed(2),
	}
	return postJSON(ctx, c.httpClient, c.baseURL+"/settlements", "instrument settlement", body)
}

// ConfirmBankWriteOff performs the bank-specific write-off confirmation.
func (c *SettlementClient) ConfirmBankWriteOff(ctx context.Context, counterparty domain.Counterparty, instrument domain.Instrument) error {
	body := settlementRequest{
		CounterpartyTaxID: counterparty.TaxID,
		BankCode:          counterparty.Bank.BankCode,
		Agency:            counterparty.Bank.Agency,
		Account:           counterparty.Bank.Account + counterparty.Bank.AccountDigit,
		InstrumentID:      instrument.InstrumentID,
		ExternalID:        instrument.ExternalID,
		Amount:            instrument.RepurchaseValue.StringFixed(2),
	}
	return postJSON(ctx, c.httpClient, c.baseURL+"/write-offs", "bank write-off", body)
}

// CritiqueClient pushes critique records into the downstream operational
// system. The natural key (date, counterparty, assignor, type, instrument)
// lets the downstream deduplicate replays.
type CritiqueClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ portsvc.CritiqueForwarder = (*CritiqueClient)(nil)

// NewCritiqueClient builds the critique forwarding client.
func NewCritiqueClient(cfg *config.Config) *CritiqueClient {
	return &CritiqueClient{
		baseURL:    cfg.LedgerRepostURL,
		httpClient: &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type critiqueRequest struct {
	Date           string `json:"date"`
	CounterpartyID string `json:"counterpartyId"`
	AssignorID     string `json:"assignorId"`
	Type           string `json:"type"`
	InstrumentID   string `json:"instrumentId"`
	Detail         string `json:"detail"`
}

// ForwardCritique posts one critique record downstream.
func (c *CritiqueClient) ForwardCritique(ctx context.Context, critique domain.Critique) error {
	body := critiqueRequest{
		Date:           critique.Date.Format("2006-01-02"),
		CounterpartyID: critique.CounterpartyID,
		AssignorID:     critique.AssignorID,
		Type:           string(critique.Type),
		InstrumentID:   critique.InstrumentID,
		Detail:         critique.Detail,
	}
	return postJSON(ctx, c.httpClient, c.baseURL+"/critiques", "critique forward", body)
}

// postJSON executes one POST and maps failures onto the apperrors taxonomy.
func postJSON(ctx context.Context, client *http.Client, endpoint, op string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return &apperrors.NetworkError{Op: op, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return &apperrors.GatewayRejectedError{
			StatusCode:  response.StatusCode,
			RequestBody: string(payload),
			Detail:      string(detail),
		}
	}
	return nil
}
