package pix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
	"golang.org/x/crypto/pkcs12"
)

// Client talks to the payment gateway over mutual TLS. Each counterparty has
// its own PKCS#12 keystore and OAuth credentials, so the HTTP client is built
// per counterparty and memoized.
type Client struct {
	cfg    *config.Config
	tokens *tokenProvider

	mu          sync.Mutex
	httpClients map[string]*http.Client
	location    *time.Location
}

var _ portsvc.ChargeGateway = (*Client)(nil)

// NewClient builds the gateway client. The timezone is needed to compute the
// charge expiry against the daily payment cutoff.
func NewClient(cfg *config.Config, cache TokenCache) (*Client, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return &Client{
		cfg:         cfg,
		tokens:      newTokenProvider(cfg.GatewayTokenURL, cfg.TokenSafetyMargin, cache),
		httpClients: map[string]*http.Client{},
		location:    location,
	}, nil
}

// httpClientFor returns the mutual-TLS client of the counterparty, loading its
// PKCS#12 keystore on first use.
func (c *Client) httpClientFor(counterparty domain.Counterparty) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.httpClients[counterparty.CounterpartyID]; ok {
		return client, nil
	}

	keystorePath := filepath.Join(c.cfg.CertificateDir, counterparty.Bank.KeystoreFile)
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, &apperrors.AuthError{Counterparty: counterparty.CounterpartyID, Err: fmt.Errorf("reading keystore: %w", err)}
	}

	blocks, err := pkcs12.ToPEM(data, counterparty.Bank.KeystoreToken)
	if err != nil {
		return nil, &apperrors.AuthError{Counterparty: counterparty.CounterpartyID, Err: fmt.Errorf("decoding keystore: %w", err)}
	}
	var pemData []byte
	for _, block := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(block)...)
	}
	certificate, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return nil, &apperrors.AuthError{Counterparty: counterparty.CounterpartyID, Err: fmt.Errorf("building key pair: %w", err)}
	}

	client := &http.Client{
		Timeout: c.cfg.GatewayTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{certificate}},
		},
	}
	c.httpClients[counterparty.CounterpartyID] = client
	return client, nil
}

// expirySeconds computes calendario.expiracao: the seconds left until the
// daily payment cutoff, never below the configured floor.
func (c *Client) expirySeconds(now time.Time) int64 {
	cutoff, _ := time.Parse("15:04", c.cfg.ChargeCutoff)
	local := now.In(c.location)
	deadline := time.Date(local.Year(), local.Month(), local.Day(), cutoff.Hour(), cutoff.Minute(), 0, 0, c.location)

	seconds := int64(deadline.Sub(local).Seconds())
	floor := int64(c.cfg.MinChargeExpiry.Seconds())
	if seconds < floor {
		return floor
	}
	return seconds
}

// buildCobRequest assembles the charge body. The payer request line shows up
// in the payer's banking app next to the QR code, labelling what the charge
// settles.
func buildCobRequest(charge domain.Charge, expiration int64, location *time.Location) cobRequest {
	body := cobRequest{
		Calendar:     cobCalendar{Expiration: expiration},
		Debtor:       cobDebtor{Name: charge.DebtorName},
		Value:        cobValue{Original: charge.Amount.StringFixed(2)},
		Key:          charge.PixKey,
		PayerRequest: "Recompra de recebiveis " + charge.IssuedAt.In(location).Format("02/01/2006"),
	}
	if len(charge.DebtorTaxID) > 11 {
		body.Debtor.CNPJ = charge.DebtorTaxID
	} else {
		body.Debtor.CPF = charge.DebtorTaxID
	}
	return body
}

// IssueCharge submits the charge under its locally derived txid. Re-issuing
// the same txid is accepted by the gateway as an update of the same charge, so
// the call stays idempotent.
func (c *Client) IssueCharge(ctx context.Context, counterparty domain.Counterparty, charge domain.Charge) (*dto.ChargeDocument, error) {
	body := buildCobRequest(charge, c.expirySeconds(charge.IssuedAt), c.location)

	var response cobResponse
	if err := c.do(ctx, counterparty, http.MethodPut, "/cob/"+charge.TxID, nil, body, &response); err != nil {
		return nil, err
	}
	document, err := response.toDocument()
	if err != nil {
		return nil, &apperrors.DataParseError{Source: "gateway charge create", Err: err}
	}
	return &document, nil
}

// QueryCharge re-reads the current charge state including nested pix events.
func (c *Client) QueryCharge(ctx context.Context, counterparty domain.Counterparty, txid string) (*dto.ChargeDocument, error) {
	var response cobResponse
	if err := c.do(ctx, counterparty, http.MethodGet, "/cob/"+txid, nil, nil, &response); err != nil {
		return nil, err
	}
	document, err := response.toDocument()
	if err != nil {
		return nil, &apperrors.DataParseError{Source: "gateway charge query", Err: err}
	}
	return &document, nil
}

// ListCharges walks the paginated charge listing inside the window.
func (c *Client) ListCharges(ctx context.Context, counterparty domain.Counterparty, window dto.DateWindow) ([]dto.ChargeDocument, error) {
	documents := []dto.ChargeDocument{}
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("inicio", window.Start.Format(time.RFC3339))
		query.Set("fim", window.End.Format(time.RFC3339))
		query.Set("paginacao.paginaAtual", strconv.Itoa(page))

		var response cobListResponse
		if err := c.do(ctx, counterparty, http.MethodGet, "/cob", query, nil, &response); err != nil {
			return nil, err
		}
		for _, cob := range response.Cobs {
			document, err := cob.toDocument()
			if err != nil {
				return nil, &apperrors.DataParseError{Source: "gateway charge list", Err: err}
			}
			documents = append(documents, document)
		}
		if page >= response.Parameters.Pagination.TotalPages-1 {
			return documents, nil
		}
	}
}

// ListPayments walks the paginated payment listing inside the window.
func (c *Client) ListPayments(ctx context.Context, counterparty domain.Counterparty, window dto.DateWindow) ([]dto.PaymentNotification, error) {
	notifications := []dto.PaymentNotification{}
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("inicio", window.Start.Format(time.RFC3339))
		query.Set("fim", window.End.Format(time.RFC3339))
		query.Set("paginacao.paginaAtual", strconv.Itoa(page))

		var response pixListResponse
		if err := c.do(ctx, counterparty, http.MethodGet, "/pix", query, nil, &response); err != nil {
			return nil, err
		}
		for _, pix := range response.Pix {
			notification, err := pix.toNotification()
			if err != nil {
				return nil, &apperrors.DataParseError{Source: "gateway payment list", Err: err}
			}
			notifications = append(notifications, notification)
		}
		if page >= response.Parameters.Pagination.TotalPages-1 {
			return notifications, nil
		}
	}
}

// do executes one authenticated gateway request and decodes the response,
// mapping failures onto the apperrors taxonomy.
func (c *Client) do(ctx context.Context, counterparty domain.Counterparty, method, path string, query url.Values, body, out any) error {
	httpClient, err := c.httpClientFor(counterparty)
	if err != nil {
		return err
	}
	token, err := c.tokens.Token(ctx, counterparty, httpClient)
	if err != nil {
		return err
	}

	var requestBody []byte
	var reader io.Reader
	if body != nil {
		requestBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(requestBody)
	}

	endpoint := c.cfg.GatewayBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return &apperrors.NetworkError{Op: method + " " + path, Err: err}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return &apperrors.NetworkError{Op: method + " " + path, Err: err}
	}

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return &apperrors.AuthError{
			Counterparty: counterparty.CounterpartyID,
			Err:          fmt.Errorf("gateway returned status %d", response.StatusCode),
		}
	case response.StatusCode >= 400:
		return &apperrors.GatewayRejectedError{
			StatusCode:  response.StatusCode,
			RequestBody: string(requestBody),
			Detail:      string(responseBody),
		}
	}

	if out != nil {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return &apperrors.DataParseError{Source: method + " " + path, Err: err}
		}
	}
	return nil
}
