package dto

import (
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BankLinkageRequest carries the banking credentials of a counterparty.
// Secrets arrive here once and are never echoed back by the API.
type BankLinkageRequest struct {
	BankCode      string `json:"bankCode" binding:"required"`
	Agency        string `json:"agency" binding:"required"`
	Account       string `json:"account" binding:"required"`
	AccountDigit  string `json:"accountDigit" binding:"required,len=1"`
	PixKey        string `json:"pixKey" binding:"required"`
	KeystoreFile  string `json:"keystoreFile" binding:"required"`
	KeystoreToken string `json:"keystoreToken" binding:"required"`
	ClientID      string `json:"clientID" binding:"required"`
	ClientSecret  string `json:"clientSecret" binding:"required"`
}

// ToDomain converts the request into the domain bank linkage.
func (r BankLinkageRequest) ToDomain() domain.BankLinkage {
	return domain.BankLinkage{
		BankCode:      r.BankCode,
		Agency:        r.Agency,
		Account:       r.Account,
		AccountDigit:  r.AccountDigit,
		PixKey:        r.PixKey,
		KeystoreFile:  r.KeystoreFile,
		KeystoreToken: r.KeystoreToken,
		ClientID:      r.ClientID,
		ClientSecret:  r.ClientSecret,
	}
}

// CreateCounterpartyRequest onboards a fund.
type CreateCounterpartyRequest struct {
	TaxID string             `json:"taxID" binding:"required,taxid"`
	Name  string             `json:"name" binding:"required"`
	Bank  BankLinkageRequest `json:"bank" binding:"required"`
}

// CounterpartyResponse is the API shape of a counterparty. Keystore and
// OAuth secrets are omitted.
type CounterpartyResponse struct {
	CounterpartyID string `json:"counterpartyID"`
	TaxID          string `json:"taxID"`
	Name           string `json:"name"`
	BankCode       string `json:"bankCode"`
	Agency         string `json:"agency"`
	Account        string `json:"account"`
	AccountDigit   string `json:"accountDigit"`
	PixKey         string `json:"pixKey"`
}

// MapCounterpartyToResponse converts a domain counterparty for the API.
func MapCounterpartyToResponse(cp domain.Counterparty) CounterpartyResponse {
	return CounterpartyResponse{
		CounterpartyID: cp.CounterpartyID,
		TaxID:          cp.TaxID,
		Name:           cp.Name,
		BankCode:       cp.Bank.BankCode,
		Agency:         cp.Bank.Agency,
		Account:        cp.Bank.Account,
		AccountDigit:   cp.Bank.AccountDigit,
		PixKey:         cp.Bank.PixKey,
	}
}

// CreateAssignorRequest registers an originator under a counterparty.
type CreateAssignorRequest struct {
	TaxID        string          `json:"taxID" binding:"required,taxid"`
	Name         string          `json:"name" binding:"required"`
	NotifyEmails []string        `json:"notifyEmails" binding:"omitempty,dive,email"`
	FeeRate      decimal.Decimal `json:"feeRate"`
}

// AssignorResponse is the API shape of an assignor.
type AssignorResponse struct {
	AssignorID     string   `json:"assignorID"`
	CounterpartyID string   `json:"counterpartyID"`
	TaxID          string   `json:"taxID"`
	Name           string   `json:"name"`
	NotifyEmails   []string `json:"notifyEmails"`
	FeeRate        string   `json:"feeRate"`
}

// MapAssignorToResponse converts a domain assignor for the API.
func MapAssignorToResponse(a domain.Assignor) AssignorResponse {
	return AssignorResponse{
		AssignorID:     a.AssignorID,
		CounterpartyID: a.CounterpartyID,
		TaxID:          a.TaxID,
		Name:           a.Name,
		NotifyEmails:   a.NotifyEmails,
		FeeRate:        a.FeeRate.String(),
	}
}

// ImportInstrumentRecord is one receivable title pushed by the origination
// system. Due dates come as calendar days.
type ImportInstrumentRecord struct {
	ExternalID      string          `json:"externalID" binding:"required"`
	AssignorID      string          `json:"assignorID" binding:"required,uuid"`
	OriginalAmount  decimal.Decimal `json:"originalAmount" binding:"required"`
	RepurchaseValue decimal.Decimal `json:"repurchaseValue" binding:"required"`
	DueDate         string          `json:"dueDate" binding:"required,datetime=2006-01-02"`
	CollectionType  string          `json:"collectionType"`
	Abated          bool            `json:"abated"`
	Settled         bool            `json:"settled"`
	Overdue         bool            `json:"overdue"`
	Prorogued       bool            `json:"prorogued"`
}

// ImportInstrumentsRequest is a batch of instruments to upsert.
type ImportInstrumentsRequest struct {
	Instruments []ImportInstrumentRecord `json:"instruments" binding:"required,min=1,dive"`
}

// ImportInstrumentsResponse reports the outcome of a batch import.
type ImportInstrumentsResponse struct {
	Received int `json:"received"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
}

// DueDateLayout is the calendar-day format of instrument due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate parses the record's due date. Binding already validated the
// layout, so failures only surface on non-API callers.
func (r ImportInstrumentRecord) ParseDueDate() (time.Time, error) {
	return time.Parse(DueDateLayout, r.DueDate)
}
