package dto

import (
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/domain"
)

// InstrumentResponse is the API shape of an instrument inside an operation.
type InstrumentResponse struct {
	InstrumentID    string    `json:"instrumentID"`
	ExternalID      string    `json:"externalID"`
	RepurchaseValue string    `json:"repurchaseValue"`
	DueDate         time.Time `json:"dueDate"`
	Abated          bool      `json:"abated"`
	Overdue         bool      `json:"overdue"`
	Prorogued       bool      `json:"prorogued"`
	WrittenOff      bool      `json:"writtenOff"`
	BankWrittenOff  bool      `json:"bankWrittenOff"`
}

// OperationResponse is the API shape of a repurchase operation.
type OperationResponse struct {
	OperationID    string               `json:"operationID"`
	CounterpartyID string               `json:"counterpartyID"`
	AssignorID     string               `json:"assignorID"`
	OperationDate  string               `json:"operationDate"`
	Status         string               `json:"status"`
	TotalAmount    string               `json:"totalAmount"`
	Paid           bool                 `json:"paid"`
	WrittenOff     bool                 `json:"writtenOff"`
	ChargeID       *string              `json:"chargeID,omitempty"`
	Instruments    []InstrumentResponse `json:"instruments,omitempty"`
}

// MapOperationToResponse converts a domain operation for the API.
func MapOperationToResponse(op domain.RepurchaseOperation) OperationResponse {
	response := OperationResponse{
		OperationID:    op.OperationID,
		CounterpartyID: op.CounterpartyID,
		AssignorID:     op.AssignorID,
		OperationDate:  op.OperationDate.Format("2006-01-02"),
		Status:         string(op.Status),
		TotalAmount:    op.TotalAmount.StringFixed(2),
		Paid:           op.Paid,
		WrittenOff:     op.WrittenOff,
		ChargeID:       op.ChargeID,
	}
	for _, in := range op.Instruments {
		response.Instruments = append(response.Instruments, InstrumentResponse{
			InstrumentID:    in.InstrumentID,
			ExternalID:      in.ExternalID,
			RepurchaseValue: in.RepurchaseValue.StringFixed(2),
			DueDate:         in.DueDate,
			Abated:          in.Abated,
			Overdue:         in.Overdue,
			Prorogued:       in.Prorogued,
			WrittenOff:      in.WrittenOff,
			BankWrittenOff:  in.BankWrittenOff,
		})
	}
	return response
}

// PaymentEventResponse is the API shape of a recorded payment event.
type PaymentEventResponse struct {
	EventID    string    `json:"eventID"`
	EndToEndID string    `json:"endToEndID"`
	Amount     string    `json:"amount"`
	PaidAt     time.Time `json:"paidAt"`
	Reposted   bool      `json:"reposted"`
}

// ChargeResponse is the API shape of a charge and its payment events.
type ChargeResponse struct {
	ChargeID         string                 `json:"chargeID"`
	OperationID      *string                `json:"operationID,omitempty"`
	TxID             string                 `json:"txid"`
	Location         string                 `json:"location,omitempty"`
	Revision         int                    `json:"revision"`
	DebtorTaxID      string                 `json:"debtorTaxID"`
	DebtorName       string                 `json:"debtorName"`
	Amount           string                 `json:"amount"`
	PaidTotal        string                 `json:"paidTotal"`
	IssuedAt         time.Time              `json:"issuedAt"`
	GatewayCreatedAt *time.Time             `json:"gatewayCreatedAt,omitempty"`
	CopyPaste        string                 `json:"pixCopiaECola,omitempty"`
	Paid             bool                   `json:"paid"`
	Events           []PaymentEventResponse `json:"events,omitempty"`
}

// MapChargeToResponse converts a domain charge for the API.
func MapChargeToResponse(charge domain.Charge) ChargeResponse {
	response := ChargeResponse{
		ChargeID:         charge.ChargeID,
		OperationID:      charge.OperationID,
		TxID:             charge.TxID,
		Location:         charge.Location,
		Revision:         charge.Revision,
		DebtorTaxID:      charge.DebtorTaxID,
		DebtorName:       charge.DebtorName,
		Amount:           charge.Amount.StringFixed(2),
		PaidTotal:        charge.PaidTotal().StringFixed(2),
		IssuedAt:         charge.IssuedAt,
		GatewayCreatedAt: charge.GatewayCreatedAt,
		CopyPaste:        charge.CopyPaste,
		Paid:             charge.Paid,
	}
	for _, event := range charge.Events {
		response.Events = append(response.Events, PaymentEventResponse{
			EventID:    event.EventID,
			EndToEndID: event.EndToEndID,
			Amount:     event.Amount.StringFixed(2),
			PaidAt:     event.PaidAt,
			Reposted:   event.Reposted,
		})
	}
	return response
}
