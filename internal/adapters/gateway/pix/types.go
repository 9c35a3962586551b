package pix

import (
	"fmt"
	"strings"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/shopspring/decimal"
)

// gatewayTime tolerates the several timestamp formats the gateway emits:
// RFC3339 with and without sub-seconds, and a zone-less variant.
type gatewayTime struct {
	time.Time
}

var gatewayTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *gatewayTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range gatewayTimeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized gateway timestamp %q", raw)
}

type cobCalendar struct {
	Creation   gatewayTime `json:"criacao,omitempty"`
	Expiration int64       `json:"expiracao,omitempty"`
}

type cobDebtor struct {
	CPF  string `json:"cpf,omitempty"`
	CNPJ string `json:"cnpj,omitempty"`
	Name string `json:"nome"`
}

func (d cobDebtor) taxID() string {
	if d.CNPJ != "" {
		return d.CNPJ
	}
	return d.CPF
}

type cobValue struct {
	Original string `json:"original"` // 2-decimal string
}

type cobPix struct {
	EndToEndID string      `json:"endToEndId"`
	TxID       string      `json:"txid"`
	Value      string      `json:"valor"`
	Timestamp  gatewayTime `json:"horario"`
}

// cobRequest is the charge body submitted on issue.
type cobRequest struct {
	Calendar     cobCalendar `json:"calendario"`
	Debtor       cobDebtor   `json:"devedor"`
	Value        cobValue    `json:"valor"`
	Key          string      `json:"chave"`
	PayerRequest string      `json:"solicitacaoPagador,omitempty"`
}

// cobResponse is the charge-status document echoed on create, query and list.
type cobResponse struct {
	TxID      string      `json:"txid"`
	Location  string      `json:"location"`
	Revision  int         `json:"revisao"`
	Status    string      `json:"status"`
	Calendar  cobCalendar `json:"calendario"`
	Debtor    cobDebtor   `json:"devedor"`
	Value     cobValue    `json:"valor"`
	Key       string      `json:"chave"`
	CopyPaste string      `json:"pixCopiaECola,omitempty"`
	Pix       []cobPix    `json:"pix,omitempty"`
}

type cobListResponse struct {
	Cobs       []cobResponse `json:"cobs"`
	Parameters struct {
		Pagination struct {
			CurrentPage  int `json:"paginaAtual"`
			ItemsPerPage int `json:"itensPorPagina"`
			TotalPages   int `json:"quantidadeDePaginas"`
		} `json:"paginacao"`
	} `json:"parametros"`
}

type pixNotification struct {
	EndToEndID string      `json:"endToEndId"`
	TxID       string      `json:"txid,omitempty"`
	Value      string      `json:"valor"`
	Key        string      `json:"chave"`
	Timestamp  gatewayTime `json:"horario"`
	Payer      struct {
		Name string `json:"nome"`
		CPF  string `json:"cpf,omitempty"`
		CNPJ string `json:"cnpj,omitempty"`
	} `json:"pagador"`
	PayerInfo string `json:"infoPagador,omitempty"`
}

type pixListResponse struct {
	Pix        []pixNotification `json:"pix"`
	Parameters struct {
		Pagination struct {
			CurrentPage int `json:"paginaAtual"`
			TotalPages  int `json:"quantidadeDePaginas"`
		} `json:"paginacao"`
	} `json:"parametros"`
}

// toDocument converts a wire cob into the internal charge-status document.
func (c cobResponse) toDocument() (dto.ChargeDocument, error) {
	amount, err := decimal.NewFromString(c.Value.Original)
	if err != nil {
		return dto.ChargeDocument{}, fmt.Errorf("invalid valor.original %q: %w", c.Value.Original, err)
	}

	doc := dto.ChargeDocument{
		TxID:        c.TxID,
		Location:    c.Location,
		Revision:    c.Revision,
		Status:      c.Status,
		CreatedAt:   c.Calendar.Creation.Time,
		DebtorTaxID: c.Debtor.taxID(),
		DebtorName:  c.Debtor.Name,
		Amount:      amount,
		PixKey:      c.Key,
		CopyPaste:   c.CopyPaste,
	}
	for _, p := range c.Pix {
		value, err := decimal.NewFromString(p.Value)
		if err != nil {
			return dto.ChargeDocument{}, fmt.Errorf("invalid pix valor %q: %w", p.Value, err)
		}
		doc.Events = append(doc.Events, dto.PixEvent{
			EndToEndID: p.EndToEndID,
			TxID:       p.TxID,
			Amount:     value,
			Timestamp:  p.Timestamp.Time,
		})
	}
	return doc, nil
}

func (p pixNotification) toNotification() (dto.PaymentNotification, error) {
	amount, err := decimal.NewFromString(p.Value)
	if err != nil {
		return dto.PaymentNotification{}, fmt.Errorf("invalid pix valor %q: %w", p.Value, err)
	}
	payerTaxID := p.Payer.CNPJ
	if payerTaxID == "" {
		payerTaxID = p.Payer.CPF
	}
	return dto.PaymentNotification{
		EndToEndID: p.EndToEndID,
		TxID:       p.TxID,
		Amount:     amount,
		PixKey:     p.Key,
		Timestamp:  p.Timestamp.Time,
		PayerName:  p.Payer.Name,
		PayerTaxID: payerTaxID,
		PayerInfo:  p.PayerInfo,
	}, nil
}
