package handlers

import (
	"net/http"

	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/gin-gonic/gin"
)

// ChargeHandler exposes charges to the operator API.
type ChargeHandler struct {
	charges portsvc.ChargeLedgerSvcFacade
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(charges portsvc.ChargeLedgerSvcFacade) *ChargeHandler {
	return &ChargeHandler{charges: charges}
}

// GetCharge returns a charge and its payment events by txid.
func (h *ChargeHandler) GetCharge(c *gin.Context) {
	charge, err := h.charges.GetByTxID(c.Request.Context(), c.Param("txid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapChargeToResponse(*charge))
}
