package handlers

import (
	"fmt"
	"net/http"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the onboarding registry: counterparties, assignors
// and instrument imports.
type AdminHandler struct {
	onboarding portsvc.OnboardingSvcFacade
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(onboarding portsvc.OnboardingSvcFacade) *AdminHandler {
	return &AdminHandler{onboarding: onboarding}
}

// actor resolves the audit actor from the authenticated operator.
func actor(c *gin.Context) string {
	if operatorID, ok := middleware.GetOperatorIDFromContext(c); ok {
		return operatorID
	}
	return "operator"
}

// CreateCounterparty onboards a fund.
func (h *AdminHandler) CreateCounterparty(c *gin.Context) {
	var req dto.CreateCounterpartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
		return
	}

	counterparty, err := h.onboarding.CreateCounterparty(c.Request.Context(), req, actor(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapCounterpartyToResponse(*counterparty))
}

// ListCounterparties returns every onboarded counterparty.
func (h *AdminHandler) ListCounterparties(c *gin.Context) {
	counterparties, err := h.onboarding.ListCounterparties(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]dto.CounterpartyResponse, 0, len(counterparties))
	for _, counterparty := range counterparties {
		responses = append(responses, dto.MapCounterpartyToResponse(counterparty))
	}
	c.JSON(http.StatusOK, gin.H{"counterparties": responses})
}

// UpdateBankLinkage replaces the bank linkage of a counterparty.
func (h *AdminHandler) UpdateBankLinkage(c *gin.Context) {
	var req dto.BankLinkageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
		return
	}

	if err := h.onboarding.UpdateBankLinkage(c.Request.Context(), c.Param("counterpartyID"), req, actor(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateAssignor registers an originator under a counterparty.
func (h *AdminHandler) CreateAssignor(c *gin.Context) {
	var req dto.CreateAssignorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
		return
	}

	assignor, err := h.onboarding.CreateAssignor(c.Request.Context(), c.Param("counterpartyID"), req, actor(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapAssignorToResponse(*assignor))
}

// ListAssignors returns the assignors under a counterparty.
func (h *AdminHandler) ListAssignors(c *gin.Context) {
	assignors, err := h.onboarding.ListAssignors(c.Request.Context(), c.Param("counterpartyID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]dto.AssignorResponse, 0, len(assignors))
	for _, assignor := range assignors {
		responses = append(responses, dto.MapAssignorToResponse(assignor))
	}
	c.JSON(http.StatusOK, gin.H{"assignors": responses})
}

// ImportInstruments upserts a batch of instruments for a counterparty.
func (h *AdminHandler) ImportInstruments(c *gin.Context) {
	var req dto.ImportInstrumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error()))
		return
	}

	summary, err := h.onboarding.ImportInstruments(c.Request.Context(), c.Param("counterpartyID"), req, actor(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetInstrument returns an instrument by its origination-system id.
func (h *AdminHandler) GetInstrument(c *gin.Context) {
	instrument, err := h.onboarding.GetInstrumentByExternalID(c.Request.Context(), c.Param("counterpartyID"), c.Param("externalID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, instrument)
}
