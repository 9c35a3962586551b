package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	portsvc "github.com/cobranca-ops/fidc-backoffice/internal/core/ports/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/dto"
	"github.com/gin-gonic/gin"
)

// OperationHandler exposes repurchase operations to the operator API.
type OperationHandler struct {
	operations portsvc.OperationSvcFacade
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(operations portsvc.OperationSvcFacade) *OperationHandler {
	return &OperationHandler{operations: operations}
}

// ListOperations returns the operations of one calendar day.
func (h *OperationHandler) ListOperations(c *gin.Context) {
	rawDay := c.Query("day")
	if rawDay == "" {
		handleServiceError(c, fmt.Errorf("%w: query parameter 'day' is required", apperrors.ErrValidation))
		return
	}
	day, err := time.Parse("2006-01-02", rawDay)
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: 'day' must be YYYY-MM-DD", apperrors.ErrValidation))
		return
	}

	operations, err := h.operations.ListByDay(c.Request.Context(), day)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]dto.OperationResponse, 0, len(operations))
	for _, operation := range operations {
		responses = append(responses, dto.MapOperationToResponse(operation))
	}
	c.JSON(http.StatusOK, gin.H{"operations": responses})
}

// GetOperation returns one operation with its instruments.
func (h *OperationHandler) GetOperation(c *gin.Context) {
	operation, err := h.operations.GetOperation(c.Request.Context(), c.Param("operationID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapOperationToResponse(*operation))
}
