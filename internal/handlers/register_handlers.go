package handlers

import (
	"net/http"

	"github.com/cobranca-ops/fidc-backoffice/internal/core/services"
	"github.com/cobranca-ops/fidc-backoffice/internal/jobs"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
	"github.com/cobranca-ops/fidc-backoffice/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RegisterHandlers wires the operator API routes. Everything under /api/v1
// requires an operator bearer token; /health stays open for probes.
func RegisterHandlers(router *gin.Engine, cfg *config.Config, container *services.Container, registry *jobs.Registry) {
	registerValidations()

	jobHandler := NewJobHandler(registry)
	operationHandler := NewOperationHandler(container.Operations)
	chargeHandler := NewChargeHandler(container.Charges)
	adminHandler := NewAdminHandler(container.Onboarding)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.GET("/jobs", jobHandler.ListJobs)
		api.POST("/jobs/:name/run", jobHandler.RunJob)

		api.GET("/operations", operationHandler.ListOperations)
		api.GET("/operations/:operationID", operationHandler.GetOperation)

		api.GET("/charges/:txid", chargeHandler.GetCharge)

		api.GET("/counterparties", adminHandler.ListCounterparties)
		api.POST("/counterparties", adminHandler.CreateCounterparty)
		api.PUT("/counterparties/:counterpartyID/bank", adminHandler.UpdateBankLinkage)
		api.GET("/counterparties/:counterpartyID/assignors", adminHandler.ListAssignors)
		api.POST("/counterparties/:counterpartyID/assignors", adminHandler.CreateAssignor)
		api.POST("/counterparties/:counterpartyID/instruments", adminHandler.ImportInstruments)
		api.GET("/counterparties/:counterpartyID/instruments/:externalID", adminHandler.GetInstrument)
	}
}
