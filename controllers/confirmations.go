package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// ConfirmationController exposes the confirmation workflow.
type ConfirmationController struct {
	confirmations *services.ConfirmationService
	generator     services.ExportGenerator
}

func NewConfirmationController(db *gorm.DB) *ConfirmationController {
	return &ConfirmationController{
		confirmations: services.NewConfirmationService(db),
		generator:     services.ExcelExportGenerator{},
	}
}

// ListConfirmations handles GET /confirmations
func (ctrl *ConfirmationController) ListConfirmations(c *gin.Context) {
	filters := services.ConfirmationFilters{
		TrialID:            c.Query("trial_id"),
		ConfirmationStatus: c.Query("confirmation_status"),
		ConfirmationType:   c.Query("confirmation_type"),
		Overdue:            strings.EqualFold(c.Query("overdue"), "true"),
	}

	confirmations, meta, err := ctrl.confirmations.List(parsePagination(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": confirmations, "meta": meta})
}

// CreateConfirmation handles POST /confirmations
func (ctrl *ConfirmationController) CreateConfirmation(c *gin.Context) {
	var req services.ConfirmationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	confirmation, err := ctrl.confirmations.Create(req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": confirmation})
}

// GetConfirmation handles GET /confirmations/:id
func (ctrl *ConfirmationController) GetConfirmation(c *gin.Context) {
	detail, err := ctrl.confirmations.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

// UpdateConfirmation handles PATCH /confirmations/:id
func (ctrl *ConfirmationController) UpdateConfirmation(c *gin.Context) {
	var patch services.ConfirmationUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	confirmation, err := ctrl.confirmations.Update(c.Param("id"), patch, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": confirmation})
}

// SubmitConfirmation handles POST /confirmations/:id/submit
// The body is optional; submitting without notes is the common case.
func (ctrl *ConfirmationController) SubmitConfirmation(c *gin.Context) {
	var req services.ConfirmationSubmit
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		respondBindError(c, err)
		return
	}

	detail, err := ctrl.confirmations.Submit(c.Param("id"), req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

// GenerateExport handles POST /confirmations/exports
func (ctrl *ConfirmationController) GenerateExport(c *gin.Context) {
	var req services.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := ctrl.confirmations.GenerateExport(req, ctrl.generator, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}
