package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// TrialController exposes the trial registry and its system linkage.
type TrialController struct {
	trials *services.TrialService
}

func NewTrialController(db *gorm.DB) *TrialController {
	return &TrialController{trials: services.NewTrialService(db)}
}

// ListTrials handles GET /trials
func (ctrl *TrialController) ListTrials(c *gin.Context) {
	filters := services.TrialFilters{
		Search:          c.Query("search"),
		TrialStatus:     c.Query("trial_status"),
		TrialPhase:      c.Query("trial_phase"),
		TherapeuticArea: c.Query("therapeutic_area"),
		TrialLeadEmail:  c.Query("trial_lead_email"),
	}

	trials, meta, err := ctrl.trials.List(parsePagination(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trials, "meta": meta})
}

// CreateTrial handles POST /trials
func (ctrl *TrialController) CreateTrial(c *gin.Context) {
	var req services.TrialCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trial, err := ctrl.trials.Create(req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": trial})
}

// GetTrial handles GET /trials/:id
func (ctrl *TrialController) GetTrial(c *gin.Context) {
	detail, err := ctrl.trials.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

// UpdateTrial handles PATCH /trials/:id
func (ctrl *TrialController) UpdateTrial(c *gin.Context) {
	var patch services.TrialUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	trial, err := ctrl.trials.Update(c.Param("id"), patch, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trial})
}

// LinkSystem handles POST /trials/:id/systems
func (ctrl *TrialController) LinkSystem(c *gin.Context) {
	var req services.LinkCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	link, err := ctrl.trials.LinkSystem(c.Param("id"), req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": link})
}

// UpdateLink handles PATCH /trials/:id/systems/:instanceId
func (ctrl *TrialController) UpdateLink(c *gin.Context) {
	var patch services.LinkUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	link, err := ctrl.trials.UpdateLink(c.Param("id"), c.Param("instanceId"), patch, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": link})
}

// UnlinkSystem handles DELETE /trials/:id/systems/:instanceId
func (ctrl *TrialController) UnlinkSystem(c *gin.Context) {
	if err := ctrl.trials.UnlinkSystem(c.Param("id"), c.Param("instanceId"), actorEmail(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "System unlinked from trial"})
}
