package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// LookupController exposes the reference data bundle.
type LookupController struct {
	lookups *services.LookupService
}

func NewLookupController(db *gorm.DB) *LookupController {
	return &LookupController{lookups: services.NewLookupService(db)}
}

// GetLookups handles GET /lookups
func (ctrl *LookupController) GetLookups(c *gin.Context) {
	bundle, err := ctrl.lookups.GetAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bundle})
}
