package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// SystemController exposes the system catalog.
type SystemController struct {
	systems *services.SystemService
}

func NewSystemController(db *gorm.DB) *SystemController {
	return &SystemController{systems: services.NewSystemService(db)}
}

// ListSystems handles GET /systems
func (ctrl *SystemController) ListSystems(c *gin.Context) {
	filters := services.SystemFilters{
		CategoryCode:      c.Query("category_code"),
		ValidationStatus:  c.Query("validation_status"),
		DataHostingRegion: c.Query("data_hosting_region"),
		VendorID:          c.Query("vendor_id"),
		IsActive:          parseBoolQuery(c, "is_active"),
		Search:            c.Query("search"),
	}

	systems, meta, err := ctrl.systems.List(parsePagination(c), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": systems, "meta": meta})
}

// CreateSystem handles POST /systems
func (ctrl *SystemController) CreateSystem(c *gin.Context) {
	var req services.SystemCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	system, err := ctrl.systems.Create(req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": system})
}

// GetSystem handles GET /systems/:id
func (ctrl *SystemController) GetSystem(c *gin.Context) {
	detail, err := ctrl.systems.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

// UpdateSystem handles PATCH /systems/:id
func (ctrl *SystemController) UpdateSystem(c *gin.Context) {
	var patch services.SystemUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	system, err := ctrl.systems.Update(c.Param("id"), patch, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": system})
}
