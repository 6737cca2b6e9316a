package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// AdminController exposes the dashboard aggregates.
type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{admin: services.NewAdminService(db)}
}

// GetDashboardStats handles GET /admin/dashboard
func (ctrl *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ctrl.admin.GetDashboardStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}
