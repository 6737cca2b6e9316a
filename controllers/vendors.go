package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ctsr-api/services"
)

// VendorController exposes the vendor registry.
type VendorController struct {
	vendors *services.VendorService
	uploads *services.UploadService
}

func NewVendorController(db *gorm.DB) *VendorController {
	return &VendorController{
		vendors: services.NewVendorService(db),
		uploads: services.NewUploadService(db),
	}
}

// ListVendors handles GET /vendors
func (ctrl *VendorController) ListVendors(c *gin.Context) {
	vendors, meta, err := ctrl.vendors.List(parsePagination(c), c.Query("vendor_type"), parseBoolQuery(c, "is_active"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": vendors, "meta": meta})
}

// CreateVendor handles POST /vendors
func (ctrl *VendorController) CreateVendor(c *gin.Context) {
	var req services.VendorCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	vendor, err := ctrl.vendors.Create(req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": vendor})
}

// GetVendor handles GET /vendors/:id
func (ctrl *VendorController) GetVendor(c *gin.Context) {
	vendor, err := ctrl.vendors.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": vendor})
}

// UpdateVendor handles PATCH /vendors/:id
func (ctrl *VendorController) UpdateVendor(c *gin.Context) {
	var patch services.VendorUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	vendor, err := ctrl.vendors.Update(c.Param("id"), patch, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": vendor})
}

// UploadSystems handles POST /vendors/:id/uploads
func (ctrl *VendorController) UploadSystems(c *gin.Context) {
	var req services.VendorUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	upload, err := ctrl.uploads.ProcessUpload(c.Param("id"), req, actorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": upload})
}

// ListUploads handles GET /vendors/:id/uploads
func (ctrl *VendorController) ListUploads(c *gin.Context) {
	uploads, meta, err := ctrl.uploads.ListUploads(c.Param("id"), parsePagination(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": uploads, "meta": meta})
}
