package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

// VendorService handles vendor CRUD.
type VendorService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{db: db, log: config.GetLogger()}
}

// VendorCreate is the request body for creating a vendor.
type VendorCreate struct {
	VendorCode   string  `json:"vendor_code" binding:"required,min=2,max=50"`
	VendorName   string  `json:"vendor_name" binding:"required,max=200"`
	VendorType   string  `json:"vendor_type" binding:"required,oneof=CRO FSP TECH_VENDOR CENTRAL_LAB IMAGING ECG_VENDOR BIOANALYTICAL LOGISTICS SPECIALTY INTERNAL"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email,max=200"`
}

// VendorUpdate is a partial update; only non-nil fields are applied.
type VendorUpdate struct {
	VendorName   *string `json:"vendor_name" binding:"omitempty,max=200"`
	VendorType   *string `json:"vendor_type" binding:"omitempty,oneof=CRO FSP TECH_VENDOR CENTRAL_LAB IMAGING ECG_VENDOR BIOANALYTICAL LOGISTICS SPECIALTY INTERNAL"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=200"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,max=200"`
	IsActive     *bool   `json:"is_active"`
}

// List returns vendors filtered by type and active flag, ordered by name.
func (s *VendorService) List(p Pagination, vendorType string, isActive *bool) ([]models.Vendor, PaginationMeta, error) {
	p = p.Normalize()

	query := s.db.Model(&models.Vendor{})
	if vendorType != "" {
		query = query.Where("vendor_type = ?", vendorType)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	var vendors []models.Vendor
	if err := query.Order("vendor_name").Limit(p.Limit).Offset(p.Offset).Find(&vendors).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	return vendors, PaginationMeta{Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Create inserts a new vendor. Duplicate vendor codes yield a Conflict.
func (s *VendorService) Create(req VendorCreate, actor string) (*models.Vendor, error) {
	s.log.WithFields(logrus.Fields{"vendor_code": req.VendorCode, "user": actor}).Info("Creating vendor")

	var existing models.Vendor
	err := s.db.Where("vendor_code = ?", req.VendorCode).First(&existing).Error
	if err == nil {
		return nil, Conflict(
			fmt.Sprintf("Vendor with code '%s' already exists", req.VendorCode),
			map[string]interface{}{"vendor_code": req.VendorCode},
		)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	vendor := models.Vendor{
		VendorCode:   req.VendorCode,
		VendorName:   req.VendorName,
		VendorType:   req.VendorType,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
		CreatedBy:    &actor,
		UpdatedBy:    &actor,
	}

	if err := s.db.Create(&vendor).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to create vendor due to constraint violation", nil)
		}
		return nil, err
	}

	return &vendor, nil
}

// Get returns a vendor by id.
func (s *VendorService) Get(vendorID string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Vendor", vendorID)
		}
		return nil, err
	}
	return &vendor, nil
}

// Update applies the non-nil patch fields. An empty patch returns the row
// unchanged.
func (s *VendorService) Update(vendorID string, patch VendorUpdate, actor string) (*models.Vendor, error) {
	s.log.WithFields(logrus.Fields{"vendor_id": vendorID, "user": actor}).Info("Updating vendor")

	vendor, err := s.Get(vendorID)
	if err != nil {
		return nil, err
	}

	updated := false
	if patch.VendorName != nil {
		vendor.VendorName = *patch.VendorName
		updated = true
	}
	if patch.VendorType != nil {
		vendor.VendorType = *patch.VendorType
		updated = true
	}
	if patch.ContactName != nil {
		vendor.ContactName = patch.ContactName
		updated = true
	}
	if patch.ContactEmail != nil {
		vendor.ContactEmail = patch.ContactEmail
		updated = true
	}
	if patch.IsActive != nil {
		vendor.IsActive = *patch.IsActive
		updated = true
	}

	if !updated {
		return vendor, nil
	}

	vendor.UpdatedBy = &actor
	if err := s.db.Save(vendor).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Validation("Failed to update vendor due to constraint violation", nil)
		}
		return nil, err
	}

	return vendor, nil
}
