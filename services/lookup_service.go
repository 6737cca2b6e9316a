package services

import (
	"gorm.io/gorm"

	"ctsr-api/models"
)

// LookupService serves the reference data bundle used by dropdowns.
type LookupService struct {
	db *gorm.DB
}

func NewLookupService(db *gorm.DB) *LookupService {
	return &LookupService{db: db}
}

// LookupBundle is every lookup table and static enumeration in one payload.
type LookupBundle struct {
	SystemCategories   []models.SystemCategory   `json:"system_categories"`
	ValidationStatuses []models.ValidationStatus `json:"validation_statuses"`
	Criticalities      []models.Criticality      `json:"criticalities"`
	VendorTypes        []string                  `json:"vendor_types"`
	HostingModels      []string                  `json:"hosting_models"`
	DataHostingRegions []string                  `json:"data_hosting_regions"`
}

// GetAll returns active lookup rows in display order plus the static enums.
func (s *LookupService) GetAll() (*LookupBundle, error) {
	bundle := &LookupBundle{
		VendorTypes:        models.VendorTypes,
		HostingModels:      models.HostingModels,
		DataHostingRegions: models.DataHostingRegions,
	}

	err := s.db.Where("is_active = ?", true).Order("sort_order").Find(&bundle.SystemCategories).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Where("is_active = ?", true).Order("sort_order").Find(&bundle.ValidationStatuses).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Where("is_active = ?", true).Order("sort_order").Find(&bundle.Criticalities).Error
	if err != nil {
		return nil, err
	}

	return bundle, nil
}
