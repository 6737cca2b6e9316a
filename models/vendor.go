package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor represents the vendors table - platform vendors, service providers, CROs
type Vendor struct {
	VendorID     string    `gorm:"primaryKey;column:vendor_id;type:char(36)" json:"vendor_id"`
	VendorCode   string    `gorm:"column:vendor_code;size:50;not null;uniqueIndex" json:"vendor_code"`
	VendorName   string    `gorm:"column:vendor_name;size:200;not null" json:"vendor_name"`
	VendorType   string    `gorm:"column:vendor_type;size:20;not null;index" json:"vendor_type"`
	ContactName  *string   `gorm:"column:contact_name;size:200" json:"contact_name"`
	ContactEmail *string   `gorm:"column:contact_email;size:200" json:"contact_email"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
	CreatedBy    *string   `gorm:"column:created_by;size:200" json:"created_by,omitempty"`
	UpdatedBy    *string   `gorm:"column:updated_by;size:200" json:"updated_by,omitempty"`
}

// TableName overrides the table name for Vendor
func (Vendor) TableName() string {
	return "vendors"
}

// BeforeCreate assigns a surrogate key when none is set.
func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.VendorID == "" {
		v.VendorID = uuid.NewString()
	}
	return nil
}
