package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemInstance represents the system_instances table - the catalog of
// computerized systems used in trials (EDC, IRT, eTMF, ...).
type SystemInstance struct {
	InstanceID             string        `gorm:"primaryKey;column:instance_id;type:char(36)" json:"instance_id"`
	InstanceCode           string        `gorm:"column:instance_code;size:100;not null;uniqueIndex" json:"instance_code"`
	PlatformVendorID       *string       `gorm:"column:platform_vendor_id;type:char(36);index" json:"platform_vendor_id"`
	ServiceProviderID      *string       `gorm:"column:service_provider_id;type:char(36);index" json:"service_provider_id"`
	CategoryCode           string        `gorm:"column:category_code;size:20;not null;index" json:"category_code"`
	PlatformName           string        `gorm:"column:platform_name;size:200;not null" json:"platform_name"`
	PlatformVersion        *string       `gorm:"column:platform_version;size:50" json:"platform_version"`
	InstanceName           *string       `gorm:"column:instance_name;size:200" json:"instance_name"`
	InstanceEnvironment    string        `gorm:"column:instance_environment;size:20;not null;default:PRODUCTION" json:"instance_environment"`
	ValidationStatusCode   string        `gorm:"column:validation_status_code;size:20;not null;index" json:"validation_status_code"`
	ValidationDate         *Date         `gorm:"column:validation_date;type:date" json:"validation_date"`
	ValidationExpiry       *Date         `gorm:"column:validation_expiry;type:date" json:"validation_expiry"`
	ValidationEvidenceLink *string       `gorm:"column:validation_evidence_link;size:500" json:"validation_evidence_link"`
	HostingModel           *string       `gorm:"column:hosting_model;size:20" json:"hosting_model"`
	DataHostingRegion      *string       `gorm:"column:data_hosting_region;size:20;index" json:"data_hosting_region"`
	Description            *string       `gorm:"column:description;type:text" json:"description"`
	SupportedStudies       StringList    `gorm:"column:supported_studies;type:text" json:"supported_studies"`
	Interfaces             InterfaceList `gorm:"column:interfaces;type:text" json:"interfaces"`
	Part11Compliant        *bool         `gorm:"column:part11_compliant" json:"part11_compliant"`
	Annex11Compliant       *bool         `gorm:"column:annex11_compliant" json:"annex11_compliant"`
	SOC2Certified          *bool         `gorm:"column:soc2_certified" json:"soc2_certified"`
	ISO27001Certified      *bool         `gorm:"column:iso27001_certified" json:"iso27001_certified"`
	LastMajorChangeDate    *Date         `gorm:"column:last_major_change_date;type:date" json:"last_major_change_date"`
	LastMajorChangeDesc    *string       `gorm:"column:last_major_change_desc;size:500" json:"last_major_change_desc"`
	NextPlannedChangeDate  *Date         `gorm:"column:next_planned_change_date;type:date" json:"next_planned_change_date"`
	NextPlannedChangeDesc  *string       `gorm:"column:next_planned_change_desc;size:500" json:"next_planned_change_desc"`
	IsActive               bool          `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt              time.Time     `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"column:updated_at;not null" json:"updated_at"`
	CreatedBy              *string       `gorm:"column:created_by;size:200" json:"created_by,omitempty"`
	UpdatedBy              *string       `gorm:"column:updated_by;size:200" json:"updated_by,omitempty"`
}

// TableName overrides the table name for SystemInstance
func (SystemInstance) TableName() string {
	return "system_instances"
}

// BeforeCreate assigns a surrogate key when none is set.
func (s *SystemInstance) BeforeCreate(tx *gorm.DB) error {
	if s.InstanceID == "" {
		s.InstanceID = uuid.NewString()
	}
	return nil
}

// Audit actions recorded against system instances.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
)

// SystemInstanceAudit represents the system_instances_audit table.
// Rows are append-only: one per committed CREATE/UPDATE, never mutated.
type SystemInstanceAudit struct {
	AuditID    string    `gorm:"primaryKey;column:audit_id;type:char(36)" json:"audit_id"`
	InstanceID string    `gorm:"column:instance_id;type:char(36);not null;index" json:"instance_id"`
	Action     string    `gorm:"column:action;size:10;not null" json:"action"`
	ChangedAt  time.Time `gorm:"column:changed_at;not null;index" json:"changed_at"`
	ChangedBy  *string   `gorm:"column:changed_by;size:200" json:"changed_by"`
	OldValues  JSONMap   `gorm:"column:old_values;type:text" json:"old_values"`
	NewValues  JSONMap   `gorm:"column:new_values;type:text" json:"new_values"`
}

// TableName overrides the table name for SystemInstanceAudit
func (SystemInstanceAudit) TableName() string {
	return "system_instances_audit"
}

// BeforeCreate assigns a surrogate key and change timestamp when unset.
func (a *SystemInstanceAudit) BeforeCreate(tx *gorm.DB) error {
	if a.AuditID == "" {
		a.AuditID = uuid.NewString()
	}
	if a.ChangedAt.IsZero() {
		a.ChangedAt = time.Now().UTC()
	}
	return nil
}
