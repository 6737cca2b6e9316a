package models

// SystemCategory represents the lkp_system_category table
type SystemCategory struct {
	CategoryCode       string `gorm:"primaryKey;column:category_code;size:20" json:"category_code"`
	CategoryName       string `gorm:"column:category_name;size:100;not null" json:"category_name"`
	Description        string `gorm:"column:description;size:500" json:"description,omitempty"`
	DefaultCriticality string `gorm:"column:default_criticality;size:10;not null;default:STD" json:"default_criticality"`
	SortOrder          int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	IsActive           bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides the table name for SystemCategory
func (SystemCategory) TableName() string {
	return "lkp_system_category"
}

// ValidationStatus represents the lkp_validation_status table
type ValidationStatus struct {
	StatusCode        string `gorm:"primaryKey;column:status_code;size:20" json:"status_code"`
	StatusName        string `gorm:"column:status_name;size:100;not null" json:"status_name"`
	Description       string `gorm:"column:description;size:500" json:"description,omitempty"`
	RequiresAttention bool   `gorm:"column:requires_attention;not null;default:false" json:"requires_attention"`
	SortOrder         int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	IsActive          bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides the table name for ValidationStatus
func (ValidationStatus) TableName() string {
	return "lkp_validation_status"
}

// Criticality represents the lkp_criticality table
type Criticality struct {
	CriticalityCode string `gorm:"primaryKey;column:criticality_code;size:10" json:"criticality_code"`
	CriticalityName string `gorm:"column:criticality_name;size:50;not null" json:"criticality_name"`
	Description     string `gorm:"column:description;size:500" json:"description,omitempty"`
	SortOrder       int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	IsActive        bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides the table name for Criticality
func (Criticality) TableName() string {
	return "lkp_criticality"
}

// Validation status codes that count as alerts at confirmation time.
const (
	ValidationStatusValidated    = "VALIDATED"
	ValidationStatusPending      = "PENDING_VALIDATION"
	ValidationStatusExpired      = "VAL_EXPIRED"
	ValidationStatusNotValidated = "NOT_VALIDATED"
)

// VendorTypes are the accepted vendor_type codes.
var VendorTypes = []string{
	"CRO",
	"FSP",
	"TECH_VENDOR",
	"CENTRAL_LAB",
	"IMAGING",
	"ECG_VENDOR",
	"BIOANALYTICAL",
	"LOGISTICS",
	"SPECIALTY",
	"INTERNAL",
}

// HostingModels are the accepted hosting_model codes.
var HostingModels = []string{
	"SAAS",
	"SAAS_ST",
	"PAAS",
	"IAAS",
	"ON_PREM",
	"HYBRID",
}

// DataHostingRegions are the accepted data_hosting_region codes.
var DataHostingRegions = []string{
	"EU",
	"US",
	"CHINA",
	"APAC_OTHER",
	"UK",
	"GLOBAL_DISTRIBUTED",
}
