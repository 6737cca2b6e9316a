package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload processing statuses.
const (
	UploadStatusPending   = "PENDING"
	UploadStatusCompleted = "COMPLETED"
	UploadStatusFailed    = "FAILED"
)

// UploadLog represents the upload_log table - one row per vendor-submitted
// system file and the outcome of processing it.
type UploadLog struct {
	UploadID              string     `gorm:"primaryKey;column:upload_id;type:char(36)" json:"upload_id"`
	VendorCode            string     `gorm:"column:vendor_code;size:50;not null;index" json:"vendor_code"`
	UploadType            string     `gorm:"column:upload_type;size:20;not null" json:"upload_type"`
	FileName              *string    `gorm:"column:file_name;size:500" json:"file_name"`
	FileSizeBytes         *int64     `gorm:"column:file_size_bytes" json:"file_size_bytes"`
	ProcessingStatus      string     `gorm:"column:processing_status;size:20;not null;default:PENDING;index" json:"processing_status"`
	SchemaVersion         *string    `gorm:"column:schema_version;size:10" json:"schema_version"`
	InstancesInFile       *int       `gorm:"column:instances_in_file" json:"instances_in_file"`
	InstancesCreated      int        `gorm:"column:instances_created;not null;default:0" json:"instances_created"`
	InstancesUpdated      int        `gorm:"column:instances_updated;not null;default:0" json:"instances_updated"`
	InstancesUnchanged    int        `gorm:"column:instances_unchanged;not null;default:0" json:"instances_unchanged"`
	ValidationErrors      JSONMap    `gorm:"column:validation_errors;type:text" json:"validation_errors"`
	ProcessingStartedAt   *time.Time `gorm:"column:processing_started_at" json:"processing_started_at"`
	ProcessingCompletedAt *time.Time `gorm:"column:processing_completed_at" json:"processing_completed_at"`
	ErrorMessage          *string    `gorm:"column:error_message;type:text" json:"error_message"`
	CreatedAt             time.Time  `gorm:"column:created_at;not null;index" json:"created_at"`
}

// TableName overrides the table name for UploadLog
func (UploadLog) TableName() string {
	return "upload_log"
}

// BeforeCreate assigns a surrogate key when none is set.
func (u *UploadLog) BeforeCreate(tx *gorm.DB) error {
	if u.UploadID == "" {
		u.UploadID = uuid.NewString()
	}
	return nil
}
