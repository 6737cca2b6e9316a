package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Confirmation types and statuses. PENDING -> COMPLETED is the only
// transition; COMPLETED is terminal. "Overdue" is a filter (PENDING with
// due_date in the past), never a stored status.
const (
	ConfirmationTypePeriodic = "PERIODIC"
	ConfirmationTypeDBLock   = "DB_LOCK"

	ConfirmationStatusPending   = "PENDING"
	ConfirmationStatusCompleted = "COMPLETED"
)

// Confirmation represents the confirmations table - periodic and DB lock
// attestations that a trial's registered systems are accurate.
type Confirmation struct {
	ConfirmationID        string    `gorm:"primaryKey;column:confirmation_id;type:char(36)" json:"confirmation_id"`
	TrialID               string    `gorm:"column:trial_id;type:char(36);not null;index" json:"trial_id"`
	ConfirmationType      string    `gorm:"column:confirmation_type;size:20;not null" json:"confirmation_type"`
	ConfirmationStatus    string    `gorm:"column:confirmation_status;size:20;not null;default:PENDING;index" json:"confirmation_status"`
	DueDate               *Date     `gorm:"column:due_date;type:date;index" json:"due_date"`
	ConfirmedDate         *Date     `gorm:"column:confirmed_date;type:date" json:"confirmed_date"`
	ConfirmedBy           *string   `gorm:"column:confirmed_by;size:200" json:"confirmed_by"`
	Notes                 *string   `gorm:"column:notes;type:text" json:"notes"`
	SystemsCount          *int      `gorm:"column:systems_count" json:"systems_count"`
	ValidationAlertsCount *int      `gorm:"column:validation_alerts_count" json:"validation_alerts_count"`
	ExportGenerated       bool      `gorm:"column:export_generated;not null;default:false" json:"export_generated"`
	ExportID              *string   `gorm:"column:export_id;type:char(36)" json:"export_id"`
	CreatedAt             time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName overrides the table name for Confirmation
func (Confirmation) TableName() string {
	return "confirmations"
}

// BeforeCreate assigns a surrogate key when none is set.
func (c *Confirmation) BeforeCreate(tx *gorm.DB) error {
	if c.ConfirmationID == "" {
		c.ConfirmationID = uuid.NewString()
	}
	return nil
}

// LinkSnapshot represents the link_snapshots table - write-once point-in-time
// captures of a linked system's descriptive state at confirmation.
type LinkSnapshot struct {
	SnapshotID         string    `gorm:"primaryKey;column:snapshot_id;type:char(36)" json:"snapshot_id"`
	ConfirmationID     string    `gorm:"column:confirmation_id;type:char(36);not null;index" json:"confirmation_id"`
	LinkID             string    `gorm:"column:link_id;type:char(36);not null;index" json:"link_id"`
	InstanceID         string    `gorm:"column:instance_id;type:char(36);not null" json:"instance_id"`
	InstanceState      JSONMap   `gorm:"column:instance_state;type:text;not null" json:"instance_state"`
	ValidationStatusAt *string   `gorm:"column:validation_status_at;size:20" json:"validation_status_at"`
	PlatformVersionAt  *string   `gorm:"column:platform_version_at;size:50" json:"platform_version_at"`
	CreatedAt          time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName overrides the table name for LinkSnapshot
func (LinkSnapshot) TableName() string {
	return "link_snapshots"
}

// BeforeCreate assigns a surrogate key when none is set.
func (s *LinkSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.SnapshotID == "" {
		s.SnapshotID = uuid.NewString()
	}
	return nil
}
