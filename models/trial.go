package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trial statuses.
const (
	TrialStatusPlanned   = "PLANNED"
	TrialStatusActive    = "ACTIVE"
	TrialStatusClosed    = "CLOSED"
	TrialStatusCancelled = "CANCELLED"
)

// Trial represents the trials table - clinical trials synced from CTMS
type Trial struct {
	TrialID             string     `gorm:"primaryKey;column:trial_id;type:char(36)" json:"trial_id"`
	ProtocolNumber      string     `gorm:"column:protocol_number;size:50;not null;uniqueIndex" json:"protocol_number"`
	TrialTitle          string     `gorm:"column:trial_title;size:500;not null" json:"trial_title"`
	TrialPhase          *string    `gorm:"column:trial_phase;size:20" json:"trial_phase"`
	TrialStatus         string     `gorm:"column:trial_status;size:20;not null;default:PLANNED;index" json:"trial_status"`
	TherapeuticArea     *string    `gorm:"column:therapeutic_area;size:100" json:"therapeutic_area"`
	Indication          *string    `gorm:"column:indication;size:200" json:"indication"`
	TrialStartDate      *Date      `gorm:"column:trial_start_date;type:date" json:"trial_start_date"`
	PlannedDBLockDate   *Date      `gorm:"column:planned_db_lock_date;type:date" json:"planned_db_lock_date"`
	ActualDBLockDate    *Date      `gorm:"column:actual_db_lock_date;type:date" json:"actual_db_lock_date"`
	TrialCloseDate      *Date      `gorm:"column:trial_close_date;type:date" json:"trial_close_date"`
	TrialLeadName       *string    `gorm:"column:trial_lead_name;size:200" json:"trial_lead_name"`
	TrialLeadEmail      *string    `gorm:"column:trial_lead_email;size:200;index" json:"trial_lead_email"`
	CTMSTrialID         *string    `gorm:"column:ctms_trial_id;size:100" json:"ctms_trial_id"`
	LastCTMSSync        *time.Time `gorm:"column:last_ctms_sync" json:"last_ctms_sync"`
	NextConfirmationDue *Date      `gorm:"column:next_confirmation_due;type:date" json:"next_confirmation_due"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName overrides the table name for Trial
func (Trial) TableName() string {
	return "trials"
}

// BeforeCreate assigns a surrogate key when none is set.
func (t *Trial) BeforeCreate(tx *gorm.DB) error {
	if t.TrialID == "" {
		t.TrialID = uuid.NewString()
	}
	return nil
}

// Assignment statuses. REPLACED and LOCKED links no longer count as live.
const (
	AssignmentStatusActive    = "ACTIVE"
	AssignmentStatusConfirmed = "CONFIRMED"
	AssignmentStatusReplaced  = "REPLACED"
	AssignmentStatusLocked    = "LOCKED"
)

// TrialSystemLink represents the trial_system_links table. Unlinking is a
// soft update (unlinked_by/unlinked_at); rows are never deleted.
type TrialSystemLink struct {
	LinkID                    string     `gorm:"primaryKey;column:link_id;type:char(36)" json:"link_id"`
	TrialID                   string     `gorm:"column:trial_id;type:char(36);not null;index" json:"trial_id"`
	InstanceID                string     `gorm:"column:instance_id;type:char(36);not null;index" json:"instance_id"`
	AssignmentStatus          string     `gorm:"column:assignment_status;size:30;not null;default:ACTIVE;index" json:"assignment_status"`
	CriticalityCode           string     `gorm:"column:criticality_code;size:10;not null" json:"criticality_code"`
	CriticalityOverrideReason *string    `gorm:"column:criticality_override_reason;size:500" json:"criticality_override_reason"`
	UsageStartDate            Date       `gorm:"column:usage_start_date;type:date;not null" json:"usage_start_date"`
	UsageEndDate              *Date      `gorm:"column:usage_end_date;type:date" json:"usage_end_date"`
	LinkedBy                  *string    `gorm:"column:linked_by;size:200" json:"linked_by"`
	LinkedAt                  time.Time  `gorm:"column:linked_at;not null" json:"linked_at"`
	UnlinkedBy                *string    `gorm:"column:unlinked_by;size:200" json:"unlinked_by"`
	UnlinkedAt                *time.Time `gorm:"column:unlinked_at" json:"unlinked_at"`
	CreatedAt                 time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName overrides the table name for TrialSystemLink
func (TrialSystemLink) TableName() string {
	return "trial_system_links"
}

// BeforeCreate assigns a surrogate key and link timestamp when unset.
func (l *TrialSystemLink) BeforeCreate(tx *gorm.DB) error {
	if l.LinkID == "" {
		l.LinkID = uuid.NewString()
	}
	if l.LinkedAt.IsZero() {
		l.LinkedAt = time.Now().UTC()
	}
	return nil
}
