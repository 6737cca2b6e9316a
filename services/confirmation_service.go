package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

// ConfirmationService handles the periodic and DB lock confirmation workflow.
type ConfirmationService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewConfirmationService(db *gorm.DB) *ConfirmationService {
	return &ConfirmationService{db: db, log: config.GetLogger()}
}

// ConfirmationCreate is the request body for creating a confirmation.
type ConfirmationCreate struct {
	TrialID          string       `json:"trial_id" binding:"required,uuid"`
	ConfirmationType string       `json:"confirmation_type" binding:"required,oneof=PERIODIC DB_LOCK"`
	DueDate          *models.Date `json:"due_date"`
	Notes            *string      `json:"notes" binding:"omitempty,max=2000"`
}

// ConfirmationUpdate is a partial update; rejected once the confirmation
// is completed.
type ConfirmationUpdate struct {
	DueDate *models.Date `json:"due_date"`
	Notes   *string      `json:"notes" binding:"omitempty,max=2000"`
}

// ConfirmationSubmit is the request body for submitting a confirmation.
// CaptureSnapshots defaults to true; a false value completes the
// confirmation without freezing link state.
type ConfirmationSubmit struct {
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	CaptureSnapshots *bool   `json:"capture_snapshots"`
}

// SnapshotDetail is a link snapshot joined with current system identity.
type SnapshotDetail struct {
	models.LinkSnapshot
	InstanceCode string `json:"instance_code"`
	PlatformName string `json:"platform_name"`
}

// ConfirmationDetail is a confirmation plus its trial protocol and snapshots,
// newest first.
type ConfirmationDetail struct {
	models.Confirmation
	TrialProtocolNumber string           `json:"trial_protocol_number"`
	Snapshots           []SnapshotDetail `json:"snapshots"`
}

// ConfirmationFilters are the list filters for confirmations.
type ConfirmationFilters struct {
	TrialID            string
	ConfirmationStatus string
	ConfirmationType   string
	Overdue            bool
}

// List returns confirmations ordered by due date, most recent first.
func (s *ConfirmationService) List(p Pagination, f ConfirmationFilters) ([]models.Confirmation, PaginationMeta, error) {
	p = p.Normalize()

	query := s.db.Model(&models.Confirmation{})
	if f.TrialID != "" {
		query = query.Where("trial_id = ?", f.TrialID)
	}
	if f.ConfirmationStatus != "" {
		query = query.Where("confirmation_status = ?", f.ConfirmationStatus)
	}
	if f.ConfirmationType != "" {
		query = query.Where("confirmation_type = ?", f.ConfirmationType)
	}
	if f.Overdue {
		query = query.Where("confirmation_status = ? AND due_date < ?",
			models.ConfirmationStatusPending, models.Today())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	var confirmations []models.Confirmation
	if err := query.Order("due_date DESC").Limit(p.Limit).Offset(p.Offset).Find(&confirmations).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	return confirmations, PaginationMeta{Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Create opens a PENDING confirmation for a trial. systems_count records the
// number of live links at creation time for reporting.
func (s *ConfirmationService) Create(req ConfirmationCreate, actor string) (*models.Confirmation, error) {
	s.log.WithFields(logrus.Fields{
		"trial_id":          req.TrialID,
		"confirmation_type": req.ConfirmationType,
		"user":              actor,
	}).Info("Creating confirmation")

	var trial models.Trial
	if err := s.db.Where("trial_id = ?", req.TrialID).First(&trial).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Trial", req.TrialID)
		}
		return nil, err
	}

	var count int64
	err := s.db.Model(&models.TrialSystemLink{}).
		Where("trial_id = ?", req.TrialID).
		Where(liveLinkCondition).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	systemsCount := int(count)

	confirmation := models.Confirmation{
		TrialID:            req.TrialID,
		ConfirmationType:   req.ConfirmationType,
		ConfirmationStatus: models.ConfirmationStatusPending,
		DueDate:            req.DueDate,
		Notes:              req.Notes,
		SystemsCount:       &systemsCount,
	}

	if err := s.db.Create(&confirmation).Error; err != nil {
		return nil, err
	}

	return &confirmation, nil
}

// Get returns a confirmation with its trial protocol number and snapshots.
func (s *ConfirmationService) Get(confirmationID string) (*ConfirmationDetail, error) {
	var confirmation models.Confirmation
	if err := s.db.Where("confirmation_id = ?", confirmationID).First(&confirmation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Confirmation", confirmationID)
		}
		return nil, err
	}

	var trial models.Trial
	if err := s.db.Where("trial_id = ?", confirmation.TrialID).First(&trial).Error; err != nil {
		return nil, err
	}

	var snapshots []SnapshotDetail
	err := s.db.Table("link_snapshots AS sn").
		Joins("JOIN system_instances si ON sn.instance_id = si.instance_id").
		Where("sn.confirmation_id = ?", confirmationID).
		Select("sn.*, si.instance_code, si.platform_name").
		Order("sn.created_at DESC").
		Scan(&snapshots).Error
	if err != nil {
		return nil, err
	}

	return &ConfirmationDetail{
		Confirmation:        confirmation,
		TrialProtocolNumber: trial.ProtocolNumber,
		Snapshots:           snapshots,
	}, nil
}

// Update changes due date or notes on a pending confirmation.
func (s *ConfirmationService) Update(confirmationID string, patch ConfirmationUpdate, actor string) (*models.Confirmation, error) {
	s.log.WithFields(logrus.Fields{"confirmation_id": confirmationID, "user": actor}).Info("Updating confirmation")

	var confirmation models.Confirmation
	if err := s.db.Where("confirmation_id = ?", confirmationID).First(&confirmation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Confirmation", confirmationID)
		}
		return nil, err
	}

	if confirmation.ConfirmationStatus == models.ConfirmationStatusCompleted {
		return nil, Validation("Cannot update a completed confirmation", nil)
	}

	if patch.DueDate != nil {
		confirmation.DueDate = patch.DueDate
	}
	if patch.Notes != nil {
		confirmation.Notes = patch.Notes
	}

	if err := s.db.Save(&confirmation).Error; err != nil {
		return nil, err
	}

	return &confirmation, nil
}

// Submit completes a pending confirmation: the status flip, snapshot capture
// and alert count all commit in one transaction. The status flip is a
// conditional update so concurrent submits cannot both succeed.
func (s *ConfirmationService) Submit(confirmationID string, req ConfirmationSubmit, actor string) (*ConfirmationDetail, error) {
	s.log.WithFields(logrus.Fields{"confirmation_id": confirmationID, "user": actor}).Info("Submitting confirmation")

	capture := req.CaptureSnapshots == nil || *req.CaptureSnapshots

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var confirmation models.Confirmation
		if err := tx.Where("confirmation_id = ?", confirmationID).First(&confirmation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("Confirmation", confirmationID)
			}
			return err
		}

		if confirmation.ConfirmationStatus == models.ConfirmationStatusCompleted {
			return Validation("Confirmation has already been submitted", nil)
		}

		var links []models.TrialSystemLink
		err := tx.Where("trial_id = ?", confirmation.TrialID).
			Where(liveLinkCondition).
			Order("linked_at DESC").
			Find(&links).Error
		if err != nil {
			return err
		}

		alertCount := 0
		for _, link := range links {
			var system models.SystemInstance
			if err := tx.Where("instance_id = ?", link.InstanceID).First(&system).Error; err != nil {
				return err
			}

			if system.ValidationStatusCode == models.ValidationStatusExpired ||
				system.ValidationStatusCode == models.ValidationStatusNotValidated {
				alertCount++
			}

			if !capture {
				continue
			}

			snapshot := models.LinkSnapshot{
				ConfirmationID:     confirmationID,
				LinkID:             link.LinkID,
				InstanceID:         link.InstanceID,
				InstanceState:      instanceStateBlob(&system, &link),
				ValidationStatusAt: &system.ValidationStatusCode,
				PlatformVersionAt:  system.PlatformVersion,
			}
			if err := tx.Create(&snapshot).Error; err != nil {
				return err
			}
		}

		notes := confirmation.Notes
		if req.Notes != nil && *req.Notes != "" {
			if notes != nil && *notes != "" {
				combined := *notes + "\n" + *req.Notes
				notes = &combined
			} else {
				notes = req.Notes
			}
		}

		// systems_count stays at its creation-time value; only the alert
		// count reflects the state at submit.
		today := models.Today()
		updates := map[string]interface{}{
			"confirmation_status":     models.ConfirmationStatusCompleted,
			"confirmed_date":          today,
			"confirmed_by":            actor,
			"notes":                   notes,
			"validation_alerts_count": alertCount,
		}

		result := tx.Model(&models.Confirmation{}).
			Where("confirmation_id = ? AND confirmation_status = ?",
				confirmationID, models.ConfirmationStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return Validation("Confirmation has already been submitted", nil)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	detail, err := s.Get(confirmationID)
	if err != nil {
		return nil, err
	}

	s.sendReceipt(detail)

	return detail, nil
}

// sendReceipt emails the trial lead after a successful submit. Delivery is
// best-effort; failures are logged and never surfaced to the caller.
func (s *ConfirmationService) sendReceipt(detail *ConfirmationDetail) {
	var trial models.Trial
	if err := s.db.Where("trial_id = ?", detail.TrialID).First(&trial).Error; err != nil {
		return
	}
	if trial.TrialLeadEmail == nil || *trial.TrialLeadEmail == "" {
		return
	}

	confirmedBy := ""
	if detail.ConfirmedBy != nil {
		confirmedBy = *detail.ConfirmedBy
	}
	systems := 0
	if detail.SystemsCount != nil {
		systems = *detail.SystemsCount
	}
	alerts := 0
	if detail.ValidationAlertsCount != nil {
		alerts = *detail.ValidationAlertsCount
	}

	subject := fmt.Sprintf("Confirmation completed for %s", detail.TrialProtocolNumber)
	body := fmt.Sprintf(
		"<p>A %s confirmation for trial <strong>%s</strong> was completed by %s.</p>"+
			"<p>Systems confirmed: %d<br>Validation alerts: %d</p>",
		detail.ConfirmationType, detail.TrialProtocolNumber, confirmedBy, systems, alerts,
	)

	if err := config.SendMail([]string{*trial.TrialLeadEmail}, subject, body); err != nil {
		s.log.WithError(err).WithField("confirmation_id", detail.ConfirmationID).
			Warn("Failed to send confirmation receipt email")
	}
}

// instanceStateBlob captures the descriptive state of a linked system for the
// write-once snapshot record.
func instanceStateBlob(system *models.SystemInstance, link *models.TrialSystemLink) models.JSONMap {
	blob := models.JSONMap{
		"instance_code":          system.InstanceCode,
		"platform_name":          system.PlatformName,
		"platform_version":       strValue(system.PlatformVersion),
		"category_code":          system.CategoryCode,
		"validation_status_code": system.ValidationStatusCode,
		"validation_date":        dateValue(system.ValidationDate),
		"validation_expiry":      dateValue(system.ValidationExpiry),
		"hosting_model":          strValue(system.HostingModel),
		"data_hosting_region":    strValue(system.DataHostingRegion),
		"criticality_code":       link.CriticalityCode,
		"assignment_status":      link.AssignmentStatus,
	}
	return blob
}

// ExportRequest is the request body for generating a confirmation export.
type ExportRequest struct {
	ConfirmationID string `json:"confirmation_id" binding:"required,uuid"`
	Format         string `json:"format" binding:"omitempty,oneof=PDF EXCEL"`
}

// GenerateExport produces a downloadable record of a completed confirmation.
func (s *ConfirmationService) GenerateExport(req ExportRequest, generator ExportGenerator, actor string) (*ExportResponse, error) {
	s.log.WithFields(logrus.Fields{
		"confirmation_id": req.ConfirmationID,
		"format":          req.Format,
		"user":            actor,
	}).Info("Generating confirmation export")

	detail, err := s.Get(req.ConfirmationID)
	if err != nil {
		return nil, err
	}
	if detail.ConfirmationStatus != models.ConfirmationStatusCompleted {
		return nil, Validation("Can only export completed confirmations", nil)
	}

	format := req.Format
	if format == "" {
		format = "PDF"
	}

	resp, err := generator.Generate(detail, format)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.Confirmation{}).
		Where("confirmation_id = ?", req.ConfirmationID).
		Updates(map[string]interface{}{
			"export_generated": true,
			"export_id":        resp.ExportID,
		}).Error
	if err != nil {
		return nil, err
	}

	return resp, nil
}
