package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

// liveLinkCondition selects live trial_system_links: not yet unlinked and not
// superseded or frozen.
const liveLinkCondition = "unlinked_at IS NULL AND assignment_status NOT IN ('REPLACED', 'LOCKED')"

// TrialService handles trials and trial-system linkage.
type TrialService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTrialService(db *gorm.DB) *TrialService {
	return &TrialService{db: db, log: config.GetLogger()}
}

// TrialCreate is the request body for creating a trial.
type TrialCreate struct {
	ProtocolNumber  string       `json:"protocol_number" binding:"required,min=1,max=50"`
	TrialTitle      string       `json:"trial_title" binding:"omitempty,max=500"`
	TrialPhase      *string      `json:"trial_phase" binding:"omitempty,max=20"`
	TrialStatus     string       `json:"trial_status" binding:"omitempty,oneof=PLANNED ACTIVE CLOSED CANCELLED"`
	TherapeuticArea *string      `json:"therapeutic_area" binding:"omitempty,max=100"`
	Indication      *string      `json:"indication" binding:"omitempty,max=200"`
	TrialStartDate  *models.Date `json:"trial_start_date"`
	TrialCloseDate  *models.Date `json:"trial_close_date"`
	TrialLeadName   *string      `json:"trial_lead_name" binding:"omitempty,max=200"`
	TrialLeadEmail  *string      `json:"trial_lead_email" binding:"omitempty,email,max=200"`
	CTMSTrialID     *string      `json:"ctms_trial_id" binding:"omitempty,max=100"`
}

// TrialUpdate is a partial update; only non-nil fields are applied.
type TrialUpdate struct {
	TrialTitle          *string      `json:"trial_title" binding:"omitempty,max=500"`
	TrialPhase          *string      `json:"trial_phase" binding:"omitempty,max=20"`
	TrialStatus         *string      `json:"trial_status" binding:"omitempty,oneof=PLANNED ACTIVE CLOSED CANCELLED"`
	TherapeuticArea     *string      `json:"therapeutic_area" binding:"omitempty,max=100"`
	Indication          *string      `json:"indication" binding:"omitempty,max=200"`
	TrialStartDate      *models.Date `json:"trial_start_date"`
	TrialCloseDate      *models.Date `json:"trial_close_date"`
	TrialLeadName       *string      `json:"trial_lead_name" binding:"omitempty,max=200"`
	TrialLeadEmail      *string      `json:"trial_lead_email" binding:"omitempty,max=200"`
	CTMSTrialID         *string      `json:"ctms_trial_id" binding:"omitempty,max=100"`
	NextConfirmationDue *models.Date `json:"next_confirmation_due"`
}

// LinkCreate is the request body for linking a system to a trial.
type LinkCreate struct {
	InstanceID                string       `json:"instance_id" binding:"required,uuid"`
	CriticalityCode           string       `json:"criticality_code" binding:"required,max=10"`
	CriticalityOverrideReason *string      `json:"criticality_override_reason" binding:"omitempty,max=500"`
	UsageStartDate            *models.Date `json:"usage_start_date"`
	UsageEndDate              *models.Date `json:"usage_end_date"`
}

// LinkUpdate is a partial update of a live link.
type LinkUpdate struct {
	AssignmentStatus          *string      `json:"assignment_status" binding:"omitempty,oneof=ACTIVE CONFIRMED REPLACED LOCKED"`
	CriticalityCode           *string      `json:"criticality_code" binding:"omitempty,max=10"`
	CriticalityOverrideReason *string      `json:"criticality_override_reason" binding:"omitempty,max=500"`
	UsageStartDate            *models.Date `json:"usage_start_date"`
	UsageEndDate              *models.Date `json:"usage_end_date"`
}

// LinkedSystemDetail describes a live linked system from the trial's side.
type LinkedSystemDetail struct {
	LinkID                    string       `json:"link_id"`
	InstanceID                string       `json:"instance_id"`
	InstanceCode              string       `json:"instance_code"`
	PlatformName              string       `json:"platform_name"`
	CategoryCode              string       `json:"category_code"`
	AssignmentStatus          string       `json:"assignment_status"`
	CriticalityCode           string       `json:"criticality_code"`
	CriticalityOverrideReason *string      `json:"criticality_override_reason"`
	UsageStartDate            models.Date  `json:"usage_start_date"`
	UsageEndDate              *models.Date `json:"usage_end_date"`
	LinkedAt                  time.Time    `json:"linked_at"`
}

// TrialDetail is a trial plus its live linked systems, newest-linked first.
type TrialDetail struct {
	models.Trial
	LinkedSystems []LinkedSystemDetail `json:"linked_systems"`
}

// TrialFilters are the list filters for trials.
type TrialFilters struct {
	Search          string
	TrialStatus     string
	TrialPhase      string
	TherapeuticArea string
	TrialLeadEmail  string
}

// List returns trials ordered by protocol number.
func (s *TrialService) List(p Pagination, f TrialFilters) ([]models.Trial, PaginationMeta, error) {
	p = p.Normalize()

	query := s.db.Model(&models.Trial{})
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"LOWER(protocol_number) LIKE LOWER(?) OR LOWER(trial_title) LIKE LOWER(?) OR LOWER(therapeutic_area) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	if f.TrialStatus != "" {
		query = query.Where("trial_status = ?", f.TrialStatus)
	}
	if f.TrialPhase != "" {
		query = query.Where("trial_phase = ?", f.TrialPhase)
	}
	if f.TherapeuticArea != "" {
		query = query.Where("LOWER(therapeutic_area) LIKE LOWER(?)", "%"+f.TherapeuticArea+"%")
	}
	if f.TrialLeadEmail != "" {
		query = query.Where("trial_lead_email = ?", f.TrialLeadEmail)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	var trials []models.Trial
	if err := query.Order("protocol_number").Limit(p.Limit).Offset(p.Offset).Find(&trials).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	return trials, PaginationMeta{Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Create inserts a new trial. Duplicate protocol numbers yield a Conflict.
func (s *TrialService) Create(req TrialCreate, actor string) (*models.Trial, error) {
	s.log.WithFields(logrus.Fields{"protocol_number": req.ProtocolNumber, "user": actor}).Info("Creating trial")

	var existing models.Trial
	err := s.db.Where("protocol_number = ?", req.ProtocolNumber).First(&existing).Error
	if err == nil {
		return nil, Conflict(
			fmt.Sprintf("Trial with protocol '%s' already exists", req.ProtocolNumber),
			map[string]interface{}{"protocol_number": req.ProtocolNumber},
		)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	status := req.TrialStatus
	if status == "" {
		status = models.TrialStatusPlanned
	}

	trial := models.Trial{
		ProtocolNumber:  req.ProtocolNumber,
		TrialTitle:      req.TrialTitle,
		TrialPhase:      req.TrialPhase,
		TrialStatus:     status,
		TherapeuticArea: req.TherapeuticArea,
		Indication:      req.Indication,
		TrialStartDate:  req.TrialStartDate,
		TrialCloseDate:  req.TrialCloseDate,
		TrialLeadName:   req.TrialLeadName,
		TrialLeadEmail:  req.TrialLeadEmail,
		CTMSTrialID:     req.CTMSTrialID,
	}

	if err := s.db.Create(&trial).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to create trial due to constraint violation", nil)
		}
		return nil, err
	}

	return &trial, nil
}

// Get returns a trial with its live linked systems, newest-linked first.
func (s *TrialService) Get(trialID string) (*TrialDetail, error) {
	var trial models.Trial
	if err := s.db.Where("trial_id = ?", trialID).First(&trial).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Trial", trialID)
		}
		return nil, err
	}

	var linked []LinkedSystemDetail
	err := s.db.Table("trial_system_links AS l").
		Joins("JOIN system_instances si ON l.instance_id = si.instance_id").
		Where("l.trial_id = ?", trialID).
		Where("l.unlinked_at IS NULL AND l.assignment_status NOT IN ('REPLACED', 'LOCKED')").
		Select("l.link_id, l.instance_id, si.instance_code, si.platform_name, si.category_code, " +
			"l.assignment_status, l.criticality_code, l.criticality_override_reason, " +
			"l.usage_start_date, l.usage_end_date, l.linked_at").
		Order("l.linked_at DESC").
		Scan(&linked).Error
	if err != nil {
		return nil, err
	}

	return &TrialDetail{Trial: trial, LinkedSystems: linked}, nil
}

// Update applies the non-nil patch fields.
func (s *TrialService) Update(trialID string, patch TrialUpdate, actor string) (*models.Trial, error) {
	s.log.WithFields(logrus.Fields{"trial_id": trialID, "user": actor}).Info("Updating trial")

	var trial models.Trial
	if err := s.db.Where("trial_id = ?", trialID).First(&trial).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Trial", trialID)
		}
		return nil, err
	}

	if patch.TrialTitle != nil {
		trial.TrialTitle = *patch.TrialTitle
	}
	if patch.TrialPhase != nil {
		trial.TrialPhase = patch.TrialPhase
	}
	if patch.TrialStatus != nil {
		trial.TrialStatus = *patch.TrialStatus
	}
	if patch.TherapeuticArea != nil {
		trial.TherapeuticArea = patch.TherapeuticArea
	}
	if patch.Indication != nil {
		trial.Indication = patch.Indication
	}
	if patch.TrialStartDate != nil {
		trial.TrialStartDate = patch.TrialStartDate
	}
	if patch.TrialCloseDate != nil {
		trial.TrialCloseDate = patch.TrialCloseDate
	}
	if patch.TrialLeadName != nil {
		trial.TrialLeadName = patch.TrialLeadName
	}
	if patch.TrialLeadEmail != nil {
		trial.TrialLeadEmail = patch.TrialLeadEmail
	}
	if patch.CTMSTrialID != nil {
		trial.CTMSTrialID = patch.CTMSTrialID
	}
	if patch.NextConfirmationDue != nil {
		trial.NextConfirmationDue = patch.NextConfirmationDue
	}

	if err := s.db.Save(&trial).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to update trial due to constraint violation", nil)
		}
		return nil, err
	}

	return &trial, nil
}

// LinkSystem attaches a system to a trial. At most one live link may exist
// per (trial, system) pair; the check and insert share a transaction because
// MySQL cannot express the partial unique index of the reference schema.
func (s *TrialService) LinkSystem(trialID string, req LinkCreate, actor string) (*models.TrialSystemLink, error) {
	s.log.WithFields(logrus.Fields{
		"trial_id":    trialID,
		"instance_id": req.InstanceID,
		"user":        actor,
	}).Info("Linking system to trial")

	var link models.TrialSystemLink
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var trial models.Trial
		if err := tx.Where("trial_id = ?", trialID).First(&trial).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("Trial", trialID)
			}
			return err
		}

		var system models.SystemInstance
		if err := tx.Where("instance_id = ?", req.InstanceID).First(&system).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NotFound("System", req.InstanceID)
			}
			return err
		}

		var count int64
		err := tx.Model(&models.TrialSystemLink{}).
			Where("trial_id = ? AND instance_id = ?", trialID, req.InstanceID).
			Where(liveLinkCondition).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return Conflict(
				fmt.Sprintf("System %s is already linked to trial %s", req.InstanceID, trialID),
				nil,
			)
		}

		start := models.Today()
		if req.UsageStartDate != nil {
			start = *req.UsageStartDate
		}

		link = models.TrialSystemLink{
			TrialID:                   trialID,
			InstanceID:                req.InstanceID,
			AssignmentStatus:          models.AssignmentStatusActive,
			CriticalityCode:           req.CriticalityCode,
			CriticalityOverrideReason: req.CriticalityOverrideReason,
			UsageStartDate:            start,
			UsageEndDate:              req.UsageEndDate,
			LinkedBy:                  &actor,
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		if _, ok := AsServiceError(err); ok {
			return nil, err
		}
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to link system due to constraint violation", nil)
		}
		return nil, err
	}

	return &link, nil
}

// liveLink loads the single live link for a (trial, system) pair.
func (s *TrialService) liveLink(tx *gorm.DB, trialID, instanceID string) (*models.TrialSystemLink, error) {
	var link models.TrialSystemLink
	err := tx.Where("trial_id = ? AND instance_id = ?", trialID, instanceID).
		Where(liveLinkCondition).
		First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Active link", fmt.Sprintf("system %s in trial %s", instanceID, trialID))
		}
		return nil, err
	}
	return &link, nil
}

// UpdateLink applies the non-nil patch fields to the live link of the pair.
func (s *TrialService) UpdateLink(trialID, instanceID string, patch LinkUpdate, actor string) (*models.TrialSystemLink, error) {
	s.log.WithFields(logrus.Fields{
		"trial_id":    trialID,
		"instance_id": instanceID,
		"user":        actor,
	}).Info("Updating trial-system link")

	link, err := s.liveLink(s.db, trialID, instanceID)
	if err != nil {
		return nil, err
	}

	if patch.AssignmentStatus != nil {
		link.AssignmentStatus = *patch.AssignmentStatus
	}
	if patch.CriticalityCode != nil {
		link.CriticalityCode = *patch.CriticalityCode
	}
	if patch.CriticalityOverrideReason != nil {
		link.CriticalityOverrideReason = patch.CriticalityOverrideReason
	}
	if patch.UsageStartDate != nil {
		link.UsageStartDate = *patch.UsageStartDate
	}
	if patch.UsageEndDate != nil {
		link.UsageEndDate = patch.UsageEndDate
	}

	if err := s.db.Save(link).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to update link due to constraint violation", nil)
		}
		return nil, err
	}

	return link, nil
}

// UnlinkSystem soft-deletes the live link: unlinked_by/unlinked_at are set
// and the row stays in place for history.
func (s *TrialService) UnlinkSystem(trialID, instanceID, actor string) error {
	s.log.WithFields(logrus.Fields{
		"trial_id":    trialID,
		"instance_id": instanceID,
		"user":        actor,
	}).Info("Unlinking system from trial")

	link, err := s.liveLink(s.db, trialID, instanceID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	link.UnlinkedBy = &actor
	link.UnlinkedAt = &now

	return s.db.Save(link).Error
}
