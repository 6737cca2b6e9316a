package services

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

// AdminService aggregates dashboard statistics.
type AdminService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, log: config.GetLogger()}
}

// Activity feed entry types.
const (
	ActivityTrialCreated          = "TRIAL_CREATED"
	ActivitySystemAdded           = "SYSTEM_ADDED"
	ActivityConfirmationSubmitted = "CONFIRMATION_SUBMITTED"
)

// TrialStats summarizes the trial registry.
type TrialStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// SystemStats summarizes the system catalog.
type SystemStats struct {
	Total            int64            `json:"total"`
	Active           int64            `json:"active"`
	Validated        int64            `json:"validated"`
	NeedingAttention int64            `json:"needing_attention"`
	ByCriticality    map[string]int64 `json:"by_criticality"`
}

// ConfirmationStats summarizes the confirmation workload.
type ConfirmationStats struct {
	Total              int64 `json:"total"`
	Pending            int64 `json:"pending"`
	Overdue            int64 `json:"overdue"`
	CompletedThisMonth int64 `json:"completed_this_month"`
}

// ValidationAlertStats is a placeholder until the alerting pipeline lands.
type ValidationAlertStats struct {
	ExpiringSoon int64 `json:"expiring_soon"`
	Expired      int64 `json:"expired"`
}

// ActivityEntry is one row of the recent-activity feed.
type ActivityEntry struct {
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	EntityID     string    `json:"entity_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	Trials           TrialStats           `json:"trials"`
	Systems          SystemStats          `json:"systems"`
	Confirmations    ConfirmationStats    `json:"confirmations"`
	ValidationAlerts ValidationAlertStats `json:"validation_alerts"`
	RecentActivity   []ActivityEntry      `json:"recent_activity"`
}

// GetDashboardStats builds the dashboard aggregate in several small queries.
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		Systems: SystemStats{ByCriticality: map[string]int64{}},
	}

	// Trials. Closed and cancelled trials fall out of the headline count.
	err := s.db.Model(&models.Trial{}).
		Where("trial_status NOT IN ?", []string{models.TrialStatusClosed, models.TrialStatusCancelled}).
		Count(&stats.Trials.Total).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.TrialSystemLink{}).
		Joins("JOIN system_instances si ON trial_system_links.instance_id = si.instance_id").
		Where("trial_system_links.assignment_status = ? AND trial_system_links.unlinked_at IS NULL AND si.is_active = ?",
			models.AssignmentStatusActive, true).
		Distinct("trial_system_links.trial_id").
		Count(&stats.Trials.Active).Error
	if err != nil {
		return nil, err
	}

	// Systems.
	if err := s.db.Model(&models.SystemInstance{}).Count(&stats.Systems.Total).Error; err != nil {
		return nil, err
	}
	err = s.db.Model(&models.SystemInstance{}).
		Where("is_active = ?", true).
		Count(&stats.Systems.Active).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&models.SystemInstance{}).
		Where("is_active = ? AND validation_status_code = ?", true, models.ValidationStatusValidated).
		Count(&stats.Systems.Validated).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&models.SystemInstance{}).
		Where("is_active = ? AND validation_status_code IN ?", true,
			[]string{models.ValidationStatusNotValidated, models.ValidationStatusPending}).
		Count(&stats.Systems.NeedingAttention).Error
	if err != nil {
		return nil, err
	}

	var criticalityRows []struct {
		CriticalityCode string
		Count           int64
	}
	err = s.db.Model(&models.TrialSystemLink{}).
		Joins("JOIN system_instances si ON trial_system_links.instance_id = si.instance_id").
		Where("trial_system_links.assignment_status = ? AND trial_system_links.unlinked_at IS NULL AND si.is_active = ?",
			models.AssignmentStatusActive, true).
		Select("trial_system_links.criticality_code, COUNT(*) AS count").
		Group("trial_system_links.criticality_code").
		Scan(&criticalityRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range criticalityRows {
		stats.Systems.ByCriticality[row.CriticalityCode] = row.Count
	}

	// Confirmations.
	if err := s.db.Model(&models.Confirmation{}).Count(&stats.Confirmations.Total).Error; err != nil {
		return nil, err
	}
	err = s.db.Model(&models.Confirmation{}).
		Where("confirmation_status = ?", models.ConfirmationStatusPending).
		Count(&stats.Confirmations.Pending).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&models.Confirmation{}).
		Where("confirmation_status = ? AND due_date < ?", models.ConfirmationStatusPending, models.Today()).
		Count(&stats.Confirmations.Overdue).Error
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	monthStart := models.NewDate(now.Year(), now.Month(), 1)
	err = s.db.Model(&models.Confirmation{}).
		Where("confirmation_status = ? AND confirmed_date >= ?", models.ConfirmationStatusCompleted, monthStart).
		Count(&stats.Confirmations.CompletedThisMonth).Error
	if err != nil {
		return nil, err
	}

	// TODO: populate from the validation alert pipeline once systems carry
	// expiry tracking jobs; the frontend already renders these fields.
	stats.ValidationAlerts = ValidationAlertStats{}

	activity, err := s.recentActivity(10)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = activity

	return stats, nil
}

// recentActivity merges the newest trial creations, system additions and
// completed confirmations into one feed, newest first.
func (s *AdminService) recentActivity(n int) ([]ActivityEntry, error) {
	entries := make([]ActivityEntry, 0, 3*n)

	var trials []models.Trial
	err := s.db.Where("trial_status NOT IN ?", []string{models.TrialStatusClosed, models.TrialStatusCancelled}).
		Order("created_at DESC").Limit(n).Find(&trials).Error
	if err != nil {
		return nil, err
	}
	for _, t := range trials {
		entries = append(entries, ActivityEntry{
			ActivityType: ActivityTrialCreated,
			Description:  "Trial " + t.ProtocolNumber + " registered",
			EntityID:     t.TrialID,
			Timestamp:    t.CreatedAt,
		})
	}

	var systems []models.SystemInstance
	err = s.db.Where("is_active = ?", true).Order("created_at DESC").Limit(n).Find(&systems).Error
	if err != nil {
		return nil, err
	}
	for _, sys := range systems {
		entries = append(entries, ActivityEntry{
			ActivityType: ActivitySystemAdded,
			Description:  "System " + sys.InstanceCode + " added to catalog",
			EntityID:     sys.InstanceID,
			Timestamp:    sys.CreatedAt,
		})
	}

	var confirmations []struct {
		models.Confirmation
		ProtocolNumber string
	}
	err = s.db.Table("confirmations AS c").
		Joins("JOIN trials t ON c.trial_id = t.trial_id").
		Where("c.confirmation_status = ?", models.ConfirmationStatusCompleted).
		Select("c.*, t.protocol_number").
		Order("c.created_at DESC").
		Limit(n).
		Scan(&confirmations).Error
	if err != nil {
		return nil, err
	}
	for _, c := range confirmations {
		ts := c.CreatedAt
		if c.ConfirmedDate != nil {
			ts = c.ConfirmedDate.Time()
		}
		entries = append(entries, ActivityEntry{
			ActivityType: ActivityConfirmationSubmitted,
			Description:  "Confirmation completed for " + c.ProtocolNumber,
			EntityID:     c.ConfirmationID,
			Timestamp:    ts,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
