package services

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

var instanceCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{5,100}$`)

// SystemService handles the system catalog: CRUD plus the append-only audit
// trail of field-level changes.
type SystemService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewSystemService(db *gorm.DB) *SystemService {
	return &SystemService{db: db, log: config.GetLogger()}
}

// SystemCreate is the request body for registering a system instance.
type SystemCreate struct {
	InstanceCode           string               `json:"instance_code" binding:"required"`
	PlatformVendorID       *string              `json:"platform_vendor_id"`
	ServiceProviderID      *string              `json:"service_provider_id"`
	CategoryCode           string               `json:"category_code" binding:"required,max=20"`
	PlatformName           string               `json:"platform_name" binding:"required,max=200"`
	PlatformVersion        *string              `json:"platform_version" binding:"omitempty,max=50"`
	InstanceName           *string              `json:"instance_name" binding:"omitempty,max=200"`
	InstanceEnvironment    string               `json:"instance_environment"`
	ValidationStatusCode   string               `json:"validation_status_code" binding:"required,max=20"`
	ValidationDate         *models.Date         `json:"validation_date"`
	ValidationExpiry       *models.Date         `json:"validation_expiry"`
	ValidationEvidenceLink *string              `json:"validation_evidence_link" binding:"omitempty,max=500"`
	HostingModel           *string              `json:"hosting_model" binding:"omitempty,oneof=SAAS SAAS_ST PAAS IAAS ON_PREM HYBRID"`
	DataHostingRegion      *string              `json:"data_hosting_region" binding:"omitempty,oneof=EU US CHINA APAC_OTHER UK GLOBAL_DISTRIBUTED"`
	Description            *string              `json:"description"`
	SupportedStudies       models.StringList    `json:"supported_studies"`
	Interfaces             models.InterfaceList `json:"interfaces"`
	Part11Compliant        *bool                `json:"part11_compliant"`
	Annex11Compliant       *bool                `json:"annex11_compliant"`
	SOC2Certified          *bool                `json:"soc2_certified"`
	ISO27001Certified      *bool                `json:"iso27001_certified"`
	LastMajorChangeDate    *models.Date         `json:"last_major_change_date"`
	LastMajorChangeDesc    *string              `json:"last_major_change_desc" binding:"omitempty,max=500"`
	NextPlannedChangeDate  *models.Date         `json:"next_planned_change_date"`
	NextPlannedChangeDesc  *string              `json:"next_planned_change_desc" binding:"omitempty,max=500"`
}

// SystemUpdate is a partial update; only non-nil fields are applied.
type SystemUpdate struct {
	PlatformVendorID       *string               `json:"platform_vendor_id"`
	ServiceProviderID      *string               `json:"service_provider_id"`
	CategoryCode           *string               `json:"category_code" binding:"omitempty,max=20"`
	PlatformName           *string               `json:"platform_name" binding:"omitempty,min=1,max=200"`
	PlatformVersion        *string               `json:"platform_version" binding:"omitempty,max=50"`
	InstanceName           *string               `json:"instance_name" binding:"omitempty,max=200"`
	InstanceEnvironment    *string               `json:"instance_environment"`
	ValidationStatusCode   *string               `json:"validation_status_code" binding:"omitempty,max=20"`
	ValidationDate         *models.Date          `json:"validation_date"`
	ValidationExpiry       *models.Date          `json:"validation_expiry"`
	ValidationEvidenceLink *string               `json:"validation_evidence_link" binding:"omitempty,max=500"`
	HostingModel           *string               `json:"hosting_model" binding:"omitempty,oneof=SAAS SAAS_ST PAAS IAAS ON_PREM HYBRID"`
	DataHostingRegion      *string               `json:"data_hosting_region" binding:"omitempty,oneof=EU US CHINA APAC_OTHER UK GLOBAL_DISTRIBUTED"`
	Description            *string               `json:"description"`
	SupportedStudies       *models.StringList    `json:"supported_studies"`
	Interfaces             *models.InterfaceList `json:"interfaces"`
	Part11Compliant        *bool                 `json:"part11_compliant"`
	Annex11Compliant       *bool                 `json:"annex11_compliant"`
	SOC2Certified          *bool                 `json:"soc2_certified"`
	ISO27001Certified      *bool                 `json:"iso27001_certified"`
	LastMajorChangeDate    *models.Date          `json:"last_major_change_date"`
	LastMajorChangeDesc    *string               `json:"last_major_change_desc" binding:"omitempty,max=500"`
	NextPlannedChangeDate  *models.Date          `json:"next_planned_change_date"`
	NextPlannedChangeDesc  *string               `json:"next_planned_change_desc" binding:"omitempty,max=500"`
	IsActive               *bool                 `json:"is_active"`
}

// TrialLinkSummary describes a live trial linkage from the system's side.
type TrialLinkSummary struct {
	TrialID          string `json:"trial_id"`
	ProtocolNumber   string `json:"protocol_number"`
	TrialTitle       string `json:"trial_title"`
	CriticalityCode  string `json:"criticality_code"`
	AssignmentStatus string `json:"assignment_status"`
}

// SystemDetail is a system plus its live trial links and recent audit trail.
type SystemDetail struct {
	models.SystemInstance
	LinkedTrials []TrialLinkSummary           `json:"linked_trials"`
	AuditHistory []models.SystemInstanceAudit `json:"audit_history"`
}

// SystemFilters are the list filters for the catalog.
type SystemFilters struct {
	CategoryCode      string
	ValidationStatus  string
	DataHostingRegion string
	VendorID          string
	IsActive          *bool
	Search            string
}

// List returns catalog entries ordered by instance code.
func (s *SystemService) List(p Pagination, f SystemFilters) ([]models.SystemInstance, PaginationMeta, error) {
	p = p.Normalize()

	query := s.db.Model(&models.SystemInstance{})
	if f.CategoryCode != "" {
		query = query.Where("category_code = ?", f.CategoryCode)
	}
	if f.ValidationStatus != "" {
		query = query.Where("validation_status_code = ?", f.ValidationStatus)
	}
	if f.DataHostingRegion != "" {
		query = query.Where("data_hosting_region = ?", f.DataHostingRegion)
	}
	if f.VendorID != "" {
		query = query.Where("platform_vendor_id = ? OR service_provider_id = ?", f.VendorID, f.VendorID)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"LOWER(instance_code) LIKE LOWER(?) OR LOWER(platform_name) LIKE LOWER(?) OR LOWER(instance_name) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	var systems []models.SystemInstance
	if err := query.Order("instance_code").Limit(p.Limit).Offset(p.Offset).Find(&systems).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	return systems, PaginationMeta{Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Create registers a system instance and appends a CREATE audit record in
// the same transaction.
func (s *SystemService) Create(req SystemCreate, actor string) (*models.SystemInstance, error) {
	s.log.WithFields(logrus.Fields{"instance_code": req.InstanceCode, "user": actor}).Info("Creating system")

	if !instanceCodePattern.MatchString(req.InstanceCode) {
		return nil, Validation(
			"instance_code must be 5-100 characters of letters, digits, underscore or hyphen",
			map[string]interface{}{"instance_code": req.InstanceCode},
		)
	}

	var existing models.SystemInstance
	err := s.db.Where("instance_code = ?", req.InstanceCode).First(&existing).Error
	if err == nil {
		return nil, Conflict(
			fmt.Sprintf("System with code '%s' already exists", req.InstanceCode),
			map[string]interface{}{"instance_code": req.InstanceCode},
		)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	environment := req.InstanceEnvironment
	if environment == "" {
		environment = "PRODUCTION"
	}

	system := models.SystemInstance{
		InstanceCode:           req.InstanceCode,
		PlatformVendorID:       req.PlatformVendorID,
		ServiceProviderID:      req.ServiceProviderID,
		CategoryCode:           req.CategoryCode,
		PlatformName:           req.PlatformName,
		PlatformVersion:        req.PlatformVersion,
		InstanceName:           req.InstanceName,
		InstanceEnvironment:    environment,
		ValidationStatusCode:   req.ValidationStatusCode,
		ValidationDate:         req.ValidationDate,
		ValidationExpiry:       req.ValidationExpiry,
		ValidationEvidenceLink: req.ValidationEvidenceLink,
		HostingModel:           req.HostingModel,
		DataHostingRegion:      req.DataHostingRegion,
		Description:            req.Description,
		SupportedStudies:       req.SupportedStudies,
		Interfaces:             req.Interfaces,
		Part11Compliant:        req.Part11Compliant,
		Annex11Compliant:       req.Annex11Compliant,
		SOC2Certified:          req.SOC2Certified,
		ISO27001Certified:      req.ISO27001Certified,
		LastMajorChangeDate:    req.LastMajorChangeDate,
		LastMajorChangeDesc:    req.LastMajorChangeDesc,
		NextPlannedChangeDate:  req.NextPlannedChangeDate,
		NextPlannedChangeDesc:  req.NextPlannedChangeDesc,
		IsActive:               true,
		CreatedBy:              &actor,
		UpdatedBy:              &actor,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&system).Error; err != nil {
			return err
		}
		audit := models.SystemInstanceAudit{
			InstanceID: system.InstanceID,
			Action:     models.AuditActionCreate,
			ChangedBy:  &actor,
			OldValues:  nil,
			NewValues:  systemAuditValues(&system),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, Conflict("Failed to create system due to constraint violation", nil)
		}
		return nil, err
	}

	return &system, nil
}

// Get returns a system with its live trial links and the last 20 audit
// records, newest first.
func (s *SystemService) Get(instanceID string) (*SystemDetail, error) {
	var system models.SystemInstance
	if err := s.db.Where("instance_id = ?", instanceID).First(&system).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("System", instanceID)
		}
		return nil, err
	}

	var linked []TrialLinkSummary
	err := s.db.Table("trial_system_links AS l").
		Joins("JOIN trials t ON l.trial_id = t.trial_id").
		Where("l.instance_id = ? AND l.unlinked_at IS NULL AND l.assignment_status IN ?", instanceID,
			[]string{models.AssignmentStatusActive, models.AssignmentStatusConfirmed}).
		Select("t.trial_id, t.protocol_number, t.trial_title, l.criticality_code, l.assignment_status").
		Scan(&linked).Error
	if err != nil {
		return nil, err
	}

	var audit []models.SystemInstanceAudit
	err = s.db.Where("instance_id = ?", instanceID).
		Order("changed_at DESC").
		Limit(20).
		Find(&audit).Error
	if err != nil {
		return nil, err
	}

	return &SystemDetail{SystemInstance: system, LinkedTrials: linked, AuditHistory: audit}, nil
}

// Update applies the non-nil patch fields. An audit record is written iff at
// least one stored value actually changed, restricted to exactly the changed
// keys; a no-op patch returns the unchanged row and writes nothing.
func (s *SystemService) Update(instanceID string, patch SystemUpdate, actor string) (*models.SystemInstance, error) {
	s.log.WithFields(logrus.Fields{"instance_id": instanceID, "user": actor}).Info("Updating system")

	var system models.SystemInstance
	if err := s.db.Where("instance_id = ?", instanceID).First(&system).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("System", instanceID)
		}
		return nil, err
	}

	oldValues := systemAuditValues(&system)
	applySystemPatch(&system, patch)
	newValues := systemAuditValues(&system)

	changedOld := models.JSONMap{}
	changedNew := models.JSONMap{}
	for key, newVal := range newValues {
		if !reflect.DeepEqual(oldValues[key], newVal) {
			changedOld[key] = oldValues[key]
			changedNew[key] = newVal
		}
	}

	if len(changedNew) == 0 {
		return &system, nil
	}

	system.UpdatedBy = &actor
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&system).Error; err != nil {
			return err
		}
		audit := models.SystemInstanceAudit{
			InstanceID: instanceID,
			Action:     models.AuditActionUpdate,
			ChangedBy:  &actor,
			OldValues:  changedOld,
			NewValues:  changedNew,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, Validation("Failed to update system due to constraint violation", nil)
		}
		return nil, err
	}

	return &system, nil
}

func applySystemPatch(system *models.SystemInstance, patch SystemUpdate) {
	if patch.PlatformVendorID != nil {
		system.PlatformVendorID = patch.PlatformVendorID
	}
	if patch.ServiceProviderID != nil {
		system.ServiceProviderID = patch.ServiceProviderID
	}
	if patch.CategoryCode != nil {
		system.CategoryCode = *patch.CategoryCode
	}
	if patch.PlatformName != nil {
		system.PlatformName = *patch.PlatformName
	}
	if patch.PlatformVersion != nil {
		system.PlatformVersion = patch.PlatformVersion
	}
	if patch.InstanceName != nil {
		system.InstanceName = patch.InstanceName
	}
	if patch.InstanceEnvironment != nil {
		system.InstanceEnvironment = *patch.InstanceEnvironment
	}
	if patch.ValidationStatusCode != nil {
		system.ValidationStatusCode = *patch.ValidationStatusCode
	}
	if patch.ValidationDate != nil {
		system.ValidationDate = patch.ValidationDate
	}
	if patch.ValidationExpiry != nil {
		system.ValidationExpiry = patch.ValidationExpiry
	}
	if patch.ValidationEvidenceLink != nil {
		system.ValidationEvidenceLink = patch.ValidationEvidenceLink
	}
	if patch.HostingModel != nil {
		system.HostingModel = patch.HostingModel
	}
	if patch.DataHostingRegion != nil {
		system.DataHostingRegion = patch.DataHostingRegion
	}
	if patch.Description != nil {
		system.Description = patch.Description
	}
	if patch.SupportedStudies != nil {
		system.SupportedStudies = *patch.SupportedStudies
	}
	if patch.Interfaces != nil {
		system.Interfaces = *patch.Interfaces
	}
	if patch.Part11Compliant != nil {
		system.Part11Compliant = patch.Part11Compliant
	}
	if patch.Annex11Compliant != nil {
		system.Annex11Compliant = patch.Annex11Compliant
	}
	if patch.SOC2Certified != nil {
		system.SOC2Certified = patch.SOC2Certified
	}
	if patch.ISO27001Certified != nil {
		system.ISO27001Certified = patch.ISO27001Certified
	}
	if patch.LastMajorChangeDate != nil {
		system.LastMajorChangeDate = patch.LastMajorChangeDate
	}
	if patch.LastMajorChangeDesc != nil {
		system.LastMajorChangeDesc = patch.LastMajorChangeDesc
	}
	if patch.NextPlannedChangeDate != nil {
		system.NextPlannedChangeDate = patch.NextPlannedChangeDate
	}
	if patch.NextPlannedChangeDesc != nil {
		system.NextPlannedChangeDesc = patch.NextPlannedChangeDesc
	}
	if patch.IsActive != nil {
		system.IsActive = *patch.IsActive
	}
}

// systemAuditValues maps the domain values of a system to JSON-safe scalars.
// The diff is computed over these stored values, not over a serialized
// response projection, so formatting can never register a spurious change.
func systemAuditValues(s *models.SystemInstance) models.JSONMap {
	return models.JSONMap{
		"instance_code":            s.InstanceCode,
		"platform_vendor_id":       strValue(s.PlatformVendorID),
		"service_provider_id":      strValue(s.ServiceProviderID),
		"category_code":            s.CategoryCode,
		"platform_name":            s.PlatformName,
		"platform_version":         strValue(s.PlatformVersion),
		"instance_name":            strValue(s.InstanceName),
		"instance_environment":     s.InstanceEnvironment,
		"validation_status_code":   s.ValidationStatusCode,
		"validation_date":          dateValue(s.ValidationDate),
		"validation_expiry":        dateValue(s.ValidationExpiry),
		"validation_evidence_link": strValue(s.ValidationEvidenceLink),
		"hosting_model":            strValue(s.HostingModel),
		"data_hosting_region":      strValue(s.DataHostingRegion),
		"description":              strValue(s.Description),
		"supported_studies":        stringListValue(s.SupportedStudies),
		"interfaces":               interfaceListValue(s.Interfaces),
		"part11_compliant":         boolValue(s.Part11Compliant),
		"annex11_compliant":        boolValue(s.Annex11Compliant),
		"soc2_certified":           boolValue(s.SOC2Certified),
		"iso27001_certified":       boolValue(s.ISO27001Certified),
		"last_major_change_date":   dateValue(s.LastMajorChangeDate),
		"last_major_change_desc":   strValue(s.LastMajorChangeDesc),
		"next_planned_change_date": dateValue(s.NextPlannedChangeDate),
		"next_planned_change_desc": strValue(s.NextPlannedChangeDesc),
		"is_active":                s.IsActive,
	}
}

func strValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func boolValue(p *bool) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func dateValue(p *models.Date) interface{} {
	if p == nil {
		return nil
	}
	return p.String()
}

func stringListValue(l models.StringList) interface{} {
	if l == nil {
		return nil
	}
	out := make([]interface{}, len(l))
	for i, v := range l {
		out[i] = v
	}
	return out
}

func interfaceListValue(l models.InterfaceList) interface{} {
	if l == nil {
		return nil
	}
	out := make([]interface{}, len(l))
	for i, iface := range l {
		out[i] = map[string]interface{}{
			"system_name": iface.SystemName,
			"direction":   iface.Direction,
			"data_type":   iface.DataType,
		}
	}
	return out
}
