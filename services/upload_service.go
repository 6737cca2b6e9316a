package services

import (
	"fmt"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ctsr-api/config"
	"ctsr-api/models"
)

// UploadService ingests vendor-submitted system lists through the catalog
// rules and records the outcome in the upload log.
type UploadService struct {
	db      *gorm.DB
	systems *SystemService
	log     *logrus.Logger
}

func NewUploadService(db *gorm.DB) *UploadService {
	return &UploadService{db: db, systems: NewSystemService(db), log: config.GetLogger()}
}

// VendorUpload is the request body for a vendor system upload.
type VendorUpload struct {
	FileName      *string        `json:"file_name" binding:"omitempty,max=500"`
	SchemaVersion *string        `json:"schema_version" binding:"omitempty,max=10"`
	Systems       []SystemCreate `json:"systems" binding:"required,min=1,dive"`
}

// ProcessUpload applies each submitted system through the normal catalog
// rules. Existing instance codes are patched, new ones created, and records
// identical to the stored row count as unchanged. Per-record failures are
// collected; any failure marks the whole upload FAILED.
func (s *UploadService) ProcessUpload(vendorID string, req VendorUpload, actor string) (*models.UploadLog, error) {
	s.log.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"systems":   len(req.Systems),
		"user":      actor,
	}).Info("Processing vendor upload")

	var vendor models.Vendor
	if err := s.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("Vendor", vendorID)
		}
		return nil, err
	}

	started := time.Now().UTC()
	inFile := len(req.Systems)
	logEntry := models.UploadLog{
		VendorCode:          vendor.VendorCode,
		UploadType:          "SYSTEM_LIST",
		FileName:            req.FileName,
		SchemaVersion:       req.SchemaVersion,
		ProcessingStatus:    models.UploadStatusPending,
		InstancesInFile:     &inFile,
		ProcessingStartedAt: &started,
	}
	if err := s.db.Create(&logEntry).Error; err != nil {
		return nil, err
	}

	created, updated, unchanged := 0, 0, 0
	recordErrors := models.JSONMap{}

	for i, record := range req.Systems {
		outcome, err := s.applyRecord(record, actor)
		if err != nil {
			recordErrors[fmt.Sprintf("systems[%d]", i)] = err.Error()
			continue
		}
		switch outcome {
		case recordCreated:
			created++
		case recordUpdated:
			updated++
		default:
			unchanged++
		}
	}

	completed := time.Now().UTC()
	logEntry.InstancesCreated = created
	logEntry.InstancesUpdated = updated
	logEntry.InstancesUnchanged = unchanged
	logEntry.ProcessingCompletedAt = &completed
	if len(recordErrors) > 0 {
		logEntry.ProcessingStatus = models.UploadStatusFailed
		logEntry.ValidationErrors = recordErrors
		msg := fmt.Sprintf("%d of %d records failed validation", len(recordErrors), inFile)
		logEntry.ErrorMessage = &msg
	} else {
		logEntry.ProcessingStatus = models.UploadStatusCompleted
	}

	if err := s.db.Save(&logEntry).Error; err != nil {
		return nil, err
	}

	return &logEntry, nil
}

// ListUploads returns a vendor's upload history, newest first.
func (s *UploadService) ListUploads(vendorID string, p Pagination) ([]models.UploadLog, PaginationMeta, error) {
	var vendor models.Vendor
	if err := s.db.Where("vendor_id = ?", vendorID).First(&vendor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, PaginationMeta{}, NotFound("Vendor", vendorID)
		}
		return nil, PaginationMeta{}, err
	}

	p = p.Normalize()

	query := s.db.Model(&models.UploadLog{}).Where("vendor_code = ?", vendor.VendorCode)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	var uploads []models.UploadLog
	if err := query.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&uploads).Error; err != nil {
		return nil, PaginationMeta{}, err
	}

	return uploads, PaginationMeta{Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

type recordOutcome int

const (
	recordCreated recordOutcome = iota
	recordUpdated
	recordUnchanged
)

func (s *UploadService) applyRecord(record SystemCreate, actor string) (recordOutcome, error) {
	var existing models.SystemInstance
	err := s.db.Where("instance_code = ?", record.InstanceCode).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if _, err := s.systems.Create(record, actor); err != nil {
			return 0, err
		}
		return recordCreated, nil
	}
	if err != nil {
		return 0, err
	}

	patch := uploadPatch(record)

	candidate := existing
	applySystemPatch(&candidate, patch)
	if reflect.DeepEqual(systemAuditValues(&existing), systemAuditValues(&candidate)) {
		return recordUnchanged, nil
	}

	if _, err := s.systems.Update(existing.InstanceID, patch, actor); err != nil {
		return 0, err
	}
	return recordUpdated, nil
}

// uploadPatch converts an upload record into a partial update of the stored
// row. Uploads carry full records, so every present field is applied.
func uploadPatch(record SystemCreate) SystemUpdate {
	patch := SystemUpdate{
		PlatformVendorID:       record.PlatformVendorID,
		ServiceProviderID:      record.ServiceProviderID,
		CategoryCode:           &record.CategoryCode,
		PlatformName:           &record.PlatformName,
		PlatformVersion:        record.PlatformVersion,
		InstanceName:           record.InstanceName,
		ValidationStatusCode:   &record.ValidationStatusCode,
		ValidationDate:         record.ValidationDate,
		ValidationExpiry:       record.ValidationExpiry,
		ValidationEvidenceLink: record.ValidationEvidenceLink,
		HostingModel:           record.HostingModel,
		DataHostingRegion:      record.DataHostingRegion,
		Description:            record.Description,
		Part11Compliant:        record.Part11Compliant,
		Annex11Compliant:       record.Annex11Compliant,
		SOC2Certified:          record.SOC2Certified,
		ISO27001Certified:      record.ISO27001Certified,
		LastMajorChangeDate:    record.LastMajorChangeDate,
		LastMajorChangeDesc:    record.LastMajorChangeDesc,
		NextPlannedChangeDate:  record.NextPlannedChangeDate,
		NextPlannedChangeDesc:  record.NextPlannedChangeDesc,
	}
	if record.InstanceEnvironment != "" {
		patch.InstanceEnvironment = &record.InstanceEnvironment
	}
	if record.SupportedStudies != nil {
		patch.SupportedStudies = &record.SupportedStudies
	}
	if record.Interfaces != nil {
		patch.Interfaces = &record.Interfaces
	}
	return patch
}
