package config

import (
	"gorm.io/gorm"

	"ctsr-api/models"
)

// AutoMigrate creates the CTSR schema and seeds the lookup tables when they
// are empty. The "one live link per (trial, system)" rule is a partial unique
// index in the reference schema; MySQL has no partial indexes, so the rule is
// enforced transactionally in the trial service instead.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.SystemCategory{},
		&models.ValidationStatus{},
		&models.Criticality{},
		&models.Vendor{},
		&models.SystemInstance{},
		&models.SystemInstanceAudit{},
		&models.Trial{},
		&models.TrialSystemLink{},
		&models.Confirmation{},
		&models.LinkSnapshot{},
		&models.UploadLog{},
	)
	if err != nil {
		return err
	}
	return seedLookups(db)
}

func seedLookups(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.SystemCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		categories := []models.SystemCategory{
			{CategoryCode: "EDC", CategoryName: "Electronic Data Capture", DefaultCriticality: "CRIT", SortOrder: 1, IsActive: true},
			{CategoryCode: "IRT", CategoryName: "Interactive Response Technology", DefaultCriticality: "CRIT", SortOrder: 2, IsActive: true},
			{CategoryCode: "ETMF", CategoryName: "Electronic Trial Master File", DefaultCriticality: "MAJ", SortOrder: 3, IsActive: true},
			{CategoryCode: "CTMS", CategoryName: "Clinical Trial Management System", DefaultCriticality: "MAJ", SortOrder: 4, IsActive: true},
			{CategoryCode: "EPRO", CategoryName: "Electronic Patient-Reported Outcomes", DefaultCriticality: "CRIT", SortOrder: 5, IsActive: true},
			{CategoryCode: "SAFETY", CategoryName: "Safety / Pharmacovigilance", DefaultCriticality: "CRIT", SortOrder: 6, IsActive: true},
			{CategoryCode: "LAB", CategoryName: "Central Lab System", DefaultCriticality: "MAJ", SortOrder: 7, IsActive: true},
			{CategoryCode: "STATS", CategoryName: "Statistical Computing", DefaultCriticality: "STD", SortOrder: 8, IsActive: true},
			{CategoryCode: "OTHER", CategoryName: "Other", DefaultCriticality: "STD", SortOrder: 99, IsActive: true},
		}
		if err := db.Create(&categories).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&models.ValidationStatus{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		statuses := []models.ValidationStatus{
			{StatusCode: models.ValidationStatusValidated, StatusName: "Validated", SortOrder: 1, IsActive: true},
			{StatusCode: models.ValidationStatusPending, StatusName: "Validation In Progress", RequiresAttention: true, SortOrder: 2, IsActive: true},
			{StatusCode: models.ValidationStatusExpired, StatusName: "Validation Expired", RequiresAttention: true, SortOrder: 3, IsActive: true},
			{StatusCode: models.ValidationStatusNotValidated, StatusName: "Not Validated", RequiresAttention: true, SortOrder: 4, IsActive: true},
		}
		if err := db.Create(&statuses).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&models.Criticality{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		criticalities := []models.Criticality{
			{CriticalityCode: "CRIT", CriticalityName: "Critical", SortOrder: 1, IsActive: true},
			{CriticalityCode: "MAJ", CriticalityName: "Major", SortOrder: 2, IsActive: true},
			{CriticalityCode: "STD", CriticalityName: "Standard", SortOrder: 3, IsActive: true},
		}
		if err := db.Create(&criticalities).Error; err != nil {
			return err
		}
	}

	return nil
}
