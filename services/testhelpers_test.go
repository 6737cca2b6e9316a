package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ctsr-api/config"
	"ctsr-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.AutoMigrate(db))
	return db
}

func seedVendor(t *testing.T, db *gorm.DB, code string) *models.Vendor {
	t.Helper()

	svc := NewVendorService(db)
	vendor, err := svc.Create(VendorCreate{
		VendorCode: code,
		VendorName: "Vendor " + code,
		VendorType: "TECH_VENDOR",
	}, "seed@test")
	require.NoError(t, err)
	return vendor
}

func seedSystem(t *testing.T, db *gorm.DB, code string) *models.SystemInstance {
	t.Helper()

	svc := NewSystemService(db)
	system, err := svc.Create(SystemCreate{
		InstanceCode:         code,
		CategoryCode:         "EDC",
		PlatformName:         "Rave EDC",
		ValidationStatusCode: models.ValidationStatusValidated,
	}, "seed@test")
	require.NoError(t, err)
	return system
}

func seedTrial(t *testing.T, db *gorm.DB, protocol string) *models.Trial {
	t.Helper()

	svc := NewTrialService(db)
	trial, err := svc.Create(TrialCreate{
		ProtocolNumber: protocol,
		TrialTitle:     "Trial " + protocol,
		TrialStatus:    models.TrialStatusActive,
	}, "seed@test")
	require.NoError(t, err)
	return trial
}

func seedLink(t *testing.T, db *gorm.DB, trialID, instanceID string) *models.TrialSystemLink {
	t.Helper()

	svc := NewTrialService(db)
	link, err := svc.LinkSystem(trialID, LinkCreate{
		InstanceID:      instanceID,
		CriticalityCode: "CRIT",
	}, "seed@test")
	require.NoError(t, err)
	return link
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func datePtr(d models.Date) *models.Date { return &d }
