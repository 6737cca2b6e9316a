package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctsr-api/models"
)

// Walks the full register lifecycle: vendor and system onboarding, trial
// registration and linkage, periodic confirmation with snapshot capture,
// and export of the completed record.
func TestRegisterLifecycle(t *testing.T) {
	db := newTestDB(t)

	vendorSvc := NewVendorService(db)
	systemSvc := NewSystemService(db)
	trialSvc := NewTrialService(db)
	confirmationSvc := NewConfirmationService(db)

	vendor, err := vendorSvc.Create(VendorCreate{
		VendorCode: "MEDIDATA",
		VendorName: "Medidata Solutions",
		VendorType: "TECH_VENDOR",
	}, "admin@test")
	require.NoError(t, err)

	system, err := systemSvc.Create(SystemCreate{
		InstanceCode:         "RAVE_PROD_01",
		PlatformVendorID:     &vendor.VendorID,
		CategoryCode:         "EDC",
		PlatformName:         "Rave EDC",
		PlatformVersion:      strPtr("2024.2"),
		ValidationStatusCode: models.ValidationStatusValidated,
		HostingModel:         strPtr("SAAS"),
		DataHostingRegion:    strPtr("EU"),
	}, "admin@test")
	require.NoError(t, err)

	trial, err := trialSvc.Create(TrialCreate{
		ProtocolNumber: "ONC-2026-001",
		TrialTitle:     "Phase III oncology study",
		TrialStatus:    models.TrialStatusActive,
		TrialLeadEmail: strPtr("lead@test"),
	}, "lead@test")
	require.NoError(t, err)

	_, err = trialSvc.LinkSystem(trial.TrialID, LinkCreate{
		InstanceID:      system.InstanceID,
		CriticalityCode: "CRIT",
	}, "lead@test")
	require.NoError(t, err)

	confirmation, err := confirmationSvc.Create(ConfirmationCreate{
		TrialID:          trial.TrialID,
		ConfirmationType: models.ConfirmationTypePeriodic,
		DueDate:          datePtr(models.Today()),
	}, "lead@test")
	require.NoError(t, err)

	// The system drifts between creation and submit; the snapshot must hold
	// the state at submit time.
	_, err = systemSvc.Update(system.InstanceID, SystemUpdate{
		PlatformVersion: strPtr("2025.1"),
	}, "admin@test")
	require.NoError(t, err)

	detail, err := confirmationSvc.Submit(confirmation.ConfirmationID, ConfirmationSubmit{
		Notes: strPtr("Reviewed against release notes"),
	}, "lead@test")
	require.NoError(t, err)

	assert.Equal(t, models.ConfirmationStatusCompleted, detail.ConfirmationStatus)
	require.Len(t, detail.Snapshots, 1)
	require.NotNil(t, detail.Snapshots[0].PlatformVersionAt)
	assert.Equal(t, "2025.1", *detail.Snapshots[0].PlatformVersionAt)
	assert.Equal(t, "2025.1", detail.Snapshots[0].InstanceState["platform_version"])

	resp, err := confirmationSvc.GenerateExport(ExportRequest{
		ConfirmationID: confirmation.ConfirmationID,
		Format:         "EXCEL",
	}, ExcelExportGenerator{}, "lead@test")
	require.NoError(t, err)
	assert.Contains(t, resp.Filename, ".xlsx")

	// Audit trail shows both the registration and the drift.
	systemDetail, err := systemSvc.Get(system.InstanceID)
	require.NoError(t, err)
	require.Len(t, systemDetail.AuditHistory, 2)
	assert.Equal(t, models.AuditActionUpdate, systemDetail.AuditHistory[0].Action)
	assert.Equal(t, models.AuditActionCreate, systemDetail.AuditHistory[1].Action)
}
