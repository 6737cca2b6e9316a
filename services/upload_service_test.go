package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctsr-api/models"
)

func TestProcessUploadCountsCreatedUpdatedUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := NewUploadService(db)
	vendor := seedVendor(t, db, "MEDIDATA")
	seedSystem(t, db, "RAVE_PROD_01")

	upload, err := svc.ProcessUpload(vendor.VendorID, VendorUpload{
		FileName: strPtr("medidata_q1.json"),
		Systems: []SystemCreate{
			{
				// unchanged: matches the stored row
				InstanceCode:         "RAVE_PROD_01",
				CategoryCode:         "EDC",
				PlatformName:         "Rave EDC",
				ValidationStatusCode: models.ValidationStatusValidated,
			},
			{
				// updated: version changes
				InstanceCode:         "RAVE_PROD_01",
				CategoryCode:         "EDC",
				PlatformName:         "Rave EDC",
				PlatformVersion:      strPtr("2024.2"),
				ValidationStatusCode: models.ValidationStatusValidated,
			},
			{
				// created: new code
				InstanceCode:         "RAVE_UAT_01",
				CategoryCode:         "EDC",
				PlatformName:         "Rave EDC",
				ValidationStatusCode: models.ValidationStatusPending,
			},
		},
	}, "alice@test")
	require.NoError(t, err)

	assert.Equal(t, models.UploadStatusCompleted, upload.ProcessingStatus)
	assert.Equal(t, 1, upload.InstancesCreated)
	assert.Equal(t, 1, upload.InstancesUpdated)
	assert.Equal(t, 1, upload.InstancesUnchanged)
	require.NotNil(t, upload.InstancesInFile)
	assert.Equal(t, 3, *upload.InstancesInFile)
	require.NotNil(t, upload.ProcessingCompletedAt)

	// The log row carries the vendor code even though callers address the
	// vendor by id, same as the other vendor routes.
	assert.Equal(t, "MEDIDATA", upload.VendorCode)

	uploads, meta, err := svc.ListUploads(vendor.VendorID, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.Total)
	require.Len(t, uploads, 1)
	assert.Equal(t, upload.UploadID, uploads[0].UploadID)
}

func TestProcessUploadMarksFailedOnBadRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewUploadService(db)
	vendor := seedVendor(t, db, "MEDIDATA")

	upload, err := svc.ProcessUpload(vendor.VendorID, VendorUpload{
		Systems: []SystemCreate{
			{
				InstanceCode:         "ok_system_01",
				CategoryCode:         "EDC",
				PlatformName:         "Rave EDC",
				ValidationStatusCode: models.ValidationStatusValidated,
			},
			{
				// instance code too short
				InstanceCode:         "ab",
				CategoryCode:         "EDC",
				PlatformName:         "Rave EDC",
				ValidationStatusCode: models.ValidationStatusValidated,
			},
		},
	}, "alice@test")
	require.NoError(t, err)

	assert.Equal(t, models.UploadStatusFailed, upload.ProcessingStatus)
	assert.Equal(t, 1, upload.InstancesCreated)
	require.NotNil(t, upload.ErrorMessage)
	assert.Contains(t, upload.ValidationErrors, "systems[1]")
}

func TestProcessUploadUnknownVendor(t *testing.T) {
	db := newTestDB(t)
	svc := NewUploadService(db)

	_, err := svc.ProcessUpload("00000000-0000-0000-0000-000000000000", VendorUpload{
		Systems: []SystemCreate{{
			InstanceCode:         "some_system",
			CategoryCode:         "EDC",
			PlatformName:         "Rave EDC",
			ValidationStatusCode: models.ValidationStatusValidated,
		}},
	}, "alice@test")
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)
}
