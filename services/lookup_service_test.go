package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctsr-api/models"
)

func TestLookupBundleContainsSeededTablesAndEnums(t *testing.T) {
	db := newTestDB(t)
	svc := NewLookupService(db)

	bundle, err := svc.GetAll()
	require.NoError(t, err)

	require.NotEmpty(t, bundle.SystemCategories)
	assert.Equal(t, "EDC", bundle.SystemCategories[0].CategoryCode)
	require.Len(t, bundle.ValidationStatuses, 4)
	assert.Equal(t, models.ValidationStatusValidated, bundle.ValidationStatuses[0].StatusCode)
	require.Len(t, bundle.Criticalities, 3)
	assert.Equal(t, "CRIT", bundle.Criticalities[0].CriticalityCode)

	assert.Len(t, bundle.VendorTypes, 10)
	assert.Len(t, bundle.HostingModels, 6)
	assert.Len(t, bundle.DataHostingRegions, 6)
}

func TestLookupBundleExcludesInactiveRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewLookupService(db)

	require.NoError(t, db.Model(&models.SystemCategory{}).
		Where("category_code = ?", "OTHER").
		Update("is_active", false).Error)

	bundle, err := svc.GetAll()
	require.NoError(t, err)
	for _, category := range bundle.SystemCategories {
		assert.NotEqual(t, "OTHER", category.CategoryCode)
	}
}
