package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctsr-api/models"
)

func TestDashboardCountsTrialsSystemsAndConfirmations(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)

	active := seedTrial(t, db, "ONC-2026-001")
	closed := seedTrial(t, db, "ONC-2020-099")
	trialSvc := NewTrialService(db)
	_, err := trialSvc.Update(closed.TrialID, TrialUpdate{
		TrialStatus: strPtr(models.TrialStatusClosed),
	}, "seed@test")
	require.NoError(t, err)

	edc := seedSystem(t, db, "RAVE_PROD_01")
	seedLink(t, db, active.TrialID, edc.InstanceID)

	systemSvc := NewSystemService(db)
	_, err = systemSvc.Create(SystemCreate{
		InstanceCode:         "LEGACY_SYS_01",
		CategoryCode:         "OTHER",
		PlatformName:         "Legacy Platform",
		ValidationStatusCode: models.ValidationStatusNotValidated,
	}, "seed@test")
	require.NoError(t, err)

	confirmationSvc := NewConfirmationService(db)
	past := models.NewDate(2020, 1, 15)
	_, err = confirmationSvc.Create(ConfirmationCreate{
		TrialID:          active.TrialID,
		ConfirmationType: models.ConfirmationTypePeriodic,
		DueDate:          &past,
	}, "seed@test")
	require.NoError(t, err)

	completed := seedConfirmation(t, db, active.TrialID)
	_, err = confirmationSvc.Submit(completed.ConfirmationID, ConfirmationSubmit{}, "lead@test")
	require.NoError(t, err)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.Trials.Total)
	assert.EqualValues(t, 1, stats.Trials.Active)

	assert.EqualValues(t, 2, stats.Systems.Total)
	assert.EqualValues(t, 2, stats.Systems.Active)
	assert.EqualValues(t, 1, stats.Systems.Validated)
	assert.EqualValues(t, 1, stats.Systems.NeedingAttention)
	assert.EqualValues(t, 1, stats.Systems.ByCriticality["CRIT"])

	assert.EqualValues(t, 2, stats.Confirmations.Total)
	assert.EqualValues(t, 1, stats.Confirmations.Pending)
	assert.EqualValues(t, 1, stats.Confirmations.Overdue)
	assert.EqualValues(t, 1, stats.Confirmations.CompletedThisMonth)
}

func TestDashboardRecentActivityMergesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)

	trial := seedTrial(t, db, "ONC-2026-001")
	system := seedSystem(t, db, "RAVE_PROD_01")
	seedLink(t, db, trial.TrialID, system.InstanceID)

	confirmation := seedConfirmation(t, db, trial.TrialID)
	confirmationSvc := NewConfirmationService(db)
	_, err := confirmationSvc.Submit(confirmation.ConfirmationID, ConfirmationSubmit{}, "lead@test")
	require.NoError(t, err)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)

	require.NotEmpty(t, stats.RecentActivity)
	assert.LessOrEqual(t, len(stats.RecentActivity), 10)

	types := map[string]bool{}
	for i, entry := range stats.RecentActivity {
		types[entry.ActivityType] = true
		if i > 0 {
			assert.False(t, stats.RecentActivity[i-1].Timestamp.Before(entry.Timestamp))
		}
	}
	assert.True(t, types[ActivityTrialCreated])
	assert.True(t, types[ActivitySystemAdded])
	assert.True(t, types[ActivityConfirmationSubmitted])
}

func TestDashboardActivityExcludesClosedTrials(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db)

	open := seedTrial(t, db, "ONC-2026-001")
	closed := seedTrial(t, db, "ONC-2020-099")
	cancelled := seedTrial(t, db, "ONC-2021-042")
	trialSvc := NewTrialService(db)
	_, err := trialSvc.Update(closed.TrialID, TrialUpdate{
		TrialStatus: strPtr(models.TrialStatusClosed),
	}, "seed@test")
	require.NoError(t, err)
	_, err = trialSvc.Update(cancelled.TrialID, TrialUpdate{
		TrialStatus: strPtr(models.TrialStatusCancelled),
	}, "seed@test")
	require.NoError(t, err)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, entry := range stats.RecentActivity {
		if entry.ActivityType == ActivityTrialCreated {
			seen[entry.EntityID] = true
		}
	}
	assert.True(t, seen[open.TrialID])
	assert.False(t, seen[closed.TrialID])
	assert.False(t, seen[cancelled.TrialID])
}
