package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctsr-api/models"
)

func TestTrialCreateRejectsDuplicateProtocol(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	seedTrial(t, db, "ONC-2026-001")

	_, err := svc.Create(TrialCreate{
		ProtocolNumber: "ONC-2026-001",
		TrialTitle:     "Duplicate",
	}, "alice@test")
	require.Error(t, err)

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, svcErr.Code)
}

func TestTrialCreateDefaultsStatusToPlanned(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)

	trial, err := svc.Create(TrialCreate{
		ProtocolNumber: "CARD-2026-010",
		TrialTitle:     "Cardio study",
	}, "alice@test")
	require.NoError(t, err)
	assert.Equal(t, models.TrialStatusPlanned, trial.TrialStatus)
}

func TestLinkSystemDefaultsAndConflictOnSecondLiveLink(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	trial := seedTrial(t, db, "ONC-2026-001")
	system := seedSystem(t, db, "RAVE_PROD_01")

	link, err := svc.LinkSystem(trial.TrialID, LinkCreate{
		InstanceID:      system.InstanceID,
		CriticalityCode: "CRIT",
	}, "alice@test")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusActive, link.AssignmentStatus)
	assert.Equal(t, models.Today(), link.UsageStartDate)
	require.NotNil(t, link.LinkedBy)
	assert.Equal(t, "alice@test", *link.LinkedBy)

	_, err = svc.LinkSystem(trial.TrialID, LinkCreate{
		InstanceID:      system.InstanceID,
		CriticalityCode: "MAJ",
	}, "alice@test")
	require.Error(t, err)

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, svcErr.Code)
}

func TestLinkSystemUnknownTrialOrSystem(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	trial := seedTrial(t, db, "ONC-2026-001")

	_, err := svc.LinkSystem("00000000-0000-0000-0000-000000000000", LinkCreate{
		InstanceID:      "irrelevant",
		CriticalityCode: "CRIT",
	}, "alice@test")
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)

	_, err = svc.LinkSystem(trial.TrialID, LinkCreate{
		InstanceID:      "00000000-0000-0000-0000-000000000000",
		CriticalityCode: "CRIT",
	}, "alice@test")
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)
}

func TestUnlinkIsSoftAndAllowsRelink(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	trial := seedTrial(t, db, "ONC-2026-001")
	system := seedSystem(t, db, "RAVE_PROD_01")
	first := seedLink(t, db, trial.TrialID, system.InstanceID)

	require.NoError(t, svc.UnlinkSystem(trial.TrialID, system.InstanceID, "bob@test"))

	var stored models.TrialSystemLink
	require.NoError(t, db.Where("link_id = ?", first.LinkID).First(&stored).Error)
	require.NotNil(t, stored.UnlinkedAt)
	require.NotNil(t, stored.UnlinkedBy)
	assert.Equal(t, "bob@test", *stored.UnlinkedBy)

	second, err := svc.LinkSystem(trial.TrialID, LinkCreate{
		InstanceID:      system.InstanceID,
		CriticalityCode: "STD",
	}, "bob@test")
	require.NoError(t, err)
	assert.NotEqual(t, first.LinkID, second.LinkID)
}

func TestUpdateLinkRequiresLiveLink(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	trial := seedTrial(t, db, "ONC-2026-001")
	system := seedSystem(t, db, "RAVE_PROD_01")
	seedLink(t, db, trial.TrialID, system.InstanceID)

	link, err := svc.UpdateLink(trial.TrialID, system.InstanceID, LinkUpdate{
		AssignmentStatus: strPtr(models.AssignmentStatusConfirmed),
	}, "bob@test")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusConfirmed, link.AssignmentStatus)

	require.NoError(t, svc.UnlinkSystem(trial.TrialID, system.InstanceID, "bob@test"))

	_, err = svc.UpdateLink(trial.TrialID, system.InstanceID, LinkUpdate{
		CriticalityCode: strPtr("MAJ"),
	}, "bob@test")
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)
}

func TestTrialGetListsLiveLinksNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	trial := seedTrial(t, db, "ONC-2026-001")
	edc := seedSystem(t, db, "RAVE_PROD_01")
	irt := seedSystem(t, db, "IRT_PROD_01")

	seedLink(t, db, trial.TrialID, edc.InstanceID)
	seedLink(t, db, trial.TrialID, irt.InstanceID)
	require.NoError(t, svc.UnlinkSystem(trial.TrialID, edc.InstanceID, "bob@test"))

	detail, err := svc.Get(trial.TrialID)
	require.NoError(t, err)
	require.Len(t, detail.LinkedSystems, 1)
	assert.Equal(t, "IRT_PROD_01", detail.LinkedSystems[0].InstanceCode)
	assert.Equal(t, "EDC", detail.LinkedSystems[0].CategoryCode)
}

func TestTrialListFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrialService(db)
	seedTrial(t, db, "ONC-2026-001")

	_, err := svc.Create(TrialCreate{
		ProtocolNumber:  "CARD-2026-010",
		TrialTitle:      "Heart failure study",
		TrialStatus:     models.TrialStatusPlanned,
		TherapeuticArea: strPtr("Cardiology"),
	}, "seed@test")
	require.NoError(t, err)

	trials, meta, err := svc.List(Pagination{}, TrialFilters{Search: "heart"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.Total)
	require.Len(t, trials, 1)
	assert.Equal(t, "CARD-2026-010", trials[0].ProtocolNumber)

	trials, _, err = svc.List(Pagination{}, TrialFilters{TrialStatus: models.TrialStatusActive})
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.Equal(t, "ONC-2026-001", trials[0].ProtocolNumber)
}
