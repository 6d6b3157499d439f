package animal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"
	"savepaws-backend/services/activity"
	"savepaws-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&Profile{},
		&ProgressUpdate{},
		&activity.Log{},
	)

	node, err := gen.NewSnowflakeNode()
	require.NoError(t, err)

	recorder := activity.NewRecorder(activity.RecorderParams{DB: db, Node: node})
	svc := NewService(ServiceParams{DB: db, Node: node, Recorder: recorder})
	return svc, db
}

func seedProfile(t *testing.T, db *gorm.DB) *Profile {
	t.Helper()
	profile := &Profile{
		ID:     "animal-1",
		Name:   "Whiskers",
		Status: StatusArchived,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestCreateProgressUpdate(t *testing.T) {
	svc, db := newTestService(t)
	seedProfile(t, db)

	update, err := svc.CreateProgressUpdate(context.Background(), CreateProgressUpdateRequest{
		AnimalID:       "animal-1",
		Title:          "Post-surgery checkup",
		RecoveryStatus: "Recovering",
		CreatedBy:      "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, RecoveryRecovering, update.RecoveryStatus)
	require.False(t, update.UpdateDate.IsZero())

	var logs int64
	require.NoError(t, db.Model(&activity.Log{}).Count(&logs).Error)
	require.Equal(t, int64(1), logs)
}

func TestCreateProgressUpdateInvalidStatus(t *testing.T) {
	svc, db := newTestService(t)
	seedProfile(t, db)

	_, err := svc.CreateProgressUpdate(context.Background(), CreateProgressUpdateRequest{
		AnimalID:       "animal-1",
		Title:          "Checkup",
		RecoveryStatus: "Feeling Great",
	})
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}

func TestCreateProgressUpdateUnknownAnimal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateProgressUpdate(context.Background(), CreateProgressUpdateRequest{
		AnimalID:       "missing",
		Title:          "Checkup",
		RecoveryStatus: "Recovering",
	})
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestUpdateAndDeleteProgressUpdate(t *testing.T) {
	svc, db := newTestService(t)
	seedProfile(t, db)

	update, err := svc.CreateProgressUpdate(context.Background(), CreateProgressUpdateRequest{
		AnimalID:       "animal-1",
		Title:          "Intake",
		RecoveryStatus: "Under Treatment",
	})
	require.NoError(t, err)

	recovered := "Fully Recovered"
	edited, err := svc.UpdateProgressUpdate(context.Background(), update.ID, UpdateProgressUpdateRequest{
		RecoveryStatus: &recovered,
	})
	require.NoError(t, err)
	require.Equal(t, RecoveryFullyRecovered, edited.RecoveryStatus)

	require.NoError(t, svc.DeleteProgressUpdate(context.Background(), update.ID, "admin-1"))

	updates, err := svc.ListProgressUpdates(context.Background(), "animal-1")
	require.NoError(t, err)
	require.Empty(t, updates)
}
