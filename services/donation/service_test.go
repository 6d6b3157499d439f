package donation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"savepaws-backend/pkg/config"
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"
	"savepaws-backend/services/animal"
	"savepaws-backend/services/reward"
	"savepaws-backend/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&animal.Profile{},
		&Transaction{},
		&reward.LedgerEntry{},
	)

	node, err := gen.NewSnowflakeNode()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Rewards.EarnRate = 1
	cfg.Rewards.EarnValidityMonths = 12

	svc := NewService(ServiceParams{DB: db, Node: node, Config: cfg})
	return svc, db
}

func seedAnimal(t *testing.T, db *gorm.DB, goal, raised float64, status animal.Status) *animal.Profile {
	t.Helper()
	profile := &animal.Profile{
		ID:           "animal-1",
		Name:         "Luna",
		FundingGoal:  goal,
		AmountRaised: raised,
		Status:       status,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestCaptureIncrementsRaised(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 0, animal.StatusActive)

	result, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   100,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, float64(100), result.AcceptedAmount)
	require.False(t, result.GoalReached)
	require.Equal(t, int64(100), result.PointsEarned)

	var profile animal.Profile
	require.NoError(t, db.First(&profile, "id = ?", "animal-1").Error)
	require.Equal(t, float64(100), profile.AmountRaised)
	require.Equal(t, animal.StatusActive, profile.Status)
}

func TestCaptureCapsAtGoalAndFlipsFunded(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 950, animal.StatusActive)

	result, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   200,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, float64(50), result.AcceptedAmount)
	require.True(t, result.GoalReached)

	var profile animal.Profile
	require.NoError(t, db.First(&profile, "id = ?", "animal-1").Error)
	require.Equal(t, float64(1000), profile.AmountRaised)
	require.Equal(t, animal.StatusFunded, profile.Status)
}

func TestCaptureRejectedWhenGoalReached(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 1000, animal.StatusActive)

	_, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   10,
	})
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestCaptureRejectedForInactiveAnimal(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 100, animal.StatusArchived)

	_, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   10,
	})
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestCaptureEarnEntryForKnownDonor(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 0, animal.StatusActive)

	result, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   75,
		UserID:   "user-1",
	})
	require.NoError(t, err)

	var entry reward.LedgerEntry
	require.NoError(t, db.First(&entry, "user_id = ?", "user-1").Error)
	require.Equal(t, int64(75), entry.Points)
	require.Equal(t, reward.EntryEarn, entry.Type)
	require.Equal(t, "DONATION", entry.Source)
	require.NotNil(t, entry.ReferenceID)
	require.Equal(t, result.Transaction.ID, *entry.ReferenceID)
	require.NotNil(t, entry.ExpiryDate)
	require.True(t, entry.ExpiryDate.After(time.Now().AddDate(0, 11, 0)))
}

func TestCaptureGuestEarnsNothing(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 0, animal.StatusActive)

	result, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID:  "animal-1",
		Amount:    75,
		DonorName: "Anonymous",
	})
	require.NoError(t, err)
	require.Zero(t, result.PointsEarned)
	require.Nil(t, result.Transaction.UserID)

	var count int64
	require.NoError(t, db.Model(&reward.LedgerEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCaptureValidatesAmount(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 0, animal.StatusActive)

	_, err := svc.Capture(context.Background(), CaptureRequest{AnimalID: "animal-1", Amount: 0})
	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}

func TestHasDonatedToAnimal(t *testing.T) {
	svc, db := newTestService(t)
	seedAnimal(t, db, 1000, 0, animal.StatusActive)

	_, err := svc.Capture(context.Background(), CaptureRequest{
		AnimalID: "animal-1",
		Amount:   20,
		UserID:   "user-1",
	})
	require.NoError(t, err)

	ok, err := svc.HasDonatedToAnimal(context.Background(), "user-1", "animal-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasDonatedToAnimal(context.Background(), "user-2", "animal-1")
	require.NoError(t, err)
	require.False(t, ok)
}
