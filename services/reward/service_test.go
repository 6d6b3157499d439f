package reward

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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
		&Item{},
		&LedgerEntry{},
		&Redemption{},
		&activity.Log{},
	)

	node, err := gen.NewSnowflakeNode()
	require.NoError(t, err)

	recorder := activity.NewRecorder(activity.RecorderParams{DB: db, Node: node})
	svc := NewService(ServiceParams{DB: db, Node: node, Recorder: recorder})
	return svc, db
}

func seedEntry(t *testing.T, db *gorm.DB, id, userID string, points int64, entryType EntryType, expiry *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&LedgerEntry{
		ID:         id,
		UserID:     userID,
		Points:     points,
		Type:       entryType,
		Source:     "TEST",
		ExpiryDate: expiry,
	}).Error)
}

func seedItem(t *testing.T, db *gorm.DB, id string, points int64, quantity *int64) *Item {
	t.Helper()
	item := &Item{
		ID:             id,
		Title:          "Free Grooming",
		PartnerName:    "Happy Paws Studio",
		PointsRequired: points,
		ValidityMonths: 6,
		Quantity:       quantity,
		Status:         ItemActive,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestBalanceLedgerLaw(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedEntry(t, db, "e2", "user-1", -30, EntrySpend, nil)

	balance, err := svc.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(70), balance.Balance)
	require.Equal(t, int64(100), balance.TotalEarned)
	require.Equal(t, int64(30), balance.TotalSpent)
}

func TestBalanceIgnoresExpiredEarn(t *testing.T) {
	svc, db := newTestService(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)
	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, &past)
	seedEntry(t, db, "e2", "user-1", 50, EntryEarn, &future)

	balance, err := svc.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(50), balance.Balance)
	require.Equal(t, int64(150), balance.TotalEarned)
}

func TestBalanceClampedAtZero(t *testing.T) {
	svc, db := newTestService(t)

	past := time.Now().Add(-time.Hour)
	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, &past)
	seedEntry(t, db, "e2", "user-1", -40, EntrySpend, nil)

	balance, err := svc.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), balance.Balance)
}

func TestRedeemExactBalanceThenInsufficient(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedEntry(t, db, "e2", "user-1", -30, EntrySpend, nil)
	seedItem(t, db, "r70", 70, nil)
	seedItem(t, db, "r1", 1, nil)

	redemption, err := svc.Redeem(context.Background(), "user-1", "r70")
	require.NoError(t, err)
	require.Equal(t, int64(70), redemption.PointsSpent)
	require.Equal(t, "Free Grooming", redemption.RewardTitle)
	require.True(t, strings.HasPrefix(redemption.VoucherCode, "REW-user-1-"))

	balance, err := svc.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), balance.Balance)

	_, err = svc.Redeem(context.Background(), "user-1", "r1")
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusInsufficientPoints, be.Status())
}

func TestRedeemFailureLeavesNoPartialState(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 10, EntryEarn, nil)
	qty := int64(5)
	seedItem(t, db, "r100", 100, &qty)

	_, err := svc.Redeem(context.Background(), "user-1", "r100")
	require.Error(t, err)

	var item Item
	require.NoError(t, db.First(&item, "id = ?", "r100").Error)
	require.Equal(t, int64(5), *item.Quantity)
	require.Equal(t, ItemActive, item.Status)

	var redemptions int64
	require.NoError(t, db.Model(&Redemption{}).Count(&redemptions).Error)
	require.Zero(t, redemptions)

	var entries int64
	require.NoError(t, db.Model(&LedgerEntry{}).Where("type = ?", EntrySpend).Count(&entries).Error)
	require.Zero(t, entries)
}

func TestRedeemNotFoundAndInactive(t *testing.T) {
	svc, db := newTestService(t)
	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)

	_, err := svc.Redeem(context.Background(), "user-1", "missing")
	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusNotFound, be.Status())

	item := seedItem(t, db, "r1", 10, nil)
	require.NoError(t, db.Model(&Item{}).Where("id = ?", item.ID).Update("status", ItemArchived).Error)

	_, err = svc.Redeem(context.Background(), "user-1", item.ID)
	be, ok = errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestStockExhaustionArchivesReward(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedEntry(t, db, "e2", "user-2", 100, EntryEarn, nil)
	qty := int64(1)
	seedItem(t, db, "r10", 10, &qty)

	_, err := svc.Redeem(context.Background(), "user-1", "r10")
	require.NoError(t, err)

	var item Item
	require.NoError(t, db.First(&item, "id = ?", "r10").Error)
	require.Equal(t, int64(0), *item.Quantity)
	require.Equal(t, ItemArchived, item.Status)

	_, err = svc.Redeem(context.Background(), "user-2", "r10")
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestConcurrentRedemptionRace(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedEntry(t, db, "e2", "user-2", 100, EntryEarn, nil)
	qty := int64(1)
	seedItem(t, db, "r10", 10, &qty)

	users := []string{"user-1", "user-2"}
	results := make([]error, 2)

	var g errgroup.Group
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			_, err := svc.Redeem(context.Background(), user, "r10")
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var successes, conflicts int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		be, ok := errutil.From(err)
		require.True(t, ok)
		require.Equal(t, errutil.StatusConflict, be.Status())
		conflicts++
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)

	var item Item
	require.NoError(t, db.First(&item, "id = ?", "r10").Error)
	require.Equal(t, int64(0), *item.Quantity)
	require.Equal(t, ItemArchived, item.Status)
}

func TestRedeemWritesSpendEntryWithReference(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedItem(t, db, "r10", 10, nil)

	redemption, err := svc.Redeem(context.Background(), "user-1", "r10")
	require.NoError(t, err)

	var entry LedgerEntry
	require.NoError(t, db.Where("type = ?", EntrySpend).First(&entry).Error)
	require.Equal(t, int64(-10), entry.Points)
	require.NotNil(t, entry.ReferenceID)
	require.Equal(t, redemption.ID, *entry.ReferenceID)

	history, err := svc.GetHistory(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, redemption.VoucherCode, history[0].VoucherCode)
}

func TestCatalogueActiveOnlyCheapestFirst(t *testing.T) {
	svc, db := newTestService(t)

	seedItem(t, db, "r-cheap", 10, nil)
	seedItem(t, db, "r-dear", 50, nil)
	archived := seedItem(t, db, "r-gone", 5, nil)
	require.NoError(t, db.Model(&Item{}).Where("id = ?", archived.ID).Update("status", ItemArchived).Error)

	items, err := svc.GetCatalogue(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "r-cheap", items[0].ID)
	require.Equal(t, "r-dear", items[1].ID)
}
