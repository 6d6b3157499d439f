package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"savepaws-backend/pkg/errutil"
)

func TestCreateItemValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateItem(context.Background(), CreateItemRequest{Title: "No Partner", PointsRequired: 10})
	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, be.Status())

	_, err = svc.CreateItem(context.Background(), CreateItemRequest{Title: "Freebie", PartnerName: "Partner", PointsRequired: 0})
	be, ok = errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}

func TestCreateItemDefaultsValidity(t *testing.T) {
	svc, _ := newTestService(t)

	item, err := svc.CreateItem(context.Background(), CreateItemRequest{
		Title:          "Pet Food Hamper",
		PartnerName:    "PetMart",
		PointsRequired: 200,
	})
	require.NoError(t, err)
	require.Equal(t, 12, item.ValidityMonths)
	require.Equal(t, ItemActive, item.Status)
	require.Nil(t, item.Quantity)
}

func TestUpdateItemZeroQuantityForcesArchive(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "r1", 10, nil)

	zero := int64(0)
	item, err := svc.UpdateItem(context.Background(), "r1", UpdateItemRequest{Quantity: &zero})
	require.NoError(t, err)
	require.Equal(t, ItemArchived, item.Status)
}

func TestDeleteItemBlockedByHistory(t *testing.T) {
	svc, db := newTestService(t)

	seedEntry(t, db, "e1", "user-1", 100, EntryEarn, nil)
	seedItem(t, db, "r10", 10, nil)

	_, err := svc.Redeem(context.Background(), "user-1", "r10")
	require.NoError(t, err)

	err = svc.DeleteItem(context.Background(), "r10", "admin-1")
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusHasDependents, be.Status())

	var item Item
	require.NoError(t, db.First(&item, "id = ?", "r10").Error)
}

func TestDeleteItemWithoutHistory(t *testing.T) {
	svc, db := newTestService(t)
	seedItem(t, db, "r1", 10, nil)

	require.NoError(t, svc.DeleteItem(context.Background(), "r1", "admin-1"))

	var count int64
	require.NoError(t, db.Model(&Item{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAdjustAppendsLedgerEntry(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.Adjust(context.Background(), AdjustRequest{
		UserID: "user-1",
		Points: 250,
		Source: "VOLUNTEER",
	})
	require.NoError(t, err)
	require.Equal(t, EntryAdjust, entry.Type)
	require.NotNil(t, entry.ExpiryDate)

	balance, err := svc.GetBalance(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(250), balance.Balance)
}

func TestAdjustRejectsZeroPoints(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Adjust(context.Background(), AdjustRequest{UserID: "user-1", Points: 0})
	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}
