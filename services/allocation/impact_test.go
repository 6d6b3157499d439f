package allocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"savepaws-backend/pkg/errutil"
	"savepaws-backend/services/animal"
	"savepaws-backend/services/donation"
)

func TestImpactShowsOnlyPublishedAllocations(t *testing.T) {
	svc, db := newTestService(t)
	a := seedAnimal(t, db, 500, animal.StatusArchived)
	seedDonation(t, db, a.ID, 500, "txn-1")

	draft, err := svc.Create(context.Background(), CreateRequest{
		AnimalID:      a.ID,
		Category:      "Vet",
		TotalCost:     200,
		InternalNotes: "negotiated discount with clinic",
	})
	require.NoError(t, err)

	published := string(StatusPublished)
	_, err = svc.Update(context.Background(), draft.ID, UpdateRequest{Status: &published})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{
		AnimalID:  a.ID,
		Category:  "Food",
		TotalCost: 100,
	})
	require.NoError(t, err)

	impacts, err := svc.GetImpact(context.Background(), "donor-1")
	require.NoError(t, err)
	require.Len(t, impacts, 1)
	require.Equal(t, a.ID, impacts[0].AnimalID)
	require.Equal(t, float64(500), impacts[0].TotalDonated)
	require.Len(t, impacts[0].Allocations, 1)
	require.Equal(t, CategoryVet, impacts[0].Allocations[0].Category)
}

func TestImpactEmptyForNonDonor(t *testing.T) {
	svc, db := newTestService(t)
	a := seedAnimal(t, db, 500, animal.StatusArchived)
	seedDonation(t, db, a.ID, 500, "txn-1")

	impacts, err := svc.GetImpact(context.Background(), "someone-else")
	require.NoError(t, err)
	require.Empty(t, impacts)
}

func TestImpactDetailRequiresOwnership(t *testing.T) {
	svc, db := newTestService(t)
	a := seedAnimal(t, db, 500, animal.StatusArchived)
	seedDonation(t, db, a.ID, 500, "txn-1")

	_, err := svc.GetImpactDetail(context.Background(), "intruder", "txn-1")
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusForbidden, be.Status())
}

func TestImpactDetailGuestDonationHidden(t *testing.T) {
	svc, db := newTestService(t)
	a := seedAnimal(t, db, 500, animal.StatusArchived)

	guest := &donation.Transaction{
		ID:            "txn-guest",
		AnimalID:      a.ID,
		Amount:        50,
		PaymentStatus: donation.PaymentSuccess,
	}
	require.NoError(t, db.Create(guest).Error)

	_, err := svc.GetImpactDetail(context.Background(), "donor-1", "txn-guest")
	require.Error(t, err)

	be, ok := errutil.From(err)
	require.True(t, ok)
	require.Equal(t, errutil.StatusForbidden, be.Status())
}

func TestImpactDetail(t *testing.T) {
	svc, db := newTestService(t)
	a := seedAnimal(t, db, 500, animal.StatusArchived)
	seedDonation(t, db, a.ID, 300, "txn-1")
	seedDonation(t, db, a.ID, 200, "txn-2")

	alloc, err := svc.Create(context.Background(), CreateRequest{
		AnimalID:  a.ID,
		Category:  "Medication",
		TotalCost: 150,
	})
	require.NoError(t, err)

	published := string(StatusPublished)
	_, err = svc.Update(context.Background(), alloc.ID, UpdateRequest{Status: &published})
	require.NoError(t, err)

	detail, err := svc.GetImpactDetail(context.Background(), "donor-1", "txn-1")
	require.NoError(t, err)
	require.Equal(t, "txn-1", detail.TransactionID)
	require.Equal(t, float64(300), detail.Amount)
	require.Equal(t, float64(500), detail.Animal.TotalDonated)
	require.Len(t, detail.Animal.Allocations, 1)
}
