package allocation

import (
	"context"
	"errors"

	"savepaws-backend/pkg/errutil"

	"savepaws-backend/services/animal"
	"savepaws-backend/services/donation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnimalImpact is the donor's view of one animal they helped: the animal,
// their contribution, and every published allocation for it. Internal notes
// and unpublished allocations never appear here.
type AnimalImpact struct {
	AnimalID     string        `json:"animalID"`
	Name         string        `json:"name"`
	PhotoURL     string        `json:"photoURL,omitempty"`
	Status       string        `json:"status"`
	AmountRaised float64       `json:"amountRaised"`
	TotalDonated float64       `json:"totalDonated"`
	Allocations  []*PublicView `json:"allocations"`
}

// GetImpact lists, per animal the user donated to, the published allocations
// their money contributed to. A user with no donations gets an empty list.
func (s *Service) GetImpact(ctx context.Context, userID string) ([]*AnimalImpact, error) {
	type donated struct {
		AnimalID     string
		TotalDonated float64
	}
	var rows []donated
	err := s.db.WithContext(ctx).Model(&donation.Transaction{}).
		Where("user_id = ? AND payment_status = ?", userID, donation.PaymentSuccess).
		Select("animal_id, SUM(amount) AS total_donated").
		Group("animal_id").
		Scan(&rows).Error
	if err != nil {
		zap.L().Error("failed to query donated animals", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("failed to load donation impact", errutil.WithErr(err))
	}

	impacts := make([]*AnimalImpact, 0, len(rows))
	for _, row := range rows {
		var profile animal.Profile
		err := s.db.WithContext(ctx).Where(&animal.Profile{ID: row.AnimalID}).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, errutil.Internal("failed to load animal", errutil.WithErr(err))
		}

		allocations, err := s.publishedAllocations(ctx, row.AnimalID)
		if err != nil {
			return nil, err
		}

		impacts = append(impacts, &AnimalImpact{
			AnimalID:     profile.ID,
			Name:         profile.Name,
			PhotoURL:     profile.PhotoURL,
			Status:       profile.Status.String(),
			AmountRaised: profile.AmountRaised,
			TotalDonated: row.TotalDonated,
			Allocations:  allocations,
		})
	}

	return impacts, nil
}

// TransactionImpact is the detail view for one of the user's own donations.
type TransactionImpact struct {
	TransactionID string        `json:"transactionID"`
	Amount        float64       `json:"amount"`
	DonatedAt     string        `json:"donatedAt"`
	Animal        *AnimalImpact `json:"animal"`
}

// GetImpactDetail shows what one donation funded. The transaction must
// belong to the caller; visibility stays animal-based and Published-only.
func (s *Service) GetImpactDetail(ctx context.Context, userID, transactionID string) (*TransactionImpact, error) {
	var txn donation.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", transactionID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Donation transaction not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load donation transaction", errutil.WithErr(err))
	}

	if txn.UserID == nil || *txn.UserID != userID {
		return nil, errutil.Forbidden("You can only view the impact of your own donations")
	}

	var profile animal.Profile
	err = s.db.WithContext(ctx).Where(&animal.Profile{ID: txn.AnimalID}).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Animal not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load animal", errutil.WithErr(err))
	}

	allocations, err := s.publishedAllocations(ctx, txn.AnimalID)
	if err != nil {
		return nil, err
	}

	var totalDonated float64
	err = s.db.WithContext(ctx).Model(&donation.Transaction{}).
		Where("user_id = ? AND animal_id = ? AND payment_status = ?", userID, txn.AnimalID, donation.PaymentSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalDonated).Error
	if err != nil {
		return nil, errutil.Internal("failed to sum donations", errutil.WithErr(err))
	}

	return &TransactionImpact{
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		DonatedAt:     txn.TransactionDate.Format("2006-01-02"),
		Animal: &AnimalImpact{
			AnimalID:     profile.ID,
			Name:         profile.Name,
			PhotoURL:     profile.PhotoURL,
			Status:       profile.Status.String(),
			AmountRaised: profile.AmountRaised,
			TotalDonated: totalDonated,
			Allocations:  allocations,
		},
	}, nil
}

func (s *Service) publishedAllocations(ctx context.Context, animalID string) ([]*PublicView, error) {
	var allocations []*Allocation
	err := s.db.WithContext(ctx).
		Where(&Allocation{AnimalID: animalID, Status: StatusPublished}).
		Order("allocation_date DESC").
		Find(&allocations).Error
	if err != nil {
		return nil, errutil.Internal("failed to list published allocations", errutil.WithErr(err))
	}

	views := make([]*PublicView, 0, len(allocations))
	for _, a := range allocations {
		views = append(views, a.Public())
	}
	return views, nil
}
