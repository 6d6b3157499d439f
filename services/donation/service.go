package donation

import (
	"context"
	"errors"
	"fmt"

	"savepaws-backend/pkg/config"
	"savepaws-backend/pkg/db"
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"

	"savepaws-backend/services/animal"
	"savepaws-backend/services/reward"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *gen.SnowflakeNode
	cfg  *config.Config
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *gen.SnowflakeNode
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		cfg:  p.Config,
	}
}

type CaptureRequest struct {
	AnimalID           string  `json:"animalID"`
	Amount             float64 `json:"amount"`
	PaymentProcessorID string  `json:"paymentProcessorID"`
	DonorName          string  `json:"donorName"`
	DonorEmail         string  `json:"donorEmail"`
	UserID             string  `json:"-"`
}

type CaptureResult struct {
	Transaction    *Transaction `json:"transaction"`
	AcceptedAmount float64      `json:"acceptedAmount"`
	GoalReached    bool         `json:"goalReached"`
	PointsEarned   int64        `json:"pointsEarned"`
}

// Capture records a donation. The accepted amount is capped at the animal's
// remaining funding goal; reaching the goal flips the animal to Funded.
// Authenticated donors earn points on the accepted amount in the same
// transaction.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	if req.Amount <= 0 {
		return nil, errutil.ValidationFailed("Donation amount must be greater than zero")
	}

	result := &CaptureResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile animal.Profile
		err := tx.Scopes(db.LockingUpdate).Where(&animal.Profile{ID: req.AnimalID}).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("Animal not found")
		}
		if err != nil {
			return err
		}

		if profile.Status != animal.StatusActive {
			return errutil.Conflict(fmt.Sprintf("Animal is not accepting donations (status: %s)", profile.Status))
		}

		goalRemaining := profile.FundingGoal - profile.AmountRaised
		if goalRemaining <= 0 {
			return errutil.Conflict("Funding goal already reached for this animal")
		}

		accepted := req.Amount
		if accepted > goalRemaining {
			accepted = goalRemaining
		}

		txn := &Transaction{
			ID:                 s.node.GenerateString(),
			AnimalID:           req.AnimalID,
			Amount:             accepted,
			Type:               "OneTime",
			PaymentProcessorID: req.PaymentProcessorID,
			PaymentStatus:      PaymentSuccess,
			DonorName:          req.DonorName,
			DonorEmail:         req.DonorEmail,
		}
		if req.UserID != "" {
			txn.UserID = &req.UserID
		}

		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		newRaised := profile.AmountRaised + accepted
		updates := map[string]any{
			"amount_raised": newRaised,
		}
		if newRaised >= profile.FundingGoal {
			updates["status"] = animal.StatusFunded
			result.GoalReached = true
		}
		if err := tx.Model(&animal.Profile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
			return err
		}

		if req.UserID != "" {
			points := int64(accepted * s.cfg.Rewards.EarnRate)
			if points > 0 {
				entry := reward.NewEarnEntry(
					s.node.GenerateString(),
					req.UserID,
					points,
					"DONATION",
					txn.ID,
					s.cfg.Rewards.EarnValidityMonths,
				)
				if err := tx.Create(entry).Error; err != nil {
					return err
				}
				result.PointsEarned = points
			}
		}

		result.Transaction = txn
		result.AcceptedAmount = accepted
		return nil
	})
	if err != nil {
		if _, ok := errutil.From(err); ok {
			return nil, err
		}
		zap.L().Error("failed to capture donation", zap.String("animal_id", req.AnimalID), zap.Error(err))
		return nil, errutil.Internal("failed to capture donation", errutil.WithErr(err))
	}

	return result, nil
}

// ListByUser returns the user's donation history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Transaction, error) {
	var txns []*Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("transaction_date DESC").
		Find(&txns).Error
	if err != nil {
		zap.L().Error("failed to list donations", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("failed to list donations", errutil.WithErr(err))
	}
	return txns, nil
}

// HasDonatedToAnimal reports whether the user has at least one successful
// donation for the animal.
func (s *Service) HasDonatedToAnimal(ctx context.Context, userID, animalID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Transaction{}).
		Where("user_id = ? AND animal_id = ? AND payment_status = ?", userID, animalID, PaymentSuccess).
		Count(&count).Error
	if err != nil {
		return false, errutil.Internal("failed to check donation history", errutil.WithErr(err))
	}
	return count > 0, nil
}
