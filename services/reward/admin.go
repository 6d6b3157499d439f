package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"savepaws-backend/pkg/errutil"

	"savepaws-backend/services/activity"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateItemRequest struct {
	Title          string `json:"title"`
	PartnerName    string `json:"partnerName"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	ImageURL       string `json:"imageURL"`
	PointsRequired int64  `json:"pointsRequired"`
	ValidityMonths int    `json:"validityMonths"`
	Terms          string `json:"terms"`
	Quantity       *int64 `json:"quantity"`
	AdminID        string `json:"-"`
}

func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if req.Title == "" || req.PartnerName == "" {
		return nil, errutil.ValidationFailed("Title and partner name are required")
	}
	if req.PointsRequired <= 0 {
		return nil, errutil.ValidationFailed("Points required must be greater than zero")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return nil, errutil.ValidationFailed("Quantity cannot be negative")
	}

	validity := req.ValidityMonths
	if validity <= 0 {
		validity = 12
	}

	item := &Item{
		ID:             s.node.GenerateString(),
		Title:          req.Title,
		PartnerName:    req.PartnerName,
		Category:       req.Category,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		PointsRequired: req.PointsRequired,
		ValidityMonths: validity,
		Terms:          req.Terms,
		Quantity:       req.Quantity,
		Status:         ItemActive,
	}
	if req.Quantity != nil && *req.Quantity == 0 {
		item.Status = ItemArchived
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		zap.L().Error("failed to create reward", zap.Error(err))
		return nil, errutil.Internal("failed to create reward", errutil.WithErr(err))
	}

	s.invalidateCatalogue(ctx)
	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.AdminID,
		Action:      activity.ActionCreate,
		EntityType:  "reward_item",
		EntityID:    item.ID,
		Description: fmt.Sprintf("Created reward %q", item.Title),
		NewValues:   item,
	})

	return item, nil
}

type UpdateItemRequest struct {
	Title          *string `json:"title"`
	PartnerName    *string `json:"partnerName"`
	Category       *string `json:"category"`
	Description    *string `json:"description"`
	ImageURL       *string `json:"imageURL"`
	PointsRequired *int64  `json:"pointsRequired"`
	ValidityMonths *int    `json:"validityMonths"`
	Terms          *string `json:"terms"`
	Quantity       *int64  `json:"quantity"`
	Status         *string `json:"status"`
	AdminID        string  `json:"-"`
}

func (s *Service) UpdateItem(ctx context.Context, rewardID string, req UpdateItemRequest) (*Item, error) {
	var existing Item
	err := s.db.WithContext(ctx).Where(&Item{ID: rewardID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Reward not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load reward", errutil.WithErr(err))
	}

	old := existing

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.PartnerName != nil {
		existing.PartnerName = *req.PartnerName
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.ImageURL != nil {
		existing.ImageURL = *req.ImageURL
	}
	if req.PointsRequired != nil {
		if *req.PointsRequired <= 0 {
			return nil, errutil.ValidationFailed("Points required must be greater than zero")
		}
		existing.PointsRequired = *req.PointsRequired
	}
	if req.ValidityMonths != nil {
		existing.ValidityMonths = *req.ValidityMonths
	}
	if req.Terms != nil {
		existing.Terms = *req.Terms
	}
	if req.Status != nil {
		status := ItemStatus(*req.Status)
		if status.String() == "" {
			return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid status: %s", *req.Status))
		}
		existing.Status = status
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, errutil.ValidationFailed("Quantity cannot be negative")
		}
		existing.Quantity = req.Quantity
		// zero stock retires the reward regardless of the requested status
		if *req.Quantity == 0 {
			existing.Status = ItemArchived
		}
	}

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		zap.L().Error("failed to update reward", zap.String("reward_id", rewardID), zap.Error(err))
		return nil, errutil.Internal("failed to update reward", errutil.WithErr(err))
	}

	s.invalidateCatalogue(ctx)
	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.AdminID,
		Action:      activity.ActionUpdate,
		EntityType:  "reward_item",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Updated reward %q", existing.Title),
		OldValues:   old,
		NewValues:   existing,
	})

	return &existing, nil
}

// DeleteItem removes a catalog entry. Rewards with redemption history can
// only be archived, never deleted.
func (s *Service) DeleteItem(ctx context.Context, rewardID, adminID string) error {
	var existing Item
	err := s.db.WithContext(ctx).Where(&Item{ID: rewardID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("Reward not found")
	}
	if err != nil {
		return errutil.Internal("failed to load reward", errutil.WithErr(err))
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&Redemption{}).
		Where(&Redemption{RewardID: rewardID}).
		Count(&count).Error
	if err != nil {
		return errutil.Internal("failed to check redemption history", errutil.WithErr(err))
	}
	if count > 0 {
		return errutil.HasDependents("Reward has redemption history and cannot be deleted; archive it instead")
	}

	if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
		zap.L().Error("failed to delete reward", zap.String("reward_id", rewardID), zap.Error(err))
		return errutil.Internal("failed to delete reward", errutil.WithErr(err))
	}

	s.invalidateCatalogue(ctx)
	s.recorder.Record(ctx, activity.Entry{
		AdminID:     adminID,
		Action:      activity.ActionDelete,
		EntityType:  "reward_item",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Deleted reward %q", existing.Title),
		OldValues:   existing,
	})

	return nil
}

// ListItems is the admin catalog view, archived entries included.
func (s *Service) ListItems(ctx context.Context) ([]*Item, error) {
	var items []*Item
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	if err != nil {
		zap.L().Error("failed to list rewards", zap.Error(err))
		return nil, errutil.Internal("failed to list rewards", errutil.WithErr(err))
	}
	return items, nil
}

type AdjustRequest struct {
	UserID         string `json:"userID"`
	Points         int64  `json:"points"`
	Source         string `json:"source"`
	ValidityMonths int    `json:"validityMonths"`
	AdminID        string `json:"-"`
}

// Adjust appends a manual ADJUST ledger entry, the correction path for an
// append-only ledger (volunteer credits, support goodwill, clawbacks).
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*LedgerEntry, error) {
	if req.UserID == "" {
		return nil, errutil.ValidationFailed("User ID is required")
	}
	if req.Points == 0 {
		return nil, errutil.ValidationFailed("Adjustment points cannot be zero")
	}

	source := req.Source
	if source == "" {
		source = "ADMIN_ADJUST"
	}

	entry := &LedgerEntry{
		ID:     s.node.GenerateString(),
		UserID: req.UserID,
		Points: req.Points,
		Type:   EntryAdjust,
		Source: source,
	}
	if req.Points > 0 {
		months := req.ValidityMonths
		if months <= 0 {
			months = 12
		}
		expiry := time.Now().AddDate(0, months, 0)
		entry.ExpiryDate = &expiry
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		zap.L().Error("failed to append adjust entry", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, errutil.Internal("failed to adjust points", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.AdminID,
		Action:      activity.ActionCreate,
		EntityType:  "reward_ledger_entry",
		EntityID:    entry.ID,
		Description: fmt.Sprintf("Adjusted %d points for user %s (%s)", req.Points, req.UserID, source),
		NewValues:   entry,
	})

	return entry, nil
}
