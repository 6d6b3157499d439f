package reward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"savepaws-backend/pkg/db"
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"

	"savepaws-backend/services/activity"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogueCacheKey = "rewards:catalogue"
	catalogueCacheTTL = 5 * time.Minute
)

type Service struct {
	db       *gorm.DB
	node     *gen.SnowflakeNode
	recorder *activity.Recorder
	cache    *redis.Client
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *gen.SnowflakeNode
	Recorder *activity.Recorder
	Cache    *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		recorder: p.Recorder,
		cache:    p.Cache,
	}
}

// balanceTx computes the redeemable balance inside tx: every SPEND entry
// plus every EARN/ADJUST entry that has not expired.
func (s *Service) balanceTx(tx *gorm.DB, userID string, now time.Time) (int64, error) {
	var balance int64
	err := tx.Model(&LedgerEntry{}).
		Where("user_id = ?", userID).
		Where("type = ? OR (type IN ? AND (expiry_date IS NULL OR expiry_date > ?))",
			EntrySpend, []EntryType{EntryEarn, EntryAdjust}, now).
		Select("COALESCE(SUM(points), 0)").
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// GetBalance returns the user's redeemable balance, clamped at zero for
// display, plus unfiltered historical earn/spend totals.
func (s *Service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	tx := s.db.WithContext(ctx)

	balance, err := s.balanceTx(tx, userID, time.Now())
	if err != nil {
		zap.L().Error("failed to compute balance", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("failed to compute balance", errutil.WithErr(err))
	}
	if balance < 0 {
		balance = 0
	}

	var earned int64
	err = tx.Model(&LedgerEntry{}).
		Where("user_id = ? AND points > 0", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&earned).Error
	if err != nil {
		return nil, errutil.Internal("failed to compute balance", errutil.WithErr(err))
	}

	var spent int64
	err = tx.Model(&LedgerEntry{}).
		Where("user_id = ? AND type = ?", userID, EntrySpend).
		Select("COALESCE(SUM(points), 0)").
		Scan(&spent).Error
	if err != nil {
		return nil, errutil.Internal("failed to compute balance", errutil.WithErr(err))
	}

	return &Balance{
		Balance:     balance,
		TotalEarned: earned,
		TotalSpent:  -spent,
	}, nil
}

// GetCatalogue lists active rewards, cheapest first. Served from redis when
// available; admin writes invalidate the cache.
func (s *Service) GetCatalogue(ctx context.Context) ([]*Item, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, catalogueCacheKey).Bytes(); err == nil {
			var items []*Item
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
		}
	}

	var items []*Item
	err := s.db.WithContext(ctx).
		Where(&Item{Status: ItemActive}).
		Order("points_required ASC").
		Find(&items).Error
	if err != nil {
		zap.L().Error("failed to list reward catalogue", zap.Error(err))
		return nil, errutil.Internal("failed to list rewards", errutil.WithErr(err))
	}

	if s.cache != nil {
		if b, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, catalogueCacheKey, b, catalogueCacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache reward catalogue", zap.Error(err))
			}
		}
	}

	return items, nil
}

func (s *Service) invalidateCatalogue(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, catalogueCacheKey).Err(); err != nil {
		zap.L().Warn("failed to invalidate reward catalogue cache", zap.Error(err))
	}
}

func (s *Service) GetReward(ctx context.Context, rewardID string) (*Item, error) {
	var item Item
	err := s.db.WithContext(ctx).Where(&Item{ID: rewardID}).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Reward not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load reward", errutil.WithErr(err))
	}
	return &item, nil
}

// GetHistory returns the user's redemptions, newest first.
func (s *Service) GetHistory(ctx context.Context, userID string) ([]*Redemption, error) {
	var redemptions []*Redemption
	err := s.db.WithContext(ctx).
		Where(&Redemption{UserID: userID}).
		Order("redeemed_at DESC").
		Find(&redemptions).Error
	if err != nil {
		zap.L().Error("failed to list redemptions", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("failed to list redemption history", errutil.WithErr(err))
	}
	return redemptions, nil
}

// Redeem exchanges points for a reward: stock check, balance check, inventory
// decrement, redemption record and ledger debit, all in one transaction with
// the reward row locked.
func (s *Service) Redeem(ctx context.Context, userID, rewardID string) (*Redemption, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}

	var redemption *Redemption
	archived := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item Item
		err := tx.Scopes(db.LockingUpdate).Where(&Item{ID: rewardID}).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("Reward not found")
		}
		if err != nil {
			return err
		}

		if item.Status != ItemActive {
			return errutil.Conflict("Reward is no longer available")
		}
		if item.Quantity != nil && *item.Quantity <= 0 {
			return errutil.Conflict("Reward is out of stock")
		}

		now := time.Now()
		balance, err := s.balanceTx(tx, userID, now)
		if err != nil {
			return err
		}
		if balance < item.PointsRequired {
			return errutil.InsufficientPoints(
				fmt.Sprintf("You need %d points but only have %d", item.PointsRequired, balance),
			)
		}

		if item.Quantity != nil {
			remaining := *item.Quantity - 1
			updates := map[string]any{"quantity": remaining}
			if remaining == 0 {
				updates["status"] = ItemArchived
				archived = true
			}
			if err := tx.Model(&Item{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		code, err := GenerateVoucherCode(userID)
		if err != nil {
			return err
		}

		redemption = &Redemption{
			ID:          s.node.GenerateString(),
			UserID:      userID,
			RewardID:    item.ID,
			RewardTitle: item.Title,
			PartnerName: item.PartnerName,
			PointsSpent: item.PointsRequired,
			VoucherCode: code,
			ExpiryDate:  now.AddDate(0, item.ValidityMonths, 0),
			Status:      RedemptionActive,
			RedeemedAt:  now,
		}
		if err := tx.Create(redemption).Error; err != nil {
			return err
		}

		entry := &LedgerEntry{
			ID:          s.node.GenerateString(),
			UserID:      userID,
			Points:      -item.PointsRequired,
			Type:        EntrySpend,
			Source:      "REDEMPTION",
			ReferenceID: &redemption.ID,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		if _, ok := errutil.From(err); ok {
			return nil, err
		}
		zap.L().With(opts...).Error("failed to redeem reward",
			zap.String("user_id", userID),
			zap.String("reward_id", rewardID),
			zap.Error(err),
		)
		return nil, errutil.Internal("failed to redeem reward", errutil.WithErr(err))
	}

	if archived {
		s.invalidateCatalogue(ctx)
	}

	return redemption, nil
}
