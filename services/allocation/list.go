package allocation

import (
	"context"
	"fmt"
	"time"

	"savepaws-backend/pkg/db/pagination"
	"savepaws-backend/pkg/errutil"

	"savepaws-backend/services/donation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ListRequest struct {
	pagination.Pagination
	AnimalID      string `form:"animal_id"`
	TransactionID string `form:"transaction_id"`
	Category      string `form:"category"`
}

type ListSummary struct {
	TotalAllocated float64 `json:"totalAllocated"`
	TotalDonations float64 `json:"totalDonations"`
	Unallocated    float64 `json:"unallocated"`
}

type ListResponse struct {
	Allocations []*Allocation        `json:"allocations"`
	Summary     ListSummary          `json:"summary"`
	PageInfo    *pagination.PageInfo `json:"pageInfo"`
}

// List is the admin allocation browser: filterable, cursor-paginated, with
// an aggregate funding summary over the filtered set.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Category != "" && Category(req.Category).String() == "" {
		return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid category: %s", req.Category))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	filters := func(q *gorm.DB) *gorm.DB {
		if req.AnimalID != "" {
			q = q.Where("animal_id = ?", req.AnimalID)
		}
		if req.TransactionID != "" {
			q = q.Where("transaction_id = ?", req.TransactionID)
		}
		if req.Category != "" {
			q = q.Where("category = ?", req.Category)
		}
		return q
	}

	type sums struct {
		TotalAllocated  float64
		DonationCovered float64
	}
	var agg sums
	err := s.db.WithContext(ctx).Model(&Allocation{}).
		Scopes(filters).
		Select("COALESCE(SUM(total_cost), 0) AS total_allocated, COALESCE(SUM(donation_covered_amount), 0) AS donation_covered").
		Scan(&agg).Error
	if err != nil {
		zap.L().Error("failed to summarize allocation list", zap.Error(err))
		return nil, errutil.Internal("failed to list allocations", errutil.WithErr(err))
	}

	page := s.db.WithContext(ctx).Model(&Allocation{}).
		Scopes(filters).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if req.Cursor != "" {
		cursor, err := pagination.DecodeCursor(req.Cursor)
		if err != nil {
			return nil, errutil.ValidationFailed("Invalid cursor")
		}
		after, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, errutil.ValidationFailed("Invalid cursor")
		}
		page = page.Where("(created_at < ?) OR (created_at = ? AND id < ?)", after, after, cursor.ID)
	}

	var allocations []*Allocation
	if err := page.Find(&allocations).Error; err != nil {
		zap.L().Error("failed to list allocations", zap.Error(err))
		return nil, errutil.Internal("failed to list allocations", errutil.WithErr(err))
	}

	allocations, pageInfo := pagination.BuildCursorPageInfo(allocations, limit, func(a *Allocation) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        a.ID,
		})
		return c
	})

	totalDonations, err := s.sumDonations(ctx, req.AnimalID)
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Allocations: allocations,
		Summary: ListSummary{
			TotalAllocated: agg.TotalAllocated,
			TotalDonations: totalDonations,
			Unallocated:    totalDonations - agg.DonationCovered,
		},
		PageInfo: pageInfo,
	}, nil
}

func (s *Service) sumDonations(ctx context.Context, animalID string) (float64, error) {
	q := s.db.WithContext(ctx).Model(&donation.Transaction{}).
		Where("payment_status = ?", donation.PaymentSuccess)
	if animalID != "" {
		q = q.Where("animal_id = ?", animalID)
	}

	var total float64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, errutil.Internal("failed to sum donations", errutil.WithErr(err))
	}
	return total, nil
}
