package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"time"

	"savepaws-backend/pkg/db"
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"
	"savepaws-backend/pkg/objectstore"

	"savepaws-backend/services/activity"
	"savepaws-backend/services/animal"
	"savepaws-backend/services/donation"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *gen.SnowflakeNode
	recorder *activity.Recorder
	store    *objectstore.Store
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *gen.SnowflakeNode
	Recorder *activity.Recorder
	Store    *objectstore.Store `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		recorder: p.Recorder,
		store:    p.Store,
	}
}

// remainingFunds computes amountRaised minus the donation-covered sum of the
// animal's existing allocations, optionally excluding one allocation (used
// when re-validating an edit against its own prior contribution). Must run
// inside the caller's locked transaction.
func (s *Service) remainingFunds(tx *gorm.DB, profile *animal.Profile, excludeAllocationID string) (float64, error) {
	q := tx.Model(&Allocation{}).
		Scopes(db.LockingUpdate).
		Where("animal_id = ?", profile.ID)
	if excludeAllocationID != "" {
		q = q.Where("id <> ?", excludeAllocationID)
	}

	var allocated float64
	if err := q.Select("COALESCE(SUM(donation_covered_amount), 0)").Scan(&allocated).Error; err != nil {
		return 0, err
	}

	return profile.AmountRaised - allocated, nil
}

// ComputeFundingSplit decides how much of totalCost donations cover versus
// external funding. An explicit split is validated against the remaining
// funds; the derived split never exceeds them.
func (s *Service) ComputeFundingSplit(tx *gorm.DB, profile *animal.Profile, totalCost float64, explicitDonation, explicitExternal *float64, excludeAllocationID string) (*FundingSplit, error) {
	if totalCost <= 0 {
		return nil, errutil.ValidationFailed("Total cost must be greater than zero")
	}

	remaining, err := s.remainingFunds(tx, profile, excludeAllocationID)
	if err != nil {
		return nil, err
	}

	var donationCovered, externalCovered float64
	if explicitDonation != nil {
		donationCovered = *explicitDonation
		if explicitExternal != nil {
			externalCovered = *explicitExternal
		} else {
			externalCovered = totalCost - donationCovered
		}

		if donationCovered < 0 || externalCovered < 0 {
			return nil, errutil.ValidationFailed("Covered amounts cannot be negative")
		}
		if math.Abs(donationCovered+externalCovered-totalCost) > Epsilon {
			return nil, errutil.ValidationFailed("Donation and external amounts must add up to the total cost")
		}
		if donationCovered > remaining+Epsilon {
			return nil, errutil.FundsExceeded(
				fmt.Sprintf("Donation portion (RM%.2f) exceeds remaining funds (RM%.2f)", donationCovered, remaining),
				errutil.WithDetails(errutil.Detail{
					Field:   "remaining",
					Message: fmt.Sprintf("%.2f", remaining),
				}),
			)
		}
	} else {
		donationCovered = math.Min(totalCost, math.Max(0, remaining))
		externalCovered = totalCost - donationCovered
	}

	fundingStatus := FundingFull
	if externalCovered > 0 {
		fundingStatus = FundingPartial
	}

	return &FundingSplit{
		DonationCovered: donationCovered,
		ExternalCovered: externalCovered,
		FundingStatus:   fundingStatus,
	}, nil
}

// linkTransaction picks the donation transaction to charge for bookkeeping:
// the oldest successful transaction whose remaining capacity covers the
// donation portion fully, otherwise the one with the largest remaining
// capacity. Best-effort; a nil result means no link.
func (s *Service) linkTransaction(tx *gorm.DB, animalID string, donationCovered float64) (*string, error) {
	var txns []*donation.Transaction
	err := tx.Where("animal_id = ? AND payment_status = ?", animalID, donation.PaymentSuccess).
		Order("transaction_date ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		if donationCovered > 0 {
			return nil, errutil.NoDonationSource("No donation transactions exist to fund this allocation")
		}
		return nil, nil
	}

	if donationCovered <= 0 {
		return &txns[0].ID, nil
	}

	var best *donation.Transaction
	var bestCapacity float64
	for _, t := range txns {
		var linked float64
		err := tx.Model(&Allocation{}).
			Where("transaction_id = ?", t.ID).
			Select("COALESCE(SUM(donation_covered_amount), 0)").
			Scan(&linked).Error
		if err != nil {
			return nil, err
		}

		capacity := t.Amount - linked
		if capacity >= donationCovered-Epsilon {
			return &t.ID, nil
		}
		if best == nil || capacity > bestCapacity {
			best = t
			bestCapacity = capacity
		}
	}

	return &best.ID, nil
}

type CreateRequest struct {
	AnimalID              string   `form:"-"`
	Category              string   `form:"category"`
	TotalCost             float64  `form:"total_cost"`
	DonationCovered       *float64 `form:"donation_covered_amount"`
	ExternalCovered       *float64 `form:"external_covered_amount"`
	ExternalFundingSource string   `form:"external_funding_source"`
	ExternalFundingNotes  string   `form:"external_funding_notes"`
	Status                string   `form:"status"`
	ServiceProvider       string   `form:"service_provider"`
	PublicDescription     string   `form:"public_description"`
	InternalNotes         string   `form:"internal_notes"`
	ConditionUpdate       string   `form:"condition_update"`
	AdminID               string   `form:"-"`

	ReceiptImage   *multipart.FileHeader `form:"-"`
	TreatmentPhoto *multipart.FileHeader `form:"-"`
}

// Create records a new expense allocation against an archived animal. The
// split validation, donation link and insert happen in one transaction with
// the animal row locked, so concurrent attempts serialize.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Allocation, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}

	category := Category(req.Category)
	if category.String() == "" {
		return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid category: %s", req.Category))
	}

	status := StatusDraft
	if req.Status != "" {
		status = Status(req.Status)
		if status.String() == "" {
			return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid status: %s", req.Status))
		}
	}

	var fundingSource *FundingSource
	if req.ExternalFundingSource != "" {
		fs := FundingSource(req.ExternalFundingSource)
		if fs.String() == "" {
			return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid external funding source: %s", req.ExternalFundingSource))
		}
		fundingSource = &fs
	}

	receiptURL, err := s.uploadEvidence(ctx, "receipts", req.ReceiptImage)
	if err != nil {
		return nil, err
	}
	photoURL, err := s.uploadEvidence(ctx, "treatment-photos", req.TreatmentPhoto)
	if err != nil {
		return nil, err
	}

	var created *Allocation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile animal.Profile
		err := tx.Scopes(db.LockingUpdate).Where(&animal.Profile{ID: req.AnimalID}).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("Animal not found")
		}
		if err != nil {
			return err
		}

		if profile.Status != animal.StatusArchived {
			return errutil.Conflict("Fund allocation is only permitted for archived animals")
		}

		split, err := s.ComputeFundingSplit(tx, &profile, req.TotalCost, req.DonationCovered, req.ExternalCovered, "")
		if err != nil {
			return err
		}

		transactionID, err := s.linkTransaction(tx, req.AnimalID, split.DonationCovered)
		if err != nil {
			return err
		}

		created = &Allocation{
			ID:                    s.node.GenerateString(),
			AnimalID:              req.AnimalID,
			TransactionID:         transactionID,
			Category:              category,
			TotalCost:             req.TotalCost,
			DonationCoveredAmount: split.DonationCovered,
			ExternalCoveredAmount: split.ExternalCovered,
			ExternalFundingSource: fundingSource,
			ExternalFundingNotes:  req.ExternalFundingNotes,
			FundingStatus:         split.FundingStatus,
			Status:                status,
			ServiceProvider:       req.ServiceProvider,
			PublicDescription:     req.PublicDescription,
			InternalNotes:         req.InternalNotes,
			ConditionUpdate:       req.ConditionUpdate,
			ReceiptImage:          receiptURL,
			TreatmentPhoto:        photoURL,
			AllocationDate:        time.Now(),
		}

		return tx.Create(created).Error
	})
	if err != nil {
		if _, ok := errutil.From(err); ok {
			return nil, err
		}
		zap.L().With(opts...).Error("failed to create allocation", zap.String("animal_id", req.AnimalID), zap.Error(err))
		return nil, errutil.Internal("failed to create allocation", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.AdminID,
		Action:      activity.ActionCreate,
		EntityType:  "fund_allocation",
		EntityID:    created.ID,
		Description: fmt.Sprintf("Allocated RM%.2f (%s) for animal %s", created.TotalCost, created.Category, created.AnimalID),
		NewValues:   created,
	})

	return created, nil
}

type UpdateRequest struct {
	Category              *string  `form:"category" json:"category"`
	TotalCost             *float64 `form:"total_cost" json:"total_cost"`
	DonationCovered       *float64 `form:"donation_covered_amount" json:"donation_covered_amount"`
	ExternalCovered       *float64 `form:"external_covered_amount" json:"external_covered_amount"`
	ExternalFundingSource *string  `form:"external_funding_source" json:"external_funding_source"`
	ExternalFundingNotes  *string  `form:"external_funding_notes" json:"external_funding_notes"`
	Status                *string  `form:"status" json:"status"`
	ServiceProvider       *string  `form:"service_provider" json:"service_provider"`
	PublicDescription     *string  `form:"public_description" json:"public_description"`
	InternalNotes         *string  `form:"internal_notes" json:"internal_notes"`
	ConditionUpdate       *string  `form:"condition_update" json:"condition_update"`
	AdminID               string   `form:"-" json:"-"`
}

// Update edits an allocation. Cost and split changes re-validate against the
// remaining funds excluding this allocation's own prior contribution; the
// status only moves forward.
func (s *Service) Update(ctx context.Context, allocationID string, req UpdateRequest) (*Allocation, error) {
	var updated *Allocation
	var old Allocation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Allocation
		err := tx.Scopes(db.LockingUpdate).Where(&Allocation{ID: allocationID}).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("Allocation not found")
		}
		if err != nil {
			return err
		}
		old = existing

		var profile animal.Profile
		err = tx.Scopes(db.LockingUpdate).Where(&animal.Profile{ID: existing.AnimalID}).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errutil.NotFound("Animal not found")
		}
		if err != nil {
			return err
		}

		if profile.Status != animal.StatusArchived {
			return errutil.Conflict("Allocations can only be edited while the animal remains archived")
		}

		if req.Category != nil {
			category := Category(*req.Category)
			if category.String() == "" {
				return errutil.ValidationFailed(fmt.Sprintf("Invalid category: %s", *req.Category))
			}
			existing.Category = category
		}

		if req.Status != nil {
			next := Status(*req.Status)
			if next.String() == "" {
				return errutil.ValidationFailed(fmt.Sprintf("Invalid status: %s", *req.Status))
			}
			if next.rank() < existing.Status.rank() {
				return errutil.Conflict(fmt.Sprintf("Status cannot move backward from %s to %s", existing.Status, next))
			}
			existing.Status = next
		}

		splitChanged := req.TotalCost != nil || req.DonationCovered != nil || req.ExternalCovered != nil
		if splitChanged {
			totalCost := existing.TotalCost
			if req.TotalCost != nil {
				totalCost = *req.TotalCost
			}

			split, err := s.ComputeFundingSplit(tx, &profile, totalCost, req.DonationCovered, req.ExternalCovered, existing.ID)
			if err != nil {
				return err
			}

			existing.TotalCost = totalCost
			existing.DonationCoveredAmount = split.DonationCovered
			existing.ExternalCoveredAmount = split.ExternalCovered
			existing.FundingStatus = split.FundingStatus

			if existing.DonationCoveredAmount != old.DonationCoveredAmount {
				transactionID, err := s.linkTransaction(tx, existing.AnimalID, existing.DonationCoveredAmount)
				if err != nil {
					return err
				}
				existing.TransactionID = transactionID
			}
		}

		if req.ExternalFundingSource != nil {
			if *req.ExternalFundingSource == "" {
				existing.ExternalFundingSource = nil
			} else {
				fs := FundingSource(*req.ExternalFundingSource)
				if fs.String() == "" {
					return errutil.ValidationFailed(fmt.Sprintf("Invalid external funding source: %s", *req.ExternalFundingSource))
				}
				existing.ExternalFundingSource = &fs
			}
		}
		if req.ExternalFundingNotes != nil {
			existing.ExternalFundingNotes = *req.ExternalFundingNotes
		}
		if req.ServiceProvider != nil {
			existing.ServiceProvider = *req.ServiceProvider
		}
		if req.PublicDescription != nil {
			existing.PublicDescription = *req.PublicDescription
		}
		if req.InternalNotes != nil {
			existing.InternalNotes = *req.InternalNotes
		}
		if req.ConditionUpdate != nil {
			existing.ConditionUpdate = *req.ConditionUpdate
		}

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}

		updated = &existing
		return nil
	})
	if err != nil {
		if _, ok := errutil.From(err); ok {
			return nil, err
		}
		zap.L().Error("failed to update allocation", zap.String("allocation_id", allocationID), zap.Error(err))
		return nil, errutil.Internal("failed to update allocation", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.AdminID,
		Action:      activity.ActionUpdate,
		EntityType:  "fund_allocation",
		EntityID:    updated.ID,
		Description: fmt.Sprintf("Updated allocation for animal %s", updated.AnimalID),
		OldValues:   old,
		NewValues:   updated,
	})

	return updated, nil
}

// Delete removes an allocation. No downstream financial dependents exist, so
// deletion is unconditional but always logged.
func (s *Service) Delete(ctx context.Context, allocationID, adminID string) error {
	var existing Allocation
	err := s.db.WithContext(ctx).Where(&Allocation{ID: allocationID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("Allocation not found")
	}
	if err != nil {
		return errutil.Internal("failed to load allocation", errutil.WithErr(err))
	}

	if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
		zap.L().Error("failed to delete allocation", zap.String("allocation_id", allocationID), zap.Error(err))
		return errutil.Internal("failed to delete allocation", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     adminID,
		Action:      activity.ActionDelete,
		EntityType:  "fund_allocation",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Deleted allocation for animal %s", existing.AnimalID),
		OldValues:   existing,
	})

	return nil
}

// GetAnimalSummary returns the animal's funding picture. Total allocated
// sums full costs; remaining only subtracts the donation-covered portions.
func (s *Service) GetAnimalSummary(ctx context.Context, animalID string) (*animal.Profile, *Summary, error) {
	var profile animal.Profile
	err := s.db.WithContext(ctx).Where(&animal.Profile{ID: animalID}).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errutil.NotFound("Animal not found")
	}
	if err != nil {
		return nil, nil, errutil.Internal("failed to load animal", errutil.WithErr(err))
	}

	summary, err := s.summarize(ctx, &profile)
	if err != nil {
		return nil, nil, err
	}

	return &profile, summary, nil
}

func (s *Service) summarize(ctx context.Context, profile *animal.Profile) (*Summary, error) {
	type sums struct {
		TotalAllocated  float64
		DonationCovered float64
	}
	var agg sums
	err := s.db.WithContext(ctx).Model(&Allocation{}).
		Where("animal_id = ?", profile.ID).
		Select("COALESCE(SUM(total_cost), 0) AS total_allocated, COALESCE(SUM(donation_covered_amount), 0) AS donation_covered").
		Scan(&agg).Error
	if err != nil {
		return nil, errutil.Internal("failed to summarize allocations", errutil.WithErr(err))
	}

	return &Summary{
		FundingGoal:    profile.FundingGoal,
		AmountRaised:   profile.AmountRaised,
		TotalAllocated: agg.TotalAllocated,
		Remaining:      profile.AmountRaised - agg.DonationCovered,
	}, nil
}

type AnimalSummary struct {
	AnimalID string `json:"animalID"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Summary
}

// ListAnimals returns archived animals with funds raised, each with its
// allocation summary.
func (s *Service) ListAnimals(ctx context.Context) ([]*AnimalSummary, error) {
	var profiles []*animal.Profile
	err := s.db.WithContext(ctx).
		Where("status = ? AND amount_raised > 0", animal.StatusArchived).
		Order("updated_at DESC").
		Find(&profiles).Error
	if err != nil {
		zap.L().Error("failed to list archived animals", zap.Error(err))
		return nil, errutil.Internal("failed to list animals", errutil.WithErr(err))
	}

	result := make([]*AnimalSummary, 0, len(profiles))
	for _, p := range profiles {
		summary, err := s.summarize(ctx, p)
		if err != nil {
			return nil, err
		}
		result = append(result, &AnimalSummary{
			AnimalID: p.ID,
			Name:     p.Name,
			Status:   p.Status.String(),
			Summary:  *summary,
		})
	}

	return result, nil
}

// ListAllocations returns allocations for an animal, newest first.
func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]*Allocation, error) {
	var allocations []*Allocation
	err := s.db.WithContext(ctx).
		Where(&Allocation{AnimalID: animalID}).
		Order("allocation_date DESC").
		Find(&allocations).Error
	if err != nil {
		return nil, errutil.Internal("failed to list allocations", errutil.WithErr(err))
	}
	return allocations, nil
}

// GetDetail returns a single allocation with its animal and, when linked,
// donation transaction context.
func (s *Service) GetDetail(ctx context.Context, allocationID string) (*Allocation, *animal.Profile, *donation.Transaction, error) {
	var alloc Allocation
	err := s.db.WithContext(ctx).Where(&Allocation{ID: allocationID}).First(&alloc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, errutil.NotFound("Allocation not found")
	}
	if err != nil {
		return nil, nil, nil, errutil.Internal("failed to load allocation", errutil.WithErr(err))
	}

	var profile animal.Profile
	if err := s.db.WithContext(ctx).Where(&animal.Profile{ID: alloc.AnimalID}).First(&profile).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, errutil.Internal("failed to load animal", errutil.WithErr(err))
	}

	var txn *donation.Transaction
	if alloc.TransactionID != nil {
		var t donation.Transaction
		err := s.db.WithContext(ctx).Where("id = ?", *alloc.TransactionID).First(&t).Error
		if err == nil {
			txn = &t
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, errutil.Internal("failed to load donation transaction", errutil.WithErr(err))
		}
	}

	return &alloc, &profile, txn, nil
}

func (s *Service) uploadEvidence(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if s.store == nil {
		return "", errutil.Internal("object storage is not configured")
	}

	key, err := s.store.Upload(ctx, prefix, fh)
	if err != nil {
		zap.L().Error("failed to upload allocation evidence", zap.String("prefix", prefix), zap.Error(err))
		return "", errutil.Internal("failed to upload evidence file", errutil.WithErr(err))
	}
	return key, nil
}
