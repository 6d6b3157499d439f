package animal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/gen"

	"savepaws-backend/services/activity"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *gen.SnowflakeNode
	recorder *activity.Recorder
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *gen.SnowflakeNode
	Recorder *activity.Recorder
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		recorder: p.Recorder,
	}
}

func (s *Service) GetProfile(ctx context.Context, animalID string) (*Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).Where(&Profile{ID: animalID}).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Animal not found")
	}
	if err != nil {
		zap.L().Error("failed to query animal profile", zap.String("animal_id", animalID), zap.Error(err))
		return nil, errutil.Internal("failed to load animal", errutil.WithErr(err))
	}
	return &profile, nil
}

type CreateProgressUpdateRequest struct {
	AnimalID         string  `json:"animalID"`
	AllocationID     *string `json:"allocationID"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	MedicalCondition string  `json:"medicalCondition"`
	RecoveryStatus   string  `json:"recoveryStatus"`
	CreatedBy        string  `json:"-"`
}

func (s *Service) CreateProgressUpdate(ctx context.Context, req CreateProgressUpdateRequest) (*ProgressUpdate, error) {
	if req.Title == "" {
		return nil, errutil.ValidationFailed("Title is required")
	}

	status := RecoveryStatus(req.RecoveryStatus)
	if status.String() == "" {
		return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid recovery status: %s", req.RecoveryStatus))
	}

	if _, err := s.GetProfile(ctx, req.AnimalID); err != nil {
		return nil, err
	}

	update := &ProgressUpdate{
		ID:               s.node.GenerateString(),
		AnimalID:         req.AnimalID,
		AllocationID:     req.AllocationID,
		Title:            req.Title,
		Description:      req.Description,
		MedicalCondition: req.MedicalCondition,
		RecoveryStatus:   status,
		UpdateDate:       time.Now(),
		CreatedBy:        req.CreatedBy,
	}

	if err := s.db.WithContext(ctx).Create(update).Error; err != nil {
		zap.L().Error("failed to create progress update", zap.String("animal_id", req.AnimalID), zap.Error(err))
		return nil, errutil.Internal("failed to create progress update", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.CreatedBy,
		Action:      activity.ActionCreate,
		EntityType:  "progress_update",
		EntityID:    update.ID,
		Description: fmt.Sprintf("Posted progress update for animal %s", req.AnimalID),
		NewValues:   update,
	})

	return update, nil
}

func (s *Service) ListProgressUpdates(ctx context.Context, animalID string) ([]*ProgressUpdate, error) {
	var updates []*ProgressUpdate
	err := s.db.WithContext(ctx).
		Where(&ProgressUpdate{AnimalID: animalID}).
		Order("update_date DESC").
		Find(&updates).Error
	if err != nil {
		zap.L().Error("failed to list progress updates", zap.String("animal_id", animalID), zap.Error(err))
		return nil, errutil.Internal("failed to list progress updates", errutil.WithErr(err))
	}
	return updates, nil
}

type UpdateProgressUpdateRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	MedicalCondition *string `json:"medicalCondition"`
	RecoveryStatus   *string `json:"recoveryStatus"`
	UpdatedBy        string  `json:"-"`
}

func (s *Service) UpdateProgressUpdate(ctx context.Context, updateID string, req UpdateProgressUpdateRequest) (*ProgressUpdate, error) {
	var existing ProgressUpdate
	err := s.db.WithContext(ctx).Where(&ProgressUpdate{ID: updateID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Progress update not found")
	}
	if err != nil {
		return nil, errutil.Internal("failed to load progress update", errutil.WithErr(err))
	}

	old := existing

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.MedicalCondition != nil {
		existing.MedicalCondition = *req.MedicalCondition
	}
	if req.RecoveryStatus != nil {
		status := RecoveryStatus(*req.RecoveryStatus)
		if status.String() == "" {
			return nil, errutil.ValidationFailed(fmt.Sprintf("Invalid recovery status: %s", *req.RecoveryStatus))
		}
		existing.RecoveryStatus = status
	}

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		zap.L().Error("failed to update progress update", zap.String("update_id", updateID), zap.Error(err))
		return nil, errutil.Internal("failed to update progress update", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     req.UpdatedBy,
		Action:      activity.ActionUpdate,
		EntityType:  "progress_update",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Updated progress update for animal %s", existing.AnimalID),
		OldValues:   old,
		NewValues:   existing,
	})

	return &existing, nil
}

func (s *Service) DeleteProgressUpdate(ctx context.Context, updateID, adminID string) error {
	var existing ProgressUpdate
	err := s.db.WithContext(ctx).Where(&ProgressUpdate{ID: updateID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("Progress update not found")
	}
	if err != nil {
		return errutil.Internal("failed to load progress update", errutil.WithErr(err))
	}

	if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
		zap.L().Error("failed to delete progress update", zap.String("update_id", updateID), zap.Error(err))
		return errutil.Internal("failed to delete progress update", errutil.WithErr(err))
	}

	s.recorder.Record(ctx, activity.Entry{
		AdminID:     adminID,
		Action:      activity.ActionDelete,
		EntityType:  "progress_update",
		EntityID:    existing.ID,
		Description: fmt.Sprintf("Deleted progress update for animal %s", existing.AnimalID),
		OldValues:   existing,
	})

	return nil
}
