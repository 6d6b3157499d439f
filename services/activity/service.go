package activity

import (
	"context"
	"encoding/json"
	"time"

	"savepaws-backend/pkg/gen"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder appends admin activity entries. Recording is best-effort: a
// failed append is logged and never fails the caller's request.
type Recorder struct {
	db   *gorm.DB
	node *gen.SnowflakeNode
}

type RecorderParams struct {
	fx.In
	DB   *gorm.DB
	Node *gen.SnowflakeNode
}

func NewRecorder(p RecorderParams) *Recorder {
	return &Recorder{
		db:   p.DB,
		node: p.Node,
	}
}

type Entry struct {
	AdminID     string
	Action      ActionType
	EntityType  string
	EntityID    string
	Description string
	OldValues   any
	NewValues   any
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	row := &Log{
		ID:          r.node.GenerateString(),
		AdminID:     e.AdminID,
		ActionType:  e.Action.String(),
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Description: e.Description,
		OldValues:   marshalValues(e.OldValues),
		NewValues:   marshalValues(e.NewValues),
		CreatedAt:   time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		zap.L().Warn("failed to record admin activity",
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

func (r *Recorder) ListForEntity(ctx context.Context, entityType, entityID string) ([]*Log, error) {
	var logs []*Log
	err := r.db.WithContext(ctx).
		Where(&Log{EntityType: entityType, EntityID: entityID}).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func marshalValues(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
