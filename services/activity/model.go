package activity

import (
	"time"

	"gorm.io/datatypes"
)

type ActionType string

var (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

func (a ActionType) String() string {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return string(a)
	default:
		return ""
	}
}

// Log is one admin action with its before/after snapshots.
type Log struct {
	ID          string         `gorm:"column:id;primaryKey"`
	AdminID     string         `gorm:"column:admin_id;index"`
	ActionType  string         `gorm:"column:action_type;not null"`
	EntityType  string         `gorm:"column:entity_type;not null"`
	EntityID    string         `gorm:"column:entity_id;index"`
	Description string         `gorm:"column:description"`
	OldValues   datatypes.JSON `gorm:"column:old_values;type:jsonb"`
	NewValues   datatypes.JSON `gorm:"column:new_values;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Log) TableName() string {
	return "admin_activity_logs"
}
