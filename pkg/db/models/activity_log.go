package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// ActivityLog is an append-only audit record. Business logic never updates or
// deletes rows in this table.
type ActivityLog struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Action      enums.ActivityAction  `gorm:"column:action;not null" json:"action"`
	SubjectType enums.ActivitySubject `gorm:"column:subject_type;not null" json:"subject_type"`
	SubjectID   uuid.UUID             `gorm:"column:subject_id;type:uuid;not null" json:"subject_id"`
	Details     json.RawMessage       `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName keeps the legacy table name.
func (ActivityLog) TableName() string {
	return "user_activity_logs"
}
