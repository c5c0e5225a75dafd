package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// Entry describes one audit record to append. ActorID is always passed in
// explicitly by the caller; this package never reads identity from context.
type Entry struct {
	ActorID     uuid.UUID
	Action      enums.ActivityAction
	SubjectType enums.ActivitySubject
	SubjectID   uuid.UUID
	Details     any
}

// ListQuery filters the activity log listing.
type ListQuery struct {
	UserID      *uuid.UUID
	SubjectType *enums.ActivitySubject
	SubjectID   *uuid.UUID
	Pagination  pagination.Params
}

// Writer appends immutable activity records. Records are never updated or
// deleted by business logic.
type Writer interface {
	WithTx(tx *gorm.DB) Writer
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.ActivityLog], error)
}

type writer struct {
	db *gorm.DB
}

// NewWriter returns an audit writer bound to the provided database.
func NewWriter(db *gorm.DB) Writer {
	return &writer{db: db}
}

func (w *writer) WithTx(tx *gorm.DB) Writer {
	if tx == nil {
		return w
	}
	return &writer{db: tx}
}

func (w *writer) Record(ctx context.Context, entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return fmt.Errorf("audit entry requires an actor id")
	}
	if !entry.Action.IsValid() {
		return fmt.Errorf("audit entry carries unknown action %q", entry.Action)
	}
	if !entry.SubjectType.IsValid() {
		return fmt.Errorf("audit entry carries unknown subject type %q", entry.SubjectType)
	}

	record := models.ActivityLog{
		UserID:      entry.ActorID,
		Action:      entry.Action,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
	}

	if entry.Details != nil {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		record.Details = payload
	}

	return w.db.WithContext(ctx).Create(&record).Error
}

func (w *writer) List(ctx context.Context, query ListQuery) (*pagination.Page[models.ActivityLog], error) {
	base := w.db.WithContext(ctx).Model(&models.ActivityLog{})
	if query.UserID != nil {
		base = base.Where("user_id = ?", *query.UserID)
	}
	if query.SubjectType != nil {
		base = base.Where("subject_type = ?", *query.SubjectType)
	}
	if query.SubjectID != nil {
		base = base.Where("subject_id = ?", *query.SubjectID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var logs []models.ActivityLog
	if err := base.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&logs).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(logs, params, total), nil
}
