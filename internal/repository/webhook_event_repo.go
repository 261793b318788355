package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventRepository interface {
	Create(ctx context.Context, event *model.WebhookEvent) error
	MarkProcessed(ctx context.Context, id uuid.UUID, note string) error
	ListUnprocessed(ctx context.Context, limit int) ([]model.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *model.WebhookEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, note string) error {
	now := time.Now()
	return GetDB(ctx, r.db).Model(&model.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"processed_at": &now, "processing_note": note}).Error
}

func (r *webhookEventRepository) ListUnprocessed(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	var events []model.WebhookEvent
	if err := GetDB(ctx, r.db).
		Where("processed_at IS NULL AND signature_valid = ?", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
