package repository

import (
	"context"
	"promo-campaign-backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateLog(ctx context.Context, entry *model.NotificationLog) error
	FindLogByID(ctx context.Context, logID string) (*model.NotificationLog, error)
	MarkSent(ctx context.Context, logID, providerMessageID string) error
	MarkFailed(ctx context.Context, logID, errMsg string) error
	MarkSkipped(ctx context.Context, logID, reason string) error
	ListRecent(ctx context.Context, limit int) ([]*model.NotificationLog, error)
	FindTemplate(ctx context.Context, key, channel string) (*model.NotificationTemplate, error)
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepoImpl{
		db: db,
	}
}

func (r *notificationRepoImpl) CreateLog(ctx context.Context, entry *model.NotificationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *notificationRepoImpl) FindLogByID(ctx context.Context, logID string) (*model.NotificationLog, error) {
	var entry model.NotificationLog
	err := r.db.WithContext(ctx).
		Where("id = ?", logID).
		First(&entry).Error

	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *notificationRepoImpl) MarkSent(ctx context.Context, logID, providerMessageID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.NotificationLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":              model.NotificationSent,
			"provider_message_id": providerMessageID,
			"error":               "",
			"sent_at":             now,
			"updated_at":          now,
		}).Error
}

// MarkFailed records the provider error and bumps retry_count. The counter
// is an audit field, re-dispatch only happens through the admin resend
// endpoint.
func (r *notificationRepoImpl) MarkFailed(ctx context.Context, logID, errMsg string) error {
	return r.db.WithContext(ctx).Model(&model.NotificationLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":      model.NotificationFailed,
			"error":       errMsg,
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}

func (r *notificationRepoImpl) MarkSkipped(ctx context.Context, logID, reason string) error {
	return r.db.WithContext(ctx).Model(&model.NotificationLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"status":     model.NotificationSkipped,
			"error":      reason,
			"updated_at": time.Now(),
		}).Error
}

func (r *notificationRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.NotificationLog, error) {
	var entries []*model.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *notificationRepoImpl) FindTemplate(ctx context.Context, key, channel string) (*model.NotificationTemplate, error) {
	var tmpl model.NotificationTemplate
	err := r.db.WithContext(ctx).
		Where("`key` = ? AND channel = ? AND active = ?", key, channel, true).
		First(&tmpl).Error

	if err != nil {
		return nil, err
	}

	return &tmpl, nil
}
