package database

import (
	"context"
	"fmt"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

// NotificationPage is one page of a teammate's notifications, newest first.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.conn(ctx).Create(n).Error
}

func (s *Store) NotificationsFor(ctx context.Context, teammateID uuid.UUID, page, limit int) (*NotificationPage, error) {
	out := &NotificationPage{Page: page, Limit: limit}
	db := s.conn(ctx)
	err := db.Where("teammate_id = ?", teammateID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out.Notifications).Error
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.Notification{}).Where("teammate_id = ?", teammateID).Count(&out.Total).Error; err != nil {
		return nil, err
	}
	err = db.Model(&models.Notification{}).
		Where("teammate_id = ? AND read = ?", teammateID, false).
		Count(&out.Unread).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead fails with ErrNotFound when the notification belongs
// to someone else.
func (s *Store) MarkNotificationRead(ctx context.Context, teammateID, id uuid.UUID) error {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND teammate_id = ?", id, teammateID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, teammateID uuid.UUID) error {
	return s.conn(ctx).Model(&models.Notification{}).
		Where("teammate_id = ? AND read = ?", teammateID, false).
		Update("read", true).Error
}

// SetDeviceToken stores the FCM token used for push delivery.
func (s *Store) SetDeviceToken(ctx context.Context, teammateID uuid.UUID, token string) error {
	return s.conn(ctx).Model(&models.Teammate{}).
		Where("id = ?", teammateID).
		Update("fcm_token", token).Error
}
