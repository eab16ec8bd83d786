package services

import (
	"context"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/goalgraph-api/internal/models"
	"google.golang.org/api/option"
)

// Pusher delivers a push notification to one teammate.
type Pusher interface {
	SendToTeammate(ctx context.Context, t *models.Teammate, title, body string, data map[string]string) error
}

// PushService handles sending push notifications via Firebase Cloud Messaging
type PushService struct {
	client *messaging.Client
}

// NewPushService initializes the Firebase push notification service.
// Returns a disabled service if no service account is configured (dev mode)
// or Firebase cannot be reached.
func NewPushService(ctx context.Context, serviceAccountPath string) *PushService {
	if serviceAccountPath == "" {
		slog.Info("FCM: no service account configured, push notifications disabled")
		return &PushService{}
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		slog.Warn("FCM: failed to initialize Firebase app", slog.Any("error", err))
		return &PushService{}
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		slog.Warn("FCM: failed to get messaging client", slog.Any("error", err))
		return &PushService{}
	}

	slog.Info("FCM: push notifications enabled")
	return &PushService{client: client}
}

func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil
}

// SendToTeammate is a no-op if push is not configured or the teammate has no
// FCM token.
func (p *PushService) SendToTeammate(ctx context.Context, t *models.Teammate, title, body string, data map[string]string) error {
	if !p.Enabled() || t.FCMToken == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: t.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	_, err := p.client.Send(ctx, msg)
	return err
}
