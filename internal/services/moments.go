package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/models"
)

// MomentNotifier tells an individually owned goal's owner when someone else
// moves its confidence sharply: a notification row plus a push.
type MomentNotifier struct {
	store  *database.Store
	pusher Pusher
}

func NewMomentNotifier(store *database.Store, pusher Pusher) *MomentNotifier {
	return &MomentNotifier{store: store, pusher: pusher}
}

func (n *MomentNotifier) EmitConfidenceMoment(ctx context.Context, m checkins.Moment) error {
	ownerID, ok := m.Goal.Owner.TeammateID()
	if !ok || ownerID == m.Actor.ID {
		return nil
	}
	owner, err := n.store.GetTeammate(ctx, ownerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}

	title := "Confidence changed"
	body := fmt.Sprintf("%s moved \"%s\" from %d%% to %d%%",
		m.Actor.Label(), m.Goal.Title, m.Previous, m.CheckIn.ConfidencePercentage)
	meta := map[string]string{
		"goalId":     m.Goal.ID.String(),
		"checkInId":  m.CheckIn.ID.String(),
		"previous":   strconv.Itoa(m.Previous),
		"confidence": strconv.Itoa(m.CheckIn.ConfidencePercentage),
	}

	notif := models.Notification{
		TeammateID: owner.ID,
		Type:       models.NotificationConfidenceMoment,
		Title:      title,
		Body:       body,
	}
	if data, err := json.Marshal(meta); err == nil {
		s := string(data)
		notif.Metadata = &s
	}
	if err := n.store.CreateNotification(ctx, &notif); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if n.pusher != nil {
		meta["type"] = models.NotificationConfidenceMoment
		// Push delivery must not hold up the request.
		go func() {
			if err := n.pusher.SendToTeammate(context.Background(), owner, title, body, meta); err != nil {
				slog.Warn("FCM: failed to send", slog.String("teammate_id", owner.ID.String()), slog.Any("error", err))
			}
		}()
	}
	return nil
}

// Fanout delivers a moment to several emitters, joining their errors.
type Fanout []checkins.MomentEmitter

func (f Fanout) EmitConfidenceMoment(ctx context.Context, m checkins.Moment) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.EmitConfidenceMoment(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
