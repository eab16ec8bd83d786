package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/config"
	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(&config.Config{DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return database.NewStore(db)
}

type fakePusher struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (p *fakePusher) SendToTeammate(_ context.Context, t *models.Teammate, title, body string, data map[string]string) error {
	p.mu.Lock()
	p.sent = append(p.sent, t.ID.String()+":"+data["type"])
	p.mu.Unlock()
	close(p.done)
	return nil
}

func moment(owner, actor *models.Teammate) checkins.Moment {
	g := models.Goal{Title: "Grow revenue", Owner: models.IndividualOwner(owner.ID)}
	return checkins.Moment{
		CheckIn:  models.GoalCheckIn{ConfidencePercentage: 30},
		Goal:     g,
		Actor:    *actor,
		Previous: 70,
	}
}

func TestMomentNotifierNotifiesOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := &models.Teammate{Email: "owner@example.com", Name: "Owner"}
	actor := &models.Teammate{Email: "peer@example.com", DisplayName: "Pat"}
	require.NoError(t, store.CreateTeammate(ctx, owner))
	require.NoError(t, store.CreateTeammate(ctx, actor))

	pusher := &fakePusher{done: make(chan struct{})}
	n := NewMomentNotifier(store, pusher)
	require.NoError(t, n.EmitConfidenceMoment(ctx, moment(owner, actor)))

	page, err := store.NotificationsFor(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, models.NotificationConfidenceMoment, page.Notifications[0].Type)
	assert.Contains(t, page.Notifications[0].Body, "Pat moved")
	assert.Contains(t, page.Notifications[0].Body, "from 70% to 30%")
	assert.Equal(t, int64(1), page.Unread)

	select {
	case <-pusher.done:
	case <-time.After(time.Second):
		t.Fatal("push was not sent")
	}
	assert.Equal(t, []string{owner.ID.String() + ":" + models.NotificationConfidenceMoment}, pusher.sent)
}

func TestMomentNotifierSkipsSelfAndOrgUnits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := &models.Teammate{Email: "owner@example.com"}
	require.NoError(t, store.CreateTeammate(ctx, owner))
	n := NewMomentNotifier(store, nil)

	require.NoError(t, n.EmitConfidenceMoment(ctx, moment(owner, owner)))

	m := moment(owner, &models.Teammate{})
	m.Goal.Owner = models.OrgUnitOwner(owner.ID)
	require.NoError(t, n.EmitConfidenceMoment(ctx, m))

	page, err := store.NotificationsFor(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)
}

type failingEmitter struct{ err error }

func (f failingEmitter) EmitConfidenceMoment(context.Context, checkins.Moment) error { return f.err }

func TestFanoutJoinsErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	err := Fanout{failingEmitter{a}, nil, failingEmitter{}, failingEmitter{b}}.EmitConfidenceMoment(context.Background(), checkins.Moment{})
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)

	assert.NoError(t, Fanout{failingEmitter{}}.EmitConfidenceMoment(context.Background(), checkins.Moment{}))
}

func TestPushServiceDisabledWithoutCredentials(t *testing.T) {
	p := NewPushService(context.Background(), "")
	assert.False(t, p.Enabled())
	assert.NoError(t, p.SendToTeammate(context.Background(), &models.Teammate{FCMToken: "tok"}, "t", "b", nil))
}
