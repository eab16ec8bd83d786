package handlers_test

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/arnold/goalgraph-api/internal/handlers"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port and returns its ws:// base URL.
func (s *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.app.Listener(ln)
	t.Cleanup(func() { _ = s.app.Shutdown() })
	return "ws://" + ln.Addr().String()
}

func dialGoal(base string, goalID uuid.UUID, token string) (*websocket.Conn, *http.Response, error) {
	url := base + "/ws/goals/" + goalID.String()
	if token != "" {
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

// watch subscribes to a goal and waits until the hub has registered it.
func (s *testServer) watch(t *testing.T, base string, goalID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	before := s.hub.RoomSize(goalID)
	conn, _, err := dialGoal(base, goalID, token)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return s.hub.RoomSize(goalID) == before+1 },
		2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) (handlers.WSEvent, string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var event handlers.WSEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	return event, string(msg)
}

func TestWebSocketSubscribeRequiresViewAccess(t *testing.T) {
	s := newTestServer(t)
	base := s.listen(t)
	owner := s.register(t, "owner@example.com")
	stranger := s.register(t, "stranger@example.com")
	secret := s.createGoal(t, owner.Token, map[string]any{
		"title": "Secret plan", "goalType": "quantitative_key_result", "privacyLevel": "creator_only",
	})

	_, resp, err := dialGoal(base, secret.ID, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dialGoal(base, secret.ID, stranger.Token)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, s.hub.RoomSize(secret.ID))

	_, resp, err = dialGoal(base, uuid.New(), stranger.Token)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.watch(t, base, secret.ID, owner.Token)
}

func TestWebSocketOnlyDeliversGoalsTheWatcherCanView(t *testing.T) {
	s := newTestServer(t)
	base := s.listen(t)
	owner := s.register(t, "owner@example.com")
	stranger := s.register(t, "stranger@example.com")
	parent := s.createGoal(t, owner.Token, map[string]any{"title": "Objective", "goalType": "inspirational_objective"})
	secret := s.createGoal(t, owner.Token, map[string]any{
		"title": "Secret plan", "goalType": "quantitative_key_result", "parentGoalId": parent.ID,
		"privacyLevel": "creator_only",
	})
	open := s.createGoal(t, owner.Token, map[string]any{
		"title": "Open plan", "goalType": "quantitative_key_result", "parentGoalId": parent.ID,
	})

	conn := s.watch(t, base, parent.ID, stranger.Token)

	status, body := s.do(t, http.MethodPost, "/api/goals/"+secret.ID.String()+"/check-ins", owner.Token, map[string]any{
		"confidencePercentage": 40, "confidenceReason": "confidential reason",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = s.do(t, http.MethodPost, "/api/goals/"+open.ID.String()+"/check-ins", owner.Token, map[string]any{
		"confidencePercentage": 65,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	event, raw := readEvent(t, conn)
	assert.Equal(t, handlers.EventCheckInRecorded, event.Type)
	assert.Equal(t, open.ID.String(), event.GoalID)
	assert.Equal(t, owner.Teammate.ID.String(), event.TeammateID)
	assert.NotContains(t, raw, "confidential reason")
	assert.NotContains(t, raw, "Secret plan")
}

func TestBulkCheckInIsBroadcast(t *testing.T) {
	s := newTestServer(t)
	base := s.listen(t)
	owner := s.register(t, "owner@example.com")
	watcher := s.register(t, "watcher@example.com")
	parent := s.createGoal(t, owner.Token, map[string]any{"title": "Objective", "goalType": "quantitative_key_result"})
	child := s.createGoal(t, owner.Token, map[string]any{
		"title": "KR", "goalType": "quantitative_key_result", "parentGoalId": parent.ID,
	})

	conn := s.watch(t, base, parent.ID, watcher.Token)

	status, body := s.do(t, http.MethodPost, "/api/check-ins/bulk", owner.Token, map[string]any{
		"checkIns": map[string]any{child.ID.String(): map[string]any{"confidencePercentage": 100}},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	event, _ := readEvent(t, conn)
	assert.Equal(t, handlers.EventCheckInRecorded, event.Type)
	assert.Equal(t, child.ID.String(), event.GoalID)

	event, raw := readEvent(t, conn)
	assert.Equal(t, handlers.EventGoalCompleted, event.Type)
	assert.Equal(t, child.ID.String(), event.GoalID)
	var completed models.Goal
	require.NoError(t, json.Unmarshal([]byte(raw), &struct {
		Data *models.Goal `json:"data"`
	}{Data: &completed}))
	assert.NotNil(t, completed.CompletedAt)
}
