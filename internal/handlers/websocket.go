package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/hierarchy"
	"github.com/arnold/goalgraph-api/internal/middleware"
	"github.com/arnold/goalgraph-api/internal/models"
)

// Event types sent over WebSocket
const (
	EventCheckInRecorded  = "check_in_recorded"
	EventGoalCompleted    = "goal_completed"
	EventConfidenceMoment = "confidence_moment"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type       string `json:"type"`
	GoalID     string `json:"goalId"`
	TeammateID string `json:"teammateId"`
	Data       any    `json:"data,omitempty"`
}

// HubStore supplies the link graph used to find every room a change
// concerns, and the goals and teammates checked when a client subscribes.
type HubStore interface {
	LoadGraph(ctx context.Context) (*hierarchy.Graph, error)
	GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	GetTeammate(ctx context.Context, id uuid.UUID) (*models.Teammate, error)
}

type connection struct {
	conn     *websocket.Conn
	teammate *models.Teammate
	writeMu  sync.Mutex
}

func (c *connection) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket connections per goal. A client watching a goal hears
// about check-ins anywhere in that goal's hierarchy, but only for goals it
// may view.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*connection]bool // goalID -> set of connections
	store  HubStore
	policy checkins.ViewPolicy
}

func NewHub(store HubStore, policy checkins.ViewPolicy) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*connection]bool),
		store:  store,
		policy: policy,
	}
}

func (h *Hub) canView(goal *models.Goal, teammate *models.Teammate) bool {
	return h.policy != nil && h.policy.CanView(goal, teammate)
}

func (h *Hub) register(goalID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[goalID] == nil {
		h.rooms[goalID] = make(map[*connection]bool)
	}
	h.rooms[goalID][conn] = true
	slog.Debug("WS register", slog.String("teammate_id", conn.teammate.ID.String()),
		slog.String("goal_id", goalID.String()), slog.Int("total", len(h.rooms[goalID])))
}

func (h *Hub) unregister(goalID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[goalID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, goalID)
		}
	}
}

// RoomSize reports how many connections watch a goal.
func (h *Hub) RoomSize(goalID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[goalID])
}

// Broadcast sends an event about goal to every room in goalIDs, skipping the
// teammate who caused it and anyone who may not view goal. A connection in
// several rooms receives the event once.
func (h *Hub) Broadcast(goal *models.Goal, goalIDs []uuid.UUID, excludeTeammateID uuid.UUID, event WSEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		slog.Error("WS broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make(map[*connection]bool)
	for _, id := range goalIDs {
		for c := range h.rooms[id] {
			if c.teammate.ID == excludeTeammateID || !h.canView(goal, c.teammate) {
				continue
			}
			targets[c] = true
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		if err := c.write(msg); err != nil {
			slog.Warn("WS write error", slog.String("teammate_id", c.teammate.ID.String()), slog.Any("error", err))
		}
	}
}

// BroadcastCheckIn notifies watchers of the goal and of every goal connected
// to it.
func (h *Hub) BroadcastCheckIn(ctx context.Context, actorID uuid.UUID, res *checkins.Result) {
	rooms := h.hierarchyRooms(ctx, res.Goal.ID)
	h.Broadcast(res.Goal, rooms, actorID, WSEvent{
		Type:       EventCheckInRecorded,
		GoalID:     res.Goal.ID.String(),
		TeammateID: actorID.String(),
		Data:       res,
	})
	if res.Goal.IsCompleted() {
		h.Broadcast(res.Goal, rooms, actorID, WSEvent{
			Type:       EventGoalCompleted,
			GoalID:     res.Goal.ID.String(),
			TeammateID: actorID.String(),
			Data:       res.Goal,
		})
	}
}

// EmitConfidenceMoment lets the hub take part in moment delivery.
func (h *Hub) EmitConfidenceMoment(ctx context.Context, m checkins.Moment) error {
	h.Broadcast(&m.Goal, h.hierarchyRooms(ctx, m.Goal.ID), m.Actor.ID, WSEvent{
		Type:       EventConfidenceMoment,
		GoalID:     m.Goal.ID.String(),
		TeammateID: m.Actor.ID.String(),
		Data: fiber.Map{
			"previous":   m.Previous,
			"confidence": m.CheckIn.ConfidencePercentage,
			"title":      m.Goal.Title,
		},
	})
	return nil
}

func (h *Hub) hierarchyRooms(ctx context.Context, goalID uuid.UUID) []uuid.UUID {
	graph, err := h.store.LoadGraph(ctx)
	if err != nil {
		slog.Warn("WS: failed to load goal graph", slog.String("goal_id", goalID.String()), slog.Any("error", err))
		return []uuid.UUID{goalID}
	}
	ids := graph.HierarchyIDs(goalID)
	out := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// Upgrade checks the upgrade request, validates the JWT and only lets the
// teammate subscribe to a goal they may view.
func (h *Hub) Upgrade(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			tokenString = middleware.BearerToken(c)
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		goalID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return respondError(c, &models.ValidationError{Messages: []string{"invalid goal ID"}})
		}
		ctx := c.UserContext()
		teammate, err := h.store.GetTeammate(ctx, claims.TeammateID)
		if err != nil {
			return respondError(c, err)
		}
		goal, err := h.store.GetGoal(ctx, goalID)
		if err != nil {
			return respondError(c, err)
		}
		if !h.canView(goal, teammate) {
			return respondError(c, models.ErrForbidden)
		}

		c.Locals("teammate", teammate)
		c.Locals("goalId", goal.ID)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection watching a specific goal
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	goalID, ok := c.Locals("goalId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}
	teammate, ok := c.Locals("teammate").(*models.Teammate)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, teammate: teammate}
	h.register(goalID, conn)
	defer h.unregister(goalID, conn)

	// Keep connection alive; clients only send pings.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
