package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/hierarchy"
	"github.com/arnold/goalgraph-api/internal/middleware"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// API holds the collaborators every handler needs.
type API struct {
	Store     *database.Store
	Recorder  *checkins.Recorder
	Bulk      *checkins.BulkRecorder
	Enricher  *hierarchy.Enricher
	Policy    checkins.ViewPolicy
	Hub       *Hub
	JWTSecret string
	Now       func() time.Time
}

func (a *API) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":    "Validation failed",
			"messages": ve.Messages,
		})
	case errors.Is(err, models.ErrInvalidDate):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You don't have access to this goal"})
	case errors.Is(err, models.ErrCycleDetected):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Link would create a cycle"})
	}
	slog.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func (a *API) viewer(c *fiber.Ctx) (*models.Teammate, error) {
	return a.Store.GetTeammate(c.UserContext(), middleware.GetTeammateID(c))
}

// visibleGoal loads the goal named by the :id param and checks the viewer
// may see it.
func (a *API) visibleGoal(c *fiber.Ctx, viewer *models.Teammate) (*models.Goal, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, &models.ValidationError{Messages: []string{"invalid goal ID"}}
	}
	goal, err := a.Store.GetGoal(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !a.Policy.CanView(goal, viewer) {
		return nil, models.ErrForbidden
	}
	return goal, nil
}

func (a *API) filterVisible(goals []models.Goal, viewer *models.Teammate) []models.Goal {
	out := make([]models.Goal, 0, len(goals))
	for i := range goals {
		if a.Policy.CanView(&goals[i], viewer) {
			out = append(out, goals[i])
		}
	}
	return out
}

func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return &models.ValidationError{Messages: []string{"invalid request body"}}
	}
	return models.ValidateRequest(req)
}
