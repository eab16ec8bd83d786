package handlers

import (
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/arnold/goalgraph-api/internal/outline"
	"github.com/gofiber/fiber/v2"
)

// ParseOutline previews the goals an outline would create without saving.
func (a *API) ParseOutline(c *fiber.Ctx) error {
	var req models.OutlineImportRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(outline.Parse(req.Text, defaultGoalType(req.DefaultGoalType)))
}

// ImportOutline creates every goal in the outline or none of them.
func (a *API) ImportOutline(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	var req models.OutlineImportRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	template := models.Goal{
		Owner:     models.IndividualOwner(viewer.ID),
		CreatorID: viewer.ID,
	}
	if req.ParentGoalID != nil {
		parent, err := a.Store.GetGoal(ctx, *req.ParentGoalID)
		if err != nil {
			return respondError(c, err)
		}
		if !a.Policy.CanView(parent, viewer) {
			return respondError(c, models.ErrForbidden)
		}
		// Nested goals inherit ownership and visibility from the goal they hang under.
		template.Owner = parent.Owner
		template.PrivacyLevel = parent.PrivacyLevel
		template.InitialConfidence = parent.InitialConfidence
	}

	items := outline.Parse(req.Text, defaultGoalType(req.DefaultGoalType))
	if len(items) == 0 {
		return respondError(c, &models.ValidationError{Messages: []string{"outline has no goals"}})
	}
	goals, err := a.Store.CreateOutline(ctx, items, template, req.ParentGoalID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"goals": goals,
		"items": items,
	})
}

func defaultGoalType(t models.GoalType) models.GoalType {
	if t == "" {
		return models.GoalTypeQuantitativeKeyResult
	}
	return t
}
