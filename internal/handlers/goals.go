package handlers

import (
	"time"

	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (a *API) CreateGoal(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	goal := models.Goal{
		Title:             req.Title,
		GoalType:          req.GoalType,
		Owner:             models.IndividualOwner(viewer.ID),
		CreatorID:         viewer.ID,
		PrivacyLevel:      models.PrivacyLevel(req.PrivacyLevel),
		InitialConfidence: models.Posture(req.InitialConfidence),
	}
	if req.OwnerID != nil {
		kind := req.OwnerKind
		if kind == "" {
			kind = models.OwnerIndividual
		}
		goal.Owner = models.Owner{Kind: kind, ID: *req.OwnerID}
	}
	if err := applyTargetDates(&goal, req.EarliestTargetDate, req.MostLikelyTargetDate, req.LatestTargetDate); err != nil {
		return respondError(c, err)
	}
	if err := goal.Validate(); err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	if req.ParentGoalID != nil {
		parent, err := a.Store.GetGoal(ctx, *req.ParentGoalID)
		if err != nil {
			return respondError(c, err)
		}
		if !a.Policy.CanView(parent, viewer) {
			return respondError(c, models.ErrForbidden)
		}
		err = a.Store.CreateGoalWithParent(ctx, &goal, parent.ID)
		if err != nil {
			return respondError(c, err)
		}
	} else if err := a.Store.CreateGoal(ctx, &goal); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (a *API) GetGoal(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (a *API) UpdateGoal(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateGoalRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.InitialConfidence != nil {
		goal.InitialConfidence = models.Posture(*req.InitialConfidence)
	}
	if req.PrivacyLevel != nil {
		goal.PrivacyLevel = models.PrivacyLevel(*req.PrivacyLevel)
	}
	if err := applyTargetDates(goal, req.EarliestTargetDate, req.MostLikelyTargetDate, req.LatestTargetDate); err != nil {
		return respondError(c, err)
	}
	if req.Completed != nil {
		if *req.Completed && goal.CompletedAt == nil {
			now := a.now()
			goal.CompletedAt = &now
		} else if !*req.Completed {
			goal.CompletedAt = nil
		}
	}

	if err := a.Store.SaveGoal(c.UserContext(), goal); err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (a *API) DeleteGoal(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	if goal.CreatorID != viewer.ID {
		if ownerID, ok := goal.Owner.TeammateID(); !ok || ownerID != viewer.ID {
			return respondError(c, models.ErrForbidden)
		}
	}
	if err := a.Store.DeleteGoal(c.UserContext(), goal.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetGoalTree returns the enriched tree of all visible goals, optionally
// limited to one owner.
func (a *API) GetGoalTree(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	filter := database.GoalFilter{IncludeClosed: c.QueryBool("includeClosed", false)}
	if owner := c.Query("ownerId"); owner != "" {
		id, err := uuid.Parse(owner)
		if err != nil {
			return respondError(c, &models.ValidationError{Messages: []string{"invalid owner ID"}})
		}
		filter.OwnerID = &id
	}

	ctx := c.UserContext()
	goals, err := a.Store.ListGoals(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}
	tree, err := a.Enricher.Enrich(ctx, a.filterVisible(goals, viewer), viewer, a.now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

// GetGoalHierarchy returns the enriched tree of every goal connected to the
// requested one, above or below it.
func (a *API) GetGoalHierarchy(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	graph, err := a.Store.LoadGraph(ctx)
	if err != nil {
		return respondError(c, err)
	}
	idSet := graph.HierarchyIDs(goal.ID)
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	goals, err := a.Store.GoalsByIDs(ctx, ids)
	if err != nil {
		return respondError(c, err)
	}
	visible := a.filterVisible(goals, viewer)
	visibleIDs := make([]uuid.UUID, len(visible))
	for i := range visible {
		visibleIDs[i] = visible[i].ID
	}
	tree, err := a.Enricher.Enrich(ctx, visible, viewer, a.now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"goalId":       goal.ID,
		"hierarchyIds": visibleIDs,
		"tree":         tree,
	})
}

func (a *API) AddChild(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	parent, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		ChildGoalID uuid.UUID `json:"childGoalId" validate:"required"`
	}
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	child, err := a.Store.GetGoal(ctx, req.ChildGoalID)
	if err != nil {
		return respondError(c, err)
	}
	if !a.Policy.CanView(child, viewer) {
		return respondError(c, models.ErrForbidden)
	}
	link, err := a.Store.CreateLink(ctx, parent.ID, child.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

func (a *API) RemoveChild(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	parent, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	childID, err := uuid.Parse(c.Params("childId"))
	if err != nil {
		return respondError(c, &models.ValidationError{Messages: []string{"invalid child goal ID"}})
	}
	if err := a.Store.DeleteLink(c.UserContext(), parent.ID, childID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// applyTargetDates sets whichever dates are present. An empty string clears
// a date.
func applyTargetDates(g *models.Goal, earliest, mostLikely, latest *string) error {
	set := func(raw *string, dst **time.Time) error {
		if raw == nil {
			return nil
		}
		d, err := models.ParseOptionalDate(raw)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
	if err := set(earliest, &g.EarliestTargetDate); err != nil {
		return err
	}
	if err := set(mostLikely, &g.MostLikelyTargetDate); err != nil {
		return err
	}
	return set(latest, &g.LatestTargetDate)
}
