package handlers

import (
	"time"

	"github.com/arnold/goalgraph-api/internal/checkins"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/arnold/goalgraph-api/internal/schedule"
	"github.com/gofiber/fiber/v2"
)

func (a *API) RecordCheckIn(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	var req models.CheckInRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	week, err := weekParam(req.WeekStart)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	res, err := a.Recorder.Record(ctx, goal, viewer, checkins.Params{
		ConfidencePercentage: req.ConfidencePercentage,
		ConfidenceReason:     req.ConfidenceReason,
		MostLikelyTargetDate: req.MostLikelyTargetDate,
		WeekStart:            week,
	})
	if err != nil {
		return respondError(c, err)
	}

	if a.Hub != nil {
		a.Hub.BroadcastCheckIn(ctx, viewer.ID, res)
	}

	out := fiber.Map{
		"checkIn":           res.CheckIn,
		"goal":              res.Goal,
		"targetDateUpdated": res.TargetDateUpdated,
	}
	if t := schedule.Calculate(schedule.InputFor(res.Goal, res.CheckIn.CheckInWeekStart)); t != nil {
		out["thresholds"] = t
		out["scheduleStatus"] = t.Classify(res.CheckIn.ConfidencePercentage)
	}
	return c.JSON(out)
}

func (a *API) BulkCheckIn(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	var req models.BulkCheckInRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	week, err := weekParam(req.WeekStart)
	if err != nil {
		return respondError(c, err)
	}
	weekStart := models.WeekStart(a.now())
	if week != nil {
		weekStart = *week
	}

	ctx := c.UserContext()
	res, err := a.Bulk.RecordBatch(ctx, req.CheckIns, weekStart, viewer)
	if err != nil {
		return respondError(c, err)
	}
	if a.Hub != nil {
		for _, recorded := range res.Recorded {
			a.Hub.BroadcastCheckIn(ctx, viewer.ID, recorded)
		}
	}
	return c.JSON(res)
}

func (a *API) ListCheckIns(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	list, err := a.Store.CheckInsForGoal(c.UserContext(), goal.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetProgressChart returns the forecast bands and reported confidence for a
// goal. 204 means the goal has not started or has no target date.
func (a *API) GetProgressChart(c *fiber.Ctx) error {
	viewer, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	goal, err := a.visibleGoal(c, viewer)
	if err != nil {
		return respondError(c, err)
	}
	list, err := a.Store.CheckInsForGoal(c.UserContext(), goal.ID)
	if err != nil {
		return respondError(c, err)
	}
	chart := schedule.BuildChart(goal, list)
	if chart == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(chart)
}

func weekParam(raw *string) (*time.Time, error) {
	d, err := models.ParseOptionalDate(raw)
	if err != nil || d == nil {
		return nil, err
	}
	w := models.WeekStart(*d)
	return &w, nil
}
