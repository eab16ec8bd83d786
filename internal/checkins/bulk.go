package checkins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

const permissionDeniedMessage = "You don't have permission to check in on this goal"

type ViewPolicy interface {
	CanView(goal *models.Goal, viewer *models.Teammate) bool
}

type ItemError struct {
	GoalID  uuid.UUID `json:"goalId"`
	Message string    `json:"message"`
}

type BulkResult struct {
	SuccessCount int         `json:"successCount"`
	FailureCount int         `json:"failureCount"`
	Errors       []ItemError `json:"errors"`
	// Recorded holds each successful check-in in the order it was written.
	Recorded []*Result `json:"-"`
}

// BulkRecorder applies Recorder to many goals for the same week. Each goal is
// recorded in its own transaction, so one failure never undoes another
// goal's success.
type BulkRecorder struct {
	store    *database.Store
	recorder *Recorder
	policy   ViewPolicy
}

func NewBulkRecorder(store *database.Store, recorder *Recorder, policy ViewPolicy) *BulkRecorder {
	return &BulkRecorder{store: store, recorder: recorder, policy: policy}
}

// RecordBatch checks in on every goal in items. Unknown and completed goals
// are skipped without counting. Goals the viewer cannot see count as
// failures. The returned error is only for failing to load the goals at all.
func (b *BulkRecorder) RecordBatch(ctx context.Context, items map[uuid.UUID]models.BulkCheckInItem, weekStart time.Time, viewer *models.Teammate) (*BulkResult, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	goals, err := b.store.GoalsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Goal, len(goals))
	for i := range goals {
		byID[goals[i].ID] = &goals[i]
	}

	res := &BulkResult{Errors: []ItemError{}}
	week := models.WeekStart(weekStart)
	for _, id := range ids {
		goal, ok := byID[id]
		if !ok || goal.IsCompleted() {
			b.recorder.Metrics.BulkItem("skipped")
			continue
		}
		if viewer == nil || b.policy == nil || !b.policy.CanView(goal, viewer) {
			res.fail(id, permissionDeniedMessage)
			b.recorder.Metrics.BulkItem("forbidden")
			continue
		}
		item := items[id]
		recorded, err := b.recorder.Record(ctx, goal, viewer, Params{
			ConfidencePercentage: item.ConfidencePercentage,
			ConfidenceReason:     item.ConfidenceReason,
			WeekStart:            &week,
		})
		if err != nil {
			res.fail(id, itemMessage(err))
			b.recorder.Metrics.BulkItem("failure")
			continue
		}
		res.SuccessCount++
		res.Recorded = append(res.Recorded, recorded)
		b.recorder.Metrics.BulkItem("success")
	}
	return res, nil
}

func (r *BulkResult) fail(id uuid.UUID, msg string) {
	r.FailureCount++
	r.Errors = append(r.Errors, ItemError{GoalID: id, Message: msg})
}

func itemMessage(err error) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) && len(ve.Messages) > 0 {
		return strings.Join(ve.Messages, "; ")
	}
	return err.Error()
}
