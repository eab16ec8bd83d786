package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GoalCheckIn is one weekly confidence report. There is at most one row per
// goal and week, enforced by idx_goal_check_in_week.
type GoalCheckIn struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID               uuid.UUID `json:"goalId" gorm:"type:uuid;not null;uniqueIndex:idx_goal_check_in_week,priority:1"`
	CheckInWeekStart     time.Time `json:"checkInWeekStart" gorm:"type:date;not null;uniqueIndex:idx_goal_check_in_week,priority:2"`
	ConfidencePercentage int       `json:"confidencePercentage" gorm:"not null"`
	ConfidenceReason     *string   `json:"confidenceReason"`
	ReporterID           uuid.UUID `json:"reporterId" gorm:"type:uuid;not null"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (c *GoalCheckIn) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CheckInWeekStart = WeekStart(c.CheckInWeekStart)
	return c.Validate()
}

func (c *GoalCheckIn) Validate() error {
	var msgs []string
	if c.ConfidencePercentage < 0 || c.ConfidencePercentage > 100 {
		msgs = append(msgs, "confidence percentage must be between 0 and 100")
	}
	if c.GoalID == uuid.Nil {
		msgs = append(msgs, "goal is required")
	}
	if c.ReporterID == uuid.Nil {
		msgs = append(msgs, "reporter is required")
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// Newer reports whether c should be preferred over other as the most recent
// check-in: later week first, then later update.
func (c *GoalCheckIn) Newer(other *GoalCheckIn) bool {
	if other == nil {
		return true
	}
	if !c.CheckInWeekStart.Equal(other.CheckInWeekStart) {
		return c.CheckInWeekStart.After(other.CheckInWeekStart)
	}
	return c.UpdatedAt.After(other.UpdatedAt)
}

// Check-in DTOs
type CheckInRequest struct {
	ConfidencePercentage *int    `json:"confidencePercentage" validate:"omitempty,min=0,max=100"`
	ConfidenceReason     *string `json:"confidenceReason" validate:"omitempty,max=5000"`
	MostLikelyTargetDate *string `json:"mostLikelyTargetDate"`
	WeekStart            *string `json:"weekStart"`
}

type BulkCheckInItem struct {
	ConfidencePercentage *int    `json:"confidencePercentage" validate:"omitempty,min=0,max=100"`
	ConfidenceReason     *string `json:"confidenceReason" validate:"omitempty,max=5000"`
}

type BulkCheckInRequest struct {
	WeekStart *string                       `json:"weekStart"`
	CheckIns  map[uuid.UUID]BulkCheckInItem `json:"checkIns" validate:"required,min=1,dive"`
}
