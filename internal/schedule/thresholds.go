// Package schedule turns a goal's target dates and risk posture into the
// confidence a reporter is expected to have on a given day, and charts that
// expectation week by week against actual check-ins.
package schedule

import (
	"math"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
)

type postureConfig struct {
	step  float64
	start float64
}

var postures = map[models.Posture]postureConfig{
	models.PostureCommit:    {step: 0.2, start: 80},
	models.PostureStretch:   {step: 0.5, start: 50},
	models.PostureTransform: {step: 0.8, start: 20},
}

func configFor(p models.Posture) postureConfig {
	if c, ok := postures[p]; ok {
		return c
	}
	return postures[models.PostureStretch]
}

// Thresholds are the confidence boundaries for one day. Higher reported
// confidence means further ahead.
type Thresholds struct {
	BehindScheduleIfConfidenceBelow  float64 `json:"behindScheduleIfConfidenceBelow"`
	OnScheduleIfConfidenceAbove      float64 `json:"onScheduleIfConfidenceAbove"`
	AheadOfScheduleIfConfidenceAbove float64 `json:"aheadOfScheduleIfConfidenceAbove"`
}

type Input struct {
	Posture              models.Posture
	EarliestTargetDate   *time.Time
	LatestTargetDate     *time.Time
	MostLikelyTargetDate *time.Time
	StartedAt            *time.Time
	ProgressCheckDate    *time.Time
}

// InputFor fills an Input from a goal's fields for the given check date.
func InputFor(g *models.Goal, checkDate time.Time) Input {
	return Input{
		Posture:              g.InitialConfidence,
		EarliestTargetDate:   g.EarliestTargetDate,
		LatestTargetDate:     g.LatestTargetDate,
		MostLikelyTargetDate: g.MostLikelyTargetDate,
		StartedAt:            g.StartedAt,
		ProgressCheckDate:    &checkDate,
	}
}

// Calculate returns nil when the most likely target date, start or check date
// is missing. Missing bounds fall back to the most likely date.
func Calculate(in Input) *Thresholds {
	if in.MostLikelyTargetDate == nil || in.StartedAt == nil || in.ProgressCheckDate == nil {
		return nil
	}
	mostLikely := *in.MostLikelyTargetDate
	earliest, latest := mostLikely, mostLikely
	if in.EarliestTargetDate != nil {
		earliest = *in.EarliestTargetDate
	}
	if in.LatestTargetDate != nil {
		latest = *in.LatestTargetDate
	}

	cfg := configFor(in.Posture)
	threshold := func(target time.Time) float64 {
		lapsed := timeLapsedPercent(*in.StartedAt, target, *in.ProgressCheckDate)
		return math.Min(100, cfg.start+lapsed*cfg.step)
	}
	return &Thresholds{
		BehindScheduleIfConfidenceBelow:  threshold(latest),
		OnScheduleIfConfidenceAbove:      threshold(mostLikely),
		AheadOfScheduleIfConfidenceAbove: threshold(earliest),
	}
}

// timeLapsedPercent is not capped at 100. Only the final threshold is.
// All three times are compared as calendar days.
func timeLapsedPercent(started, target, check time.Time) float64 {
	started, target, check = models.DateOf(started), models.DateOf(target), models.DateOf(check)
	span := days(target.Sub(started))
	if span <= 0 {
		return 0
	}
	return days(check.Sub(started)) / span * 100
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

type Status string

const (
	StatusAhead  Status = "ahead"
	StatusOn     Status = "on_schedule"
	StatusAtRisk Status = "at_risk"
	StatusBehind Status = "behind"
)

// Classify places a reported confidence against t.
func (t Thresholds) Classify(confidence int) Status {
	c := float64(confidence)
	switch {
	case c > t.AheadOfScheduleIfConfidenceAbove:
		return StatusAhead
	case c > t.OnScheduleIfConfidenceAbove:
		return StatusOn
	case c < t.BehindScheduleIfConfidenceBelow:
		return StatusBehind
	default:
		return StatusAtRisk
	}
}
