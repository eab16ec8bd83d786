package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
)

const forecastStack = "forecast"

// Band colours, bottom to top.
const (
	ColorBehind = "#e5534b"
	ColorAtRisk = "#f2c744"
	ColorOn     = "#9bd48c"
	ColorAhead  = "#2e9e4f"
	ColorActual = "#1f2328"
)

// Series data points are [timestamp_ms, value] pairs.
type Series struct {
	Name  string       `json:"name"`
	Data  [][2]float64 `json:"data"`
	Color string       `json:"color"`
	Type  string       `json:"type"`
	Stack string       `json:"stack,omitempty"`
}

type TableRow struct {
	Week                             string `json:"week"`
	BehindScheduleIfConfidenceBelow  int    `json:"behindScheduleIfConfidenceBelow"`
	AheadOfScheduleIfConfidenceAbove int    `json:"aheadOfScheduleIfConfidenceAbove"`
	OnScheduleIfConfidenceAbove      int    `json:"onScheduleIfConfidenceAbove"`
	CheckInConfidence                *int   `json:"checkInConfidence,omitempty"`
}

type ChartData struct {
	Categories      []string   `json:"categories"`
	Series          []Series   `json:"series"`
	ThresholdsTable []TableRow `json:"thresholdsTable"`
}

// Bands are the stacked heights for one sample. They are never negative and
// always add up to 100.
type Bands struct {
	Behind, AtRisk, On, Ahead float64
}

func BandsFor(t Thresholds) Bands {
	behind := clamp(t.BehindScheduleIfConfidenceBelow, 0, 100)
	on := clamp(t.OnScheduleIfConfidenceAbove, behind, 100)
	ahead := clamp(t.AheadOfScheduleIfConfidenceAbove, on, 100)
	return Bands{
		Behind: behind,
		AtRisk: on - behind,
		On:     ahead - on,
		Ahead:  100 - ahead,
	}
}

// WeeklySamples lists the Mondays charted for a goal: from the first Monday
// strictly after started, through the Monday after the week of lastTarget.
func WeeklySamples(started, lastTarget time.Time) []time.Time {
	first := models.WeekStart(started).AddDate(0, 0, 7)
	last := models.WeekStart(lastTarget).AddDate(0, 0, 7)
	var out []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}

// BuildChart returns nil when the goal has no most likely target date or has
// not started yet.
func BuildChart(g *models.Goal, checkIns []models.GoalCheckIn) *ChartData {
	if g.MostLikelyTargetDate == nil || g.StartedAt == nil {
		return nil
	}
	samples := WeeklySamples(*g.StartedAt, *g.LastTargetDate())

	sorted := make([]models.GoalCheckIn, len(checkIns))
	copy(sorted, checkIns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CheckInWeekStart.Before(sorted[j].CheckInWeekStart)
	})
	byWeek := make(map[string]int, len(sorted))
	for _, ci := range sorted {
		byWeek[models.WeekStart(ci.CheckInWeekStart).Format(models.DateLayout)] = ci.ConfidencePercentage
	}

	behind := Series{Name: "Behind schedule", Color: ColorBehind, Type: "area", Stack: forecastStack, Data: [][2]float64{}}
	atRisk := Series{Name: "At risk", Color: ColorAtRisk, Type: "area", Stack: forecastStack, Data: [][2]float64{}}
	on := Series{Name: "On schedule", Color: ColorOn, Type: "area", Stack: forecastStack, Data: [][2]float64{}}
	ahead := Series{Name: "Ahead of schedule", Color: ColorAhead, Type: "area", Stack: forecastStack, Data: [][2]float64{}}
	actual := Series{Name: "Reported confidence", Color: ColorActual, Type: "line", Data: [][2]float64{}}

	chart := &ChartData{Categories: []string{}, ThresholdsTable: []TableRow{}}
	for _, week := range samples {
		t := Calculate(InputFor(g, week))
		if t == nil {
			continue
		}
		ts := float64(week.UnixMilli())
		b := BandsFor(*t)
		behind.Data = append(behind.Data, [2]float64{ts, b.Behind})
		atRisk.Data = append(atRisk.Data, [2]float64{ts, b.AtRisk})
		on.Data = append(on.Data, [2]float64{ts, b.On})
		ahead.Data = append(ahead.Data, [2]float64{ts, b.Ahead})

		label := week.Format(models.DateLayout)
		chart.Categories = append(chart.Categories, label)
		row := TableRow{
			Week:                             label,
			BehindScheduleIfConfidenceBelow:  int(math.Round(t.BehindScheduleIfConfidenceBelow)),
			AheadOfScheduleIfConfidenceAbove: int(math.Round(t.AheadOfScheduleIfConfidenceAbove)),
			OnScheduleIfConfidenceAbove:      int(math.Round(t.OnScheduleIfConfidenceAbove)),
		}
		if c, ok := byWeek[label]; ok {
			c := c
			row.CheckInConfidence = &c
		}
		chart.ThresholdsTable = append(chart.ThresholdsTable, row)
	}

	for _, ci := range sorted {
		ts := float64(models.WeekStart(ci.CheckInWeekStart).UnixMilli())
		actual.Data = append(actual.Data, [2]float64{ts, float64(ci.ConfidencePercentage)})
	}

	chart.Series = []Series{ahead, on, atRisk, behind, actual}
	return chart
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
