package services

import (
	"context"
	"math"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

// AnalyticsService builds dashboard views on top of the daily_stats rows and profile goals.
// It never reads the meals table.
type AnalyticsService struct {
	stats    *DailyStatsService
	profiles *ProfileService
}

func NewAnalyticsService(stats *DailyStatsService, profiles *ProfileService) *AnalyticsService {
	return &AnalyticsService{stats: stats, profiles: profiles}
}

// ---------- Dashboard ----------

type DayPoint struct {
	Date       string  `json:"date"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
	MealsCount int     `json:"meals_count"`
}

type Metric struct {
	Actual  float64 `json:"actual"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}

type MacroSplit struct {
	ProteinKcal float64 `json:"protein_kcal"`
	CarbsKcal   float64 `json:"carbs_kcal"`
	FatKcal     float64 `json:"fat_kcal"`
	ProteinPct  float64 `json:"protein_pct"`
	CarbsPct    float64 `json:"carbs_pct"`
	FatPct      float64 `json:"fat_pct"`
}

type Dashboard struct {
	Date          string            `json:"date"`
	Today         DayPoint          `json:"today"`
	Yesterday     DayPoint          `json:"yesterday"`
	CaloriesDiff  float64           `json:"calories_diff"`
	Trend         string            `json:"trend"` // up|down|flat
	Last7Days     []DayPoint        `json:"last_7_days"`
	WeeklyAverage float64           `json:"weekly_average_calories"`
	Macros        MacroSplit        `json:"macros"`
	Goals         utils.DailyGoals  `json:"goals"`
	Progress      map[string]Metric `json:"progress"`
}

func (s *AnalyticsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	today := s.stats.Today()
	rows, err := s.stats.GetStatsRange(ctx, userID, 6)
	if err != nil {
		return nil, err
	}
	goals, err := s.profiles.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := indexByDate(rows)
	series, err := fillDays(idx, today, 7)
	if err != nil {
		return nil, err
	}

	yesterdayKey, _ := utils.ShiftDay(today, -1)
	yesterday, ok := idx[yesterdayKey]
	if !ok {
		yesterday = DayPoint{Date: yesterdayKey}
	}

	var weekSum float64
	for _, d := range series {
		weekSum += d.Calories
	}

	cur := series[len(series)-1]
	out := &Dashboard{
		Date:          today,
		Today:         cur,
		Yesterday:     yesterday,
		CaloriesDiff:  round2(cur.Calories - yesterday.Calories),
		Trend:         trend(cur.Calories, yesterday.Calories),
		Last7Days:     series,
		WeeklyAverage: round2(weekSum / 7),
		Macros:        macroSplit(cur),
		Goals:         goals,
		Progress: map[string]Metric{
			"calories": metric(cur.Calories, float64(goals.Calories)),
			"protein":  metric(cur.Protein, float64(goals.Protein)),
			"carbs":    metric(cur.Carbs, float64(goals.Carbs)),
			"fat":      metric(cur.Fat, float64(goals.Fat)),
		},
	}
	return out, nil
}

// ---------- Summary ----------

type NutrAvg struct {
	AvgConsumed float64 `json:"avg_consumed"`
	AvgGoal     float64 `json:"avg_goal,omitempty"`
	AvgPercent  float64 `json:"avg_percent,omitempty"`
	Unit        string  `json:"unit,omitempty"`
}

type AnalyticsSummary struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`

	Macros map[string]NutrAvg `json:"macros"`

	Metadata struct {
		DaysCounted        int  `json:"days_counted"`
		TotalMeals         int  `json:"total_meals"`
		IncludeMissingDays bool `json:"include_missing_days"`
	} `json:"metadata"`
}

// Summary averages the stored days in [from, to]. With includeMissing the days without a row
// count as zeros, otherwise only logged days are averaged.
func (s *AnalyticsService) Summary(ctx context.Context, userID, from, to string, includeMissing bool) (*AnalyticsSummary, error) {
	fromT, err := utils.ParseDay(from, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	toT, err := utils.ParseDay(to, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if toT.Before(fromT) {
		return nil, ErrInvalidRange
	}

	rows, err := s.statsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	goals, err := s.profiles.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := indexByDate(rows)

	var dates []string
	if includeMissing {
		for d := fromT; !d.After(toT); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d.Format(utils.DayLayout))
		}
	} else {
		for i := len(rows) - 1; i >= 0; i-- {
			dates = append(dates, rows[i].Date)
		}
	}

	type acc struct{ sum, gsum, psum float64 }
	m := map[string]*acc{"calories": {}, "protein": {}, "carbs": {}, "fat": {}}
	meals := 0
	for _, key := range dates {
		dp := idx[key]
		meals += dp.MealsCount

		type pair struct {
			g float64
			k string
			c float64
		}
		for _, p := range []pair{
			{float64(goals.Calories), "calories", dp.Calories},
			{float64(goals.Protein), "protein", dp.Protein},
			{float64(goals.Carbs), "carbs", dp.Carbs},
			{float64(goals.Fat), "fat", dp.Fat},
		} {
			m[p.k].sum += p.c
			m[p.k].gsum += p.g
			if p.g > 0 {
				m[p.k].psum += (p.c / p.g) * 100.0
			}
		}
	}

	n := len(dates)
	out := &AnalyticsSummary{}
	out.Range.From = from
	out.Range.To = to
	out.Metadata.DaysCounted = n
	out.Metadata.TotalMeals = meals
	out.Metadata.IncludeMissingDays = includeMissing
	out.Macros = map[string]NutrAvg{
		"calories": {AvgConsumed: avg(m["calories"].sum, n), AvgGoal: avg(m["calories"].gsum, n), AvgPercent: avg(m["calories"].psum, n), Unit: "kcal"},
		"protein":  {AvgConsumed: avg(m["protein"].sum, n), AvgGoal: avg(m["protein"].gsum, n), AvgPercent: avg(m["protein"].psum, n), Unit: "g"},
		"carbs":    {AvgConsumed: avg(m["carbs"].sum, n), AvgGoal: avg(m["carbs"].gsum, n), AvgPercent: avg(m["carbs"].psum, n), Unit: "g"},
		"fat":      {AvgConsumed: avg(m["fat"].sum, n), AvgGoal: avg(m["fat"].gsum, n), AvgPercent: avg(m["fat"].psum, n), Unit: "g"},
	}
	return out, nil
}

// ---------- Weekly Overview ----------

type WeeklyOverviewResponse struct {
	WeekStart string `json:"week_start"`
	Mode      string `json:"mode"` // chart|detailed
	Days      any    `json:"days"`
}

type DayChart struct {
	Date        string             `json:"date"`
	Percentages map[string]float64 `json:"percentages"`
}

type DayDetailed struct {
	Date    string            `json:"date"`
	Metrics map[string]Metric `json:"metrics"`
}

// WeeklyOverview covers the Monday-based week holding weekStart.
func (s *AnalyticsService) WeeklyOverview(ctx context.Context, userID, weekStart, mode string) (*WeeklyOverviewResponse, error) {
	if mode != "chart" && mode != "detailed" {
		return nil, ErrInvalidMode
	}
	ws, err := utils.ParseDay(weekStart, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	from := utils.StartOfWeek(ws)
	fromKey := from.Format(utils.DayLayout)
	toKey := from.AddDate(0, 0, 6).Format(utils.DayLayout)

	rows, err := s.statsBetween(ctx, userID, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	goals, err := s.profiles.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := indexByDate(rows)
	series, err := fillDays(idx, toKey, 7)
	if err != nil {
		return nil, err
	}

	out := &WeeklyOverviewResponse{WeekStart: fromKey, Mode: mode}
	if mode == "chart" {
		days := make([]DayChart, 0, 7)
		for _, dp := range series {
			days = append(days, DayChart{
				Date: dp.Date,
				Percentages: map[string]float64{
					"calories":      pct(dp.Calories, float64(goals.Calories)),
					"protein":       pct(dp.Protein, float64(goals.Protein)),
					"carbohydrates": pct(dp.Carbs, float64(goals.Carbs)),
					"fat":           pct(dp.Fat, float64(goals.Fat)),
				},
			})
		}
		out.Days = days
		return out, nil
	}

	days := make([]DayDetailed, 0, 7)
	for _, dp := range series {
		days = append(days, DayDetailed{
			Date: dp.Date,
			Metrics: map[string]Metric{
				"calories":  metric(dp.Calories, float64(goals.Calories)),
				"protein_g": metric(dp.Protein, float64(goals.Protein)),
				"carbs_g":   metric(dp.Carbs, float64(goals.Carbs)),
				"fat_g":     metric(dp.Fat, float64(goals.Fat)),
			},
		})
	}
	out.Days = days
	return out, nil
}

// ---------- internals ----------

// statsBetween returns rows in [from, to], newest first.
func (s *AnalyticsService) statsBetween(ctx context.Context, userID, from, to string) ([]models.DailyStats, error) {
	fromT, err := utils.ParseDay(from, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	todayT, err := utils.ParseDay(s.stats.Today(), time.UTC)
	if err != nil {
		return nil, err
	}
	days := int(todayT.Sub(fromT).Hours() / 24)
	if days < 0 {
		return []models.DailyStats{}, nil
	}

	rows, err := s.stats.GetStatsRange(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func indexByDate(rows []models.DailyStats) map[string]DayPoint {
	idx := make(map[string]DayPoint, len(rows))
	for _, r := range rows {
		idx[r.Date] = toPoint(r)
	}
	return idx
}

func toPoint(r models.DailyStats) DayPoint {
	return DayPoint{
		Date:       r.Date,
		Calories:   round2(r.TotalCalories),
		Protein:    round2(r.TotalProtein),
		Carbs:      round2(r.TotalCarbs),
		Fat:        round2(r.TotalFat),
		MealsCount: r.MealsCount,
	}
}

// fillDays returns n consecutive days ending at last, oldest first, with zeros for gaps.
func fillDays(idx map[string]DayPoint, last string, n int) ([]DayPoint, error) {
	out := make([]DayPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		key, err := utils.ShiftDay(last, -i)
		if err != nil {
			return nil, err
		}
		dp, ok := idx[key]
		if !ok {
			dp = DayPoint{Date: key}
		}
		out = append(out, dp)
	}
	return out, nil
}

func macroSplit(d DayPoint) MacroSplit {
	m := MacroSplit{
		ProteinKcal: round2(d.Protein * 4),
		CarbsKcal:   round2(d.Carbs * 4),
		FatKcal:     round2(d.Fat * 9),
	}
	total := m.ProteinKcal + m.CarbsKcal + m.FatKcal
	if total > 0 {
		m.ProteinPct = round2(m.ProteinKcal / total * 100)
		m.CarbsPct = round2(m.CarbsKcal / total * 100)
		m.FatPct = round2(m.FatKcal / total * 100)
	}
	return m
}

func trend(today, yesterday float64) string {
	switch {
	case today > yesterday:
		return "up"
	case today < yesterday:
		return "down"
	default:
		return "flat"
	}
}

func metric(actual, target float64) Metric {
	return Metric{Actual: round2(actual), Target: round2(target), Percent: pct(actual, target)}
}

func pct(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2((actual / goal) * 100.0)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
