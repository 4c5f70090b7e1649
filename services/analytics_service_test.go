package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is 2024-03-01 (a Friday).
func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *DailyStatsService) {
	t.Helper()
	db := newTestDB(t)
	stats := newTestStatsService(NewGormStatsStore(db))
	return NewAnalyticsService(stats, NewProfileService(db)), stats
}

func seedDay(t *testing.T, stats *DailyStatsService, date string, kcal, protein, carbs, fat float64) {
	t.Helper()
	_, err := stats.ApplyMealAdded(context.Background(), "u1",
		NutrientTotals{Calories: kcal, Protein: protein, Carbs: carbs, Fat: fat}, date)
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc, stats := newAnalyticsFixture(t)

	seedDay(t, stats, "2024-03-01", 1000, 50, 100, 40)
	seedDay(t, stats, "2024-02-29", 1400, 0, 0, 0)
	seedDay(t, stats, "2024-02-25", 700, 0, 0, 0)
	seedDay(t, stats, "2024-02-20", 9999, 0, 0, 0)

	d, err := svc.Dashboard(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", d.Date)
	assert.Equal(t, 1000.0, d.Today.Calories)
	assert.Equal(t, 1400.0, d.Yesterday.Calories)
	assert.Equal(t, -400.0, d.CaloriesDiff)
	assert.Equal(t, "down", d.Trend)

	require.Len(t, d.Last7Days, 7)
	assert.Equal(t, "2024-02-24", d.Last7Days[0].Date)
	assert.Equal(t, "2024-03-01", d.Last7Days[6].Date)
	assert.Equal(t, 0.0, d.Last7Days[0].Calories)
	assert.Equal(t, 700.0, d.Last7Days[1].Calories)
	assert.Equal(t, 442.86, d.WeeklyAverage)

	assert.Equal(t, 200.0, d.Macros.ProteinKcal)
	assert.Equal(t, 400.0, d.Macros.CarbsKcal)
	assert.Equal(t, 360.0, d.Macros.FatKcal)
	assert.Equal(t, 41.67, d.Macros.CarbsPct)

	assert.Equal(t, 2739, d.Goals.Calories)
	assert.Equal(t, 36.51, d.Progress["calories"].Percent)
}

func TestDashboardEmpty(t *testing.T) {
	svc, _ := newAnalyticsFixture(t)

	d, err := svc.Dashboard(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Len(t, d.Last7Days, 7)
	assert.Equal(t, "flat", d.Trend)
	assert.Zero(t, d.WeeklyAverage)
	assert.Zero(t, d.Macros.ProteinPct)
}

func TestSummaryMissingDays(t *testing.T) {
	ctx := context.Background()
	svc, stats := newAnalyticsFixture(t)

	seedDay(t, stats, "2024-02-26", 1000, 0, 0, 0)
	seedDay(t, stats, "2024-02-28", 2000, 0, 0, 0)
	seedDay(t, stats, "2024-02-28", 1000, 0, 0, 0)

	only, err := svc.Summary(ctx, "u1", "2024-02-26", "2024-02-29", false)
	require.NoError(t, err)
	assert.Equal(t, 2, only.Metadata.DaysCounted)
	assert.Equal(t, 3, only.Metadata.TotalMeals)
	assert.Equal(t, 2000.0, only.Macros["calories"].AvgConsumed)

	all, err := svc.Summary(ctx, "u1", "2024-02-26", "2024-02-29", true)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Metadata.DaysCounted)
	assert.Equal(t, 1000.0, all.Macros["calories"].AvgConsumed)

	_, err = svc.Summary(ctx, "u1", "2024-03-01", "2024-02-01", false)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.Summary(ctx, "u1", "yesterday", "2024-02-01", false)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWeeklyOverview(t *testing.T) {
	ctx := context.Background()
	svc, stats := newAnalyticsFixture(t)

	seedDay(t, stats, "2024-02-26", 2739, 150, 0, 0)
	seedDay(t, stats, "2024-03-03", 100, 0, 0, 0)

	w, err := svc.WeeklyOverview(ctx, "u1", "2024-02-28", "chart")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-26", w.WeekStart)
	days, ok := w.Days.([]DayChart)
	require.True(t, ok)
	require.Len(t, days, 7)
	assert.Equal(t, 100.0, days[0].Percentages["calories"])
	assert.Equal(t, 100.0, days[0].Percentages["protein"])
	assert.Equal(t, 0.0, days[2].Percentages["calories"])

	w, err = svc.WeeklyOverview(ctx, "u1", "2024-02-26", "detailed")
	require.NoError(t, err)
	detailed, ok := w.Days.([]DayDetailed)
	require.True(t, ok)
	assert.Equal(t, 2739.0, detailed[0].Metrics["calories"].Target)

	_, err = svc.WeeklyOverview(ctx, "u1", "2024-02-26", "table")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
