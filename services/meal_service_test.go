package services

import (
	"context"
	"testing"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mealFixture struct {
	db       *gorm.DB
	stats    *DailyStatsService
	meals    *MealService
	profiles *ProfileService
}

func newMealFixture(t *testing.T) mealFixture {
	t.Helper()
	db := newTestDB(t)
	stats := newTestStatsService(NewGormStatsStore(db))
	alerts := NewCalorieGoalAlerter(db, NewAlertBus(db, nil, nil))
	return mealFixture{
		db:       db,
		stats:    stats,
		meals:    NewMealService(db, stats, alerts),
		profiles: NewProfileService(db),
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestAddMealDerivesTotalsFromItems(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	meal, err := f.meals.AddMeal(ctx, "u1", MealRequest{
		MealType: "lunch",
		AteAt:    ptrTime(time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)),
		Items: []MealItemRequest{
			{Name: "rice", Quantity: "150g", Calories: 200, Protein: 4, Carbs: 44, Fat: 1},
			{Name: "chicken", Quantity: "120g", Calories: 300, Protein: 26, Carbs: 6, Fat: 19},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, meal.TotalCalories)
	assert.Equal(t, 30.0, meal.TotalProtein)
	assert.Len(t, meal.Items, 2)

	row, err := f.stats.GetStatsForDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 500.0, row.TotalCalories)
	assert.Equal(t, 50.0, row.TotalCarbs)
	assert.Equal(t, 20.0, row.TotalFat)
	assert.Equal(t, 1, row.MealsCount)
}

func TestAddMealExplicitTotalsWin(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	meal, err := f.meals.AddMeal(ctx, "u1", MealRequest{
		AteAt:  ptrTime(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)),
		Totals: &NutrientTotals{Calories: 420, Protein: 20, Carbs: 50, Fat: 12},
		Items:  []MealItemRequest{{Name: "toast", Calories: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, 420.0, meal.TotalCalories)
}

func TestAddMealRejectsEmptyAndNegative(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	_, err := f.meals.AddMeal(ctx, "u1", MealRequest{})
	assert.ErrorIs(t, err, ErrInvalidMeal)

	_, err = f.meals.AddMeal(ctx, "u1", MealRequest{Totals: &NutrientTotals{Calories: -1}})
	assert.ErrorIs(t, err, ErrInvalidContribution)

	var count int64
	require.NoError(t, f.db.Model(&models.Meal{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteMealRecomputesDay(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := f.meals.AddMeal(ctx, "u1", MealRequest{AteAt: ptrTime(day.Add(8 * time.Hour)),
		Totals: &NutrientTotals{Calories: 500, Protein: 30, Carbs: 50, Fat: 20}})
	require.NoError(t, err)
	second, err := f.meals.AddMeal(ctx, "u1", MealRequest{AteAt: ptrTime(day.Add(19 * time.Hour)),
		Totals: &NutrientTotals{Calories: 300, Protein: 10, Carbs: 40, Fat: 5}})
	require.NoError(t, err)

	row, err := f.stats.GetStatsForDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 800.0, row.TotalCalories)
	assert.Equal(t, 2, row.MealsCount)

	require.NoError(t, f.meals.DeleteMeal(ctx, "u1", second.ID))
	row, err = f.stats.GetStatsForDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 500.0, row.TotalCalories)
	assert.Equal(t, 30.0, row.TotalProtein)
	assert.Equal(t, 1, row.MealsCount)

	require.NoError(t, f.meals.DeleteMeal(ctx, "u1", first.ID))
	row, err = f.stats.GetStatsForDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, row.Exists())
	assert.Equal(t, 0, row.MealsCount)
}

func TestDeleteMealOfAnotherUserIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	meal, err := f.meals.AddMeal(ctx, "u1", MealRequest{Totals: &NutrientTotals{Calories: 100}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.meals.DeleteMeal(ctx, "u2", meal.ID), ErrMealNotFound)
	_, err = f.meals.GetMeal(ctx, "u2", meal.ID)
	assert.ErrorIs(t, err, ErrMealNotFound)
}

func TestUpdateMealMovesBetweenDays(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	meal, err := f.meals.AddMeal(ctx, "u1", MealRequest{
		AteAt:  ptrTime(time.Date(2024, 2, 29, 21, 0, 0, 0, time.UTC)),
		Totals: &NutrientTotals{Calories: 600},
	})
	require.NoError(t, err)

	updated, err := f.meals.UpdateMeal(ctx, "u1", meal.ID, MealRequest{
		AteAt: ptrTime(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Items: []MealItemRequest{{Name: "oats", Calories: 350, Carbs: 60}},
	})
	require.NoError(t, err)
	assert.Equal(t, 350.0, updated.TotalCalories)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "oats", updated.Items[0].Name)

	old, err := f.stats.GetStatsForDate(ctx, "u1", "2024-02-29")
	require.NoError(t, err)
	assert.False(t, old.Exists())

	cur, err := f.stats.GetStatsForDate(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 350.0, cur.TotalCalories)
	assert.Equal(t, 1, cur.MealsCount)
}

func TestListMealsForDay(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	for _, h := range []int{-2, 7, 20, 25} {
		_, err := f.meals.AddMeal(ctx, "u1", MealRequest{
			AteAt:  ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour)),
			Totals: &NutrientTotals{Calories: 100},
		})
		require.NoError(t, err)
	}

	meals, err := f.meals.ListMealsForDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, meals, 2)
}

func TestAddMealCrossingGoalRaisesAlert(t *testing.T) {
	ctx := context.Background()
	f := newMealFixture(t)

	_, err := f.profiles.SaveProfile(ctx, "u1", ProfileInput{})
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = f.meals.AddMeal(ctx, "u1", MealRequest{AteAt: &at, Totals: &NutrientTotals{Calories: 2000}})
	require.NoError(t, err)

	var alerts []models.Alert
	require.NoError(t, f.db.Where("user_id = ?", "u1").Find(&alerts).Error)
	assert.Empty(t, alerts)

	_, err = f.meals.AddMeal(ctx, "u1", MealRequest{AteAt: &at, Totals: &NutrientTotals{Calories: 900}})
	require.NoError(t, err)
	_, err = f.meals.AddMeal(ctx, "u1", MealRequest{AteAt: &at, Totals: &NutrientTotals{Calories: 100}})
	require.NoError(t, err)

	require.NoError(t, f.db.Where("user_id = ?", "u1").Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertWarning, alerts[0].Type)
	assert.Equal(t, "2024-03-01", alerts[0].Date)
}

func TestMealStillSavedWhenStatsNotConfigured(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	stats := NewDailyStatsService(NotConfigured("test"))
	meals := NewMealService(db, stats, nil)

	meal, err := meals.AddMeal(ctx, "u1", MealRequest{Totals: &NutrientTotals{Calories: 100}})
	require.NoError(t, err)
	require.NoError(t, meals.DeleteMeal(ctx, "u1", meal.ID))
}
