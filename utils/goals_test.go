package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDailyGoalsDefaultProfile(t *testing.T) {
	got, err := CalculateDailyGoals(75, 175, 30, "male", "moderate", "maintain")
	require.NoError(t, err)

	assert.InDelta(t, 1766.7975, BMR(75, 175, 30, "male"), 1e-9)
	assert.Equal(t, DailyGoals{Calories: 2739, Protein: 150, Carbs: 364, Fat: 76}, got)
}

func TestCalculateDailyGoalsFemaleLoseWeight(t *testing.T) {
	got, err := CalculateDailyGoals(60, 165, 25, "female", "light", "lose_weight")
	require.NoError(t, err)

	assert.Equal(t, DailyGoals{Calories: 1432, Protein: 120, Carbs: 148, Fat: 40}, got)
}

func TestOtherSexUsesFemaleConstants(t *testing.T) {
	assert.Equal(t, BMR(70, 170, 40, "female"), BMR(70, 170, 40, "other"))
	assert.NotEqual(t, BMR(70, 170, 40, "male"), BMR(70, 170, 40, "other"))
}

func TestUnknownActivityAndGoalFallBack(t *testing.T) {
	want, err := CalculateDailyGoals(80, 180, 35, "male", "moderate", "maintain")
	require.NoError(t, err)

	got, err := CalculateDailyGoals(80, 180, 35, "male", "couch_potato", "get_famous")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCaloriesIncreaseWithActivity(t *testing.T) {
	levels := []string{"sedentary", "light", "moderate", "active", "very_active"}
	for _, sex := range []string{"male", "female"} {
		prev := math.MinInt
		for _, level := range levels {
			g, err := CalculateDailyGoals(72, 170, 41, sex, level, "gain_weight")
			require.NoError(t, err)
			assert.Greater(t, g.Calories, prev, "%s/%s", sex, level)
			prev = g.Calories
		}
	}
}

func TestLoseWeightIsFiveHundredBelowMaintain(t *testing.T) {
	for _, level := range []string{"sedentary", "light", "moderate", "active", "very_active"} {
		maintain, err := CalculateDailyGoals(90, 185, 50, "male", level, "maintain")
		require.NoError(t, err)
		lose, err := CalculateDailyGoals(90, 185, 50, "male", level, "lose_weight")
		require.NoError(t, err)

		assert.Equal(t, 500, maintain.Calories-lose.Calories, level)
	}
}

func TestMacrosReconcileWithCalories(t *testing.T) {
	sexes := []string{"male", "female", "other"}
	levels := []string{"sedentary", "light", "moderate", "active", "very_active"}
	goals := []string{"lose_weight", "maintain", "gain_weight", "gain_muscle"}

	for _, sex := range sexes {
		for _, level := range levels {
			for _, goal := range goals {
				for w := 45.0; w <= 130; w += 17.5 {
					g, err := CalculateDailyGoals(w, 168, 33, sex, level, goal)
					require.NoError(t, err)

					kcal := g.Protein*4 + g.Carbs*4 + g.Fat*9
					assert.LessOrEqual(t, math.Abs(float64(kcal-g.Calories)), 8.0,
						"%s/%s/%s/%v: %+v", sex, level, goal, w, g)
				}
			}
		}
	}
}

func TestCalculateDailyGoalsRejectsInvalidBiometrics(t *testing.T) {
	cases := []struct {
		name                string
		weight, height, age float64
	}{
		{"zero weight", 0, 175, 30},
		{"negative height", 75, -1, 30},
		{"zero age", 75, 175, 0},
		{"nan weight", math.NaN(), 175, 30},
		{"inf height", 75, math.Inf(1), 30},
	}

	for _, tc := range cases {
		_, err := CalculateDailyGoals(tc.weight, tc.height, tc.age, "male", "moderate", "maintain")
		assert.ErrorIs(t, err, ErrInvalidBiometrics, tc.name)
	}
}

func TestCalculateBMI(t *testing.T) {
	got, err := CalculateBMI(175, 75)
	require.NoError(t, err)
	assert.Equal(t, 24.5, got.Value)
	assert.Equal(t, "normal", got.Category)

	_, err = CalculateBMI(0, 75)
	assert.Error(t, err)
	_, err = CalculateBMI(300, 75)
	assert.Error(t, err)
}
