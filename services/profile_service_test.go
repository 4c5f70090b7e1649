package services

import (
	"context"
	"testing"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveProfileCreatesWithDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(newTestDB(t))

	p, err := svc.SaveProfile(ctx, "u1", ProfileInput{Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, DefaultWeight, p.Weight)
	assert.Equal(t, DefaultGoal, p.Goal)
	assert.Equal(t, 2739, p.DailyCalorieGoal)
	assert.Equal(t, 150, p.DailyProteinGoal)
	assert.Equal(t, 364, p.DailyCarbsGoal)
	assert.Equal(t, 76, p.DailyFatGoal)
	assert.Equal(t, 24.5, p.BMI)
	assert.Equal(t, "normal", p.BMICategory)
}

func TestSaveProfileRecalculatesOnBiometricChange(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(newTestDB(t))

	_, err := svc.SaveProfile(ctx, "u1", ProfileInput{})
	require.NoError(t, err)

	p, err := svc.SaveProfile(ctx, "u1", ProfileInput{Weight: 60, Height: 165, Age: 25, Gender: "female",
		ActivityLevel: "light", Goal: "lose_weight"})
	require.NoError(t, err)

	want, err := utils.CalculateDailyGoals(60, 165, 25, "female", "light", "lose_weight")
	require.NoError(t, err)
	assert.Equal(t, want.Calories, p.DailyCalorieGoal)
	assert.Equal(t, want.Fat, p.DailyFatGoal)

	goals, err := svc.GetGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, goals)
}

func TestSaveProfileNameOnlyKeepsGoals(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewProfileService(db)

	_, err := svc.SaveProfile(ctx, "u1", ProfileInput{})
	require.NoError(t, err)
	// a hand-tuned goal must survive an unrelated edit
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", "u1").Update("daily_calorie_goal", 2000).Error)

	p, err := svc.SaveProfile(ctx, "u1", ProfileInput{FullName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FullName)
	assert.Equal(t, 2000, p.DailyCalorieGoal)
}

func TestGetProfileMissing(t *testing.T) {
	svc := NewProfileService(newTestDB(t))

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	goals, err := svc.GetGoals(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 2739, goals.Calories)
}

func TestSaveProfileRequiresUser(t *testing.T) {
	svc := NewProfileService(newTestDB(t))
	_, err := svc.SaveProfile(context.Background(), " ", ProfileInput{})
	assert.ErrorIs(t, err, ErrInvalidUser)
}
