package utils

import (
	"errors"
	"math"
)

var ErrInvalidBiometrics = errors.New("weight, height and age must be positive finite numbers")

// activityMultipliers is also the list of accepted activity levels for profile updates.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

var goalAdjustments = map[string]float64{
	"lose_weight": -500,
	"maintain":    0,
	"gain_weight": 300,
	"gain_muscle": 400,
}

const (
	defaultActivityMultiplier = 1.55
	proteinPerKg              = 2.0
	fatCalorieShare           = 0.25
)

type DailyGoals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// BMR uses the revised Harris-Benedict equation. Anything but "male" takes the female constants.
func BMR(weightKg, heightCm, ageYears float64, sex string) float64 {
	if sex == "male" {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*ageYears
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*ageYears
}

// TDEE scales BMR by the activity multiplier; unknown levels count as "moderate".
func TDEE(bmr float64, activityLevel string) float64 {
	m, ok := activityMultipliers[activityLevel]
	if !ok {
		m = defaultActivityMultiplier
	}
	return bmr * m
}

func GoalAdjustment(goal string) float64 {
	return goalAdjustments[goal]
}

func IsActivityLevel(v string) bool {
	_, ok := activityMultipliers[v]
	return ok
}

func IsGoal(v string) bool {
	_, ok := goalAdjustments[v]
	return ok
}

// CalculateDailyGoals derives the calorie target and macro split for a person.
// Weight in kg, height in cm, age in years.
func CalculateDailyGoals(weightKg, heightCm, ageYears float64, sex, activityLevel, goal string) (DailyGoals, error) {
	for _, v := range []float64{weightKg, heightCm, ageYears} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return DailyGoals{}, ErrInvalidBiometrics
		}
	}

	tdee := TDEE(BMR(weightKg, heightCm, ageYears, sex), activityLevel)

	calories := math.Round(tdee + GoalAdjustment(goal))
	protein := math.Round(weightKg * proteinPerKg)
	fat := math.Round(calories * fatCalorieShare / 9)
	carbs := math.Round((calories - protein*4 - fat*9) / 4)

	return DailyGoals{
		Calories: int(calories),
		Protein:  int(protein),
		Carbs:    int(carbs),
		Fat:      int(fat),
	}, nil
}
