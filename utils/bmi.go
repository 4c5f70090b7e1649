package utils

import (
	"errors"
	"math"
)

type BMIResult struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (BMIResult, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return BMIResult{}, errors.New("height and weight must be positive")
	}
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return BMIResult{}, errors.New("height/weight out of plausible range")
	}

	h := heightCm / 100.0
	bmi := math.Round(weightKg/(h*h)*10) / 10
	return BMIResult{Value: bmi, Category: BMICategory(bmi)}, nil
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25.0:
		return "normal"
	case bmi < 30.0:
		return "overweight"
	default:
		return "obese"
	}
}
