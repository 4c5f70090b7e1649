package models

import (
	"time"

	"gorm.io/gorm"
)

// One logged meal (photo analysed upstream) with the totals the stats are built from.
type Meal struct {
	gorm.Model
	UserID        string     `gorm:"type:varchar(64);index:idx_meals_user_ate_at,priority:1;not null" json:"user_id"`
	MealType      string     `gorm:"size:32" json:"meal_type"` // breakfast|lunch|dinner|snack
	ImageURL      string     `json:"image_url"`
	AteAt         time.Time  `gorm:"index:idx_meals_user_ate_at,priority:2;not null" json:"ate_at"`
	TotalCalories float64    `json:"total_calories"`
	TotalProtein  float64    `json:"total_protein"`
	TotalCarbs    float64    `json:"total_carbs"`
	TotalFat      float64    `json:"total_fat"`
	Items         []MealItem `json:"items"`
}

// Each MealItem is one food the vision model recognised on the plate.
type MealItem struct {
	gorm.Model
	MealID   uint    `gorm:"index;not null" json:"meal_id"`
	Name     string  `gorm:"not null" json:"name"`
	Quantity string  `json:"quantity"` // e.g. "150g", "1 unit"
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}
