package models

import "time"

// Profile holds the biometrics the daily goals are derived from.
type Profile struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email            string    `gorm:"index" json:"email"`
	FullName         string    `json:"full_name"`
	Weight           float64   `json:"weight"` // kg
	Height           float64   `json:"height"` // cm
	Age              int       `json:"age"`
	Gender           string    `gorm:"size:16" json:"gender"`         // male|female|other
	ActivityLevel    string    `gorm:"size:16" json:"activity_level"` // sedentary … very_active
	Goal             string    `gorm:"size:16" json:"goal"`           // lose_weight|maintain|gain_weight|gain_muscle
	DailyCalorieGoal int       `json:"daily_calorie_goal"`
	DailyProteinGoal int       `json:"daily_protein_goal"`
	DailyCarbsGoal   int       `json:"daily_carbs_goal"`
	DailyFatGoal     int       `json:"daily_fat_goal"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
