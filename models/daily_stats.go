package models

import "time"

// DailyStats is the running nutrient total for one user on one calendar day.
// Rows are hard-deleted when the last meal of the day goes away, so no gorm.DeletedAt here.
type DailyStats struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_daily_stats_user_date,priority:1" json:"user_id"`
	Date          string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_stats_user_date,priority:2" json:"date"` // YYYY-MM-DD
	TotalCalories float64   `gorm:"not null;default:0" json:"total_calories"`
	TotalProtein  float64   `gorm:"not null;default:0" json:"total_protein"`
	TotalCarbs    float64   `gorm:"not null;default:0" json:"total_carbs"`
	TotalFat      float64   `gorm:"not null;default:0" json:"total_fat"`
	MealsCount    int       `gorm:"not null;default:0" json:"meals_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (DailyStats) TableName() string { return "daily_stats" }

// Exists is false for the zero placeholder handed out when no row is stored.
func (s DailyStats) Exists() bool { return s.ID != 0 }
