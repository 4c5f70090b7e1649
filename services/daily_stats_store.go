package services

import (
	"context"
	"errors"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NutrientTotals is the four-number contribution a meal makes to its day.
type NutrientTotals struct {
	Calories float64 `json:"calories" validate:"finite,gte=0"`
	Protein  float64 `json:"protein" validate:"finite,gte=0"`
	Carbs    float64 `json:"carbs" validate:"finite,gte=0"`
	Fat      float64 `json:"fat" validate:"finite,gte=0"`
}

func (t NutrientTotals) Add(o NutrientTotals) NutrientTotals {
	return NutrientTotals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
	}
}

// MealContribution is the slice of a meal the aggregator cares about.
type MealContribution struct {
	UserID string
	Date   string
	NutrientTotals
}

// StatsStore is the persistence collaborator behind DailyStatsService.
// FindStats returns (nil, nil) when no row exists.
type StatsStore interface {
	FindStats(ctx context.Context, userID, date string) (*models.DailyStats, error)
	InsertStats(ctx context.Context, row *models.DailyStats) error
	UpdateStats(ctx context.Context, row *models.DailyStats) error
	DeleteStats(ctx context.Context, userID, date string) error
	// IncrementStats adds c to the (user, date) row, creating it if needed, in one statement.
	IncrementStats(ctx context.Context, c MealContribution) (*models.DailyStats, error)
	// ReplaceStats overwrites the (user, date) row with the given totals, creating it if needed.
	ReplaceStats(ctx context.Context, userID, date string, totals NutrientTotals, count int) (*models.DailyStats, error)
	ListStatsSince(ctx context.Context, userID, since string) ([]models.DailyStats, error)
	// ListMealTotals projects the nutrient totals of the user's meals with from <= ate_at < to.
	ListMealTotals(ctx context.Context, userID string, from, to time.Time) ([]NutrientTotals, error)
}

type gormStatsStore struct {
	db *gorm.DB
}

func NewGormStatsStore(db *gorm.DB) StatsStore {
	return &gormStatsStore{db: db}
}

var statsKeyColumns = []clause.Column{{Name: "user_id"}, {Name: "date"}}

func (s *gormStatsStore) FindStats(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	var row models.DailyStats
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *gormStatsStore) InsertStats(ctx context.Context, row *models.DailyStats) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// UpdateStats writes the caller's values as-is, updated_at included; UpdateColumns keeps
// gorm from stamping its own time over it.
func (s *gormStatsStore) UpdateStats(ctx context.Context, row *models.DailyStats) error {
	return s.db.WithContext(ctx).
		Model(&models.DailyStats{ID: row.ID}).
		UpdateColumns(map[string]interface{}{
			"total_calories": row.TotalCalories,
			"total_protein":  row.TotalProtein,
			"total_carbs":    row.TotalCarbs,
			"total_fat":      row.TotalFat,
			"meals_count":    row.MealsCount,
			"updated_at":     row.UpdatedAt,
		}).Error
}

func (s *gormStatsStore) DeleteStats(ctx context.Context, userID, date string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Delete(&models.DailyStats{}).Error
}

func (s *gormStatsStore) IncrementStats(ctx context.Context, c MealContribution) (*models.DailyStats, error) {
	now := time.Now()
	row := models.DailyStats{
		UserID:        c.UserID,
		Date:          c.Date,
		TotalCalories: c.Calories,
		TotalProtein:  c.Protein,
		TotalCarbs:    c.Carbs,
		TotalFat:      c.Fat,
		MealsCount:    1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// the target table must be qualified: postgres treats bare names as ambiguous with excluded.
	// RETURNING gives the row exactly as this statement left it; a second read could already
	// include a concurrent meal.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: statsKeyColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_calories": gorm.Expr("daily_stats.total_calories + excluded.total_calories"),
			"total_protein":  gorm.Expr("daily_stats.total_protein + excluded.total_protein"),
			"total_carbs":    gorm.Expr("daily_stats.total_carbs + excluded.total_carbs"),
			"total_fat":      gorm.Expr("daily_stats.total_fat + excluded.total_fat"),
			"meals_count":    gorm.Expr("daily_stats.meals_count + 1"),
			"updated_at":     now,
		}),
	}, clause.Returning{}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormStatsStore) ReplaceStats(ctx context.Context, userID, date string, totals NutrientTotals, count int) (*models.DailyStats, error) {
	now := time.Now()
	row := models.DailyStats{
		UserID:        userID,
		Date:          date,
		TotalCalories: totals.Calories,
		TotalProtein:  totals.Protein,
		TotalCarbs:    totals.Carbs,
		TotalFat:      totals.Fat,
		MealsCount:    count,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   statsKeyColumns,
		DoUpdates: clause.AssignmentColumns([]string{"total_calories", "total_protein", "total_carbs", "total_fat", "meals_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.FindStats(ctx, userID, date)
}

func (s *gormStatsStore) ListStatsSince(ctx context.Context, userID, since string) ([]models.DailyStats, error) {
	rows := make([]models.DailyStats, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC").
		Find(&rows).Error
	return rows, err
}

func (s *gormStatsStore) ListMealTotals(ctx context.Context, userID string, from, to time.Time) ([]NutrientTotals, error) {
	rows := make([]NutrientTotals, 0)
	err := s.db.WithContext(ctx).
		Model(&models.Meal{}).
		Select("COALESCE(total_calories, 0) AS calories, COALESCE(total_protein, 0) AS protein, " +
			"COALESCE(total_carbs, 0) AS carbs, COALESCE(total_fat, 0) AS fat").
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, from, to).
		Find(&rows).Error
	return rows, err
}
