package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
	"gorm.io/gorm"
)

type MealItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity string  `json:"quantity"`
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
}

// MealRequest is what the client sends after the photo was analysed. Totals may be left out,
// in which case they are the sums of the items.
type MealRequest struct {
	MealType string            `json:"meal_type" binding:"omitempty,oneof=breakfast lunch dinner snack"`
	ImageURL string            `json:"image_url"`
	AteAt    *time.Time        `json:"ate_at"`
	Totals   *NutrientTotals   `json:"totals"`
	Items    []MealItemRequest `json:"items" binding:"dive"`
}

type MealService struct {
	db     *gorm.DB
	stats  *DailyStatsService
	alerts *CalorieGoalAlerter
	now    func() time.Time
}

func NewMealService(db *gorm.DB, stats *DailyStatsService, alerts *CalorieGoalAlerter) *MealService {
	return &MealService{db: db, stats: stats, alerts: alerts, now: time.Now}
}

func (r MealRequest) totals() NutrientTotals {
	if r.Totals != nil {
		return *r.Totals
	}
	var t NutrientTotals
	for _, it := range r.Items {
		t = t.Add(NutrientTotals{Calories: it.Calories, Protein: it.Protein, Carbs: it.Carbs, Fat: it.Fat})
	}
	return t
}

func (r MealRequest) items() []models.MealItem {
	out := make([]models.MealItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, models.MealItem{
			Name:     strings.TrimSpace(it.Name),
			Quantity: it.Quantity,
			Calories: it.Calories,
			Protein:  it.Protein,
			Carbs:    it.Carbs,
			Fat:      it.Fat,
		})
	}
	return out
}

func (s *MealService) AddMeal(ctx context.Context, userID string, req MealRequest) (*models.Meal, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if len(req.Items) == 0 && req.Totals == nil {
		return nil, ErrInvalidMeal
	}

	t := req.totals()
	if err := s.stats.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContribution, err)
	}
	ateAt := s.now()
	if req.AteAt != nil {
		ateAt = *req.AteAt
	}
	meal := &models.Meal{
		UserID:        userID,
		MealType:      req.MealType,
		ImageURL:      req.ImageURL,
		AteAt:         ateAt,
		TotalCalories: t.Calories,
		TotalProtein:  t.Protein,
		TotalCarbs:    t.Carbs,
		TotalFat:      t.Fat,
		Items:         req.items(),
	}

	// meal and items go in together; gorm creates the has-many in the same transaction
	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}

	day := s.stats.DayOf(meal.AteAt)
	row, err := s.stats.ApplyMealAdded(ctx, userID, t, day)
	if err != nil {
		slog.ErrorContext(ctx, "daily stats update failed after meal insert",
			"user_id", userID, "meal_id", meal.ID, "date", day, "err", err)
	} else {
		s.alerts.Check(ctx, row, t.Calories)
	}
	return meal, nil
}

func (s *MealService) ListMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	meals := make([]models.Meal, 0)
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("ate_at DESC").
		Find(&meals).Error
	return meals, err
}

// ListMealsForDay returns the meals counted in the stats row of date.
func (s *MealService) ListMealsForDay(ctx context.Context, userID, date string) ([]models.Meal, error) {
	day, err := s.stats.resolveDay(date)
	if err != nil {
		return nil, err
	}
	from, to, err := utils.DayBounds(day, s.stats.Location())
	if err != nil {
		return nil, err
	}
	meals := make([]models.Meal, 0)
	err = s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, from, to).
		Order("ate_at ASC").
		Find(&meals).Error
	return meals, err
}

func (s *MealService) GetMeal(ctx context.Context, userID string, mealID uint) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return &meal, nil
}

// UpdateMeal replaces the meal's fields and items. The stats of the old and the new day are
// rebuilt from scratch since the meal may have moved between days.
func (s *MealService) UpdateMeal(ctx context.Context, userID string, mealID uint, req MealRequest) (*models.Meal, error) {
	if len(req.Items) == 0 && req.Totals == nil {
		return nil, ErrInvalidMeal
	}
	meal, err := s.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	oldDay := s.stats.DayOf(meal.AteAt)

	t := req.totals()
	if err := s.stats.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContribution, err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.MealItem{}).Error; err != nil {
			return err
		}
		if req.MealType != "" {
			meal.MealType = req.MealType
		}
		if req.ImageURL != "" {
			meal.ImageURL = req.ImageURL
		}
		if req.AteAt != nil {
			meal.AteAt = *req.AteAt
		}
		meal.TotalCalories = t.Calories
		meal.TotalProtein = t.Protein
		meal.TotalCarbs = t.Carbs
		meal.TotalFat = t.Fat
		meal.Items = req.items()
		for i := range meal.Items {
			meal.Items[i].MealID = meal.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(meal).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update meal %d: %w", mealID, err)
	}

	s.recompute(ctx, userID, oldDay)
	if newDay := s.stats.DayOf(meal.AteAt); newDay != oldDay {
		s.recompute(ctx, userID, newDay)
	}
	return s.GetMeal(ctx, userID, mealID)
}

// DeleteMeal removes the meal and rebuilds its day from the meals that remain.
func (s *MealService) DeleteMeal(ctx context.Context, userID string, mealID uint) error {
	meal, err := s.GetMeal(ctx, userID, mealID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.MealItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(meal).Error
	})
	if err != nil {
		return fmt.Errorf("delete meal %d: %w", mealID, err)
	}

	s.recompute(ctx, userID, s.stats.DayOf(meal.AteAt))
	return nil
}

func (s *MealService) recompute(ctx context.Context, userID, day string) {
	if _, err := s.stats.RecomputeForDate(ctx, userID, day); err != nil {
		slog.ErrorContext(ctx, "daily stats recompute failed", "user_id", userID, "date", day, "err", err)
	}
}

func (s *MealService) ListRecentMeals(ctx context.Context, userID string, limit int) ([]models.Meal, error) {
	if limit <= 0 {
		limit = 3
	}
	meals := make([]models.Meal, 0)
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("ate_at DESC").
		Limit(limit).
		Find(&meals).Error
	return meals, err
}
