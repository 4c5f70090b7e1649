package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
	"gorm.io/gorm"
)

// Defaults for a profile that never went through setup.
const (
	DefaultWeight        = 75.0
	DefaultHeight        = 175.0
	DefaultAge           = 30
	DefaultGender        = "male"
	DefaultActivityLevel = "moderate"
	DefaultGoal          = "maintain"
)

// ProfileInput is a partial update; zero values mean "keep what is stored".
type ProfileInput struct {
	Email         string  `json:"email" binding:"omitempty,email"`
	FullName      string  `json:"full_name"`
	Weight        float64 `json:"weight" binding:"omitempty,gt=0,lt=500"`
	Height        float64 `json:"height" binding:"omitempty,gt=0,lt=300"`
	Age           int     `json:"age" binding:"omitempty,gt=0,lt=150"`
	Gender        string  `json:"gender" binding:"omitempty,oneof=male female other"`
	ActivityLevel string  `json:"activity_level" binding:"omitempty,oneof=sedentary light moderate active very_active"`
	Goal          string  `json:"goal" binding:"omitempty,oneof=lose_weight maintain gain_weight gain_muscle"`
}

type ProfileView struct {
	models.Profile
	BMI         float64 `json:"bmi"`
	BMICategory string  `json:"bmi_category"`
}

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) find(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newProfileView(p), nil
}

// GetGoals returns the stored goals, or the goals of the default profile when the user
// has none yet.
func (s *ProfileService) GetGoals(ctx context.Context, userID string) (utils.DailyGoals, error) {
	p, err := s.find(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return utils.CalculateDailyGoals(DefaultWeight, DefaultHeight, DefaultAge, DefaultGender, DefaultActivityLevel, DefaultGoal)
	}
	if err != nil {
		return utils.DailyGoals{}, err
	}
	return utils.DailyGoals{
		Calories: p.DailyCalorieGoal,
		Protein:  p.DailyProteinGoal,
		Carbs:    p.DailyCarbsGoal,
		Fat:      p.DailyFatGoal,
	}, nil
}

// SaveProfile creates the profile on first use and updates it afterwards. Goals are
// recalculated whenever an input of the formula changed.
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, in ProfileInput) (*ProfileView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	p, err := s.find(ctx, userID)
	created := false
	switch {
	case errors.Is(err, ErrProfileNotFound):
		p = &models.Profile{
			ID:            userID,
			Weight:        DefaultWeight,
			Height:        DefaultHeight,
			Age:           DefaultAge,
			Gender:        DefaultGender,
			ActivityLevel: DefaultActivityLevel,
			Goal:          DefaultGoal,
		}
		created = true
	case err != nil:
		return nil, err
	}

	changed := applyProfileInput(p, in)
	if created || changed || p.DailyCalorieGoal == 0 {
		g, err := utils.CalculateDailyGoals(p.Weight, p.Height, float64(p.Age), p.Gender, p.ActivityLevel, p.Goal)
		if err != nil {
			return nil, err
		}
		p.DailyCalorieGoal = g.Calories
		p.DailyProteinGoal = g.Protein
		p.DailyCarbsGoal = g.Carbs
		p.DailyFatGoal = g.Fat
	}

	write := s.db.WithContext(ctx).Save
	if created {
		write = s.db.WithContext(ctx).Create
	}
	if err := write(p).Error; err != nil {
		return nil, fmt.Errorf("save profile %s: %w", userID, err)
	}
	return newProfileView(p), nil
}

// applyProfileInput copies the set fields and reports whether any goal input changed.
func applyProfileInput(p *models.Profile, in ProfileInput) bool {
	if in.Email != "" {
		p.Email = in.Email
	}
	if in.FullName != "" {
		p.FullName = in.FullName
	}

	changed := false
	if in.Weight > 0 && in.Weight != p.Weight {
		p.Weight, changed = in.Weight, true
	}
	if in.Height > 0 && in.Height != p.Height {
		p.Height, changed = in.Height, true
	}
	if in.Age > 0 && in.Age != p.Age {
		p.Age, changed = in.Age, true
	}
	if in.Gender != "" && in.Gender != p.Gender {
		p.Gender, changed = in.Gender, true
	}
	if in.ActivityLevel != "" && in.ActivityLevel != p.ActivityLevel {
		p.ActivityLevel, changed = in.ActivityLevel, true
	}
	if in.Goal != "" && in.Goal != p.Goal {
		p.Goal, changed = in.Goal, true
	}

	// rows written before setup may have blanks; fall back to the defaults
	if p.Weight <= 0 {
		p.Weight, changed = DefaultWeight, true
	}
	if p.Height <= 0 {
		p.Height, changed = DefaultHeight, true
	}
	if p.Age <= 0 {
		p.Age, changed = DefaultAge, true
	}
	if p.Gender == "" {
		p.Gender, changed = DefaultGender, true
	}
	if p.ActivityLevel == "" {
		p.ActivityLevel, changed = DefaultActivityLevel, true
	}
	if p.Goal == "" {
		p.Goal, changed = DefaultGoal, true
	}
	return changed
}

func newProfileView(p *models.Profile) *ProfileView {
	v := &ProfileView{Profile: *p}
	if bmi, err := utils.CalculateBMI(p.Height, p.Weight); err == nil {
		v.BMI = bmi.Value
		v.BMICategory = bmi.Category
	}
	return v
}
