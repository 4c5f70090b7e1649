package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"gorm.io/gorm"
)

const (
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// AlertBus stores an alert and fans it out to open sockets and push devices.
// Either fan-out may be nil.
type AlertBus struct {
	db *gorm.DB
	rt *RealtimeHub
	ps *PushService
}

func NewAlertBus(db *gorm.DB, rt *RealtimeHub, ps *PushService) *AlertBus {
	return &AlertBus{db: db, rt: rt, ps: ps}
}

// Emit never fails the caller; a lost alert is only logged.
func (b *AlertBus) Emit(ctx context.Context, userID, typ, date, message string) {
	if b == nil || b.db == nil {
		return
	}
	a := &models.Alert{UserID: userID, Type: typ, Date: date, Message: message, CreatedAt: time.Now()}
	if err := b.db.WithContext(ctx).Create(a).Error; err != nil {
		slog.ErrorContext(ctx, "store alert failed", "user_id", userID, "err", err)
		return
	}

	if b.rt != nil {
		b.rt.BroadcastAlert(userID, a)
	}
	if b.ps != nil {
		b.ps.PushToUser(ctx, userID, "New Alert", message, map[string]string{
			"type": typ, "alertId": fmt.Sprintf("%d", a.ID),
		})
	}
}

func (b *AlertBus) ListAlerts(ctx context.Context, userID string, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	alerts := make([]models.Alert, 0)
	err := b.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

// CalorieGoalAlerter raises a warning the first time a day's calories pass the profile goal.
type CalorieGoalAlerter struct {
	db  *gorm.DB
	bus *AlertBus
}

func NewCalorieGoalAlerter(db *gorm.DB, bus *AlertBus) *CalorieGoalAlerter {
	return &CalorieGoalAlerter{db: db, bus: bus}
}

// Check compares the day's totals before and after a meal of added kcal was counted.
func (g *CalorieGoalAlerter) Check(ctx context.Context, stats *models.DailyStats, added float64) {
	if g == nil || stats == nil {
		return
	}
	var p models.Profile
	if err := g.db.WithContext(ctx).Select("daily_calorie_goal").First(&p, "id = ?", stats.UserID).Error; err != nil {
		return
	}
	goal := float64(p.DailyCalorieGoal)
	if goal <= 0 {
		return
	}
	before := stats.TotalCalories - added
	if before <= goal && stats.TotalCalories > goal {
		g.bus.Emit(ctx, stats.UserID, AlertWarning, stats.Date, fmt.Sprintf(
			"You went over your daily calorie goal: %.0f of %d kcal on %s", stats.TotalCalories, p.DailyCalorieGoal, stats.Date))
	}
}
