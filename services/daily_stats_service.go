package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

// StoreState is decided once when the service is built: either a usable store or not.
type StoreState interface {
	storeState()
}

type configuredStore struct{ store StatsStore }

type notConfiguredStore struct{ reason string }

func (configuredStore) storeState()    {}
func (notConfiguredStore) storeState() {}

func Configured(store StatsStore) StoreState {
	if store == nil {
		return NotConfigured("nil stats store")
	}
	return configuredStore{store: store}
}

func NotConfigured(reason string) StoreState {
	return notConfiguredStore{reason: reason}
}

type IncrementMode string

const (
	// IncrementAtomic pushes add-or-insert into a single upsert statement.
	IncrementAtomic IncrementMode = "atomic"
	// IncrementLocked reads then writes under a per-(user, date) lock.
	IncrementLocked IncrementMode = "locked"
)

func ParseIncrementMode(v string) IncrementMode {
	if IncrementMode(strings.ToLower(v)) == IncrementLocked {
		return IncrementLocked
	}
	return IncrementAtomic
}

// StatsNotifier hears about every aggregate mutation. stats is nil when the row was removed.
type StatsNotifier interface {
	StatsChanged(ctx context.Context, userID, date string, stats *models.DailyStats)
}

type StatsOption func(*DailyStatsService)

func WithIncrementMode(m IncrementMode) StatsOption {
	return func(s *DailyStatsService) { s.mode = m }
}

func WithLocker(l Locker) StatsOption {
	return func(s *DailyStatsService) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithDirtySet(d DirtySet) StatsOption {
	return func(s *DailyStatsService) { s.dirty = d }
}

func WithLocation(loc *time.Location) StatsOption {
	return func(s *DailyStatsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) StatsOption {
	return func(s *DailyStatsService) { s.now = now }
}

func WithNotifier(n StatsNotifier) StatsOption {
	return func(s *DailyStatsService) { s.notifier = n }
}

// DailyStatsService keeps one daily_stats row per (user, day) in line with the meals:
// meal creation adds to the row, meal deletion recomputes it from the remaining meals.
type DailyStatsService struct {
	store    StatsStore
	reason   string
	mode     IncrementMode
	locker   Locker
	dirty    DirtySet
	notifier StatsNotifier
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
}

func NewDailyStatsService(state StoreState, opts ...StatsOption) *DailyStatsService {
	s := &DailyStatsService{
		mode:     IncrementAtomic,
		locker:   NewKeyedMutex(),
		loc:      time.Local,
		now:      time.Now,
		validate: newContributionValidator(),
	}

	switch st := state.(type) {
	case configuredStore:
		s.store = st.store
	case notConfiguredStore:
		s.reason = st.reason
		slog.Warn("daily stats disabled", "reason", st.reason)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newContributionValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

func (s *DailyStatsService) Configured() bool { return s.store != nil }

func (s *DailyStatsService) Location() *time.Location { return s.loc }

// Today is the current calendar day in the service location.
func (s *DailyStatsService) Today() string {
	return utils.DayOf(s.now(), s.loc)
}

// DayOf maps a meal timestamp to the stats row it belongs to.
func (s *DailyStatsService) DayOf(t time.Time) string {
	return utils.DayOf(t, s.loc)
}

// ApplyMealAdded adds one meal's totals to the user's row for date (today when empty),
// creating the row with meals_count 1 if there is none. Returns (nil, nil) when the
// store is not configured.
func (s *DailyStatsService) ApplyMealAdded(ctx context.Context, userID string, totals NutrientTotals, date string) (*models.DailyStats, error) {
	if s.store == nil {
		return nil, nil
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	if err := s.validate.Struct(totals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContribution, err)
	}
	day, err := s.resolveDay(date)
	if err != nil {
		return nil, err
	}

	c := MealContribution{UserID: userID, Date: day, NutrientTotals: totals}

	var row *models.DailyStats
	if s.mode == IncrementLocked {
		row, err = s.applyLocked(ctx, c)
	} else {
		row, err = s.store.IncrementStats(ctx, c)
	}
	// marked after the write, success or not: a recompute that already counted this meal
	// before the increment landed leaves a doubled row only the next reconcile can fix
	s.markDirty(ctx, StatsKey{UserID: userID, Date: day})
	if err != nil {
		return nil, fmt.Errorf("add meal to daily stats %s/%s: %w", userID, day, err)
	}

	s.notify(ctx, userID, day, row)
	return row, nil
}

func (s *DailyStatsService) applyLocked(ctx context.Context, c MealContribution) (*models.DailyStats, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(c.UserID, c.Date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.store.FindStats(ctx, c.UserID, c.Date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if existing != nil {
		existing.TotalCalories += c.Calories
		existing.TotalProtein += c.Protein
		existing.TotalCarbs += c.Carbs
		existing.TotalFat += c.Fat
		existing.MealsCount++
		existing.UpdatedAt = now
		if err := s.store.UpdateStats(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	row := &models.DailyStats{
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
	if err := s.store.InsertStats(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// RecomputeForDate rebuilds the row for date from the user's meals in [date, date+1).
// With no meals left the row is deleted and (nil, nil) returned. A failure leaves the
// stored row as it was and queues the key for the reconciler.
func (s *DailyStatsService) RecomputeForDate(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	if s.store == nil {
		return nil, nil
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	day, err := s.resolveDay(date)
	if err != nil {
		return nil, err
	}

	row, err := s.recompute(ctx, userID, day)
	if err != nil {
		s.markDirty(ctx, StatsKey{UserID: userID, Date: day})
		return nil, fmt.Errorf("recompute daily stats %s/%s: %w", userID, day, err)
	}

	s.notify(ctx, userID, day, row)
	return row, nil
}

func (s *DailyStatsService) recompute(ctx context.Context, userID, day string) (*models.DailyStats, error) {
	from, to, err := utils.DayBounds(day, s.loc)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(userID, day))
	if err != nil {
		return nil, err
	}
	defer unlock()

	meals, err := s.store.ListMealTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	if len(meals) == 0 {
		if err := s.store.DeleteStats(ctx, userID, day); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var sum NutrientTotals
	for _, m := range meals {
		sum = sum.Add(m)
	}
	return s.store.ReplaceStats(ctx, userID, day, sum, len(meals))
}

// GetStatsForDate returns the stored row, or a zero placeholder (ID 0) when there is none.
func (s *DailyStatsService) GetStatsForDate(ctx context.Context, userID, date string) (*models.DailyStats, error) {
	day, err := s.resolveDay(date)
	if err != nil {
		return nil, err
	}
	placeholder := &models.DailyStats{UserID: userID, Date: day}
	if s.store == nil {
		return placeholder, nil
	}

	row, err := s.store.FindStats(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("read daily stats %s/%s: %w", userID, day, err)
	}
	if row == nil {
		return placeholder, nil
	}
	return row, nil
}

// GetStatsRange returns the rows dated today-days or later, newest first. Days without
// meals have no row and are simply missing.
func (s *DailyStatsService) GetStatsRange(ctx context.Context, userID string, days int) ([]models.DailyStats, error) {
	if days < 0 {
		return nil, ErrInvalidDays
	}
	if s.store == nil {
		return []models.DailyStats{}, nil
	}

	since, err := utils.ShiftDay(s.Today(), -days)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListStatsSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list daily stats for %s since %s: %w", userID, since, err)
	}
	return rows, nil
}

func (s *DailyStatsService) resolveDay(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	t, err := utils.ParseDay(date, s.loc)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t.Format(utils.DayLayout), nil
}

func (s *DailyStatsService) markDirty(ctx context.Context, key StatsKey) {
	if s.dirty == nil {
		return
	}
	if err := s.dirty.Mark(ctx, key); err != nil {
		slog.WarnContext(ctx, "mark daily stats dirty failed", "user_id", key.UserID, "date", key.Date, "err", err)
	}
}

func (s *DailyStatsService) notify(ctx context.Context, userID, date string, row *models.DailyStats) {
	if s.notifier != nil {
		s.notifier.StatsChanged(ctx, userID, date, row)
	}
}

func lockKey(userID, date string) string {
	return "daily_stats:" + date + ":" + userID
}
