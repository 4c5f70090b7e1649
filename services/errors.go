package services

import (
	"errors"
	"net/http"

	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/utils"
)

var (
	ErrInvalidUser         = errors.New("user id is required")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidDays         = errors.New("days must be zero or positive")
	ErrInvalidContribution = errors.New("nutrient values must be finite and non-negative")
	ErrInvalidMeal         = errors.New("meal needs at least one item or explicit totals")
	ErrMealNotFound        = errors.New("meal not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidProfile      = errors.New("invalid profile field")
	ErrInvalidRange        = errors.New("`to` must be on/after `from`")
	ErrInvalidMode         = errors.New("mode must be 'chart' or 'detailed'")
	ErrInvalidPlatform     = errors.New("unknown platform")
	ErrPushNotConfigured   = errors.New("push notifications not configured")
)

// ErrorMap gives the HTTP status for errors the controllers surface as-is.
var ErrorMap = map[error]int{
	ErrInvalidUser:             http.StatusUnauthorized,
	ErrInvalidDate:             http.StatusBadRequest,
	ErrInvalidDays:             http.StatusBadRequest,
	ErrInvalidContribution:     http.StatusBadRequest,
	ErrInvalidMeal:             http.StatusBadRequest,
	ErrMealNotFound:            http.StatusNotFound,
	ErrProfileNotFound:         http.StatusNotFound,
	ErrInvalidProfile:          http.StatusBadRequest,
	ErrInvalidRange:            http.StatusBadRequest,
	ErrInvalidMode:             http.StatusBadRequest,
	ErrInvalidPlatform:         http.StatusBadRequest,
	ErrPushNotConfigured:       http.StatusServiceUnavailable,
	utils.ErrInvalidBiometrics: http.StatusBadRequest,
}

// StatusFor walks the wrap chain; unknown errors are 500.
func StatusFor(err error) int {
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code
		}
	}
	return http.StatusInternalServerError
}
