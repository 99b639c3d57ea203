package scheduler

import (
	"errors"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
)

// User-facing texts for acquisition and input failures.
const (
	msgLocation = "Location is required. You can enter the sunrise time manually."
	msgLookup   = "Error fetching sunrise data. Try entering it manually."
	msgNoSun    = "The sun does not rise here today. Enter the sunrise time manually."
	msgNetwork  = "Network error. Check the connection and try again."
	msgTime     = "Invalid time format. Use HH:MM."
)

// Describe maps an acquisition or input error to the message shown to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyTime), errors.Is(err, domain.ErrInvalidTime):
		return msgTime
	case errors.Is(err, sunrise.ErrNoSunrise):
		return msgNoSun
	case errors.Is(err, sunrise.ErrLookupFailed):
		return msgLookup
	case errors.Is(err, sunrise.ErrLocationUnavailable):
		return msgLocation
	default:
		return msgNetwork
	}
}
