package sunrise

import (
	"context"
	"time"

	gosunrise "github.com/nathan-osman/go-sunrise"
)

// Solar computes sunrise locally from the observer's coordinates.
type Solar struct {
	Loc Location
}

// Sunrise returns the UTC sunrise for day's calendar date in day's location.
func (s Solar) Sunrise(_ context.Context, day time.Time) (time.Time, error) {
	rise, _ := gosunrise.SunriseSunset(s.Loc.Lat, s.Loc.Lon, day.Year(), day.Month(), day.Day())
	if rise.IsZero() {
		return time.Time{}, ErrNoSunrise
	}
	return rise, nil
}
