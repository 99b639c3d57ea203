// Package sunrise acquires today's sunrise instant from a remote API or from
// a local solar calculation.
package sunrise

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLookupFailed        = errors.New("sunrise lookup failed")
	ErrNoSunrise           = errors.New("sun does not rise on this day")
)

// Source returns the sunrise instant for the calendar day of day.
type Source interface {
	Sunrise(ctx context.Context, day time.Time) (time.Time, error)
}

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinates are in range.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("longitude out of range: %v", l.Lon)
	}
	return nil
}

// Unavailable is a Source that always fails with ErrLocationUnavailable.
// It stands in for automatic sources when no coordinates are configured.
type Unavailable struct{}

func (Unavailable) Sunrise(context.Context, time.Time) (time.Time, error) {
	return time.Time{}, ErrLocationUnavailable
}

// Chain tries each source in order and returns the first success. An expired
// deadline does not stop the chain, since later sources (Solar) work offline;
// only cancellation does.
type Chain []Source

func (c Chain) Sunrise(ctx context.Context, day time.Time) (time.Time, error) {
	if len(c) == 0 {
		return time.Time{}, ErrLocationUnavailable
	}
	var errs []error
	for _, src := range c {
		t, err := src.Sunrise(ctx, day)
		if err == nil {
			return t, nil
		}
		errs = append(errs, err)
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}
	return time.Time{}, errors.Join(errs...)
}
