package services

import (
	"errors"
	"math/rand"
	"time"
)

// BusinessHours is the store's daily open interval. Opening is inclusive,
// Closing exclusive, both in whole hours.
type BusinessHours struct {
	Opening int
	Closing int
}

// Valid reports whether the hours describe a non-empty day interval.
func (h BusinessHours) Valid() bool {
	return h.Opening >= 0 && h.Closing <= 24 && h.Opening < h.Closing
}

// RandomizedTimeOn returns a uniformly random instant within business hours
// on the given calendar day. Backdated orders get plausible timestamps this
// way instead of all landing at midnight.
func (h BusinessHours) RandomizedTimeOn(day time.Time, rnd *rand.Rand) (time.Time, error) {
	if !h.Valid() {
		return time.Time{}, errors.New("business hours: invalid interval")
	}
	if rnd == nil {
		return time.Time{}, errors.New("business hours: random source is required")
	}

	hour := h.Opening + rnd.Intn(h.Closing-h.Opening)
	minute := rnd.Intn(60)
	second := rnd.Intn(60)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, day.Location()), nil
}
