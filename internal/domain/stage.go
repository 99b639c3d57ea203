package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyStageName = errors.New("empty stage name")
	ErrDuplicateStage = errors.New("duplicate stage name")
	ErrUnknownStage   = errors.New("unknown stage")
)

// StageDefinition is a named, signed displacement from sunrise.
type StageDefinition struct {
	Name          string `json:"name"`
	OffsetMinutes int    `json:"offsetMinutes"`
	OffsetSeconds int    `json:"offsetSeconds,omitempty"`
}

// Offset returns the combined displacement from sunrise.
func (s StageDefinition) Offset() time.Duration {
	return time.Duration(s.OffsetMinutes*60+s.OffsetSeconds) * time.Second
}

// DerivedStage is a StageDefinition resolved against a concrete sunrise.
type DerivedStage struct {
	StageDefinition
	At time.Time
}

// DefaultStages returns a fresh copy of the built-in morning schedule.
func DefaultStages() []StageDefinition {
	return []StageDefinition{
		{Name: "Opening", OffsetMinutes: -45},
		{Name: "Thanksgiving", OffsetMinutes: -25},
		{Name: "Praised", OffsetMinutes: -10},
		{Name: "Hear", OffsetMinutes: -4, OffsetSeconds: -30},
		{Name: "Truth", OffsetMinutes: -2},
		{Name: "Sunrise", OffsetMinutes: 0},
	}
}

// ValidateStages checks that every stage has a non-empty, unique name.
// Names are the identity key for notification tracking.
func ValidateStages(stages []StageDefinition) error {
	seen := make(map[string]struct{}, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return fmt.Errorf("stage %d: %w", i, ErrEmptyStageName)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateStage, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// Derive resolves every stage against sunrise. Output order equals input order;
// callers that need chronological order must sort the result themselves.
func Derive(sunrise time.Time, stages []StageDefinition) []DerivedStage {
	out := make([]DerivedStage, len(stages))
	for i, s := range stages {
		out[i] = DerivedStage{StageDefinition: s, At: sunrise.Add(s.Offset())}
	}
	return out
}

// WithOffset returns a copy of stages where the named stage carries the new offset.
func WithOffset(stages []StageDefinition, name string, minutes, seconds int) ([]StageDefinition, error) {
	out := make([]StageDefinition, len(stages))
	copy(out, stages)
	for i := range out {
		if out[i].Name == name {
			out[i].OffsetMinutes = minutes
			out[i].OffsetSeconds = seconds
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStage, name)
}
