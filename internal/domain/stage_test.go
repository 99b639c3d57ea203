package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDerive_PositiveAndNegativeOffsets(t *testing.T) {
	sunrise := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)
	stages := []StageDefinition{
		{Name: "before", OffsetMinutes: -4, OffsetSeconds: -30},
		{Name: "after", OffsetMinutes: 3, OffsetSeconds: 15},
		{Name: "at", OffsetMinutes: 0},
	}
	got := Derive(sunrise, stages)
	want := []time.Time{
		sunrise.Add(-270 * time.Second),
		sunrise.Add(195 * time.Second),
		sunrise,
	}
	if len(got) != len(want) {
		t.Fatalf("want %d stages, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].At.Equal(want[i]) {
			t.Fatalf("stage %s: want %s, got %s", got[i].Name, want[i], got[i].At)
		}
	}
}

func TestDerive_PreservesInputOrder(t *testing.T) {
	sunrise := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)
	stages := []StageDefinition{
		{Name: "late", OffsetMinutes: 10},
		{Name: "early", OffsetMinutes: -10},
		{Name: "mid", OffsetMinutes: 0},
	}
	got := Derive(sunrise, stages)
	for i, s := range stages {
		if got[i].Name != s.Name {
			t.Fatalf("position %d: want %s, got %s", i, s.Name, got[i].Name)
		}
	}
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	if len(stages) != 6 {
		t.Fatalf("want 6 default stages, got %d", len(stages))
	}
	if err := ValidateStages(stages); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	hear := stages[3]
	if hear.Name != "Hear" || hear.Offset() != -270*time.Second {
		t.Fatalf("unexpected Hear stage: %+v", hear)
	}
	// callers get a copy
	stages[0].Name = "changed"
	if DefaultStages()[0].Name != "Opening" {
		t.Fatalf("DefaultStages returned shared slice")
	}
}

func TestValidateStages(t *testing.T) {
	err := ValidateStages([]StageDefinition{{Name: "A"}, {Name: "A", OffsetMinutes: 1}})
	if !errors.Is(err, ErrDuplicateStage) {
		t.Fatalf("want ErrDuplicateStage, got %v", err)
	}
	err = ValidateStages([]StageDefinition{{Name: ""}})
	if !errors.Is(err, ErrEmptyStageName) {
		t.Fatalf("want ErrEmptyStageName, got %v", err)
	}
}

func TestWithOffset(t *testing.T) {
	base := DefaultStages()
	edited, err := WithOffset(base, "Truth", -3, -15)
	if err != nil {
		t.Fatalf("WithOffset: %v", err)
	}
	if edited[4].Offset() != -195*time.Second {
		t.Fatalf("want -195s, got %s", edited[4].Offset())
	}
	if base[4].OffsetMinutes != -2 {
		t.Fatalf("input slice was mutated")
	}
	if _, err := WithOffset(base, "Nope", 0, 0); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("want ErrUnknownStage, got %v", err)
	}
}
