package domain

import (
	"time"
)

// DefaultWindow is the proximity window used when none is given.
// It must be at least the tick cadence or crossings can be missed.
const DefaultWindow = time.Second

// View is the per-tick read model handed to display consumers.
type View struct {
	Now        time.Time
	Sunrise    time.Time
	HasSunrise bool
	Defs       []StageDefinition
	Stages     []DerivedStage
	Next       *DerivedStage // nil when no sunrise or every stage has passed
	NextIndex  int           // -1 when Next is nil
	Remaining  time.Duration
	Epoch      int
	Err        string // last user-visible acquisition/input error
	Manual     bool   // sunrise was entered by hand today; automatic lookups are ignored
}

// Engine tracks the active sunrise, the derived schedule and which stages
// have already been announced during the current epoch.
// It is not safe for concurrent use; a single owner drives it.
type Engine struct {
	window time.Duration

	stages     []StageDefinition
	sunrise    time.Time
	hasSunrise bool
	derived    []DerivedStage

	now      time.Time
	notified map[string]struct{}
	epoch    int
	errMsg   string
}

// NewEngine validates stages and returns an engine with no sunrise set.
func NewEngine(stages []StageDefinition, window time.Duration) (*Engine, error) {
	if err := ValidateStages(stages); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Engine{
		window:   window,
		stages:   append([]StageDefinition(nil), stages...),
		notified: make(map[string]struct{}),
	}, nil
}

// SetSunrise replaces the active sunrise and starts a new epoch: the schedule
// is re-derived and every notification marker is dropped.
func (e *Engine) SetSunrise(t time.Time) {
	e.sunrise = t
	e.hasSunrise = true
	e.derived = Derive(t, e.stages)
	clear(e.notified)
	e.epoch++
	e.errMsg = ""
}

// ClearSunrise drops the active sunrise. No stages are derived until a new one arrives.
func (e *Engine) ClearSunrise() {
	e.sunrise = time.Time{}
	e.hasSunrise = false
	e.derived = nil
	clear(e.notified)
	e.epoch++
}

// SetStages replaces the stage definitions and re-derives against the current
// sunrise. Markers of stages that no longer exist are pruned; the rest survive
// because the epoch (sunrise) did not change.
func (e *Engine) SetStages(stages []StageDefinition) error {
	if err := ValidateStages(stages); err != nil {
		return err
	}
	e.stages = append([]StageDefinition(nil), stages...)
	names := make(map[string]struct{}, len(stages))
	for _, s := range stages {
		names[s.Name] = struct{}{}
	}
	for name := range e.notified {
		if _, ok := names[name]; !ok {
			delete(e.notified, name)
		}
	}
	if e.hasSunrise {
		e.derived = Derive(e.sunrise, e.stages)
	}
	return nil
}

// SetError records a user-visible message that is carried on every view
// until the next sunrise arrives.
func (e *Engine) SetError(msg string) { e.errMsg = msg }

// Stages returns a copy of the current definitions.
func (e *Engine) Stages() []StageDefinition {
	return append([]StageDefinition(nil), e.stages...)
}

// Sunrise returns the active sunrise, if any.
func (e *Engine) Sunrise() (time.Time, bool) { return e.sunrise, e.hasSunrise }

// Epoch counts sunrise changes since construction.
func (e *Engine) Epoch() int { return e.epoch }

// Notified reports whether name was already announced in this epoch.
func (e *Engine) Notified(name string) bool {
	_, ok := e.notified[name]
	return ok
}

// Tick advances the clock reading and returns the stages whose boundary was
// crossed for the first time in this epoch.
func (e *Engine) Tick(now time.Time) []DerivedStage {
	e.now = now
	return CheckCrossings(e.derived, now, e.window, e.notified)
}

// View builds the read model for the last tick.
func (e *Engine) View() View {
	v := View{
		Now:        e.now,
		Sunrise:    e.sunrise,
		HasSunrise: e.hasSunrise,
		Defs:       e.Stages(),
		Stages:     append([]DerivedStage(nil), e.derived...),
		NextIndex:  -1,
		Epoch:      e.epoch,
		Err:        e.errMsg,
	}
	next, idx := NextPending(v.Stages, e.now)
	if idx >= 0 {
		v.Next = &next
		v.NextIndex = idx
		v.Remaining = TimeRemaining(next, e.now)
	}
	return v
}

// NextPending returns the first stage in list order whose instant is strictly
// after now. List order is authoritative; nothing is sorted. The index is -1
// when every stage has passed.
func NextPending(stages []DerivedStage, now time.Time) (DerivedStage, int) {
	for i, s := range stages {
		if s.At.After(now) {
			return s, i
		}
	}
	return DerivedStage{}, -1
}

// TimeRemaining is the non-negative time left until next.
func TimeRemaining(next DerivedStage, now time.Time) time.Duration {
	d := next.At.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CheckCrossings returns every stage within window of now that is not yet in
// notified, adding each one to notified. The window only limits misses;
// duplicates are gated by notified.
func CheckCrossings(stages []DerivedStage, now time.Time, window time.Duration, notified map[string]struct{}) []DerivedStage {
	var crossed []DerivedStage
	for _, s := range stages {
		diff := now.Sub(s.At)
		if diff < 0 {
			diff = -diff
		}
		if diff >= window {
			continue
		}
		if _, done := notified[s.Name]; done {
			continue
		}
		notified[s.Name] = struct{}{}
		crossed = append(crossed, s)
	}
	return crossed
}
