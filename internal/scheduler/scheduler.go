package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/metrics"
	"github.com/ykvlv/sunrise-countdown/internal/store"
	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
)

// Notifier announces a reached stage (sound, chat message, ...).
// Failures are logged by the scheduler and never retried.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, stage domain.DerivedStage) error
}

// Display consumes the view produced on every tick.
type Display interface {
	Render(v domain.View)
}

// StageStore persists stage definitions and the crossing log.
type StageStore interface {
	SaveStages(ctx context.Context, stages []domain.StageDefinition) error
	RecordNotification(ctx context.Context, n store.Notification) error
}

// Origin tells where a sunrise came from.
type Origin string

const (
	OriginAuto   Origin = "auto"
	OriginManual Origin = "manual"
)

// SunriseUpdate is one delivery from a sunrise source: either an instant or a failure.
// Clear drops the active sunrise instead of setting one.
type SunriseUpdate struct {
	At     time.Time
	Origin Origin
	Err    error
	Clear  bool
}

// Options configures a Scheduler. Zero values get sensible defaults.
type Options struct {
	Interval      time.Duration // tick cadence, default 1s
	FetchTimeout  time.Duration // per acquisition, default 10s
	NotifyTimeout time.Duration // per notifier call, default 15s
	Source        sunrise.Source
	Notifiers     []Notifier
	Displays      []Display
	Store         StageStore
	Metrics       *metrics.Recorder
	Now           func() time.Time
}

type stageEdit struct {
	stages []domain.StageDefinition
	reply  chan error
}

// Scheduler owns the engine and drives it from a single goroutine. Ticks,
// sunrise deliveries and stage edits are all applied inside Run, so the
// engine never sees concurrent access.
type Scheduler struct {
	engine *domain.Engine
	log    *zap.Logger
	opts   Options

	updates chan SunriseUpdate
	edits   chan stageEdit
	view    atomic.Pointer[domain.View]

	// calendar day (YYYY-MM-DD) on which a manual sunrise was applied;
	// automatic results for that day are ignored.
	manualDay string

	baseCtx context.Context
	wg      sync.WaitGroup
}

// New creates a Scheduler around engine.
func New(engine *domain.Engine, log *zap.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 15 * time.Second
	}
	if opts.Source == nil {
		opts.Source = sunrise.Unavailable{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{
		engine:  engine,
		log:     log,
		opts:    opts,
		updates: make(chan SunriseUpdate, 4),
		edits:   make(chan stageEdit),
		baseCtx: context.Background(),
	}
	s.publish()
	return s
}

// AddNotifier registers n. It must be called before Run.
func (s *Scheduler) AddNotifier(n Notifier) {
	s.opts.Notifiers = append(s.opts.Notifiers, n)
}

// Run ticks until ctx is canceled, then waits for in-flight notifications.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	s.baseCtx = ctx

	s.Step(s.opts.Now())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			s.wg.Wait()
			return
		case <-ticker.C:
			s.Step(s.opts.Now())
		case u := <-s.updates:
			s.applySunrise(u)
			s.publish()
		case e := <-s.edits:
			err := s.engine.SetStages(e.stages)
			s.publish()
			e.reply <- err
		}
	}
}

// Step performs one tick: advance the clock, announce crossings, render.
func (s *Scheduler) Step(now time.Time) {
	crossed := s.engine.Tick(now)
	v := s.publish()

	for _, st := range crossed {
		s.log.Info("stage reached",
			zap.String("stage", st.Name),
			zap.Time("at", st.At),
			zap.Int("epoch", v.Epoch),
		)
		s.opts.Metrics.Crossing(st.Name)
		s.dispatch(st, v.Sunrise, now)
	}
	for _, d := range s.opts.Displays {
		d.Render(v)
	}
}

// Snapshot returns the view published by the last tick or state change.
// Safe for concurrent use.
func (s *Scheduler) Snapshot() domain.View {
	return *s.view.Load()
}

// Wait blocks until every dispatched notification has finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) publish() domain.View {
	v := s.engine.View()
	v.Manual = s.manualDay != "" && s.manualDay == dayKey(s.opts.Now())
	s.view.Store(&v)
	s.opts.Metrics.Observe(v.Remaining, v.Epoch)
	return v
}

// dispatch announces st on every notifier without blocking the tick.
func (s *Scheduler) dispatch(st domain.DerivedStage, sunriseAt, firedAt time.Time) {
	if len(s.opts.Notifiers) == 0 && s.opts.Store == nil {
		return
	}
	ctx := s.baseCtx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var errs []error
		for _, n := range s.opts.Notifiers {
			nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
			err := n.Notify(nctx, st)
			cancel()
			if err != nil {
				s.log.Error("notify failed", zap.String("notifier", n.Name()),
					zap.String("stage", st.Name), zap.Error(err))
				s.opts.Metrics.NotifyFailure(n.Name())
				errs = append(errs, err)
			}
		}

		if s.opts.Store == nil {
			return
		}
		rec := store.Notification{
			Stage:     st.Name,
			SunriseAt: sunriseAt,
			StageAt:   st.At,
			FiredAt:   firedAt,
		}
		if err := errors.Join(errs...); err != nil {
			rec.Error = err.Error()
		}
		if err := s.opts.Store.RecordNotification(context.WithoutCancel(ctx), rec); err != nil {
			s.log.Warn("record notification failed", zap.Error(err))
		}
	}()
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// applySunrise is the only place a sunrise enters the engine.
func (s *Scheduler) applySunrise(u SunriseUpdate) {
	today := dayKey(s.opts.Now())
	if u.Origin != OriginManual && s.manualDay == today {
		s.log.Info("automatic sunrise ignored, manual entry in effect",
			zap.Time("sunrise", u.At), zap.Error(u.Err))
		s.opts.Metrics.SunriseUpdate(string(u.Origin), "ignored")
		return
	}

	if u.Clear {
		s.manualDay = ""
		s.engine.ClearSunrise()
		s.log.Info("sunrise cleared", zap.Int("epoch", s.engine.Epoch()))
		return
	}

	if u.Err != nil {
		s.log.Warn("sunrise unavailable", zap.String("origin", string(u.Origin)), zap.Error(u.Err))
		s.opts.Metrics.SunriseUpdate(string(u.Origin), "error")
		s.engine.SetError(Describe(u.Err))
		return
	}

	if u.Origin == OriginManual {
		s.manualDay = today
	}
	s.engine.SetSunrise(u.At)
	s.log.Info("sunrise set",
		zap.String("origin", string(u.Origin)),
		zap.Time("sunrise", u.At),
		zap.Int("epoch", s.engine.Epoch()),
	)
	s.opts.Metrics.SunriseUpdate(string(u.Origin), "ok")
}

// Submit delivers a sunrise update to the loop. Last delivery wins, except
// that a manual sunrise locks out automatic ones for the rest of its day.
func (s *Scheduler) Submit(ctx context.Context, u SunriseUpdate) error {
	select {
	case s.updates <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh acquires sunrise for today in the background; the result (or the
// failure) is delivered through Submit. Overlapping refreshes are not
// coordinated.
func (s *Scheduler) Refresh(ctx context.Context) {
	go func() {
		fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
		at, err := s.opts.Source.Sunrise(fctx, s.opts.Now())
		if err := s.Submit(ctx, SunriseUpdate{At: at, Origin: OriginAuto, Err: err}); err != nil {
			s.log.Debug("sunrise delivery dropped", zap.Error(err))
		}
	}()
}

// manualUpdate turns a manual "HH:MM" entry into an update for today.
func manualUpdate(text string, now time.Time) SunriseUpdate {
	at, err := domain.ParseClock(text, now)
	return SunriseUpdate{At: at, Origin: OriginManual, Err: err}
}

// SetManual parses text as today's sunrise and submits it. A malformed entry
// is still submitted so the error reaches the display, and is returned.
func (s *Scheduler) SetManual(ctx context.Context, text string) (time.Time, error) {
	u := manualUpdate(text, s.opts.Now())
	if err := s.Submit(ctx, u); err != nil {
		return time.Time{}, err
	}
	return u.At, u.Err
}

// Expire drops the active sunrise so a stale day is not shown as today's.
// Used when nothing can acquire the new day's sunrise automatically.
func (s *Scheduler) Expire(ctx context.Context) error {
	return s.Submit(ctx, SunriseUpdate{Origin: OriginManual, Clear: true})
}

// UpdateStages applies new definitions inside the loop and persists them
// once the engine accepted them.
func (s *Scheduler) UpdateStages(ctx context.Context, stages []domain.StageDefinition) error {
	if err := domain.ValidateStages(stages); err != nil {
		return err
	}
	e := stageEdit{stages: stages, reply: make(chan error, 1)}
	select {
	case s.edits <- e:
	case <-ctx.Done():
		return ctx.Err()
	}
	var err error
	select {
	case err = <-e.reply:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	if s.opts.Store != nil {
		if err := s.opts.Store.SaveStages(ctx, stages); err != nil {
			s.log.Error("save stages failed", zap.Error(err))
			return err
		}
	}
	s.log.Info("stages updated", zap.Int("count", len(stages)))
	return nil
}
