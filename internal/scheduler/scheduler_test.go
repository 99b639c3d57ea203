package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/store"
	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
)

type recordingNotifier struct {
	mu    sync.Mutex
	err   error
	names []string
}

func (n *recordingNotifier) Name() string { return "test" }

func (n *recordingNotifier) Notify(_ context.Context, st domain.DerivedStage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, st.Name)
	return n.err
}

func (n *recordingNotifier) got() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.names...)
}

type memStore struct {
	mu     sync.Mutex
	stages []domain.StageDefinition
	log    []store.Notification
}

func (m *memStore) SaveStages(_ context.Context, stages []domain.StageDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = stages
	return nil
}

func (m *memStore) RecordNotification(_ context.Context, n store.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, n)
	return nil
}

type countingDisplay struct{ views []domain.View }

func (d *countingDisplay) Render(v domain.View) { d.views = append(d.views, v) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func local(h, m, s int) time.Time {
	return time.Date(2025, time.June, 1, h, m, s, 0, time.Local)
}

func newTestScheduler(t *testing.T, stages []domain.StageDefinition, opts Options) *Scheduler {
	t.Helper()
	e, err := domain.NewEngine(stages, time.Second)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return New(e, zap.NewNop(), opts)
}

func TestStep_NotifiesOncePerStage(t *testing.T) {
	n := &recordingNotifier{}
	st := &memStore{}
	d := &countingDisplay{}
	s := newTestScheduler(t, []domain.StageDefinition{
		{Name: "A", OffsetMinutes: -10},
		{Name: "B"},
	}, Options{Notifiers: []Notifier{n}, Store: st, Displays: []Display{d}})

	s.applySunrise(SunriseUpdate{At: local(6, 0, 0), Origin: OriginAuto})
	for _, now := range []time.Time{
		local(5, 49, 59), local(5, 50, 0), local(5, 50, 0).Add(400 * time.Millisecond), local(5, 50, 1),
		local(6, 0, 0), local(6, 0, 0).Add(500 * time.Millisecond),
	} {
		s.Step(now)
	}
	s.Wait()

	got := n.got()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("want [A B], got %v", got)
	}
	if len(st.log) != 2 || st.log[0].Stage != "A" || st.log[0].Error != "" {
		t.Fatalf("unexpected notification log: %+v", st.log)
	}
	if len(d.views) != 6 {
		t.Fatalf("want a render per tick, got %d", len(d.views))
	}
	if v := s.Snapshot(); v.Next != nil || v.NextIndex != -1 {
		t.Fatalf("want nothing pending after sunrise, got %+v", v.Next)
	}
}

func TestStep_NotifyFailureKeepsMarker(t *testing.T) {
	n := &recordingNotifier{err: errors.New("speaker unplugged")}
	st := &memStore{}
	s := newTestScheduler(t, []domain.StageDefinition{{Name: "A"}},
		Options{Notifiers: []Notifier{n}, Store: st})

	s.applySunrise(SunriseUpdate{At: local(6, 0, 0), Origin: OriginAuto})
	s.Step(local(6, 0, 0))
	s.Step(local(6, 0, 0).Add(500 * time.Millisecond))
	s.Wait()

	if got := n.got(); len(got) != 1 {
		t.Fatalf("failed playback must not be retried, got %v", got)
	}
	if !s.engine.Notified("A") {
		t.Fatalf("stage must stay notified after a failed playback")
	}
	if len(st.log) != 1 || st.log[0].Error == "" {
		t.Fatalf("failure not recorded: %+v", st.log)
	}
}

func TestManualInput(t *testing.T) {
	clock := &fakeClock{now: local(5, 0, 0)}
	s := newTestScheduler(t, []domain.StageDefinition{{Name: "A"}}, Options{Now: clock.Now})

	s.applySunrise(SunriseUpdate{At: local(5, 0, 0), Origin: OriginAuto})
	s.Step(local(5, 0, 0))
	if !s.engine.Notified("A") {
		t.Fatalf("A should have fired")
	}
	epoch := s.engine.Epoch()

	bad := manualUpdate("ab:cd", clock.Now())
	if !errors.Is(bad.Err, domain.ErrInvalidTime) {
		t.Fatalf("want ErrInvalidTime, got %v", bad.Err)
	}
	s.applySunrise(bad)
	if got, _ := s.engine.Sunrise(); !got.Equal(local(5, 0, 0)) || s.engine.Epoch() != epoch {
		t.Fatalf("malformed input must not change sunrise")
	}
	if v := s.publish(); v.Err != msgTime {
		t.Fatalf("want %q, got %q", msgTime, v.Err)
	}

	s.applySunrise(manualUpdate("07:15", clock.Now()))
	got, ok := s.engine.Sunrise()
	if !ok || !got.Equal(local(7, 15, 0)) {
		t.Fatalf("want 07:15 today, got %s", got)
	}
	if s.engine.Notified("A") {
		t.Fatalf("notification state must be cleared")
	}
	if v := s.publish(); v.Err != "" {
		t.Fatalf("error must clear after a valid entry, got %q", v.Err)
	}
}

func TestManualTakesPrecedenceForTheDay(t *testing.T) {
	clock := &fakeClock{now: local(4, 0, 0)}
	s := newTestScheduler(t, domain.DefaultStages(), Options{Now: clock.Now})

	s.applySunrise(manualUpdate("06:10", clock.Now()))
	s.applySunrise(SunriseUpdate{At: local(5, 55, 0), Origin: OriginAuto})
	s.applySunrise(SunriseUpdate{Origin: OriginAuto, Err: sunrise.ErrLookupFailed})
	if got, _ := s.engine.Sunrise(); !got.Equal(local(6, 10, 0)) {
		t.Fatalf("automatic result overrode manual entry: %s", got)
	}
	if v := s.publish(); v.Err != "" {
		t.Fatalf("ignored failure must not surface, got %q", v.Err)
	}

	tomorrow := local(0, 0, 5).Add(24 * time.Hour)
	clock.Set(tomorrow)
	s.applySunrise(SunriseUpdate{At: tomorrow.Add(6 * time.Hour), Origin: OriginAuto})
	if got, _ := s.engine.Sunrise(); !got.Equal(tomorrow.Add(6 * time.Hour)) {
		t.Fatalf("automatic result must apply on a new day, got %s", got)
	}
}

func TestExpireDropsStaleDay(t *testing.T) {
	clock := &fakeClock{now: local(4, 0, 0)}
	s := newTestScheduler(t, domain.DefaultStages(), Options{Now: clock.Now})

	s.applySunrise(manualUpdate("06:10", clock.Now()))
	if v := s.publish(); !v.Manual {
		t.Fatalf("manual entry must be flagged for today")
	}
	epoch := s.engine.Epoch()

	clock.Set(local(0, 0, 5).Add(24 * time.Hour))
	if v := s.publish(); v.Manual {
		t.Fatalf("yesterday's manual entry must not be flagged")
	}
	s.applySunrise(SunriseUpdate{Origin: OriginManual, Clear: true})
	v := s.publish()
	if v.HasSunrise || len(v.Stages) != 0 || v.NextIndex != -1 {
		t.Fatalf("sunrise must be cleared, got %+v", v)
	}
	if v.Epoch != epoch+1 {
		t.Fatalf("clearing must start a new epoch")
	}
}

func TestAcquisitionFailure(t *testing.T) {
	s := newTestScheduler(t, domain.DefaultStages(), Options{})
	s.applySunrise(SunriseUpdate{Origin: OriginAuto, Err: sunrise.ErrLocationUnavailable})
	v := s.publish()
	if v.HasSunrise || len(v.Stages) != 0 {
		t.Fatalf("no sunrise expected")
	}
	if v.Err != msgLocation {
		t.Fatalf("want %q, got %q", msgLocation, v.Err)
	}
}

type stubSource struct{ at time.Time }

func (s stubSource) Sunrise(context.Context, time.Time) (time.Time, error) { return s.at, nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRun_RefreshAndEdits(t *testing.T) {
	clock := &fakeClock{now: local(5, 0, 0)}
	st := &memStore{}
	s := newTestScheduler(t, domain.DefaultStages(), Options{
		Interval: 10 * time.Millisecond,
		Source:   stubSource{at: local(6, 0, 0)},
		Store:    st,
		Now:      clock.Now,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Refresh(ctx)
	waitFor(t, func() bool { return s.Snapshot().HasSunrise })

	v := s.Snapshot()
	if v.Next == nil || v.Next.Name != "Opening" {
		t.Fatalf("want Opening next, got %+v", v.Next)
	}

	edited, err := domain.WithOffset(domain.DefaultStages(), "Opening", -70, 0)
	if err != nil {
		t.Fatalf("WithOffset: %v", err)
	}
	if err := s.UpdateStages(ctx, edited); err != nil {
		t.Fatalf("UpdateStages: %v", err)
	}
	if got := s.Snapshot().Stages[0].At; !got.Equal(local(4, 50, 0)) {
		t.Fatalf("edit not applied, Opening at %s", got)
	}
	st.mu.Lock()
	saved := len(st.stages)
	st.mu.Unlock()
	if saved != 6 {
		t.Fatalf("stages not persisted")
	}

	if err := s.UpdateStages(ctx, []domain.StageDefinition{{Name: "X"}, {Name: "X"}}); !errors.Is(err, domain.ErrDuplicateStage) {
		t.Fatalf("want ErrDuplicateStage, got %v", err)
	}

	if _, err := s.SetManual(ctx, "ab:cd"); !errors.Is(err, domain.ErrInvalidTime) {
		t.Fatalf("want ErrInvalidTime, got %v", err)
	}
	waitFor(t, func() bool { return s.Snapshot().Err == msgTime })

	at, err := s.SetManual(ctx, "06:30")
	if err != nil || !at.Equal(local(6, 30, 0)) {
		t.Fatalf("SetManual: %s %v", at, err)
	}
	waitFor(t, func() bool { return s.Snapshot().Sunrise.Equal(local(6, 30, 0)) })

	cancel()
	<-done
}
