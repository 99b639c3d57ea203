package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/sunrise-countdown/assets"
	"github.com/ykvlv/sunrise-countdown/internal/config"
	"github.com/ykvlv/sunrise-countdown/internal/display"
	"github.com/ykvlv/sunrise-countdown/internal/domain"
	"github.com/ykvlv/sunrise-countdown/internal/metrics"
	"github.com/ykvlv/sunrise-countdown/internal/scheduler"
	"github.com/ykvlv/sunrise-countdown/internal/store"
	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
	"github.com/ykvlv/sunrise-countdown/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI // nil when BOT_TOKEN is unset
	metrics *metrics.Recorder
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, metrics: metrics.New(nil)}
	if cfg.BotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		bot.Debug = false
		a.bot = bot
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting sunrise-countdown",
		zap.String("source", a.cfg.SunriseSource),
		zap.Duration("tick", a.cfg.TickInterval),
		zap.String("http", a.cfg.HTTPAddr),
		zap.Bool("telegram", a.bot != nil),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	defer func() { _ = a.repo.Close() }()

	engine, err := domain.NewEngine(loadStages(ctx, repo, a.log), a.cfg.NotifyWindow)
	if err != nil {
		return err
	}

	// the API client carries FETCH_TIMEOUT itself; the fetch context gets
	// twice that so the offline fallback still runs after the API gives up
	opts := scheduler.Options{
		Interval:     a.cfg.TickInterval,
		FetchTimeout: 2 * a.cfg.FetchTimeout,
		Source:       sunriseSource(a.cfg),
		Store:        repo,
		Metrics:      a.metrics,
	}
	if a.cfg.Display {
		opts.Displays = append(opts.Displays, display.NewTerminal(os.Stdout))
		opts.Notifiers = append(opts.Notifiers, display.NewBell(os.Stdout))
	}
	a.sched = scheduler.New(engine, a.log, opts)

	var updCh tgbotapi.UpdatesChannel
	if a.bot != nil {
		sound, err := assets.Sound()
		if err != nil {
			a.log.Warn("notification sound unavailable", zap.Error(err))
		}
		a.router = telegram.NewRouter(a.bot, a.log, a.sched, a.cfg.ChatID, sound)
		a.sched.AddNotifier(a.router)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updCh = a.bot.GetUpdatesChan(u)
	}

	cron, err := a.startRefreshJob(ctx)
	if err != nil {
		return err
	}

	var httpSrv *http.Server
	if a.cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:         a.cfg.HTTPAddr,
			Handler:      newMux(a.sched.Snapshot, repo.ListNotifications, a.metrics.Handler()),
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("http server error", zap.Error(err))
			}
		}()
	}

	schedDone := make(chan struct{})
	go func() {
		a.sched.Run(ctx)
		close(schedDone)
	}()
	a.acquireInitial(ctx)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			if a.bot != nil {
				a.bot.StopReceivingUpdates()
			}
			if cron != nil {
				if err := cron.Shutdown(); err != nil {
					a.log.Warn("refresh job shutdown error", zap.Error(err))
				}
			}
			if httpSrv != nil {
				shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := httpSrv.Shutdown(shCtx)
				cancel()
				if err != nil {
					a.log.Warn("http server shutdown error", zap.Error(err))
				}
			}
			<-schedDone
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

// acquireInitial seeds today's sunrise: MANUAL_SUNRISE wins, otherwise the
// configured source is queried in the background.
func (a *App) acquireInitial(ctx context.Context) {
	if a.cfg.ManualSunrise != "" {
		if _, err := a.sched.SetManual(ctx, a.cfg.ManualSunrise); err != nil {
			a.log.Warn("MANUAL_SUNRISE rejected", zap.String("value", a.cfg.ManualSunrise), zap.Error(err))
		}
		return
	}
	if a.cfg.SunriseSource == config.SourceManual {
		_ = a.sched.Submit(ctx, scheduler.SunriseUpdate{Origin: scheduler.OriginAuto, Err: sunrise.ErrLocationUnavailable})
		return
	}
	a.sched.Refresh(ctx)
}

// dailyRefresh moves the schedule to the new day: MANUAL_SUNRISE is re-applied,
// a manual-only setup drops yesterday's sunrise and waits for a new entry,
// everything else asks the configured source again.
func (a *App) dailyRefresh(ctx context.Context) {
	a.log.Info("daily sunrise refresh")
	switch {
	case a.cfg.ManualSunrise != "":
		if _, err := a.sched.SetManual(ctx, a.cfg.ManualSunrise); err != nil {
			a.log.Warn("MANUAL_SUNRISE rejected", zap.String("value", a.cfg.ManualSunrise), zap.Error(err))
		}
	case a.cfg.SunriseSource == config.SourceManual:
		if err := a.sched.Expire(ctx); err != nil {
			a.log.Debug("sunrise expiry dropped", zap.Error(err))
		}
	default:
		a.sched.Refresh(ctx)
	}
}

// startRefreshJob runs dailyRefresh once a day so the schedule always
// belongs to today.
func (a *App) startRefreshJob(ctx context.Context) (gocron.Scheduler, error) {
	h, m, s, err := a.cfg.RefreshTime()
	if err != nil {
		return nil, err
	}
	cron, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(h, m, s))),
		gocron.NewTask(a.dailyRefresh, ctx),
		gocron.WithName("sunrise-refresh"),
	)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("failed to create refresh job: %w", err)
	}
	cron.Start()
	return cron, nil
}
