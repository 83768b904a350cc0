package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/theSp0ty/Weather-bot-tg/internal/config"
	"github.com/theSp0ty/Weather-bot-tg/internal/scheduler"
	"github.com/theSp0ty/Weather-bot-tg/internal/store"
	"github.com/theSp0ty/Weather-bot-tg/internal/telegram"
	"github.com/theSp0ty/Weather-bot-tg/internal/weather"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting weather-bot", zap.String("http", a.cfg.HTTPAddr))

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	provider := weather.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		a.cfg.OpenWeatherAPIKey,
		a.cfg.TimezoneDBAPIKey,
	)

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, provider)

	sched, err := scheduler.New(a.log, a.router, a.cfg.DefaultTZ)
	if err != nil {
		return err
	}
	a.sched = sched
	a.router.SetNotifier(sched)

	// Rebuild every configured trigger from persisted sessions before
	// the scheduler starts dispatching.
	sessions, err := a.repo.ListSessions(ctx)
	if err != nil {
		a.log.Error("list sessions failed", zap.Error(err))
		return err
	}
	a.sched.Rehydrate(sessions)
	a.sched.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			if err := a.sched.Stop(); err != nil {
				a.log.Warn("scheduler shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			// Each update runs on its own goroutine; the router
			// serializes per-chat processing internally.
			go a.router.HandleUpdate(ctx, upd)
		}
	}
}
