package cmd

import (
	"fmt"

	"github.com/taskmux/taskmux/internal/capture"
	"github.com/taskmux/taskmux/internal/config"
	"github.com/taskmux/taskmux/internal/logging"
	"github.com/taskmux/taskmux/internal/notify"
	"github.com/taskmux/taskmux/internal/retention"
	"github.com/taskmux/taskmux/internal/supervisor"
	"github.com/taskmux/taskmux/internal/task"
	"github.com/taskmux/taskmux/internal/tmux"
)

// app wires the components every command needs. Construction is cheap; each
// command invocation builds one app and closes it on exit.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	store     *task.Store
	sup       *supervisor.Supervisor
	engine    *capture.Engine
	retention *retention.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.DataDir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	store, err := task.NewStore(cfg.DataDir, logger)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open task store: %w", err)
	}

	client := tmux.NewClient(cfg.Tmux.Socket, cfg.Tmux.Width, cfg.Tmux.Height, cfg.Tmux.HistoryLimit)

	engine, err := capture.NewEngine(client, cfg.LogsDir(), capture.Config{
		Interval:     cfg.CaptureInterval(),
		PreferStream: cfg.Capture.PreferStream,
		MaxPollers:   cfg.Capture.MaxPollers,
	}, logger)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("init capture engine: %w", err)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notify.Enabled && cfg.Notify.Command != "" {
		notifier = notify.NewCommandNotifier(cfg.Notify.Command, logger)
	}

	sup := supervisor.New(store, client, engine, notifier, logger, cfg.GracePeriod())
	ret := retention.NewManager(store, cfg.LogsDir(), client, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		sup:       sup,
		engine:    engine,
		retention: ret,
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Close()
}
