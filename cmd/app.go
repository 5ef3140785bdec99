package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/api"
	"github.com/Tiliavir/punch/internal/clock"
	"github.com/Tiliavir/punch/internal/config"
	"github.com/Tiliavir/punch/internal/dashboard"
	"github.com/Tiliavir/punch/internal/logging"
	"github.com/Tiliavir/punch/internal/render"
	"github.com/Tiliavir/punch/internal/session"
	"github.com/Tiliavir/punch/internal/storage"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg     config.Config
	loc     *time.Location
	log     *logrus.Logger
	store   *session.Store
	client  *api.Client
	tracker *clock.Tracker
	dash    *dashboard.Dashboard
	out     *render.Printer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	log := logging.New(level)

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Warn("using local timezone")
	}

	base, err := storage.BaseDir()
	if err != nil {
		return nil, storageErr(err)
	}

	store := session.New(
		storage.NewFile(base, session.FileName),
		session.WithLogger(logging.Component(log, "session")),
	)
	client := api.New(cfg.APIBaseURL, store,
		api.WithLogger(logging.Component(log, "api")),
		api.WithAuthTimeout(cfg.AuthTimeout()),
		api.WithRateLimit(cfg.RequestsPerMinute),
	)
	tracker := clock.New(client, logging.Component(log, "clock"))
	dash := dashboard.New(tracker, client,
		dashboard.WithLocation(loc),
		dashboard.WithLogger(logging.Component(log, "dashboard")),
	)

	return &app{
		cfg:     cfg,
		loc:     loc,
		log:     log,
		store:   store,
		client:  client,
		tracker: tracker,
		dash:    dash,
		out:     render.NewPrinter(cmd.OutOrStdout()),
	}, nil
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

func (a *app) today() string {
	return a.now().Format(timecalc.DateLayout)
}
