package main

import (
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"

	"github.com/tamtam888/TaskMan/internal/auth"
	"github.com/tamtam888/TaskMan/internal/calendar"
	"github.com/tamtam888/TaskMan/internal/config"
	"github.com/tamtam888/TaskMan/internal/game"
	"github.com/tamtam888/TaskMan/internal/httpmw"
	"github.com/tamtam888/TaskMan/internal/server"
	"github.com/tamtam888/TaskMan/internal/store"
)

func main() {
	cfg := config.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "taskman",
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	balance, err := config.LoadBalance(cfg.BalancePath)
	if err != nil {
		logger.Warn("balance file ignored", "path", cfg.BalancePath, "err", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("open store", "err", err)
	}

	calOpts := calendar.DefaultOptions()
	if loc, err := time.LoadLocation(balance.Calendar.Timezone); err == nil {
		calOpts.Location = loc
	}
	if balance.Calendar.EventHour > 0 {
		calOpts.EventHour = balance.Calendar.EventHour
	}
	if balance.Calendar.DurationMinutes > 0 {
		calOpts.DurationMinutes = balance.Calendar.DurationMinutes
	}

	app := &server.App{
		Auth: auth.NewService(logger, time.Duration(cfg.SessionTTLDays)*24*time.Hour),
		Manager: game.NewManager(
			st,
			calendar.NewGoogleClient(15*time.Second),
			calOpts,
			balance.Scoring(),
			game.RealClock{},
			logger,
		),
		BootNow: time.Now(),
	}

	mux := http.NewServeMux()
	rr := &server.RouteRegistry{}
	server.RegisterAPIRoutes(mux, rr, app)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	handler := httpmw.Chain(mux,
		httpmw.WithRequestID,
		httpmw.WithRecover(logger),
		httpmw.WithAccessLog(logger),
	)
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}).Handler(handler)

	logger.Info("taskman listening", "addr", cfg.Addr, "store", cfg.Store)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Store == "sqlite" {
		return store.OpenSQLiteStore(cfg.DatabaseURL)
	}
	return store.NewFileStore(cfg.DataDir)
}
