package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/config"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/db"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/handlers"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/middleware"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/window"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		slog.Error("JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	r := newRouter(database, cfg)

	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting API with TLS", "addr", addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		slog.Info("starting API", "addr", addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newRouter wires repos, handlers and middleware into the chi router.
func newRouter(database *sql.DB, cfg config.Config) chi.Router {
	windowRepo := repo.NewWindowRepo(database, cfg.DefaultLocation())
	hostRepo := repo.NewHostRepo(database)

	silenceHandler := &handlers.SilenceHandler{
		Factory:    window.NewFactory(windowRepo),
		Resolver:   window.NewResolver(windowRepo),
		Aggregator: window.NewAggregator(windowRepo),
		Hosts:      hostRepo,
		Enabled:    cfg.MaintWindowsEnabled,
	}
	windowHandler := &handlers.WindowHandler{Repo: windowRepo}
	hostHandler := &handlers.HostHandler{Repo: hostRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	silenceLimiter := middleware.SilenceRateLimiter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JWT([]byte(cfg.JWTSecret)))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		r.Get("/hosts", hostHandler.ListHosts)
		r.Get("/hosts/{id}/silence", silenceHandler.HostSilence)

		r.With(silenceLimiter.Middleware).Post("/silences", silenceHandler.CreateAdhoc)
		r.Get("/silences/active", silenceHandler.ActiveSilences)

		r.Get("/windows", windowHandler.ListWindows)
		r.Post("/windows", windowHandler.CreateWindow)
		r.Get("/windows/{id}", windowHandler.GetWindow)
		r.Put("/windows/{id}", windowHandler.UpdateWindow)
		r.Delete("/windows/{id}", windowHandler.DeleteWindow)
	})
	return r
}

// setupLogger installs the default slog handler: text for humans, json when
// LOG_FORMAT=json for log shippers.
func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
