package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bridgeofhope/internal/config"
	"bridgeofhope/internal/database"
	"bridgeofhope/internal/handler"
	"bridgeofhope/internal/mw"
	"bridgeofhope/internal/remote"
	"bridgeofhope/internal/service"
	"bridgeofhope/internal/worker"
)

func main() {
	cfg := config.New()

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid pickup timezone", "error", err)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()

	db, err := database.NewDB(startCtx, cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(startCtx, db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	// Services
	remoteClient := remote.NewClient(cfg.RemoteAPIAddress)
	authSvc := service.NewAuthService(db)
	decisionLog := service.NewDecisionLog(db)
	pickupSvc := service.NewPickupService(remoteClient, decisionLog, loc)
	leaderboardSvc := service.NewLeaderboardService(remoteClient)
	donorSvc := service.NewDonorService(remoteClient)

	// Worker
	refreshWorker := worker.NewRefreshWorker(pickupSvc, cfg.RefreshInterval)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/org/register", handler.RegisterHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/org/login", handler.LoginHandler(authSvc, cfg.JWTSecret))
	r.Get("/api/leaderboard", handler.LeaderboardHandler(leaderboardSvc))
	r.Get("/api/tiers", handler.TiersHandler())
	r.Get("/api/donors/{donorID}/summary", handler.DonorSummaryHandler(donorSvc))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/org/pickups", handler.ListPickupsHandler(pickupSvc))
		r.Post("/api/org/pickups/refresh", handler.RefreshPickupsHandler(pickupSvc))
		r.Post("/api/org/pickups/{donorID}/accept", handler.AcceptPickupHandler(pickupSvc))
		r.Post("/api/org/pickups/{donorID}/decline", handler.DeclinePickupHandler(pickupSvc))
		r.Get("/api/org/decisions", handler.ListDecisionsHandler(decisionLog))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go refreshWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress, "remote", cfg.RemoteAPIAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
