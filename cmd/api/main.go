package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskdeck/taskdeck-go/internal/config"
	"github.com/taskdeck/taskdeck-go/internal/handler"
	"github.com/taskdeck/taskdeck-go/internal/middleware"
	"github.com/taskdeck/taskdeck-go/internal/repository"
	"github.com/taskdeck/taskdeck-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)

	taskRepo := repository.NewTaskRepository(db)
	taskService := service.NewTaskService(taskRepo)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          handler.NewAuthHandler(authService),
		Tasks:         handler.NewTaskHandler(taskService),
		JWTSecret:     cfg.JWTSecret,
		PublicDir:     cfg.PublicDir,
		AuthRateLimit: middleware.RateLimit(5, 10),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
