package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sportstrivia/internal/api"
	"sportstrivia/internal/auth"
	"sportstrivia/internal/broadcast"
	"sportstrivia/internal/config"
	"sportstrivia/internal/database"
	"sportstrivia/internal/game"
	"sportstrivia/internal/htmx"
	"sportstrivia/internal/ledger"
	"sportstrivia/internal/match"
	"sportstrivia/internal/questions"
	"sportstrivia/internal/router"
	"sportstrivia/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel, AddSource: true}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{Type: cfg.DatabaseType, URL: cfg.DatabaseURL, Path: cfg.DBPath})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateSchema(ctx); err != nil {
		return err
	}
	bank := questions.NewStore(db)
	if n, err := bank.Seed(ctx, questions.SampleQuestions); err != nil {
		return err
	} else if n > 0 {
		logger.Info("seeded question bank", "questions", n)
	}
	logger.Info("database ready", "type", cfg.DatabaseType)

	// the leaderboard always reads users.total_points
	sqlLedger := ledger.NewSQL(db)
	var scores ledger.Ledger = sqlLedger
	switch cfg.Ledger {
	case "amqp":
		pub, err := ledger.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer pub.Close()
		scores = pub
	case "memory":
		scores = ledger.NewMemory()
	}
	logger.Info("score ledger ready", "ledger", cfg.Ledger)

	var verifier *auth.Verifier
	if cfg.AuthSecret != "" {
		verifier = auth.NewVerifier(cfg.AuthSecret)
	}

	hub := broadcast.NewHub(logger)
	dir := game.NewDirectory()
	coord := match.NewCoordinator(hub, bank, scores, match.Config{
		QuestionsPerMatch: cfg.QuestionsPerMatch,
		RoundDuration:     cfg.RoundDuration,
		Intermission:      cfg.Intermission,
	}, logger)
	rt := router.New(dir, hub, coord, router.Config{
		DefaultRoomSize: cfg.DefaultRoomSize,
		MaxRoomSize:     cfg.MaxRoomSize,
	}, logger)

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	mux.Group(func(r chi.Router) {
		r.Use(api.RequestLogger(logger))
		api.NewHandler(dir, bank, sqlLedger).RegisterRoutes(r)
		htmx.NewHandler(dir, hub).RegisterRoutes(r)
	})
	ws.NewHandler(rt, verifier, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", "http://localhost"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	// hijacked websocket connections are not tracked by Shutdown
	hub.CloseAll()

	coord.Stop()
	coord.Wait()
	logger.Info("Server closed")
	return nil
}
