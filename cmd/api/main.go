package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/techideas/interview/backend/internal/config"
	"github.com/techideas/interview/backend/internal/handler"
	"github.com/techideas/interview/backend/internal/journal"
	appMetrics "github.com/techideas/interview/backend/internal/metrics"
	interviewModel "github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
	aiService "github.com/techideas/interview/backend/internal/service/ai"
	chatService "github.com/techideas/interview/backend/internal/service/chat"
	interviewService "github.com/techideas/interview/backend/internal/service/interview"
	"github.com/techideas/interview/backend/internal/service/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	metrics := appMetrics.New()

	// Profiles and fallback questions, with optional YAML overrides.
	profiles := profile.Seed()
	var fallback []interviewModel.Question
	if cfg.Interview.ConfigFile != "" {
		file, err := config.LoadInterviewFile(cfg.Interview.ConfigFile)
		if err != nil {
			log.Fatalf("failed to load interview config: %v", err)
		}
		if seed := file.ProfileSeed(); seed != nil {
			profiles = seed
		}
		fallback = file.Questions()
	}
	profileStore := profile.NewMemoryStore(profiles)

	webhookCfg := webhook.Config{
		FetchQuestionsURL: cfg.Webhook.FetchQuestionsURL,
		SaveAnswerURL:     cfg.Webhook.SaveAnswerURL,
		SaveSessionURL:    cfg.Webhook.SaveSessionURL,
		Timeout:           cfg.Webhook.Timeout,
	}
	if !webhookCfg.Configured() {
		log.Println("warning: workflow webhooks not configured; interviews will use the built-in question list and answers will not be persisted remotely")
	}
	transport := webhook.NewClient(webhookCfg)

	chatSvc := chatService.NewService(chatService.WithExporter(transport))

	interviewOpts := []interviewService.Option{
		interviewService.WithMetrics(metrics),
		interviewService.WithFallbackQuestions(fallback),
	}
	if cfg.Journal.Enabled {
		jnl, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Printf("warning: failed to open answer journal: %v", err)
			log.Println("continuing without local answer journaling")
		} else {
			defer jnl.Close()
			interviewOpts = append(interviewOpts, interviewService.WithJournal(jnl))
			log.Printf("answer journal at %s", cfg.Journal.Path)
		}
	}
	interviewSvc := interviewService.NewService(transport, interviewOpts...)

	var aiSvc *aiService.Service
	if cfg.AI.Enabled() {
		aiSvc, err = aiService.NewService(ctx, profileStore, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without chat functionality")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("chat model credentials not configured, skipping AI initialization")
	}

	router := handler.NewRouter(handler.Deps{
		Profiles:      profileStore,
		ChatSvc:       chatSvc,
		InterviewSvc:  interviewSvc,
		AISvc:         aiSvc,
		Metrics:       metrics,
		DefaultUserID: cfg.Interview.DefaultUserID,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("interview backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
