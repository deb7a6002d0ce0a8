package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"clubsite/internal/config"
	"clubsite/internal/handlers"
	"clubsite/internal/repository"
	"clubsite/internal/security"
	"clubsite/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	store, closeStore, err := repository.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	var notifier service.Notifier = service.NewMailtoNotifier(nil)
	if emailService.IsEnabled() {
		notifier = emailService
	}

	var fetcher service.CollectionFetcher
	if cfg.DataBaseURL != "" {
		fetcher = service.NewDataFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.DataBaseURL, cfg.Debug)
	}
	club := service.NewClubService(store, fetcher, notifier, cfg.Debug)
	if err := club.Initialize(ctx); err != nil {
		log.Fatalf("Failed to load local data: %v", err)
	}

	publisher := service.NewPublishService(cfg.Publish, service.NewRepositoryConnector(cfg.HTTPTimeout), cfg.Debug)
	if err := publisher.CheckConfig(); err != nil {
		log.Printf("Publishing disabled until configured: %v", err)
	}

	credentials, err := security.NewAdminCredentials(cfg.AdminUsername, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatalf("Failed to load admin credentials: %v", err)
	}
	if cfg.SessionSecret == "" {
		log.Println("Warning: SESSION_SECRET not set, admin sessions will not survive a restart")
	}
	sessions := security.NewSessionManager(cfg.SessionSecret, cfg.SessionDuration)
	limiter := security.NewRateLimiter(10, time.Minute)

	// Initialize handlers
	middleware := handlers.NewMiddleware(sessions, security.NewCSRFGenerator(cfg.SessionSecret), limiter)
	router := &handlers.Router{
		Public:     handlers.NewPublicHandler(club, cfg.PublishedDataPath),
		Admin:      handlers.NewAdminHandler(club, publisher, emailService, credentials, sessions, middleware, uuid.NewString),
		Publish:    handlers.NewPublishFunctionHandler(publisher),
		Middleware: middleware,
		StaticPath: cfg.StaticFilesPath,
	}

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background rate limiter cleanup
	stopCleanup := make(chan struct{})
	go pruneRateLimiter(limiter, stopCleanup)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Published data wins over local data, when it can be reached
	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		defer cancel()
		club.RefreshFromNetwork(refreshCtx, service.RefreshStartup)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	close(stopCleanup)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	club.WaitForNotifications()
}

// pruneRateLimiter periodically forgets idle clients
func pruneRateLimiter(limiter *security.RateLimiter, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := limiter.Prune(); removed > 0 {
				log.Printf("Rate limiter pruned %d idle clients", removed)
			}
		case <-stop:
			return
		}
	}
}
