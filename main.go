package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/handler"
	"github.com/Hmmmm3247/ContractGuard/middleware"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
	"github.com/Hmmmm3247/ContractGuard/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "path", configPath, "store", cfg.Store.Driver)
	if cfg.Gemini.APIKey == "" {
		slog.Warn("no Gemini API key configured, AI features will return 503")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	medium, err := service.NewMedium(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to initialize store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	if closer, ok := medium.(io.Closer); ok {
		defer closer.Close()
	}

	breaker := service.NewBreakerGenerator(service.NewGeminiClient(&cfg.Gemini), &cfg.Breaker)

	chats := service.NewChatStore(medium)
	vault := service.NewVault(medium, cfg.Store.MaxContracts, chats)
	analysis := service.NewAnalysisService(vault, breaker, cfg.Gemini.ThinkingBudget, cfg.Upload.MaxUploadBytes())
	email := service.NewEmailService(vault, breaker)
	chat := service.NewChatService(chats, vault, breaker)
	directory := service.NewCompanyDirectory(medium, breaker, cfg.Cache.CompanySize, cfg.Cache.CompanyTTL())
	reviews := service.NewReviewBoard(medium, vault, breaker)
	watchlist := service.NewWatchlist(medium)
	coach := service.NewNegotiationCoach(vault, breaker, service.NewGeminiLiveDialer(&cfg.Gemini))

	contractHandler := handler.NewContractHandler(analysis, vault, email, cfg.Upload.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(chat)
	companyHandler := handler.NewCompanyHandler(directory, reviews, vault)
	reviewHandler := handler.NewReviewHandler(reviews)
	watchlistHandler := handler.NewWatchlistHandler(watchlist)
	emailHandler := handler.NewEmailHandler(email)
	negotiationHandler := handler.NewNegotiationHandler(coach, vault, &cfg.Live, cfg.CORS.AllowOrigins)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Multipart bodies beyond this spill to disk.
	router.MaxMultipartMemory = cfg.Upload.MaxUploadBytes() + 1<<20

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))

	router.GET("/health", handler.Health(breaker))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	aiLimit := middleware.RateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	api := router.Group("/api")
	{
		api.GET("/resources", handler.Resources)

		api.GET("/contracts", contractHandler.List)
		api.GET("/contracts/:id", contractHandler.Get)
		api.PATCH("/contracts/:id", contractHandler.Update)
		api.DELETE("/contracts/:id", contractHandler.Delete)
		api.PUT("/contracts/:id/draft", contractHandler.SaveDraft)
		api.POST("/contracts/:id/versions/:versionId/revert", contractHandler.Revert)

		api.GET("/chats/:conversationId", chatHandler.History)
		api.DELETE("/chats/:conversationId", chatHandler.Clear)

		api.GET("/companies", companyHandler.Search)
		api.GET("/companies/trending", companyHandler.Trending)
		api.GET("/companies/:id", companyHandler.Get)
		api.GET("/companies/:id/contracts", companyHandler.Contracts)
		api.GET("/companies/:id/reviews", companyHandler.Reviews)
		api.GET("/companies/:id/reviews/stats", companyHandler.ReviewStats)
		api.GET("/reviews", reviewHandler.List)

		api.GET("/watchlist", watchlistHandler.List)
		api.POST("/watchlist/toggle", watchlistHandler.Toggle)

		api.POST("/negotiation/live-tickets", negotiationHandler.IssueTicket)
		api.GET("/negotiation/live", middleware.LiveTicket(&cfg.Live), negotiationHandler.Live)
	}

	// Routes that call the AI service
	ai := api.Group("/")
	ai.Use(aiLimit)
	{
		ai.POST("/contracts/analyze", contractHandler.Analyze)
		ai.POST("/contracts/upload", contractHandler.Upload)
		ai.POST("/contracts/:id/translate", contractHandler.Translate)
		ai.POST("/contracts/:id/summary", contractHandler.Summary)
		ai.POST("/chats/:conversationId/messages", chatHandler.Send)
		ai.POST("/companies/discover", companyHandler.Discover)
		ai.POST("/companies/:id/rival", companyHandler.Rival)
		ai.POST("/reviews", reviewHandler.Submit)
		ai.POST("/email/drafts", emailHandler.Draft)
		ai.POST("/email/refine", emailHandler.Refine)
		ai.POST("/negotiation/messages", negotiationHandler.Message)
	}

	// Analysis with thinking and search can take well over a minute.
	writeTimeout := cfg.Gemini.Timeout() + 30*time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exited gracefully")
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
