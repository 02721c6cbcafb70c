package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/statement-renamer/backend/internal/api"
	"github.com/statement-renamer/backend/internal/config"
	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/logging"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/session"
	"github.com/statement-renamer/backend/internal/storage"
	"github.com/statement-renamer/backend/internal/upload"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.FileName)
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Advanced.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	docTypes := parser.DefaultDocTypeMapping()
	if cfg.Naming.DocTypesFile != "" {
		docTypes, err = parser.LoadDocTypeMapping(cfg.Naming.DocTypesFile)
		if err != nil {
			logger.Fatal("failed to load document type mapping", zap.String("file", cfg.Naming.DocTypesFile), zap.Error(err))
		}
	}
	registry := parser.NewRegistry(docTypes)
	if err := cfg.ValidateStrategy(registry.Names()); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	endDate, err := registry.Get(parser.EndDateStrategyName)
	if err != nil {
		logger.Fatal("end-date strategy missing", zap.Error(err))
	}

	store := storage.NewLocalStore(cfg.Security.SkipHiddenFiles)
	extractor := extract.NewPDFExtractor(logger)

	sessionMgr := session.NewManager(store, extractor, registry, session.Config{
		Workers:         cfg.Processing.MaxConcurrentParses,
		AllowedRoots:    cfg.GetAllowedRoots(),
		DefaultStrategy: cfg.Naming.DefaultStrategy,
	}, logger)

	// Start background batch cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(time.Duration(cfg.Processing.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	processor := upload.NewProcessor(extractor, endDate, logger)

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg, logger)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Processor:  processor,
		BatchMgr:   sessionMgr,
		Strategies: registry.Names(),
		Version:    Version,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Statement Renamer Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
