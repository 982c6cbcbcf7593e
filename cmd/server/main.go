package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/structdraw/backend/internal/analysis"
	"github.com/structdraw/backend/internal/api"
	"github.com/structdraw/backend/internal/config"
	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/history"
	"github.com/structdraw/backend/internal/ledger"
	"github.com/structdraw/backend/internal/session"
	"github.com/structdraw/backend/internal/storage"
	"github.com/structdraw/backend/internal/upload"
	"github.com/structdraw/backend/internal/workspace"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, config.FileName)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir(), cfg.MaxUploadBytes())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	gate := upload.NewGate(fileStore)

	// Element detection
	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize analyzer: %v\n", err)
		os.Exit(1)
	}

	// Export history is optional; exports still work without it.
	var (
		recorder    export.HistoryRecorder
		historyList api.ExportHistory
	)
	if cfg.Storage.EnableHistory {
		store, err := history.NewStore(cfg.GetHistoryDir())
		if err != nil {
			fmt.Printf("Warning: export history disabled: %v\n", err)
		} else {
			defer store.Close()
			recorder, historyList = store, store
		}
	}

	registry := export.NewRegistry()
	pdf := export.NewPDFFormatter()
	pdf.Compress = cfg.Export.CompressPDF
	registry.Register(pdf)
	exportService := export.NewService(registry, recorder)

	// Initialize session manager
	limits := cfg.ViewportLimits()
	formula := ledger.ParseWeightFormula(cfg.Ledger.WeightFormula)
	sessionMgr := session.NewManager(func(id string) *workspace.Workspace {
		return workspace.New(id, workspace.Options{
			Analyzer:      analyzer,
			Assets:        gate,
			Limits:        limits,
			WeightFormula: formula,
		})
	}, cfg.Sessions.MaxSessions)
	defer sessionMgr.CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		interval := time.Duration(cfg.Sessions.CleanupIntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(time.Duration(cfg.Sessions.SessionTimeoutMinutes) * time.Minute); n > 0 {
					fmt.Printf("[Sessions] Closed %d idle workspaces\n", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/events") || path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	// Compression middleware
	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Advanced.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// Event streams are hijacked and drawings are already compressed
				return strings.HasSuffix(c.Request().URL.Path, "/events") ||
					strings.HasSuffix(c.Request().URL.Path, "/asset/content")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{echo.HeaderContentDisposition, "X-Export-Notice", "X-Export-Rows"},
		}))
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions:    sessionMgr,
		Export:      exportService,
		History:     historyList,
		Defaults:    cfg.ExportDefaults(),
		Version:     Version,
		WSMaxReadKB: cfg.Advanced.WebSocketMaxMessageSize,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	analyzerSource := "built-in demo"
	if cfg.Analysis.FixturePath != "" {
		analyzerSource = cfg.Analysis.FixturePath
	}
	historyState := "disabled"
	if historyList != nil {
		historyState = cfg.GetHistoryDir()
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Structural Drawing Analyzer Server              ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Analyzer:  %-46s║\n", analyzerSource)
	fmt.Printf("║  History:   %-46s║\n", historyState)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Server error: %v\n", err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}

// newAnalyzer loads the fixture named in the config, or the demo content.
func newAnalyzer(cfg *config.AppConfig) (analysis.Analyzer, error) {
	if cfg.Analysis.FixturePath != "" {
		return analysis.LoadFixtureAnalyzer(cfg.Analysis.FixturePath, cfg.AnalysisDelay())
	}
	return analysis.NewDemoAnalyzer(cfg.AnalysisDelay())
}
