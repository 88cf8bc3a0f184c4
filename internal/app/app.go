// Package app wires configuration, storage, clients, and services into the
// running agent. It is the shared core behind cmd/finlet-agent.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finlet-app/finlet/internal/clients/alphavantage"
	"github.com/finlet-app/finlet/internal/clients/gemini"
	"github.com/finlet-app/finlet/internal/clients/tradedesk"
	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/services/advisor"
	"github.com/finlet-app/finlet/internal/services/dashboard"
	"github.com/finlet-app/finlet/internal/services/education"
	"github.com/finlet-app/finlet/internal/services/quote"
	"github.com/finlet-app/finlet/internal/services/session"
	"github.com/finlet-app/finlet/internal/services/trading"
	"github.com/finlet-app/finlet/internal/storage/localdb"
)

// App holds all initialized clients and services.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.LocalStore
	TradeDeskClient  interfaces.TradeDeskClient
	GeminiClient     interfaces.GeminiClient
	QuoteService     interfaces.QuoteService
	QuoteWatcher     *quote.Watcher
	Tokens           *session.TokenIssuer
	SessionService   *session.Service
	TradingService   interfaces.TradingService
	DashboardService interfaces.DashboardService
	EducationService interfaces.EducationService
	AdvisorService   interfaces.AdvisorService
	StartupTime      time.Time

	watcherStarted bool
	refreshStarted bool
	warmupCancel   context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Config resolution: explicit path, FINLET_CONFIG, binary dir, dev fallback.
	if configPath == "" {
		configPath = os.Getenv("FINLET_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "finlet.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finlet.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := localdb.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	backend := tradedesk.NewClient(
		tradedesk.WithBaseURL(config.Clients.TradeDesk.BaseURL),
		tradedesk.WithLogger(logger),
		tradedesk.WithRateLimit(config.Clients.TradeDesk.RateLimit),
		tradedesk.WithTimeout(config.Clients.TradeDesk.GetTimeout()),
		tradedesk.WithVerifyTimeout(config.Clients.TradeDesk.GetVerifyTimeout()),
		tradedesk.WithSaveTimeout(config.Clients.TradeDesk.GetSaveTimeout()),
	)

	var fallbackQuotes interfaces.FallbackQuoteClient
	if config.Clients.AlphaVantage.APIKey != "" {
		fallbackQuotes = alphavantage.NewClient(config.Clients.AlphaVantage.APIKey,
			alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
			alphavantage.WithLogger(logger),
			alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
			alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Alpha Vantage API key not configured - quote fallback disabled")
	}

	var geminiClient interfaces.GeminiClient
	if config.Clients.Gemini.APIKey != "" {
		gc, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - AI fallback disabled")
		} else {
			geminiClient = gc
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - AI fallback disabled")
	}

	tokens := session.NewTokenIssuer(config.Auth.JWTSecret, config.Auth.GetTokenExpiry())

	quoteService := quote.NewService(backend, fallbackQuotes, logger)
	quoteWatcher := quote.NewWatcher(quoteService, logger, config.Refresh.GetQuoteInterval())
	sessionService := session.NewService(backend, store, tokens, config, logger)
	tradingService := trading.NewService(backend, sessionService, logger)
	dashboardService := dashboard.NewService(sessionService, quoteWatcher, store, logger)
	educationService := education.NewService(backend, sessionService, store, logger)
	advisorService := advisor.NewService(backend, geminiClient, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		TradeDeskClient:  backend,
		GeminiClient:     geminiClient,
		QuoteService:     quoteService,
		QuoteWatcher:     quoteWatcher,
		Tokens:           tokens,
		SessionService:   sessionService,
		TradingService:   tradingService,
		DashboardService: dashboardService,
		EducationService: educationService,
		AdvisorService:   advisorService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartWarmup pings the backend and restores the previous session without
// blocking startup. Either step failing leaves the agent usable.
func (a *App) StartWarmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	a.warmupCancel = cancel

	go func() {
		defer cancel()

		if err := a.TradeDeskClient.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Backend not reachable yet")
		} else {
			a.Logger.Info().Msg("Backend reachable")
		}

		user, err := a.SessionService.Restore(ctx)
		switch {
		case err != nil:
			a.Logger.Warn().Err(err).Msg("Session restore failed")
		case user != nil:
			a.Logger.Info().Str("user", user.Identifier()).Msg("Session restored")
		default:
			a.Logger.Info().Msg("No stored session")
		}
	}()
}

// StartBackground launches the quote watcher and the session auto-refresh.
func (a *App) StartBackground() {
	if !a.watcherStarted {
		a.QuoteWatcher.Start(context.Background())
		a.watcherStarted = true
	}
	if !a.refreshStarted {
		a.SessionService.StartAutoRefresh(context.Background())
		a.refreshStarted = true
	}
}

// Close releases all resources. Shutdown order: warmup, background loops,
// then storage.
func (a *App) Close() {
	if a.warmupCancel != nil {
		a.warmupCancel()
		a.warmupCancel = nil
	}
	if a.watcherStarted {
		a.QuoteWatcher.Stop()
		a.watcherStarted = false
	}
	if a.refreshStarted {
		a.SessionService.StopAutoRefresh()
		a.refreshStarted = false
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close local storage")
		}
		a.Store = nil
	}
}
