// Package advisor provides AI commentary with graceful degradation. Every
// operation tries the backend first, then direct Gemini generation when a
// client is configured, and finally canned content. Callers always get an
// answer; the Source field tells them how fresh it is.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/finlet-app/finlet/internal/common"
	"github.com/finlet-app/finlet/internal/interfaces"
	"github.com/finlet-app/finlet/internal/models"
)

// Service implements AdvisorService.
type Service struct {
	backend interfaces.TradeDeskClient
	gemini  interfaces.GeminiClient // nil when no API key is configured
	logger  *common.Logger
	now     func() time.Time

	briefMu     sync.Mutex
	cachedBrief *models.DailyBrief
	briefAt     time.Time
}

// NewService creates an advisor service. gemini may be nil.
func NewService(backend interfaces.TradeDeskClient, gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{
		backend: backend,
		gemini:  gemini,
		logger:  logger,
		now:     time.Now,
	}
}

// DailyBrief returns the market brief: backend, then Gemini, then static.
// A real brief is cached for the brief freshness window; static fallbacks
// are never cached so a recovering source is picked up immediately.
func (s *Service) DailyBrief(ctx context.Context) (*models.DailyBrief, error) {
	s.briefMu.Lock()
	if s.cachedBrief != nil && common.IsFresh(s.briefAt, common.FreshnessBrief) {
		cached := *s.cachedBrief
		s.briefMu.Unlock()
		return &cached, nil
	}
	s.briefMu.Unlock()

	brief, err := s.backend.GetDailyBrief(ctx)
	if err == nil && brief != nil && brief.Body != "" {
		s.cacheBrief(brief)
		return brief, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Backend daily brief unavailable")
	}

	if s.gemini != nil {
		prompt := "Write a short, beginner-friendly summary of what is generally " +
			"happening in the stock market today. Two or three sentences, plain " +
			"language, no jargon, no specific buy or sell advice."
		text, err := s.gemini.GenerateContent(ctx, prompt)
		if err == nil && text != "" {
			generated := &models.DailyBrief{
				Headline:    "Today's Market",
				Body:        strings.TrimSpace(text),
				Sentiment:   "neutral",
				GeneratedAt: s.now(),
				Source:      "gemini",
			}
			s.cacheBrief(generated)
			return generated, nil
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("Gemini daily brief fallback failed")
		}
	}

	return staticBrief(s.now()), nil
}

func (s *Service) cacheBrief(brief *models.DailyBrief) {
	s.briefMu.Lock()
	copied := *brief
	s.cachedBrief = &copied
	s.briefAt = s.now()
	s.briefMu.Unlock()
}

// StockIntelligence returns commentary for a ticker with the same chain.
func (s *Service) StockIntelligence(ctx context.Context, symbol string) (*models.StockIntelligence, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	intel, err := s.backend.GetStockIntelligence(ctx, symbol)
	if err == nil && intel != nil && intel.Summary != "" {
		return intel, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Backend stock intelligence unavailable")
	}

	if s.gemini != nil {
		prompt := fmt.Sprintf("In two or three plain-language sentences, explain what "+
			"the company behind the stock ticker %s does and what a beginner should "+
			"know before following it. Do not give buy or sell advice.", symbol)
		text, err := s.gemini.GenerateContent(ctx, prompt)
		if err == nil && text != "" {
			return &models.StockIntelligence{
				Symbol:      symbol,
				Summary:     strings.TrimSpace(text),
				GeneratedAt: s.now(),
				Source:      "gemini",
			}, nil
		}
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Gemini intelligence fallback failed")
		}
	}

	return &models.StockIntelligence{
		Symbol:      symbol,
		Summary:     "Live commentary is unavailable right now. Check the quote and recent performance, and remember that paper trading is a safe place to practice.",
		GeneratedAt: s.now(),
		Source:      "static",
	}, nil
}

// TrendingStocks returns the trending feed, or a curated starter list when
// the backend is unreachable.
func (s *Service) TrendingStocks(ctx context.Context) ([]models.TrendingStock, error) {
	stocks, err := s.backend.GetTrendingStocks(ctx)
	if err == nil && len(stocks) > 0 {
		return stocks, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Backend trending feed unavailable, using starter list")
	}
	return starterStocks(), nil
}

// InternationalStocks returns region-scoped picks with a static fallback.
func (s *Service) InternationalStocks(ctx context.Context, region string) ([]models.TrendingStock, error) {
	stocks, err := s.backend.GetInternationalStocks(ctx, region)
	if err == nil && len(stocks) > 0 {
		return stocks, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("region", region).Msg("Backend international feed unavailable")
	}
	return internationalStarter(region), nil
}

// Chat continues the tutor conversation. Without a working Gemini client
// the tutor degrades to a polite offline message rather than an error.
func (s *Service) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	if s.gemini != nil {
		reply, err := s.gemini.Chat(ctx, history, message)
		if err == nil && reply != "" {
			return reply, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("Tutor chat failed")
		}
	}

	return offlineChatReply, nil
}

const offlineChatReply = "I'm offline right now, but keep exploring! Try a lesson on the learning map, or look up a company you know on the market page."

func staticBrief(now time.Time) *models.DailyBrief {
	return &models.DailyBrief{
		Headline:    "Markets at a Glance",
		Body:        "Live market commentary is unavailable right now. Prices on your dashboard still update as quotes come in. A good habit: check how your holdings moved and ask yourself why.",
		Sentiment:   "neutral",
		GeneratedAt: now,
		Source:      "static",
	}
}

func starterStocks() []models.TrendingStock {
	return []models.TrendingStock{
		{Symbol: "AAPL", Name: "Apple", Reason: "A household name most beginners recognize"},
		{Symbol: "MSFT", Name: "Microsoft", Reason: "Software and cloud computing giant"},
		{Symbol: "GOOGL", Name: "Alphabet", Reason: "Search, ads, and AI research"},
		{Symbol: "AMZN", Name: "Amazon", Reason: "E-commerce and cloud infrastructure"},
		{Symbol: "NVDA", Name: "NVIDIA", Reason: "Chips powering the AI boom"},
	}
}

func internationalStarter(region string) []models.TrendingStock {
	switch strings.ToLower(strings.TrimSpace(region)) {
	case "asia":
		return []models.TrendingStock{
			{Symbol: "TSM", Name: "Taiwan Semiconductor", Region: "asia", Reason: "World's largest chip manufacturer"},
			{Symbol: "SONY", Name: "Sony Group", Region: "asia", Reason: "Games, music, and imaging"},
			{Symbol: "BABA", Name: "Alibaba", Region: "asia", Reason: "Chinese e-commerce leader"},
		}
	case "europe":
		return []models.TrendingStock{
			{Symbol: "ASML", Name: "ASML", Region: "europe", Reason: "The machines behind every advanced chip"},
			{Symbol: "SAP", Name: "SAP", Region: "europe", Reason: "Business software used worldwide"},
			{Symbol: "NVO", Name: "Novo Nordisk", Region: "europe", Reason: "Danish pharmaceutical maker"},
		}
	default:
		return []models.TrendingStock{
			{Symbol: "TSM", Name: "Taiwan Semiconductor", Region: "asia", Reason: "World's largest chip manufacturer"},
			{Symbol: "ASML", Name: "ASML", Region: "europe", Reason: "The machines behind every advanced chip"},
			{Symbol: "SHOP", Name: "Shopify", Region: "americas", Reason: "Canadian e-commerce platform"},
		}
	}
}

// Ensure Service implements AdvisorService
var _ interfaces.AdvisorService = (*Service)(nil)
