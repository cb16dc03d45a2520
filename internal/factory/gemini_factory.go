package factory

import (
	"fmt"
	"time"

	"github.com/mikey/shortlist-watcher/internal/adapters/gemini"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
)

// GeminiFactory creates Gemini event extractors
type GeminiFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *GeminiFactory {
	return &GeminiFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEventExtractor creates a Gemini event extractor
func (f *GeminiFactory) CreateEventExtractor(loc *time.Location) (core.EventExtractor, error) {
	geminiCfg := f.cfg.GetGemini()

	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	extractor, err := gemini.NewEventExtractor(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		loc,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		return nil, err
	}
	return extractor, nil
}
