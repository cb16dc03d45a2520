package factory

import (
	"fmt"
	"time"

	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates the optional language model event extractor
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEventExtractor returns nil when no provider is configured
func (f *LLMFactory) CreateEventExtractor(loc *time.Location) (core.EventExtractor, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "", "none":
		return nil, nil
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger, f.textProcessor).CreateEventExtractor(loc)
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger, f.textProcessor).CreateEventExtractor(loc)
	case "openai":
		return NewOpenAIFactory(f.cfg, f.logger, f.textProcessor).CreateEventExtractor(loc)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
