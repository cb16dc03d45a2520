package factory

import (
	"context"
	"fmt"

	"github.com/mikey/shortlist-watcher/internal/adapters/gcal"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/eventinfo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CalendarFactory creates the calendar client and its event detail extractor
type CalendarFactory struct {
	cfg    *config.Config
	google *GoogleFactory
	llm    *LLMFactory
	logger *zap.Logger
}

// NewCalendarFactory creates a new calendar factory
func NewCalendarFactory(cfg *config.Config, google *GoogleFactory, llm *LLMFactory, logger *zap.Logger) *CalendarFactory {
	return &CalendarFactory{
		cfg:    cfg,
		google: google,
		llm:    llm,
		logger: logger,
	}
}

// CreateExtractor builds the event detail extractor with the optional LLM fallback
func (f *CalendarFactory) CreateExtractor() (*eventinfo.Extractor, error) {
	calCfg, err := f.cfg.GetCalendar()
	if err != nil {
		return nil, err
	}
	loc, err := f.cfg.GetLocation()
	if err != nil {
		return nil, err
	}

	fallback, err := f.llm.CreateEventExtractor(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM fallback: %w", err)
	}
	var limiter *rate.Limiter
	if fallback != nil {
		llmCfg := f.cfg.GetLLM()
		burst := llmCfg.Burst
		if burst < 1 {
			burst = 1
		}
		limit := rate.Inf
		if llmCfg.RateLimit > 0 {
			limit = rate.Limit(llmCfg.RateLimit)
		}
		limiter = rate.NewLimiter(limit, burst)
	}

	halls := eventinfo.DefaultHalls()
	if len(calCfg.Halls) > 0 {
		halls = eventinfo.PlacesFromMap(calCfg.Halls)
	}
	blocks := eventinfo.DefaultBlocks()
	if len(calCfg.Blocks) > 0 {
		blocks = eventinfo.PlacesFromMap(calCfg.Blocks)
	}

	return eventinfo.NewExtractor(loc, halls, blocks, fallback, limiter, f.logger.Named("eventinfo")), nil
}

// CreateCalendarClient returns nil when the calendar is disabled
func (f *CalendarFactory) CreateCalendarClient(ctx context.Context) (core.CalendarClient, error) {
	calCfg, err := f.cfg.GetCalendar()
	if err != nil {
		return nil, err
	}
	if !calCfg.Enabled {
		f.logger.Info("Calendar integration disabled")
		return nil, nil
	}

	extractor, err := f.CreateExtractor()
	if err != nil {
		return nil, err
	}
	httpClient, err := f.google.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
	}
	client, err := gcal.NewClient(ctx, httpClient, calCfg.CalendarID, calCfg.EventDuration, extractor, f.logger.Named("calendar"))
	if err != nil {
		return nil, err
	}
	return client, nil
}
