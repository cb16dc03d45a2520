package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/shortlist-watcher/internal/adapters/archive"
	"github.com/mikey/shortlist-watcher/internal/attachments"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/factory"
	"github.com/mikey/shortlist-watcher/internal/httpapi"
	"github.com/mikey/shortlist-watcher/internal/logging"
	"github.com/mikey/shortlist-watcher/internal/logstream"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/mikey/shortlist-watcher/internal/metrics"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"github.com/mikey/shortlist-watcher/internal/ports"
	"github.com/mikey/shortlist-watcher/internal/runner"
	"github.com/mikey/shortlist-watcher/internal/state"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"github.com/mikey/shortlist-watcher/internal/whitelist"
)

// Optional side-effect collaborators; either may be nil
type sideEffects struct {
	dig.Out

	Calendar core.CalendarClient
	Notifier core.Notifier
}

type serviceParams struct {
	dig.In

	Config    *config.Config
	Mail      core.MailClient
	Profiles  core.ProfileStore
	State     core.StateStore
	Archive   archive.Archive
	Calendar  core.CalendarClient
	Notifier  core.Notifier
	Evaluator *pipeline.Evaluator
	Metrics   *metrics.Metrics
	Text      *utils.TextProcessor
	Notify    *factory.NotifierFactory
	Logger    *zap.Logger
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(ctx context.Context) (*dig.Container, error) {
	return BuildContainerWithConfig(ctx, config.New)
}

// BuildContainerWithConfig is BuildContainer with a custom configuration constructor
func BuildContainerWithConfig(ctx context.Context, newConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(newConfig); err != nil {
		return nil, err
	}

	// Register log stream and logger
	if err := container.Provide(func(cfg *config.Config) *logstream.Stream {
		return logstream.New(cfg.GetInt("logstream.capacity"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}
	if err := container.Provide(metrics.NewMetrics); err != nil {
		return nil, err
	}

	// Register factories
	for _, ctor := range []interface{}{
		factory.NewTextProcessorFactory,
		factory.NewLLMFactory,
		factory.NewGoogleFactory,
		factory.NewMailFactory,
		factory.NewArchiveFactory,
		factory.NewCalendarFactory,
		factory.NewNotifierFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return nil, err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register mail client
	if err := container.Provide(func(f *factory.MailFactory) (core.MailClient, error) {
		return f.CreateMailClient(ctx)
	}); err != nil {
		return nil, err
	}

	// Register stores
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.StateStore {
		return state.NewJSONStore(cfg.GetStorage().StateFile, logger.Named("state"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ProfileStore {
		return state.NewJSONProfileStore(cfg.GetStorage().ProfileFile, logger.Named("profile"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ArchiveFactory) (archive.Archive, error) {
		return f.CreateMatchArchive()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(a archive.Archive) ports.ArchiveReader {
		return a
	}); err != nil {
		return nil, err
	}

	// Register side effects
	if err := container.Provide(func(cal *factory.CalendarFactory, notify *factory.NotifierFactory) (sideEffects, error) {
		calendar, err := cal.CreateCalendarClient(ctx)
		if err != nil {
			return sideEffects{}, err
		}
		notifier, err := notify.CreateNotifier()
		if err != nil {
			return sideEffects{}, err
		}
		return sideEffects{Calendar: calendar, Notifier: notifier}, nil
	}); err != nil {
		return nil, err
	}

	// Register classification
	if err := container.Provide(func(cfg *config.Config) *match.Classifier {
		m := cfg.GetMatch()
		return match.NewClassifier(m.EmailSignals, m.NameOverlapThreshold)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *match.Classifier, logger *zap.Logger) *attachments.Scanner {
		return attachments.NewScanner(c, logger.Named("attachments"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*whitelist.Checker, error) {
		w, err := cfg.GetWatcher()
		if err != nil {
			return nil, err
		}
		return whitelist.NewChecker(w.TrustedSenders, logger), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, c *match.Classifier, s *attachments.Scanner, w *whitelist.Checker, logger *zap.Logger) (*pipeline.Evaluator, error) {
		wc, err := cfg.GetWatcher()
		if err != nil {
			return nil, err
		}
		return pipeline.NewEvaluator(c, s, w, wc.AllowlistGatesAttachments, logger.Named("evaluator")), nil
	}); err != nil {
		return nil, err
	}

	// Register match service
	if err := container.Provide(newMatchService); err != nil {
		return nil, err
	}

	// Register runner
	if err := container.Provide(func(cfg *config.Config, svc *pipeline.MatchService, m *metrics.Metrics, logger *zap.Logger) (*runner.Runner, error) {
		w, err := cfg.GetWatcher()
		if err != nil {
			return nil, err
		}
		return runner.New(svc, runner.Options{
			Interval:          w.PollInterval,
			MaxBackoff:        w.MaxBackoff,
			BackoffMultiplier: w.BackoffMultiplier,
		}, m, logger.Named("runner")), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(r *runner.Runner) ports.Watcher {
		return r
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		w ports.Watcher,
		stream *logstream.Stream,
		st core.StateStore,
		profiles core.ProfileStore,
		archiveReader ports.ArchiveReader,
		logger *zap.Logger,
	) (*httpapi.Server, error) {
		return httpapi.NewServer(httpapi.Dependencies{
			Watcher:  w,
			Stream:   stream,
			State:    st,
			Profiles: profiles,
			Archive:  archiveReader,
		}, logger.Named("http"), &httpapi.Config{ListenAddress: cfg.GetServer().ListenAddress})
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func newMatchService(p serviceParams) (*pipeline.MatchService, error) {
	calCfg, err := p.Config.GetCalendar()
	if err != nil {
		return nil, err
	}
	return pipeline.NewMatchService(pipeline.Dependencies{
		Mail:      p.Mail,
		Profiles:  p.Profiles,
		State:     p.State,
		Archive:   p.Archive,
		Calendar:  p.Calendar,
		Notifier:  p.Notifier,
		Evaluator: p.Evaluator,
		Metrics:   p.Metrics,
		Text:      p.Text,
		Logger:    p.Logger.Named("pipeline"),
	}, pipeline.Options{
		Retention:        p.Config.GetStorage().Retention,
		PreviewSize:      p.Config.GetMatch().BodyPreviewSize,
		RequireKeyword:   calCfg.RequireKeyword,
		Keywords:         calCfg.Keywords,
		NotifyMinVerdict: p.Notify.MinVerdict(),
	})
}
