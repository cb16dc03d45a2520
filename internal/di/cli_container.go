package di

import (
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/shortlist-watcher/internal/attachments"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/logging"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"github.com/mikey/shortlist-watcher/internal/state"
	"github.com/mikey/shortlist-watcher/internal/whitelist"
)

// CLIFlags contains the command line flags of the match-check CLI
type CLIFlags struct {
	// Profile flags; each overrides the profile file when set
	Name               string
	RegistrationNumber string
	Emails             []string
	ProfileFile        string

	// Matching flags
	Threshold      float64
	NoEmailSignals bool
	Trusted        []string
	GateAttachment bool

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register profile
	if err := container.Provide(func(flags *CLIFlags, cfg *config.Config, logger *zap.Logger) (core.Profile, error) {
		path := flags.ProfileFile
		if path == "" {
			path = cfg.GetStorage().ProfileFile
		}
		p, err := state.NewJSONProfileStore(path, logger).Load()
		if err != nil {
			return core.Profile{}, err
		}
		return applyProfileFlags(p, flags), nil
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
		return attachments.NewScanner(c, logger)
	}); err != nil {
		return nil, err
	}

	// Register evaluator; with no trusted senders every sender is trusted
	if err := container.Provide(func(cfg *config.Config, c *match.Classifier, s *attachments.Scanner, logger *zap.Logger) (*pipeline.Evaluator, error) {
		w, err := cfg.GetWatcher()
		if err != nil {
			return nil, err
		}
		var trusted *whitelist.Checker
		if len(w.TrustedSenders) > 0 {
			trusted = whitelist.NewChecker(w.TrustedSenders, logger)
		}
		return pipeline.NewEvaluator(c, s, trusted, w.AllowlistGatesAttachments, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	if flags.Threshold > 0 {
		v.Set("match.name_overlap_threshold", flags.Threshold)
	}
	v.Set("match.email_signals", !flags.NoEmailSignals)
	v.Set("watcher.trusted_senders", flags.Trusted)
	v.Set("watcher.allowlist_gates_attachments", flags.GateAttachment)
	if flags.ProfileFile != "" {
		v.Set("storage.profile_file", flags.ProfileFile)
	}

	return config.NewFromViper(v)
}

func applyProfileFlags(p core.Profile, flags *CLIFlags) core.Profile {
	if flags.Name != "" {
		p.Name = strings.TrimSpace(flags.Name)
	}
	if flags.RegistrationNumber != "" {
		p.RegistrationNumber = strings.TrimSpace(flags.RegistrationNumber)
	}
	if len(flags.Emails) > 0 {
		p.PrimaryEmail = flags.Emails[0]
		if len(flags.Emails) > 1 {
			p.SecondaryEmail = flags.Emails[1]
		}
	}
	return p
}
