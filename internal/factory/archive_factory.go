package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/shortlist-watcher/internal/adapters/archive"
	"github.com/mikey/shortlist-watcher/internal/config"
	"go.uber.org/zap"
)

// ArchiveFactory creates match archives based on configuration
type ArchiveFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewArchiveFactory creates a new archive factory
func NewArchiveFactory(cfg *config.Config, logger *zap.Logger) *ArchiveFactory {
	return &ArchiveFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMatchArchive creates a match archive based on the configuration
func (f *ArchiveFactory) CreateMatchArchive() (archive.Archive, error) {
	archiveCfg, err := f.cfg.GetArchive()
	if err != nil {
		return nil, err
	}
	logger := f.logger.Named("archive")

	f.logger.Info("Creating match archive", zap.String("type", archiveCfg.Type))
	switch archiveCfg.Type {
	case "file", "":
		a, err := archive.NewFileArchive(archiveCfg.DataDir, archiveCfg.Retention, archiveCfg.CleanupFrequency, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "memory":
		return archive.NewMemoryArchive(archiveCfg.Retention, archiveCfg.CleanupFrequency, logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(archiveCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		a, err := archive.NewSQLiteArchive(archiveCfg.SQLitePath, archiveCfg.Retention, archiveCfg.CleanupFrequency, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "mysql":
		a, err := archive.NewMySQLArchive(archiveCfg.MySQLDSN, archiveCfg.Retention, archiveCfg.CleanupFrequency, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", archiveCfg.Type)
	}
}
