// Package backend selects and wires the ledger store implementation.
package backend

import (
	"context"
	"fmt"

	applog "lancamentos/internal/log"
	"lancamentos/internal/sheets/excel"
	"lancamentos/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a backend factory.
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentBackend})
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case ExcelBackend:
		return f.createExcelBackend(config)
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &Result{Backend: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createExcelBackend(config Config) (*Result, error) {
	if config.LedgerFile == "" {
		return nil, fmt.Errorf("ledger file path is required for the excel backend")
	}
	store := excel.New(config.LedgerFile, config.SheetName, f.logger)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initialize ledger file: %w", err)
	}
	f.logger.Info("Initialized excel backend",
		applog.FieldFile, config.LedgerFile,
		applog.FieldSheet, config.SheetName)
	return &Result{Backend: store}, nil
}
