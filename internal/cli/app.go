// Package cli implements the interactive harvesting shell: paste URLs, add
// files from disk, and manage the resulting content list.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/avoronov/harvest/internal/config"
	"github.com/avoronov/harvest/internal/engine"
	"github.com/avoronov/harvest/internal/liststate"
	"github.com/avoronov/harvest/internal/logging"
	"github.com/avoronov/harvest/internal/store/postgres"
	s3store "github.com/avoronov/harvest/internal/store/s3"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	records *postgres.RecordStore
	state   *liststate.State
	engine  *engine.Engine
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr).With("collection", c.CollectionName)

	records, err := postgres.Open(ctx, c.DatabaseDSN, c.CollectionName)
	if err != nil {
		return nil, err
	}

	blobs := s3store.New(s3store.Options{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		PathPrefix:   c.BlobPathPrefix,
	})

	state := liststate.New(records, logger, c.PageSize)
	eng := engine.New(records, blobs, state, engine.Options{
		URLRules:        c.URLRules.Validation(),
		FileRules:       c.FileRules.Validation(),
		ProcessingDelay: c.ProcessingDelay,
	}, logger)

	return &App{
		config:  c,
		logger:  logger,
		records: records,
		state:   state,
		engine:  eng,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer a.engine.Close()
	defer func() { _ = a.records.Close() }()

	if a.config.AutoRefreshInterval > 0 {
		go a.state.StartAutoRefresh(ctx, a.config.AutoRefreshInterval)
	}

	if err := a.state.Refresh(ctx, queryAll()); err != nil {
		a.logger.Warn(ctx, "initial refresh failed", "error", err)
	}

	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
}
