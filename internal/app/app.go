package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"kbwatch/internal/canonical"
	"kbwatch/internal/config"
	"kbwatch/internal/database"
	"kbwatch/internal/fetch"
	"kbwatch/internal/model"
	"kbwatch/internal/schema"
	"kbwatch/internal/seed"
	"kbwatch/internal/snapshot"
	"kbwatch/internal/watch"
)

// defaultCKANAPIURL is the package_show endpoint used when a datagov
// source does not override ckan_api_url.
const defaultCKANAPIURL = "https://data.gov.au/api/3/action/package_show"

// WatchApp is the application layer between the CLI and WatchService.
// It constructs all dependencies from config, exposes high-level operations
// keyed by source ID, and manages the DB lifecycle on Close.
type WatchApp struct {
	cfg     *config.Config
	repo    *database.SQLiteRepository
	store   watch.SnapshotStore
	service *watch.WatchService
	log     watch.Logger
	op      *WatchOperation
	logFile *os.File
}

// SourceResult pairs a source ID with the outcome of its watch run, so
// WatchAll can report per-source results without stopping at the first
// failed fetch.
type SourceResult struct {
	SourceID string
	Result   *watch.RunResult
	Err      error
}

// NewWatchApp creates a fully wired WatchApp from the given config.
// operation identifies the CLI command being run (e.g. "Watch", "SeedLoad").
// The caller must call Close when done.
func NewWatchApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*WatchApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := database.NewRepositoryFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating repository: %w", err)
	}

	if err := repo.CheckMigrations(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	store, err := snapshot.NewStoreFromConfig(ctx, cfg.Snapshots)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	fetcher := fetch.NewHTTPFetcher(time.Duration(cfg.HTTP.TimeoutSec)*time.Second, cfg.HTTP.UserAgent)
	adapted := &slogAdapter{l: logger}
	svc := watch.NewWatchService(repo, fetcher, store, adapted, watch.RealClock{}, watch.UUIDGenerator{})
	op := NewWatchOperation(operation, parameters)

	return &WatchApp{
		cfg:     cfg,
		repo:    repo,
		store:   store,
		service: svc,
		log:     adapted,
		op:      op,
		logFile: logFile,
	}, nil
}

// persistOperation saves the watch run to the database, giving it an
// auto-increment ID. This should only be called for DB-mutating commands.
func (a *WatchApp) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	run, err := a.repo.CreateWatchRun(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting watch run: %w", err)
	}
	a.op.ID = run.ID
	return nil
}

// buildSource turns a configured source into a runnable watch.Source,
// wiring the family's fetch locator, normalizer, and summary style.
func buildSource(sc *config.SourceConfig) (watch.Source, error) {
	src := watch.Source{
		ID:           sc.ID,
		Type:         sc.SourceType,
		Title:        sc.Title,
		URL:          sc.CanonicalURL,
		CanonicalURL: sc.CanonicalURL,
	}

	switch sc.Family {
	case "frl":
		title := sc.Title
		src.UpdateChangeType = model.ChangeTypeTextChange
		src.Summary = func(map[string]any) string {
			return fmt.Sprintf("Legislation register change detected for %s.", title)
		}
	case "datagov":
		apiURL := sc.CKANAPIURL
		if apiURL == "" {
			apiURL = defaultCKANAPIURL
		}
		src.URL = fetch.CKANPackageURL(apiURL, sc.DatasetID)
		src.Normalize = canonical.CKANMetadata
		src.UpdateChangeType = model.ChangeTypeDatasetUpdate
		src.Summary = func(meta map[string]any) string {
			return fmt.Sprintf("data.gov.au dataset changed: %v. metadata_modified=%v.",
				meta["dataset_id"], meta["metadata_modified"])
		}
	case "homeaffairs":
		title := sc.Title
		src.Normalize = canonical.HTMLSections
		src.UpdateChangeType = model.ChangeTypeTextChange
		src.Summary = func(map[string]any) string {
			return fmt.Sprintf("Home Affairs change detected for %s.", title)
		}
	default:
		return watch.Source{}, fmt.Errorf("source %s: unknown family: %s (valid: frl, datagov, homeaffairs)", sc.ID, sc.Family)
	}

	return src, nil
}

// WatchSource runs one watch cycle for the configured source with the given ID.
func (a *WatchApp) WatchSource(ctx context.Context, id string) (*watch.RunResult, error) {
	sc, err := a.cfg.Source(id)
	if err != nil {
		return nil, err
	}
	src, err := buildSource(sc)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	res, err := a.service.Run(ctx, src)
	if err != nil {
		a.op.Status = "error"
		return nil, err
	}
	return res, nil
}

// WatchAll runs a watch cycle for every configured source. A failed source
// does not stop the sweep; per-source errors are carried in the results.
func (a *WatchApp) WatchAll(ctx context.Context) ([]SourceResult, error) {
	if len(a.cfg.Sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	results := make([]SourceResult, 0, len(a.cfg.Sources))
	for i := range a.cfg.Sources {
		sc := &a.cfg.Sources[i]
		src, err := buildSource(sc)
		if err != nil {
			a.op.Status = "error"
			results = append(results, SourceResult{SourceID: sc.ID, Err: err})
			continue
		}
		res, err := a.service.Run(ctx, src)
		if err != nil {
			a.op.Status = "error"
			results = append(results, SourceResult{SourceID: sc.ID, Err: err})
			continue
		}
		results = append(results, SourceResult{SourceID: sc.ID, Result: res})
	}
	return results, nil
}

// SeedLoad validates and upserts the knowledge base seed files from the
// configured seed directory. In dry-run mode nothing is written.
func (a *WatchApp) SeedLoad(dryRun bool) (*seed.Result, error) {
	if a.cfg.Seed.Dir == "" {
		return nil, fmt.Errorf("seed dir not configured")
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("compiling seed schemas: %w", err)
	}
	if !dryRun {
		if err := a.persistOperation(); err != nil {
			return nil, err
		}
	}
	loader := seed.NewLoader(a.repo, validator, a.log, dryRun)
	res, err := loader.Load(a.cfg.Seed.Dir)
	if err != nil {
		a.op.Status = "error"
		return nil, err
	}
	return res, nil
}

// GetHistory returns the most recent watch runs.
func (a *WatchApp) GetHistory(limit int) ([]*model.WatchRun, error) {
	return a.repo.ListWatchRuns(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations the run record is stamped with its final status.
func (a *WatchApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.repo.FinishWatchRun(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing watch run: %w", err)
		}
	}

	if err := a.repo.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing repository: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
