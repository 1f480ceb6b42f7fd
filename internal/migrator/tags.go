package migrator

import (
	"context"
	"sync"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// TagMigrator migrates the flat tag vocabulary. Tag creation has no
// cross-record dependency, so creates fan out under a bounded semaphore;
// mapping writes stay serialized behind a mutex.
type TagMigrator struct {
	svc      *mapping.Service
	provider source.Provider
	client   target.Client
	cfg      *config.MigrationConfig
	log      zerolog.Logger
}

// NewTagMigrator creates the tag family migrator
func NewTagMigrator(svc *mapping.Service, provider source.Provider, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *TagMigrator {
	return &TagMigrator{
		svc:      svc,
		provider: provider,
		client:   client,
		cfg:      cfg,
		log:      log.With().Str("family", string(models.FamilyTag)).Logger(),
	}
}

// Run migrates all tags with bounded concurrency.
func (m *TagMigrator) Run(ctx context.Context) (models.RunCounts, error) {
	nodes, err := m.provider.TermTree(ctx, source.VocabularyTag)
	if err != nil {
		return models.RunCounts{}, err
	}

	workers := m.cfg.TagWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	var wg sync.WaitGroup
	var mu sync.Mutex // guards counts and serializes mapping writes
	counts := models.RunCounts{Total: len(nodes)}
	cancelled := false

	for _, node := range nodes {
		if err := sem.Acquire(ctx, 1); err != nil {
			cancelled = true
			break
		}

		wg.Add(1)
		node := node
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if m.svc.IsMigrated(models.FamilyTag, node.ID) {
				mu.Lock()
				counts.Processed++
				counts.Skipped++
				mu.Unlock()
				return
			}

			targetID, err := m.findOrCreate(ctx, node)

			mu.Lock()
			defer mu.Unlock()
			counts.Processed++
			if err != nil {
				counts.Errors++
				m.log.Error().Err(err).Int64("term_id", node.ID).Str("name", node.Name).
					Msg("Failed to migrate tag")
				return
			}
			if err := m.svc.RecordMapping(ctx, models.FamilyTag, node.ID, targetID, node.Name); err != nil {
				counts.Errors++
				m.log.Error().Err(err).Int64("term_id", node.ID).Msg("Failed to record tag mapping")
				return
			}
			counts.Migrated++
			logProgress(m.log, m.cfg.ProgressEvery, counts.Processed, counts.Total)
		}()
	}

	wg.Wait()

	if cancelled {
		m.log.Info().Int("processed", counts.Processed).Msg("Migration cancelled")
		return counts, nil
	}

	m.log.Info().
		Int("processed", counts.Processed).
		Int("migrated", counts.Migrated).
		Int("skipped", counts.Skipped).
		Int("errors", counts.Errors).
		Msg("Tag migration completed")
	return counts, nil
}

func (m *TagMigrator) findOrCreate(ctx context.Context, node models.TermNode) (int64, error) {
	existing, err := m.client.FindTermByName(ctx, target.TaxonomyTags, node.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	created, err := m.client.CreateTerm(ctx, target.TaxonomyTags, &models.TargetTerm{Name: node.Name})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}
