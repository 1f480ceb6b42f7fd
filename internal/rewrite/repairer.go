package rewrite

import (
	"context"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// Repairer walks the migrated posts of one family and repairs the embedded
// file references in their bodies. It runs downstream of the entity
// migrators and is idempotent through the body-repaired flag.
type Repairer struct {
	svc      *mapping.Service
	provider source.Provider
	client   target.Client
	rewriter *Rewriter
	cfg      *config.MigrationConfig
	log      zerolog.Logger
}

// NewRepairer creates a reference repairer for migrated post bodies
func NewRepairer(svc *mapping.Service, provider source.Provider, client target.Client, rewriter *Rewriter, cfg *config.MigrationConfig, log zerolog.Logger) *Repairer {
	return &Repairer{
		svc:      svc,
		provider: provider,
		client:   client,
		rewriter: rewriter,
		cfg:      cfg,
		log:      log.With().Str("service", "repair").Logger(),
	}
}

// Run repairs every not-yet-repaired post of the family. Per-post failures
// are logged and counted; the pass continues with the next post.
func (p *Repairer) Run(ctx context.Context, family models.Family) (models.RunCounts, error) {
	log := p.log.With().Str("family", string(family)).Logger()

	entries, err := p.svc.EntriesFor(ctx, family)
	if err != nil {
		return models.RunCounts{}, err
	}

	postType := target.TypePosts
	if family == models.FamilyPage {
		postType = target.TypePages
	}

	counts := models.RunCounts{Total: len(entries)}
	for _, entry := range entries {
		if ctx.Err() != nil {
			log.Info().Int("processed", counts.Processed).Msg("Repair cancelled")
			return counts, nil
		}
		counts.Processed++

		if entry.BodyRepaired {
			counts.Skipped++
			continue
		}

		if err := p.repairPost(ctx, postType, entry); err != nil {
			counts.Errors++
			log.Error().Err(err).
				Int64("source_id", entry.SourceID).
				Int64("target_id", entry.TargetID).
				Msg("Failed to repair post body")
			continue
		}
		counts.Migrated++

		if p.cfg.ProgressEvery > 0 && counts.Processed%p.cfg.ProgressEvery == 0 {
			log.Info().Msgf("Repaired %d/%d (%.0f%%)",
				counts.Processed, counts.Total,
				float64(counts.Processed)/float64(counts.Total)*100)
		}
	}

	log.Info().
		Int("processed", counts.Processed).
		Int("repaired", counts.Migrated).
		Int("skipped", counts.Skipped).
		Int("errors", counts.Errors).
		Msg("Repair pass completed")
	return counts, nil
}

func (p *Repairer) repairPost(ctx context.Context, postType string, entry models.MappingEntry) error {
	files, err := p.provider.FilesFor(ctx, entry.SourceID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return p.svc.MarkBodyRepaired(ctx, entry.Family, entry.SourceID)
	}

	post, err := p.client.GetPost(ctx, postType, entry.TargetID)
	if err != nil {
		return err
	}

	repaired, err := p.rewriter.RepairBody(ctx, post.Content, files)
	if err != nil {
		return err
	}

	// Write back once per post, and only when something actually changed.
	if repaired != post.Content {
		if err := p.client.UpdatePostBody(ctx, postType, entry.TargetID, repaired); err != nil {
			return err
		}
	}
	return p.svc.MarkBodyRepaired(ctx, entry.Family, entry.SourceID)
}
