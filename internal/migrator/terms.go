package migrator

import (
	"context"
	"sort"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// TermMigrator migrates one taxonomy vocabulary. Categories form a tree and
// must be created parent before child; regions are flat.
type TermMigrator struct {
	svc      *mapping.Service
	provider source.Provider
	client   target.Client
	cfg      *config.MigrationConfig
	log      zerolog.Logger

	family       models.Family
	vocabulary   string
	taxonomy     string
	hierarchical bool
}

// NewCategoryMigrator creates the category tree migrator
func NewCategoryMigrator(svc *mapping.Service, provider source.Provider, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *TermMigrator {
	return &TermMigrator{
		svc:          svc,
		provider:     provider,
		client:       client,
		cfg:          cfg,
		log:          log.With().Str("family", string(models.FamilyCategory)).Logger(),
		family:       models.FamilyCategory,
		vocabulary:   source.VocabularyCategory,
		taxonomy:     target.TaxonomyCategories,
		hierarchical: true,
	}
}

// NewRegionMigrator creates the flat region vocabulary migrator
func NewRegionMigrator(svc *mapping.Service, provider source.Provider, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *TermMigrator {
	return &TermMigrator{
		svc:        svc,
		provider:   provider,
		client:     client,
		cfg:        cfg,
		log:        log.With().Str("family", string(models.FamilyRegion)).Logger(),
		family:     models.FamilyRegion,
		vocabulary: source.VocabularyRegion,
		taxonomy:   target.TaxonomyRegions,
	}
}

// Run migrates the vocabulary. For a hierarchical vocabulary a child is
// never created before its parent's mapping exists.
func (m *TermMigrator) Run(ctx context.Context) (models.RunCounts, error) {
	nodes, err := m.provider.TermTree(ctx, m.vocabulary)
	if err != nil {
		return models.RunCounts{}, err
	}

	ordered := nodes
	if m.hierarchical {
		var orphans []models.TermNode
		ordered, orphans = orderTree(nodes)
		for _, o := range orphans {
			m.log.Warn().
				Int64("term_id", o.ID).
				Int64("parent_id", o.ParentID).
				Str("name", o.Name).
				Msg("Term parent not in tree, skipping")
		}
	}

	counts := models.RunCounts{Total: len(nodes)}
	for _, node := range ordered {
		if ctx.Err() != nil {
			m.log.Info().Int("processed", counts.Processed).Msg("Migration cancelled")
			return counts, nil
		}
		counts.Processed++

		if m.svc.IsMigrated(m.family, node.ID) {
			counts.Skipped++
			continue
		}

		targetID, err := m.findOrCreate(ctx, node)
		if err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("term_id", node.ID).Str("name", node.Name).
				Msg("Failed to migrate term")
			continue
		}

		if err := m.svc.RecordMapping(ctx, m.family, node.ID, targetID, node.Name); err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("term_id", node.ID).Msg("Failed to record term mapping")
			continue
		}
		counts.Migrated++
		logProgress(m.log, m.cfg.ProgressEvery, counts.Processed, counts.Total)
	}

	// Orphans were never visited, so they count only once the loop ran out.
	counts.Processed += len(nodes) - len(ordered)
	counts.Skipped += len(nodes) - len(ordered)

	m.log.Info().
		Int("processed", counts.Processed).
		Int("migrated", counts.Migrated).
		Int("skipped", counts.Skipped).
		Int("errors", counts.Errors).
		Msg("Term migration completed")
	return counts, nil
}

// findOrCreate checks the target by name first (case-insensitive) and maps
// an existing term instead of creating a duplicate.
func (m *TermMigrator) findOrCreate(ctx context.Context, node models.TermNode) (int64, error) {
	existing, err := m.client.FindTermByName(ctx, m.taxonomy, node.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	term := &models.TargetTerm{Name: node.Name}
	if m.hierarchical && node.ParentID != 0 {
		if parentID, ok := m.svc.TargetID(m.family, node.ParentID); ok {
			term.Parent = parentID
		} else {
			m.log.Warn().
				Int64("term_id", node.ID).
				Int64("parent_id", node.ParentID).
				Msg("Parent term unmapped, creating at root")
		}
	}

	created, err := m.client.CreateTerm(ctx, m.taxonomy, term)
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// orderTree flattens the term tree parent-before-child: depth-first from
// the root, siblings ordered by (weight, name). Nodes whose parent never
// becomes processable are returned separately.
func orderTree(nodes []models.TermNode) (ordered, orphans []models.TermNode) {
	children := make(map[int64][]models.TermNode)
	for _, n := range nodes {
		children[n.ParentID] = append(children[n.ParentID], n)
	}
	for _, siblings := range children {
		sort.Slice(siblings, func(i, j int) bool {
			if siblings[i].Weight != siblings[j].Weight {
				return siblings[i].Weight < siblings[j].Weight
			}
			return siblings[i].Name < siblings[j].Name
		})
	}

	visited := make(map[int64]bool, len(nodes))
	var walk func(parent int64)
	walk = func(parent int64) {
		for _, n := range children[parent] {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			ordered = append(ordered, n)
			walk(n.ID)
		}
	}
	walk(0)

	for _, n := range nodes {
		if !visited[n.ID] {
			orphans = append(orphans, n)
		}
	}
	return ordered, orphans
}
