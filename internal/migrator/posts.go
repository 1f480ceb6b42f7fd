package migrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

// source-id backlink written on every migrated post
const metaSourceID = "_migrated_source_id"

// familyDesc is the per-family variation of the shared post loop: which
// endpoint, which default category is force-included, how a record becomes
// a payload, and what runs after the create.
type familyDesc struct {
	family       models.Family
	postType     string
	categoryName string // ensured in the target, force-included on every post
	transform    func(m *PostMigrator, rec *models.SourceRecord, defaultCategory int64) *models.TargetPost
	afterCreate  func(ctx context.Context, m *PostMigrator, rec *models.SourceRecord, created *models.TargetRecord) error
}

// PostMigrator drives one post family through the migrate loop.
type PostMigrator struct {
	svc      *mapping.Service
	provider source.Provider
	client   target.Client
	meta     target.Meta
	resolver *media.Resolver
	cfg      *config.MigrationConfig
	log      zerolog.Logger
	desc     familyDesc
}

func newPostMigrator(svc *mapping.Service, provider source.Provider, client target.Client, meta target.Meta, resolver *media.Resolver, cfg *config.MigrationConfig, log zerolog.Logger, desc familyDesc) *PostMigrator {
	return &PostMigrator{
		svc:      svc,
		provider: provider,
		client:   client,
		meta:     meta,
		resolver: resolver,
		cfg:      cfg,
		log:      log.With().Str("family", string(desc.family)).Logger(),
		desc:     desc,
	}
}

// Run migrates every source record of the family. Setup failures (fetching
// the batch, ensuring the default category) abort the run; per-record
// failures are logged, counted and skipped.
func (m *PostMigrator) Run(ctx context.Context) (models.RunCounts, error) {
	records, err := m.provider.Records(ctx, m.desc.family)
	if err != nil {
		return models.RunCounts{}, err
	}

	defaultCategory, err := m.ensureDefaultCategory(ctx)
	if err != nil {
		return models.RunCounts{}, fmt.Errorf("failed to ensure default category: %w", err)
	}

	counts := models.RunCounts{Total: len(records)}
	for i := range records {
		rec := &records[i]
		if ctx.Err() != nil {
			m.log.Info().Int("processed", counts.Processed).Msg("Migration cancelled")
			return counts, nil
		}
		counts.Processed++

		if m.svc.IsMigrated(m.desc.family, rec.ID) {
			counts.Skipped++
			continue
		}
		if rec.Title == "" || rec.Body == "" {
			counts.Skipped++
			m.log.Warn().Int64("source_id", rec.ID).Msg("Record missing title or body, skipping")
			continue
		}

		post := m.desc.transform(m, rec, defaultCategory)
		created, err := m.client.CreatePost(ctx, m.desc.postType, post)
		if err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("source_id", rec.ID).Msg("Failed to create post")
			continue
		}

		m.applySideEffects(ctx, rec, created)

		if err := m.svc.RecordMapping(ctx, m.desc.family, rec.ID, created.ID, rec.Title); err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("source_id", rec.ID).Msg("Failed to record post mapping")
			continue
		}
		counts.Migrated++
		logProgress(m.log, m.cfg.ProgressEvery, counts.Processed, counts.Total)
	}

	m.log.Info().
		Int("processed", counts.Processed).
		Int("migrated", counts.Migrated).
		Int("skipped", counts.Skipped).
		Int("errors", counts.Errors).
		Msg("Post migration completed")
	return counts, nil
}

// ensureDefaultCategory resolves the family's forced category, creating it
// in the target when absent. Without a configured name the globally
// configured default category id is used as-is.
func (m *PostMigrator) ensureDefaultCategory(ctx context.Context) (int64, error) {
	if m.desc.categoryName == "" {
		return m.cfg.DefaultCategoryID, nil
	}
	existing, err := m.client.FindTermByName(ctx, target.TaxonomyCategories, m.desc.categoryName)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	created, err := m.client.CreateTerm(ctx, target.TaxonomyCategories, &models.TargetTerm{Name: m.desc.categoryName})
	if err != nil {
		return 0, err
	}
	m.log.Info().Str("name", m.desc.categoryName).Int64("id", created.ID).
		Msg("Created default category")
	return created.ID, nil
}

// applySideEffects attaches the featured image, writes the source backlink
// and runs the family hook. Side-effect failures do not fail the record.
func (m *PostMigrator) applySideEffects(ctx context.Context, rec *models.SourceRecord, created *models.TargetRecord) {
	if featured := rec.FeaturedFile(); featured != nil {
		mediaID, err := m.resolver.Resolve(ctx, *featured)
		switch {
		case err != nil:
			m.log.Warn().Err(err).Int64("source_id", rec.ID).Msg("Failed to resolve featured image")
		case mediaID != media.NoMedia:
			if err := m.meta.SetThumbnail(ctx, created.ID, mediaID); err != nil {
				m.log.Warn().Err(err).Int64("source_id", rec.ID).Msg("Failed to set thumbnail")
			}
		}
	}

	if err := m.meta.SetCustomField(ctx, created.ID, metaSourceID, fmt.Sprintf("%d", rec.ID)); err != nil {
		m.log.Warn().Err(err).Int64("source_id", rec.ID).Msg("Failed to write source id backlink")
	}

	if m.desc.afterCreate != nil {
		if err := m.desc.afterCreate(ctx, m, rec, created); err != nil {
			m.log.Warn().Err(err).Int64("source_id", rec.ID).Msg("Post-create hook failed")
		}
	}
}

// basePost builds the common payload: translated author, translated
// category/tag lists with the forced default category, and the composed
// body.
func basePost(m *PostMigrator, rec *models.SourceRecord, defaultCategory int64) *models.TargetPost {
	categories := m.svc.TranslateIDs(models.FamilyCategory, rec.CategoryIDs)
	if defaultCategory > 0 && !containsID(categories, defaultCategory) {
		categories = append(categories, defaultCategory)
	}

	status := "draft"
	if rec.Published {
		status = "publish"
	}

	return &models.TargetPost{
		Title:      rec.Title,
		Content:    composeBody(rec),
		Excerpt:    rec.Summary,
		Status:     status,
		Author:     m.svc.TranslateUserID(rec.AuthorID),
		Date:       rec.Created.Format("2006-01-02T15:04:05"),
		Categories: categories,
		Tags:       m.svc.TranslateIDs(models.FamilyTag, rec.TagIDs),
	}
}

// composeBody prepends the supplementary blocks ahead of the main body:
// kicker first, then the subtitle block, then the body itself.
func composeBody(rec *models.SourceRecord) string {
	var b strings.Builder
	if rec.Kicker != "" {
		b.WriteString(`<div class="post-kicker">`)
		b.WriteString(rec.Kicker)
		b.WriteString("</div>\n")
	}
	if rec.Summary != "" {
		b.WriteString(`<div class="post-standfirst">`)
		b.WriteString(rec.Summary)
		b.WriteString("</div>\n")
	}
	b.WriteString(rec.Body)
	return b.String()
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
