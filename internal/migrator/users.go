package migrator

import (
	"context"
	"strings"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserMigrator ensures every referenced legacy account exists in the target
// CMS and is mapped.
type UserMigrator struct {
	svc      *mapping.Service
	provider source.Provider
	client   target.Client
	cfg      *config.MigrationConfig
	log      zerolog.Logger
}

// NewUserMigrator creates the user family migrator
func NewUserMigrator(svc *mapping.Service, provider source.Provider, client target.Client, cfg *config.MigrationConfig, log zerolog.Logger) *UserMigrator {
	return &UserMigrator{
		svc:      svc,
		provider: provider,
		client:   client,
		cfg:      cfg,
		log:      log.With().Str("family", string(models.FamilyUser)).Logger(),
	}
}

// Run migrates all source users. Per-record failures are logged and
// counted; the batch continues.
func (m *UserMigrator) Run(ctx context.Context) (models.RunCounts, error) {
	users, err := m.provider.Users(ctx)
	if err != nil {
		return models.RunCounts{}, err
	}

	counts := models.RunCounts{Total: len(users)}
	for _, user := range users {
		if ctx.Err() != nil {
			m.log.Info().Int("processed", counts.Processed).Msg("Migration cancelled")
			return counts, nil
		}
		counts.Processed++

		if m.svc.IsMigrated(models.FamilyUser, user.ID) {
			counts.Skipped++
			continue
		}
		if user.Email == "" {
			counts.Skipped++
			m.log.Warn().Int64("source_id", user.ID).Msg("User has no email, skipping")
			continue
		}

		targetID, err := m.findOrCreate(ctx, user)
		if err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("source_id", user.ID).Msg("Failed to migrate user")
			continue
		}

		if err := m.svc.RecordMapping(ctx, models.FamilyUser, user.ID, targetID, user.Name); err != nil {
			counts.Errors++
			m.log.Error().Err(err).Int64("source_id", user.ID).Msg("Failed to record user mapping")
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
		Msg("User migration completed")
	return counts, nil
}

// findOrCreate maps to an existing account with the same login rather than
// duplicating it.
func (m *UserMigrator) findOrCreate(ctx context.Context, user models.SourceUser) (int64, error) {
	login := loginFor(user)

	existing, err := m.client.FindUserByLogin(ctx, login)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	created, err := m.client.CreateUser(ctx, &models.TargetUser{
		Username: login,
		Email:    user.Email,
		Name:     user.Name,
		Password: uuid.NewString(),
	})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}

// loginFor derives the target login from the email local part.
func loginFor(user models.SourceUser) string {
	local := user.Email
	if at := strings.Index(local, "@"); at > 0 {
		local = local[:at]
	}
	return strings.ToLower(local)
}
