package migrator_test

import (
	"context"
	"testing"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/mocks"
	"github.com/cms-content-migrator/internal/models"
	"github.com/rs/zerolog"
)

// fixture bundles the mocked collaborators every migrator test needs.
type fixture struct {
	store    *mocks.MockStore
	provider *mocks.MockProvider
	client   *mocks.MockTargetClient
	meta     *mocks.MockMeta
	svc      *mapping.Service
	resolver *media.Resolver
	cfg      *config.MigrationConfig
	log      zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := mocks.NewMockStore()
	cfg := &config.MigrationConfig{DefaultAuthorID: 1, TagWorkers: 4}
	svc := mapping.NewService(store, cfg, zerolog.Nop())
	client := mocks.NewMockTargetClient()
	return &fixture{
		store:    store,
		provider: mocks.NewMockProvider(),
		client:   client,
		meta:     mocks.NewMockMeta(),
		svc:      svc,
		resolver: media.NewResolver(svc, client, cfg, zerolog.Nop()),
		cfg:      cfg,
		log:      zerolog.Nop(),
	}
}

// load primes the in-memory maps the way the runner does before a run.
func (f *fixture) load(family models.Family) {
	f.svc.LoadForFamily(context.Background(), family)
}

// mapMedia seeds an already-uploaded file so resolves hit the cache.
func (f *fixture) mapMedia(fileID, mediaID int64, filename string) {
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyMedia, SourceID: fileID, TargetID: mediaID, DisplayName: filename,
	})
	f.client.Media[mediaID] = filename
}
