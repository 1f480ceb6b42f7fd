package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/media"
	"github.com/cms-content-migrator/internal/migrator"
	"github.com/cms-content-migrator/internal/mocks"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/rewrite"
	"github.com/cms-content-migrator/internal/runner"
	"github.com/cms-content-migrator/internal/source"
	"github.com/cms-content-migrator/internal/target"
	"github.com/rs/zerolog"
)

type runnerFixture struct {
	store  *mocks.MockStore
	client *mocks.MockTargetClient
	repo   *mocks.MockRunRepository
	svc    *mapping.Service
	runner *runner.Runner
}

func newRunnerFixture(t *testing.T, provider source.Provider) *runnerFixture {
	t.Helper()
	store := mocks.NewMockStore()
	client := mocks.NewMockTargetClient()
	meta := mocks.NewMockMeta()
	repo := mocks.NewMockRunRepository()
	cfg := &config.MigrationConfig{DefaultAuthorID: 1, TagWorkers: 2}
	log := zerolog.Nop()

	svc := mapping.NewService(store, cfg, log)
	resolver := media.NewResolver(svc, client, cfg, log)
	migrators := migrator.New(svc, store, provider, client, meta, resolver, cfg, log)
	rewriter := rewrite.NewRewriter(resolver, client, log)
	repairer := rewrite.NewRepairer(svc, provider, client, rewriter, cfg, log)

	return &runnerFixture{
		store:  store,
		client: client,
		repo:   repo,
		svc:    svc,
		runner: runner.New(svc, store, migrators, repairer, repo, log),
	}
}

func waitForDone(t *testing.T, repo *mocks.MockRunRepository, runID string) *models.MigrationRun {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, err := repo.GetByID(context.Background(), runID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if run != nil {
			switch run.Status {
			case models.RunStatusCompleted, models.RunStatusFailed, models.RunStatusCancelled:
				return run
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Run %s did not finish in time", runID)
	return nil
}

// blockingProvider parks Records until released or the run is cancelled.
type blockingProvider struct {
	*mocks.MockProvider
	release chan struct{}
}

func (p *blockingProvider) Records(ctx context.Context, family models.Family) ([]models.SourceRecord, error) {
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestRunner_MigrateRunCompletesWithCounts(t *testing.T) {
	provider := mocks.NewMockProvider()
	provider.Trees[source.VocabularyRegion] = []models.TermNode{
		{ID: 1, Name: "Pacific"},
		{ID: 2, Name: "Atlantic"},
	}
	f := newRunnerFixture(t, provider)

	run, err := f.runner.Start(context.Background(), models.FamilyRegion, models.RunKindMigrate)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if run.Status != models.RunStatusPending {
		t.Errorf("Expected a pending run at start, got %s", run.Status)
	}

	done := waitForDone(t, f.repo, run.ID)
	if done.Status != models.RunStatusCompleted {
		t.Fatalf("Expected completed, got %s (%s)", done.Status, done.Message)
	}
	if done.Total != 2 || done.Migrated != 2 || done.Errors != 0 {
		t.Errorf("Unexpected counts: %+v", done)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("Expected start and completion timestamps on the ledger row")
	}
}

func TestRunner_DefaultsToMigrateKind(t *testing.T) {
	f := newRunnerFixture(t, mocks.NewMockProvider())

	run, err := f.runner.Start(context.Background(), models.FamilyRegion, "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if run.Kind != models.RunKindMigrate {
		t.Errorf("Expected the migrate kind by default, got %s", run.Kind)
	}
	waitForDone(t, f.repo, run.ID)
}

func TestRunner_RejectsInvalidRequests(t *testing.T) {
	f := newRunnerFixture(t, mocks.NewMockProvider())

	cases := []struct {
		name   string
		family models.Family
		kind   models.RunKind
	}{
		{"unknown family", "articles", models.RunKindMigrate},
		{"migrate media", models.FamilyMedia, models.RunKindMigrate},
		{"repair non-post", models.FamilyRegion, models.RunKindRepair},
		{"unknown kind", models.FamilyRegion, "compact"},
	}
	for _, tc := range cases {
		if _, err := f.runner.Start(context.Background(), tc.family, tc.kind); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestRunner_SecondStartOnBusyFamilyIsRejected(t *testing.T) {
	provider := &blockingProvider{
		MockProvider: mocks.NewMockProvider(),
		release:      make(chan struct{}),
	}
	f := newRunnerFixture(t, provider)

	run, err := f.runner.Start(context.Background(), models.FamilyNewsPost, models.RunKindMigrate)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := f.runner.Start(context.Background(), models.FamilyNewsPost, models.RunKindMigrate); err != runner.ErrFamilyBusy {
		t.Errorf("Expected ErrFamilyBusy, got %v", err)
	}

	// Another family is not blocked.
	other, err := f.runner.Start(context.Background(), models.FamilyRegion, models.RunKindMigrate)
	if err != nil {
		t.Fatalf("A different family must not be blocked: %v", err)
	}
	waitForDone(t, f.repo, other.ID)

	close(provider.release)
	waitForDone(t, f.repo, run.ID)

	// The family frees up once the run finishes.
	again, err := f.runner.Start(context.Background(), models.FamilyNewsPost, models.RunKindMigrate)
	if err != nil {
		t.Fatalf("Expected the family to be free again: %v", err)
	}
	waitForDone(t, f.repo, again.ID)
}

func TestRunner_CancelMarksRunCancelled(t *testing.T) {
	provider := &blockingProvider{
		MockProvider: mocks.NewMockProvider(),
		release:      make(chan struct{}),
	}
	f := newRunnerFixture(t, provider)

	run, err := f.runner.Start(context.Background(), models.FamilyNewsPost, models.RunKindMigrate)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !f.runner.Cancel(run.ID) {
		t.Fatal("Cancel should find the in-flight run")
	}

	done := waitForDone(t, f.repo, run.ID)
	if done.Status != models.RunStatusCancelled {
		t.Errorf("Expected cancelled, got %s", done.Status)
	}

	if f.runner.Cancel("no-such-run") {
		t.Error("Cancel must report false for an unknown run id")
	}
}

func TestRunner_RollbackForgetsFamilyMappings(t *testing.T) {
	provider := mocks.NewMockProvider()
	f := newRunnerFixture(t, provider)

	created, err := f.client.CreatePost(context.Background(), target.TypePosts, &models.TargetPost{Title: "p"})
	if err != nil {
		t.Fatal(err)
	}
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyNewsPost, SourceID: 1, TargetID: created.ID,
	})

	run, err := f.runner.Start(context.Background(), models.FamilyNewsPost, models.RunKindRollback)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	done := waitForDone(t, f.repo, run.ID)
	if done.Status != models.RunStatusCompleted {
		t.Fatalf("Expected completed, got %s (%s)", done.Status, done.Message)
	}

	if n, _ := f.store.CountForFamily(context.Background(), models.FamilyNewsPost); n != 0 {
		t.Errorf("Expected mapping rows removed, %d remain", n)
	}
	if f.svc.IsMigrated(models.FamilyNewsPost, 1) {
		t.Error("The in-memory map must be forgotten after a rollback")
	}
}
