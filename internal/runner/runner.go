package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/migrator"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/rewrite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrFamilyBusy is returned when a run is requested for a family that
// already has one in flight.
var ErrFamilyBusy = errors.New("a run is already in progress for this family")

// Runner drives one content family through load mappings, fetch, migrate,
// and summary, with a persisted ledger row per run. Families are migrated
// by separate top-level calls in the operator's chosen sequence; the runner
// only prevents two concurrent runs over the same family.
type Runner struct {
	svc       *mapping.Service
	store     mapping.Store
	migrators *migrator.Set
	repairer  *rewrite.Repairer
	runs      RunRepository
	log       zerolog.Logger

	mu      sync.Mutex
	active  map[models.Family]string      // family -> run id
	cancels map[string]context.CancelFunc // run id -> cancel
}

// New creates a run orchestrator
func New(svc *mapping.Service, store mapping.Store, migrators *migrator.Set, repairer *rewrite.Repairer, runs RunRepository, log zerolog.Logger) *Runner {
	return &Runner{
		svc:       svc,
		store:     store,
		migrators: migrators,
		repairer:  repairer,
		runs:      runs,
		log:       log.With().Str("service", "runner").Logger(),
		active:    make(map[models.Family]string),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Start ledgers a new run and executes it in the background. The run
// context is detached from the caller's request; cancellation happens
// through Cancel.
func (r *Runner) Start(ctx context.Context, family models.Family, kind models.RunKind) (*models.MigrationRun, error) {
	if kind == "" {
		kind = models.RunKindMigrate
	}
	if err := validate(family, kind); err != nil {
		return nil, err
	}

	run := &models.MigrationRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Family:    family,
		Status:    models.RunStatusPending,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	if _, busy := r.active[family]; busy {
		r.mu.Unlock()
		return nil, ErrFamilyBusy
	}
	r.active[family] = run.ID
	r.mu.Unlock()

	if err := r.runs.Create(ctx, run); err != nil {
		r.release(run)
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[run.ID] = cancel
	r.mu.Unlock()

	go r.execute(runCtx, run)

	r.log.Info().
		Str("run_id", run.ID).
		Str("family", string(family)).
		Str("kind", string(kind)).
		Msg("Run started")
	return run, nil
}

// Cancel requests cooperative cancellation of an in-flight run.
func (r *Runner) Cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[runID]
	if ok {
		cancel()
	}
	return ok
}

// Get returns one ledgered run.
func (r *Runner) Get(ctx context.Context, runID string) (*models.MigrationRun, error) {
	return r.runs.GetByID(ctx, runID)
}

// Recent returns the latest ledgered runs.
func (r *Runner) Recent(ctx context.Context, limit int) ([]*models.MigrationRun, error) {
	return r.runs.ListRecent(ctx, limit)
}

// MappedCounts returns the persisted mapping count per family.
func (r *Runner) MappedCounts(ctx context.Context) (map[models.Family]int, error) {
	counts := make(map[models.Family]int, len(models.AllFamilies))
	for _, family := range models.AllFamilies {
		n, err := r.store.CountForFamily(ctx, family)
		if err != nil {
			return nil, err
		}
		counts[family] = n
	}
	return counts, nil
}

// Shutdown cancels every in-flight run cooperatively.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.cancels {
		cancel()
	}
}

func (r *Runner) execute(ctx context.Context, run *models.MigrationRun) {
	defer r.release(run)

	start := time.Now()
	run.Status = models.RunStatusRunning
	run.StartedAt = &start
	if err := r.runs.Update(ctx, run); err != nil {
		r.log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to update run status")
	}

	// Stale reads across families are tolerated; absent mappings degrade
	// through the skip/fallback logic.
	r.svc.LoadForFamily(ctx, run.Family)

	counts, err := r.dispatch(ctx, run)
	counts.ApplyTo(run)

	completed := time.Now()
	run.CompletedAt = &completed
	run.DurationMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		run.Status = models.RunStatusFailed
		run.Message = err.Error()
		r.log.Error().Err(err).Str("run_id", run.ID).Msg("Run failed")
	case ctx.Err() != nil:
		run.Status = models.RunStatusCancelled
		r.log.Info().Str("run_id", run.ID).Msg("Run cancelled")
	default:
		run.Status = models.RunStatusCompleted
		r.log.Info().
			Str("run_id", run.ID).
			Str("family", string(run.Family)).
			Int("processed", run.Processed).
			Int("migrated", run.Migrated).
			Int("skipped", run.Skipped).
			Int("errors", run.Errors).
			Int64("duration_ms", run.DurationMs).
			Msg("Run completed")
	}

	// The run context may already be cancelled; the ledger write must not be.
	if err := r.runs.Update(context.Background(), run); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to persist run result")
	}
}

func (r *Runner) dispatch(ctx context.Context, run *models.MigrationRun) (models.RunCounts, error) {
	switch run.Kind {
	case models.RunKindMigrate:
		mig, ok := r.migrators.ForFamily(run.Family)
		if !ok {
			return models.RunCounts{}, fmt.Errorf("family %s has no migrator", run.Family)
		}
		return mig.Run(ctx)
	case models.RunKindRepair:
		return r.repairer.Run(ctx, run.Family)
	case models.RunKindRollback:
		counts, err := r.migrators.Rollback.Family(ctx, run.Family)
		r.svc.Forget(run.Family)
		return counts, err
	default:
		return models.RunCounts{}, fmt.Errorf("unknown run kind %q", run.Kind)
	}
}

func (r *Runner) release(run *models.MigrationRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[run.ID]; ok {
		cancel()
		delete(r.cancels, run.ID)
	}
	if r.active[run.Family] == run.ID {
		delete(r.active, run.Family)
	}
}

func validate(family models.Family, kind models.RunKind) error {
	if !family.Valid() {
		return fmt.Errorf("unknown family %q", family)
	}
	switch kind {
	case models.RunKindMigrate:
		if family == models.FamilyMedia {
			return fmt.Errorf("media migrates implicitly through posts and repair")
		}
	case models.RunKindRepair:
		if !family.IsPost() {
			return fmt.Errorf("repair applies to post families only")
		}
	case models.RunKindRollback:
	default:
		return fmt.Errorf("unknown run kind %q", kind)
	}
	return nil
}
