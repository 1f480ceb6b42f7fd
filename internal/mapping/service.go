package mapping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/models"
	"github.com/rs/zerolog"
)

// Service is the in-memory source of truth for id translation during one
// migration run, backed by the durable Store. It is owned by the run that
// created it and is never package-global.
//
// Records within a family are processed sequentially; the mutex exists for
// the one exception, the fan-out tag migrator, which records mappings from
// several goroutines.
type Service struct {
	store Store
	cfg   *config.MigrationConfig
	log   zerolog.Logger

	mu     sync.Mutex
	maps   map[models.Family]map[int64]int64
	loaded map[models.Family]bool
}

// NewService creates a mapping service with empty in-memory maps
func NewService(store Store, cfg *config.MigrationConfig, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		log:    log.With().Str("service", "mapping").Logger(),
		maps:   make(map[models.Family]map[int64]int64),
		loaded: make(map[models.Family]bool),
	}
}

// LoadBasicMappings reads the user, category, tag, region and media maps
// fully into memory. A family whose load fails is treated as empty with a
// warning; a missing table on a first-ever run must not abort the run.
func (s *Service) LoadBasicMappings(ctx context.Context) {
	for _, family := range models.BasicFamilies {
		s.loadFamily(ctx, family)
	}
}

// LoadForFamily loads the basic maps plus the given family's own map. Runs
// over different families share one service, so the loaded check takes the
// lock like every other map access.
func (s *Service) LoadForFamily(ctx context.Context, family models.Family) {
	s.LoadBasicMappings(ctx)
	s.mu.Lock()
	done := s.loaded[family]
	s.mu.Unlock()
	if !done {
		s.loadFamily(ctx, family)
	}
}

func (s *Service) loadFamily(ctx context.Context, family models.Family) {
	entries, err := s.store.AllForFamily(ctx, family)
	m := make(map[int64]int64, len(entries))
	if err != nil {
		s.log.Warn().Err(err).Str("family", string(family)).
			Msg("Failed to load mapping table, continuing with empty map")
	} else {
		for _, e := range entries {
			m[e.SourceID] = e.TargetID
		}
		if len(entries) == 0 {
			s.log.Info().Str("family", string(family)).Msg("No existing mappings")
		} else {
			s.log.Info().Str("family", string(family)).Int("count", len(entries)).
				Msg("Mappings loaded")
		}
	}

	s.mu.Lock()
	s.maps[family] = m
	s.loaded[family] = true
	s.mu.Unlock()
}

// TranslateUserID returns the mapped target author, falling back to the
// configured default author for unmapped ids. It never fails.
func (s *Service) TranslateUserID(sourceID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.maps[models.FamilyUser]; ok {
		if targetID, ok := m[sourceID]; ok {
			return targetID
		}
	}
	return s.cfg.DefaultAuthorID
}

// TranslateIDs maps a list of source ids to target ids, preserving input
// order and silently dropping unmapped ids. Partial translation is expected.
func (s *Service) TranslateIDs(family models.Family, sourceIDs []int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[family]
	if !ok {
		return nil
	}
	var out []int64
	for _, id := range sourceIDs {
		if targetID, ok := m[id]; ok {
			out = append(out, targetID)
		}
	}
	return out
}

// IsMigrated reports whether a source record already has a target record.
// Every migrator uses this as its skip/create gate.
func (s *Service) IsMigrated(family models.Family, sourceID int64) bool {
	_, ok := s.TargetID(family, sourceID)
	return ok
}

// TargetID returns the mapped target id for a source id, if any.
func (s *Service) TargetID(family models.Family, sourceID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[family]
	if !ok {
		return 0, false
	}
	targetID, ok := m[sourceID]
	return targetID, ok
}

// RecordMapping upserts the durable store and the in-memory map
// synchronously. A store failure propagates and leaves the in-memory map
// untouched, so lookups stay consistent with what was actually persisted.
func (s *Service) RecordMapping(ctx context.Context, family models.Family, sourceID, targetID int64, displayName string) error {
	entry := &models.MappingEntry{
		Family:      family,
		SourceID:    sourceID,
		TargetID:    targetID,
		DisplayName: displayName,
		MigratedAt:  time.Now(),
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist mapping %s %d -> %d: %w", family, sourceID, targetID, err)
	}

	s.mu.Lock()
	m, ok := s.maps[family]
	if !ok {
		m = make(map[int64]int64)
		s.maps[family] = m
	}
	m[sourceID] = targetID
	s.mu.Unlock()
	return nil
}

// MarkBodyRepaired flags a post mapping as having its body references repaired.
func (s *Service) MarkBodyRepaired(ctx context.Context, family models.Family, sourceID int64) error {
	return s.store.MarkBodyRepaired(ctx, family, sourceID)
}

// EntriesFor returns the persisted entries for one family (used by the
// repair and rollback passes, which need the per-entry flags).
func (s *Service) EntriesFor(ctx context.Context, family models.Family) ([]models.MappingEntry, error) {
	return s.store.AllForFamily(ctx, family)
}

// MappedCount returns the number of in-memory mappings for a family.
func (s *Service) MappedCount(family models.Family) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maps[family])
}

// Forget drops one family's in-memory map (after a rollback).
func (s *Service) Forget(family models.Family) {
	s.mu.Lock()
	delete(s.maps, family)
	delete(s.loaded, family)
	s.mu.Unlock()
}
