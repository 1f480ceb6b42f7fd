package mapping_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/mapping"
	"github.com/cms-content-migrator/internal/mocks"
	"github.com/cms-content-migrator/internal/models"
	"github.com/rs/zerolog"
)

func newService(store mapping.Store) *mapping.Service {
	cfg := &config.MigrationConfig{DefaultAuthorID: 1}
	return mapping.NewService(store, cfg, zerolog.Nop())
}

func TestService_TranslateUserID_FallsBackToDefaultAuthor(t *testing.T) {
	store := mocks.NewMockStore()
	store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyUser, SourceID: 10, TargetID: 42,
	})

	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	if got := svc.TranslateUserID(10); got != 42 {
		t.Errorf("Expected mapped author 42, got %d", got)
	}
	if got := svc.TranslateUserID(999); got != 1 {
		t.Errorf("Expected default author 1 for unmapped id, got %d", got)
	}
}

func TestService_TranslateIDs_PreservesOrderAndDropsUnmapped(t *testing.T) {
	store := mocks.NewMockStore()
	for src, tgt := range map[int64]int64{5: 105, 7: 107, 9: 109} {
		store.Upsert(context.Background(), &models.MappingEntry{
			Family: models.FamilyCategory, SourceID: src, TargetID: tgt,
		})
	}

	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	got := svc.TranslateIDs(models.FamilyCategory, []int64{9, 6, 5, 8, 7})
	want := []int64{109, 105, 107}
	if len(got) != len(want) {
		t.Fatalf("Expected %d translated ids, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestService_RecordMapping_VisibleImmediately(t *testing.T) {
	store := mocks.NewMockStore()
	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	if svc.IsMigrated(models.FamilyTag, 3) {
		t.Fatal("Tag 3 should not be migrated yet")
	}
	if err := svc.RecordMapping(context.Background(), models.FamilyTag, 3, 303, "go"); err != nil {
		t.Fatalf("RecordMapping failed: %v", err)
	}
	if !svc.IsMigrated(models.FamilyTag, 3) {
		t.Error("Tag 3 should be visible through IsMigrated right after recording")
	}

	// The durable row must exist too.
	entry, _ := store.Get(context.Background(), models.FamilyTag, 3)
	if entry == nil || entry.TargetID != 303 {
		t.Errorf("Expected persisted entry with target 303, got %+v", entry)
	}
}

func TestService_RecordMapping_StoreFailureLeavesMemoryUntouched(t *testing.T) {
	store := mocks.NewMockStore()
	store.UpsertError = fmt.Errorf("connection reset")
	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	err := svc.RecordMapping(context.Background(), models.FamilyTag, 3, 303, "go")
	if err == nil {
		t.Fatal("Expected an error when the store write fails")
	}
	if svc.IsMigrated(models.FamilyTag, 3) {
		t.Error("A failed persist must not leave an in-memory mapping behind")
	}
}

func TestService_LoadBasicMappings_ContinuesPastFailedFamily(t *testing.T) {
	store := mocks.NewMockStore()
	store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyCategory, SourceID: 5, TargetID: 105,
	})
	store.LoadError[models.FamilyUser] = fmt.Errorf("relation does not exist")

	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	// The failed family behaves as empty, the rest still load.
	if got := svc.TranslateUserID(10); got != 1 {
		t.Errorf("Expected default author for a family that failed to load, got %d", got)
	}
	if !svc.IsMigrated(models.FamilyCategory, 5) {
		t.Error("Category mappings should have loaded despite the user load failure")
	}
}

func TestService_ConcurrentFamilyLoads(t *testing.T) {
	store := mocks.NewMockStore()
	for i, family := range models.PostFamilies {
		store.Upsert(context.Background(), &models.MappingEntry{
			Family: family, SourceID: int64(i + 1), TargetID: int64(100 + i),
		})
	}
	svc := newService(store)

	// Runs over different families share one service; their loads must be
	// safe side by side.
	var wg sync.WaitGroup
	for _, family := range models.PostFamilies {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(f models.Family) {
				defer wg.Done()
				svc.LoadForFamily(context.Background(), f)
			}(family)
		}
	}
	wg.Wait()

	for i, family := range models.PostFamilies {
		if !svc.IsMigrated(family, int64(i+1)) {
			t.Errorf("Family %s lost its mapping during concurrent loads", family)
		}
	}
}

func TestService_ForgetDropsFamily(t *testing.T) {
	store := mocks.NewMockStore()
	svc := newService(store)
	svc.LoadBasicMappings(context.Background())

	svc.RecordMapping(context.Background(), models.FamilyRegion, 2, 202, "EMEA")
	if svc.MappedCount(models.FamilyRegion) != 1 {
		t.Fatal("Expected one region mapping")
	}
	svc.Forget(models.FamilyRegion)
	if svc.MappedCount(models.FamilyRegion) != 0 {
		t.Error("Forget should drop the in-memory map")
	}
}
