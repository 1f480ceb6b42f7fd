package migrator_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cms-content-migrator/internal/migrator"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/target"
)

func newsRecord(id int64, title string) models.SourceRecord {
	return models.SourceRecord{
		ID:        id,
		Title:     title,
		Body:      "<p>body</p>",
		AuthorID:  7,
		Created:   time.Date(2018, 3, 14, 9, 30, 0, 0, time.UTC),
		Published: true,
	}
}

func TestPostMigrator_MigratesAndSkips(t *testing.T) {
	f := newFixture(t)
	ok := newsRecord(1, "Kept")
	noBody := newsRecord(2, "Empty")
	noBody.Body = ""
	f.provider.RecordsByFamily[models.FamilyNewsPost] = []models.SourceRecord{ok, noBody}
	f.load(models.FamilyNewsPost)

	m := migrator.NewNewsMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	counts, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if counts.Migrated != 1 || counts.Skipped != 1 || counts.Errors != 0 {
		t.Fatalf("Expected 1 migrated and 1 skipped, got %+v", counts)
	}
	if !f.svc.IsMigrated(models.FamilyNewsPost, 1) {
		t.Error("Record 1 should be mapped")
	}
	if f.svc.IsMigrated(models.FamilyNewsPost, 2) {
		t.Error("The body-less record must not be mapped")
	}

	// Idempotence: a rerun creates nothing new.
	createsBefore := f.client.CreatePostCalls
	counts, err = m.Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if counts.Migrated != 0 || counts.Skipped != 2 {
		t.Errorf("Expected an all-skip second run, got %+v", counts)
	}
	if f.client.CreatePostCalls != createsBefore {
		t.Errorf("Second run must not create posts, got %d new creates",
			f.client.CreatePostCalls-createsBefore)
	}
}

func TestPostMigrator_TranslatesAndForcesDefaultCategory(t *testing.T) {
	f := newFixture(t)
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyCategory, SourceID: 10, TargetID: 110,
	})
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyUser, SourceID: 7, TargetID: 77,
	})

	rec := newsRecord(1, "Categorised")
	rec.CategoryIDs = []int64{10, 11} // 11 is unmapped and silently dropped
	f.provider.RecordsByFamily[models.FamilyNewsPost] = []models.SourceRecord{rec}
	f.load(models.FamilyNewsPost)

	m := migrator.NewNewsMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	newsCat, err := f.client.FindTermByName(context.Background(), target.TaxonomyCategories, "News")
	if err != nil || newsCat == nil {
		t.Fatal("Expected the News category to be ensured in the target")
	}

	postID, _ := f.svc.TargetID(models.FamilyNewsPost, 1)
	post := f.client.Posts[postID]
	if post == nil {
		t.Fatal("Created post not found")
	}
	if len(post.Categories) != 2 || post.Categories[0] != 110 || post.Categories[1] != newsCat.ID {
		t.Errorf("Expected categories [110 %d], got %v", newsCat.ID, post.Categories)
	}
	if post.Author != 77 {
		t.Errorf("Expected translated author 77, got %d", post.Author)
	}
	if post.Status != "publish" {
		t.Errorf("Expected publish status, got %s", post.Status)
	}
	if post.Date != "2018-03-14T09:30:00" {
		t.Errorf("Unexpected date %s", post.Date)
	}
}

func TestPostMigrator_ComposesBodyBlocksInOrder(t *testing.T) {
	f := newFixture(t)
	rec := newsRecord(1, "Layered")
	rec.Kicker = "Exclusive"
	rec.Summary = "What happened and why."
	f.provider.RecordsByFamily[models.FamilyNewsPost] = []models.SourceRecord{rec}
	f.load(models.FamilyNewsPost)

	m := migrator.NewNewsMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	postID, _ := f.svc.TargetID(models.FamilyNewsPost, 1)
	content := f.client.Posts[postID].Content
	kicker := strings.Index(content, "Exclusive")
	standfirst := strings.Index(content, "What happened")
	body := strings.Index(content, "<p>body</p>")
	if kicker < 0 || standfirst < 0 || body < 0 {
		t.Fatalf("Missing blocks in composed body: %s", content)
	}
	if !(kicker < standfirst && standfirst < body) {
		t.Errorf("Expected kicker, standfirst, body in that order: %s", content)
	}
}

func TestPostMigrator_SetsThumbnailAndBacklink(t *testing.T) {
	f := newFixture(t)
	f.mapMedia(40, 500, "cover.jpg")
	rec := newsRecord(1, "Illustrated")
	rec.Files = []models.AttachedFile{
		{FileID: 40, Filename: "cover.jpg", IsFeatured: true},
	}
	f.provider.RecordsByFamily[models.FamilyNewsPost] = []models.SourceRecord{rec}
	f.load(models.FamilyNewsPost)

	m := migrator.NewNewsMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	postID, _ := f.svc.TargetID(models.FamilyNewsPost, 1)
	fields := f.meta.Fields[postID]
	if fields["_thumbnail_id"] != "500" {
		t.Errorf("Expected thumbnail 500, got %q", fields["_thumbnail_id"])
	}
	if fields["_migrated_source_id"] != "1" {
		t.Errorf("Expected source backlink 1, got %q", fields["_migrated_source_id"])
	}
}

func TestLibraryMigrator_RecordsDocumentIDs(t *testing.T) {
	f := newFixture(t)
	f.mapMedia(41, 501, "report.pdf")
	rec := newsRecord(1, "Annual report")
	rec.Files = []models.AttachedFile{
		{FileID: 41, Filename: "report.pdf", MimeType: "application/pdf"},
		{FileID: 42, Filename: "chart.png", MimeType: "image/png"}, // not a document
	}
	f.provider.RecordsByFamily[models.FamilyLibraryPost] = []models.SourceRecord{rec}
	f.load(models.FamilyLibraryPost)

	m := migrator.NewLibraryMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	postID, _ := f.svc.TargetID(models.FamilyLibraryPost, 1)
	if got := f.meta.Fields[postID]["_library_document_ids"]; got != "501" {
		t.Errorf("Expected document ids \"501\", got %q", got)
	}
}

func TestHubMigrator_RecordsTranslatedRegions(t *testing.T) {
	f := newFixture(t)
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyRegion, SourceID: 3, TargetID: 303,
	})
	rec := newsRecord(1, "Pacific hub")
	rec.RegionIDs = []int64{3, 4} // 4 is unmapped
	f.provider.RecordsByFamily[models.FamilyHubPost] = []models.SourceRecord{rec}
	f.load(models.FamilyHubPost)

	m := migrator.NewHubMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	postID, _ := f.svc.TargetID(models.FamilyHubPost, 1)
	if got := f.meta.Fields[postID]["_hub_region_ids"]; got != "303" {
		t.Errorf("Expected region ids \"303\", got %q", got)
	}
}

func TestPageMigrator_OmitsTaxonomies(t *testing.T) {
	f := newFixture(t)
	f.store.Upsert(context.Background(), &models.MappingEntry{
		Family: models.FamilyCategory, SourceID: 10, TargetID: 110,
	})
	rec := newsRecord(1, "About us")
	rec.CategoryIDs = []int64{10}
	rec.Published = false
	f.provider.RecordsByFamily[models.FamilyPage] = []models.SourceRecord{rec}
	f.load(models.FamilyPage)

	m := migrator.NewPageMigrator(f.svc, f.provider, f.client, f.meta, f.resolver, f.cfg, f.log)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	pageID, _ := f.svc.TargetID(models.FamilyPage, 1)
	page := f.client.Posts[pageID]
	if page == nil {
		t.Fatal("Created page not found")
	}
	if page.Categories != nil || page.Tags != nil {
		t.Errorf("Pages carry no taxonomies, got categories %v tags %v", page.Categories, page.Tags)
	}
	if page.Status != "draft" {
		t.Errorf("Expected draft status for an unpublished record, got %s", page.Status)
	}
}
