package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cms-content-migrator/internal/api"
	"github.com/cms-content-migrator/internal/models"
	"github.com/cms-content-migrator/internal/runner"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// stubRunService is a canned api.RunService for handler tests.
type stubRunService struct {
	startErr  error
	started   []models.RunRequest
	runs      map[string]*models.MigrationRun
	cancelled map[string]bool
	counts    map[models.Family]int
}

func newStubRunService() *stubRunService {
	return &stubRunService{
		runs:      make(map[string]*models.MigrationRun),
		cancelled: make(map[string]bool),
		counts:    make(map[models.Family]int),
	}
}

func (s *stubRunService) Start(ctx context.Context, family models.Family, kind models.RunKind) (*models.MigrationRun, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.started = append(s.started, models.RunRequest{Family: family, Kind: kind})
	run := &models.MigrationRun{ID: "run-1", Family: family, Kind: kind, Status: models.RunStatusPending}
	s.runs[run.ID] = run
	return run, nil
}

func (s *stubRunService) Cancel(runID string) bool {
	_, ok := s.runs[runID]
	if ok {
		s.cancelled[runID] = true
	}
	return ok
}

func (s *stubRunService) Get(ctx context.Context, runID string) (*models.MigrationRun, error) {
	return s.runs[runID], nil
}

func (s *stubRunService) Recent(ctx context.Context, limit int) ([]*models.MigrationRun, error) {
	var out []*models.MigrationRun
	for _, run := range s.runs {
		out = append(out, run)
	}
	return out, nil
}

func (s *stubRunService) MappedCounts(ctx context.Context) (map[models.Family]int, error) {
	return s.counts, nil
}

func setupTestRouter() (*gin.Engine, *stubRunService) {
	gin.SetMode(gin.TestMode)
	stub := newStubRunService()
	return api.NewRouter(stub, zerolog.Nop()), stub
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
}

func TestStartRun(t *testing.T) {
	router, stub := setupTestRouter()

	body, _ := json.Marshal(models.RunRequest{Family: models.FamilyNewsPost, Kind: models.RunKindMigrate})
	req := httptest.NewRequest("POST", "/v1/migrations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(stub.started) != 1 || stub.started[0].Family != models.FamilyNewsPost {
		t.Errorf("Expected a started news_post run, got %+v", stub.started)
	}

	var run models.MigrationRun
	json.Unmarshal(w.Body.Bytes(), &run)
	if run.ID != "run-1" || run.Status != models.RunStatusPending {
		t.Errorf("Unexpected run payload: %+v", run)
	}
}

func TestStartRollback(t *testing.T) {
	router, stub := setupTestRouter()

	body, _ := json.Marshal(models.RunRequest{Family: models.FamilyNewsPost})
	req := httptest.NewRequest("POST", "/v1/rollbacks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(stub.started) != 1 || stub.started[0].Kind != models.RunKindRollback {
		t.Errorf("Expected a rollback run, got %+v", stub.started)
	}

	// The kind in the payload is ignored on this route.
	body, _ = json.Marshal(models.RunRequest{Family: models.FamilyMedia, Kind: models.RunKindMigrate})
	req = httptest.NewRequest("POST", "/v1/rollbacks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if stub.started[1].Kind != models.RunKindRollback {
		t.Errorf("Expected the rollback kind regardless of payload, got %s", stub.started[1].Kind)
	}
}

func TestStartRun_BusyFamilyConflicts(t *testing.T) {
	router, stub := setupTestRouter()
	stub.startErr = runner.ErrFamilyBusy

	body, _ := json.Marshal(models.RunRequest{Family: models.FamilyNewsPost})
	req := httptest.NewRequest("POST", "/v1/migrations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestStartRun_InvalidBody(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("POST", "/v1/migrations", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("GET", "/v1/migrations/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCancelRun(t *testing.T) {
	router, stub := setupTestRouter()
	stub.runs["run-1"] = &models.MigrationRun{ID: "run-1", Status: models.RunStatusRunning}

	req := httptest.NewRequest("DELETE", "/v1/migrations/run-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
	if !stub.cancelled["run-1"] {
		t.Error("Expected the run to be cancelled")
	}

	req = httptest.NewRequest("DELETE", "/v1/migrations/ghost", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for an unknown run, got %d", w.Code)
	}
}

func TestFamiliesEndpoint(t *testing.T) {
	router, stub := setupTestRouter()
	stub.counts[models.FamilyNewsPost] = 120
	stub.counts[models.FamilyMedia] = 450

	req := httptest.NewRequest("GET", "/v1/families", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Families map[models.Family]int `json:"families"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Families[models.FamilyNewsPost] != 120 {
		t.Errorf("Expected 120 news_post mappings, got %d", response.Families[models.FamilyNewsPost])
	}
}
