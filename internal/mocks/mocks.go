package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cms-content-migrator/internal/models"
)

// MockStore is an in-memory implementation of mapping.Store
type MockStore struct {
	mu          sync.Mutex
	Entries     map[models.Family]map[int64]*models.MappingEntry
	UpsertError error
	LoadError   map[models.Family]error
	UpsertCalls int
	DeleteCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Entries:   make(map[models.Family]map[int64]*models.MappingEntry),
		LoadError: make(map[models.Family]error),
	}
}

func (m *MockStore) Upsert(ctx context.Context, entry *models.MappingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	fam, ok := m.Entries[entry.Family]
	if !ok {
		fam = make(map[int64]*models.MappingEntry)
		m.Entries[entry.Family] = fam
	}
	clone := *entry
	fam[entry.SourceID] = &clone
	return nil
}

func (m *MockStore) Get(ctx context.Context, family models.Family, sourceID int64) (*models.MappingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fam, ok := m.Entries[family]; ok {
		if e, ok := fam[sourceID]; ok {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockStore) AllForFamily(ctx context.Context, family models.Family) ([]models.MappingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.LoadError[family]; err != nil {
		return nil, err
	}
	var entries []models.MappingEntry
	for _, e := range m.Entries[family] {
		entries = append(entries, *e)
	}
	return entries, nil
}

func (m *MockStore) CountForFamily(ctx context.Context, family models.Family) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries[family]), nil
}

func (m *MockStore) MarkBodyRepaired(ctx context.Context, family models.Family, sourceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fam, ok := m.Entries[family]; ok {
		if e, ok := fam[sourceID]; ok {
			e.BodyRepaired = true
			return nil
		}
	}
	return fmt.Errorf("no mapping for %s %d", family, sourceID)
}

func (m *MockStore) Delete(ctx context.Context, family models.Family, sourceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	delete(m.Entries[family], sourceID)
	return nil
}

func (m *MockStore) DeleteFamily(ctx context.Context, family models.Family) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, family)
	return nil
}

// MockProvider is an in-memory implementation of source.Provider
type MockProvider struct {
	RecordsByFamily map[models.Family][]models.SourceRecord
	UserList        []models.SourceUser
	Trees           map[string][]models.TermNode
	FilesByRecord   map[int64][]models.AttachedFile
	RecordsError    error
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		RecordsByFamily: make(map[models.Family][]models.SourceRecord),
		Trees:           make(map[string][]models.TermNode),
		FilesByRecord:   make(map[int64][]models.AttachedFile),
	}
}

func (m *MockProvider) Records(ctx context.Context, family models.Family) ([]models.SourceRecord, error) {
	if m.RecordsError != nil {
		return nil, m.RecordsError
	}
	return m.RecordsByFamily[family], nil
}

func (m *MockProvider) Users(ctx context.Context) ([]models.SourceUser, error) {
	return m.UserList, nil
}

func (m *MockProvider) TermTree(ctx context.Context, vocabulary string) ([]models.TermNode, error) {
	return m.Trees[vocabulary], nil
}

func (m *MockProvider) FilesFor(ctx context.Context, recordID int64) ([]models.AttachedFile, error) {
	return m.FilesByRecord[recordID], nil
}

// MockTargetClient is an in-memory implementation of target.Client
type MockTargetClient struct {
	mu     sync.Mutex
	nextID int64

	Posts map[int64]*models.TargetPost
	Terms map[string]map[int64]string // taxonomy -> id -> name
	Media map[int64]string            // id -> filename
	Users map[int64]string            // id -> login

	CreateOrder []string // names/titles in creation order

	UploadCalls     int
	CreatePostCalls int
	CreateTermCalls int
	UpdatedBodies   map[int64]string

	CreateError error
	DeleteError error
	UploadError error
}

func NewMockTargetClient() *MockTargetClient {
	return &MockTargetClient{
		nextID:        100,
		Posts:         make(map[int64]*models.TargetPost),
		Terms:         make(map[string]map[int64]string),
		Media:         make(map[int64]string),
		Users:         make(map[int64]string),
		UpdatedBodies: make(map[int64]string),
	}
}

func (m *MockTargetClient) newID() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockTargetClient) CreatePost(ctx context.Context, postType string, post *models.TargetPost) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatePostCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	id := m.newID()
	clone := *post
	m.Posts[id] = &clone
	m.CreateOrder = append(m.CreateOrder, post.Title)
	return &models.TargetRecord{ID: id, Link: fmt.Sprintf("https://target.example/?p=%d", id)}, nil
}

func (m *MockTargetClient) GetPost(ctx context.Context, postType string, id int64) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.Posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d not found", id)
	}
	content := post.Content
	if updated, ok := m.UpdatedBodies[id]; ok {
		content = updated
	}
	return &models.TargetRecord{ID: id, Content: content}, nil
}

func (m *MockTargetClient) UpdatePostBody(ctx context.Context, postType string, id int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdatedBodies[id] = body
	return nil
}

func (m *MockTargetClient) DeletePost(ctx context.Context, postType string, id int64, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Posts, id)
	return nil
}

func (m *MockTargetClient) CreateTerm(ctx context.Context, taxonomy string, term *models.TargetTerm) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateTermCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	tax, ok := m.Terms[taxonomy]
	if !ok {
		tax = make(map[int64]string)
		m.Terms[taxonomy] = tax
	}
	id := m.newID()
	tax[id] = term.Name
	m.CreateOrder = append(m.CreateOrder, term.Name)
	return &models.TargetRecord{ID: id}, nil
}

func (m *MockTargetClient) FindTermByName(ctx context.Context, taxonomy, name string) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.Terms[taxonomy] {
		if strings.EqualFold(n, name) {
			return &models.TargetRecord{ID: id}, nil
		}
	}
	return nil, nil
}

func (m *MockTargetClient) DeleteTerm(ctx context.Context, taxonomy string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Terms[taxonomy], id)
	return nil
}

func (m *MockTargetClient) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCalls++
	if m.UploadError != nil {
		return nil, m.UploadError
	}
	id := m.newID()
	m.Media[id] = filename
	return &models.TargetRecord{
		ID:        id,
		SourceURL: fmt.Sprintf("https://target.example/uploads/%s", filename),
	}, nil
}

func (m *MockTargetClient) GetMedia(ctx context.Context, id int64) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filename, ok := m.Media[id]
	if !ok {
		return nil, fmt.Errorf("media %d not found", id)
	}
	return &models.TargetRecord{
		ID:        id,
		SourceURL: fmt.Sprintf("https://target.example/uploads/%s", filename),
	}, nil
}

func (m *MockTargetClient) DeleteMedia(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Media, id)
	return nil
}

func (m *MockTargetClient) CreateUser(ctx context.Context, user *models.TargetUser) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	id := m.newID()
	m.Users[id] = user.Username
	return &models.TargetRecord{ID: id}, nil
}

func (m *MockTargetClient) FindUserByLogin(ctx context.Context, login string) (*models.TargetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.Users {
		if l == login {
			return &models.TargetRecord{ID: id}, nil
		}
	}
	return nil, nil
}

func (m *MockTargetClient) DeleteUser(ctx context.Context, id int64, reassignTo int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Users, id)
	return nil
}

// MockMeta is an in-memory implementation of target.Meta
type MockMeta struct {
	mu     sync.Mutex
	Fields map[int64]map[string]string
	Error  error
}

func NewMockMeta() *MockMeta {
	return &MockMeta{Fields: make(map[int64]map[string]string)}
}

func (m *MockMeta) SetThumbnail(ctx context.Context, postID, mediaID int64) error {
	return m.SetCustomField(ctx, postID, "_thumbnail_id", fmt.Sprintf("%d", mediaID))
}

func (m *MockMeta) SetCustomField(ctx context.Context, postID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	fields, ok := m.Fields[postID]
	if !ok {
		fields = make(map[string]string)
		m.Fields[postID] = fields
	}
	fields[key] = value
	return nil
}

// MockRunRepository is an in-memory implementation of runner.RunRepository
type MockRunRepository struct {
	mu   sync.Mutex
	Runs map[string]*models.MigrationRun
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{Runs: make(map[string]*models.MigrationRun)}
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.MigrationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.Runs[run.ID] = &clone
	return nil
}

func (m *MockRunRepository) Update(ctx context.Context, run *models.MigrationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.Runs[run.ID] = &clone
	return nil
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*models.MigrationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	clone := *run
	return &clone, nil
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.MigrationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*models.MigrationRun
	for _, run := range m.Runs {
		clone := *run
		runs = append(runs, &clone)
	}
	return runs, nil
}
