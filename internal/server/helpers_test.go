package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	testPrimaryKey  = "primary-key"
	testFallbackKey = "fallback-key"
	testJWTSecret   = "test-secret-key-for-jwt-signing-minimum-32-bytes"
)

// fakeCaller answers every call through fn and counts calls per key.
type fakeCaller struct {
	mu    sync.Mutex
	fn    func(call llm.Call) llm.Outcome
	calls map[string]int
}

func newFakeCaller(fn func(call llm.Call) llm.Outcome) *fakeCaller {
	return &fakeCaller{fn: fn, calls: map[string]int{}}
}

func (c *fakeCaller) Call(_ context.Context, call llm.Call) llm.Outcome {
	c.mu.Lock()
	c.calls[call.APIKey]++
	c.mu.Unlock()
	return c.fn(call)
}

func (c *fakeCaller) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func (c *fakeCaller) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func succeed(text string) *fakeCaller {
	return newFakeCaller(func(llm.Call) llm.Outcome { return llm.Success{Text: text} })
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Port:               8080,
		GeminiAPIKey:       testPrimaryKey,
		GeminiSecondaryKey: testFallbackKey,
		Model:              llm.DefaultModel,
		Endpoint:           llm.DefaultEndpoint,
		UpstreamTransport:  string(llm.TransportREST),
		PrimaryTimeout:     time.Second,
		FallbackTimeout:    time.Second,
		FailoverBackoff:    time.Millisecond,
		CORSAllowOrigins:   []string{"*"},
		ShutdownTimeout:    time.Second,
	}
}

// memStore is an in-memory UserStore and ResumeStore.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	resumes map[uuid.UUID]*db.Resume
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*db.User{}, resumes: map[uuid.UUID]*db.Resume{}}
}

func (m *memStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	u, _ := m.GetUserByEmail(context.Background(), email)
	return u != nil, nil
}

func (m *memStore) CreateUser(_ context.Context, name, email string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	now := time.Now()
	m.users[id] = &db.User{ID: id, Name: name, Email: strings.ToLower(email), CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (m *memStore) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return &ErrUserNotFound{UserID: userID}
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	return nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateResume(_ context.Context, userID uuid.UUID, input *db.ResumeCreateInput) (*db.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &db.Resume{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        input.Title,
		Template:     input.Template,
		Data:         input.Data,
		ShowBranding: input.ShowBranding == nil || *input.ShowBranding,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if r.Title == "" {
		r.Title = db.DefaultResumeTitle
	}
	if r.Template == "" {
		r.Template = db.DefaultResumeTemplate
	}
	if r.Data == nil {
		r.Data = &types.Resume{}
	}
	m.resumes[r.ID] = r
	return copyResume(r), nil
}

func (m *memStore) GetResume(_ context.Context, userID, id uuid.UUID) (*db.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	return copyResume(r), nil
}

func (m *memStore) ListResumesByUser(_ context.Context, userID uuid.UUID) ([]db.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Resume{}
	for _, r := range m.resumes {
		if r.UserID == userID {
			out = append(out, *copyResume(r))
		}
	}
	return out, nil
}

func (m *memStore) UpdateResume(_ context.Context, userID, id uuid.UUID, u *db.ResumeUpdate) (*db.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Template != nil {
		r.Template = *u.Template
	}
	if u.Data != nil {
		r.Data = u.Data.Clone()
	}
	if u.ShowBranding != nil {
		r.ShowBranding = *u.ShowBranding
	}
	r.UpdatedAt = time.Now()
	return copyResume(r), nil
}

func (m *memStore) DuplicateResume(ctx context.Context, userID, id uuid.UUID) (*db.Resume, error) {
	src, _ := m.GetResume(ctx, userID, id)
	if src == nil {
		return nil, nil
	}
	return m.CreateResume(ctx, userID, &db.ResumeCreateInput{
		Title:        src.Title + " (Copy)",
		Template:     src.Template,
		Data:         src.Data,
		ShowBranding: &src.ShowBranding,
	})
}

func (m *memStore) DeleteResume(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(m.resumes, id)
	return true, nil
}

func copyResume(r *db.Resume) *db.Resume {
	cp := *r
	cp.Data = r.Data.Clone()
	return &cp
}

// newTestServer builds a server with a memory store and the given caller.
func newTestServer(t *testing.T, caller llm.Caller, mutate ...func(*config.ServerConfig)) (*Server, *memStore) {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	store := newMemStore()
	s, err := New(cfg, Dependencies{
		Caller:   caller,
		Users:    store,
		Resumes:  store,
		JWT:      &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 24},
		Password: &config.PasswordConfig{BcryptCost: 10},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, store
}

// do sends a request through the full middleware chain.
func do(t *testing.T, s *Server, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// registerUser registers a user and returns its bearer header value.
func registerUser(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Test User", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[types.AuthResponse](t, w)
	return "Bearer " + resp.Token
}
