package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	pkgcrypto "github.com/and161185/task-manager/internal/crypto"
	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/limiter"
	"github.com/and161185/task-manager/internal/model"
	"github.com/and161185/task-manager/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

type memUsers struct {
	mu     sync.Mutex
	byName map[string]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return errs.ErrAlreadyExists
	}
	m.byName[u.Username] = *u
	return nil
}
func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (m *memUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

type memTasks struct {
	mu   sync.Mutex
	byID map[uuid.UUID]model.Task
}

func (m *memTasks) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Task{}
	for _, t := range m.byID {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTasks) Create(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = *t
	return nil
}
func (m *memTasks) Get(_ context.Context, owner, id uuid.UUID) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}
func (m *memTasks) Replace(_ context.Context, owner, id uuid.UUID, f model.TaskFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.OwnerID != owner {
		return errs.ErrNotFound
	}
	t.TaskFields = f
	m.byID[id] = t
	return nil
}
func (m *memTasks) Delete(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type testEnv struct {
	router *gin.Engine
	tokens *service.TokenService
	tasks  *memTasks
}

func newTestEnv(t *testing.T, lim limiter.Limiter, checks ...HealthCheck) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	users := &memUsers{byName: map[string]model.User{}}
	tasks := &memTasks{byID: map[uuid.UUID]model.Task{}}
	ts := service.NewTokenService([]byte("test-key"))
	auth := service.NewAuthService(users, pkgcrypto.NewHasher(bcrypt.MinCost), ts, 0, lim, log)

	srv := New(Options{
		Auth:   auth,
		Tasks:  service.NewTaskService(tasks),
		Logger: log,
		Checks: checks,
	})
	r, err := srv.Routes()
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	return &testEnv{router: r, tokens: ts, tasks: tasks}
}

// do performs a request; body may be a string (sent raw) or any value (JSON-encoded).
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// signup registers and logs in, returning the access token.
func (e *testEnv) signup(t *testing.T, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	if rec := e.do(t, http.MethodPost, "/api/register", "", creds); rec.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body)
	}
	rec := e.do(t, http.MethodPost, "/api/login", "", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body)
	}
	return decode[map[string]string](t, rec)["access_token"]
}
