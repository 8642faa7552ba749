package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/amtorres/mindmap-api/internal/auth"
	"github.com/amtorres/mindmap-api/internal/config"
	"github.com/amtorres/mindmap-api/internal/handler"
	"github.com/amtorres/mindmap-api/internal/queue"
	"github.com/amtorres/mindmap-api/internal/repository"
	"github.com/amtorres/mindmap-api/internal/router"
)

// fakeUserStore is an in-memory credential store. Passwords are kept plain
// here; hashing belongs to the real repository and is tested there.
type fakeUserStore struct {
	mu        sync.Mutex
	nextID    uint64
	users     map[string]repository.User // keyed by email
	passwords map[string]string
	failAll   bool // simulate a store outage
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]repository.User{}, passwords: map[string]string{}}
}

var errStoreDown = context.DeadlineExceeded

func (s *fakeUserStore) Create(_ context.Context, name, email, password string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return 0, errStoreDown
	}
	if _, ok := s.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	s.nextID++
	s.users[email] = repository.User{ID: s.nextID, Name: name, Email: email}
	s.passwords[email] = password
	return s.nextID, nil
}

func (s *fakeUserStore) Authenticate(_ context.Context, email, password string) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return repository.User{}, errStoreDown
	}
	u, ok := s.users[email]
	if !ok || s.passwords[email] != password {
		return repository.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (repository.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) Update(_ context.Context, id uint64, name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			if name != "" {
				u.Name = name
				s.users[email] = u
			}
			if password != "" {
				s.passwords[email] = password
			}
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *fakeUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			delete(s.passwords, email)
			return nil
		}
	}
	return repository.ErrUserNotFound
}

// fakeMapStore is an in-memory resource store scoped by owner, mirroring
// the SQL repository's ownership semantics.
type fakeMapStore struct {
	mu     sync.Mutex
	nextID uint64
	maps   map[uint64]repository.MindMap
}

func newFakeMapStore() *fakeMapStore {
	return &fakeMapStore{maps: map[uint64]repository.MindMap{}}
}

func (s *fakeMapStore) Create(_ context.Context, userID uint64, title, data string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	s.maps[s.nextID] = repository.MindMap{
		ID: s.nextID, UserID: userID, Title: title, Data: data,
		CreatedAt: now, UpdatedAt: now,
	}
	return s.nextID, nil
}

func (s *fakeMapStore) GetByIDAndOwner(_ context.Context, id, userID uint64) (repository.MindMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[id]
	if !ok || m.UserID != userID {
		return repository.MindMap{}, repository.ErrMapNotFound
	}
	return m, nil
}

func (s *fakeMapStore) ListByOwner(_ context.Context, userID uint64) ([]repository.MindMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []repository.MindMap{}
	for _, m := range s.maps {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMapStore) Update(_ context.Context, id, userID uint64, title, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[id]
	if !ok || m.UserID != userID {
		return repository.ErrMapNotFound
	}
	m.Title, m.Data, m.UpdatedAt = title, data, time.Now().UTC()
	s.maps[id] = m
	return nil
}

func (s *fakeMapStore) Delete(_ context.Context, id, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[id]
	if !ok || m.UserID != userID {
		return repository.ErrMapNotFound
	}
	delete(s.maps, id)
	return nil
}

// testServer bundles a fully routed echo instance with its fakes.
type testServer struct {
	e     *echo.Echo
	codec *auth.TokenCodec
	users *fakeUserStore
	maps  *fakeMapStore

	mu     sync.Mutex
	events []queue.MapActivityEvent
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	key, err := auth.NewSigningKey()
	require.NoError(t, err)

	ts := &testServer{
		e:     echo.New(),
		codec: auth.NewTokenCodec(key),
		users: newFakeUserStore(),
		maps:  newFakeMapStore(),
	}
	mapH := handler.NewMindMapHandler(ts.maps)
	mapH.Publish = func(_ context.Context, ev queue.MapActivityEvent) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		ts.events = append(ts.events, ev)
	}
	router.Register(ts.e, ts.codec,
		handler.NewAuthHandler(ts.users, ts.codec),
		mapH,
		handler.NewUserHandler(ts.users),
		config.CacheConfig{Enabled: false}, nil)
	return ts
}

// do runs a JSON request through the full route table.
func (ts *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

// sessionCookie registers a user and returns the session cookie plus id.
func (ts *testServer) sessionCookie(t *testing.T, name, email, password string) (*http.Cookie, uint64) {
	t.Helper()
	id, err := ts.users.Create(context.Background(), name, email, password)
	require.NoError(t, err)
	token, err := ts.codec.Issue(auth.Identity{Email: email, UserID: id, Name: name})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}, id
}

// setCookie returns the jwt cookie from a response, if any.
func setCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range (&http.Response{Header: rec.Header()}).Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
