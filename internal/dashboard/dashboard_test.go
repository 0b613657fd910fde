package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/store"
)

type stubReader struct {
	users    []store.User
	messages map[int64][]store.Message
	searches map[int64][]store.Search
	stats    *store.Stats
	statsErr error
	pingErr  error
	limits   []int
}

func (s *stubReader) ListUsers(context.Context) ([]store.User, error) {
	return s.users, nil
}

func (s *stubReader) GetUser(_ context.Context, userID int64) (*store.User, error) {
	for i := range s.users {
		if s.users[i].ID == userID {
			return &s.users[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubReader) UserMessages(_ context.Context, userID int64, limit int) ([]store.Message, error) {
	s.limits = append(s.limits, limit)
	return s.messages[userID], nil
}

func (s *stubReader) UserSearches(_ context.Context, userID int64, _ int) ([]store.Search, error) {
	return s.searches[userID], nil
}

func (s *stubReader) Stats(context.Context) (*store.Stats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

func (s *stubReader) Ping(context.Context) error {
	return s.pingErr
}

func newTestServer(t *testing.T, reader *stubReader) *Server {
	t.Helper()

	srv, err := New(Config{}, reader, "s3cret", zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv
}

func fixtureReader() *stubReader {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	olena := store.User{ID: 42, Username: "olena", FirstName: "Олена", CreatedAt: now, LastActivity: now, TotalSearches: 2, TotalMessages: 7}
	return &stubReader{
		users: []store.User{olena},
		messages: map[int64][]store.Message{
			42: {{ID: "01J", UserID: 42, Type: store.TypeText, Content: "Шукаю інвестора <b>", CreatedAt: now}},
		},
		searches: map[int64][]store.Search{
			42: {{ID: "01K", UserID: 42, Query: "інвестор у агро", Result: "Іван Петренко", CreatedAt: now}},
		},
		stats: &store.Stats{TotalUsers: 1, TotalMessages: 7, TotalSearches: 2, ActiveUsers: 1, TopUsers: []store.User{olena}},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authed(srv *Server, req *http.Request) *http.Request {
	req.AddCookie(srv.auth.sessionCookie())
	return req
}

func TestNewRequiresPassword(t *testing.T) {
	if _, err := New(Config{}, &stubReader{}, "", nil); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestPagesRedirectWithoutCookie(t *testing.T) {
	srv := newTestServer(t, fixtureReader())
	h := srv.Router()

	for _, path := range []string{"/", "/users", "/user/42"} {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected 303, got %d", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestAPIRejectsWithoutCookie(t *testing.T) {
	srv := newTestServer(t, fixtureReader())

	rec := do(t, srv.Router(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestForgedCookieRejected(t *testing.T) {
	srv := newTestServer(t, fixtureReader())

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "s3cret"})

	rec := do(t, srv.Router(), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("plaintext password cookie must not authenticate, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, fixtureReader())
	h := srv.Router()

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := do(t, h, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Неправильний пароль") {
		t.Fatalf("expected error message in body, got %q", rec.Body.String())
	}

	form.Set("password", "s3cret")
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec = do(t, h, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName {
		t.Fatalf("expected auth cookie, got %+v", cookies)
	}
	if cookies[0].Value == "s3cret" {
		t.Fatal("cookie must not carry the password")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = do(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with issued cookie, got %d", rec.Code)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	srv := newTestServer(t, fixtureReader())

	rec := do(t, srv.Router(), authed(srv, httptest.NewRequest(http.MethodGet, "/logout", nil)))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestDashboardPages(t *testing.T) {
	srv := newTestServer(t, fixtureReader())
	h := srv.Router()

	tests := []struct {
		path string
		want []string
	}{
		{path: "/", want: []string{"Статистика", "Олена", "/user/42"}},
		{path: "/users", want: []string{"@olena", "/user/42"}},
		{path: "/user/42", want: []string{"інвестор у агро", "Іван Петренко", "Шукаю інвестора &lt;b&gt;"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, authed(srv, httptest.NewRequest(http.MethodGet, tt.path, nil)))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Fatalf("expected %q in body", want)
				}
			}
		})
	}
}

func TestUserDetailErrors(t *testing.T) {
	srv := newTestServer(t, fixtureReader())
	h := srv.Router()

	rec := do(t, h, authed(srv, httptest.NewRequest(http.MethodGet, "/user/7", nil)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}

	rec = do(t, h, authed(srv, httptest.NewRequest(http.MethodGet, "/user/abc", nil)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestAPIStats(t *testing.T) {
	srv := newTestServer(t, fixtureReader())

	rec := do(t, srv.Router(), authed(srv, httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats store.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.TotalSearches != 2 || len(stats.TopUsers) != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAPIStatsError(t *testing.T) {
	reader := fixtureReader()
	reader.statsErr = errors.New("disk gone")
	srv := newTestServer(t, reader)

	rec := do(t, srv.Router(), authed(srv, httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAPIMessagesLimit(t *testing.T) {
	reader := fixtureReader()
	srv := newTestServer(t, reader)
	h := srv.Router()

	rec := do(t, h, authed(srv, httptest.NewRequest(http.MethodGet, "/api/messages/42?limit=5", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var messages []store.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "Шукаю інвестора <b>" {
		t.Fatalf("unexpected messages: %+v", messages)
	}

	rec = do(t, h, authed(srv, httptest.NewRequest(http.MethodGet, "/api/messages/99?limit=bogus", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}

	if len(reader.limits) != 2 || reader.limits[0] != 5 || reader.limits[1] != defaultMessageLimit {
		t.Fatalf("unexpected limits passed to store: %v", reader.limits)
	}
}

func TestHealthz(t *testing.T) {
	reader := fixtureReader()
	srv := newTestServer(t, reader)
	h := srv.Router()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	reader.pingErr = errors.New("database is locked")
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, fixtureReader())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dashboard did not come up: %v", err)
	}
	resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
