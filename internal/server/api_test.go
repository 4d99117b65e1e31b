package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tamtam888/TaskMan/internal/auth"
	"github.com/tamtam888/TaskMan/internal/calendar"
	"github.com/tamtam888/TaskMan/internal/game"
	"github.com/tamtam888/TaskMan/internal/store"
	"github.com/tamtam888/TaskMan/internal/task"
)

type stubCalendar struct {
	calls int
	fail  bool
}

func (c *stubCalendar) CreateEvent(ctx context.Context, bearer string, ev calendar.Event) (string, error) {
	c.calls++
	if c.fail {
		return "", &calendar.SyncFailedError{Message: "calendar said no"}
	}
	return "evt-1", nil
}

func newTestServer(t *testing.T) (*http.ServeMux, *stubCalendar) {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	logger := log.New(io.Discard)
	cal := &stubCalendar{}
	manager := game.NewManager(st, cal, calendar.DefaultOptions(), task.DefaultScoring(), game.RealClock{}, logger)

	app := &App{
		Auth:    auth.NewService(logger, 7*24*time.Hour),
		Manager: manager,
		BootNow: time.Now(),
	}

	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	RegisterAPIRoutes(mux, rr, app)
	return mux, cal
}

func signIn(t *testing.T, mux *http.ServeMux, email string) *http.Cookie {
	t.Helper()

	claims := jwt.MapClaims{
		"email": email,
		"name":  "Test User",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	cred, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign credential: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"credential": cred})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "taskman_session" {
			return c
		}
	}
	t.Fatal("sign-in response set no session cookie")
	return nil
}

func doJSON(t *testing.T, mux *http.ServeMux, cookie *http.Cookie, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAPI_RequiresSession(t *testing.T) {
	mux, _ := newTestServer(t)

	for _, route := range []string{"/api/state", "/api/tasks"} {
		rec := doJSON(t, mux, nil, http.MethodGet, route, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without session: expected 401, got %d", route, rec.Code)
		}
	}
}

func TestAPI_TaskLifecycle(t *testing.T) {
	mux, _ := newTestServer(t)
	cookie := signIn(t, mux, "dana@example.com")

	deadline := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text":     "buy milk",
		"priority": "high",
		"category": "home",
		"deadline": deadline,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}
	if created.ID == 0 || created.Text != "buy milk" {
		t.Fatalf("unexpected created task: %+v", created)
	}

	rec = doJSON(t, mux, cookie, http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, cookie, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d", rec.Code)
	}
	var state struct {
		Score    int  `json:"score"`
		Level    int  `json:"level"`
		GameOver bool `json:"gameOver"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Score != 30 {
		t.Fatalf("expected 30 points for a high task 10 days out, got %d", state.Score)
	}
	if !state.GameOver {
		t.Fatal("expected gameOver with every task completed")
	}

	rec = doJSON(t, mux, cookie, http.MethodGet, "/api/tasks?tab=done", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list done: expected 200, got %d", rec.Code)
	}
	var done []task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatalf("decode done list: %v", err)
	}
	if len(done) != 1 {
		t.Fatalf("expected 1 completed task, got %d", len(done))
	}

	rec = doJSON(t, mux, cookie, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, mux, cookie, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete twice: expected 404, got %d", rec.Code)
	}
}

func TestAPI_EditValidation(t *testing.T) {
	mux, _ := newTestServer(t)
	cookie := signIn(t, mux, "dana@example.com")

	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text": "renew passport", "priority": "normal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, cookie, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", created.ID), map[string]any{
		"deadline": "31/02/2030",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("impossible date: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Reason string `json:"reason"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &errBody)
	if errBody.Reason != task.ReasonInvalidFormat {
		t.Fatalf("expected invalid-format reason, got %q", errBody.Reason)
	}

	rec = doJSON(t, mux, cookie, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", created.ID), map[string]any{
		"deadline": "01/01/2000",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("past date: expected 400, got %d", rec.Code)
	}
}

func TestAPI_SyncStatuses(t *testing.T) {
	mux, cal := newTestServer(t)
	cookie := signIn(t, mux, "dana@example.com")

	deadline := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text": "dentist", "priority": "normal", "deadline": deadline,
	})
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, cookie, http.MethodPost, fmt.Sprintf("/api/tasks/%d/sync", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cal.calls != 1 {
		t.Fatalf("expected 1 calendar call, got %d", cal.calls)
	}

	rec = doJSON(t, mux, cookie, http.MethodPost, fmt.Sprintf("/api/tasks/%d/sync", created.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second sync: expected 409, got %d", rec.Code)
	}
	if cal.calls != 1 {
		t.Fatalf("second sync should not reach the calendar, got %d calls", cal.calls)
	}
}

func TestAPI_SyncFailureIsBadGateway(t *testing.T) {
	mux, cal := newTestServer(t)
	cal.fail = true
	cookie := signIn(t, mux, "dana@example.com")

	deadline := time.Now().AddDate(0, 0, 5).Format("2006-01-02")
	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text": "dentist", "priority": "low", "deadline": deadline,
	})
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, cookie, http.MethodPost, fmt.Sprintf("/api/tasks/%d/sync", created.ID), nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("failed sync: expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_ICSExport(t *testing.T) {
	mux, _ := newTestServer(t)
	cookie := signIn(t, mux, "dana@example.com")

	deadline := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text": "water plants", "priority": "low", "deadline": deadline,
	})
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, cookie, http.MethodGet, fmt.Sprintf("/api/tasks/%d/ics", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ics: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("BEGIN:VEVENT")) {
		t.Fatal("ics body missing VEVENT")
	}
}

func TestAPI_RestartResets(t *testing.T) {
	mux, _ := newTestServer(t)
	cookie := signIn(t, mux, "dana@example.com")

	rec := doJSON(t, mux, cookie, http.MethodPost, "/api/tasks", map[string]any{
		"text": "old task", "priority": "normal",
	})
	var created task.Task
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	doJSON(t, mux, cookie, http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", created.ID), nil)

	rec = doJSON(t, mux, cookie, http.MethodPost, "/api/restart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restart: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, mux, cookie, http.MethodGet, "/api/state", nil)
	var state struct {
		Score    int         `json:"score"`
		Level    int         `json:"level"`
		GameOver bool        `json:"gameOver"`
		Tasks    []task.Task `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Score != 0 || state.Level != 1 || len(state.Tasks) != 0 {
		t.Fatalf("expected empty board after restart, got %+v", state)
	}
	if state.GameOver {
		t.Fatal("an empty board is not game over")
	}
}

func TestAPI_UsersAreIsolated(t *testing.T) {
	mux, _ := newTestServer(t)
	dana := signIn(t, mux, "dana@example.com")
	omer := signIn(t, mux, "omer@example.com")

	doJSON(t, mux, dana, http.MethodPost, "/api/tasks", map[string]any{
		"text": "dana's task", "priority": "normal",
	})

	rec := doJSON(t, mux, omer, http.MethodGet, "/api/tasks", nil)
	var tasks []task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks for a fresh user, got %d", len(tasks))
	}
}

func TestAPI_RouteListIncludesAuthFlag(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, nil, http.MethodGet, "/api/routes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("routes: expected 200, got %d", rec.Code)
	}
	var docs []RouteDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode routes: %v", err)
	}
	authed := 0
	for _, d := range docs {
		if d.Auth {
			authed++
		}
	}
	if authed == 0 {
		t.Fatal("expected some routes to require a session")
	}
}
