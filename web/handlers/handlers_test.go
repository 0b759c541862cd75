package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nhalim/symposium/internal/config"
	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/session"
	"github.com/nhalim/symposium/internal/storage"
)

// setupTestRouter creates a router backed by a temp database and the
// default mock-instance configuration.
func setupTestRouter(t *testing.T) (chi.Router, *session.Engine) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}

	cfg := config.Default()
	eng := session.New(store, cfg.CreateRegistry(), cfg)

	r := chi.NewRouter()
	New(eng).RegisterRoutes(r)
	return r, eng
}

func TestHandleHealth(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHandleProviders_ExcludesMock(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/providers", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var providers []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &providers); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(providers) != 3 {
		t.Fatalf("Expected 3 providers (mock excluded), got %d", len(providers))
	}
	for _, p := range providers {
		if p["name"] == "mock" {
			t.Error("mock provider should not be listed")
		}
		if _, ok := p["models"]; !ok {
			t.Errorf("provider %v missing models", p["name"])
		}
	}
}

func TestHandleModes(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/modes", nil))

	var modes []string
	if err := json.Unmarshal(w.Body.Bytes(), &modes); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(modes) != len(core.Modes()) {
		t.Errorf("Expected %d modes, got %d", len(core.Modes()), len(modes))
	}
}

func TestHandleInstances(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/instances", nil))

	var instances []core.Instance
	if err := json.Unmarshal(w.Body.Bytes(), &instances); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(instances) != 2 {
		t.Errorf("Expected the 2 configured mock instances, got %d", len(instances))
	}
}

func TestHandleCreateSession(t *testing.T) {
	router, eng := setupTestRouter(t)

	payload := `{"prompt":"What is a goroutine?","mode":"parallel"}`
	req := httptest.NewRequest("POST", "/api/sessions/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var sess core.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if sess.ID == "" || sess.Mode != core.ModeParallel {
		t.Errorf("Unexpected session: %+v", sess)
	}

	// The run happens in the background; wait for it to finish against the
	// mock provider.
	deadline := time.Now().Add(5 * time.Second)
	for {
		stored, err := eng.GetSession(sess.ID)
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if stored != nil && stored.Status == core.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session did not complete in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestHandleCreateSession_Invalid(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"empty_prompt", `{"prompt":"","mode":"parallel"}`},
		{"unknown_mode", `{"prompt":"hi","mode":"vibes"}`},
		{"malformed_json", `{"prompt":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/sessions/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleGetSession(t *testing.T) {
	router, eng := setupTestRouter(t)

	sess, err := eng.CreateSession(session.RunRequest{Mode: core.ModeParallel, Prompt: "hello"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Session *core.Session `json:"session"`
		Turns   []*core.Turn  `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.Session == nil || result.Session.ID != sess.ID {
		t.Errorf("Unexpected session in response: %+v", result.Session)
	}
}

func TestHandleGetSession_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/nonexistent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandleListSessions(t *testing.T) {
	router, eng := setupTestRouter(t)

	for _, prompt := range []string{"first", "second"} {
		if _, err := eng.CreateSession(session.RunRequest{Mode: core.ModeParallel, Prompt: prompt}); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/?limit=1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var summaries []*core.SessionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("Expected 1 session with limit=1, got %d", len(summaries))
	}
}

func TestHandleDeleteSession(t *testing.T) {
	router, eng := setupTestRouter(t)

	sess, err := eng.CreateSession(session.RunRequest{Mode: core.ModeParallel, Prompt: "delete me"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/sessions/"+sess.ID, nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	stored, _ := eng.GetSession(sess.ID)
	if stored != nil {
		t.Error("session still exists after deletion")
	}
}

func TestHandleExportSession(t *testing.T) {
	router, eng := setupTestRouter(t)

	sess, err := eng.CreateSession(session.RunRequest{Mode: core.ModeParallel, Prompt: "export me"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/export/markdown", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "export me") {
		t.Error("markdown export missing prompt")
	}
}

func TestHandleExportSession_BadFormat(t *testing.T) {
	router, eng := setupTestRouter(t)

	sess, err := eng.CreateSession(session.RunRequest{Mode: core.ModeParallel, Prompt: "export me"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/export/docx", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleSessionStream_ReplaysFinishedSession(t *testing.T) {
	router, eng := setupTestRouter(t)

	req := session.RunRequest{Mode: core.ModeParallel, Prompt: "stream me"}
	sess, err := eng.CreateSession(req)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if _, _, err := eng.Run(context.Background(), sess.ID, req); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/"+sess.ID+"/stream", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: state") {
		t.Error("replay missing state events")
	}
	if !strings.Contains(body, "event: session_complete") {
		t.Error("replay missing terminal event")
	}
}
