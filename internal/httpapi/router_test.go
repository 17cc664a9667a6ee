package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kiliankoe/impostor/internal/game"
)

type fakeGames struct{}

func (fakeGames) Status(groupID string) game.Status {
	return game.Status{GroupID: groupID, Phase: game.PhaseDiscussion, SelectedDuration: 7}
}

type fakeWatchers map[string]int

func (f fakeWatchers) Watchers(groupID string) int { return f[groupID] }

func newTestRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.Games == nil {
		d.Games = fakeGames{}
	}
	return NewRouter(d)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(Deps{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["ok"] != true {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestGroupStatus(t *testing.T) {
	r := newTestRouter(Deps{Spectators: fakeWatchers{"-100": 2}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/groups/-100/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Status     game.Status `json:"status"`
		Spectators int         `json:"spectators"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status.GroupID != "-100" || body.Status.Phase != game.PhaseDiscussion || body.Spectators != 2 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestWebhookRouteOnlyWhenConfigured(t *testing.T) {
	r := newTestRouter(Deps{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without webhook, got %d", w.Code)
	}

	hit := false
	r = newTestRouter(Deps{Webhook: func(c *gin.Context) { hit = true; c.Status(http.StatusOK) }})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, nil))
	if !hit || w.Code != http.StatusOK {
		t.Fatalf("webhook not routed: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := newTestRouter(Deps{CORSOrigins: []string{"https://spectate.example.org"}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://spectate.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://spectate.example.org" {
		t.Fatalf("unexpected allow-origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected foreign origin to be rejected, got %d", w.Code)
	}
}
