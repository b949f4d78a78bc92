package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"questlog/api/internal/auth"
	"questlog/api/internal/ratelimit"
)

func newTestServer(t *testing.T, fake *fakeStore, limiter RateLimiter) *httptest.Server {
	t.Helper()
	svc := newTestService(t, fake)
	svc.companions = auth.NewCompanionValidator(fake)
	server := httptest.NewServer(NewHTTPServer(svc, "*", limiter).Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, payload
}

func loginToken(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/session/login", "", `{"name":"rig-check"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	return payload["token"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, newFakeStore(), nil)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/health", "", "")
	if resp.StatusCode != http.StatusOK || payload["ok"] != true {
		t.Fatalf("health: status %d payload %v", resp.StatusCode, payload)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestQuestsRequireSession(t *testing.T) {
	server := newTestServer(t, newFakeStore(), nil)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/quests", "", "")
	if resp.StatusCode != http.StatusUnauthorized || payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("expected 401, got %d %v", resp.StatusCode, payload)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/quests", "not-a-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestQuestStatusLifecycleOverHTTP(t *testing.T) {
	fake := newFakeStore()
	server := newTestServer(t, fake, nil)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/quests/a/status", token, `{"status":"completed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %v", resp.StatusCode, payload)
	}
	unlocked := payload["unlocked"].([]any)
	if len(unlocked) != 1 || unlocked[0] != "b" {
		t.Fatalf("expected b unlocked, got %v", unlocked)
	}

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/quests", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	totals := payload["totals"].(map[string]any)
	if totals["completed"].(float64) != 1 {
		t.Fatalf("expected one completed quest, got %v", totals)
	}

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/quests/ghost/status", token, `{"status":"completed"}`)
	if resp.StatusCode != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %v", resp.StatusCode, payload)
	}

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/quests/a/status", token, `{"status":"done"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected 422, got %d %v", resp.StatusCode, payload)
	}
}

func TestObjectiveProgressOverHTTP(t *testing.T) {
	fake := newFakeStore()
	server := newTestServer(t, fake, nil)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/objectives/a-1/progress", token, `{"delta":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tick status %d: %v", resp.StatusCode, payload)
	}
	objective := payload["objective"].(map[string]any)
	if objective["current"].(float64) != 2 {
		t.Fatalf("expected current 2, got %v", objective)
	}
}

func TestCompanionSyncOverHTTP(t *testing.T) {
	fake := newFakeStore()
	server := newTestServer(t, fake, nil)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/companion/tokens", token, `{"deviceName":"desktop"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("link status %d: %v", resp.StatusCode, payload)
	}
	deviceToken := payload["token"].(string)

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/companion/sync", deviceToken,
		`{"events":[{"questId":"a","event":"COMPLETED"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status %d: %v", resp.StatusCode, payload)
	}
	applied := payload["applied"].([]any)
	if len(applied) != 1 {
		t.Fatalf("expected one applied event, got %v", applied)
	}

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/companion/status", deviceToken, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, payload)
	}
	quests := payload["quests"].(map[string]any)
	if quests["a"] != "completed" || quests["b"] != "available" {
		t.Fatalf("unexpected statuses %v", quests)
	}

	// A session token is not a companion token.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/companion/status", token, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for session token on companion route, got %d", resp.StatusCode)
	}
}

func TestCompanionQuestLookupIsPublic(t *testing.T) {
	server := newTestServer(t, newFakeStore(), nil)

	// No token of any kind; the desktop app fetches quest names before
	// the user has linked a device.
	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/companion/quests", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quest lookup status %d: %v", resp.StatusCode, payload)
	}
	if payload["count"].(float64) != 3 {
		t.Fatalf("expected 3 quests, got %v", payload["count"])
	}
	quests := payload["quests"].(map[string]any)
	entry := quests["a"].(map[string]any)
	if entry["title"] != "Debut" || entry["trader"] != "Prapor" {
		t.Fatalf("unexpected quest entry %v", entry)
	}
}

type fakeLimiter struct {
	calls   []string
	allowed bool
}

func (f *fakeLimiter) Allow(ctx context.Context, limit ratelimit.Limit, clientID string) (ratelimit.Result, error) {
	f.calls = append(f.calls, limit.Name+":"+clientID)
	return ratelimit.Result{
		Allowed:   f.allowed,
		Limit:     limit.Requests,
		Remaining: 0,
		Reset:     time.Now().Add(30 * time.Second),
	}, nil
}

func TestRateLimitedRequestGets429(t *testing.T) {
	fake := newFakeStore()
	limiter := &fakeLimiter{allowed: false}
	server := newTestServer(t, fake, limiter)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/quests", token, "")
	if resp.StatusCode != http.StatusTooManyRequests || payload["code"] != "RATE_LIMITED" {
		t.Fatalf("expected 429, got %d %v", resp.StatusCode, payload)
	}
	if resp.Header.Get("Retry-After") == "" || resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Fatal("missing rate limit headers")
	}
	if len(limiter.calls) != 1 || !strings.HasPrefix(limiter.calls[0], "read:") {
		t.Fatalf("expected one read-class check, got %v", limiter.calls)
	}
}

func TestWriteRoutesUseWriteLimit(t *testing.T) {
	fake := newFakeStore()
	limiter := &fakeLimiter{allowed: true}
	server := newTestServer(t, fake, limiter)
	token := loginToken(t, server)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/quests/a/status", token, `{"status":"completed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d", resp.StatusCode)
	}
	if len(limiter.calls) != 1 || !strings.HasPrefix(limiter.calls[0], "write:") {
		t.Fatalf("expected one write-class check, got %v", limiter.calls)
	}
}

func TestSettingsRoundTripOverHTTP(t *testing.T) {
	fake := newFakeStore()
	server := newTestServer(t, fake, nil)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodPut, server.URL+"/api/settings", token, `{"playerLevel":42,"bypassLevelRequirement":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put settings %d: %v", resp.StatusCode, payload)
	}

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/settings", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get settings %d", resp.StatusCode)
	}
	if payload["playerLevel"].(float64) != 42 || payload["bypassLevelRequirement"] != true {
		t.Fatalf("settings did not round trip: %v", payload)
	}
}

func TestUnknownRoute404(t *testing.T) {
	server := newTestServer(t, newFakeStore(), nil)
	token := loginToken(t, server)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/nope", token, "")
	if resp.StatusCode != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %v", resp.StatusCode, payload)
	}
}
