package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"livequiz-service/internal/domain"
)

func TestSessionLifecycleOverHTTP(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewSessionHandler(service, domain.Settings{}).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp := post(t, server, "/sessions", `{"name":"Pub Quiz","settings":{"allowLateJoins":true}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var snapshot domain.SessionSnapshot
	decode(t, resp, &snapshot)
	if snapshot.Status != domain.StatusWaiting || len(snapshot.JoinCode) != 4 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	resp = get(t, server, "/join/"+snapshot.JoinCode)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve join code: status %d", resp.StatusCode)
	}
	var resolved domain.SessionSnapshot
	decode(t, resp, &resolved)
	if resolved.SessionCode != snapshot.SessionCode {
		t.Fatalf("join code resolved to wrong session")
	}

	resp = post(t, server, "/sessions/"+snapshot.SessionCode+"/participants", `{"name":"Alice"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	resp = post(t, server, "/sessions/"+snapshot.SessionCode+"/participants", `{"name":"Alice"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate name: status %d", resp.StatusCode)
	}

	resp = post(t, server, "/sessions/"+snapshot.SessionCode+"/start", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	var started domain.SessionSnapshot
	decode(t, resp, &started)
	if started.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", started.Status)
	}

	resp = post(t, server, "/sessions/"+snapshot.SessionCode+"/start", `{}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("double start: status %d", resp.StatusCode)
	}

	resp = get(t, server, "/sessions/"+snapshot.SessionCode+"/leaderboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: status %d", resp.StatusCode)
	}
	var lb domain.Leaderboard
	decode(t, resp, &lb)
	if len(lb.Entries) != 1 || lb.Entries[0].Name != "Alice" {
		t.Fatalf("unexpected leaderboard %+v", lb.Entries)
	}
}

func TestCreateSessionUsesConfiguredDefaults(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewSessionHandler(service, domain.Settings{AutoAdvance: true, AllowLateJoins: true}).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp := post(t, server, "/sessions", `{"name":"Defaults"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var snapshot domain.SessionSnapshot
	decode(t, resp, &snapshot)
	if !snapshot.Settings.AutoAdvance || !snapshot.Settings.AllowLateJoins || snapshot.Settings.ResetClearsAnswers {
		t.Fatalf("expected configured defaults, got %+v", snapshot.Settings)
	}

	// An explicit settings block replaces the defaults wholesale.
	resp = post(t, server, "/sessions", `{"name":"Explicit","settings":{"resetClearsAnswers":true}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session with settings: status %d", resp.StatusCode)
	}
	var explicit domain.SessionSnapshot
	decode(t, resp, &explicit)
	if explicit.Settings.AutoAdvance || explicit.Settings.AllowLateJoins || !explicit.Settings.ResetClearsAnswers {
		t.Fatalf("expected explicit settings to win, got %+v", explicit.Settings)
	}
}

func TestUnknownJoinCodeIs404(t *testing.T) {
	service := newTestService(t)
	mux := http.NewServeMux()
	NewSessionHandler(service, domain.Settings{}).Register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp := get(t, server, "/join/9999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func post(t *testing.T, server *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func get(t *testing.T, server *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
