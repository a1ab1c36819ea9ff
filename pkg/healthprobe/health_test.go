package healthprobe

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	var body HealthResponse
	err := json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return resp.StatusCode, body
}

func TestNew(t *testing.T) {
	hc := New()

	if time.Since(hc.startTime) > time.Second {
		t.Errorf("Start time is too old: %v", hc.startTime)
	}
	if hc.ready.Load() {
		t.Error("HealthChecker should not be ready by default")
	}
}

func TestHealth_AlwaysOK(t *testing.T) {
	hc := New()
	hc.AddCheck("miner", func() error { return errors.New("not logged in") })

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		status, body := serve(t, hc.Health())
		if status != http.StatusOK {
			t.Errorf("Health status = %d, want %d (ready=%v)", status, http.StatusOK, ready)
		}
		if body.Status != "healthy" {
			t.Errorf("Status = %s, want healthy", body.Status)
		}
		if body.Uptime == "" {
			t.Error("Uptime is empty")
		}
	}
}

func TestReady_NotReadyInitially(t *testing.T) {
	hc := New()

	status, body := serve(t, hc.Ready())
	if status != http.StatusServiceUnavailable {
		t.Errorf("Ready status = %d, want %d", status, http.StatusServiceUnavailable)
	}
	if body.Status != "not_ready" {
		t.Errorf("Status = %s, want not_ready", body.Status)
	}
	if body.Message == "" {
		t.Error("Message is empty for not_ready state")
	}
}

func TestReady_StateChanges(t *testing.T) {
	hc := New()

	hc.SetReady(true)
	status, body := serve(t, hc.Ready())
	if status != http.StatusOK || body.Status != "ready" {
		t.Errorf("after SetReady(true): %d %s", status, body.Status)
	}

	hc.SetReady(false)
	status, _ = serve(t, hc.Ready())
	if status != http.StatusServiceUnavailable {
		t.Errorf("after SetReady(false): %d", status)
	}
}

func TestReady_FailingChecks(t *testing.T) {
	hc := New()
	hc.SetReady(true)

	loggedIn := false
	hc.AddCheck("login", func() error {
		if !loggedIn {
			return errors.New("not logged in")
		}
		return nil
	})
	hc.AddCheck("miner", func() error { return errors.New("stopped") })

	status, body := serve(t, hc.Ready())
	if status != http.StatusServiceUnavailable {
		t.Fatalf("Ready status = %d, want %d", status, http.StatusServiceUnavailable)
	}
	if body.Failing["login"] != "not logged in" || body.Failing["miner"] != "stopped" {
		t.Errorf("Failing = %v", body.Failing)
	}
	if !strings.Contains(body.Message, "login, miner") {
		t.Errorf("Message = %q", body.Message)
	}

	loggedIn = true
	hc.AddCheck("miner", func() error { return nil })

	status, body = serve(t, hc.Ready())
	if status != http.StatusOK {
		t.Errorf("Ready status = %d, want %d", status, http.StatusOK)
	}
	if len(body.Failing) != 0 {
		t.Errorf("Failing = %v, want none", body.Failing)
	}
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
			hc.AddCheck("toggle", func() error { return nil })
		}
		done <- true
	}()

	go func() {
		for n := 0; n < 100; n++ {
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handler(w, req)
		}
		done <- true
	}()

	<-done
	<-done
}
