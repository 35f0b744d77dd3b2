package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/loopback/internal/shared"
)

func TestSessionCapture(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	registry := NewRegistry(logger)
	defer registry.Shutdown(context.Background())

	sub := registry.Subscribe(0)
	defer sub.Cancel()

	port, err := registry.Start(Config{})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	t.Run("valid redirect yields a captured event and 200", func(t *testing.T) {
		status, body := get(t, port, "/?code=abc&state=xyz")
		if status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}
		if !strings.Contains(body, "close this window") {
			t.Errorf("expected default response page, got %q", body)
		}

		ev := waitEvent(t, sub)
		if ev.Kind != EventCaptured {
			t.Fatalf("expected EventCaptured, got %v", ev.Kind)
		}
		if ev.Port != port {
			t.Errorf("expected event port %d, got %d", port, ev.Port)
		}
		if ev.Redirect == nil {
			t.Fatal("expected a redirect payload")
		}
		if got := ev.Redirect.Query.Get("code"); got != "abc" {
			t.Errorf("expected code=abc, got %q", got)
		}
		if got := ev.Redirect.Query.Get("state"); got != "xyz" {
			t.Errorf("expected state=xyz, got %q", got)
		}
		if ev.Redirect.RawURL != "/?code=abc&state=xyz" {
			t.Errorf("unexpected raw URL %q", ev.Redirect.RawURL)
		}
	})

	t.Run("redirect path is not restricted", func(t *testing.T) {
		status, _ := get(t, port, "/some/callback/path?code=zzz")
		if status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}

		ev := waitEvent(t, sub)
		if ev.Kind != EventCaptured {
			t.Fatalf("expected EventCaptured, got %v", ev.Kind)
		}
		if ev.Redirect.RawURL != "/some/callback/path?code=zzz" {
			t.Errorf("unexpected raw URL %q", ev.Redirect.RawURL)
		}
	})

	t.Run("missing query string yields an invalid event and still 200", func(t *testing.T) {
		status, body := get(t, port, "/")
		if status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}
		if !strings.Contains(body, "close this window") {
			t.Errorf("expected default response page, got %q", body)
		}

		ev := waitEvent(t, sub)
		if ev.Kind != EventInvalid {
			t.Fatalf("expected EventInvalid, got %v", ev.Kind)
		}
		if ev.Invalid == nil || !strings.Contains(ev.Invalid.Reason, "query string") {
			t.Errorf("expected a missing-query reason, got %+v", ev.Invalid)
		}
	})

	t.Run("non-GET method yields an invalid event and still 200", func(t *testing.T) {
		resp, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/?code=abc", port), "text/plain", strings.NewReader("body"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}

		ev := waitEvent(t, sub)
		if ev.Kind != EventInvalid {
			t.Fatalf("expected EventInvalid, got %v", ev.Kind)
		}
		if !strings.Contains(ev.Invalid.Reason, "POST") {
			t.Errorf("expected the reason to name the method, got %q", ev.Invalid.Reason)
		}
		if !strings.Contains(ev.Invalid.Snippet, "POST /?code=abc") {
			t.Errorf("expected a request snippet, got %q", ev.Invalid.Snippet)
		}
	})

	t.Run("events arrive in request order", func(t *testing.T) {
		for i := range 5 {
			get(t, port, fmt.Sprintf("/?seq=%d", i))
		}
		for i := range 5 {
			ev := waitEvent(t, sub)
			if ev.Kind != EventCaptured {
				t.Fatalf("expected EventCaptured, got %v", ev.Kind)
			}
			if got := ev.Redirect.Query.Get("seq"); got != fmt.Sprint(i) {
				t.Fatalf("expected seq=%d, got %q", i, got)
			}
		}
	})
}

func TestSessionResponseOverride(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	registry := NewRegistry(logger)
	defer registry.Shutdown(context.Background())

	sub := registry.Subscribe(0)
	defer sub.Cancel()

	custom := "<html><body>custom done page</body></html>"
	port, err := registry.Start(Config{Response: custom})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	t.Run("returned verbatim for a valid redirect", func(t *testing.T) {
		status, body := get(t, port, "/?code=abc")
		if status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}
		if body != custom {
			t.Errorf("expected configured response verbatim, got %q", body)
		}
		waitEvent(t, sub)
	})

	t.Run("returned verbatim for an invalid redirect", func(t *testing.T) {
		status, body := get(t, port, "/")
		if status != http.StatusOK {
			t.Errorf("expected status 200, got %d", status)
		}
		if body != custom {
			t.Errorf("expected configured response verbatim, got %q", body)
		}
		waitEvent(t, sub)
	})
}
