package capture

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// get issues one HTTP request against a session port and returns the status
// code and body.
func get(t *testing.T, port int, path string) (int, string) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
	if err != nil {
		t.Fatalf("request to port %d failed: %v", port, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return resp.StatusCode, string(body)
}

// waitEvent receives the next event from a subscription or fails the test.
func waitEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription channel closed while waiting for an event")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return Event{}
}
