package remoteaudit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vshulcz/resquewatch/internal/misc"
	"github.com/vshulcz/resquewatch/internal/services/audit"
)

func TestClient_Notify_OK(t *testing.T) {
	var (
		received audit.Event
		hash     string
		raw      []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		raw, _ = io.ReadAll(r.Body)
		hash = r.Header.Get("HashSHA256")
		if err := json.Unmarshal(raw, &received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c, err := New(ts.URL, ts.Client(), "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	evt := audit.Event{Seq: 4, Namespaces: []string{"resque"}, Points: 8, Error: "boom"}
	if err := c.Notify(t.Context(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if received.Seq != 4 || received.Error != "boom" || received.Namespaces[0] != "resque" {
		t.Fatalf("unexpected payload %+v", received)
	}
	if !misc.VerifySHA256(raw, "secret", hash) {
		t.Fatalf("bad signature %q", hash)
	}
}

func TestClient_Notify_Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL, nil, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Notify(t.Context(), audit.Event{}); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	for _, raw := range []string{"", "  ", "not a url"} {
		if _, err := New(raw, nil, ""); err == nil {
			t.Fatalf("New(%q) expected error", raw)
		}
	}
	var nilClient *Client
	if err := nilClient.Notify(t.Context(), audit.Event{}); err != nil {
		t.Fatalf("nil client must be a no-op: %v", err)
	}
}
