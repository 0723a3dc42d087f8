package web

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"realestate.dapp/redapp/internal/api"
	"realestate.dapp/redapp/internal/app"
	"realestate.dapp/redapp/internal/docs"
	"realestate.dapp/redapp/internal/logger"
	"realestate.dapp/redapp/internal/types"
	"realestate.dapp/redapp/internal/units"
)

func newTestServer(t *testing.T) (*Server, *app.Store, *logger.Logger) {
	t.Helper()
	store := app.NewStore()
	notices := logger.New(100).Quiet()
	svc := api.NewService(store, units.Ether(), notices)

	s, err := NewServer(store, svc, docs.Builtin(), notices, 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, store, notices
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPageWithoutSession(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No properties available.") {
		t.Error("empty directory message missing")
	}
	if !strings.Contains(body, "Not connected") {
		t.Error("expected disconnected account display")
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("unexpected Cache-Control %q", got)
	}
}

func TestPageListsProperties(t *testing.T) {
	s, store, _ := newTestServer(t)
	store.Apply(func(st app.State) app.State {
		return st.WithSession("0x00000000000000000000000000000000000000aa").
			WithProperties([]types.Property{
				{ID: "1", Name: "Lot A", Owner: "0x00000000000000000000000000000000000000aa", Price: big.NewInt(500000000000000000)},
			}, time.Now())
	})

	body := get(t, s.Handler(), "/").Body.String()
	for _, want := range []string{"Lot A", "0.5", "Connected account"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, `<td colspan="4">No properties available.</td>`) {
		t.Error("empty directory row rendered with properties loaded")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	if rec := get(t, s.Handler(), "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDocsView(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := get(t, s.Handler(), "/views/docs?doc=guide.adoc")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wallet") {
		t.Error("guide content not rendered")
	}

	if rec := get(t, s.Handler(), "/views/docs?doc=../main.go"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for invalid doc, got %d", rec.Code)
	}
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestPropertiesWebSocket(t *testing.T) {
	s, store, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, "/ws/properties")

	var first stateMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if first.Connected || len(first.Properties) != 0 {
		t.Fatalf("unexpected initial state %+v", first)
	}

	store.Apply(func(st app.State) app.State {
		return st.WithProperties([]types.Property{
			{ID: "7", Name: "Lot B", Owner: "0x00000000000000000000000000000000000000bb", Price: big.NewInt(1)},
		}, time.Now())
	})

	var next stateMessage
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if len(next.Properties) != 1 || next.Properties[0].ID != "7" {
		t.Fatalf("unexpected update %+v", next)
	}
	if next.Properties[0].Price != "0.000000000000000001" {
		t.Errorf("expected decimal price, got %q", next.Properties[0].Price)
	}
}

func TestStatusWebSocket(t *testing.T) {
	s, _, notices := newTestServer(t)
	notices.Info("before connect")

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, "/ws/status")

	var msg logger.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read history: %v", err)
	}
	if msg.Text != "before connect" {
		t.Fatalf("expected history first, got %q", msg.Text)
	}

	notices.Error("after connect")
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read live notice: %v", err)
	}
	if msg.Text != "after connect" || msg.Level != "error" {
		t.Errorf("unexpected notice %+v", msg)
	}
}
