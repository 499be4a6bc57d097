package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/graphlapse/graphlapse/pkg/auth"
	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/statestore"
	"github.com/graphlapse/graphlapse/pkg/stream"
)

func newTestServer(t *testing.T, configure func(*Config, *Deps)) *Server {
	t.Helper()
	config := DefaultConfig()
	config.RequestsPerSecond = 0 // no rate limiting in tests
	deps := Deps{
		Engine: engine.New(nil),
		Store:  statestore.NewMemoryStore(),
		Broker: stream.NewBroker(),
	}
	if configure != nil {
		configure(config, &deps)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return NewServer(config, deps)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func frameBody(nodes []string, adjacency map[string][]string) map[string]any {
	return map[string]any{
		"nodeIds":           nodes,
		"adjacencyByNodeId": adjacency,
	}
}

func TestComputeLayoutStateless(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/layout",
		frameBody([]string{"a", "b", "c"}, map[string][]string{"a": {"b"}, "b": {"c"}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	out := decodeBody[engine.Output](t, rec)
	if len(out.Layout.NodeTargets) != 3 {
		t.Errorf("node targets = %d, want 3", len(out.Layout.NodeTargets))
	}
	if len(out.Metadata.State) == 0 {
		t.Error("no state returned")
	}
}

func TestComputeLayoutThreadedState(t *testing.T) {
	srv := newTestServer(t, nil)

	body := frameBody([]string{"a", "b"}, map[string][]string{"a": {"b"}})
	first := doJSON(t, srv.Handler(), "POST", "/v1/layout", body)
	out := decodeBody[engine.Output](t, first)

	body["previousState"] = out.Metadata.State
	second := doJSON(t, srv.Handler(), "POST", "/v1/layout", body)
	if second.Code != http.StatusOK {
		t.Fatalf("second frame: status = %d", second.Code)
	}
	out2 := decodeBody[engine.Output](t, second)

	// Unchanged graph with threaded state keeps its identities.
	if out2.Layout.Communities[0].CommunityID != out.Layout.Communities[0].CommunityID {
		t.Error("community identity lost between frames")
	}
}

func TestComputeLayoutInvalidStrategy(t *testing.T) {
	srv := newTestServer(t, nil)

	body := frameBody([]string{"a"}, nil)
	body["strategy"] = "definitely-not-real"
	rec := doJSON(t, srv.Handler(), "POST", "/v1/layout", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestComputeLayoutMalformedJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/v1/layout", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "GET", "/v1/strategies", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[strategiesResponse](t, rec)
	if resp.Default != "force" {
		t.Errorf("default = %q", resp.Default)
	}
	found := false
	for _, s := range resp.Strategies {
		if s == "radial" {
			found = true
		}
	}
	if !found {
		t.Errorf("radial missing from %v", resp.Strategies)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	// Create with explicit ID.
	rec := doJSON(t, h, "POST", "/v1/sessions", map[string]string{"sessionId": "demo-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Duplicate create conflicts.
	rec = doJSON(t, h, "POST", "/v1/sessions", map[string]string{"sessionId": "demo-1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: status = %d", rec.Code)
	}

	// Two frames against the session; state is threaded server-side.
	body := frameBody([]string{"a", "b", "c"}, map[string][]string{"a": {"b", "c"}})
	first := doJSON(t, h, "POST", "/v1/sessions/demo-1/frames", body)
	if first.Code != http.StatusOK {
		t.Fatalf("frame 1: status = %d, body = %s", first.Code, first.Body.String())
	}
	out1 := decodeBody[engine.Output](t, first)

	second := doJSON(t, h, "POST", "/v1/sessions/demo-1/frames", body)
	out2 := decodeBody[engine.Output](t, second)
	if out2.Layout.Communities[0].CommunityID != out1.Layout.Communities[0].CommunityID {
		t.Error("session did not thread state between frames")
	}

	// Listing shows the session with its frame count.
	rec = doJSON(t, h, "GET", "/v1/sessions", nil)
	list := decodeBody[listSessionsResponse](t, rec)
	if len(list.Sessions) != 1 || list.Sessions[0].SessionID != "demo-1" {
		t.Fatalf("list = %+v", list)
	}
	if list.Sessions[0].Frames != 2 {
		t.Errorf("frames = %d, want 2", list.Sessions[0].Frames)
	}

	// Get then delete.
	rec = doJSON(t, h, "GET", "/v1/sessions/demo-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	rec = doJSON(t, h, "DELETE", "/v1/sessions/demo-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = doJSON(t, h, "GET", "/v1/sessions/demo-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d", rec.Code)
	}
}

func TestSessionDeleteUnknown(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	rec := doJSON(t, h, "DELETE", "/v1/sessions/never-created", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete unknown: status = %d, want 404", rec.Code)
	}

	// A second delete of a real session is also a 404.
	doJSON(t, h, "POST", "/v1/sessions", map[string]string{"sessionId": "once"})
	if rec := doJSON(t, h, "DELETE", "/v1/sessions/once", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("first delete: status = %d", rec.Code)
	}
	if rec := doJSON(t, h, "DELETE", "/v1/sessions/once", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}
}

// spanStore counts how many load-to-save spans are open at once, which is
// how a forked snapshot lineage would show up.
type spanStore struct {
	statestore.Store
	mu      sync.Mutex
	open    int
	maxOpen int
}

func (s *spanStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := s.Store.Load(ctx, sessionID)
	if err == nil {
		s.mu.Lock()
		s.open++
		if s.open > s.maxOpen {
			s.maxOpen = s.open
		}
		s.mu.Unlock()
	}
	return state, err
}

func (s *spanStore) Save(ctx context.Context, sessionID string, state []byte) error {
	err := s.Store.Save(ctx, sessionID, state)
	s.mu.Lock()
	if s.open > 0 {
		s.open--
	}
	s.mu.Unlock()
	return err
}

func TestSessionFramesSerialized(t *testing.T) {
	store := &spanStore{Store: statestore.NewMemoryStore()}
	srv := newTestServer(t, func(_ *Config, d *Deps) {
		d.Store = store
	})
	h := srv.Handler()

	rec := doJSON(t, h, "POST", "/v1/sessions", map[string]string{"sessionId": "busy"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	const frames = 8
	var wg sync.WaitGroup
	codes := make([]int, frames)
	for i := 0; i < frames; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := frameBody([]string{"a", "b", "c", "d"},
				map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"d"}})
			codes[i] = doJSON(t, h, "POST", "/v1/sessions/busy/frames", body).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Fatalf("frame %d: status = %d", i, code)
		}
	}
	if store.maxOpen != 1 {
		t.Errorf("concurrent load-to-save spans = %d, want 1", store.maxOpen)
	}
	if got := srv.frameSeq("busy"); got != frames {
		t.Errorf("frame count = %d, want %d", got, frames)
	}
}

func TestSessionFrameUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/sessions/nope/frames",
		frameBody([]string{"a"}, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSessionCreateGeneratesID(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[createSessionResponse](t, rec)
	if resp.SessionID == "" {
		t.Fatal("no session ID generated")
	}
}

func TestSessionInvalidID(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "POST", "/v1/sessions",
		map[string]string{"sessionId": "bad session!"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSessionFramesBroadcast(t *testing.T) {
	broker := stream.NewBroker()
	srv := newTestServer(t, func(_ *Config, d *Deps) {
		d.Broker = broker
	})
	h := srv.Handler()

	doJSON(t, h, "POST", "/v1/sessions", map[string]string{"sessionId": "watched"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := broker.Subscribe(ctx, "watched")
	if sub == nil {
		t.Fatal("subscribe returned nil")
	}

	doJSON(t, h, "POST", "/v1/sessions/watched/frames",
		frameBody([]string{"a", "b"}, map[string][]string{"a": {"b"}}))

	select {
	case event := <-sub.Channel():
		if event.SessionID != "watched" || event.Frame != 0 {
			t.Errorf("event = session %q frame %d", event.SessionID, event.Frame)
		}
		if event.Output == nil || len(event.Output.Layout.NodeTargets) != 2 {
			t.Error("event missing layout")
		}
	case <-time.After(time.Second):
		t.Fatal("no frame event delivered")
	}
}

func TestAuthProtectsEndpoints(t *testing.T) {
	users := auth.NewUserStore()
	if err := users.Add("u1", "op", "op-password-1", auth.RoleOperator); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := users.Add("u2", "watcher", "watch-pass-1", auth.RoleViewer); err != nil {
		t.Fatalf("add user: %v", err)
	}

	secret := "0123456789abcdef0123456789abcdef"
	jwtManager, err := auth.NewJWTManager(secret, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	srv := newTestServer(t, func(c *Config, d *Deps) {
		c.AuthEnabled = true
		c.JWTSecret = secret
		d.JWT = jwtManager
		d.Users = users
	})
	h := srv.Handler()

	// Unauthenticated compute is rejected.
	rec := doJSON(t, h, "POST", "/v1/layout", frameBody([]string{"a"}, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status = %d", rec.Code)
	}

	// Login as operator.
	rec = doJSON(t, h, "POST", "/v1/auth/login",
		map[string]string{"username": "op", "password": "op-password-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	tokens := decodeBody[tokenResponse](t, rec)

	// Operator can compute.
	req := httptest.NewRequest("POST", "/v1/layout", jsonReader(t, frameBody([]string{"a"}, nil)))
	req.Header.Set("Authorization", "Bearer "+tokens.Token)
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Fatalf("operator compute: status = %d, body = %s", authed.Code, authed.Body.String())
	}

	// Viewer cannot compute but can list.
	rec = doJSON(t, h, "POST", "/v1/auth/login",
		map[string]string{"username": "watcher", "password": "watch-pass-1"})
	viewerTokens := decodeBody[tokenResponse](t, rec)

	req = httptest.NewRequest("POST", "/v1/layout", jsonReader(t, frameBody([]string{"a"}, nil)))
	req.Header.Set("Authorization", "Bearer "+viewerTokens.Token)
	denied := httptest.NewRecorder()
	h.ServeHTTP(denied, req)
	if denied.Code != http.StatusForbidden {
		t.Fatalf("viewer compute: status = %d", denied.Code)
	}

	req = httptest.NewRequest("GET", "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+viewerTokens.Token)
	listed := httptest.NewRecorder()
	h.ServeHTTP(listed, req)
	if listed.Code != http.StatusOK {
		t.Fatalf("viewer list: status = %d", listed.Code)
	}

	// Refresh produces a working access token.
	rec = doJSON(t, h, "POST", "/v1/auth/refresh",
		map[string]string{"refreshToken": tokens.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	refreshed := decodeBody[tokenResponse](t, rec)
	if refreshed.Token == "" || refreshed.Role != auth.RoleOperator {
		t.Errorf("refreshed = %+v", refreshed)
	}

	// Bad credentials are rejected without detail.
	rec = doJSON(t, h, "POST", "/v1/auth/login",
		map[string]string{"username": "op", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status = %d", rec.Code)
	}
}

func jsonReader(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &buf
}

func TestBodyLimitApplied(t *testing.T) {
	srv := newTestServer(t, func(c *Config, _ *Deps) {
		c.MaxBodyBytes = 64
	})

	big := frameBody([]string{"node-with-a-rather-long-identifier-0001",
		"node-with-a-rather-long-identifier-0002"}, nil)
	rec := doJSON(t, srv.Handler(), "POST", "/v1/layout", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), "GET", "/v1/strategies", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID")
	}
}

func TestServerCloseStopsLimiter(t *testing.T) {
	srv := newTestServer(t, func(c *Config, _ *Deps) {
		c.RequestsPerSecond = 10
		c.BurstSize = 20
	})
	if srv.limiter == nil {
		t.Fatal("rate limiting enabled but no limiter built")
	}
	srv.Close()
	srv.Close() // safe to repeat

	// Without a limiter, Close is a no-op.
	newTestServer(t, nil).Close()
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	c.ListenAddr = ""
	if err := c.Validate(); err == nil {
		t.Error("empty listen addr accepted")
	}

	c = DefaultConfig()
	c.AuthEnabled = true
	c.JWTSecret = "too-short"
	if err := c.Validate(); err == nil {
		t.Error("short secret accepted with auth enabled")
	}
}
