package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/discovery"
)

type fakeSource struct {
	mu       sync.Mutex
	running  bool
	services []discovery.Service
}

func (f *fakeSource) Services() []discovery.Service {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	return append([]discovery.Service(nil), f.services...)
}

func (f *fakeSource) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

var seen = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testServices() []discovery.Service {
	return []discovery.Service{
		{Hostname: "web1", Name: "alpha", Address: "10.0.0.1", Port: 80, LastSeen: seen},
		{Hostname: "web1", Name: "beta", Address: "10.0.0.1", Port: 443, Secure: true, LastSeen: seen},
		{Hostname: "web2", Name: "alpha", Address: "10.0.0.2", Port: 80, LastSeen: seen},
	}
}

func newTestServer(t *testing.T, src *fakeSource) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	discovery.NewMetrics(reg).AnnouncementsSent.Add(3)
	return New(src, WithLogger(zap.NewNop()), WithGatherer(reg))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetServices(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		src       *fakeSource
		wantCode  int
		wantCount int
	}{
		{"all", "/services", &fakeSource{running: true, services: testServices()}, http.StatusOK, 3},
		{"by name", "/services?name=alpha", &fakeSource{running: true, services: testServices()}, http.StatusOK, 2},
		{"idle", "/services", &fakeSource{}, http.StatusOK, 0},
		{"by address", "/services/10.0.0.1", &fakeSource{running: true, services: testServices()}, http.StatusOK, 2},
		{"unknown address", "/services/10.0.0.9", &fakeSource{running: true, services: testServices()}, http.StatusNotFound, 0},
		{"bad address", "/services/not-an-ip", &fakeSource{running: true}, http.StatusBadRequest, 0},
		{"ipv6 address", "/services/::1", &fakeSource{running: true}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(t, tt.src), tt.path)
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode != http.StatusOK {
				var body ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body.Error)
				return
			}

			var body ServicesResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.src.running, body.Running)
			assert.Equal(t, tt.wantCount, body.Count)
			assert.Len(t, body.Services, tt.wantCount)
		})
	}
}

func TestGetServicesEmptyListIsArray(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeSource{}), "/services")
	assert.JSONEq(t, `{"running":false,"count":0,"services":[]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	src := &fakeSource{}
	s := newTestServer(t, src)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"idle"}`, rec.Body.String())

	src.running = true
	rec = get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeSource{}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nsd_announcements_sent_total 3")
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, newTestServer(t, &fakeSource{}), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) ServicesResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServicesResponse
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketStream(t *testing.T) {
	src := &fakeSource{running: true, services: testServices()[:1]}
	s := newTestServer(t, src)
	conn := dialWS(t, s)

	first := readSnapshot(t, conn)
	assert.True(t, first.Running)
	require.Len(t, first.Services, 1)
	assert.Equal(t, "alpha", first.Services[0].Name)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Publish(testServices())
	s.Publish(nil)

	second := readSnapshot(t, conn)
	assert.Equal(t, 3, second.Count)
	third := readSnapshot(t, conn)
	assert.Equal(t, 0, third.Count)
	assert.NotNil(t, third.Services)
}

func TestWebSocketClientDisconnect(t *testing.T) {
	s := newTestServer(t, &fakeSource{running: true})
	conn := dialWS(t, s)
	readSnapshot(t, conn)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing with no subscribers is harmless
	s.Publish(testServices())
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, &fakeSource{running: true, services: testServices()})
	require.NoError(t, s.Start("127.0.0.1:0"))
	require.NotNil(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readSnapshot(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.Zero(t, s.ClientCount())

	// The server sends a close frame to subscribers
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestStartInvalidAddress(t *testing.T) {
	s := newTestServer(t, &fakeSource{})
	assert.Error(t, s.Start("127.0.0.1:99999"))
}
