package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/libs/telemetry/classifier"
	"fleetconsole/backend/libs/telemetry/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var secret = []byte("live-secret")

type chanSource struct {
	ch chan models.PositionSample
}

func (s *chanSource) Subscribe(context.Context) (<-chan models.PositionSample, error) {
	return s.ch, nil
}

type refListener struct {
	refs map[string]models.DeviceRef
}

func (l refListener) OnSample(_ context.Context, sample models.PositionSample) (models.Alert, bool) {
	ref, ok := l.refs[sample.DeviceID]
	if !ok {
		return models.Alert{}, false
	}
	return classifier.BuildAlert(sample, ref), true
}

type staticScopes map[string]map[string]bool

func (s staticScopes) VisibleVehicles(_ context.Context, viewer identity.Identity) (map[string]bool, error) {
	vehicles, ok := s[viewer.UserID]
	if !ok {
		return nil, errors.New("unknown viewer")
	}
	return vehicles, nil
}

type switchableScopes struct {
	mu     sync.Mutex
	byUser map[string]map[string]bool
}

func (s *switchableScopes) VisibleVehicles(_ context.Context, viewer identity.Identity) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles, ok := s.byUser[viewer.UserID]
	if !ok {
		return nil, errors.New("unknown viewer")
	}
	return vehicles, nil
}

func (s *switchableScopes) set(userID string, vehicles map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = vehicles
}

type fixture struct {
	hub    *Hub
	source *chanSource
	srv    *httptest.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, staticScopes{
		"admin-1": {"veh-1": true, "veh-2": true},
		"dev-1":   {"veh-2": true},
	}, 0)
}

func newFixtureWith(t *testing.T, scopes ScopeResolver, refresh time.Duration) *fixture {
	t.Helper()
	source := &chanSource{ch: make(chan models.PositionSample, 8)}
	listener := refListener{refs: map[string]models.DeviceRef{
		"dev-a": {DeviceID: "dev-a", VehicleID: "veh-1", PlateNumber: "123 TU 4567"},
		"dev-b": {DeviceID: "dev-b", VehicleID: "veh-2", PlateNumber: "88 TU 1"},
	}}
	hub := NewHub(source, listener, zap.NewNop())
	hub.RefreshScopesEvery(scopes, refresh)
	server := NewServer(hub, scopes, secret, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{
		hub:    hub,
		source: source,
		srv:    httptest.NewServer(http.HandlerFunc(server.HandleWS)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		hub.Run(ctx)
		close(f.done)
	}()
	return f
}

func (f *fixture) close() {
	f.cancel()
	<-f.done
	f.srv.Close()
}

func (f *fixture) dial(t *testing.T, id identity.Identity) *websocket.Conn {
	t.Helper()
	token, err := identity.IssueToken(secret, id, time.Hour, time.Now())
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/alerts?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func readAlert(t *testing.T, conn *websocket.Conn) models.Alert {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var alert models.Alert
	require.NoError(t, json.Unmarshal(data, &alert))
	return alert
}

func TestHub_PushesAlertsToAllowedClients(t *testing.T) {
	f := newFixture(t)

	adminConn := f.dial(t, identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin})
	require.Eventually(t, func() bool { return f.hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	devConn := f.dial(t, identity.Identity{UserID: "dev-1", Role: identity.RoleDeveloper})
	require.Eventually(t, func() bool { return f.hub.Len() == 2 }, time.Second, 5*time.Millisecond)

	f.source.ch <- models.PositionSample{ID: "s-1", DeviceID: "dev-a", Speed: models.Float(150)}
	f.source.ch <- models.PositionSample{ID: "s-2", DeviceID: "ghost", Speed: models.Float(10)}
	f.source.ch <- models.PositionSample{ID: "s-3", DeviceID: "dev-b", Speed: models.Float(95.5)}

	first := readAlert(t, adminConn)
	assert.Equal(t, "s-1", first.ID)
	assert.Equal(t, models.SeverityCritical, first.Type)
	assert.Equal(t, "Overspeeding: 150 km/h", first.Description)
	second := readAlert(t, adminConn)
	assert.Equal(t, "s-3", second.ID)

	devAlert := readAlert(t, devConn)
	assert.Equal(t, "s-3", devAlert.ID)
	assert.Equal(t, "veh-2", devAlert.VehicleID)

	adminConn.Close()
	devConn.Close()
	require.Eventually(t, func() bool { return f.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	f.close()
}

func TestHub_ClosesClientsOnShutdown(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin})
	require.Eventually(t, func() bool { return f.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	f.close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
	conn.Close()
	assert.Zero(t, f.hub.Len())
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	resp, err := http.Get(f.srv.URL + "/ws/alerts?token=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWS_ScopeFailure(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	token, err := identity.IssueToken(secret, identity.Identity{UserID: "stranger", Role: identity.RoleAdmin}, time.Hour, time.Now())
	require.NoError(t, err)

	resp, err := http.Get(f.srv.URL + "/ws/alerts?token=" + token)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHub_RefreshesScopesOfOpenConnections(t *testing.T) {
	scopes := &switchableScopes{byUser: map[string]map[string]bool{
		"dev-1": {"veh-2": true},
	}}
	f := newFixtureWith(t, scopes, 10*time.Millisecond)

	conn := f.dial(t, identity.Identity{UserID: "dev-1", Role: identity.RoleDeveloper})
	require.Eventually(t, func() bool { return f.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	scopes.set("dev-1", map[string]bool{"veh-1": true})
	require.Eventually(t, func() bool {
		f.hub.mu.RLock()
		defer f.hub.mu.RUnlock()
		followed := false
		for _, c := range f.hub.clients {
			followed = c.Follows("veh-1") && !c.Follows("veh-2")
		}
		return followed
	}, time.Second, 5*time.Millisecond)

	f.source.ch <- models.PositionSample{ID: "s-1", DeviceID: "dev-b", Speed: models.Float(90)}
	f.source.ch <- models.PositionSample{ID: "s-2", DeviceID: "dev-a", Speed: models.Float(90)}

	alert := readAlert(t, conn)
	assert.Equal(t, "s-2", alert.ID)
	assert.Equal(t, "veh-1", alert.VehicleID)

	conn.Close()
	require.Eventually(t, func() bool { return f.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	f.close()
}

func TestHub_RefreshScopesKeepsSetOnFailure(t *testing.T) {
	hub := NewHub(&chanSource{}, refListener{}, zap.NewNop())
	known := NewClient("c-1", identity.Identity{UserID: "dev-1"}, map[string]bool{"veh-2": true}, nil, time.Second, zap.NewNop(), nil)
	stranger := NewClient("c-2", identity.Identity{UserID: "gone"}, map[string]bool{"veh-9": true}, nil, time.Second, zap.NewNop(), nil)
	hub.Add(known)
	hub.Add(stranger)

	hub.RefreshScopes(context.Background(), staticScopes{"dev-1": {"veh-3": true}})

	assert.True(t, known.Follows("veh-3"))
	assert.False(t, known.Follows("veh-2"))
	assert.True(t, stranger.Follows("veh-9"))
}
