package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/deck"
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/jason-s-yu/gpcards/internal/hub"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	ts, srv := newTestServer(t, false)
	srv.Store.Create(models.DefaultSettings())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["sessions"])
}

// getFromOrigin issues a cross-origin GET the way a browser page would.
func getFromOrigin(t *testing.T, url, origin string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSessionListDisabledByDefault(t *testing.T) {
	ts, srv := newTestServer(t, false)
	srv.Store.Create(models.DefaultSettings())

	resp := getFromOrigin(t, ts.URL+"/sessions", "https://evil.example")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionListForOperators(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := hub.New(logger)
	store := game.NewSessionStore(deck.Empty(), nil, SnapshotBroadcaster(h))
	srv := NewSessionServer(store, h, logger)
	srv.ListSessions = true
	ts := httptest.NewServer(NewRouter(srv, nil))
	t.Cleanup(ts.Close)
	session := store.Create(models.DefaultSettings())

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []game.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, session.ID, list[0].ID)

	cross := getFromOrigin(t, ts.URL+"/sessions", "https://evil.example")
	defer cross.Body.Close()
	assert.Empty(t, cross.Header.Get("Access-Control-Allow-Origin"), "the listing is never shared cross-origin")

	health := getFromOrigin(t, ts.URL+"/healthz", "https://evil.example")
	defer health.Body.Close()
	assert.Equal(t, "https://evil.example", health.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetSession(t *testing.T) {
	ts, srv := newTestServer(t, false)
	session := srv.Store.Create(models.DefaultSettings())

	resp, err := http.Get(ts.URL + "/session/" + session.ID.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap game.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, session.ID, snap.ID)
	assert.Equal(t, game.StatusLobby, snap.State.Status)

	resp2, err := http.Get(ts.URL + "/session/" + uuid.NewString())
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	resp3, err := http.Get(ts.URL + "/session/nope")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestSessionQR(t *testing.T) {
	ts, srv := newTestServer(t, false)
	session := srv.Store.Create(models.DefaultSettings())

	resp, err := http.Get(ts.URL + "/session/" + session.ID.String() + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestJoinURL(t *testing.T) {
	srv := &SessionServer{}
	id := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/session/x/qr", nil)
	r.Host = "cards.local:8787"
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://cards.local:8787/?session="+id.String(), srv.joinURL(r, id))

	srv.PublicURL = "https://play.example.org/"
	assert.Equal(t, "https://play.example.org/?session="+id.String(), srv.joinURL(r, id))
}
