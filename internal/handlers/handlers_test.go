package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stefjnl/secret-hitler-online-game/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()
	store := session.NewStore(zaptest.NewLogger(t), session.Options{
		BotDelayMin:      time.Millisecond,
		BotDelayMax:      2 * time.Millisecond,
		BotErrorRate:     -1,
		AvoidEarlyHitler: true,
	}, time.Hour, time.Hour)

	h := &Context{
		Logger:  zaptest.NewLogger(t),
		Store:   store,
		BaseURL: "http://example.test",
	}
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateJoinStartFlow(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]any{"name": "Alice", "bots": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]string](t, resp)
	code := created["code"]
	hostID := created["player_id"]
	require.NotEmpty(t, code)
	require.NotEmpty(t, hostID)
	defer store.Delete(code)

	resp = postJSON(t, srv.URL+"/api/sessions/"+code+"/join", map[string]string{"name": "Bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decode[map[string]string](t, resp)
	require.NotEmpty(t, joined["player_id"])

	// Duplicate names conflict.
	resp = postJSON(t, srv.URL+"/api/sessions/"+code+"/join", map[string]string{"name": "Bob"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/sessions/"+code+"/start", map[string]string{"player_id": hostID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Acting before one's turn is forbidden at the boundary.
	resp = postJSON(t, srv.URL+"/api/sessions/"+code+"/nominate", map[string]string{
		"player_id": hostID, "target_id": joined["player_id"],
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "still in role reveal")
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/" + code + "/state?player_id=" + hostID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[session.StateView](t, resp)
	assert.True(t, state.Started)
	assert.Len(t, state.Players, 5)

	resp, err = http.Get(srv.URL + "/api/sessions/" + code + "/actions?player_id=" + hostID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/sessions/" + code + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[map[string]any](t, resp)
	assert.NotEmpty(t, history["events"])
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions/NOPE99/join", map[string]string{"name": "Bob"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/NOPE99/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateSessionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestListSessions(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]string](t, resp)
	defer store.Delete(created["code"])

	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	listed := decode[[]map[string]any](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, created["code"], listed[0]["code"])
	assert.Equal(t, float64(1), listed[0]["players"])
}

func TestJoinQRServesPNG(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", map[string]any{"name": "Alice"})
	created := decode[map[string]string](t, resp)
	defer store.Delete(created["code"])

	qr, err := http.Get(fmt.Sprintf("%s/api/sessions/%s/qr", srv.URL, created["code"]))
	require.NoError(t, err)
	defer qr.Body.Close()
	assert.Equal(t, http.StatusOK, qr.StatusCode)
	assert.Equal(t, "image/png", qr.Header.Get("Content-Type"))
}
