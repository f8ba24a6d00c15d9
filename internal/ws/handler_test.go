package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuallego/backend/internal/auth"
	"github.com/virtuallego/backend/internal/config"
	"github.com/virtuallego/backend/internal/lego"
	"github.com/virtuallego/backend/internal/table"
)

const secret = "ws-secret"

type harness struct {
	manager *table.Manager
	hub     *Hub
	server  *httptest.Server
}

func setup(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{MaxTables: 10, SnapshotEveryTicks: 30, TableIdleSeconds: 600, JWTSecret: secret}
	m := table.NewManager(nil, nil, cfg)
	h := NewHub(m)
	m.SetBroadcaster(h)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	r := gin.New()
	r.GET("/api/v1/table/:token/ws", HandleWebSocket(h, secret))
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &harness{manager: m, hub: h, server: srv}
}

func (hs *harness) dial(t *testing.T, tableToken string, role auth.Role, playerID string) *websocket.Conn {
	t.Helper()
	pt, err := auth.IssueToken(secret, tableToken, playerID, role, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(hs.server.URL, "http") + "/api/v1/table/" + tableToken + "/ws?pt=" + pt
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readType reads until a message of the wanted type arrives.
func readType(t *testing.T, conn *websocket.Conn, want string) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", want)
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		var typ string
		require.NoError(t, json.Unmarshal(msg["type"], &typ))
		if typ == want {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: typ, Data: raw}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestConnectReceivesState(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)

	conn := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	msg := readType(t, conn, table.MsgFrame)

	var snap lego.Snapshot
	require.NoError(t, json.Unmarshal(msg["snapshot"], &snap))
	assert.Equal(t, lego.RoundIdle, snap.Round)
	assert.Len(t, snap.Targets, lego.NumTargets)
	assert.Equal(t, 1, hs.hub.RoomSize(tbl.Token))
}

func TestPlayerInputDrivesTable(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	conn := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, conn, table.MsgFrame)

	send(t, conn, "steer", SteerData{Delta: 0.5})
	waitFor(t, func() bool { return tbl.Snapshot().Control.Position.Z > 0.49 })

	send(t, conn, "nudge", NudgeData{Direction: "left"})
	waitFor(t, func() bool { return tbl.Snapshot().Control.Position.Z < 0.41 })

	send(t, conn, "launch", nil)
	waitFor(t, func() bool { return tbl.Snapshot().Round == lego.RoundActive })

	send(t, conn, "launch", nil)
	msg := readType(t, conn, "error")
	assert.Contains(t, string(msg["message"]), "Round already in progress")

	hs.manager.Tick(time.Now())
	frame := readType(t, conn, table.MsgFrame)
	var snap lego.Snapshot
	require.NoError(t, json.Unmarshal(frame["snapshot"], &snap))
	assert.Equal(t, lego.RoundActive, snap.Round)
}

func TestSpectatorIsReadOnly(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	conn := hs.dial(t, tbl.Token, auth.RoleSpectator, "s1")
	readType(t, conn, table.MsgFrame)

	send(t, conn, "launch", nil)
	msg := readType(t, conn, "error")
	assert.Contains(t, string(msg["message"]), "Spectators")
	assert.Equal(t, lego.RoundIdle, tbl.Snapshot().Round)

	send(t, conn, "get_state", nil)
	readType(t, conn, table.MsgFrame)
}

func TestUnknownMessage(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	conn := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, conn, table.MsgFrame)

	send(t, conn, "teleport", nil)
	msg := readType(t, conn, "error")
	assert.Contains(t, string(msg["message"]), "Unknown message type")
}

func TestRejectsBadTokens(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	other, err := hs.manager.CreateTable("")
	require.NoError(t, err)

	base := "ws" + strings.TrimPrefix(hs.server.URL, "http") + "/api/v1/table/" + tbl.Token + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?pt=junk", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	pt, _ := auth.IssueToken(secret, other.Token, "p1", auth.RolePlayer, time.Hour)
	_, resp, err = websocket.DefaultDialer.Dial(base+"?pt="+pt, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestClosedTableDropsRoom(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	conn := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, conn, table.MsgFrame)

	require.NoError(t, hs.manager.CloseTable(tbl.Token, "owner"))

	msg := readType(t, conn, table.MsgTableClosed)
	assert.JSONEq(t, `"owner"`, string(msg["reason"]))
	waitFor(t, func() bool { return hs.hub.RoomSize(tbl.Token) == 0 })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestRelayDeliversPublishedEvents(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)
	conn := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, conn, table.MsgFrame)

	payload, err := json.Marshal(table.TableEvent{
		Type:       table.MsgRoundReset,
		TableToken: tbl.Token,
		Round:      &lego.RoundStats{Number: 3, TargetsCleared: 7, Frames: 120},
	})
	require.NoError(t, err)
	hs.hub.relay(payload)
	hs.hub.relay([]byte("not json"))

	msg := readType(t, conn, table.MsgRoundReset)
	var stats lego.RoundStats
	require.NoError(t, json.Unmarshal(msg["round"], &stats))
	assert.Equal(t, 7, stats.TargetsCleared)
}

func TestReconnectReplacesOldConnection(t *testing.T) {
	hs := setup(t)
	tbl, err := hs.manager.CreateTable("")
	require.NoError(t, err)

	first := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, first, table.MsgFrame)
	second := hs.dial(t, tbl.Token, auth.RolePlayer, "p1")
	readType(t, second, table.MsgFrame)

	assert.Equal(t, 1, hs.hub.RoomSize(tbl.Token))
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
}

func TestRegisterDoesNotWaitOnTableLookup(t *testing.T) {
	// no manager: any table lookup from the hub loop would panic
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	for _, id := range []string{"a", "b"} {
		c := &Client{hub: h, playerID: id, tableToken: "t1", send: make(chan []byte, 1), ready: make(chan struct{})}
		h.register <- c
		select {
		case <-c.ready:
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s never registered", id)
		}
	}

	assert.Equal(t, 2, h.RoomSize("t1"))
}
