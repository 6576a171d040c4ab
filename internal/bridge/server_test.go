package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/villagerloot/internal/config"
	"github.com/udisondev/villagerloot/internal/host"
	"github.com/udisondev/villagerloot/internal/testutil"
)

func testBridgeConfig() config.BridgeConfig {
	cfg := config.DefaultServer().Bridge
	cfg.CommandTimeout = 2 * time.Second
	return cfg
}

func startServer(t *testing.T, cfg config.BridgeConfig) (*Server, string) {
	t.Helper()
	srv := NewServer(cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

// dialHost connects as the game host and consumes the subscribe frames.
func dialHost(t *testing.T, url string, header http.Header) (*websocket.Conn, []string) {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })

	var subs []string
	for range SubscribedEvents {
		f := readFrame(t, ws)
		require.Equal(t, PurposeSubscribe, f.Header.MessagePurpose)
		var body SubscribeBody
		require.NoError(t, json.Unmarshal(f.Body, &body))
		subs = append(subs, body.EventName)
	}
	return ws, subs
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func writeFrame(t *testing.T, ws *websocket.Conn, purpose, eventName, requestID string, body any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Frame{
		Header: Header{RequestID: requestID, MessagePurpose: purpose, EventName: eventName},
		Body:   raw,
	}))
}

// answer replies to the next command request with status and returns its line.
func answer(t *testing.T, ws *websocket.Conn, status int, msg string) string {
	t.Helper()
	f := readFrame(t, ws)
	require.Equal(t, PurposeCommandRequest, f.Header.MessagePurpose)
	var req CommandRequestBody
	require.NoError(t, json.Unmarshal(f.Body, &req))
	writeFrame(t, ws, PurposeCommandResponse, "", f.Header.RequestID,
		CommandResponseBody{StatusCode: status, StatusMessage: msg})
	return req.CommandLine
}

func TestServer_Authorization(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testBridgeConfig()
	cfg.SecretHash = string(hash)
	srv, url := startServer(t, cfg)

	for _, header := range []http.Header{
		nil,
		{"Authorization": []string{"Bearer wrong"}},
		{"Authorization": []string{"s3cret"}},
	} {
		_, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
	assert.False(t, srv.Connected())

	dialHost(t, url, http.Header{"Authorization": []string{"Bearer s3cret"}})
	assert.True(t, srv.Connected())
}

func TestServer_SubscribesAfterConnect(t *testing.T) {
	_, url := startServer(t, testBridgeConfig())

	_, subs := dialHost(t, url, nil)
	assert.Equal(t, SubscribedEvents, subs)
}

func TestServer_RunNotConnected(t *testing.T) {
	srv, _ := startServer(t, testBridgeConfig())

	_, err := srv.Run(context.Background(), "say hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestServer_CommandRoundTrip(t *testing.T) {
	srv, url := startServer(t, testBridgeConfig())
	ws, _ := dialHost(t, url, nil)

	lines := make(chan string, 2)
	go func() {
		lines <- answer(t, ws, 0, "sendcommandfeedback = true")
		lines <- answer(t, ws, 1, "Player not found")
	}()

	cmds := host.NewCommands(srv)
	v, err := cmds.GameRule(context.Background(), "sendcommandfeedback")
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, "gamerule sendcommandfeedback", <-lines)

	err = cmds.GiveItem(context.Background(), "Steve", "firework_rocket", 20)
	assert.ErrorIs(t, err, host.ErrCommandFailed)
	assert.Equal(t, `give "Steve" firework_rocket 20`, <-lines)
}

func TestServer_CommandTimeout(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.CommandTimeout = 50 * time.Millisecond
	srv, url := startServer(t, cfg)
	dialHost(t, url, nil)

	_, err := srv.Run(context.Background(), "say nobody answers")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServer_PendingCommandFailsOnDisconnect(t *testing.T) {
	srv, url := startServer(t, testBridgeConfig())
	ws, _ := dialHost(t, url, nil)

	go func() {
		readFrame(t, ws)
		ws.Close()
	}()

	_, err := srv.Run(testutil.ContextWithTimeout(t, 5*time.Second), "say bye")
	assert.ErrorIs(t, err, ErrConnClosed)
	testutil.WaitFor(t, func() bool { return !srv.Connected() }, 2*time.Second)
}

func TestServer_ForwardsEvents(t *testing.T) {
	srv, url := startServer(t, testBridgeConfig())
	ws, _ := dialHost(t, url, nil)

	writeFrame(t, ws, PurposeEvent, EventPlayerLeave, "e1", PlayerBody{ID: "p1", Name: "Steve"})

	select {
	case f := <-srv.Events():
		assert.Equal(t, EventPlayerLeave, f.Header.EventName)
		var body PlayerBody
		require.NoError(t, decodeBody(f, &body))
		assert.Equal(t, "p1", body.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestServer_FullQueueDropsEventsButKeepsReading(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.SendQueueSize = 1
	srv, url := startServer(t, cfg)
	ws, _ := dialHost(t, url, nil)

	go func() {
		f := readFrame(t, ws)
		for i := range 3 {
			writeFrame(t, ws, PurposeEvent, EventPlayerLeave, "e"+string(rune('0'+i)), PlayerBody{ID: "p"})
		}
		writeFrame(t, ws, PurposeCommandResponse, "", f.Header.RequestID, CommandResponseBody{})
	}()

	res, err := srv.Run(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Zero(t, res.StatusCode)
	assert.Len(t, srv.Events(), 1)
}

func TestServer_NewConnectionReplacesOld(t *testing.T) {
	srv, url := startServer(t, testBridgeConfig())
	first, _ := dialHost(t, url, nil)
	second, _ := dialHost(t, url, nil)

	// old connection is closed by the server
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	go answer(t, second, 0, "")
	_, err = srv.Run(context.Background(), "say hi")
	require.NoError(t, err)
}
