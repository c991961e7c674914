package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxyuan/draw-guess/internal/config"
	"github.com/kxyuan/draw-guess/internal/protocol"
	"github.com/kxyuan/draw-guess/internal/server"
)

func newTestAPI(t *testing.T) (*httptest.Server, *server.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.Game.RestartDelay = 3600

	srv, err := server.NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(NewRouter(srv))
	t.Cleanup(ts.Close)
	return ts, srv
}

func postAction(t *testing.T, ts *httptest.Server, body map[string]any) (int, map[string]any) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/action", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func getJSON(t *testing.T, ts *httptest.Server, path string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func joinPlayer(t *testing.T, srv *server.Server, roomID, name string) {
	t.Helper()
	_, err := srv.JoinRoom(roomID, name)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts, _ := newTestAPI(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndJoinRoom(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)

	status, out := postAction(t, ts, map[string]any{"action": "create_room"})
	require.Equal(t, http.StatusOK, status)
	roomID, _ := out["room_id"].(string)
	require.Len(t, roomID, 4)

	status, out = postAction(t, ts, map[string]any{
		"action": "join_room", "room_id": roomID, "player_name": "Alice",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["is_host"])
	assert.Equal(t, 1, srv.Registry().PlayerCount(roomID))

	// 第二个进来的不是房主
	status, out = postAction(t, ts, map[string]any{
		"action": "join_room", "room_id": roomID, "player_name": "Bob",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["is_host"])
}

func TestReadyUp_Toggle(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")

	status, out := postAction(t, ts, map[string]any{
		"action": "ready_up", "room_id": "ROOM", "player_name": "Alice",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["ready"])

	// 再点一次取消准备
	status, out = postAction(t, ts, map[string]any{
		"action": "ready_up", "room_id": "ROOM", "player_name": "Alice",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["ready"])
}

func TestStartGame_ReadyGate(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")
	joinPlayer(t, srv, "ROOM", "Bob")

	// Bob 未准备，开局被拒
	status, out := postAction(t, ts, map[string]any{"action": "start_game", "room_id": "ROOM"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, float64(protocol.ErrCodeNotReady), out["code"])

	status, _ = postAction(t, ts, map[string]any{
		"action": "ready_up", "room_id": "ROOM", "player_name": "Bob",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = postAction(t, ts, map[string]any{"action": "start_game", "room_id": "ROOM"})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, srv.Registry().RoundActive("ROOM"))
}

func TestStrokeAndHistory(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")

	status, _ := postAction(t, ts, map[string]any{
		"action":      "send_stroke",
		"room_id":     "ROOM",
		"player_name": "Alice",
		"stroke":      map[string]any{"x1": 1.0, "y1": 2.0, "x2": 3.0, "y2": 4.0, "color": "#000", "thickness": 3},
	})
	require.Equal(t, http.StatusOK, status)

	status, out := getJSON(t, ts, "/api/history?room_id=ROOM&offset=0")
	require.Equal(t, http.StatusOK, status)

	history, _ := out["history"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, float64(1), out["next_offset"])

	// 笔画字段与路由字段摊平在同一层
	line, _ := history[0].(map[string]any)
	assert.Equal(t, "stroke", line["action"])
	assert.Equal(t, "ROOM", line["room_id"])
	assert.Equal(t, "Alice", line["player_name"])
	assert.Equal(t, float64(1), line["x1"])

	// 增量拉取
	status, out = getJSON(t, ts, "/api/history?room_id=ROOM&offset=1")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["history"])
}

func TestClearCanvas(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")

	status, _ := postAction(t, ts, map[string]any{
		"action": "clear_canvas", "room_id": "ROOM", "player_name": "Alice",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, srv.Registry().HistoryLen("ROOM"))
}

func TestState(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")
	require.NoError(t, srv.SendChat("ROOM", "welcome"))

	status, out := getJSON(t, ts, "/api/state")
	require.Equal(t, http.StatusOK, status)
	rooms, _ := out["rooms"].(map[string]any)
	require.Contains(t, rooms, "ROOM")

	status, out = getJSON(t, ts, "/api/state/ROOM")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["player_count"])
	chat, _ := out["chat_history"].([]any)
	require.Len(t, chat, 1)
	assert.Equal(t, "ADMIN: welcome", chat[0])

	status, _ = getJSON(t, ts, "/api/state/NOPE")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAction_Errors(t *testing.T) {
	t.Parallel()

	ts, _ := newTestAPI(t)

	// 未知动作
	status, out := postAction(t, ts, map[string]any{"action": "dance"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", out["status"])

	// 不存在的房间
	status, out = postAction(t, ts, map[string]any{
		"action": "send_chat", "room_id": "NOPE", "text": "hi",
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, float64(protocol.ErrCodeRoomNotFound), out["code"])
}

func TestVideoFrame(t *testing.T) {
	t.Parallel()

	ts, srv := newTestAPI(t)
	joinPlayer(t, srv, "ROOM", "Alice")

	// 还没有帧
	status, out := getJSON(t, ts, "/api/video?room_id=ROOM")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, out["frame"])

	srv.Registry().RecordVideoFrame("ROOM", []byte(`{"action":"video_frame","room_id":"ROOM","player_name":"Alice","data":"abc"}`))

	status, out = getJSON(t, ts, "/api/video?room_id=ROOM")
	require.Equal(t, http.StatusOK, status)
	frame, _ := out["frame"].(map[string]any)
	require.NotNil(t, frame)
	assert.Equal(t, "abc", frame["data"])

	status, _ = getJSON(t, ts, "/api/video?room_id=NOPE")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLeaderboard_DisabledRedis(t *testing.T) {
	t.Parallel()

	ts, _ := newTestAPI(t)

	status, out := getJSON(t, ts, "/api/leaderboard")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, out["leaderboard"])
}
