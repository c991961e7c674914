package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxyuan/draw-guess/internal/config"
)

const testRoundDuration = time.Minute

// fakeSession 测试用会话，记录收到的所有消息
type fakeSession struct {
	key  string
	addr string

	mu        sync.Mutex
	lines     [][]byte
	videos    [][]byte
	failSend  bool
	dropVideo bool
	closed    bool
}

func newFakeSession(key string) *fakeSession {
	return &fakeSession{key: key, addr: "10.0.0.1:" + key}
}

func (f *fakeSession) Key() string { return f.key }

func (f *fakeSession) Send(line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return assert.AnError
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSession) SendVideo(line []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropVideo {
		return false
	}
	f.videos = append(f.videos, line)
	return true
}

func (f *fakeSession) RemoteAddr() string { return f.addr }

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSession) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.lines))
	copy(out, f.lines)
	return out
}

func newTestRegistry() *Registry {
	return NewRegistry(config.Default().Game)
}

func TestAddSession_FirstPlayerIsHost(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	host := reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	assert.True(t, host)

	host = reg.AddSession("ROOM", newFakeSession("s2"), "Bob")
	assert.False(t, host)

	assert.Equal(t, 2, reg.PlayerCount("ROOM"))
}

func TestAddSession_SameNameSharesPlayer(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	reg.AddSession("ROOM", newFakeSession("s2"), "Alice")

	// 同名两条会话只算一个玩家
	assert.Equal(t, 1, reg.PlayerCount("ROOM"))
	assert.Len(t, reg.Sessions("ROOM"), 2)

	// 一条断开后逻辑玩家仍在
	reg.RemoveSession("ROOM", "s1")
	assert.Equal(t, 1, reg.PlayerCount("ROOM"))

	// 最后一条断开后移出名册
	reg.RemoveSession("ROOM", "s2")
	assert.Equal(t, 0, reg.PlayerCount("ROOM"))
}

func TestAddSession_ReplaysHistoryBeforeLiveTraffic(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	reg.AppendHistory("ROOM", []byte(`{"x1":1}`))
	reg.AppendHistory("ROOM", []byte(`{"x1":2}`))

	late := newFakeSession("s2")
	reg.AddSession("ROOM", late, "Bob")
	reg.Broadcast("ROOM", []byte(`{"x1":3}`), "")

	lines := late.received()
	require.Len(t, lines, 3)
	assert.Equal(t, `{"x1":1}`, string(lines[0]))
	assert.Equal(t, `{"x1":2}`, string(lines[1]))
	assert.Equal(t, `{"x1":3}`, string(lines[2]))
}

func TestAddSession_LateJoinerGetsRoundSync(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	reg.AddSession("ROOM", newFakeSession("s2"), "Bob")

	reg.SetRoundActive("ROOM", true)
	require.Equal(t, "Alice", reg.SelectDrawer("ROOM"))
	reg.StartTimer("ROOM", testRoundDuration, func(string) {})

	late := newFakeSession("s3")
	reg.AddSession("ROOM", late, "Carol")

	lines := late.received()
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"game_start"`)
	assert.Contains(t, string(lines[1]), `"drawer_assign"`)
	assert.Contains(t, string(lines[1]), "Alice")
}

func TestAddProxyPlayer_Idempotent(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	key1, host1 := reg.AddProxyPlayer("ROOM", "Alice")
	key2, host2 := reg.AddProxyPlayer("ROOM", "Alice")

	assert.Equal(t, "web_Alice", key1)
	assert.Equal(t, key1, key2)
	assert.True(t, host1)
	assert.True(t, host2)
	assert.Equal(t, 1, reg.PlayerCount("ROOM"))
}

func TestHostIsSticky(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	reg.AddSession("ROOM", newFakeSession("s2"), "Bob")

	assert.True(t, reg.IsHost("ROOM", "s1"))
	assert.False(t, reg.IsHost("ROOM", "s2"))

	// 房主离开后房主身份不转移
	reg.RemoveSession("ROOM", "s1")
	assert.False(t, reg.IsHost("ROOM", "s2"))
}

func TestSetReadyAndAllReady(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")

	// 单人房永不就绪
	assert.False(t, reg.AllReady("ROOM"))

	reg.AddSession("ROOM", newFakeSession("s2"), "Bob")
	assert.False(t, reg.AllReady("ROOM"))

	reg.SetReady("ROOM", "s2", true)
	assert.True(t, reg.AllReady("ROOM"))

	reg.SetReady("ROOM", "s2", false)
	assert.False(t, reg.AllReady("ROOM"))

	// 按名字设置（管理接口路径）
	assert.True(t, reg.SetReadyByName("ROOM", "Bob", true))
	assert.True(t, reg.AllReady("ROOM"))
	assert.False(t, reg.SetReadyByName("ROOM", "Nobody", true))
}

func TestToggleReadyByName(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddSession("ROOM", newFakeSession("s1"), "Alice")
	reg.AddSession("ROOM", newFakeSession("s2"), "Bob")

	ready, ok := reg.ToggleReadyByName("ROOM", "Bob")
	assert.True(t, ok)
	assert.True(t, ready)
	assert.True(t, reg.AllReady("ROOM"))

	// 再翻一次取消就绪
	ready, ok = reg.ToggleReadyByName("ROOM", "Bob")
	assert.True(t, ok)
	assert.False(t, ready)
	assert.False(t, reg.AllReady("ROOM"))

	_, ok = reg.ToggleReadyByName("ROOM", "Nobody")
	assert.False(t, ok)
}

func TestSessionsByNameAndAddr(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	s1 := newFakeSession("s1")
	s2 := newFakeSession("s2")
	s3 := newFakeSession("s3")
	reg.AddSession("ROOM", s1, "Alice")
	reg.AddSession("ROOM", s2, "Alice")
	reg.AddSession("ROOM", s3, "Bob")

	assert.Len(t, reg.SessionsByName("ROOM", "Alice"), 2)
	assert.Len(t, reg.SessionsByName("ROOM", "Bob"), 1)
	assert.Empty(t, reg.SessionsByName("ROOM", "Nobody"))

	matched := reg.SessionsByAddr("ROOM", []string{s1.addr, s3.addr})
	assert.Len(t, matched, 2)
}

func TestCleanup_RemovesEmptyRooms(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.CreateIfMissing("EMPTY")
	reg.AddSession("BUSY", newFakeSession("s1"), "Alice")

	reg.Cleanup()

	assert.False(t, reg.Exists("EMPTY"))
	assert.True(t, reg.Exists("BUSY"))
}

func TestCleanup_KeepsProxyOnlyRooms(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	reg.AddProxyPlayer("WEB", "Alice")

	reg.Cleanup()

	// 代理玩家占着目录条目，房间不算空置
	assert.True(t, reg.Exists("WEB"))
}

func TestGenerateRoomID(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := reg.GenerateRoomID()
		assert.Len(t, id, roomIDLength)
		reg.CreateIfMissing(id)
		assert.False(t, seen[id], "房间号重复: %s", id)
		seen[id] = true
	}
}
