package room

import (
	"log"
	"math/rand"
	"strings"
	"time"
)

// PlayerSnapshot 按名字聚合后的玩家视图。
// 同名多条会话的 ready/host 取逻辑或，分数取最大观察值。
type PlayerSnapshot struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"is_host"`
	Ready  bool   `json:"is_ready"`
	Addr   string `json:"addr"` // 该玩家全部会话的对端地址，逗号分隔
}

// RoomSnapshot 管理接口的房间只读视图
type RoomSnapshot struct {
	RoundActive   bool             `json:"round_active"`
	Drawer        string           `json:"drawer,omitempty"`
	CurrentWord   string           `json:"current_word,omitempty"`
	TimeRemaining int              `json:"time_remaining"`
	PlayerCount   int              `json:"player_count"` // 不同玩家数
	Players       []PlayerSnapshot `json:"players"`
	ChatHistory   []string         `json:"chat_history"`
	HistoryLen    int              `json:"history_len"`
}

// Snapshot 导出全部房间的聚合只读状态
func (reg *Registry) Snapshot() map[string]RoomSnapshot {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := make(map[string]RoomSnapshot, len(reg.rooms))
	for id, r := range reg.rooms {
		out[id] = reg.snapshotLocked(r)
	}
	return out
}

// SnapshotRoom 导出单个房间的聚合只读状态
func (reg *Registry) SnapshotRoom(roomID string) (RoomSnapshot, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return RoomSnapshot{}, false
	}
	return reg.snapshotLocked(r), true
}

func (reg *Registry) snapshotLocked(r *Room) RoomSnapshot {
	// 玩家名下的会话地址
	addrs := make(map[string][]string, len(r.players))
	for _, s := range r.sessions {
		name := r.dir[s.Key()]
		if addr := s.RemoteAddr(); addr != "" {
			addrs[name] = append(addrs[name], addr)
		}
	}

	players := make([]PlayerSnapshot, 0, len(r.players))
	for _, name := range r.order {
		p := r.players[name]
		players = append(players, PlayerSnapshot{
			Name:   p.Name,
			Score:  p.Score,
			IsHost: p.Host,
			Ready:  p.Ready,
			Addr:   strings.Join(addrs[name], ", "),
		})
	}

	chat := make([]string, len(r.chat))
	copy(chat, r.chat)

	remaining := 0
	if r.roundActive {
		if left := r.roundDuration - time.Since(r.roundStart); left > 0 {
			remaining = int(left.Seconds())
		}
	}

	return RoomSnapshot{
		RoundActive:   r.roundActive,
		Drawer:        r.drawer,
		CurrentWord:   r.word,
		TimeRemaining: remaining,
		PlayerCount:   len(r.players),
		Players:       players,
		ChatHistory:   chat,
		HistoryLen:    len(r.history),
	}
}

// GenerateRoomID 生成一个未占用的房间号
func (reg *Registry) GenerateRoomID() string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for {
		id := make([]byte, roomIDLength)
		for i := range id {
			id[i] = roomIDChars[rand.Intn(len(roomIDChars))]
		}
		if _, exists := reg.rooms[string(id)]; !exists {
			return string(id)
		}
	}
}

// cleanupLoop 定期清理完全空置的房间
func (reg *Registry) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		reg.Cleanup()
	}
}

// Cleanup 移除既没有会话也没有玩家条目的房间。
// 回合进行中的房间不清理（计时器还挂在上面）。
func (reg *Registry) Cleanup() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, r := range reg.rooms {
		if len(r.sessions) == 0 && len(r.dir) == 0 && !r.roundActive {
			delete(reg.rooms, id)
			log.Printf("🧹 空房间 %s 已清理", id)
		}
	}
}
