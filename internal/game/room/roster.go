package room

import (
	"log"
	"time"

	"github.com/kxyuan/draw-guess/internal/protocol"
)

// AddSession 注册一条会话并将玩家并入名册。
// 笔画史回放与回合同步在注册的同一临界区内入队，
// 保证严格先于之后任何广播进入该会话的出站队列。
// 返回该玩家是否为房主（首个不同名玩家）。
func (reg *Registry) AddSession(roomID string, s Session, name string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.createIfMissingLocked(roomID)
	r.sessions = append(r.sessions, s)
	host := r.addPlayerKeyLocked(s.Key(), name)

	// 回放历史笔画（入队是纯内存操作，不在锁内做网络 I/O）
	for _, line := range r.history {
		if s.Send(line) != nil {
			return host
		}
	}

	// 回合进行中时同步剩余时间与画手给后来者
	if r.roundActive {
		remaining := int((r.roundDuration - time.Since(r.roundStart)).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		_ = s.Send(protocol.MustNewRecord(protocol.ActionGameStart, remaining))
		if r.drawer != "" {
			_ = s.Send(protocol.MustEncode(&protocol.Record{
				Action:     protocol.ActionDrawerAssign,
				PlayerName: r.drawer,
			}))
		}
	}
	return host
}

// AddProxyPlayer 注册一个无传输的代理玩家（幂等），
// 返回稳定的代理键和是否为房主。
func (reg *Registry) AddProxyPlayer(roomID, name string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.createIfMissingLocked(roomID)
	key := proxyKeyPrefix + name

	if existing, ok := r.dir[key]; ok {
		return key, r.players[existing].Host
	}
	host := r.addPlayerKeyLocked(key, name)
	return key, host
}

// addPlayerKeyLocked 将一个会话键并入玩家目录，
// 名字首次出现时建立逻辑玩家。
func (r *Room) addPlayerKeyLocked(key, name string) bool {
	r.dir[key] = name

	p, ok := r.players[name]
	if !ok {
		p = &Player{
			Name: name,
			Host: len(r.players) == 0,
		}
		p.Ready = p.Host // 房主隐含已准备
		r.players[name] = p
		r.order = append(r.order, name)
		log.Printf("👤 玩家 %s 加入房间 %s (房主: %v)", name, r.ID, p.Host)
	}
	return p.Host
}

// RemoveSession 注销一条会话。只移除该会话自身的目录条目，
// 同名的其他会话不受影响；名字的最后一个键离开时移出名册。
func (reg *Registry) RemoveSession(roomID, key string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return
	}

	for i, s := range r.sessions {
		if s.Key() == key {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			break
		}
	}
	r.removePlayerKeyLocked(key)
}

func (r *Room) removePlayerKeyLocked(key string) {
	name, ok := r.dir[key]
	if !ok {
		return
	}
	delete(r.dir, key)

	// 同名还有其他键在线则保留逻辑玩家
	for _, n := range r.dir {
		if n == name {
			return
		}
	}

	delete(r.players, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Printf("👋 玩家 %s 离开房间 %s", name, r.ID)
}

// SetReady 设置准备状态。作用于逻辑玩家，
// 同名的所有会话自然共享这一份状态。
func (reg *Registry) SetReady(roomID, key string, ready bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return
	}
	name, ok := r.dir[key]
	if !ok {
		return
	}
	r.players[name].Ready = ready
	log.Printf("✅ 玩家 %s 准备状态: %v", name, ready)
}

// ToggleReadyByName 按名字翻转准备状态（管理接口使用），
// 返回翻转后的状态和玩家是否存在
func (reg *Registry) ToggleReadyByName(roomID, name string) (bool, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false, false
	}
	p, ok := r.players[name]
	if !ok {
		return false, false
	}
	p.Ready = !p.Ready
	log.Printf("✅ 玩家 %s 准备状态: %v", name, p.Ready)
	return p.Ready, true
}

// SetReadyByName 按名字设置准备状态（管理接口使用）
func (reg *Registry) SetReadyByName(roomID, name string, ready bool) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false
	}
	p, ok := r.players[name]
	if !ok {
		return false
	}
	p.Ready = ready
	return true
}

// AllReady 至少两名不同玩家且所有非房主玩家均已准备
func (reg *Registry) AllReady(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false
	}
	if len(r.players) < 2 {
		return false
	}
	for _, p := range r.players {
		if !p.Host && !p.Ready {
			return false
		}
	}
	return true
}

// IsHost 判断会话键对应的玩家是否为房主
func (reg *Registry) IsHost(roomID, key string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false
	}
	name, ok := r.dir[key]
	if !ok {
		return false
	}
	return r.players[name].Host
}

// PlayerName 解析会话键对应的玩家名
func (reg *Registry) PlayerName(roomID, key string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return "", false
	}
	name, ok := r.dir[key]
	return name, ok
}

// PlayerCount 不同玩家数
func (reg *Registry) PlayerCount(roomID string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return 0
	}
	return len(r.players)
}

// Sessions 返回房间当前会话的快照，供广播在锁外迭代
func (reg *Registry) Sessions(roomID string) []Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	out := make([]Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// SessionsByName 返回某个玩家名下的全部会话（私发画手用）
func (reg *Registry) SessionsByName(roomID, name string) []Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	var out []Session
	for _, s := range r.sessions {
		if r.dir[s.Key()] == name {
			out = append(out, s)
		}
	}
	return out
}

// SessionsByAddr 按对端地址查找会话（踢人用）
func (reg *Registry) SessionsByAddr(roomID string, addrs []string) []Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	want := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		want[a] = true
	}
	var out []Session
	for _, s := range r.sessions {
		if want[s.RemoteAddr()] {
			out = append(out, s)
		}
	}
	return out
}
