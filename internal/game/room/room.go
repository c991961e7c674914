package room

import (
	"sync"
	"time"

	"github.com/kxyuan/draw-guess/internal/config"
)

const (
	roomIDLength = 4                            // 房间号长度
	roomIDChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" // 房间号字符集

	// 代理玩家（无传输会话）的键前缀
	proxyKeyPrefix = "web_"
)

// Session 房间内的一条传输会话。所有实现（TCP、WebSocket）
// 都通过唯一写协程落盘，Send 只负责入队。
// 代理身份不注册 Session，只在玩家目录中占一个键。
type Session interface {
	Key() string                // 会话唯一标识
	Send(line []byte) error     // 入队一条记录（控制/笔画，永不丢弃）
	SendVideo(line []byte) bool // 入队一帧视频，队列过长时丢弃，返回是否入队
	RemoteAddr() string         // 对端地址，代理会话返回空串
	Close()                     // 强制关闭传输
}

// Player 逻辑玩家。同名的多条会话共享同一个 Player，
// 分数、房主、准备状态只存这一份。
type Player struct {
	Name  string
	Score int
	Host  bool // 首个加入的不同名玩家，粘性
	Ready bool // 房主隐含已准备
}

// Room 一个游戏房间的全部状态，只能经 Registry 持锁访问
type Room struct {
	ID string

	sessions []Session          // 有序会话集（按加入顺序）
	players  map[string]*Player // 名字 -> 逻辑玩家
	order    []string           // 名字加入顺序
	dir      map[string]string  // 会话键 -> 名字（含代理键）

	history [][]byte // 笔画/清屏史，只追加，回放给后来者
	chat    []string // 聊天记录，超限丢最旧

	roundActive     bool
	drawer          string
	drawerQueue     []string // 画手轮换队列（FIFO，按加入顺序补充）
	word            string
	guessed         map[string]bool // 本回合已猜中的名字
	roundStart      time.Time
	roundDuration   time.Duration
	roundStrokeBase int // 回合开始时的 history 长度，用于手势奖励判定

	videoFrame []byte // 最新视频帧，覆盖写，从不排队

	timer    *time.Timer
	timerGen uint64 // 计时器代数，旧计时器过期后不得再触发

	createdAt time.Time
}

// ScoreEntry 回合结算的一行
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Registry 房间注册表，进程内所有房间状态的唯一持有者。
// 全部变更经同一把锁串行化；导出方法加锁，
// xxxLocked 形式的内部方法假定已持锁。
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	cfg   config.GameConfig
}

// NewRegistry 创建房间注册表
func NewRegistry(cfg config.GameConfig) *Registry {
	r := &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
	}

	// 定期清理完全空置的房间
	go r.cleanupLoop()

	return r
}

// CreateIfMissing 惰性创建房间
func (reg *Registry) CreateIfMissing(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.createIfMissingLocked(roomID)
}

func (reg *Registry) createIfMissingLocked(roomID string) *Room {
	if r, ok := reg.rooms[roomID]; ok {
		return r
	}
	r := &Room{
		ID:        roomID,
		players:   make(map[string]*Player),
		dir:       make(map[string]string),
		guessed:   make(map[string]bool),
		createdAt: time.Now(),
	}
	reg.rooms[roomID] = r
	return r
}

// roomLocked 返回房间，不存在时返回 nil
func (reg *Registry) roomLocked(roomID string) *Room {
	return reg.rooms[roomID]
}

// Exists 判断房间是否存在
func (reg *Registry) Exists(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[roomID] != nil
}

// RoomIDs 返回所有房间号
func (reg *Registry) RoomIDs() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	return ids
}
