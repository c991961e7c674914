package room

import (
	"log"
	"sort"
	"strings"

	"github.com/kxyuan/draw-guess/internal/protocol"
)

// SelectDrawer 从轮换队列弹出下一位画手。
// 队列耗尽时按加入顺序用当前名册补满；已离开的名字弹出时跳过。
func (reg *Registry) SelectDrawer(roomID string) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return ""
	}

	if len(r.drawerQueue) == 0 {
		if len(r.order) == 0 {
			return ""
		}
		r.drawerQueue = append(r.drawerQueue, r.order...)
		log.Printf("🔄 房间 %s 画手队列已补满: %v", roomID, r.drawerQueue)
	}

	for len(r.drawerQueue) > 0 {
		next := r.drawerQueue[0]
		r.drawerQueue = r.drawerQueue[1:]
		if _, ok := r.players[next]; ok {
			r.drawer = next
			return next
		}
		// 已离开的玩家直接跳过，不回插
	}
	return ""
}

// TryActivateRound 原子地检查并激活回合。
// 检查与置位在同一次持锁内完成，房主点击与自动重开
// 同时触发时只有一方成功。
func (reg *Registry) TryActivateRound(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil || r.roundActive {
		return false
	}
	r.roundActive = true
	r.guessed = make(map[string]bool)
	r.roundStrokeBase = len(r.history)
	return true
}

// SetRoundActive 切换回合状态，激活时重置已猜中集合
func (reg *Registry) SetRoundActive(roomID string, active bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return
	}
	r.roundActive = active
	if active {
		r.guessed = make(map[string]bool)
		r.roundStrokeBase = len(r.history)
	}
}

// RoundActive 判断回合是否进行中
func (reg *Registry) RoundActive(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	return r != nil && r.roundActive
}

// SetWord 设置本回合的词
func (reg *Registry) SetWord(roomID, word string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r := reg.roomLocked(roomID); r != nil {
		r.word = word
	}
}

// Word 返回本回合的词
func (reg *Registry) Word(roomID string) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return ""
	}
	return r.word
}

// DrawerName 当前画手名，回合外为空
func (reg *Registry) DrawerName(roomID string) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return ""
	}
	return r.drawer
}

// IsDrawer 判断会话是否有绘制权。
// 回合外所有人都可以画（大厅涂鸦）。
func (reg *Registry) IsDrawer(roomID, key string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false
	}
	if !r.roundActive {
		return true
	}
	if r.drawer == "" {
		return true
	}
	name, ok := r.dir[key]
	return ok && name == r.drawer
}

// IsDrawerName 按玩家名判断绘制权（代理提交用）
func (reg *Registry) IsDrawerName(roomID, name string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return false
	}
	if !r.roundActive {
		return true
	}
	return r.drawer == name
}

// EndRound 结算并关闭回合。回合未进行时返回 (nil, false) 哨兵。
// 本回合内画手用过手势模式则加固定奖励分；
// 得分表按名字聚合取最大值，降序排序，平分保持加入顺序。
func (reg *Registry) EndRound(roomID string) ([]ScoreEntry, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil || !r.roundActive {
		return nil, false
	}

	// 画手手势奖励
	if r.drawer != "" && r.usedGestureLocked() {
		if p, ok := r.players[r.drawer]; ok {
			p.Score += reg.cfg.GestureBonus
			log.Printf("🖐️ 画手 %s 使用手势模式，奖励 %d 分", r.drawer, reg.cfg.GestureBonus)
		}
	}

	// 按名字取最大观察分（对瞬时分歧的防御性约定）
	maxScores := make(map[string]int, len(r.players))
	for name, p := range r.players {
		if s, ok := maxScores[name]; !ok || p.Score > s {
			maxScores[name] = p.Score
		}
	}

	scores := make([]ScoreEntry, 0, len(maxScores))
	for _, name := range r.order {
		if s, ok := maxScores[name]; ok {
			scores = append(scores, ScoreEntry{Name: name, Score: s})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	// 清回合状态
	r.roundActive = false
	r.guessed = make(map[string]bool)
	r.drawer = "" // 清掉画手，大厅里停止转发视频
	reg.cancelTimerLocked(r)

	return scores, true
}

// usedGestureLocked 扫描本回合的笔画史，看画手是否用过手势模式
func (r *Room) usedGestureLocked() bool {
	base := r.roundStrokeBase
	if base > len(r.history) {
		base = 0
	}
	for _, line := range r.history[base:] {
		s, err := protocol.ParseStroke(line)
		if err != nil {
			continue
		}
		if s.Mode == protocol.ModeGesture {
			return true
		}
	}
	return false
}

// GuessResult 猜词的分类结果
type GuessResult string

const (
	GuessChat      GuessResult = "chat"       // 普通聊天
	GuessError     GuessResult = "error"      // 发送者状态无效
	GuessCorrect   GuessResult = "correct"    // 猜中
	GuessRoundOver GuessResult = "round_over" // 猜中且全员猜完
)

// ProcessGuess 对一条聊天文本做猜词判定并计分。
// 大小写不敏感、去首尾空白后精确匹配；
// 画手本人与已猜中者的重复提交一律按聊天处理，不重复计分。
func (reg *Registry) ProcessGuess(roomID, key, text string) GuessResult {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return GuessError
	}
	if !r.roundActive || r.word == "" {
		return GuessChat
	}

	name, ok := r.dir[key]
	if !ok {
		return GuessError
	}
	if name == r.drawer {
		return GuessChat // 画手不能给自己计分
	}
	if r.guessed[name] {
		return GuessChat // 幂等，不重复奖励
	}

	if !strings.EqualFold(strings.TrimSpace(text), r.word) {
		return GuessChat
	}

	// 猜中：猜词者与画手各得分
	r.guessed[name] = true
	r.players[name].Score += reg.cfg.GuessPoints
	if dp, ok := r.players[r.drawer]; ok {
		dp.Score += reg.cfg.DrawerPoints
	}

	// 画手之外的所有不同玩家都猜中则回合完成
	totalGuessers := len(r.players) - 1
	if totalGuessers > 0 && len(r.guessed) >= totalGuessers {
		return GuessRoundOver
	}
	return GuessCorrect
}
