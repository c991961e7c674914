package room

import (
	"log"
	"time"
)

// StartTimer 启动房间计时器，先取消任何未触发的旧计时器。
// 代数校验保证被取消/被替换的计时器过期后不会再触发回调。
func (reg *Registry) StartTimer(roomID string, d time.Duration, onExpire func(roomID string)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return
	}

	reg.cancelTimerLocked(r)

	r.timerGen++
	gen := r.timerGen
	r.roundStart = time.Now()
	r.roundDuration = d

	log.Printf("⏱️ 房间 %s 启动 %v 计时器", roomID, d)
	r.timer = time.AfterFunc(d, func() {
		if !reg.timerAlive(roomID, gen) {
			return
		}
		onExpire(roomID)
	})
}

// timerAlive 计时器触发时校验自己仍是当前代
func (reg *Registry) timerAlive(roomID string, gen uint64) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil || r.timerGen != gen {
		return false
	}
	r.timer = nil
	return true
}

// CancelTimer 取消房间的未触发计时器
func (reg *Registry) CancelTimer(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r := reg.roomLocked(roomID); r != nil {
		reg.cancelTimerLocked(r)
	}
}

func (reg *Registry) cancelTimerLocked(r *Room) {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
		log.Printf("⏹️ 房间 %s 计时器已取消", r.ID)
	}
	// 代数前进，已在途的触发会被 timerAlive 拦下
	r.timerGen++
}

// TimeRemaining 回合剩余秒数，回合外为 0
func (reg *Registry) TimeRemaining(roomID string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil || !r.roundActive {
		return 0
	}
	remaining := r.roundDuration - time.Since(r.roundStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
