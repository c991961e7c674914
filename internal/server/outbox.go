package server

import (
	"errors"
	"sync"
)

// ErrSessionClosed 会话已关闭，不再接收出站消息
var ErrSessionClosed = errors.New("会话已关闭")

// outbox 每会话的无界有序出站队列。
// 只有唯一的写协程调用 pop，保证传输上不会出现交错写入；
// 控制与笔画消息永不丢弃，视频帧走 pushVideo 的准入控制。
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// push 入队一条消息，永不丢弃
func (o *outbox) push(line []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrSessionClosed
	}
	o.queue = append(o.queue, line)
	o.cond.Signal()
	return nil
}

// pushVideo 视频帧准入：队列积压达到 limit 条时丢帧，
// 返回是否入队
func (o *outbox) pushVideo(line []byte, limit int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || len(o.queue) >= limit {
		return false
	}
	o.queue = append(o.queue, line)
	o.cond.Signal()
	return true
}

// pop 阻塞取出队首消息；队列关闭且取空后返回 false
func (o *outbox) pop() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for len(o.queue) == 0 && !o.closed {
		o.cond.Wait()
	}
	if len(o.queue) == 0 {
		return nil, false
	}
	line := o.queue[0]
	o.queue = o.queue[1:]
	return line, true
}

// pending 当前积压条数
func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// close 关闭队列并唤醒写协程
func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.cond.Broadcast()
}
