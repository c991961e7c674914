package server

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// tcpSession TCP 传输上的一条会话，实现 room.Session。
// 出站消息全部经 outbox 排队，WritePump 是唯一的写入者。
type tcpSession struct {
	key        string
	conn       net.Conn
	out        *outbox
	videoLimit int

	closeOnce sync.Once
}

func newTCPSession(conn net.Conn, videoLimit int) *tcpSession {
	return &tcpSession{
		key:        uuid.New().String(),
		conn:       conn,
		out:        newOutbox(),
		videoLimit: videoLimit,
	}
}

// Key 会话唯一标识
func (s *tcpSession) Key() string { return s.key }

// Send 入队一条记录
func (s *tcpSession) Send(line []byte) error {
	return s.out.push(line)
}

// SendVideo 入队一帧视频，积压超限时丢弃
func (s *tcpSession) SendVideo(line []byte) bool {
	return s.out.pushVideo(line, s.videoLimit)
}

// RemoteAddr 对端地址
func (s *tcpSession) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Close 关闭队列与连接
func (s *tcpSession) Close() {
	s.closeOnce.Do(func() {
		s.out.close()
		_ = s.conn.Close()
	})
}

// WritePump 唯一写协程：从 outbox 取消息，按行落盘。
// 写失败即关闭会话，由之后的广播把它移出房间。
func (s *tcpSession) WritePump() {
	defer s.Close()

	for {
		line, ok := s.out.pop()
		if !ok {
			return
		}
		if _, err := s.conn.Write(append(line, '\n')); err != nil {
			return
		}
	}
}
