// Package feed 提供上游生产者客户端：采集端（画手工具、推流器）
// 用它连接笔画服务器并持续投递记录。
package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/kxyuan/draw-guess/internal/protocol"
)

// 出站积压超过该条数时丢弃视频帧，保证低延迟
const videoDropThreshold = 5

// Sender 面向采集端的发送客户端。
// 所有出站记录经内部队列由唯一写协程发出，
// 另有一个排水协程消费服务器的回播，避免 TCP 窗口被撑死。
type Sender struct {
	roomID     string
	playerName string

	conn net.Conn

	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool

	closeOnce sync.Once
}

// Dial 连接服务器并完成 join 握手
func Dial(addr, roomID, playerName string) (*Sender, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}

	s := &Sender{
		roomID:     roomID,
		playerName: playerName,
		conn:       conn,
	}
	s.cond = sync.NewCond(&s.mu)

	go s.writeLoop()
	go s.drainLoop()

	// 握手必须是第一条记录
	s.enqueue(protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionJoin,
		RoomID:     roomID,
		PlayerName: playerName,
	}), false)

	log.Printf("已连接到 %s (房间 %s)", addr, roomID)
	return s, nil
}

// SendStroke 投递一条笔画，永不丢弃、立即返回
func (s *Sender) SendStroke(stroke *protocol.Stroke) error {
	line, err := s.strokeRecord(stroke)
	if err != nil {
		return err
	}
	s.enqueue(line, false)
	return nil
}

// SendClear 投递一条清空画布记录
func (s *Sender) SendClear() {
	s.enqueue(protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionClearCanvas,
		RoomID:     s.roomID,
		PlayerName: s.playerName,
	}), false)
}

// SendChat 投递一条聊天/猜词
func (s *Sender) SendChat(text string) {
	s.enqueue(protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionChat,
		RoomID:     s.roomID,
		PlayerName: s.playerName,
		Payload:    json.RawMessage(protocol.MustMarshal(text)),
	}), false)
}

// SendReady 投递准备状态
func (s *Sender) SendReady(ready bool) {
	s.enqueue(protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionReady,
		RoomID:     s.roomID,
		PlayerName: s.playerName,
		Payload:    json.RawMessage(protocol.MustMarshal(ready)),
	}), false)
}

// StartGame 请求开始回合（仅房主生效）
func (s *Sender) StartGame() {
	s.enqueue(protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionStartGame,
		RoomID:     s.roomID,
		PlayerName: s.playerName,
	}), false)
}

// SendVideo 投递一帧视频。队列积压时丢帧保延迟，
// 返回是否实际入队
func (s *Sender) SendVideo(frame []byte) bool {
	line := protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionVideoFrame,
		RoomID:     s.roomID,
		PlayerName: s.playerName,
		Payload:    json.RawMessage(protocol.MustMarshal(string(frame))),
	})
	return s.enqueue(line, true)
}

// Pending 当前积压条数
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close 关闭客户端与连接
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}

// strokeRecord 笔画字段与路由字段摊平在同一层
func (s *Sender) strokeRecord(stroke *protocol.Stroke) ([]byte, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(protocol.EncodeStroke(stroke), &fields); err != nil {
		return nil, err
	}
	fields["action"] = string(protocol.ActionStroke)
	fields["room_id"] = s.roomID
	fields["player_name"] = s.playerName
	return json.Marshal(fields)
}

// enqueue 非阻塞入队。video 为真时做准入控制
func (s *Sender) enqueue(line []byte, video bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if video && len(s.queue) >= videoDropThreshold {
		return false // 网络太慢，丢帧
	}
	s.queue = append(s.queue, line)
	s.cond.Signal()
	return true
}

// writeLoop 唯一写协程
func (s *Sender) writeLoop() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		line := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if _, err := s.conn.Write(append(line, '\n')); err != nil {
			log.Printf("发送失败: %v", err)
			s.Close()
			return
		}
	}
}

// drainLoop 读取并丢弃服务器的回播，保持 TCP 窗口畅通
func (s *Sender) drainLoop() {
	reader := bufio.NewReader(s.conn)
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return
	}
}
