package server

import (
	"bufio"
	"log"
	"net"

	"github.com/kxyuan/draw-guess/internal/game/room"
	"github.com/kxyuan/draw-guess/internal/protocol"
)

// 单行记录上限。视频帧是 base64 编码的低分辨率图像，
// 需要比普通笔画大得多的缓冲。
const maxLineSize = 1 << 20

// handleConn 每连接一个协程：握手、注册、逐行分发。
// 第一条消息必须是 join 握手，缺失或非法则直接断开，不改任何状态。
func (s *Server) handleConn(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	log.Printf("🔌 新连接: %s", addr)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	// 1. 等待握手
	if !scanner.Scan() {
		log.Printf("❌ %s 未发送握手即断开", addr)
		_ = conn.Close()
		return
	}
	rec, err := protocol.Decode(scanner.Bytes())
	if err != nil || rec.Action != protocol.ActionJoin || rec.RoomID == "" {
		log.Printf("❌ %s 握手非法，关闭连接", addr)
		_ = conn.Close()
		return
	}

	roomID := rec.RoomID
	name := rec.PlayerName
	if name == "" {
		name = "Unknown"
	}
	log.Printf("✅ %s (%s) 加入房间 %s", addr, name, roomID)

	// 2. 注册会话，历史回放与回合同步在注册的临界区内完成
	sess := newTCPSession(conn, s.cfg.Game.VideoQueueLimit)
	go sess.WritePump()
	s.registry.AddSession(roomID, sess, name)

	defer func() {
		log.Printf("🔌 断开连接: %s (%s)", addr, name)
		s.registry.RemoveSession(roomID, sess.Key())
		sess.Close()
	}()

	// 3. 主循环：逐行读取并分发
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := protocol.Decode(line)
		if err != nil {
			// 单条坏帧丢弃，连接保持
			continue
		}
		// Decode 复用了 scanner 的缓冲，转发前必须拷贝
		copied := make([]byte, len(line))
		copy(copied, line)
		s.dispatchRecord(roomID, sess.Key(), rec, copied)
	}
}

// dispatchRecord 按动作分发一条记录，TCP 与 WebSocket 共用。
// 越权操作（非房主开局、非画手绘制/推流）一律静默忽略。
func (s *Server) dispatchRecord(roomID, key string, rec *protocol.Record, line []byte) {
	switch rec.Action {
	case protocol.ActionJoin:
		// 握手只认第一条，之后的 join 视为无害空操作
		return

	case protocol.ActionChat:
		s.handleChat(roomID, key, rec.PayloadString())

	case protocol.ActionStartGame:
		if err := s.StartRound(roomID, key); err != nil {
			log.Printf("🚫 房间 %s 开始回合被拒绝: %v", roomID, err)
		}

	case protocol.ActionReady:
		s.registry.SetReady(roomID, key, rec.PayloadBool())

	case protocol.ActionVideoFrame:
		// 视频只在回合进行中、且只有画手可以推
		if !s.registry.RoundActive(roomID) {
			return
		}
		if !s.registry.IsDrawer(roomID, key) {
			return
		}
		s.registry.RecordVideoFrame(roomID, line)
		// 不入历史，直接转发，拥塞接收者丢帧
		s.registry.BroadcastVideo(roomID, line, key)

	default:
		// 笔画（含 clear_canvas）：默认动作
		if !s.registry.IsDrawer(roomID, key) {
			return
		}
		s.registry.AppendHistory(roomID, line)
		s.registry.Broadcast(roomID, line, key)
	}
}

// handleChat 聊天即猜词：先判定计分，再决定广播什么
func (s *Server) handleChat(roomID, key, text string) {
	result := s.registry.ProcessGuess(roomID, key, text)
	name, _ := s.registry.PlayerName(roomID, key)

	switch result {
	case room.GuessError:
		return

	case room.GuessCorrect:
		s.broadcastChat(roomID, systemGuessedMessage(name, s.cfg.Game.GuessPoints))

	case room.GuessRoundOver:
		s.broadcastChat(roomID, systemGuessedMessage(name, s.cfg.Game.GuessPoints))
		s.finishRound(roomID)

	default: // room.GuessChat
		s.broadcastChat(roomID, name+": "+text)
	}
}

// broadcastChat 记录并广播一条聊天（包括发送者，让它确认送达）
func (s *Server) broadcastChat(roomID, text string) {
	s.registry.AppendChat(roomID, text)
	s.registry.Broadcast(roomID, protocol.NewChat(text), "")
}
