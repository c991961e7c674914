package server

import (
	"bytes"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kxyuan/draw-guess/internal/protocol"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 浏览器播放器与代理同源部署，放开来源校验
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSession WebSocket 传输上的一条会话，实现 room.Session。
// 与 tcpSession 一样经 outbox 排队，每条记录一个文本帧。
type wsSession struct {
	key        string
	conn       *websocket.Conn
	out        *outbox
	videoLimit int

	closeOnce sync.Once
}

func newWSSession(conn *websocket.Conn, videoLimit int) *wsSession {
	return &wsSession{
		key:        uuid.New().String(),
		conn:       conn,
		out:        newOutbox(),
		videoLimit: videoLimit,
	}
}

func (ws *wsSession) Key() string { return ws.key }

func (ws *wsSession) Send(line []byte) error {
	return ws.out.push(line)
}

func (ws *wsSession) SendVideo(line []byte) bool {
	return ws.out.pushVideo(line, ws.videoLimit)
}

func (ws *wsSession) RemoteAddr() string {
	return ws.conn.RemoteAddr().String()
}

func (ws *wsSession) Close() {
	ws.closeOnce.Do(func() {
		ws.out.close()
		_ = ws.conn.Close()
	})
}

// WritePump 唯一写协程：outbox 出队写入文本帧，定期发送 ping
func (ws *wsSession) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	lines := make(chan []byte)
	go func() {
		for {
			line, ok := ws.out.pop()
			if !ok {
				close(lines)
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.conn.WriteMessage(websocket.TextMessage, line); err != nil {
				ws.drainAndStop(lines)
				return
			}

		case <-ticker.C:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.drainAndStop(lines)
				return
			}
		}
	}
}

// drainAndStop 写入失败后关闭队列并放空中转通道，让投递协程退出
func (ws *wsSession) drainAndStop(lines chan []byte) {
	ws.Close()
	for range lines {
	}
}

// WSHandler 返回 WebSocket 接入端点，挂载在管理路由上
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

// handleWS 处理一条 WebSocket 连接：握手、注册、逐帧分发。
// 语义与 handleConn 完全一致，只是换了传输。
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}
	addr := conn.RemoteAddr().String()
	log.Printf("🔌 新 WebSocket 连接: %s", addr)

	conn.SetReadLimit(maxLineSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// 1. 等待握手
	_, first, err := conn.ReadMessage()
	if err != nil {
		log.Printf("❌ %s 未发送握手即断开", addr)
		_ = conn.Close()
		return
	}
	rec, err := protocol.Decode(bytes.TrimSpace(first))
	if err != nil || rec.Action != protocol.ActionJoin || rec.RoomID == "" {
		log.Printf("❌ %s WebSocket 握手非法，关闭连接", addr)
		_ = conn.Close()
		return
	}

	roomID := rec.RoomID
	name := rec.PlayerName
	if name == "" {
		name = "Unknown"
	}
	log.Printf("✅ %s (%s) 经 WebSocket 加入房间 %s", addr, name, roomID)

	// 2. 注册会话，历史回放在注册的临界区内完成
	sess := newWSSession(conn, s.cfg.Game.VideoQueueLimit)
	go sess.WritePump()
	s.registry.AddSession(roomID, sess, name)

	defer func() {
		log.Printf("🔌 WebSocket 断开: %s (%s)", addr, name)
		s.registry.RemoveSession(roomID, sess.Key())
		sess.Close()
	}()

	// 3. 主循环：逐帧读取并分发，一帧可能带多行记录
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket 读取错误: %v", err)
			}
			return
		}

		for _, line := range bytes.Split(msg, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			rec, err := protocol.Decode(line)
			if err != nil {
				continue
			}
			s.dispatchRecord(roomID, sess.Key(), rec, line)
		}
	}
}
