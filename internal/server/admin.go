package server

import (
	"context"
	"log"

	"github.com/kxyuan/draw-guess/internal/apperrors"
	"github.com/kxyuan/draw-guess/internal/game/room"
	"github.com/kxyuan/draw-guess/internal/protocol"
	"github.com/kxyuan/draw-guess/internal/server/storage"
)

// 本文件实现管理/代理接口依赖的服务方法。
// 代理玩家没有自己的传输会话，广播对它们不可见，
// 状态通过 State/History 轮询获取。

// State 所有房间的只读快照
func (s *Server) State() map[string]room.RoomSnapshot {
	return s.registry.Snapshot()
}

// RoomState 单个房间的只读快照
func (s *Server) RoomState(roomID string) (room.RoomSnapshot, error) {
	snap, ok := s.registry.SnapshotRoom(roomID)
	if !ok {
		return room.RoomSnapshot{}, apperrors.ErrRoomNotFound
	}
	return snap, nil
}

// CreateRoom 生成房间号并创建空房间
func (s *Server) CreateRoom() string {
	roomID := s.registry.GenerateRoomID()
	s.registry.CreateIfMissing(roomID)
	log.Printf("🏠 管理接口创建房间 %s", roomID)
	return roomID
}

// JoinRoom 以代理身份加入房间（幂等），房间不存在时创建。
// 返回该玩家是否为房主。
func (s *Server) JoinRoom(roomID, name string) (bool, error) {
	if roomID == "" || name == "" {
		return false, apperrors.ErrPlayerNotFound
	}
	key, host := s.registry.AddProxyPlayer(roomID, name)
	log.Printf("🌐 代理玩家 %s (%s) 加入房间 %s (房主: %v)", name, key, roomID, host)
	return host, nil
}

// ReadyUp 按名字翻转就绪状态，返回翻转后的状态
func (s *Server) ReadyUp(roomID, name string) (bool, error) {
	if !s.registry.Exists(roomID) {
		return false, apperrors.ErrRoomNotFound
	}
	ready, ok := s.registry.ToggleReadyByName(roomID, name)
	if !ok {
		return false, apperrors.ErrPlayerNotFound
	}
	return ready, nil
}

// Kick 按对端地址踢出会话，返回实际断开的数量
func (s *Server) Kick(roomID string, addrs []string) (int, error) {
	if !s.registry.Exists(roomID) {
		return 0, apperrors.ErrRoomNotFound
	}

	sessions := s.registry.SessionsByAddr(roomID, addrs)
	for _, sess := range sessions {
		log.Printf("🥾 踢出 %s (房间 %s)", sess.RemoteAddr(), roomID)
		s.registry.RemoveSession(roomID, sess.Key())
		sess.Close()
	}
	return len(sessions), nil
}

// SendChat 以管理身份广播一条聊天
func (s *Server) SendChat(roomID, text string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	s.broadcastChat(roomID, "ADMIN: "+text)
	return nil
}

// GuessFor 代理玩家提交一条聊天/猜词
func (s *Server) GuessFor(roomID, name, text string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	key, _ := s.registry.AddProxyPlayer(roomID, name)
	s.handleChat(roomID, key, text)
	return nil
}

// SubmitStroke 代理玩家提交一条笔画记录，只有当前画手有效
func (s *Server) SubmitStroke(roomID, name string, line []byte) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if !s.registry.IsDrawerName(roomID, name) {
		return apperrors.ErrNotDrawer
	}
	s.registry.AppendHistory(roomID, line)
	s.registry.Broadcast(roomID, line, "")
	return nil
}

// ClearCanvas 代理玩家清空画布
func (s *Server) ClearCanvas(roomID, name string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if !s.registry.IsDrawerName(roomID, name) {
		return apperrors.ErrNotDrawer
	}
	line := protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionClearCanvas,
		RoomID:     roomID,
		PlayerName: name,
	})
	s.registry.AppendHistory(roomID, line)
	s.registry.Broadcast(roomID, line, "")
	return nil
}

// Video 房间的最新视频帧（代理轮询用），没有帧时为 nil
func (s *Server) Video(roomID string) ([]byte, error) {
	if !s.registry.Exists(roomID) {
		return nil, apperrors.ErrRoomNotFound
	}
	return s.registry.VideoFrame(roomID), nil
}

// History 自 offset 起的笔画历史（代理轮询增量）
func (s *Server) History(roomID string, offset int) ([][]byte, error) {
	if !s.registry.Exists(roomID) {
		return nil, apperrors.ErrRoomNotFound
	}
	return s.registry.History(roomID, offset), nil
}

// TopScores 累计排行榜，未启用 Redis 时返回 nil
func (s *Server) TopScores(ctx context.Context, limit int64) ([]storage.LeaderboardEntry, error) {
	if s.leaderboard == nil {
		return nil, nil
	}
	return s.leaderboard.Top(ctx, limit)
}
