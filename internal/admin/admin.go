// Package admin 提供给 Web 代理与运维使用的 HTTP 管理接口。
// 代理玩家没有自己的长连接，通过这里轮询状态、提交动作。
package admin

import (
	"context"
	"net/http"

	"github.com/kxyuan/draw-guess/internal/game/room"
	"github.com/kxyuan/draw-guess/internal/server/storage"
)

// Service 管理接口依赖的服务端能力，由 server.Server 实现
type Service interface {
	State() map[string]room.RoomSnapshot
	RoomState(roomID string) (room.RoomSnapshot, error)
	CreateRoom() string
	JoinRoom(roomID, name string) (bool, error)
	ReadyUp(roomID, name string) (bool, error)
	AdminStartRound(roomID string) error
	EndRoundNow(roomID string) error
	Kick(roomID string, addrs []string) (int, error)
	SendChat(roomID, text string) error
	GuessFor(roomID, name, text string) error
	SubmitStroke(roomID, name string, line []byte) error
	ClearCanvas(roomID, name string) error
	History(roomID string, offset int) ([][]byte, error)
	Video(roomID string) ([]byte, error)
	TopScores(ctx context.Context, limit int64) ([]storage.LeaderboardEntry, error)
	WSHandler() http.Handler
}
