package apperrors

import (
	"github.com/kxyuan/draw-guess/internal/protocol"
)

// GameError 游戏错误（注册表与管理接口共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound   = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrPlayerNotFound = &GameError{Code: protocol.ErrCodePlayerNotFound, Message: "玩家不存在"}
	ErrNotInRoom      = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrRoundActive    = &GameError{Code: protocol.ErrCodeRoundActive, Message: "回合已开始"}
	ErrRoundNotActive = &GameError{Code: protocol.ErrCodeRoundNotActive, Message: "回合尚未开始"}
	ErrNotHost        = &GameError{Code: protocol.ErrCodeNotHost, Message: "只有房主可以执行此操作"}
	ErrNotDrawer      = &GameError{Code: protocol.ErrCodeNotDrawer, Message: "只有画手可以绘制"}
	ErrNotReady       = &GameError{Code: protocol.ErrCodeNotReady, Message: "还有玩家未准备"}
	ErrTooFewPlayers  = &GameError{Code: protocol.ErrCodeTooFewPlayers, Message: "玩家人数不足"}
)
