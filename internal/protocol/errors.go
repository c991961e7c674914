package protocol

// 错误码
const (
	ErrCodeUnknown        = 1000
	ErrCodeInvalidMsg     = 1001
	ErrCodeRoomNotFound   = 2001
	ErrCodePlayerNotFound = 2002
	ErrCodeNotInRoom      = 2003
	ErrCodeRoundActive    = 3001
	ErrCodeRoundNotActive = 3002
	ErrCodeNotHost        = 3003
	ErrCodeNotDrawer      = 3004
	ErrCodeNotReady       = 3005
	ErrCodeTooFewPlayers  = 3006
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:        "未知错误",
	ErrCodeInvalidMsg:     "无效的消息格式",
	ErrCodeRoomNotFound:   "房间不存在",
	ErrCodePlayerNotFound: "玩家不存在",
	ErrCodeNotInRoom:      "您不在房间中",
	ErrCodeRoundActive:    "回合已开始",
	ErrCodeRoundNotActive: "回合尚未开始",
	ErrCodeNotHost:        "只有房主可以执行此操作",
	ErrCodeNotDrawer:      "只有画手可以绘制",
	ErrCodeNotReady:       "还有玩家未准备",
	ErrCodeTooFewPlayers:  "玩家人数不足",
}
