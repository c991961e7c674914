package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Action 消息动作类型
type Action string

// 客户端 → 服务端 动作
const (
	ActionJoin        Action = "join"         // 握手，必须是连接的第一条消息
	ActionStroke      Action = "stroke"       // 画笔笔画（格式合法的绘图记录默认按此处理）
	ActionChat        Action = "chat"         // 聊天 / 猜词
	ActionStartGame   Action = "start_game"   // 房主开始游戏
	ActionReady       Action = "ready"        // 准备状态变更
	ActionVideoFrame  Action = "video_frame"  // 低码率视频帧（高频，可丢弃）
	ActionClearCanvas Action = "clear_canvas" // 清空画布
)

// 服务端 → 客户端 动作
const (
	ActionGameStart    Action = "game_start"    // 回合开始，payload 为时长（秒）
	ActionDrawerAssign Action = "drawer_assign" // 指定画手
	ActionYourWord     Action = "your_word"     // 私发给画手的词
	ActionRoundOver    Action = "round_over"    // 回合结束
)

// Record 一条换行分隔的协议记录。
// 沿用扁平结构：笔画字段与控制字段共存于同一层，
// 没有 action 或 action 未知的合法 JSON 视为笔画。
type Record struct {
	Action     Action          `json:"action,omitempty"`
	RoomID     string          `json:"room_id,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Decode 解析一行记录
func Decode(line []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("解析协议记录失败: %w", err)
	}
	return &r, nil
}

// Encode 序列化记录（不含换行符，由写入方追加）
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// MustEncode 序列化记录，失败时 panic（仅用于服务端构造的固定结构）
func MustEncode(r *Record) []byte {
	data, err := r.Encode()
	if err != nil {
		panic(err)
	}
	return data
}

// NewRecord 构造带 payload 的记录
func NewRecord(action Action, payload any) (*Record, error) {
	r := &Record{Action: action}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		r.Payload = data
	}
	return r, nil
}

// MustNewRecord 构造记录并序列化为一行
func MustNewRecord(action Action, payload any) []byte {
	r, err := NewRecord(action, payload)
	if err != nil {
		panic(err)
	}
	return MustEncode(r)
}

// MustMarshal 序列化一个 payload 值，失败时 panic
func MustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// NewChat 构造聊天广播记录
func NewChat(text string) []byte {
	return MustNewRecord(ActionChat, text)
}

// PayloadString 按字符串读取 payload
func (r *Record) PayloadString() string {
	if len(r.Payload) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Payload, &s); err == nil {
		return s
	}
	// 宽容处理数字等裸值
	return strings.Trim(string(r.Payload), `"`)
}

// PayloadBool 按布尔读取 payload
func (r *Record) PayloadBool() bool {
	var b bool
	if err := json.Unmarshal(r.Payload, &b); err == nil {
		return b
	}
	return false
}

// PayloadInt 按整数读取 payload
func (r *Record) PayloadInt() int {
	var n int
	if err := json.Unmarshal(r.Payload, &n); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(string(r.Payload)), 64); err == nil {
		return int(f)
	}
	return 0
}
