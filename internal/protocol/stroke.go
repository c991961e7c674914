package protocol

import "encoding/json"

// 输入模式
const (
	ModeGesture = "gesture" // 手势识别输入
	ModeMouse   = "mouse"   // 鼠标输入
)

// Stroke 一条线段笔画。清空画布用 ActionClearCanvas 记录表示，
// 笔画一经入史不可变。
type Stroke struct {
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Color     string  `json:"color"`
	Thickness int     `json:"thickness"`
	Mode      string  `json:"mode,omitempty"` // gesture / mouse
}

// ParseStroke 从一行记录中解析笔画字段
func ParseStroke(line []byte) (*Stroke, error) {
	var s Stroke
	if err := json.Unmarshal(line, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EncodeStroke 序列化笔画为一行记录
func EncodeStroke(s *Stroke) []byte {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return data
}
