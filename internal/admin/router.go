package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kxyuan/draw-guess/internal/apperrors"
	"github.com/kxyuan/draw-guess/internal/protocol"
)

// Handler 管理接口的 HTTP 处理器
type Handler struct {
	svc Service
}

// NewHandler 创建处理器
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// NewRouter 组装管理路由，同时挂载 WebSocket 接入端点
func NewRouter(svc Service) *mux.Router {
	h := NewHandler(svc)

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/state/{roomID}", h.GetRoomState).Methods("GET")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/video", h.GetVideo).Methods("GET")
	api.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	api.HandleFunc("/action", h.PostAction).Methods("POST")

	r.Handle("/ws", svc.WSHandler()).Methods("GET")
	return r
}

// actionRequest POST /api/action 的请求体。
// 字段按 action 取用，无关字段忽略。
type actionRequest struct {
	Action     string          `json:"action"`
	RoomID     string          `json:"room_id"`
	PlayerName string          `json:"player_name"`
	Text       string          `json:"text"`
	Addrs      []string        `json:"addrs"`
	Stroke     json.RawMessage `json:"stroke"`
}

// GetState GET /api/state 全部房间快照
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": h.svc.State()})
}

// GetRoomState GET /api/state/{roomID} 单房间快照
func (h *Handler) GetRoomState(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	snap, err := h.svc.RoomState(roomID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetHistory GET /api/history?room_id=X&offset=N 增量笔画历史
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	lines, err := h.svc.History(roomID, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	history := make([]json.RawMessage, len(lines))
	for i, line := range lines {
		history[i] = json.RawMessage(line)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history":     history,
		"next_offset": offset + len(history),
	})
}

// GetVideo GET /api/video?room_id=X 房间的最新视频帧
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")

	frame, err := h.svc.Video(roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"frame": nil}
	if frame != nil {
		resp["frame"] = json.RawMessage(frame)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetLeaderboard GET /api/leaderboard?limit=N 累计排行榜
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	entries, err := h.svc.TopScores(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// PostAction POST /api/action 统一动作入口
func (h *Handler) PostAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"code":   protocol.ErrCodeInvalidMsg,
			"error":  protocol.ErrorMessages[protocol.ErrCodeInvalidMsg],
		})
		return
	}

	switch req.Action {
	case "create_room":
		roomID := h.svc.CreateRoom()
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "room_id": roomID})
		return

	case "join_room":
		host, err := h.svc.JoinRoom(req.RoomID, req.PlayerName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "is_host": host})

	case "ready_up":
		ready, err := h.svc.ReadyUp(req.RoomID, req.PlayerName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ready": ready})

	case "start_game":
		h.respond(w, h.svc.AdminStartRound(req.RoomID))

	case "end_round":
		h.respond(w, h.svc.EndRoundNow(req.RoomID))

	case "kick":
		count, err := h.svc.Kick(req.RoomID, req.Addrs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "kicked": count})

	case "send_chat":
		h.respond(w, h.svc.SendChat(req.RoomID, req.Text))

	case "guess":
		h.respond(w, h.svc.GuessFor(req.RoomID, req.PlayerName, req.Text))

	case "send_stroke":
		line, err := strokeLine(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		h.respond(w, h.svc.SubmitStroke(req.RoomID, req.PlayerName, line))

	case "clear_canvas":
		h.respond(w, h.svc.ClearCanvas(req.RoomID, req.PlayerName))

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"code":   protocol.ErrCodeInvalidMsg,
			"error":  "未知动作: " + req.Action,
		})
	}
}

// strokeLine 把请求里的笔画对象展开成一条完整的协议记录
func strokeLine(req *actionRequest) ([]byte, error) {
	fields := map[string]any{}
	if len(req.Stroke) > 0 {
		if err := json.Unmarshal(req.Stroke, &fields); err != nil {
			return nil, &apperrors.GameError{
				Code:    protocol.ErrCodeInvalidMsg,
				Message: "笔画格式非法",
			}
		}
	}
	fields["action"] = string(protocol.ActionStroke)
	fields["room_id"] = req.RoomID
	fields["player_name"] = req.PlayerName
	return json.Marshal(fields)
}

func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError 把 GameError 映射成结构化错误响应
func writeError(w http.ResponseWriter, err error) {
	code := protocol.ErrCodeUnknown
	status := http.StatusInternalServerError

	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		code = ge.Code
		switch ge.Code {
		case protocol.ErrCodeRoomNotFound, protocol.ErrCodePlayerNotFound:
			status = http.StatusNotFound
		case protocol.ErrCodeInvalidMsg:
			status = http.StatusBadRequest
		default:
			status = http.StatusConflict
		}
	}

	writeJSON(w, status, map[string]any{
		"status": "error",
		"code":   code,
		"error":  err.Error(),
	})
}
