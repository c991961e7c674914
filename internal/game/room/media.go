package room

// AppendHistory 追加一条笔画/清屏记录（存原始记录行，原样回放）
func (reg *Registry) AppendHistory(roomID string, line []byte) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r := reg.roomLocked(roomID); r != nil {
		r.history = append(r.history, line)
	}
}

// History 返回从 offset 起的笔画史快照。
// offset 越界时返回空切片，负数视为 0。
func (reg *Registry) History(roomID string, offset int) [][]byte {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.history) {
		return [][]byte{}
	}
	out := make([][]byte, len(r.history)-offset)
	copy(out, r.history[offset:])
	return out
}

// HistoryLen 笔画史长度（增量拉取用）
func (reg *Registry) HistoryLen(roomID string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return 0
	}
	return len(r.history)
}

// AppendChat 追加一条聊天记录，超过上限丢弃最旧的
func (reg *Registry) AppendChat(roomID, message string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return
	}
	r.chat = append(r.chat, message)
	if limit := reg.cfg.ChatHistoryLimit; limit > 0 && len(r.chat) > limit {
		r.chat = r.chat[len(r.chat)-limit:]
	}
}

// ChatHistory 聊天记录快照
func (reg *Registry) ChatHistory(roomID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	out := make([]string, len(r.chat))
	copy(out, r.chat)
	return out
}

// RecordVideoFrame 覆盖写最新视频帧（后写覆盖先写，从不排队）
func (reg *Registry) RecordVideoFrame(roomID string, frame []byte) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r := reg.roomLocked(roomID); r != nil {
		r.videoFrame = frame
	}
}

// VideoFrame 取最新视频帧，没有则为 nil
func (reg *Registry) VideoFrame(roomID string) []byte {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.roomLocked(roomID)
	if r == nil {
		return nil
	}
	return r.videoFrame
}
