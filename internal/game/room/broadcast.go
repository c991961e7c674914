package room

import "log"

// Broadcast 把一条记录发给房间内除 excludeKey 外的所有会话。
// 会话快照在锁内取得，真正的入队在锁外进行；
// 单个接收者写失败只把它自己移出房间，扫荡继续。
func (reg *Registry) Broadcast(roomID string, line []byte, excludeKey string) {
	var failed []string
	for _, s := range reg.Sessions(roomID) {
		if s.Key() == excludeKey {
			continue
		}
		if err := s.Send(line); err != nil {
			log.Printf("📡 广播写入失败，移除会话 %s: %v", s.Key(), err)
			failed = append(failed, s.Key())
		}
	}
	for _, key := range failed {
		reg.RemoveSession(roomID, key)
	}
}

// BroadcastVideo 视频帧广播，走每会话的准入控制，
// 队列拥塞的接收者丢帧而不是排队。
func (reg *Registry) BroadcastVideo(roomID string, line []byte, excludeKey string) {
	for _, s := range reg.Sessions(roomID) {
		if s.Key() == excludeKey {
			continue
		}
		s.SendVideo(line)
	}
}
