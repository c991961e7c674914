package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kxyuan/draw-guess/internal/apperrors"
	"github.com/kxyuan/draw-guess/internal/game/words"
	"github.com/kxyuan/draw-guess/internal/protocol"
)

// StartRound 开始一个回合。callerKey 为空表示系统调用
// （计时器到点、自动重开、管理接口），跳过房主校验。
func (s *Server) StartRound(roomID, callerKey string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if callerKey != "" && !s.registry.IsHost(roomID, callerKey) {
		return apperrors.ErrNotHost
	}
	// 幂等保护：检查与激活在同一临界区内完成，
	// 重复触发（双击、计时器与手动竞争）只生效一次
	if !s.registry.TryActivateRound(roomID) {
		return apperrors.ErrRoundActive
	}
	if s.registry.PlayerCount(roomID) < 2 {
		s.registry.SetRoundActive(roomID, false)
		return apperrors.ErrTooFewPlayers
	}

	drawer := s.registry.SelectDrawer(roomID)
	if drawer == "" {
		s.registry.SetRoundActive(roomID, false)
		return apperrors.ErrPlayerNotFound
	}

	word := words.Random(s.cfg.Game.WordDifficulty)
	s.registry.SetWord(roomID, word)
	log.Printf("🎨 房间 %s 回合开始，画手: %s，词: %s", roomID, drawer, word)

	// 到点与猜完走同一个收尾路径
	s.registry.StartTimer(roomID, s.cfg.Game.RoundDurationTime(), s.handleTimeExpiry)

	duration := s.cfg.Game.RoundDuration
	s.registry.Broadcast(roomID, protocol.MustNewRecord(protocol.ActionGameStart, duration), "")
	s.registry.Broadcast(roomID, protocol.MustEncode(&protocol.Record{
		Action:     protocol.ActionDrawerAssign,
		PlayerName: drawer,
	}), "")

	// 词只私发给画手名下的会话
	wordLine := protocol.MustNewRecord(protocol.ActionYourWord, word)
	for _, sess := range s.registry.SessionsByName(roomID, drawer) {
		_ = sess.Send(wordLine)
	}

	return nil
}

// AdminStartRound 管理接口触发开局，额外要求全员就绪
func (s *Server) AdminStartRound(roomID string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if !s.registry.AllReady(roomID) {
		return apperrors.ErrNotReady
	}
	return s.StartRound(roomID, "")
}

// handleTimeExpiry 回合计时器到点：播报后走统一收尾
func (s *Server) handleTimeExpiry(roomID string) {
	log.Printf("⏰ 房间 %s 回合超时", roomID)
	s.broadcastChat(roomID, "SYSTEM: Time's Up! No one guessed the word.")
	s.finishRound(roomID)
}

// finishRound 统一的回合收尾路径：猜完、超时、手动结束都走这里。
// 结算、播报得分、广播 round_over，然后定时以系统身份自动重开。
func (s *Server) finishRound(roomID string) {
	scores, ok := s.registry.EndRound(roomID)
	if !ok {
		return // 回合早已结束（重复触发）
	}

	log.Printf("🏁 房间 %s 回合结束", roomID)

	// 得分摘要
	summary := "ROUND OVER! SCORES:\n"
	for _, entry := range scores {
		summary += fmt.Sprintf("- %s: %d\n", entry.Name, entry.Score)
	}
	if len(scores) > 0 {
		summary += "WINNER: " + scores[0].Name
	}
	s.broadcastChat(roomID, summary)

	s.registry.Broadcast(roomID, protocol.MustNewRecord(protocol.ActionRoundOver, nil), "")

	// 累计排行榜（可选）
	if s.leaderboard != nil && len(scores) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.leaderboard.RecordRound(ctx, scores); err != nil {
			log.Printf("⚠️ 排行榜写入失败: %v", err)
		}
	}

	// 固定延迟后以系统身份重开，房主不在线也不会卡住
	delay := s.cfg.Game.RestartDelayTime()
	log.Printf("🔁 房间 %s 将在 %v 后自动开始下一回合", roomID, delay)
	time.AfterFunc(delay, func() {
		if err := s.StartRound(roomID, ""); err != nil {
			log.Printf("自动重开房间 %s 失败: %v", roomID, err)
		}
	})
}

// EndRoundNow 手动结束回合（管理接口）
func (s *Server) EndRoundNow(roomID string) error {
	if !s.registry.Exists(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if !s.registry.RoundActive(roomID) {
		return apperrors.ErrRoundNotActive
	}
	s.finishRound(roomID)
	return nil
}

func systemGuessedMessage(name string, points int) string {
	return fmt.Sprintf("SYSTEM: %s guessed the word! (+%d pts)", name, points)
}
