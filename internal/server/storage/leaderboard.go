package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/kxyuan/draw-guess/internal/game/room"
)

const (
	// Redis key
	scoreKey = "leaderboard:score"
	winsKey  = "leaderboard:wins"
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
	Wins  int64  `json:"wins"`
}

// Leaderboard 跨回合的累计排行榜。
// 房间状态本身不落盘，这里只按玩家名累加得分与胜场。
type Leaderboard struct {
	client *redis.Client
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// RecordRound 累计一个回合的结算结果，scores 已按得分降序排列，
// 首位记为胜者
func (lb *Leaderboard) RecordRound(ctx context.Context, scores []room.ScoreEntry) error {
	if len(scores) == 0 {
		return nil
	}

	pipe := lb.client.Pipeline()
	for _, entry := range scores {
		pipe.ZIncrBy(ctx, scoreKey, float64(entry.Score), entry.Name)
	}
	pipe.ZIncrBy(ctx, winsKey, 1, scores[0].Name)

	_, err := pipe.Exec(ctx)
	return err
}

// Top 按累计得分降序返回前 limit 名玩家
func (lb *Leaderboard) Top(ctx context.Context, limit int64) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	members, err := lb.client.ZRevRangeWithScores(ctx, scoreKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, m := range members {
		name, _ := m.Member.(string)
		wins, err := lb.client.ZScore(ctx, winsKey, name).Result()
		if err != nil && err != redis.Nil {
			return nil, err
		}
		entries = append(entries, LeaderboardEntry{
			Name:  name,
			Score: int64(m.Score),
			Wins:  int64(wins),
		})
	}

	return entries, nil
}
