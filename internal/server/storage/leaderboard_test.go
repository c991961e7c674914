package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kxyuan/draw-guess/internal/game/room"
)

func newTestLeaderboard(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewLeaderboard(client), mr
}

func TestLeaderboard_RecordAndTop(t *testing.T) {
	lb, _ := newTestLeaderboard(t)
	ctx := context.Background()

	err := lb.RecordRound(ctx, []room.ScoreEntry{
		{Name: "Alice", Score: 60},
		{Name: "Bob", Score: 10},
	})
	require.NoError(t, err)

	err = lb.RecordRound(ctx, []room.ScoreEntry{
		{Name: "Bob", Score: 70},
		{Name: "Alice", Score: 20},
	})
	require.NoError(t, err)

	entries, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 得分跨回合累计，各赢一回合
	assert.Equal(t, LeaderboardEntry{Name: "Bob", Score: 80, Wins: 1}, entries[0])
	assert.Equal(t, LeaderboardEntry{Name: "Alice", Score: 80, Wins: 1}, entries[1])
}

func TestLeaderboard_TopLimit(t *testing.T) {
	lb, _ := newTestLeaderboard(t)
	ctx := context.Background()

	err := lb.RecordRound(ctx, []room.ScoreEntry{
		{Name: "Alice", Score: 30},
		{Name: "Bob", Score: 20},
		{Name: "Carol", Score: 10},
	})
	require.NoError(t, err)

	entries, err := lb.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Alice", entries[0].Name)
	assert.Equal(t, "Bob", entries[1].Name)

	// limit 非法时退回默认值
	entries, err = lb.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLeaderboard_EmptyRound(t *testing.T) {
	lb, _ := newTestLeaderboard(t)
	ctx := context.Background()

	require.NoError(t, lb.RecordRound(ctx, nil))

	entries, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
