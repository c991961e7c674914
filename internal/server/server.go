package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kxyuan/draw-guess/internal/config"
	"github.com/kxyuan/draw-guess/internal/game/room"
	"github.com/kxyuan/draw-guess/internal/server/storage"
)

// Server 笔画服务器：监听 TCP 连接，协调房间状态与消息转发
type Server struct {
	cfg      *config.Config
	registry *room.Registry

	redis       *redis.Client        // 仅排行榜使用，可为 nil
	leaderboard *storage.Leaderboard // redis 关闭时为 nil

	listener net.Listener
	closed   atomic.Bool
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		registry: room.NewRegistry(cfg.Game),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}

		s.redis = rdb
		s.leaderboard = storage.NewLeaderboard(rdb)
		log.Printf("🏆 排行榜已启用 (redis: %s)", cfg.Redis.Addr)
	}

	return s, nil
}

// Registry 暴露房间注册表（管理接口与测试使用）
func (s *Server) Registry() *room.Registry {
	return s.registry
}

// Leaderboard 暴露排行榜，未启用时为 nil
func (s *Server) Leaderboard() *storage.Leaderboard {
	return s.leaderboard
}

// Start 启动 TCP 监听并进入接入循环
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	s.listener = ln

	log.Printf("🚀 笔画服务器启动在 %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("接受连接失败: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// Shutdown 关闭服务器：停止接入，踢掉所有会话，断开 Redis
func (s *Server) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	for _, roomID := range s.registry.RoomIDs() {
		s.registry.CancelTimer(roomID)
		for _, sess := range s.registry.Sessions(roomID) {
			sess.Close()
		}
	}

	if s.redis != nil {
		_ = s.redis.Close()
	}

	log.Println("服务器已关闭")
}
