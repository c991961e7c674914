package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Admin  AdminConfig  `yaml:"admin"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig 笔画服务器配置
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AdminConfig 管理接口配置
type AdminConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig Redis 配置（仅用于累计排行榜，可关闭）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	RoundDuration    int    `yaml:"round_duration"`     // 回合时长（秒）
	RestartDelay     int    `yaml:"restart_delay"`      // 回合结束后自动开始下一回合的延迟（秒）
	VideoQueueLimit  int    `yaml:"video_queue_limit"`  // 发送队列超过该长度时丢弃视频帧
	ChatHistoryLimit int    `yaml:"chat_history_limit"` // 聊天记录上限
	GuessPoints      int    `yaml:"guess_points"`       // 猜中得分
	DrawerPoints     int    `yaml:"drawer_points"`      // 每次被猜中画手得分
	GestureBonus     int    `yaml:"gesture_bonus"`      // 画手使用手势模式的奖励分
	WordDifficulty   string `yaml:"word_difficulty"`    // 选词难度 easy/medium/hard
}

// RoundDurationTime 返回回合时长
func (c *GameConfig) RoundDurationTime() time.Duration {
	return time.Duration(c.RoundDuration) * time.Second
}

// RestartDelayTime 返回自动重开延迟
func (c *GameConfig) RestartDelayTime() time.Duration {
	return time.Duration(c.RestartDelay) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Admin.Host == "" {
		c.Admin.Host = "0.0.0.0"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 5001
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Game.RoundDuration == 0 {
		c.Game.RoundDuration = 60
	}
	if c.Game.RestartDelay == 0 {
		c.Game.RestartDelay = 5
	}
	if c.Game.VideoQueueLimit == 0 {
		c.Game.VideoQueueLimit = 5
	}
	if c.Game.ChatHistoryLimit == 0 {
		c.Game.ChatHistoryLimit = 100
	}
	if c.Game.GuessPoints == 0 {
		c.Game.GuessPoints = 10
	}
	if c.Game.DrawerPoints == 0 {
		c.Game.DrawerPoints = 10
	}
	if c.Game.GestureBonus == 0 {
		c.Game.GestureBonus = 50
	}
	if c.Game.WordDifficulty == "" {
		c.Game.WordDifficulty = "easy"
	}
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
