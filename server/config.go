package server

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tagarena/game"
)

// Config 服务配置：.env → 环境变量 → 命令行参数
type Config struct {
	Addr            string
	LogFile         string
	LogLevel        string
	DBPath          string // 为空时使用内存排行榜
	LeaderboardSize int
	MoveRateLimit   int // 每秒允许的入站消息数
	MoveRateBurst   int
	Production      bool
	Rules           game.Rules
}

// LoadConfig 读取配置；.env 不存在时忽略
func LoadConfig() Config {
	_ = godotenv.Load()

	rules := game.DefaultRules()
	rules.RoundDuration = getEnvDuration("ROUND_DURATION", rules.RoundDuration)
	rules.TickInterval = getEnvDuration("TICK_INTERVAL", rules.TickInterval)
	rules.CountdownStep = getEnvDuration("COUNTDOWN_STEP", rules.CountdownStep)
	rules.Immunity = getEnvDuration("IMMUNITY", rules.Immunity)
	rules.TagDistance = getEnvFloat("TAG_DISTANCE", rules.TagDistance)

	return Config{
		Addr:            getEnv("ADDR", ":8080"),
		LogFile:         getEnv("LOG_FILE", "app.log"),
		LogLevel:        getEnv("LOG_LEVEL", "debug"),
		DBPath:          getEnv("DB_PATH", "data/leaderboard.db"),
		LeaderboardSize: getEnvInt("LEADERBOARD_SIZE", 10),
		MoveRateLimit:   getEnvInt("MOVE_RATE_LIMIT", 30),
		MoveRateBurst:   getEnvInt("MOVE_RATE_BURST", 15),
		Production:      os.Getenv("GIN_MODE") == "release",
		Rules:           rules,
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		Log.Warnf("invalid duration for %s: %q, using default %v", key, val, fallback)
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		Log.Warnf("invalid int for %s: %q, using default %d", key, val, fallback)
		return fallback
	}
	return i
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		Log.Warnf("invalid float for %s: %q, using default %v", key, val, fallback)
		return fallback
	}
	return f
}
