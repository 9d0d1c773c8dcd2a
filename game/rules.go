package game

import "time"

const (
	// ArenaSize 竞技场边长（归一化 0~100 坐标）
	ArenaSize = 100.0

	// MaxPlayers 房间容量（真人 + 机器人）
	MaxPlayers = 8
	// MinPlayers 开局最少人数
	MinPlayers = 2

	// CountdownSteps 开局倒计时步数（每步广播一次）
	CountdownSteps = 3

	// CornerZone 两个坐标都距墙小于该值视为处于角落
	CornerZone = 10.0
	// EdgeZone 任一坐标距墙小于该值视为贴边
	EdgeZone = 8.0
	// IdleThreshold 上一 Tick 位移小于该值视为静止（用于“趁虚而入”统计）
	IdleThreshold = 0.5

	// 计分：每 100ms 未当 IT 得 1 分
	PointsInterval      = 100 * time.Millisecond
	NeverItBonus        = 100
	ShortestStreakBonus = 25
	ReTagBonus          = 25
	DistanceBonus       = 25
	ItAtEndPenalty      = 50
)

// Rules 房间可调参数，管理端可在 waiting 状态下热更新
type Rules struct {
	RoundDuration time.Duration
	TickInterval  time.Duration
	CountdownStep time.Duration
	Immunity      time.Duration
	TagDistance   float64
}

// DefaultRules 默认规则：60 秒一局，10Hz Tick
func DefaultRules() Rules {
	return Rules{
		RoundDuration: 60 * time.Second,
		TickInterval:  100 * time.Millisecond,
		CountdownStep: time.Second,
		Immunity:      2 * time.Second,
		TagDistance:   5,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToArena 将坐标裁剪到竞技场范围
func ClampToArena(x, y float64) (float64, float64) {
	return clamp(x, 0, ArenaSize), clamp(y, 0, ArenaSize)
}
