package game

import (
	"math"
	"time"
)

// Rand 注入的随机源，*math/rand/v2.Rand 即满足该接口
type Rand interface {
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
}

// Difficulty 机器人难度档位
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Tier 难度参数：速度倍率、瞄准精度、每次决策的失误概率、反应间隔（Tick 数）
type Tier struct {
	Speed         float64
	Accuracy      float64
	MistakeChance float64
	ReactionTicks int
}

var tiers = map[Difficulty]Tier{
	Easy:   {Speed: 1.2, Accuracy: 0.55, MistakeChance: 0.15, ReactionTicks: 5},
	Medium: {Speed: 1.6, Accuracy: 0.8, MistakeChance: 0.07, ReactionTicks: 3},
	Hard:   {Speed: 2.1, Accuracy: 1, MistakeChance: 0.02, ReactionTicks: 1},
}

// TierFor 查询难度参数
func TierFor(d Difficulty) (Tier, bool) {
	t, ok := tiers[d]
	return t, ok
}

const (
	aimNoise      = 8.0  // 精度为 0 时瞄准噪声的标准差
	fleeRadius    = 30.0 // IT 进入该距离时开始逃跑
	fleeDistance  = 25.0
	fleeNoise     = 2.0
	fleeMargin    = 10.0 // 逃跑目标点远离墙壁的距离
	wanderStep    = 15.0
	wanderTurn    = 0.6 // 每次决策的最大转向（弧度）
	wallLookahead = 15.0
	safeMargin    = 5.0 // 最终目标点的安全内区
)

// BotNames 机器人名字池，同一房间内不重复
var BotNames = []string{
	"Blinky", "Pinky", "Inky", "Clyde", "Sparky", "Dash", "Ziggy",
	"Bolt", "Pixel", "Turbo", "Nova", "Rusty", "Echo", "Jinx",
}

// StepBot 机器人每 Tick 的决策与移动：目标点按反应间隔重算，位置每 Tick 逼近
func StepBot(bot *Player, players []*Player, it *Player, dt time.Duration, rng Rand) {
	if bot.Bot == nil {
		return
	}
	tier := tiers[bot.Bot.Difficulty]
	if tier.ReactionTicks <= 0 {
		tier.ReactionTicks = 1
	}
	if bot.Bot.Ticks%tier.ReactionTicks == 0 {
		chooseTarget(bot, players, it, tier, rng)
	}
	bot.Bot.Ticks++
	moveToward(bot, tier.Speed*float64(dt)/float64(100*time.Millisecond))
	bot.TrackingActive = true
}

func chooseTarget(bot *Player, players []*Player, it *Player, tier Tier, rng Rand) {
	b := bot.Bot
	switch {
	case bot.IsIt:
		if prey := nearestPrey(bot, players); prey != nil {
			noise := (1 - tier.Accuracy) * aimNoise
			b.TargetX = prey.X + rng.NormFloat64()*noise
			b.TargetY = prey.Y + rng.NormFloat64()*noise
		} else {
			wander(bot, rng)
		}
	case it != nil && distance(bot, it) < fleeRadius:
		flee(bot, it, rng)
	default:
		wander(bot, rng)
	}

	if rng.Float64() < tier.MistakeChance {
		b.TargetX = rng.Float64() * ArenaSize
		b.TargetY = rng.Float64() * ArenaSize
	}
	b.TargetX = clamp(b.TargetX, safeMargin, ArenaSize-safeMargin)
	b.TargetY = clamp(b.TargetY, safeMargin, ArenaSize-safeMargin)
}

func nearestPrey(bot *Player, players []*Player) *Player {
	var best *Player
	bestDist := math.Inf(1)
	for _, p := range players {
		if p == bot || p.Immune {
			continue
		}
		if d := distance(bot, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func flee(bot, it *Player, rng Rand) {
	dx, dy := bot.X-it.X, bot.Y-it.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		angle := rng.Float64() * 2 * math.Pi
		dx, dy, d = math.Cos(angle), math.Sin(angle), 1
	}
	tx := bot.X + dx/d*fleeDistance + rng.NormFloat64()*fleeNoise
	ty := bot.Y + dy/d*fleeDistance + rng.NormFloat64()*fleeNoise
	bot.Bot.TargetX = clamp(tx, fleeMargin, ArenaSize-fleeMargin)
	bot.Bot.TargetY = clamp(ty, fleeMargin, ArenaSize-fleeMargin)
}

func wander(bot *Player, rng Rand) {
	b := bot.Bot
	b.Heading += (rng.Float64() - 0.5) * wanderTurn
	if bot.X < wallLookahead || bot.X > ArenaSize-wallLookahead ||
		bot.Y < wallLookahead || bot.Y > ArenaSize-wallLookahead {
		center := ArenaSize / 2
		b.Heading = math.Atan2(center-bot.Y, center-bot.X) + (rng.Float64()-0.5)*wanderTurn
	}
	b.TargetX = clamp(bot.X+math.Cos(b.Heading)*wanderStep, safeMargin, ArenaSize-safeMargin)
	b.TargetY = clamp(bot.Y+math.Sin(b.Heading)*wanderStep, safeMargin, ArenaSize-safeMargin)
}

// moveToward 以固定步长向目标点移动，不越过目标
func moveToward(bot *Player, step float64) {
	dx, dy := bot.Bot.TargetX-bot.X, bot.Bot.TargetY-bot.Y
	d := math.Hypot(dx, dy)
	if d <= step {
		bot.SetPosition(bot.Bot.TargetX, bot.Bot.TargetY)
		return
	}
	bot.SetPosition(bot.X+dx/d*step, bot.Y+dy/d*step)
}
