package game

import (
	"math"
	"time"
)

// Palette 按加入顺序循环分配的颜色
var Palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f1c40f",
	"#9b59b6", "#e67e22", "#1abc9c", "#ec407a",
}

// Stats 每局重置的累计统计
type Stats struct {
	NotItTime       time.Duration
	TagsMade        int
	FastestTag      time.Duration // 0 表示本局尚未抓到人
	BecameItAt      time.Time
	WasEverIt       bool
	TimesTagged     int
	LastTaggedBy    string
	ReTags          int
	Distance        float64
	CornerTime      time.Duration
	EdgeTime        time.Duration
	ItStreaks       []time.Duration
	CurrentItStart  time.Time // 零值表示没有未结束的 IT 连续段
	OpportunistTags int
}

// BotBrain 机器人的临时 AI 状态
type BotBrain struct {
	Difficulty Difficulty
	TargetX    float64
	TargetY    float64
	Ticks      int // 反应间隔计数
	Heading    float64
}

// Player 房间内的玩家实体（真人或机器人），服务端权威状态
type Player struct {
	ID    string
	Name  string
	Color string
	IsBot bool

	X, Y         float64
	PrevX, PrevY float64
	LastDelta    float64 // 最近一次 Tick 的位移，用于判定静止

	IsIt           bool
	Immune         bool
	ImmuneUntil    time.Time
	TrackingActive bool

	Stats Stats
	Bot   *BotBrain
}

// PlayerView 广播给客户端的玩家状态
type PlayerView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	IsBot      bool    `json:"isBot"`
	Difficulty string  `json:"difficulty,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	IsIt       bool    `json:"isIt"`
	Immune     bool    `json:"immune"`
}

// View 序列化为广播结构
func (p *Player) View() PlayerView {
	v := PlayerView{
		ID:     p.ID,
		Name:   p.Name,
		Color:  p.Color,
		IsBot:  p.IsBot,
		X:      p.X,
		Y:      p.Y,
		IsIt:   p.IsIt,
		Immune: p.Immune,
	}
	if p.Bot != nil {
		v.Difficulty = string(p.Bot.Difficulty)
	}
	return v
}

// SetPosition 写入客户端上报坐标，并裁剪到竞技场内
func (p *Player) SetPosition(x, y float64) {
	p.X, p.Y = ClampToArena(x, y)
}

// ResetRound 清空本局状态并重新随机出生点，保留 ID、名字、颜色与难度
func (p *Player) ResetRound(rng Rand) {
	p.X = 10 + rng.Float64()*(ArenaSize-20)
	p.Y = 10 + rng.Float64()*(ArenaSize-20)
	p.PrevX, p.PrevY = p.X, p.Y
	p.LastDelta = 0
	p.IsIt = false
	p.Immune = false
	p.ImmuneUntil = time.Time{}
	p.TrackingActive = false
	p.Stats = Stats{}
	if p.Bot != nil {
		p.Bot.TargetX, p.Bot.TargetY = p.X, p.Y
		p.Bot.Ticks = 0
		p.Bot.Heading = rng.Float64() * 2 * math.Pi
	}
}

// becomeIt 成为 IT：开启新的连续段；IT 不保留任何免疫
func (p *Player) becomeIt(now time.Time) {
	p.IsIt = true
	p.Immune = false
	p.ImmuneUntil = time.Time{}
	p.Stats.WasEverIt = true
	p.Stats.BecameItAt = now
	p.Stats.CurrentItStart = now
}

// closeStreak 结束当前 IT 连续段并记入列表
func (p *Player) closeStreak(now time.Time) {
	if p.Stats.CurrentItStart.IsZero() {
		return
	}
	p.Stats.ItStreaks = append(p.Stats.ItStreaks, now.Sub(p.Stats.CurrentItStart))
	p.Stats.CurrentItStart = time.Time{}
}

// shortestStreak 返回最短的 IT 连续段，没有时 ok=false
func (p *Player) shortestStreak() (time.Duration, bool) {
	if len(p.Stats.ItStreaks) == 0 {
		return 0, false
	}
	shortest := p.Stats.ItStreaks[0]
	for _, s := range p.Stats.ItStreaks[1:] {
		shortest = min(shortest, s)
	}
	return shortest, true
}
