package game

import (
	"math"
	"testing"
	"time"
)

func newBot(d Difficulty, x, y float64) *Player {
	return &Player{
		ID:    "bot",
		Name:  "Bot",
		IsBot: true,
		X:     x,
		Y:     y,
		PrevX: x,
		PrevY: y,
		Bot:   &BotBrain{Difficulty: d, TargetX: x, TargetY: y},
	}
}

func TestHardBotConvergesOnStationaryTarget(t *testing.T) {
	bot := newBot(Hard, 20, 20)
	bot.IsIt = true
	prey := &Player{ID: "prey", X: 60, Y: 50}
	players := []*Player{bot, prey}
	rng := fixedRand{f: 0.99} // 不触发失误，噪声为 0

	step := tiers[Hard].Speed
	prev := math.Hypot(prey.X-bot.X, prey.Y-bot.Y)
	for i := 0; i < 40; i++ {
		StepBot(bot, players, bot, 100*time.Millisecond, rng)
		d := math.Hypot(prey.X-bot.X, prey.Y-bot.Y)
		if d > prev {
			t.Fatalf("tick %d: moved away from target (%v > %v)", i, d, prev)
		}
		if moved := prev - d; moved > step+1e-9 {
			t.Fatalf("tick %d: moved %v, more than speed %v", i, moved, step)
		}
		prev = d
	}
	if bot.X != prey.X || bot.Y != prey.Y {
		t.Fatalf("bot at (%v,%v), want exact target (60,50)", bot.X, bot.Y)
	}
}

func TestBotNeverOvershootsTarget(t *testing.T) {
	bot := newBot(Medium, 50, 50)
	bot.Bot.TargetX, bot.Bot.TargetY = 50.5, 50
	moveToward(bot, 3)
	if bot.X != 50.5 || bot.Y != 50 {
		t.Fatalf("bot at (%v,%v), want (50.5,50)", bot.X, bot.Y)
	}
}

func TestBotMovementScalesWithElapsedTime(t *testing.T) {
	bot := newBot(Easy, 50, 50)
	bot.Bot.Ticks = 1 // 跳过本 Tick 的决策
	bot.Bot.TargetX, bot.Bot.TargetY = 90, 50
	StepBot(bot, []*Player{bot}, nil, 200*time.Millisecond, fixedRand{f: 0.99})
	want := 50 + 2*tiers[Easy].Speed
	if math.Abs(bot.X-want) > 1e-9 {
		t.Fatalf("x = %v, want %v", bot.X, want)
	}
	if !bot.TrackingActive {
		t.Fatalf("bot tracking should be active after first step")
	}
}

func TestBotFleesFromNearbyIt(t *testing.T) {
	bot := newBot(Hard, 50, 50)
	it := &Player{ID: "it", X: 45, Y: 50, IsIt: true}
	StepBot(bot, []*Player{it, bot}, it, 100*time.Millisecond, fixedRand{f: 0.99})
	if bot.Bot.TargetX != 50+fleeDistance || bot.Bot.TargetY != 50 {
		t.Fatalf("flee target = (%v,%v), want (%v,50)", bot.Bot.TargetX, bot.Bot.TargetY, 50+fleeDistance)
	}
	if bot.X <= 50 {
		t.Fatalf("bot moved toward IT: x=%v", bot.X)
	}
}

func TestFleeTargetStaysAwayFromWalls(t *testing.T) {
	bot := newBot(Hard, 92, 50)
	it := &Player{ID: "it", X: 80, Y: 50, IsIt: true}
	StepBot(bot, []*Player{it, bot}, it, 100*time.Millisecond, fixedRand{f: 0.99})
	if bot.Bot.TargetX != ArenaSize-fleeMargin {
		t.Fatalf("flee target x = %v, want %v", bot.Bot.TargetX, ArenaSize-fleeMargin)
	}
}

func TestWanderTurnsInwardNearWall(t *testing.T) {
	bot := newBot(Hard, 2, 50)
	bot.Bot.Heading = math.Pi // 朝向左墙
	StepBot(bot, []*Player{bot}, nil, 100*time.Millisecond, fixedRand{f: 0.99})
	if bot.Bot.TargetX <= 2 {
		t.Fatalf("wander target x = %v, expected heading back inside", bot.Bot.TargetX)
	}
	if math.Cos(bot.Bot.Heading) <= 0 {
		t.Fatalf("heading %v still points at the wall", bot.Bot.Heading)
	}
}

func TestMistakeOverridesTarget(t *testing.T) {
	bot := newBot(Hard, 50, 50)
	bot.IsIt = true
	prey := &Player{ID: "prey", X: 60, Y: 60}
	// Float64 = 0.01 低于失误概率：目标被替换为随机点 (1,1)，再被裁剪到安全区
	StepBot(bot, []*Player{bot, prey}, bot, 100*time.Millisecond, fixedRand{f: 0.01})
	if bot.Bot.TargetX != safeMargin || bot.Bot.TargetY != safeMargin {
		t.Fatalf("target = (%v,%v), want (%v,%v)", bot.Bot.TargetX, bot.Bot.TargetY, safeMargin, safeMargin)
	}
}

func TestReactionIntervalGatesRetargeting(t *testing.T) {
	bot := newBot(Easy, 50, 50)
	bot.IsIt = true
	prey := &Player{ID: "prey", X: 70, Y: 50}
	players := []*Player{bot, prey}
	rng := fixedRand{f: 0.99}

	StepBot(bot, players, bot, 100*time.Millisecond, rng)
	first := bot.Bot.TargetY
	prey.Y = 80
	for i := 1; i < tiers[Easy].ReactionTicks; i++ {
		StepBot(bot, players, bot, 100*time.Millisecond, rng)
		if bot.Bot.TargetY != first {
			t.Fatalf("tick %d: retargeted before reaction interval", i)
		}
	}
	StepBot(bot, players, bot, 100*time.Millisecond, rng)
	if bot.Bot.TargetY == first {
		t.Fatalf("bot did not retarget after %d ticks", tiers[Easy].ReactionTicks)
	}
}

func TestItBotIgnoresImmunePlayers(t *testing.T) {
	bot := newBot(Hard, 50, 50)
	bot.IsIt = true
	near := &Player{ID: "near", X: 52, Y: 50, Immune: true}
	far := &Player{ID: "far", X: 20, Y: 50}
	StepBot(bot, []*Player{bot, near, far}, bot, 100*time.Millisecond, fixedRand{f: 0.99})
	if bot.Bot.TargetX != 20 {
		t.Fatalf("target x = %v, want the non-immune player at 20", bot.Bot.TargetX)
	}
}

func TestTiersOrderedByDifficulty(t *testing.T) {
	easy, medium, hard := tiers[Easy], tiers[Medium], tiers[Hard]
	if !(easy.Accuracy < medium.Accuracy && medium.Accuracy < hard.Accuracy) {
		t.Fatalf("accuracy not increasing with difficulty")
	}
	if !(easy.MistakeChance > medium.MistakeChance && medium.MistakeChance > hard.MistakeChance) {
		t.Fatalf("mistake chance not decreasing with difficulty")
	}
	if hard.ReactionTicks != 1 {
		t.Fatalf("hard reaction ticks = %d, want 1", hard.ReactionTicks)
	}
}
