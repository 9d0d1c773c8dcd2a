package game

import (
	"fmt"
	"testing"
	"time"
)

// fixedRand 可控随机源：Float64 恒为 f，NormFloat64 恒为 n，IntN 恒为 0
type fixedRand struct {
	f float64
	n float64
}

func (r fixedRand) Float64() float64     { return r.f }
func (r fixedRand) NormFloat64() float64 { return r.n }
func (r fixedRand) IntN(int) int         { return 0 }

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// newPlayingRoom 创建 n 个真人并完成倒计时；第一个加入者成为 IT
func newPlayingRoom(t *testing.T, n int) *Room {
	t.Helper()
	r := NewRoom("TEST", DefaultRules(), fixedRand{f: 0.5})
	for i := 0; i < n; i++ {
		if _, _, err := r.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("P%d", i)); err != nil {
			t.Fatalf("join p%d: %v", i, err)
		}
	}
	if _, err := r.StartGame("p0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < CountdownSteps; i++ {
		r.AdvanceCountdown(t0)
	}
	if r.State != Playing {
		t.Fatalf("state = %s, want playing", r.State)
	}
	return r
}

// place 直接摆放玩家位置，并同步上一 Tick 快照
func place(r *Room, id string, x, y float64) *Player {
	p := r.byID[id]
	p.X, p.Y = x, y
	p.PrevX, p.PrevY = x, y
	return p
}

func countIt(players []*Player) int {
	n := 0
	for _, p := range players {
		if p.IsIt {
			n++
		}
	}
	return n
}

func eventsOfType(events []Event, typ string) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
