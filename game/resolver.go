package game

import (
	"math"
	"time"
)

// accrue 推进单个玩家的时间与移动统计（先于抓人检测执行）
func accrue(p *Player, now time.Time, dt time.Duration) {
	if !p.IsIt {
		p.Stats.NotItTime += dt
	}
	if p.Immune && !now.Before(p.ImmuneUntil) {
		p.Immune = false
		p.ImmuneUntil = time.Time{}
	}

	p.LastDelta = math.Hypot(p.X-p.PrevX, p.Y-p.PrevY)
	p.PrevX, p.PrevY = p.X, p.Y
	if !p.TrackingActive {
		return
	}
	p.Stats.Distance += p.LastDelta
	if inCorner(p.X, p.Y) {
		p.Stats.CornerTime += dt
	}
	if nearEdge(p.X, p.Y) {
		p.Stats.EdgeTime += dt
	}
}

func inCorner(x, y float64) bool {
	nearX := x < CornerZone || x > ArenaSize-CornerZone
	nearY := y < CornerZone || y > ArenaSize-CornerZone
	return nearX && nearY
}

func nearEdge(x, y float64) bool {
	return x < EdgeZone || x > ArenaSize-EdgeZone || y < EdgeZone || y > ArenaSize-EdgeZone
}

func distance(a, b *Player) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// detectTag 按加入顺序扫描，返回第一个进入 IT 抓取范围的非免疫玩家
// 注意是“首个命中”而不是“最近者”，平局由加入顺序决定
func detectTag(players []*Player, it *Player, tagDistance float64) *Player {
	if it == nil || it.Immune {
		return nil
	}
	for _, p := range players {
		if p == it || p.Immune {
			continue
		}
		if distance(it, p) < tagDistance {
			return p
		}
	}
	return nil
}

// transferTag 执行一次 IT 转移及全部统计副作用
func transferTag(r *Room, tagger, target *Player, now time.Time) Event {
	reaction := now.Sub(tagger.Stats.BecameItAt)
	if tagger.Stats.FastestTag == 0 || reaction < tagger.Stats.FastestTag {
		tagger.Stats.FastestTag = reaction
	}
	tagger.Stats.TagsMade++
	tagger.closeStreak(now)
	if target.LastDelta < IdleThreshold {
		tagger.Stats.OpportunistTags++
	}
	if target.ID == tagger.Stats.LastTaggedBy {
		tagger.Stats.ReTags++
	}
	if r.FirstTaggedID == "" {
		r.FirstTaggedID = target.ID
	}

	tagger.IsIt = false
	tagger.Immune = true
	tagger.ImmuneUntil = now.Add(r.rules.Immunity)

	target.becomeIt(now)
	target.Stats.TimesTagged++
	target.Stats.LastTaggedBy = tagger.ID
	r.ItPlayerID = target.ID

	return Event{Type: EvtTagged, Data: TaggedData{NewItID: target.ID, TaggerID: tagger.ID}}
}

// resolve 单个 Tick 的结算：累计统计 → 抓人检测（每 Tick 至多一次）
func resolve(r *Room, now time.Time, dt time.Duration) []Event {
	for _, p := range r.players {
		accrue(p, now, dt)
	}
	it := r.byID[r.ItPlayerID]
	target := detectTag(r.players, it, r.rules.TagDistance)
	if target == nil {
		return nil
	}
	return []Event{transferTag(r, it, target, now)}
}
