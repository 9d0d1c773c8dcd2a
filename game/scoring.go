package game

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
)

// 个性奖项
const (
	AwardUntouchable = "Untouchable"
	AwardFirstBlood  = "Sacrificial Lamb"
	AwardMarathon    = "Marathon Runner"
	AwardRevenge     = "Revenge Seeker"
	AwardMagnet      = "Tag Magnet"
	AwardCamper      = "Corner Camper"
	AwardOpportunist = "Opportunist"
	AwardWallHugger  = "Wall Hugger"
	AwardGoodSport   = "Good Sport"
)

// RoundStats 结算时随结果下发的统计
type RoundStats struct {
	SecondsNotIt     float64  `json:"secondsNotIt"`
	TagsMade         int      `json:"tagsMade"`
	FastestTag       *float64 `json:"fastestTag"`
	SurvivedUntagged bool     `json:"survivedUntagged"`
	IsItAtEnd        bool     `json:"isItAtEnd"`
	TimesTagged      int      `json:"timesTagged"`
	ReTags           int      `json:"reTags"`
	Distance         int      `json:"distance"`
	OpportunistTags  int      `json:"opportunistTags"`
	ShortestStreak   *float64 `json:"shortestStreak"`
}

// Result 单个玩家的最终成绩，是交给排行榜存储的唯一数据
type Result struct {
	PlayerView
	Score   int        `json:"score"`
	Rank    int        `json:"rank"`
	IsLoser bool       `json:"isLoser"`
	Award   string     `json:"award"`
	Stats   RoundStats `json:"stats"`
}

type awardCategory struct {
	award string
	value func(*Player) float64
}

// 按优先级排列的“最高值”类奖项
var rankedAwards = []awardCategory{
	{AwardMarathon, func(p *Player) float64 { return p.Stats.Distance }},
	{AwardRevenge, func(p *Player) float64 { return float64(p.Stats.ReTags) }},
	{AwardMagnet, func(p *Player) float64 { return float64(p.Stats.TimesTagged) }},
	{AwardCamper, func(p *Player) float64 { return float64(p.Stats.CornerTime) }},
	{AwardOpportunist, func(p *Player) float64 { return float64(p.Stats.OpportunistTags) }},
	{AwardWallHugger, func(p *Player) float64 { return float64(p.Stats.EdgeTime) }},
}

// AssignAwards 按优先级贪心分配奖项，每人至多一个；未分到的得到默认奖
func AssignAwards(players []*Player, firstTaggedID string) map[string]string {
	awards := make(map[string]string, len(players))
	neverIt, eligible := lo.FilterReject(players, func(p *Player, _ int) bool {
		return !p.Stats.WasEverIt
	})
	for _, p := range neverIt {
		awards[p.ID] = AwardUntouchable
	}

	if first, ok := lo.Find(eligible, func(p *Player) bool { return p.ID == firstTaggedID }); ok {
		awards[first.ID] = AwardFirstBlood
		eligible = lo.Without(eligible, first)
	}

	for _, cat := range rankedAwards {
		winner, ok := topOf(eligible, cat.value)
		if !ok {
			continue
		}
		awards[winner.ID] = cat.award
		eligible = lo.Without(eligible, winner)
	}

	for _, p := range players {
		if _, ok := awards[p.ID]; !ok {
			awards[p.ID] = AwardGoodSport
		}
	}
	return awards
}

// topOf 返回值严格为正的最大者；并列时取顺序在前者
func topOf(players []*Player, value func(*Player) float64) (*Player, bool) {
	var best *Player
	bestVal := 0.0
	for _, p := range players {
		if v := value(p); v > bestVal {
			best, bestVal = p, v
		}
	}
	return best, best != nil
}

// roundMaxima 全局最大距离、最大反杀次数与最短 IT 连续段
type roundMaxima struct {
	distance  float64
	reTags    int
	shortest  time.Duration
	hasStreak bool
}

func computeMaxima(players []*Player) roundMaxima {
	var m roundMaxima
	for _, p := range players {
		m.distance = math.Max(m.distance, p.Stats.Distance)
		m.reTags = max(m.reTags, p.Stats.ReTags)
		if !p.Stats.WasEverIt {
			continue
		}
		if s, ok := p.shortestStreak(); ok && (!m.hasStreak || s < m.shortest) {
			m.shortest, m.hasStreak = s, true
		}
	}
	return m
}

// scorePlayer 计算单个玩家的得分
func scorePlayer(p *Player, m roundMaxima) int {
	score := int(p.Stats.NotItTime / PointsInterval)
	if !p.Stats.WasEverIt {
		score += NeverItBonus
	}
	if s, ok := p.shortestStreak(); ok && m.hasStreak && s == m.shortest {
		score += ShortestStreakBonus
	}
	if m.reTags > 0 && p.Stats.ReTags == m.reTags {
		score += ReTagBonus
	}
	if m.distance > 0 && p.Stats.Distance == m.distance {
		score += DistanceBonus
	}
	if p.IsIt {
		score = max(0, score-ItAtEndPenalty)
	}
	return score
}

// Score 回合结束时的一次性结算：关闭未结束的连续段、分配奖项、计分并排名
func Score(players []*Player, firstTaggedID string, end time.Time) []Result {
	for _, p := range players {
		p.closeStreak(end)
	}
	m := computeMaxima(players)
	awards := AssignAwards(players, firstTaggedID)

	results := lo.Map(players, func(p *Player, _ int) Result {
		return Result{
			PlayerView: p.View(),
			Score:      scorePlayer(p, m),
			IsLoser:    p.IsIt,
			Award:      awards[p.ID],
			Stats:      roundStats(p),
		}
	})
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func roundStats(p *Player) RoundStats {
	s := RoundStats{
		SecondsNotIt:     roundTo(p.Stats.NotItTime.Seconds(), 1),
		TagsMade:         p.Stats.TagsMade,
		SurvivedUntagged: !p.Stats.WasEverIt,
		IsItAtEnd:        p.IsIt,
		TimesTagged:      p.Stats.TimesTagged,
		ReTags:           p.Stats.ReTags,
		Distance:         int(math.Round(p.Stats.Distance)),
		OpportunistTags:  p.Stats.OpportunistTags,
	}
	if p.Stats.FastestTag > 0 {
		s.FastestTag = lo.ToPtr(roundTo(p.Stats.FastestTag.Seconds(), 2))
	}
	if streak, ok := p.shortestStreak(); ok {
		s.ShortestStreak = lo.ToPtr(roundTo(streak.Seconds(), 2))
	}
	return s
}

func roundTo(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}

// LiveScores 每 Tick 的实时排名（仅按未当 IT 时间）
func LiveScores(players []*Player) []LiveScore {
	scores := lo.Map(players, func(p *Player, _ int) LiveScore {
		return LiveScore{ID: p.ID, Name: p.Name, Score: int(p.Stats.NotItTime / PointsInterval)}
	})
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
