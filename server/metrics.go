package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount       int64 // 统计的 Tick 次数
	TotalTickNs     int64 // Tick 累计耗时（纳秒）
	IntentsAccepted int64 // 被接受的意图数
	IntentsRejected int64 // 被拒绝的意图数（非房主、状态不符等）
	RateLimited     int64 // 因限流被丢弃的入站消息数
	Tags            int64 // 抓人次数
	RoundsPlayed    int64 // 完成的回合数
	SendDropped     int64 // 因发送队列满被丢弃的出站消息数
	BoardErrors     int64 // 排行榜写入失败次数
}

func (m *RoomMetrics) IncAccepted()     { atomic.AddInt64(&m.IntentsAccepted, 1) }
func (m *RoomMetrics) IncRejected()     { atomic.AddInt64(&m.IntentsRejected, 1) }
func (m *RoomMetrics) IncRateLimited()  { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) AddTags(n int)    { atomic.AddInt64(&m.Tags, int64(n)) }
func (m *RoomMetrics) IncRounds()       { atomic.AddInt64(&m.RoundsPlayed, 1) }
func (m *RoomMetrics) IncSendDropped()  { atomic.AddInt64(&m.SendDropped, 1) }
func (m *RoomMetrics) IncBoardErrors()  { atomic.AddInt64(&m.BoardErrors, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":       tick,
		"avg_tick_ms":      avgMs,
		"intents_accepted": atomic.LoadInt64(&m.IntentsAccepted),
		"intents_rejected": atomic.LoadInt64(&m.IntentsRejected),
		"rate_limited":     atomic.LoadInt64(&m.RateLimited),
		"tags":             atomic.LoadInt64(&m.Tags),
		"rounds_played":    atomic.LoadInt64(&m.RoundsPlayed),
		"send_dropped":     atomic.LoadInt64(&m.SendDropped),
		"board_errors":     atomic.LoadInt64(&m.BoardErrors),
	}
}
