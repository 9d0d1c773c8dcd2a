// Package leaderboard 跨对局的累计排行榜存储
package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"tagarena/game"
)

// Entry 按玩家名聚合的累计成绩
type Entry struct {
	Name        string `json:"name"`
	GamesPlayed int    `json:"gamesPlayed"`
	TotalScore  int    `json:"totalScore"`
	BestScore   int    `json:"bestScore"`
	Wins        int    `json:"wins"`
}

// Store 排行榜存储接口；写入失败不影响对局结果
type Store interface {
	// Record 记录一局的最终成绩（机器人不计入）
	Record(ctx context.Context, results []game.Result) error
	// Top 返回前 n 名
	Top(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// humans 过滤掉机器人，排行榜只统计真人
func humans(results []game.Result) []game.Result {
	return lo.Reject(results, func(r game.Result, _ int) bool { return r.IsBot })
}

func apply(e *Entry, r game.Result) {
	e.GamesPlayed++
	e.TotalScore += r.Score
	e.BestScore = max(e.BestScore, r.Score)
	if r.Rank == 1 {
		e.Wins++
	}
}

func rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		return entries[i].Name < entries[j].Name
	})
}

// MemoryStore 进程内实现，用于测试与未配置数据库时
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Record(ctx context.Context, results []game.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range humans(results) {
		e, ok := m.entries[r.Name]
		if !ok {
			e = &Entry{Name: r.Name}
			m.entries[r.Name] = e
		}
		apply(e, r)
	}
	return ctx.Err()
}

func (m *MemoryStore) Top(ctx context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := lo.Map(lo.Values(m.entries), func(e *Entry, _ int) Entry { return *e })
	rank(entries)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, ctx.Err()
}

func (m *MemoryStore) Close() error { return nil }
