package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"tagarena/game"
	"tagarena/leaderboard"
)

// RulesPatch 规则热更新载荷；时长字段以毫秒表示，缺省字段保持不变
type RulesPatch struct {
	RoundDurationMs *int64   `json:"roundDurationMs,omitempty"`
	TickIntervalMs  *int64   `json:"tickIntervalMs,omitempty"`
	CountdownStepMs *int64   `json:"countdownStepMs,omitempty"`
	ImmunityMs      *int64   `json:"immunityMs,omitempty"`
	TagDistance     *float64 `json:"tagDistance,omitempty"`
}

// Apply 合并到当前规则；非正值被忽略
func (p RulesPatch) Apply(r game.Rules) game.Rules {
	ms := func(v *int64, cur time.Duration) time.Duration {
		if v == nil || *v <= 0 {
			return cur
		}
		return time.Duration(*v) * time.Millisecond
	}
	r.RoundDuration = ms(p.RoundDurationMs, r.RoundDuration)
	r.TickInterval = ms(p.TickIntervalMs, r.TickInterval)
	r.CountdownStep = ms(p.CountdownStepMs, r.CountdownStep)
	r.Immunity = ms(p.ImmunityMs, r.Immunity)
	if p.TagDistance != nil && *p.TagDistance > 0 {
		r.TagDistance = *p.TagDistance
	}
	return r
}

func rulesView(r game.Rules) RulesPatch {
	return RulesPatch{
		RoundDurationMs: lo.ToPtr(r.RoundDuration.Milliseconds()),
		TickIntervalMs:  lo.ToPtr(r.TickInterval.Milliseconds()),
		CountdownStepMs: lo.ToPtr(r.CountdownStep.Milliseconds()),
		ImmunityMs:      lo.ToPtr(r.Immunity.Milliseconds()),
		TagDistance:     lo.ToPtr(r.TagDistance),
	}
}

// Handlers HTTP 管理与查询接口
type Handlers struct {
	Manager   *RoomManager
	Board     leaderboard.Store
	BoardSize int
}

func (h *Handlers) room(c *gin.Context) (*Room, bool) {
	room, err := h.Manager.GetRoom(c.Query("room"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return room, true
}

// GetConfig GET /admin/config?room=CODE 返回当前规则
func (h *Handlers) GetConfig(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	info, err := room.Info()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rulesView(info.Rules))
}

// PostConfig POST /admin/config?room=CODE 以 JSON 载荷更新部分规则（仅等待中的房间）
func (h *Handlers) PostConfig(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	var body RulesPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rules, err := room.PatchRules(body)
	switch {
	case errors.Is(err, game.ErrWrongState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "rules": rulesView(rules)})
	}
}

// ListRooms GET /admin/rooms
func (h *Handlers) ListRooms(c *gin.Context) {
	infos := make([]RoomInfo, 0)
	for _, r := range h.Manager.ListRooms() {
		if info, err := r.Info(); err == nil {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": infos})
}

// Metrics 输出指定房间的运行指标
// GET /metrics?room=CODE
func (h *Handlers) Metrics(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":    room.Code,
		"metrics": room.Metrics().Snapshot(),
	})
}

// Leaderboard GET /leaderboard?limit=N
func (h *Handlers) Leaderboard(c *gin.Context) {
	limit := h.BoardSize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, 100)
	}
	entries, err := h.Board.Top(c.Request.Context(), limit)
	if err != nil {
		Log.Errorw("leaderboard query failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	c.JSON(http.StatusOK, LeaderboardData{Entries: entries})
}
