package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// State 房间生命周期状态
type State string

const (
	Waiting   State = "waiting"
	Countdown State = "countdown"
	Playing   State = "playing"
	Ended     State = "ended"
)

var (
	ErrRoomFull          = errors.New("room is full")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrNotEnoughPlayers  = errors.New("need at least 2 players to start")
	ErrNotHost           = errors.New("only the host can do that")
	ErrWrongState        = errors.New("not allowed in the current game state")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrNotBot            = errors.New("player is not a bot")
	ErrUnknownDifficulty = errors.New("unknown bot difficulty")
)

// Room 单个对局的权威状态机；不做任何 I/O，也不持有定时器
// 所有方法须由同一执行上下文串行调用
type Room struct {
	Code  string
	State State

	players []*Player // 加入顺序，首个真人为房主
	byID    map[string]*Player

	ItPlayerID    string
	RoundStart    time.Time
	LastTick      time.Time
	FirstTaggedID string
	botNames      map[string]struct{}
	colorSeq      int
	countdownLeft int

	rules Rules
	rng   Rand
}

// NewRoom 创建空房间
func NewRoom(code string, rules Rules, rng Rand) *Room {
	return &Room{
		Code:     code,
		State:    Waiting,
		byID:     make(map[string]*Player),
		botNames: make(map[string]struct{}),
		rules:    rules,
		rng:      rng,
	}
}

func (r *Room) Rules() Rules { return r.rules }

// SetRules 仅在 waiting 状态下允许修改规则
func (r *Room) SetRules(rules Rules) error {
	if r.State != Waiting {
		return ErrWrongState
	}
	r.rules = rules
	return nil
}

// Players 按加入顺序返回玩家
func (r *Room) Players() []*Player { return r.players }

func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *Room) Len() int { return len(r.players) }

// Host 房主：加入顺序最早的真人
func (r *Room) Host() *Player {
	host, _ := lo.Find(r.players, func(p *Player) bool { return !p.IsBot })
	return host
}

func (r *Room) isHost(id string) bool {
	h := r.Host()
	return h != nil && h.ID == id
}

// Abandoned 房间无人或只剩机器人时应销毁
func (r *Room) Abandoned() bool {
	return !lo.ContainsBy(r.players, func(p *Player) bool { return !p.IsBot })
}

// Views 序列化全部玩家
func (r *Room) Views() []PlayerView {
	return lo.Map(r.players, func(p *Player, _ int) PlayerView { return p.View() })
}

func (r *Room) playersEvent(typ string) Event {
	return Event{Type: typ, Data: PlayersData{Players: r.Views()}}
}

func (r *Room) add(p *Player) {
	p.Color = Palette[r.colorSeq%len(Palette)]
	r.colorSeq++
	p.ResetRound(r.rng)
	r.players = append(r.players, p)
	r.byID[p.ID] = p
}

func (r *Room) canAdmit() error {
	if r.State != Waiting {
		return ErrGameInProgress
	}
	if len(r.players) >= MaxPlayers {
		return ErrRoomFull
	}
	return nil
}

// Join 真人加入（仅 waiting 状态）
func (r *Room) Join(id, name string) (*Player, []Event, error) {
	if err := r.canAdmit(); err != nil {
		return nil, nil, err
	}
	if name == "" {
		name = fmt.Sprintf("Player %d", len(r.players)+1)
	}
	p := &Player{ID: id, Name: name}
	r.add(p)
	return p, []Event{r.playersEvent(EvtPlayerJoined)}, nil
}

// AddBot 房主添加机器人，名字在房间内唯一
func (r *Room) AddBot(requesterID string, difficulty Difficulty) (*Player, []Event, error) {
	if !r.isHost(requesterID) {
		return nil, nil, ErrNotHost
	}
	if difficulty == "" {
		difficulty = Medium
	}
	if _, ok := TierFor(difficulty); !ok {
		return nil, nil, ErrUnknownDifficulty
	}
	if err := r.canAdmit(); err != nil {
		return nil, nil, err
	}
	p := &Player{
		ID:    "bot-" + uuid.NewString(),
		Name:  r.nextBotName(),
		IsBot: true,
		Bot:   &BotBrain{Difficulty: difficulty},
	}
	r.add(p)
	return p, []Event{r.playersEvent(EvtPlayerJoined)}, nil
}

func (r *Room) nextBotName() string {
	free := lo.Filter(BotNames, func(n string, _ int) bool {
		_, used := r.botNames[n]
		return !used
	})
	name := fmt.Sprintf("Bot %d", len(r.botNames)+1)
	if len(free) > 0 {
		name = free[r.rng.IntN(len(free))]
	}
	r.botNames[name] = struct{}{}
	return name
}

// RemoveBot 房主移除机器人
func (r *Room) RemoveBot(requesterID, botID string, now time.Time) ([]Event, error) {
	if !r.isHost(requesterID) {
		return nil, ErrNotHost
	}
	p, ok := r.byID[botID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if !p.IsBot {
		return nil, ErrNotBot
	}
	delete(r.botNames, p.Name)
	return r.remove(p, now), nil
}

// Leave 玩家离开；返回房间是否应被销毁
func (r *Room) Leave(id string, now time.Time) ([]Event, bool) {
	p, ok := r.byID[id]
	if !ok {
		return nil, r.Abandoned()
	}
	events := r.remove(p, now)
	return events, r.Abandoned()
}

func (r *Room) remove(p *Player, now time.Time) []Event {
	r.players = lo.Without(r.players, p)
	delete(r.byID, p.ID)
	if r.State == Playing && p.IsIt && len(r.players) > 0 {
		next := r.players[r.rng.IntN(len(r.players))]
		next.becomeIt(now)
		r.ItPlayerID = next.ID
	} else if p.ID == r.ItPlayerID {
		r.ItPlayerID = ""
	}
	return []Event{r.playersEvent(EvtPlayerLeft)}
}

// StartGame 房主开局：waiting → countdown
func (r *Room) StartGame(requesterID string) ([]Event, error) {
	if !r.isHost(requesterID) {
		return nil, ErrNotHost
	}
	if r.State != Waiting {
		return nil, ErrWrongState
	}
	if len(r.players) < MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	r.State = Countdown
	r.countdownLeft = CountdownSteps
	return []Event{{Type: EvtCountdown, Data: CountdownData{Count: r.countdownLeft}}}, nil
}

// AdvanceCountdown 每个倒计时步调用一次；倒计时结束时开局并返回 started=true
func (r *Room) AdvanceCountdown(now time.Time) ([]Event, bool) {
	if r.State != Countdown {
		return nil, false
	}
	r.countdownLeft--
	if r.countdownLeft > 0 {
		return []Event{{Type: EvtCountdown, Data: CountdownData{Count: r.countdownLeft}}}, false
	}
	return []Event{r.beginRound(now)}, true
}

// beginRound countdown → playing：随机选出 IT
func (r *Room) beginRound(now time.Time) Event {
	r.State = Playing
	r.RoundStart = now
	r.LastTick = now
	r.FirstTaggedID = ""
	r.ItPlayerID = ""
	if len(r.players) > 0 {
		it := r.players[r.rng.IntN(len(r.players))]
		it.becomeIt(now)
		r.ItPlayerID = it.ID
	}
	return Event{Type: EvtGameStarted, Data: GameStartedData{
		Players:    r.Views(),
		ItPlayerID: r.ItPlayerID,
		Duration:   r.rules.RoundDuration.Milliseconds(),
	}}
}

// Move 写入真人上报坐标（服务端裁剪）；首次上报时开始累计移动统计
func (r *Room) Move(id string, x, y float64) error {
	p, ok := r.byID[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.IsBot {
		return ErrNotBot
	}
	p.SetPosition(x, y)
	if r.State == Playing && !p.TrackingActive {
		p.PrevX, p.PrevY = p.X, p.Y
		p.TrackingActive = true
	}
	return nil
}

// TimeLeft 本局剩余时间
func (r *Room) TimeLeft(now time.Time) time.Duration {
	if r.State != Playing {
		return 0
	}
	return max(0, r.rules.RoundDuration-now.Sub(r.RoundStart))
}

// Tick 推进一个 Tick：先驱动机器人，再结算，最后产出完整快照
func (r *Room) Tick(now time.Time) []Event {
	if r.State != Playing {
		return nil
	}
	dt := now.Sub(r.LastTick)
	r.LastTick = now

	it := r.byID[r.ItPlayerID]
	for _, p := range r.players {
		if p.IsBot {
			StepBot(p, r.players, it, dt, r.rng)
		}
	}
	events := resolve(r, now, dt)
	return append(events, Event{Type: EvtGameState, Data: GameStateData{
		Players:    r.Views(),
		ItPlayerID: r.ItPlayerID,
		TimeLeft:   r.TimeLeft(now).Milliseconds(),
		LiveScores: LiveScores(r.players),
	}})
}

// EndRound playing → ended：结算并返回最终成绩
func (r *Room) EndRound(now time.Time) ([]Result, []Event) {
	if r.State != Playing {
		return nil, nil
	}
	r.State = Ended
	results := Score(r.players, r.FirstTaggedID, now)
	return results, []Event{{Type: EvtGameEnded, Data: GameEndedData{
		Players:     r.Views(),
		Leaderboard: results,
	}}}
}

// PlayAgain 房主重开：ended → waiting，重置所有本局字段
func (r *Room) PlayAgain(requesterID string) ([]Event, error) {
	if !r.isHost(requesterID) {
		return nil, ErrNotHost
	}
	if r.State != Ended {
		return nil, ErrWrongState
	}
	r.State = Waiting
	r.ItPlayerID = ""
	r.FirstTaggedID = ""
	r.RoundStart = time.Time{}
	r.LastTick = time.Time{}
	for _, p := range r.players {
		p.ResetRound(r.rng)
	}
	return []Event{r.playersEvent(EvtPlayAgain)}, nil
}
