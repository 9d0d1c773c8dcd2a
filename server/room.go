package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"tagarena/game"
	"tagarena/leaderboard"
)

// ErrRoomClosed 房间已销毁，后续请求一律忽略
var ErrRoomClosed = errors.New("room closed")

// Sender 房间向客户端投递消息的最小接口，Enqueue 满则丢弃并返回 false
type Sender interface {
	Enqueue(b []byte) bool
	Close()
}

// RoomInfo 管理端与房间列表使用的摘要
type RoomInfo struct {
	Code      string     `json:"code"`
	State     game.State `json:"state"`
	Players   int        `json:"players"`
	Bots      int        `json:"bots"`
	Scheduled bool       `json:"scheduled"` // 是否有倒计时或 Tick 在运行
	Rules     game.Rules `json:"-"`
}

// 房间收件箱中的命令
type (
	joinCmd struct {
		name   string
		conn   Sender
		create bool
		reply  chan joinResult
	}
	joinResult struct {
		playerID string
		err      error
	}
	leaveCmd  struct{ playerID string }
	intentCmd struct {
		playerID string
		in       Intent
	}
	boardCmd struct{ entries []leaderboard.Entry }
	rulesCmd struct {
		patch RulesPatch
		reply chan rulesResult
	}
	rulesResult struct {
		rules game.Rules
		err   error
	}
	infoCmd struct{ reply chan RoomInfo }
)

// Room 房间执行上下文：单协程串行处理意图、倒计时、Tick 与回合结束
// 游戏状态由 game.Room 维护，本类型负责定时任务、连接与广播
type Room struct {
	Code string

	game    *game.Room
	clients map[string]Sender
	sched   schedule

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	metrics   *RoomMetrics
	board     leaderboard.Store
	boardSize int
	onEmpty   func(code string)
	now       func() time.Time
}

// NewRoom 创建房间；需要调用 Run 开始处理
func NewRoom(code string, opts RoomOptions) *Room {
	opts = opts.withDefaults()
	return &Room{
		Code:      code,
		game:      game.NewRoom(code, opts.Rules, opts.Rand()),
		clients:   make(map[string]Sender),
		inbox:     make(chan any, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		metrics:   &RoomMetrics{},
		board:     opts.Board,
		boardSize: opts.BoardSize,
		now:       opts.Clock,
	}
}

// Metrics 房间运行指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Stop 关闭房间（幂等）
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

func (r *Room) stopped() bool {
	select {
	case <-r.quit:
		return true
	default:
		return false
	}
}

// Done 房间协程退出后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

// Run 房间主循环：命令与定时任务在同一协程中串行执行
func (r *Room) Run() {
	defer close(r.done)
	defer r.sched.stopAll()
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			// 销毁后 quit 与 inbox 可能同时就绪：排队中的命令一律丢弃
			if r.stopped() {
				return
			}
			r.handleCommand(cmd)
		case <-r.sched.countdownC():
			r.onCountdown()
		case <-r.sched.tickC():
			r.onTick()
		case <-r.sched.deadlineC():
			r.onRoundEnd()
		}
	}
}

// post 投递命令；房间已关闭时丢弃
func (r *Room) post(cmd any) bool {
	select {
	case r.inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Join 加入房间并返回分配的玩家 ID
func (r *Room) Join(name string, conn Sender, create bool) (string, error) {
	reply := make(chan joinResult, 1)
	if !r.post(joinCmd{name: name, conn: conn, create: create, reply: reply}) {
		return "", ErrRoomClosed
	}
	select {
	case res := <-reply:
		return res.playerID, res.err
	case <-r.done:
		return "", ErrRoomClosed
	}
}

// Submit 提交玩家意图；房间已销毁时静默忽略
func (r *Room) Submit(playerID string, in Intent) {
	r.post(intentCmd{playerID: playerID, in: in})
}

// RequestLeave 请求在房间协程中移除玩家，避免并发改动房间状态
func (r *Room) RequestLeave(playerID string) {
	r.post(leaveCmd{playerID: playerID})
}

// PatchRules 管理端热更新规则（仅 waiting 状态生效）
func (r *Room) PatchRules(p RulesPatch) (game.Rules, error) {
	reply := make(chan rulesResult, 1)
	if !r.post(rulesCmd{patch: p, reply: reply}) {
		return game.Rules{}, ErrRoomClosed
	}
	select {
	case res := <-reply:
		return res.rules, res.err
	case <-r.done:
		return game.Rules{}, ErrRoomClosed
	}
}

// Info 房间摘要
func (r *Room) Info() (RoomInfo, error) {
	reply := make(chan RoomInfo, 1)
	if !r.post(infoCmd{reply: reply}) {
		return RoomInfo{}, ErrRoomClosed
	}
	select {
	case info := <-reply:
		return info, nil
	case <-r.done:
		return RoomInfo{}, ErrRoomClosed
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
	case leaveCmd:
		r.handleLeave(c.playerID)
	case intentCmd:
		r.handleIntent(c.playerID, c.in)
	case boardCmd:
		r.sendAll(EvtLeaderboard, LeaderboardData{Entries: c.entries})
	case rulesCmd:
		rules := c.patch.Apply(r.game.Rules())
		err := r.game.SetRules(rules)
		if err == nil {
			Log.Infow("rules updated", "room", r.Code, "rules", rules)
		}
		c.reply <- rulesResult{rules: r.game.Rules(), err: err}
	case infoCmd:
		c.reply <- r.info()
	}
}

func (r *Room) info() RoomInfo {
	bots := 0
	for _, p := range r.game.Players() {
		if p.IsBot {
			bots++
		}
	}
	return RoomInfo{
		Code:      r.Code,
		State:     r.game.State,
		Players:   r.game.Len(),
		Bots:      bots,
		Scheduled: r.sched.active(),
		Rules:     r.game.Rules(),
	}
}

func (r *Room) handleJoin(c joinCmd) {
	id := uuid.NewString()
	_, events, err := r.game.Join(id, c.name)
	if err != nil {
		r.metrics.IncRejected()
		Log.Debugw("join rejected", "room", r.Code, "name", c.name, "err", err)
		c.reply <- joinResult{err: err}
		return
	}
	r.clients[id] = c.conn
	ack := EvtRoomJoined
	if c.create {
		ack = EvtRoomCreated
	}
	r.sendTo(id, ack, RoomAck{RoomCode: r.Code, PlayerID: id, Players: r.game.Views()})
	r.broadcast(events)
	Log.Infow("player joined", "room", r.Code, "player", id, "name", c.name, "players", r.game.Len())
	c.reply <- joinResult{playerID: id}
}

func (r *Room) handleLeave(playerID string) {
	events, abandoned := r.game.Leave(playerID, r.now())
	if c, ok := r.clients[playerID]; ok {
		c.Close()
		delete(r.clients, playerID)
		Log.Infow("player left", "room", r.Code, "player", playerID, "players", r.game.Len())
	}
	if abandoned {
		r.destroy()
		return
	}
	r.broadcast(events)
}

// destroy 房间无真人时销毁：先取消全部定时任务，再从注册表移除
func (r *Room) destroy() {
	r.sched.stopAll()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
	Log.Infow("room destroyed", "room", r.Code)
	r.Stop()
	if r.onEmpty != nil {
		r.onEmpty(r.Code)
	}
}

func (r *Room) handleIntent(playerID string, in Intent) {
	if _, ok := r.game.Player(playerID); !ok {
		return
	}
	var (
		events []game.Event
		err    error
	)
	now := r.now()
	switch in.Type {
	case IntentMove:
		// 坐标高频上报：失败（如机器人 ID）直接忽略
		if r.game.Move(playerID, in.X, in.Y) == nil {
			r.metrics.IncAccepted()
		}
		return
	case IntentAddBot:
		var bot *game.Player
		bot, events, err = r.game.AddBot(playerID, game.Difficulty(in.Difficulty))
		if err == nil {
			Log.Infow("bot added", "room", r.Code, "bot", bot.Name, "difficulty", bot.Bot.Difficulty)
		}
	case IntentRemoveBot:
		events, err = r.game.RemoveBot(playerID, in.BotID, now)
	case IntentStartGame:
		events, err = r.game.StartGame(playerID)
		if err == nil {
			r.sched.startCountdown(r.game.Rules().CountdownStep)
			Log.Infow("countdown started", "room", r.Code, "players", r.game.Len())
		}
	case IntentPlayAgain:
		events, err = r.game.PlayAgain(playerID)
	case IntentCreate, IntentJoin:
		err = errAlreadyInRoom
	default:
		err = errUnknownIntent
	}
	if err != nil {
		r.metrics.IncRejected()
		Log.Debugw("intent rejected", "room", r.Code, "player", playerID, "type", in.Type, "err", err)
		r.broadcast([]game.Event{game.ErrorTo(playerID, err)})
		return
	}
	r.metrics.IncAccepted()
	r.broadcast(events)
}

func (r *Room) onCountdown() {
	events, started := r.game.AdvanceCountdown(r.now())
	if started {
		rules := r.game.Rules()
		r.sched.stopCountdown()
		r.sched.startRound(rules.TickInterval, rules.RoundDuration)
		Log.Infow("round started", "room", r.Code, "it", r.game.ItPlayerID, "duration", rules.RoundDuration)
	}
	r.broadcast(events)
}

func (r *Room) onTick() {
	start := time.Now()
	events := r.game.Tick(r.now())
	for _, e := range events {
		if e.Type == game.EvtTagged {
			r.metrics.AddTags(1)
			d := e.Data.(game.TaggedData)
			Log.Debugw("tagged", "room", r.Code, "tagger", d.TaggerID, "newIt", d.NewItID)
		}
	}
	r.broadcast(events)
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

func (r *Room) onRoundEnd() {
	r.sched.stopRound()
	results, events := r.game.EndRound(r.now())
	if results == nil {
		return
	}
	r.metrics.IncRounds()
	if len(results) > 0 {
		Log.Infow("round ended", "room", r.Code, "winner", results[0].Name, "score", results[0].Score)
	}
	r.broadcast(events)
	r.persist(results)
}

// persist 异步写入排行榜；失败只记录日志，不影响已结算的回合
func (r *Room) persist(results []game.Result) {
	if r.board == nil {
		return
	}
	board, size, code, metrics := r.board, r.boardSize, r.Code, r.metrics
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := board.Record(ctx, results); err != nil {
			metrics.IncBoardErrors()
			Log.Warnw("leaderboard write failed", "room", code, "err", err)
			return
		}
		top, err := board.Top(ctx, size)
		if err != nil {
			metrics.IncBoardErrors()
			Log.Warnw("leaderboard read failed", "room", code, "err", err)
			return
		}
		r.post(boardCmd{entries: top})
	}()
}

// broadcast 编码并投递核心层事件；To 非空时只发给指定玩家
func (r *Room) broadcast(events []game.Event) {
	for _, e := range events {
		if e.To != "" {
			r.sendTo(e.To, e.Type, e.Data)
			continue
		}
		r.sendAll(e.Type, e.Data)
	}
}

func (r *Room) sendAll(typ string, data any) {
	b, err := Encode(typ, data)
	if err != nil {
		Log.Errorw("encode failed", "room", r.Code, "type", typ, "err", err)
		return
	}
	for _, c := range r.clients {
		if !c.Enqueue(b) {
			r.metrics.IncSendDropped()
		}
	}
}

func (r *Room) sendTo(playerID, typ string, data any) {
	c, ok := r.clients[playerID]
	if !ok {
		return
	}
	b, err := Encode(typ, data)
	if err != nil {
		Log.Errorw("encode failed", "room", r.Code, "type", typ, "err", err)
		return
	}
	if !c.Enqueue(b) {
		r.metrics.IncSendDropped()
	}
}
