package game

// 事件类型（出站消息的 type 字段）
const (
	EvtCountdown    = "countdown"
	EvtGameStarted  = "gameStarted"
	EvtGameState    = "gameState"
	EvtTagged       = "tagged"
	EvtGameEnded    = "gameEnded"
	EvtPlayerJoined = "playerJoined"
	EvtPlayerLeft   = "playerLeft"
	EvtPlayAgain    = "playAgain"
	EvtError        = "error"
)

// Event 核心层产出的可广播事件；To 为空表示广播给全房间
type Event struct {
	Type string
	To   string
	Data any
}

type CountdownData struct {
	Count int `json:"count"`
}

type GameStartedData struct {
	Players    []PlayerView `json:"players"`
	ItPlayerID string       `json:"itPlayerId"`
	Duration   int64        `json:"duration"` // ms
}

// LiveScore 实时积分（仅按未当 IT 的时间计算）
type LiveScore struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameStateData struct {
	Players    []PlayerView `json:"players"`
	ItPlayerID string       `json:"itPlayerId"`
	TimeLeft   int64        `json:"timeLeft"` // ms
	LiveScores []LiveScore  `json:"liveScores"`
}

type TaggedData struct {
	NewItID  string `json:"newItId"`
	TaggerID string `json:"taggerId"`
}

type GameEndedData struct {
	Players     []PlayerView `json:"players"`
	Leaderboard []Result     `json:"leaderboard"`
}

type PlayersData struct {
	Players []PlayerView `json:"players"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// ErrorTo 构造只发给单个玩家的错误事件
func ErrorTo(playerID string, err error) Event {
	return Event{Type: EvtError, To: playerID, Data: ErrorData{Message: err.Error()}}
}
