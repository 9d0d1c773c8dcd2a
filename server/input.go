package server

// 入站消息类型（客户端意图）
const (
	IntentCreate    = "create"
	IntentJoin      = "join"
	IntentAddBot    = "addBot"
	IntentRemoveBot = "removeBot"
	IntentStartGame = "startGame"
	IntentPlayAgain = "playAgain"
	IntentMove      = "move"
)

// Intent 入站 JSON 消息（WebSocket 文本消息），字段按类型选用
// 示例：{"type":"move","x":42.5,"y":13}
type Intent struct {
	Type       string  `json:"type"`
	Name       string  `json:"name,omitempty"`
	RoomCode   string  `json:"roomCode,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
	BotID      string  `json:"botId,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
}
