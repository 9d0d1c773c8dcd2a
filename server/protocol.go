package server

import (
	"encoding/json"
	"fmt"

	"tagarena/game"
	"tagarena/leaderboard"
)

// 传输层额外的出站事件
const (
	EvtRoomCreated = "roomCreated"
	EvtRoomJoined  = "roomJoined"
	EvtLeaderboard = "leaderboard"
)

// Envelope 出站消息外壳
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// RoomAck 创建/加入成功后只发给本人的确认
type RoomAck struct {
	RoomCode string            `json:"roomCode"`
	PlayerID string            `json:"playerId"`
	Players  []game.PlayerView `json:"players"`
}

type LeaderboardData struct {
	Entries []leaderboard.Entry `json:"entries"`
}

// Encode 编码一条出站消息
func Encode(typ string, data any) ([]byte, error) {
	if typ == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	return json.Marshal(Envelope{Type: typ, Data: data})
}

// DecodeEnvelope 解码出站消息外壳，Data 保留为原始 JSON（供测试与客户端工具使用）
func DecodeEnvelope(b []byte) (string, json.RawMessage, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return "", nil, err
	}
	return env.Type, env.Data, nil
}
