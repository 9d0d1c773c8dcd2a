package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tagarena/game"
)

var (
	errJoinFirst   = errors.New("create or join a room first")
	errRateLimited = errors.New("too many messages, slow down")
)

// session 单个连接的会话：连接建立后先 create/join，之后的意图转发给所在房间
type session struct {
	conn     *ClientConn
	manager  *RoomManager
	limiter  *rate.Limiter
	room     *Room
	playerID string
}

func (s *session) replyError(err error) {
	b, encErr := Encode(game.EvtError, game.ErrorData{Message: err.Error()})
	if encErr != nil {
		return
	}
	s.conn.Enqueue(b)
}

func (s *session) handle(payload []byte) {
	var in Intent
	decodeErr := json.Unmarshal(payload, &in)
	if !s.limiter.Allow() {
		if s.room != nil {
			s.room.Metrics().IncRateLimited()
		}
		// 坐标被限流时静默丢弃；其他意图需要告知客户端
		if decodeErr == nil && in.Type != "" && in.Type != IntentMove {
			s.replyError(errRateLimited)
		}
		return
	}
	if decodeErr != nil || in.Type == "" {
		s.replyError(errors.New("malformed message"))
		return
	}
	if s.room != nil {
		s.room.Submit(s.playerID, in)
		return
	}
	switch in.Type {
	case IntentCreate:
		room, err := s.manager.CreateRoom()
		if err != nil {
			Log.Errorw("create room failed", "err", err)
			s.replyError(err)
			return
		}
		s.enter(room, in.Name, true)
	case IntentJoin:
		room, err := s.manager.GetRoom(in.RoomCode)
		if err != nil {
			s.replyError(err)
			return
		}
		s.enter(room, in.Name, false)
	default:
		s.replyError(errJoinFirst)
	}
}

func (s *session) enter(room *Room, name string, create bool) {
	id, err := room.Join(strings.TrimSpace(name), s.conn, create)
	if err != nil {
		if create {
			room.Stop()
			s.manager.removeRoom(room.Code)
		}
		if errors.Is(err, ErrRoomClosed) {
			err = ErrRoomNotFound
		}
		s.replyError(err)
		return
	}
	s.room, s.playerID = room, id
}

// readPump 读取客户端意图；退出时通知房间在其协程中移除该玩家
func (s *session) readPump() {
	ws := s.conn.ws
	defer func() {
		if s.room != nil {
			s.room.RequestLeave(s.playerID)
		}
		s.conn.Close()
	}()
	ws.SetReadLimit(1 << 16)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read error", "player", s.playerID, "err", err)
			}
			return
		}
		s.handle(payload)
	}
}
