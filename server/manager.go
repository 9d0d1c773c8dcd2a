package server

import (
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"tagarena/game"
	"tagarena/leaderboard"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	errAlreadyInRoom = errors.New("already in a room")
	errUnknownIntent = errors.New("unknown message type")
)

const (
	roomCodeLen      = 5
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RoomOptions 新建房间时注入的依赖
type RoomOptions struct {
	Rules     game.Rules
	Board     leaderboard.Store // 可为空：不记录排行榜
	BoardSize int
	Clock     func() time.Time
	Rand      func() game.Rand // 每个房间独立的随机源
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.Rules == (game.Rules{}) {
		o.Rules = game.DefaultRules()
	}
	if o.BoardSize <= 0 {
		o.BoardSize = 10
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Rand == nil {
		o.Rand = func() game.Rand {
			return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
		}
	}
	return o
}

// RoomManager 管理多个房间的生命周期：房间码 → 房间
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  RoomOptions
}

func NewRoomManager(opts RoomOptions) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		opts:  opts.withDefaults(),
	}
}

// CreateRoom 生成唯一房间码并启动房间协程
func (m *RoomManager) CreateRoom() (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for attempt := 0; attempt < 20; attempt++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, exists := m.rooms[code]; exists {
			continue
		}
		r := NewRoom(code, m.opts)
		r.onEmpty = m.removeRoom
		m.rooms[code] = r
		go r.Run()
		Log.Infow("room created", "room", code, "rooms", len(m.rooms))
		return r, nil
	}
	return nil, errors.New("could not allocate a unique room code")
}

// GetRoom 房间码不区分大小写
func (m *RoomManager) GetRoom(code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// ListRooms 按房间码排序
func (m *RoomManager) ListRooms() []*Room {
	m.mu.RLock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *RoomManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *RoomManager) removeRoom(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	n := len(m.rooms)
	m.mu.Unlock()
	Log.Infow("room removed", "room", code, "rooms", n)
}

// Shutdown 停止全部房间并等待其协程退出
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for code, r := range m.rooms {
		rooms = append(rooms, r)
		delete(m.rooms, code)
	}
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
		<-r.Done()
	}
}

func newRoomCode() (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := 0; i < roomCodeLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(roomCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
