package service

import (
	"hash/fnv"
	"sort"
	"sync"
)

const roomLockStripes = 64

// Subscriber 是可以接收廣播事件的連線；Send 不可阻塞
type Subscriber interface {
	Send(event string, data any) bool
}

// RoomRegistry 追蹤每個房間綁定了哪些連線
//
// 一條連線可以同時綁定多個房間。WithRoom 提供每個房間的序列化區段，
// 新增訊息與廣播、綁定與讀取歷史都應在同一區段內進行，
// 讓所有訂閱者看到相同的順序，歷史也不會與即時訊息重疊或缺漏。
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms  map[string]map[string]Subscriber // roomKey -> connID -> subscriber
	conns  map[string]map[string]struct{}   // connID -> roomKeys
	owners map[string]uint                  // connID -> userID

	locks [roomLockStripes]sync.Mutex
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[string]Subscriber),
		conns:  make(map[string]map[string]struct{}),
		owners: make(map[string]uint),
	}
}

// WithRoom 持有房間鎖執行 fn
func (r *RoomRegistry) WithRoom(roomKey string, fn func() error) error {
	lock := &r.locks[stripe(roomKey)]
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// Bind 將屬於 userID 的連線綁定到房間
func (r *RoomRegistry) Bind(connID string, userID uint, roomKey string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[connID] = userID

	if r.rooms[roomKey] == nil {
		r.rooms[roomKey] = make(map[string]Subscriber)
	}
	r.rooms[roomKey][connID] = sub

	if r.conns[connID] == nil {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][roomKey] = struct{}{}
}

// Unbind 將連線從所有房間移除，回傳原本綁定的房間
func (r *RoomRegistry) Unbind(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.conns[connID]))
	for roomKey := range r.conns[connID] {
		keys = append(keys, roomKey)
		if subs, ok := r.rooms[roomKey]; ok {
			delete(subs, connID)
			// 房間空了就刪除
			if len(subs) == 0 {
				delete(r.rooms, roomKey)
			}
		}
	}
	delete(r.conns, connID)
	delete(r.owners, connID)
	sort.Strings(keys)
	return keys
}

// UnbindUser 將用戶的所有連線從單一房間移除，回傳被移除的訂閱者
func (r *RoomRegistry) UnbindUser(userID uint, roomKey string) []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.rooms[roomKey]
	var removed []Subscriber
	for connID, sub := range subs {
		if r.owners[connID] != userID {
			continue
		}
		removed = append(removed, sub)
		delete(subs, connID)
		delete(r.conns[connID], roomKey)
	}
	if len(subs) == 0 {
		delete(r.rooms, roomKey)
	}
	return removed
}

func (r *RoomRegistry) IsBound(connID, roomKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomKey][connID]
	return ok
}

// Subscribers 回傳綁定在房間上的連線 ID
func (r *RoomRegistry) Subscribers(roomKey string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms[roomKey]))
	for connID := range r.rooms[roomKey] {
		ids = append(ids, connID)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast 將事件送給房間內所有訂閱者，回傳成功排入佇列的數量
func (r *RoomRegistry) Broadcast(roomKey, event string, data any) int {
	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.rooms[roomKey]))
	for _, sub := range r.rooms[roomKey] {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.Send(event, data) {
			delivered++
		}
	}
	return delivered
}

func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func stripe(roomKey string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomKey))
	return h.Sum32() % roomLockStripes
}
