package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// OfflineGrace is how long a user keeps their online status after the
// last session disconnects. A reconnect-on-refresh inside the window
// cancels the transition, so multi-tab usage does not flap presence.
const OfflineGrace = 5 * time.Second

// wsSession wraps a connection with its write lock. gorilla/websocket
// permits one concurrent writer per connection, and broker-down
// fallback delivery can reach the same session from several
// goroutines at once.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) write(message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.TextMessage, message)
}

// WSConnManager groups all live sessions of one user into a logical
// room. Sending to a room reaches zero or more sessions; there is no
// delivery guarantee, the persisted copy is the source of truth.
type WSConnManager struct {
	mu    sync.RWMutex
	users map[int64][]*wsSession

	grace     time.Duration
	onOffline func(userID int64)
}

func NewWSConnManager(grace time.Duration, onOffline func(userID int64)) *WSConnManager {
	return &WSConnManager{
		users:     make(map[int64][]*wsSession),
		grace:     grace,
		onOffline: onOffline,
	}
}

func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], &wsSession{conn: conn})
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	sessions := m.users[userID]
	for i, s := range sessions {
		if s.conn == conn {
			m.users[userID] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
	m.mu.Unlock()

	m.scheduleOfflineCheck(userID)
}

// scheduleOfflineCheck marks the user offline after the grace window,
// and only if no sibling session came back in the meantime.
func (m *WSConnManager) scheduleOfflineCheck(userID int64) {
	if m.onOffline == nil {
		return
	}
	grace := m.grace
	if grace <= 0 {
		if m.SessionCount(userID) == 0 {
			m.onOffline(userID)
		}
		return
	}
	time.AfterFunc(grace, func() {
		if m.SessionCount(userID) == 0 {
			m.onOffline(userID)
		}
	})
}

func (m *WSConnManager) SessionCount(userID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID])
}

func (m *WSConnManager) Send(userID int64, message []byte) {
	m.mu.RLock()
	sessions := append([]*wsSession(nil), m.users[userID]...)
	m.mu.RUnlock()
	for _, s := range sessions {
		s.write(message)
	}
}

func (m *WSConnManager) SendJSON(userID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Println("failed to marshal ws payload:", err)
		return
	}
	m.Send(userID, data)
}

var GlobalWSConnManager = NewWSConnManager(OfflineGrace, MarkOffline)
