package realtime

import "sync"

// Rooms groups connections by conversation for room-scoped broadcasts.
// Membership belongs to a connection and ends when the connection does.
type Rooms struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]Conn     // conversationID -> connID -> conn
	memberships map[string]map[string]struct{} // connID -> conversationIDs
}

// NewRooms returns an empty Rooms.
func NewRooms() *Rooms {
	return &Rooms{
		rooms:       make(map[string]map[string]Conn),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Join adds conn to the room of conversationID. It reports false when conn was already a member.
func (r *Rooms) Join(conn Conn, conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]Conn)
		r.rooms[conversationID] = room
	}
	if _, ok := room[conn.ID()]; ok {
		return false
	}
	room[conn.ID()] = conn

	joined := r.memberships[conn.ID()]
	if joined == nil {
		joined = make(map[string]struct{})
		r.memberships[conn.ID()] = joined
	}
	joined[conversationID] = struct{}{}

	return true
}

// Leave removes conn from the room of conversationID.
func (r *Rooms) Leave(conn Conn, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(conn.ID(), conversationID)
}

// LeaveAll removes conn from every room and returns how many it left.
func (r *Rooms) LeaveAll(conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.memberships[conn.ID()]
	n := len(joined)
	for conversationID := range joined {
		r.leaveLocked(conn.ID(), conversationID)
	}
	return n
}

// IsMember reports whether conn is in the room of conversationID.
func (r *Rooms) IsMember(conn Conn, conversationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[conversationID][conn.ID()]
	return ok
}

// Members returns the connections in the room of conversationID.
func (r *Rooms) Members(conversationID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	out := make([]Conn, 0, len(room))
	for _, conn := range room {
		out = append(out, conn)
	}
	return out
}

// Broadcast emits an event to every member of the room except exceptConnID
// and returns the number of deliveries queued.
func (r *Rooms) Broadcast(conversationID string, event string, payload any, exceptConnID string) int {
	sent := 0
	for _, conn := range r.Members(conversationID) {
		if conn.ID() == exceptConnID {
			continue
		}
		if emit(conn, event, payload) {
			sent++
		}
	}
	return sent
}

// Drop removes the room of conversationID along with every membership in it.
func (r *Rooms) Drop(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID := range r.rooms[conversationID] {
		r.leaveLocked(connID, conversationID)
	}
}

func (r *Rooms) leaveLocked(connID string, conversationID string) {
	if room := r.rooms[conversationID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	if joined := r.memberships[connID]; joined != nil {
		delete(joined, conversationID)
		if len(joined) == 0 {
			delete(r.memberships, connID)
		}
	}
}
