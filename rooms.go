package rendezvous

import "sync"

// Rooms groups sessions into named multicast groups.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

// NewRooms creates room table.
func NewRooms() *Rooms {
	return &Rooms{
		rooms: map[string]map[*Session]struct{}{},
	}
}

// Join adds session to the room. Joining the same room again has no effect.
func (r *Rooms) Join(s *Session, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := s.rooms[room]; exists {
		return false
	}

	members, exists := r.rooms[room]
	if !exists {
		members = map[*Session]struct{}{}
		r.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}

	return true
}

// Leave removes session from the room.
func (r *Rooms) Leave(s *Session, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leave(s, room)
}

// LeaveAll removes session from all the rooms it belongs to.
func (r *Rooms) LeaveAll(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range s.rooms {
		r.leave(s, room)
	}
}

// Broadcast delivers message to all the members of the room except the sender.
// Sessions with full outbound queue are skipped and counted as dropped, closed ones are skipped.
func (r *Rooms) Broadcast(sender *Session, room string, msg Message) (delivered, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.rooms[room] {
		if s == sender {
			continue
		}
		switch s.deliver(msg) {
		case deliveryOK:
			delivered++
		case deliveryQueueFull:
			dropped++
		}
	}

	return delivered, dropped
}

// Members returns the number of sessions in the room.
func (r *Rooms) Members(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[room])
}

// Len returns the number of non-empty rooms.
func (r *Rooms) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *Rooms) leave(s *Session, room string) bool {
	if _, exists := s.rooms[room]; !exists {
		return false
	}
	delete(s.rooms, room)

	members := r.rooms[room]
	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, room)
	}

	return true
}
