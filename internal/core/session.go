package core

import (
	"slices"
	"sync"
	"time"
)

// Session holds per-connection attributes. Name is immutable once created.
type Session struct {
	ID          string
	Name        string
	ConnectedAt time.Time
	rooms       map[string]struct{}
}

// SessionStore maps connection ids to their sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create inserts a new session.
func (s *SessionStore) Create(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return ErrDuplicateConnection
	}
	s.sessions[id] = &Session{
		ID:          id,
		Name:        name,
		ConnectedAt: time.Now(),
		rooms:       make(map[string]struct{}),
	}
	return nil
}

// Get returns the display name of a connection.
func (s *SessionStore) Get(id string) (string, error) {
	name, ok := s.Lookup(id)
	if !ok {
		return "", ErrUnknownConnection
	}
	return name, nil
}

// Lookup is Get without the error, for callers that skip on miss.
func (s *SessionStore) Lookup(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", false
	}
	return sess.Name, true
}

// Remove deletes a session. Removing an unknown id is a no-op.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// AddRoom records that the connection joined room.
func (s *SessionStore) AddRoom(id, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrUnknownConnection
	}
	sess.rooms[room] = struct{}{}
	return nil
}

// RemoveRoom forgets room for the connection.
func (s *SessionStore) RemoveRoom(id, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		delete(sess.rooms, room)
	}
}

// Rooms returns the rooms the connection has joined, sorted by name.
func (s *SessionStore) Rooms(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(sess.rooms))
	for room := range sess.rooms {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
