package realtime

import (
	"sync"

	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
)

// SessionRegistry tracks every live session and its group memberships.
//
// All operations serialize on one RWMutex. The lock is never held across a
// session send; publishers snapshot the membership and deliver after release.
// Join/Leave/Unregister on an unknown session id are no-ops: the disconnect
// race with an in-flight publish is expected and harmless.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	groups   map[string]map[string]*Session
	joined   map[string]map[string]bool // session id -> set of group names
	logger   *logger.Logger
}

func NewSessionRegistry(log *logger.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		groups:   make(map[string]map[string]*Session),
		joined:   make(map[string]map[string]bool),
		logger:   log.WithComponent("registry"),
	}
}

// Register adds a session. Registration is idempotent per session id.
func (r *SessionRegistry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return
	}
	r.sessions[s.ID] = s
	r.joined[s.ID] = make(map[string]bool)

	sessionsConnected.WithLabelValues(string(s.Kind)).Inc()
	r.logger.Logger.Info().Str("session_id", s.ID).Str("kind", string(s.Kind)).Int("sessions", len(r.sessions)).Msg("session registered")
}

// Unregister removes a session from every group it belonged to and then
// drops it. This is the mandatory cleanup on disconnect.
func (r *SessionRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	for group := range r.joined[sessionID] {
		r.removeFromGroup(sessionID, group)
	}
	delete(r.joined, sessionID)
	delete(r.sessions, sessionID)

	sessionsConnected.WithLabelValues(string(s.Kind)).Dec()
	r.logger.Logger.Info().Str("session_id", sessionID).Str("kind", string(s.Kind)).Int("sessions", len(r.sessions)).Msg("session unregistered")
}

// Join adds a registered session to a group, creating the group on first use.
func (r *SessionRegistry) Join(sessionID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	members, ok := r.groups[group]
	if !ok {
		members = make(map[string]*Session)
		r.groups[group] = members
	}
	members[sessionID] = s
	r.joined[sessionID][group] = true
}

// Leave removes a session from a group.
func (r *SessionRegistry) Leave(sessionID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	r.removeFromGroup(sessionID, group)
	delete(r.joined[sessionID], group)
}

// MembersOf returns a snapshot of the group's current members. The slice is
// safe to iterate without holding the registry lock.
func (r *SessionRegistry) MembersOf(group string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[group]
	out := make([]*Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}

// SessionCount returns the number of live sessions.
func (r *SessionRegistry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// removeFromGroup must be called with the write lock held.
func (r *SessionRegistry) removeFromGroup(sessionID, group string) {
	members, ok := r.groups[group]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.groups, group)
	}
}
