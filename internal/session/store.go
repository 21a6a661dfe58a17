// Package session implements the thread-safe conversation memory: a bounded,
// ordered list of question/answer turns per session id, with idle-based
// expiry and aggregate statistics. It backs the "previous conversation"
// block of analysis prompts.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tubelens/tubelens/internal/metrics"
)

// Turn is one user-message/assistant-reply pair stored within a session.
type Turn struct {
	UserMessage     string    `json:"user_message"`
	AssistantReply  string    `json:"assistant_reply"`
	SourceReference string    `json:"source_reference,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Info is the lightweight per-session metadata exposed by List. It carries
// no message content so bulk enumeration cannot leak conversations.
type Info struct {
	ID           string    `json:"id"`
	Turns        int       `json:"turns"`
	LastActivity time.Time `json:"last_activity"`
}

// Stats aggregates store-wide counts for the stats endpoint.
type Stats struct {
	ActiveSessions int       `json:"active_sessions"`
	TotalTurns     int       `json:"total_turns"`
	OldestActivity time.Time `json:"oldest_activity,omitzero"`
	NewestActivity time.Time `json:"newest_activity,omitzero"`
}

type record struct {
	turns        []Turn
	lastActivity time.Time
}

// Store is the process-wide session memory. A single mutex guards the whole
// map: every operation, reads included, takes it for its full critical
// section so a concurrent append-and-truncate can never be observed torn.
// Expired sessions are removed only by CleanupExpired, never as a side
// effect of reads or health checks.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*record
	maxTurns    int
	idleTimeout time.Duration
}

// NewStore creates a session store capping each session at maxTurns turns
// and marking sessions idle after idleTimeout without activity.
func NewStore(maxTurns int, idleTimeout time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*record),
		maxTurns:    maxTurns,
		idleTimeout: idleTimeout,
	}
}

// AddMessage appends a turn to the session, creating the session on first
// use. When the session exceeds the turn cap the oldest turns are dropped,
// so the stored list never exceeds maxTurns after any mutation. The
// session's idle clock is reset.
func (s *Store) AddMessage(sessionID, userMessage, assistantReply, sourceReference string) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		rec = &record{}
		s.sessions[sessionID] = rec
		metrics.SessionsActive.Inc()
	}

	rec.turns = append(rec.turns, Turn{
		UserMessage:     userMessage,
		AssistantReply:  assistantReply,
		SourceReference: sourceReference,
		Timestamp:       now,
	})
	if len(rec.turns) > s.maxTurns {
		rec.turns = rec.turns[len(rec.turns)-s.maxTurns:]
	}
	rec.lastActivity = now
}

// Context returns up to maxTurns of the session's most recent turns in
// chronological order (oldest of the returned window first), or nil if the
// session is unknown. The slice is a copy; callers may retain it.
func (s *Store) Context(sessionID string, maxTurns int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok || maxTurns <= 0 {
		return nil
	}

	turns := rec.turns
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// ContextText renders the session context as a plain-text transcript for
// prompt injection, chronological order. Returns "" for unknown sessions.
func (s *Store) ContextText(sessionID string, maxTurns int) string {
	turns := s.Context(sessionID, maxTurns)
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.UserMessage, t.AssistantReply)
	}
	return b.String()
}

// Remove deletes a session and reports whether it existed.
func (s *Store) Remove(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	metrics.SessionsActive.Dec()
	return true
}

// Clear removes every session and returns the number removed. Calling it
// again immediately returns 0.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sessions)
	s.sessions = make(map[string]*record)
	metrics.SessionsActive.Sub(float64(n))
	return n
}

// CleanupExpired removes every session whose last activity is older than the
// idle timeout and returns the number removed. This is the only code path
// that expires sessions; callers run it from a background sweep or an
// explicit maintenance request.
func (s *Store) CleanupExpired() int {
	cutoff := time.Now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.sessions {
		if rec.lastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SessionsActive.Sub(float64(removed))
		metrics.SessionsExpired.Add(float64(removed))
	}
	return removed
}

// GetStats returns aggregate counts across all sessions. Oldest/newest
// activity are zero when the store is empty.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{ActiveSessions: len(s.sessions)}
	for _, rec := range s.sessions {
		st.TotalTurns += len(rec.turns)
		if st.OldestActivity.IsZero() || rec.lastActivity.Before(st.OldestActivity) {
			st.OldestActivity = rec.lastActivity
		}
		if rec.lastActivity.After(st.NewestActivity) {
			st.NewestActivity = rec.lastActivity
		}
	}
	return st
}

// List enumerates all sessions as lightweight metadata, most recently active
// first.
func (s *Store) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.sessions))
	for id, rec := range s.sessions {
		out = append(out, Info{
			ID:           id,
			Turns:        len(rec.turns),
			LastActivity: rec.lastActivity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}
