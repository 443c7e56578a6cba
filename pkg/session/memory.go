package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-memory map, for tests and
// development. A single mutex serialises transactions; a transaction works
// on a deep copy and swaps it in on success, so a failed fn leaves no trace.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*Session
	participants map[uuid.UUID][]*Participant
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[uuid.UUID]*Session),
		participants: make(map[uuid.UUID][]*Participant),
	}
}

// InTx runs fn against a copy of the store and commits it if fn succeeds.
func (m *MemoryStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		sessions:     make(map[uuid.UUID]*Session, len(m.sessions)),
		participants: make(map[uuid.UUID][]*Participant, len(m.participants)),
	}
	for id, s := range m.sessions {
		tx.sessions[id] = cloneSession(s)
	}
	for id, rows := range m.participants {
		cp := make([]*Participant, len(rows))
		for i, p := range rows {
			cp[i] = cloneParticipant(p)
		}
		tx.participants[id] = cp
	}

	if err := fn(tx); err != nil {
		return err
	}

	m.sessions = tx.sessions
	m.participants = tx.participants
	return nil
}

type memTx struct {
	sessions     map[uuid.UUID]*Session
	participants map[uuid.UUID][]*Participant
}

func (t *memTx) FindSessionByID(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := t.sessions[id]
	if !ok || s.Deleted {
		return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
	}
	return cloneSession(s), nil
}

func (t *memTx) FindSessionByInviteCode(_ context.Context, code string) (*Session, error) {
	for _, s := range t.sessions {
		if !s.Deleted && s.Status == StatusActive && strings.EqualFold(s.InviteCode, code) {
			return cloneSession(s), nil
		}
	}
	return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
}

func (t *memTx) FindActiveSessionByUser(_ context.Context, userID uuid.UUID) (*Session, error) {
	for id, rows := range t.participants {
		s, ok := t.sessions[id]
		if !ok || s.Deleted || (s.Status != StatusActive && s.Status != StatusPaused) {
			continue
		}
		for _, p := range rows {
			if p.UserID == userID && p.Active {
				return cloneSession(s), nil
			}
		}
	}
	return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
}

func (t *memTx) OwnerHasLiveSession(_ context.Context, ownerUsername string) (bool, error) {
	for _, s := range t.sessions {
		if !s.Deleted && s.OwnerUsername == ownerUsername &&
			(s.Status == StatusActive || s.Status == StatusPaused) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InviteCodeTaken(_ context.Context, code string) (bool, error) {
	for _, s := range t.sessions {
		if !s.Deleted && s.Status == StatusActive && strings.EqualFold(s.InviteCode, code) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) SaveSession(_ context.Context, s *Session) error {
	t.sessions[s.ID] = cloneSession(s)
	return nil
}

func (t *memTx) SaveParticipant(_ context.Context, p *Participant) error {
	rows := t.participants[p.SessionID]
	for i, existing := range rows {
		if existing.ID == p.ID {
			rows[i] = cloneParticipant(p)
			return nil
		}
	}
	t.participants[p.SessionID] = append(rows, cloneParticipant(p))
	return nil
}

func (t *memTx) FindParticipant(_ context.Context, sessionID, userID uuid.UUID) (*Participant, error) {
	for _, p := range t.participants[sessionID] {
		if p.UserID == userID {
			return cloneParticipant(p), nil
		}
	}
	return nil, nil //nolint:nilnil // Tx contract specifies nil,nil for not-found
}

func (t *memTx) DeactivateParticipant(_ context.Context, sessionID, userID uuid.UUID, when time.Time) error {
	for _, p := range t.participants[sessionID] {
		if p.UserID == userID && p.Active {
			p.Active = false
			p.CurrentlyInSession = false
			left := when
			p.LastLeftTime = &left
		}
	}
	return nil
}

func (t *memTx) CountActiveParticipants(_ context.Context, sessionID uuid.UUID) (int, error) {
	n := 0
	for _, p := range t.participants[sessionID] {
		if p.Active {
			n++
		}
	}
	return n, nil
}

func (t *memTx) IsActiveParticipant(_ context.Context, sessionID, userID uuid.UUID) (bool, error) {
	for _, p := range t.participants[sessionID] {
		if p.UserID == userID && p.Active {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ActiveParticipants(_ context.Context, sessionID uuid.UUID) ([]*Participant, error) {
	var out []*Participant
	for _, p := range t.participants[sessionID] {
		if p.Active {
			out = append(out, cloneParticipant(p))
		}
	}
	return out, nil
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.TaskIDs = append([]uuid.UUID(nil), s.TaskIDs...)
	if s.EndTime != nil {
		v := *s.EndTime
		cp.EndTime = &v
	}
	if s.ScheduledTime != nil {
		v := *s.ScheduledTime
		cp.ScheduledTime = &v
	}
	if s.PausedAt != nil {
		v := *s.PausedAt
		cp.PausedAt = &v
	}
	if s.TotalDurationMinutes != nil {
		v := *s.TotalDurationMinutes
		cp.TotalDurationMinutes = &v
	}
	return &cp
}

func cloneParticipant(p *Participant) *Participant {
	cp := *p
	if p.LastLeftTime != nil {
		v := *p.LastLeftTime
		cp.LastLeftTime = &v
	}
	if p.CurrentStintStart != nil {
		v := *p.CurrentStintStart
		cp.CurrentStintStart = &v
	}
	return &cp
}

// Verify interface compliance.
var (
	_ Store = (*MemoryStore)(nil)
	_ Tx    = (*memTx)(nil)
)
