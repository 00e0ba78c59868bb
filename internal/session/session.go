// Package session tracks short-lived admin conversations, such as waiting
// for a website link, keyed by chat and user.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Kind string

const (
	KindWebsiteLink Kind = "website_link"
	KindAddWords    Kind = "add_words"
	KindImportWords Kind = "import_words"
)

type Key struct {
	ChatID int64
	UserID int64
}

type Session struct {
	ID        uuid.UUID
	Key       Key
	Kind      Kind
	PromptID  int
	StartedAt time.Time
}

// Store holds at most one open session per key. Sessions expire after the
// configured TTL and are then treated as absent.
type Store struct {
	sessions *expirable.LRU[Key, Session]
}

const maxSessions = 4096

func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: expirable.NewLRU[Key, Session](maxSessions, nil, ttl)}
}

// Begin opens a session, replacing any session already open for the key.
func (s *Store) Begin(chatID, userID int64, kind Kind) Session {
	sess := Session{
		ID:        uuid.New(),
		Key:       Key{ChatID: chatID, UserID: userID},
		Kind:      kind,
		StartedAt: time.Now(),
	}
	s.sessions.Add(sess.Key, sess)
	return sess
}

// SetPrompt remembers the message that asked for input so it can be removed later.
func (s *Store) SetPrompt(id uuid.UUID, key Key, promptID int) {
	if sess, ok := s.sessions.Get(key); ok && sess.ID == id {
		sess.PromptID = promptID
		s.sessions.Add(key, sess)
	}
}

func (s *Store) Get(chatID, userID int64) (Session, bool) {
	return s.sessions.Get(Key{ChatID: chatID, UserID: userID})
}

// End closes the open session for the key and returns it.
func (s *Store) End(chatID, userID int64) (Session, bool) {
	key := Key{ChatID: chatID, UserID: userID}
	sess, ok := s.sessions.Get(key)
	if !ok {
		return Session{}, false
	}
	s.sessions.Remove(key)
	return sess, true
}

// Cancel closes the session only when id still names the open one, so a
// stale cancel button cannot end a newer session.
func (s *Store) Cancel(key Key, id uuid.UUID) (Session, bool) {
	sess, ok := s.sessions.Get(key)
	if !ok || sess.ID != id {
		return Session{}, false
	}
	s.sessions.Remove(key)
	return sess, true
}

// Len counts stored sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.sessions.Len()
}
