package planner

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"study-planner/internal/prompt"
)

// FormState is the user's current input. It lives as long as the session.
type FormState struct {
	Topic    string          `json:"topic"`
	Duration prompt.Duration `json:"duration"`
	Pace     prompt.Pace     `json:"pace"`
	Style    prompt.Style    `json:"style"`
}

// DefaultForm mirrors the first option of every selector.
func DefaultForm() FormState {
	return FormState{
		Duration: prompt.DurationWeek,
		Pace:     prompt.PaceSlow,
		Style:    prompt.StyleText,
	}
}

// Upload is the most recent PDF received by a session.
type Upload struct {
	FileName   string
	SizeBytes  int64
	SHA256     string
	Text       string
	Err        string
	UploadedAt time.Time
}

// Session holds one browser's transient state.
type Session struct {
	ID string

	mu     sync.Mutex
	form   FormState
	upload *Upload

	// One in-flight press per action.
	uploadMu  sync.Mutex
	planMu    sync.Mutex
	analyzeMu sync.Mutex
}

func newSession(id string) *Session {
	return &Session{ID: id, form: DefaultForm()}
}

// Form returns a snapshot of the form state.
func (s *Session) Form() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// LastUpload returns a snapshot of the latest upload, if any.
func (s *Session) LastUpload() (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return Upload{}, false
	}
	return *s.upload, true
}

func (s *Session) setUpload(u Upload) {
	s.mu.Lock()
	s.upload = &u
	s.mu.Unlock()
}

// SessionStore keeps sessions in memory with a sliding expiry.
// Library used: github.com/patrickmn/go-cache.
type SessionStore struct {
	cache *cache.Cache
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{cache: cache.New(ttl, 10*time.Minute)}
}

// Get returns the session and refreshes its expiry.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	sess := x.(*Session)
	s.cache.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

// Create starts a fresh session with default form values.
func (s *SessionStore) Create() *Session {
	sess := newSession(uuid.NewString())
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

// GetOrCreate resolves id, creating a new session when it is unknown or expired.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}
