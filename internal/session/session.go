// Package session keeps the per-browser card state in memory.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youruser/lanyard/internal/capture"
	"github.com/youruser/lanyard/internal/control"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/surface"
)

const (
	// DefaultTTL is how long an untouched session is kept.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxSessions caps the live sessions of a store.
	DefaultMaxSessions = 10000
)

// Session is one attendee editing a card: its coordinator, capture service
// and surface host.
type Session struct {
	ID          string
	Coordinator *control.Coordinator
	Capture     *capture.Service
	Surface     *surface.Host

	mu       sync.Mutex
	texture  capture.Artifact
	lastSeen time.Time
}

// Texture returns the newest captured texture, if any.
func (s *Session) Texture() (capture.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texture, s.texture.Generation > 0
}

func (s *Session) onReady(a capture.Artifact) {
	s.mu.Lock()
	if a.Generation > s.texture.Generation {
		s.texture = a
	}
	s.mu.Unlock()
	s.Surface.Apply(surface.Texture{Image: a.Image, Generation: a.Generation})
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Options configures a Store.
type Options struct {
	TTL         time.Duration
	MaxSessions int
	Rasterizer  capture.Rasterizer
	Surfaces    surface.Factory
	Export      imagepkg.ExportConfig
	Logger      *slog.Logger
}

// Store is an in-memory session registry. Expired sessions are swept on
// access, and at MaxSessions the least recently used one is evicted.
type Store struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Surfaces == nil {
		opts.Surfaces = surface.NewSceneFactory(surface.DefaultViewport)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{opts: opts, log: log, now: time.Now, sessions: make(map[string]*Session)}
}

// Get returns the live session id and refreshes its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	st.sweep()
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// GetOrCreate returns the session id, or a new session when id is unknown
// or expired. created reports which.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

// Create starts a new session with a fresh id.
func (st *Store) Create() *Session {
	id := uuid.NewString()
	log := st.log.With("session", id)
	s := &Session{
		ID:       id,
		Surface:  surface.NewHost(st.opts.Surfaces, log),
		lastSeen: st.now(),
	}
	s.Capture = capture.NewService(st.opts.Rasterizer, s.onReady, log)
	s.Coordinator = control.New(s.Capture, s.Surface, st.opts.Export, "", log)

	st.mu.Lock()
	var evicted *Session
	if len(st.sessions) >= st.opts.MaxSessions {
		evicted = st.oldestLocked()
		delete(st.sessions, evicted.ID)
	}
	st.sessions[id] = s
	st.mu.Unlock()

	if evicted != nil {
		evicted.Surface.Close()
		st.log.Info("session evicted", "session", evicted.ID, "max", st.opts.MaxSessions)
	}
	log.Debug("session created")
	return s
}

func (st *Store) oldestLocked() *Session {
	var oldest *Session
	var at time.Time
	for _, s := range st.sessions {
		if seen := s.idleSince(); oldest == nil || seen.Before(at) {
			oldest, at = s, seen
		}
	}
	return oldest
}

// Len returns the number of held sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	return st.sweep()
}

func (st *Store) sweep() int {
	cutoff := st.now().Add(-st.opts.TTL)
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Surface.Close()
		st.log.Debug("session expired", "session", s.ID)
	}
	return len(expired)
}

// Close disposes every session.
func (st *Store) Close() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range all {
		s.Surface.Close()
	}
}
