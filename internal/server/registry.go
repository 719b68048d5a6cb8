package server

import (
	"sync"

	"github.com/longkey1/shopadvice/internal/advice"
)

// SessionFactory creates a fresh advice session for a new visitor.
type SessionFactory func() *advice.Session

// registry maps visitor ids to their advice sessions. Sessions are stored only once a visitor
// has submitted a message; reads never add entries.
type registry struct {
	mu       sync.Mutex
	factory  SessionFactory
	sessions map[string]*advice.Session
}

func newRegistry(factory SessionFactory) *registry {
	return &registry{
		factory:  factory,
		sessions: make(map[string]*advice.Session),
	}
}

// lookup returns the stored session for id, if any.
func (r *registry) lookup(id string) (*advice.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	return sess, ok
}

// getOrCreate returns the session for id, storing a new one on first use.
func (r *registry) getOrCreate(id string) *advice.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		sess = r.factory()
		r.sessions[id] = sess
	}
	return sess
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
