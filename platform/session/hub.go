package session

import (
	"context"
	"sync"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/game"
	log "github.com/sirupsen/logrus"
)

// Loader finds the last known state of a room.
type Loader interface {
	LoadRoom(ctx context.Context, id string) (*models.Room, error)
}

// FinishedGrace is how long a finished room stays live for late readers.
const FinishedGrace = 5 * time.Minute

// Hub keeps one live session per room.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	loading  map[string]*pendingLoad
	retiring map[string]bool
	loader   Loader
	opts     Options
}

// pendingLoad is a room being loaded. Callers asking for the same room wait
// on done instead of loading it again.
type pendingLoad struct {
	done chan struct{}
	s    *Session
	err  error
}

func NewHub(loader Loader, opts Options) *Hub {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	h := &Hub{
		sessions: make(map[string]*Session),
		loading:  make(map[string]*pendingLoad),
		retiring: make(map[string]bool),
		loader:   loader,
	}
	finished := opts.Finished
	opts.Finished = func(id string) {
		if finished != nil {
			finished(id)
		}
		h.retire(id)
	}
	h.opts = opts
	return h
}

// Session returns the live session of a room, loading the room first when
// nobody touched it since start. Loads run outside the hub lock.
func (h *Hub) Session(ctx context.Context, id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if ok {
		return s, nil
	}

	h.mu.Lock()
	if s, ok := h.sessions[id]; ok {
		h.mu.Unlock()
		return s, nil
	}
	l, loading := h.loading[id]
	if !loading {
		l = &pendingLoad{done: make(chan struct{})}
		h.loading[id] = l
	}
	h.mu.Unlock()

	if !loading {
		h.load(ctx, id, l)
	}
	select {
	case <-l.done:
		return l.s, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) load(ctx context.Context, id string, l *pendingLoad) {
	defer close(l.done)
	room, err := h.loader.LoadRoom(ctx, id)

	h.mu.Lock()
	delete(h.loading, id)
	if err != nil {
		h.mu.Unlock()
		l.err = err
		return
	}
	l.s = New(room, h.opts)
	h.sessions[id] = l.s
	h.mu.Unlock()

	log.WithFields(log.Fields{"room": id, "status": room.Status}).Info("session started")
	if room.Status == models.StatusFinished {
		h.retire(id)
	}
}

// Submit routes cmd to the session of roomId.
func (h *Hub) Submit(ctx context.Context, roomId string, actor game.Actor, cmd game.Command) (*models.Room, error) {
	s, err := h.Session(ctx, roomId)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, actor, cmd)
}

func (h *Hub) retire(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.retiring[id] {
		return
	}
	h.retiring[id] = true
	h.opts.Clock.AfterFunc(FinishedGrace, func() { h.Release(id) })
}

// Release closes and forgets the session of a finished room.
func (h *Hub) Release(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	delete(h.retiring, id)
	h.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown closes every session and waits for their saves.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.retiring = make(map[string]bool)
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}
