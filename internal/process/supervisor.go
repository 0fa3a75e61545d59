package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Supervisor tracks pty children by ID and tears them down together.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu      sync.RWMutex
	handles map[string]*Handle

	// closed indicates Shutdown has started
	closed atomic.Bool

	// maxProcesses limits the number of tracked handles (0 = unlimited)
	maxProcesses int

	grace  time.Duration
	logger *zap.Logger
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent children.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(max int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = max
	}
}

// WithGracePeriod sets the default SIGTERM grace period for launched
// children.
func WithGracePeriod(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// WithLogger sets the logger handed to launched children.
func WithLogger(l *zap.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// NewSupervisor creates a new supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		handles: make(map[string]*Handle),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Launch starts and tracks a child. Options left at their zero value take
// the supervisor's grace period and logger.
//
// Returns ErrSupervisorShutdown once Shutdown has begun.
func (s *Supervisor) Launch(opts Options) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}
	if s.maxProcesses > 0 && len(s.handles) >= s.maxProcesses {
		return nil, fmt.Errorf("%w: %d", ErrLimitReached, s.maxProcesses)
	}

	if opts.GracePeriod == 0 {
		opts.GracePeriod = s.grace
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}

	h, err := launch(uuid.New().String(), opts)
	if err != nil {
		return nil, err
	}
	s.handles[h.ID()] = h
	return h, nil
}

// Get returns the handle with the given ID, or nil.
func (s *Supervisor) Get(id string) *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[id]
}

// List returns all tracked handles ordered by launch time.
func (s *Supervisor) List() []*Handle {
	s.mu.RLock()
	list := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		list = append(list, h)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Started().Before(list[j].Started())
	})
	return list
}

// Count returns the number of tracked handles.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}

// Terminate tears down and forgets one handle.
func (s *Supervisor) Terminate(id string) error {
	s.mu.Lock()
	h, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("terminate %s: %w", id, ErrNotFound)
	}
	return h.Terminate()
}

// Prune terminates and forgets handles whose child has already exited,
// returning how many were removed.
func (s *Supervisor) Prune() int {
	var dead []*Handle
	s.mu.Lock()
	for id, h := range s.handles {
		if !h.IsRunning() {
			dead = append(dead, h)
			delete(s.handles, id)
		}
	}
	s.mu.Unlock()

	for _, h := range dead {
		_ = h.Terminate()
	}
	return len(dead)
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}

// Shutdown terminates every tracked handle concurrently and refuses new
// launches. It returns early with ctx's error if ctx ends first; the
// teardown keeps running in the background and stays bounded.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}

	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.handles = make(map[string]*Handle)
	s.mu.Unlock()

	if len(handles) == 0 {
		return nil
	}
	s.logger.Info("shutting down", zap.Int("processes", len(handles)))

	var g errgroup.Group
	for _, h := range handles {
		g.Go(h.Terminate)
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
