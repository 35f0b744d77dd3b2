package capture

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/loopback/internal/shared"
)

// Registry tracks every active capture session by port. It is the only
// cross-call shared mutable state in the package; construct one in the
// application's composition layer and tear it down with Shutdown at exit.
type Registry struct {
	mu       sync.Mutex
	sessions map[int]*session
	broker   *broker
	logger   *log.Logger
}

// NewRegistry creates an empty registry. A nil logger falls back to the
// shared default.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Registry{
		sessions: make(map[int]*session),
		broker:   newBroker(logger),
		logger:   logger,
	}
}

// Start selects and binds a port per cfg, registers a new session under it,
// and returns the bound port. On failure it returns a [BindError] and leaves
// the registry unchanged.
//
// A returned port can never collide with an existing session: the selector
// only proposes a port it just bound, and a port this process already holds
// fails the bind probe.
func (r *Registry) Start(cfg Config) (int, error) {
	listener, port, err := bindFirst(cfg.Ports)
	if err != nil {
		return 0, err
	}

	s := newSession(listener, port, cfg, r.broker, r.logger, r.forget)

	r.mu.Lock()
	r.sessions[port] = s
	r.mu.Unlock()

	s.run()
	r.logger.Info("capture session started", "port", port)

	return port, nil
}

// Cancel stops the session on the given port and releases it. The call
// returns only after the socket is closed, so an immediate Start on the same
// port will not collide. A port with no session fails with [NotRunningError].
// Concurrent cancels on the same port never deadlock or double-close; the
// loser observes the removal.
func (r *Registry) Cancel(ctx context.Context, port int) error {
	r.mu.Lock()
	s, ok := r.sessions[port]
	if ok {
		delete(r.sessions, port)
	}
	r.mu.Unlock()

	if !ok {
		return &NotRunningError{Port: port}
	}

	if err := s.stop(ctx); err != nil {
		return fmt.Errorf("failed to stop session on port %d: %w", port, err)
	}
	r.logger.Info("capture session canceled", "port", port)

	return nil
}

// Shutdown cancels every remaining session so no bound port outlives the
// process's intent.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[int]*session)
	r.mu.Unlock()

	for port, s := range sessions {
		if err := s.stop(ctx); err != nil {
			r.logger.Warn("failed to stop session during shutdown", "port", port, "error", err)
		} else {
			r.logger.Info("capture session canceled", "port", port)
		}
	}
}

// Subscribe registers an observer for capture events across all sessions.
// buffer <= 0 applies the default queue depth.
func (r *Registry) Subscribe(buffer int) *Subscription {
	return r.broker.subscribe(buffer)
}

// Ports returns the ports with active sessions, sorted ascending.
func (r *Registry) Ports() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ports := make([]int, 0, len(r.sessions))
	for port := range r.sessions {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	return ports
}

// forget drops a session whose listener died out from under it. The session
// reports the failure as a listener-lost event; the registry only has to
// keep its port↔session invariant intact.
func (r *Registry) forget(port int, err error) {
	r.mu.Lock()
	delete(r.sessions, port)
	r.mu.Unlock()
	r.logger.Warn("session removed after listener failure", "port", port, "error", err)
}
