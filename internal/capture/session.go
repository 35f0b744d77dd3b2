package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultResponse is the HTML page served to the browser when the caller
// supplies no override. Served for valid and invalid redirects alike.
const DefaultResponse = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Complete</h1>
        <p>You may close this window and return to the application.</p>
    </div>
</body>
</html>
`

// defaultConnTimeout bounds reads and writes on one connection when the
// config leaves the timeouts zero, so an unresponsive client cannot pin a
// handler indefinitely.
const defaultConnTimeout = 10 * time.Second

// snippetLimit caps the request excerpt carried by invalid-redirect events.
const snippetLimit = 120

// Config describes one capture session. Copied at Start; later mutation by
// the caller has no effect.
type Config struct {
	// Ports is the ordered candidate list. Empty requests an ephemeral port.
	Ports []int
	// Response overrides the HTML document served to the browser.
	Response string
	// ReadTimeout and WriteTimeout bound each connection. Zero applies the
	// 10s default.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// session owns one bound listener and its serve loop. Created by
// Registry.Start, destroyed exactly once by Registry.Cancel, Registry.Shutdown,
// or a fatal listener error.
type session struct {
	port     int
	listener net.Listener
	server   *http.Server
	response string

	// events is the ordered per-session queue between connection handlers and
	// the dispatch goroutine that fans out to subscribers.
	events   chan Event
	stopped  chan struct{}
	finished sync.Once

	broker  *broker
	logger  *log.Logger
	onFatal func(port int, err error)
}

func newSession(listener net.Listener, port int, cfg Config, b *broker, logger *log.Logger, onFatal func(int, error)) *session {
	response := cfg.Response
	if response == "" {
		response = DefaultResponse
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = defaultConnTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = defaultConnTimeout
	}

	s := &session{
		port:     port,
		listener: listener,
		response: response,
		events:   make(chan Event, 64),
		stopped:  make(chan struct{}),
		broker:   b,
		logger:   logger,
		onFatal:  onFatal,
	}
	s.server = &http.Server{
		Handler:      http.HandlerFunc(s.handle),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// run spawns the serve loop and the event dispatcher.
func (s *session) run() {
	go s.dispatch()
	go s.serve()
}

// serve drives the accept loop until Shutdown closes the listener. Any other
// exit is a fatal listener failure: the session is reported once and removed.
func (s *session) serve() {
	err := s.server.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("listener failed", "port", s.port, "error", err)
		if s.onFatal != nil {
			s.onFatal(s.port, err)
		}
		s.emit(Event{Kind: EventListenerLost, Port: s.port, Err: err})
		s.finish()
	}
}

// stop shuts the server down cooperatively: no new connections are accepted,
// in-flight responses finish, and the listening socket is fully released
// before stop returns. Safe to call concurrently and repeatedly.
func (s *session) stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.finish()
	return err
}

func (s *session) finish() {
	s.finished.Do(func() { close(s.stopped) })
}

// dispatch forwards queued events to the broker in enqueue order, draining
// whatever remains once the session stops.
func (s *session) dispatch() {
	for {
		select {
		case ev := <-s.events:
			s.broker.publish(ev)
		case <-s.stopped:
			for {
				select {
				case ev := <-s.events:
					s.broker.publish(ev)
				default:
					return
				}
			}
		}
	}
}

// emit queues an event for dispatch. If the dispatcher has already exited it
// publishes directly so no connection's outcome is lost.
func (s *session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.stopped:
		s.broker.publish(ev)
	}
}

// handle processes one redirect request: classify it, queue exactly one
// event, and answer 200 with the configured page either way. The browser
// never learns whether capture succeeded.
func (s *session) handle(w http.ResponseWriter, r *http.Request) {
	s.emit(s.classify(r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, s.response); err != nil {
		s.logger.Debug("response write failed", "port", s.port, "error", err)
	}
}

// classify applies the minimal validity bar: method GET and a non-empty query
// string. OAuth semantics such as state verification are left to the caller.
func (s *session) classify(r *http.Request) Event {
	if r.Method != http.MethodGet {
		return s.invalid(r, fmt.Sprintf("unsupported method %s, expected GET", r.Method))
	}
	if r.URL.RawQuery == "" {
		return s.invalid(r, "missing query string")
	}

	return Event{
		Kind:     EventCaptured,
		Port:     s.port,
		Redirect: &Redirect{RawURL: r.URL.RequestURI(), Query: r.URL.Query()},
	}
}

func (s *session) invalid(r *http.Request, reason string) Event {
	snippet := fmt.Sprintf("%s %s", r.Method, r.URL.RequestURI())
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	s.logger.Warn("invalid redirect", "port", s.port, "reason", reason)

	return Event{Kind: EventInvalid, Port: s.port, Invalid: &Invalid{Reason: reason, Snippet: snippet}}
}
