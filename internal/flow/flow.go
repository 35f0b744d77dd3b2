// Package flow drives a browser-based authorization-code flow end to end:
// it starts a capture session, sends the user's browser to the provider, and
// waits for the redirect to come back with a code.
//
// The flow stops at the captured code. Token exchange, PKCE verification, and
// client secrets belong to the host application, not here.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/loopback/internal/capture"
	"github.com/desertthunder/loopback/internal/shared"
	"golang.org/x/oauth2"
)

// defaultTimeout bounds how long Authorize waits for the user to finish in
// the browser.
const defaultTimeout = 2 * time.Minute

// Authorizer runs authorization flows against one provider.
type Authorizer struct {
	registry *capture.Registry
	creds    shared.CredentialsConfig
	logger   *log.Logger
	openURL  func(string) error
	timeout  time.Duration
}

// Opts contains configuration options for creating an Authorizer.
type Opts struct {
	Registry    *capture.Registry
	Credentials shared.CredentialsConfig
	Logger      *log.Logger
	// OpenURL launches the user's browser. Defaults to [shared.OpenBrowser].
	OpenURL func(string) error
	// Timeout bounds the wait for the redirect. Defaults to 2 minutes.
	Timeout time.Duration
}

// New creates an Authorizer with the provided options.
func New(opts Opts) *Authorizer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &Authorizer{
		registry: opts.Registry,
		creds:    opts.Credentials,
		logger:   opts.Logger,
		openURL:  opts.OpenURL,
		timeout:  opts.Timeout,
	}
}

// Result is a completed authorization: the code captured from the redirect,
// verified against the state token the flow generated.
type Result struct {
	Code   string
	State  string
	RawURL string
	Port   int
}

// Authorize starts a capture session, opens the provider's authorization URL
// in the browser, and waits for the redirect. The session is canceled before
// Authorize returns, success or not.
func (a *Authorizer) Authorize(ctx context.Context, cfg capture.Config) (*Result, error) {
	if a.creds.ClientID == "" || a.creds.AuthURL == "" {
		return nil, fmt.Errorf("%w: client_id and auth_url must be set", shared.ErrInvalidConfig)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	sub := a.registry.Subscribe(0)
	defer sub.Cancel()

	port, err := a.registry.Start(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The session may already be gone if the listener was lost.
		if err := a.registry.Cancel(context.Background(), port); err != nil && !errors.Is(err, shared.ErrNotRunning) {
			a.logger.Warn("failed to cancel capture session", "port", port, "error", err)
		}
	}()

	conf := &oauth2.Config{
		ClientID:    a.creds.ClientID,
		RedirectURL: fmt.Sprintf("http://127.0.0.1:%d/callback", port),
		Scopes:      a.creds.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.creds.AuthURL,
			TokenURL: a.creds.TokenURL,
		},
	}
	authURL := conf.AuthCodeURL(state)

	a.logger.Info("waiting for authorization", "port", port, "redirect_uri", conf.RedirectURL)
	if err := a.openURL(authURL); err != nil {
		a.logger.Warn("failed to open browser, open the URL manually", "url", authURL, "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: no redirect within %s", shared.ErrTimeout, a.timeout)
		case ev, ok := <-sub.Events():
			if !ok {
				return nil, fmt.Errorf("event subscription closed before a redirect arrived")
			}
			if ev.Port != port {
				continue
			}

			switch ev.Kind {
			case capture.EventInvalid:
				a.logger.Warn("ignoring invalid redirect", "reason", ev.Invalid.Reason)
			case capture.EventListenerLost:
				return nil, fmt.Errorf("capture server failed: %w", ev.Err)
			case capture.EventCaptured:
				return a.verify(ev, state, port)
			}
		}
	}
}

// verify applies the OAuth-level checks the capture server deliberately
// leaves to its caller.
func (a *Authorizer) verify(ev capture.Event, state string, port int) (*Result, error) {
	query := ev.Redirect.Query

	if errParam := query.Get("error"); errParam != "" {
		return nil, fmt.Errorf("%w: %s: %s", shared.ErrAuthFailed, errParam, query.Get("error_description"))
	}
	if got := query.Get("state"); got != state {
		return nil, fmt.Errorf("%w: got %q", shared.ErrStateMismatch, got)
	}
	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: redirect carried no code", shared.ErrAuthFailed)
	}

	return &Result{Code: code, State: state, RawURL: ev.Redirect.RawURL, Port: port}, nil
}
