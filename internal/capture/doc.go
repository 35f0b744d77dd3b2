// Package capture implements a short-lived localhost HTTP listener that acts
// as the redirect target for a browser-based OAuth authorization-code flow.
//
// # Sessions
//
// A session is one bound listening port together with its serve loop. The
// [Registry] owns all sessions: [Registry.Start] selects and binds a port,
// registers the session, and returns the port; [Registry.Cancel] shuts the
// session down gracefully and releases the port. [Registry.Shutdown] reclaims
// every remaining session at process exit.
//
// # Port selection
//
// An explicit candidate list is tried in order and treated as a requirement:
// when every candidate fails to bind, Start fails with a [BindError] rather
// than falling back to an ephemeral port. Only an empty list asks the OS for
// a free port.
//
// # Capture contract
//
// Every connection that parses as an HTTP request produces exactly one event:
// a GET with a non-empty query string yields [EventCaptured] carrying the raw
// URL and decoded parameters, anything else yields [EventInvalid] with a
// human-readable reason. The browser always receives a 200 HTML response
// (configurable per session) regardless of the outcome, so the page the user
// sees never reveals whether capture succeeded.
//
// # Events
//
// [Registry.Subscribe] registers an observer and returns a [Subscription]
// whose Cancel method deregisters it. Delivery is decoupled from connection
// handling through buffered per-subscriber queues; a slow subscriber drops
// events instead of stalling the serve loop.
//
// No OAuth semantics (state verification, token exchange, PKCE) happen here;
// the captured redirect is handed upstream as-is.
package capture
