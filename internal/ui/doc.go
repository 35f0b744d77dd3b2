// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live view over one capture session: start a listener, watch
// captured and invalid redirects arrive as list entries, and cancel the
// session without leaving the terminal.
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Capture events flow in through a [capture.Subscription]; each received
// event re-arms a wait command so delivery stays non-blocking.
//
// Keyboard bindings are vim-style (j/k, s to start, c to cancel, q to quit)
// with contextual help via charmbracelet/bubbles/help.
package ui
