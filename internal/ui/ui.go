package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/loopback/internal/capture"
)

// Model represents the TUI application state: one optional running capture
// session plus the stream of events it produces.
type Model struct {
	ctx      context.Context
	registry *capture.Registry
	cfg      capture.Config
	sub      *capture.Subscription

	port    int
	running bool

	width  int
	height int
	events list.Model
	err    error
	help   help.Model
	keys   keyMap
}

type sessionStartedMsg struct {
	port int
	err  error
}

type sessionCanceledMsg struct {
	err error
}

type eventMsg capture.Event

type subscriptionClosedMsg struct{}

// NewModel creates a TUI model over the given registry and session config.
func NewModel(ctx context.Context, registry *capture.Registry, cfg capture.Config) *Model {
	events := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	events.Title = "Capture Events"
	events.SetShowStatusBar(false)

	return &Model{
		ctx:      ctx,
		registry: registry,
		cfg:      cfg,
		sub:      registry.Subscribe(0),
		events:   events,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init arms the first event wait.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.events.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.start):
			if !m.running {
				return m, m.startSession()
			}
			return m, nil
		case key.Matches(msg, m.keys.cancel):
			if m.running {
				return m, m.cancelSession()
			}
			return m, nil
		}

	case sessionStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.port = msg.port
		m.running = true
		return m, nil

	case sessionCanceledMsg:
		m.err = msg.err
		m.running = false
		return m, nil

	case eventMsg:
		ev := capture.Event(msg)
		if ev.Kind == capture.EventListenerLost && ev.Port == m.port {
			m.running = false
		}
		cmd := m.events.InsertItem(len(m.events.Items()), eventItem{event: ev})
		return m, tea.Batch(cmd, m.waitForEvent())

	case subscriptionClosedMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

// View renders the session status, the event list, and contextual help.
func (m *Model) View() string {
	header := styles.title.Render("loopback")

	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.running:
		status = styles.ok.Render(fmt.Sprintf("Listening on http://127.0.0.1:%d", m.port))
	default:
		status = styles.warn.Render("No active session. Press s to start")
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s",
		header, status, m.events.View(), styles.help.Render(m.help.View(m.keys)))
}

// Close releases the model's event subscription.
func (m *Model) Close() {
	m.sub.Cancel()
}

func (m *Model) startSession() tea.Cmd {
	return func() tea.Msg {
		port, err := m.registry.Start(m.cfg)
		return sessionStartedMsg{port: port, err: err}
	}
}

func (m *Model) cancelSession() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		return sessionCanceledMsg{err: m.registry.Cancel(m.ctx, port)}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.sub.Events()
		if !ok {
			return subscriptionClosedMsg{}
		}
		return eventMsg(ev)
	}
}
