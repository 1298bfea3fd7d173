package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nsd/internal/discovery"
)

// RefreshInterval is how often the live view redraws without a change
const RefreshInterval = time.Second

// Messages delivered to LiveModel
type (
	tickMsg   time.Time
	changeMsg []discovery.Service
	errMsg    struct{ err error }
)

// liveKeyMap defines key bindings for the live view
type liveKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Help key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k liveKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k liveKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Help, k.Quit},
	}
}

func newLiveKeyMap() liveKeyMap {
	return liveKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// LiveModel is a Bubble Tea model showing the discovery registry.
//
// Snapshots arrive on the changes channel (typically fed from the engine's
// change callback) and engine errors on the errs channel. Either channel may
// be nil.
type LiveModel struct {
	title    string
	table    table.Model
	help     help.Model
	keys     liveKeyMap
	changes  <-chan []discovery.Service
	errs     <-chan error
	services []discovery.Service
	updated  time.Time
	lastErr  error
	now      func() time.Time
	width    int
	height   int
	quitting bool
}

// NewLiveModel creates a live view seeded with an initial snapshot
func NewLiveModel(title string, initial []discovery.Service, changes <-chan []discovery.Service, errs <-chan error) LiveModel {
	width, height := GetTerminalSize()

	t := table.New(
		table.WithColumns(serviceTableColumns(width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(MutedColor).
		BorderBottom(true).
		Foreground(PrimaryColor).
		Bold(true)
	s.Selected = s.Selected.Foreground(TextColor).Background(PrimaryColor).Bold(false)
	t.SetStyles(s)

	m := LiveModel{
		title:    title,
		table:    t,
		help:     help.New(),
		keys:     newLiveKeyMap(),
		changes:  changes,
		errs:     errs,
		services: initial,
		now:      time.Now,
		width:    width,
		height:   height,
	}
	m.updated = m.now()
	m.refresh()
	return m
}

// WithNow replaces the time source used for ages and the status bar
func (m LiveModel) WithNow(now func() time.Time) LiveModel {
	m.now = now
	m.updated = now()
	m.refresh()
	return m
}

// Services returns the snapshot currently displayed
func (m LiveModel) Services() []discovery.Service {
	return m.services
}

// LastError returns the most recent engine error, if any
func (m LiveModel) LastError() error {
	return m.lastErr
}

// Init implements tea.Model
func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(tick(), waitForChange(m.changes), waitForError(m.errs))
}

// Update implements tea.Model
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height
		m.help.Width = m.width
		m.table.SetColumns(serviceTableColumns(m.width))
		m.table.SetHeight(tableHeight(m.height))
		return m, nil

	case changeMsg:
		m.services = []discovery.Service(msg)
		m.updated = m.now()
		m.refresh()
		return m, waitForChange(m.changes)

	case errMsg:
		m.lastErr = msg.err
		return m, waitForError(m.errs)

	case tickMsg:
		m.refresh()
		return m, tick()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m LiveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderTitleStyle.Render(strings.ToUpper(m.title)))
	b.WriteString("\n\n")

	if len(m.services) == 0 {
		b.WriteString(EmptyStyle.Render("No services discovered yet"))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Render(m.table.View()))
	}
	b.WriteString("\n")

	noun := "services"
	if len(m.services) == 1 {
		noun = "service"
	}
	b.WriteString(StatusBarStyle.Render(fmt.Sprintf("%d %s • updated %s ago",
		len(m.services), noun, FormatAge(m.now().Sub(m.updated)))))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(ErrorMessageStyle.PaddingLeft(2).Render(FailureMarker + " " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.help.View(m.keys)))
	return b.String()
}

// refresh rebuilds table rows from the current snapshot
func (m *LiveModel) refresh() {
	now := m.now()
	rows := make([]table.Row, 0, len(m.services))
	for i := range m.services {
		rows = append(rows, table.Row(ServiceRow(&m.services[i], now)))
	}
	m.table.SetRows(rows)
}

func serviceTableColumns(width int) []table.Column {
	// ADDRESS, SERVICE, HOST, SCOPE and AGE are fixed, URL takes the rest
	fixed := []int{15, 18, 16, 10, 7}
	used := 0
	for _, w := range fixed {
		used += w + 2
	}
	urlWidth := clampWidth(width) - used - 4
	if urlWidth < 20 {
		urlWidth = 20
	}
	return []table.Column{
		{Title: ServiceColumns[0], Width: fixed[0]},
		{Title: ServiceColumns[1], Width: fixed[1]},
		{Title: ServiceColumns[2], Width: fixed[2]},
		{Title: ServiceColumns[3], Width: urlWidth},
		{Title: ServiceColumns[4], Width: fixed[3]},
		{Title: ServiceColumns[5], Width: fixed[4]},
	}
}

func tableHeight(height int) int {
	// title, borders, status bar and help
	h := height - 10
	if h < 3 {
		return 3
	}
	return h
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan []discovery.Service) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		services, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(services)
	}
}

func waitForError(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return errMsg{err: err}
	}
}

// RunLive runs the live view until the user quits or ctx is cancelled.
func RunLive(ctx context.Context, m LiveModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
