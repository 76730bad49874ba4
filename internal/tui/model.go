package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/pkg/types"
)

// clockInterval redraws the "ago" label between refreshes.
const clockInterval = time.Second

type boardMsg struct{}
type clockMsg time.Time

// Model is the bubbletea model of the live board.
type Model struct {
	snapshot func() types.Board
	changes  <-chan struct{}

	board   types.Board
	spinner spinner.Model
	width   int
	now     time.Time
}

// NewModel returns a Model that reads boards from snapshot and redraws on
// every value received from changes.
func NewModel(snapshot func() types.Board, changes <-chan struct{}) Model {
	return Model{
		snapshot: snapshot,
		changes:  changes,
		board:    snapshot(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		now:      time.Now(),
	}
}

// Run shows the live board until ctx is cancelled or the user quits.
func Run(ctx context.Context, st *store.Store) error {
	changes, cancel := st.Subscribe()
	defer cancel()

	p := tea.NewProgram(NewModel(st.Snapshot, changes), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange(), tick())
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return boardMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case boardMsg:
		m.board = m.snapshot()
		return m, m.waitForChange()
	case clockMsg:
		m.now = time.Time(msg)
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	out := Render(m.board, m.width, m.now)
	if m.board.Loading {
		out += m.spinner.View() + " fetching scores\n"
	}
	return out + "\n" + newStyles(m.board.BrandColor).Muted.Render("q: quit") + "\n"
}

// Board returns the board currently on screen.
func (m Model) Board() types.Board { return m.board }
