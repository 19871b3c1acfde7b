package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/tasks"
)

// userRow is one user's line in the watch view.
type userRow struct {
	userID   string
	status   tasks.SyncStatus
	snapshot *models.TrackSnapshot
	seen     bool // at least one sync completed
}

// Model renders a live view of the sync loop, fed by the engine's progress
// channel. It is a read-only observer: quitting cancels the loop context.
type Model struct {
	updates <-chan tasks.ProgressUpdate
	cancel  context.CancelFunc

	rows    []userRow
	index   map[string]int
	footer  string
	cycles  int
	width   int
	height  int
	help    help.Model
	keys    keyMap
	closing bool
}

// NewModel creates a watch model reading from updates. cancel stops the
// sync engine when the user quits.
func NewModel(updates <-chan tasks.ProgressUpdate, cancel context.CancelFunc) Model {
	return Model{
		updates: updates,
		cancel:  cancel,
		index:   make(map[string]int),
		footer:  "Waiting for first cycle...",
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// progressMsg wraps an engine update for the bubbletea loop.
type progressMsg tasks.ProgressUpdate

// channelClosedMsg signals that the engine stopped producing updates.
type channelClosedMsg struct{}

func waitForProgress(updates <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return channelClosedMsg{}
		}
		return progressMsg(update)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForProgress(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			if m.cancel != nil {
				m.cancel()
			}
			m.closing = true
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		m.apply(tasks.ProgressUpdate(msg))
		return m, waitForProgress(m.updates)

	case channelClosedMsg:
		return m, tea.Quit
	}

	return m, nil
}

// apply folds one engine update into the view state.
func (m *Model) apply(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchUsers, tasks.Sleep:
		m.footer = update.Message

	case tasks.SyncUserStart:
		m.footer = update.Message

	case tasks.SyncUserDone:
		data, ok := update.Data.(*tasks.UserSyncUpdate)
		if !ok {
			return
		}
		idx, known := m.index[data.UserID]
		if !known {
			m.rows = append(m.rows, userRow{userID: data.UserID})
			idx = len(m.rows) - 1
			m.index[data.UserID] = idx
		}
		m.rows[idx].status = data.Status
		m.rows[idx].seen = true
		if data.Snapshot != nil {
			m.rows[idx].snapshot = data.Snapshot
		} else if data.Status == tasks.StatusSynced {
			// Synced but not listening: drop the stale track display.
			m.rows[idx].snapshot = nil
		}

	case tasks.CycleDone:
		m.cycles++
		m.footer = update.Message
	}
}

func (m Model) View() string {
	if m.closing {
		return ""
	}

	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("nowsync · watching %d users · cycle %d", len(m.rows), m.cycles)))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(styles.help.Render("No users synced yet."))
		b.WriteString("\n")
	}

	for _, row := range m.rows {
		b.WriteString(renderRow(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.warn.Render(m.footer))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func renderRow(row userRow) string {
	switch {
	case row.status == tasks.StatusFailed:
		return fmt.Sprintf("%s %s", styles.err.Render("✗"), row.userID)
	case row.status == tasks.StatusSkipped:
		return fmt.Sprintf("%s %s %s", styles.warn.Render("·"), row.userID, styles.help.Render("(no token)"))
	case row.snapshot != nil:
		track := fmt.Sprintf("%s - %s", row.snapshot.Artists, row.snapshot.Name)
		position := fmt.Sprintf("%s / %s", formatMS(row.snapshot.ProgressMS), formatMS(row.snapshot.DurationMS))
		return fmt.Sprintf("%s %s  %s %s", styles.ok.Render("♪"), row.userID, track, styles.help.Render(position))
	default:
		return fmt.Sprintf("%s %s %s", styles.ok.Render("✓"), row.userID, styles.help.Render("(not listening)"))
	}
}

func formatMS(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
