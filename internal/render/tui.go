package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/omochice/chatview/internal/chat"
)

const rosterWidth = 24

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selfStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	fromStyle  = lipgloss.NewStyle().Bold(true)
	stampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	imageStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("13"))
	paneStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
)

type snapshotMsg struct {
	view chat.ViewModel
}

// Snapshot wraps a view model for delivery with tea.Program.Send.
func Snapshot(vm chat.ViewModel) tea.Msg {
	return snapshotMsg{view: vm}
}

// TUI is a bubbletea model showing the roster beside the timeline with an
// input line underneath.
type TUI struct {
	username string
	submit   func(text string)

	view     chat.ViewModel
	input    textinput.Model
	timeline viewport.Model
}

// NewTUI creates the model. submit is called from Update with the input
// line when Enter is pressed; it must not wait on the program.
func NewTUI(username string, submit func(text string)) *TUI {
	ti := textinput.New()
	ti.Placeholder = "Message"
	ti.Prompt = "> "
	ti.Focus()

	return &TUI{
		username: username,
		submit:   submit,
		input:    ti,
		timeline: viewport.New(80, 20),
	}
}

// Init implements tea.Model.
func (m *TUI) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.view = msg.view
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			// Blank lines stay in the box, like the session buffer.
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			if m.submit != nil {
				m.submit(text)
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *TUI) View() string {
	roster := paneStyle.
		Width(rosterWidth).
		Height(m.timeline.Height).
		Render(m.rosterView())
	timeline := paneStyle.Render(m.timeline.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, roster, timeline),
		m.input.View(),
	)
}

// Input returns the current contents of the input line.
func (m *TUI) Input() string {
	return m.input.Value()
}

func (m *TUI) resize(width, height int) {
	// Two border columns per pane, two border rows plus the input line.
	m.timeline.Width = max(width-rosterWidth-4, 10)
	m.timeline.Height = max(height-3, 3)
	m.input.Width = max(width-len(m.input.Prompt)-1, 10)
	m.refresh()
}

func (m *TUI) refresh() {
	m.timeline.SetContent(m.timelineView())
	m.timeline.GotoBottom()
}

func (m *TUI) rosterView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Users (%d)", len(m.view.Users))))
	for _, u := range m.view.Users {
		b.WriteByte('\n')
		if u.Name == m.username {
			b.WriteString(selfStyle.Render(u.Name))
		} else {
			b.WriteString(u.Name)
		}
	}
	return b.String()
}

func (m *TUI) timelineView() string {
	lines := make([]string, 0, len(m.view.Messages))
	for _, msg := range m.view.Messages {
		sender := m.view.Sender(msg)

		var b strings.Builder
		if msg.Timestamp != "" {
			b.WriteString(stampStyle.Render("[" + msg.Timestamp + "]"))
			b.WriteByte(' ')
		}
		b.WriteString(fromStyle.Render(sender.Name))
		b.WriteString(": ")
		if strings.HasSuffix(msg.Body, ".gif") {
			b.WriteString(imageStyle.Render("<image " + msg.Body + ">"))
		} else {
			b.WriteString(msg.Body)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

