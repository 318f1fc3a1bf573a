// Package browse provides the interactive terminal views: a spinner for long
// operations and a split-pane browser over the stored statistics.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobstats/internal/report"
)

// Width of the section list on the left.
const listWidth = 34

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemStyle = lipgloss.NewStyle()

	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg
)

const (
	paneList = iota
	paneContent
)

type browseModel struct {
	sections   []report.Section
	list       viewport.Model
	content    viewport.Model
	activePane int
	cursor     int
	width      int
	height     int
	ready      bool
}

func newBrowseModel(sections []report.Section) browseModel {
	return browseModel{sections: sections}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "left", "right":
			m.activePane = 1 - m.activePane
			m.recalcContent()
			return m, nil
		case "up", "k":
			if m.activePane == paneList {
				m.moveCursor(-1)
				return m, nil
			}
		case "down", "j":
			if m.activePane == paneList {
				m.moveCursor(1)
				return m, nil
			}
		case "enter":
			if m.activePane == paneList {
				m.activePane = paneContent
				m.recalcContent()
				return m, nil
			}
		}

		// Forward scrolling keys (pgup/pgdn/home/end) to the active viewport.
		var cmd tea.Cmd
		if m.activePane == paneList {
			m.list, cmd = m.list.Update(msg)
		} else {
			m.content, cmd = m.content.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *browseModel) moveCursor(delta int) {
	next := clamp(m.cursor+delta, 0, max(len(m.sections)-1, 0))
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.recalcContent()
	m.content.GotoTop()

	if m.cursor < m.list.YOffset {
		m.list.SetYOffset(m.cursor)
	} else if m.cursor >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// Two borders per pane plus a one-column gap.
	contentWidth := max(m.width-listWidth-5, 20)

	// Header, border top/bottom and status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.list = viewport.New(listWidth, paneHeight)
		m.content = viewport.New(contentWidth, paneHeight)
		m.ready = true
	} else {
		m.list.Width = listWidth
		m.list.Height = paneHeight
		m.content.Width = contentWidth
		m.content.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.list.SetContent(renderList(m.sections, m.cursor, m.activePane == paneList))
	if len(m.sections) == 0 {
		m.content.SetContent("  (nothing stored yet, run `jobstats run` first)")
		return
	}
	m.content.SetContent(m.sections[m.cursor].Table)
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	listHeader := fmt.Sprintf(" Sections (%d)", len(m.sections))
	contentHeader := " "
	if len(m.sections) > 0 {
		contentHeader = " " + m.sections[m.cursor].Title
	}

	listHeaderStyle, contentHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	listBorder, contentBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == paneContent {
		listHeaderStyle, contentHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		listBorder, contentBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(m.list.Width+2).Render(listHeaderStyle.Render(listHeader)),
		" ",
		lipgloss.NewStyle().Width(m.content.Width+2).Render(contentHeaderStyle.Render(contentHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listBorder.Width(m.list.Width).Render(m.list.View()),
		" ",
		contentBorder.Width(m.content.Width).Render(m.content.View()),
	)

	statusText := fmt.Sprintf(" %d/%d    ←/→/Tab switch  ↑/↓ move  Enter open  PgUp/PgDn scroll  q quit",
		min(m.cursor+1, len(m.sections)), len(m.sections))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func renderList(sections []report.Section, cursor int, isActive bool) string {
	if len(sections) == 0 {
		return "  (no sections)"
	}

	var b strings.Builder
	for i, s := range sections {
		style, prefix := itemStyle, "  "
		if i == cursor {
			prefix = "> "
			if isActive {
				style = selectedItemStyle
			}
		}
		b.WriteString(prefix)
		b.WriteString(style.Render(s.Title))
		if i < len(sections)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run launches the full-screen browser over sections.
func Run(sections []report.Section) error {
	p := tea.NewProgram(newBrowseModel(sections), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
