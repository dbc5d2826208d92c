// Package tui is the interactive instrument browser: a grid of the current
// group's instruments, driven by the w/a/s/d keys.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/icco/sc8850/internal/selector"
)

const (
	headerLines = 1
	footerLines = 2 // status + help

	minCellWidth = 4
	cellMargin   = 3

	defaultWidth  = 80
	defaultHeight = 24
)

// Model is the bubbletea model of the browser. All state changes happen in
// Update, so a resize is just another queued message and never interrupts a
// key being handled.
type Model struct {
	ctrl       *selector.Controller
	columns    int
	outputName string

	width    int
	height   int
	firstCol int
	keys     keyMap
	help     help.Model
	lastErr  error
	quitting bool
}

// Option configures the model.
type Option func(*Model)

// WithOutputName shows the destination port in the status line.
func WithOutputName(name string) Option {
	return func(m *Model) {
		m.outputName = name
	}
}

// New returns a browser over ctrl with the given number of grid columns.
// The controller is expected to have sent its initial selection already.
func New(ctrl *selector.Controller, columns int, opts ...Option) Model {
	if columns < 1 {
		columns = 1
	}
	m := Model{
		ctrl:    ctrl,
		columns: columns,
		width:   defaultWidth,
		height:  defaultHeight,
		keys:    newKeyMap(),
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.help.Width = m.width
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextGroup):
			m.apply(selector.NextGroup)
		case key.Matches(msg, m.keys.PrevGroup):
			m.apply(selector.PrevGroup)
		case key.Matches(msg, m.keys.NextInstrument):
			m.apply(selector.NextInstrument)
		case key.Matches(msg, m.keys.PrevInstrument):
			m.apply(selector.PrevInstrument)
		case key.Matches(msg, m.keys.Play):
			m.lastErr = m.ctrl.PlayNote(context.Background())
		}
	}

	return m, nil
}

func (m *Model) apply(a selector.Action) {
	m.lastErr = m.ctrl.Handle(a)
	m.scroll()
}

// rows is how many cells fit in one grid column.
func (m Model) rows() int {
	r := m.height - headerLines - footerLines
	if r < 1 {
		return 1
	}
	return r
}

func (m Model) cellWidth() int {
	w := m.width / m.columns
	if w < minCellWidth {
		return minCellWidth
	}
	return w
}

func (m Model) visibleColumns() int {
	v := m.width / m.cellWidth()
	if v < 1 {
		return 1
	}
	return v
}

// scroll keeps the column of the current instrument on screen.
func (m *Model) scroll() {
	cur := m.ctrl.Cursor().InstrumentIndex() / m.rows()
	visible := m.visibleColumns()
	switch {
	case cur < m.firstCol:
		m.firstCol = cur
	case cur >= m.firstCol+visible:
		m.firstCol = cur - visible + 1
	}
	total := (len(m.ctrl.Cursor().Instruments()) + m.rows() - 1) / m.rows()
	if m.firstCol > total-visible {
		m.firstCol = max(0, total-visible)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.grid())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// header shows the current instrument on the left and the group centred.
func (m Model) header() string {
	left := m.ctrl.Current().String()
	title := strings.ToUpper(m.ctrl.Cursor().Group())

	leftW := ansi.StringWidth(left)
	titleW := ansi.StringWidth(title)
	start := (m.width - titleW) / 2
	if start <= leftW {
		start = leftW + 1
	}
	gap := start - leftW
	rest := m.width - start - titleW
	if rest < 0 {
		rest = 0
	}

	return headerStyle.Render(left+strings.Repeat(" ", gap)) +
		groupStyle.Render(title) +
		headerStyle.Render(strings.Repeat(" ", rest))
}

// grid lays the group out column by column, top to bottom.
func (m Model) grid() string {
	cursor := m.ctrl.Cursor()
	insts := cursor.Instruments()
	current := cursor.InstrumentIndex()

	rows := m.rows()
	cellW := m.cellWidth()
	labelW := cellW - cellMargin
	visible := m.visibleColumns()

	lines := make([]string, rows)
	for r := 0; r < rows; r++ {
		var line strings.Builder
		for c := m.firstCol; c < m.firstCol+visible; c++ {
			idx := c*rows + r
			if idx >= len(insts) {
				break
			}
			label := "[" + fit(insts[idx].Name, labelW) + "]"
			if idx == current {
				line.WriteString(selectedStyle.Render(label))
			} else {
				line.WriteString(cellStyle.Render(label))
			}
			line.WriteString(" ")
		}
		lines[r] = strings.TrimRight(line.String(), " ")
	}
	return strings.Join(lines, "\n")
}

func (m Model) status() string {
	if m.lastErr != nil {
		return errorStyle.Render("Error: " + m.lastErr.Error())
	}
	inst := m.ctrl.Current()
	s := fmt.Sprintf("ch %d  %d/%d", inst.Channel+1, m.ctrl.Cursor().InstrumentIndex()+1, len(m.ctrl.Cursor().Instruments()))
	if m.outputName != "" {
		s += "  → " + m.outputName
	}
	return statusStyle.Render(s)
}

// fit pads or truncates s to exactly w cells.
func fit(s string, w int) string {
	if w < 1 {
		return ""
	}
	s = ansi.Truncate(s, w, "")
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// Run starts the browser on the alternate screen and blocks until quit.
func Run(m Model, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := p.Run()
	return err
}
