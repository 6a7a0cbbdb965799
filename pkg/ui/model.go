package ui

import (
	"context"
	"time"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
	"github.com/xlttj/sniffctl/pkg/sniffer"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Notifier is a sniffer.Notifier that hands notices to the UI loop.
// Notify never blocks; notices are dropped when the buffer is full.
type Notifier struct {
	ch chan notice
}

var _ sniffer.Notifier = (*Notifier)(nil)

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan notice, noticeBuffer)}
}

func (n *Notifier) Notify(message string, level sniffer.Level) {
	select {
	case n.ch <- notice{text: message, level: level}:
	default:
		logging.LogError("notice dropped: %s", message)
	}
}

// Model represents the state of the UI
type Model struct {
	uiState UIState

	// Core components
	controller *sniffer.Controller
	store      config.RowStoreInterface
	notices    *Notifier
	exportSink config.FileSink
	opTimeout  time.Duration
	width      int
	height     int

	// Central error message
	errorMsg string
	// Status/info message (non-error feedback)
	statusMsg string

	// Sniffers table, one table row per store row
	sniffersTable table.Model
	rowKeys       []string
	spinner       spinner.Model

	// Field editor state
	editInput textinput.Model
	editKey   string
	editField int

	// Import prompt
	pathInput textinput.Model
}

// calculateColumnWidths returns column widths based on terminal width
func (m *Model) calculateColumnWidths() []table.Column {
	minWidths := map[string]int{
		ColName:       8,
		ColPort:       6,
		ColDownstream: 12,
		ColStatus:     12,
	}

	availableWidth := m.width - 10
	availableWidth = max(availableWidth, 50)

	totalMinWidth := 0
	for _, width := range minWidths {
		totalMinWidth += width
	}
	extraSpace := max(availableWidth-totalMinWidth, 0)

	// Downstream URLs are the longest values, names come next
	downstreamExtra := extraSpace * 55 / 100
	nameExtra := extraSpace * 30 / 100
	statusExtra := extraSpace - downstreamExtra - nameExtra

	return []table.Column{
		{Title: ColName, Width: minWidths[ColName] + nameExtra},
		{Title: ColPort, Width: minWidths[ColPort]},
		{Title: ColDownstream, Width: minWidths[ColDownstream] + downstreamExtra},
		{Title: ColStatus, Width: minWidths[ColStatus] + statusExtra},
	}
}

// NewModel builds the UI around a controller whose notifier is notices.
func NewModel(controller *sniffer.Controller, notices *Notifier, settings config.Settings) *Model {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ColorSelectedFg)).
		Background(lipgloss.Color(ColorSelectedBg)).
		Bold(false)

	ei := textinput.New()
	ei.CharLimit = 256
	ei.Width = 40

	pi := textinput.New()
	pi.Placeholder = config.ExportFileName
	pi.CharLimit = 512
	pi.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		uiState:    StateSniffers,
		controller: controller,
		store:      controller.Store(),
		notices:    notices,
		exportSink: config.DirSink{Dir: settings.ExportDir},
		opTimeout:  settings.RequestTimeout,
		width:      80, // Default width, will be updated on first WindowSizeMsg
		height:     24, // Default height, will be updated on first WindowSizeMsg
		spinner:    sp,
		editInput:  ei,
		pathInput:  pi,
	}

	m.sniffersTable = table.New(
		table.WithColumns(m.calculateColumnWidths()),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(s),
	)
	m.refreshTable()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForNotice(m.notices),
		m.runOp("load", m.controller.Init),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tableHeight := max(m.height-SniffersViewOffset, MinTableHeight)
		m.sniffersTable.SetHeight(tableHeight)
		m.sniffersTable.SetColumns(m.calculateColumnWidths())
		m.refreshTable()
		return m, nil

	case noticeMsg:
		if msg.level == sniffer.LevelError {
			m.errorMsg = msg.text
			m.statusMsg = ""
		} else {
			m.statusMsg = msg.text
			m.errorMsg = ""
		}
		return m, waitForNotice(m.notices)

	case opDoneMsg:
		logging.LogDebug("Operation %s finished: err=%v", msg.op, msg.err)
		m.refreshTable()
		return m, nil

	case importReadMsg:
		if msg.err != nil {
			m.errorMsg = "Cannot read " + msg.path + ": " + msg.err.Error()
			return m, nil
		}
		_ = m.controller.Import(msg.data)
		m.refreshTable()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTable()
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", ShortcutExit:
			return m, tea.Quit
		}

		switch m.uiState {
		case StateSniffers:
			return m.updateSniffers(msg)
		case StateFieldEdit:
			return m.updateFieldEdit(msg)
		case StateImportPrompt:
			return m.updateImportPrompt(msg)
		}
	}

	return m, nil
}

// runOp runs fn off the UI loop and reports completion with opDoneMsg.
func (m *Model) runOp(name string, fn func(context.Context) error) tea.Cmd {
	timeout := m.opTimeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			// create/edit issue a request plus a reload
			ctx, cancel = context.WithTimeout(ctx, 2*timeout)
			defer cancel()
		}
		return opDoneMsg{op: name, err: fn(ctx)}
	}
}

func waitForNotice(n *Notifier) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-n.ch)
	}
}
