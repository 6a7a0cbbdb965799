package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current model state
func (m *Model) View() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render("Sniffers")

	help := "N: New | Enter: Fields | E: Edit/Save | S: Start | X: Stop | D: Delete | Space: Collapse | Ctrl+S: Save Drafts | Ctrl+E: Export | Ctrl+O: Import | Q: Quit"
	if m.width < 120 {
		help = "N:New | Enter:Fields | E:Edit/Save | S:Start | X:Stop | D:Delete | Ctrl+S/E/O | Q:Quit"
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	helpText := helpStyle.Render(help)

	tableView := lipgloss.PlaceHorizontal(m.width, lipgloss.Left, m.sniffersTable.View())

	var top string
	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(helpText)
	if spacing > 0 {
		top = lipgloss.JoinHorizontal(lipgloss.Left, title, strings.Repeat(" ", spacing), helpText)
	} else {
		top = lipgloss.JoinVertical(lipgloss.Left, title, helpText)
	}

	parts := []string{top, "", tableView}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorEditLabel))
	switch m.uiState {
	case StateFieldEdit:
		label := labelStyle.Render(fieldLabels[editableFields[m.editField]] + ": ")
		parts = append(parts, label+m.editInput.View()+" (Tab: next field, Enter: done, Esc: cancel)")
	case StateImportPrompt:
		label := labelStyle.Render("Import file: ")
		parts = append(parts, label+m.pathInput.View()+" (Enter to import, Esc to cancel)")
	}

	if m.errorMsg != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		parts = append(parts, errorStyle.Render(fmt.Sprintf("ERROR: %s", m.errorMsg)))
	} else if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorStatus))
		parts = append(parts, statusStyle.Render(m.statusMsg))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
