package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/sniffer"

	tea "github.com/charmbracelet/bubbletea"
)

// updateSniffers handles updates for the StateSniffers
func (m *Model) updateSniffers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case ShortcutReload:
		m.clearMessages()
		return m, m.runOp("reload", m.controller.Reload)
	case ShortcutNew:
		m.clearMessages()
		m.store.AppendDraft()
		m.refreshTable()
		m.sniffersTable.GotoBottom()
		return m, nil
	case ShortcutExport:
		m.clearMessages()
		_ = m.controller.Export(m.exportSink)
		return m, nil
	case ShortcutImport:
		m.clearMessages()
		m.uiState = StateImportPrompt
		m.pathInput.SetValue("")
		m.pathInput.Focus()
		m.sniffersTable.Blur()
		return m, nil
	case ShortcutSaveAll:
		m.clearMessages()
		cmd := m.runOp("save drafts", func(ctx context.Context) error {
			_, err := m.controller.SaveDrafts(ctx)
			return err
		})
		return m, cmd
	}

	switch msg.String() {
	case ShortcutFields, ShortcutEdit, ShortcutStart, ShortcutStop, ShortcutDelete, ShortcutCollapse:
	default:
		// keys not handled above go to the table
		m.sniffersTable, cmd = m.sniffersTable.Update(msg)
		return m, cmd
	}

	m.clearMessages()
	row, err := m.selectedRow()
	if err != nil {
		m.errorMsg = err.Error()
		m.refreshTable()
		return m, nil
	}

	switch msg.String() {
	case ShortcutCollapse:
		_ = m.store.ToggleCollapseByKey(row.Key)
		m.refreshTable()
		return m, nil

	case ShortcutFields:
		if !sniffer.CanMutate(row) {
			m.errorMsg = fmt.Sprintf("%s is read-only, press e to edit", row.Config.DisplayName())
			return m, nil
		}
		m.openEditor(row, 0)
		return m, nil

	case ShortcutEdit:
		if row.IsNew {
			if !sniffer.CanCreate(row) {
				m.errorMsg = "Port and downstream url are required"
				return m, nil
			}
			key := row.Key
			return m, m.runOp("create", func(ctx context.Context) error {
				return m.controller.Create(ctx, key)
			})
		}
		if !sniffer.CanEdit(row) {
			m.errorMsg = m.disabledReason("edit", row)
			return m, nil
		}
		key := row.Key
		if !row.IsEditing {
			// entering edit mode is local; open the editor right away
			_ = m.controller.Edit(context.Background(), key)
			m.refreshTable()
			if updated, ok := m.store.GetByKey(key); ok {
				m.openEditor(updated, 0)
			}
			return m, nil
		}
		return m, m.runOp("edit", func(ctx context.Context) error {
			return m.controller.Edit(ctx, key)
		})

	case ShortcutStart:
		if !sniffer.CanStart(row) {
			m.errorMsg = m.disabledReason("start", row)
			return m, nil
		}
		port := row.SavedPort
		return m, m.runOp("start", func(ctx context.Context) error {
			return m.controller.Start(ctx, port)
		})

	case ShortcutStop:
		if !sniffer.CanStop(row) {
			m.errorMsg = m.disabledReason("stop", row)
			return m, nil
		}
		port := row.SavedPort
		return m, m.runOp("stop", func(ctx context.Context) error {
			return m.controller.Stop(ctx, port)
		})

	case ShortcutDelete:
		if !sniffer.CanDelete(row) {
			m.errorMsg = m.disabledReason("delete", row)
			return m, nil
		}
		key := row.Key
		if row.IsNew {
			_ = m.controller.Delete(context.Background(), key)
			m.refreshTable()
			return m, nil
		}
		return m, m.runOp("delete", func(ctx context.Context) error {
			return m.controller.Delete(ctx, key)
		})
	}

	return m, nil
}

// updateFieldEdit handles the inline field editor.
func (m *Model) updateFieldEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		m.closeEditor()
		return m, nil
	case "tab", "shift+tab":
		if !m.commitField() {
			return m, nil
		}
		step := 1
		if msg.String() == "shift+tab" {
			step = len(editableFields) - 1
		}
		row, ok := m.store.GetByKey(m.editKey)
		if !ok {
			m.closeEditor()
			return m, nil
		}
		m.openEditor(row, (m.editField+step)%len(editableFields))
		return m, nil
	case "enter":
		m.commitField()
		m.closeEditor()
		return m, nil
	default:
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
}

// updateImportPrompt reads the file named in the path prompt.
func (m *Model) updateImportPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		m.closeImportPrompt()
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			path = config.ExportFileName
		}
		m.closeImportPrompt()
		return m, func() tea.Msg {
			data, err := os.ReadFile(path)
			return importReadMsg{path: path, data: data, err: err}
		}
	default:
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}
}

func (m *Model) openEditor(row config.Row, field int) {
	m.uiState = StateFieldEdit
	m.editKey = row.Key
	m.editField = field

	name := editableFields[field]
	value := ""
	switch name {
	case fieldPort:
		if row.Config.HasPort() {
			value = strconv.Itoa(row.Config.Port)
		}
	case fieldDownstream:
		value = row.Config.DownstreamURL
	case fieldName:
		value = row.Config.Name
	}
	m.editInput.Placeholder = fieldPlaceholders[name]
	m.editInput.SetValue(value)
	m.editInput.CursorEnd()
	m.editInput.Focus()
	m.sniffersTable.Blur()
}

// commitField writes the editor value to the store if the row still
// accepts input. It reports whether the editor may stay open.
func (m *Model) commitField() bool {
	row, ok := m.store.GetByKey(m.editKey)
	if !ok || !sniffer.CanMutate(row) {
		m.errorMsg = "Sniffer is no longer editable"
		m.closeEditor()
		return false
	}
	field := editableFields[m.editField]
	if err := m.store.UpdateFieldByKey(m.editKey, field, m.editInput.Value()); err != nil {
		m.errorMsg = err.Error()
		m.closeEditor()
		return false
	}
	m.refreshTable()
	return true
}

func (m *Model) closeEditor() {
	m.uiState = StateSniffers
	m.editKey = ""
	m.editInput.Blur()
	m.sniffersTable.Focus()
	m.refreshTable()
}

func (m *Model) closeImportPrompt() {
	m.uiState = StateSniffers
	m.pathInput.Blur()
	m.sniffersTable.Focus()
}

func (m *Model) clearMessages() {
	m.errorMsg = ""
	m.statusMsg = ""
}

// disabledReason explains why an affordance is disabled for row.
func (m *Model) disabledReason(action string, row config.Row) string {
	name := row.Config.DisplayName()
	switch {
	case row.IsNew && action != "delete":
		return fmt.Sprintf("Cannot %s %s: save the draft first", action, name)
	case row.IsStarted && action != "stop":
		return fmt.Sprintf("Cannot %s %s while it is running", action, name)
	case row.IsEditing && action == "start":
		return fmt.Sprintf("Cannot start %s while editing", name)
	case row.IsEditing && action == "edit":
		return "Port and downstream url are required"
	case !row.IsStarted && action == "stop":
		return fmt.Sprintf("%s is not running", name)
	}
	return fmt.Sprintf("Cannot %s %s", action, name)
}
