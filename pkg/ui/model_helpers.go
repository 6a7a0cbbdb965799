package ui

import (
	"fmt"
	"strconv"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/sniffer"

	"github.com/charmbracelet/bubbles/table"
)

// generateSnifferRows converts store rows to table rows and records the
// key behind each table row.
func (m *Model) generateSnifferRows(rows []config.Row) []table.Row {
	tableRows := make([]table.Row, 0, len(rows))
	m.rowKeys = m.rowKeys[:0]

	for _, row := range rows {
		port := "-"
		if row.Config.HasPort() {
			port = strconv.Itoa(row.Config.Port)
		}

		downstream := row.Config.DownstreamURL
		if row.IsCollapsed {
			downstream = "…"
		} else if downstream == "" {
			downstream = "-"
		}

		tableRows = append(tableRows, table.Row{
			row.Config.DisplayName(),
			port,
			downstream,
			m.statusText(row),
		})
		m.rowKeys = append(m.rowKeys, row.Key)
	}
	return tableRows
}

// statusText shows the pending operation for a row, else its state.
func (m *Model) statusText(row config.Row) string {
	if op := m.controller.Pending(row.Key); op != sniffer.OpNone {
		return fmt.Sprintf("%s %s", m.spinner.View(), op)
	}
	switch {
	case row.IsNew:
		return StatusDraft
	case row.IsEditing:
		return StatusEditing
	case row.IsStarted:
		return StatusRunning
	}
	return StatusStopped
}

// refreshTable rebuilds the table from the store.
func (m *Model) refreshTable() {
	m.sniffersTable.SetRows(m.generateSnifferRows(m.store.GetAll()))
	if n := len(m.rowKeys); n > 0 && m.sniffersTable.Cursor() >= n {
		m.sniffersTable.SetCursor(n - 1)
	}
}

// selectedRow resolves the table cursor to a row by key, so that a reload
// between render and keypress cannot point at the wrong sniffer.
func (m *Model) selectedRow() (config.Row, error) {
	idx := m.sniffersTable.Cursor()
	if idx < 0 || idx >= len(m.rowKeys) {
		return config.Row{}, fmt.Errorf("no sniffer selected")
	}
	row, ok := m.store.GetByKey(m.rowKeys[idx])
	if !ok {
		return config.Row{}, fmt.Errorf("%w: sniffer changed, try again", config.ErrRowNotFound)
	}
	return row, nil
}
