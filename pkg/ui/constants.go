package ui

import "github.com/xlttj/sniffctl/pkg/config"

// Table Column Titles
const (
	ColName       = "NAME"
	ColPort       = "PORT"
	ColDownstream = "DOWNSTREAM"
	ColStatus     = "STATUS"
)

// Field editor labels keyed by config field.
const (
	fieldPort       = config.FieldPort
	fieldName       = config.FieldName
	fieldDownstream = config.FieldDownstreamURL
)

var fieldLabels = map[string]string{
	fieldPort:       "Port",
	fieldName:       "Name",
	fieldDownstream: "Downstream Url",
}

var fieldPlaceholders = map[string]string{
	fieldPort:       "1234",
	fieldName:       "name",
	fieldDownstream: "http://example.com",
}

// Keyboard shortcuts
const (
	ShortcutExit     = "ctrl+x"
	ShortcutReload   = "ctrl+r"
	ShortcutExport   = "ctrl+e"
	ShortcutImport   = "ctrl+o"
	ShortcutSaveAll  = "ctrl+s"
	ShortcutNew      = "n"
	ShortcutEdit     = "e"
	ShortcutStart    = "s"
	ShortcutStop     = "x"
	ShortcutDelete   = "d"
	ShortcutCollapse = " "
	ShortcutFields   = "enter"
)

// Numeric Constants for Layout/Indexing
const (
	MinTableHeight     = 4 // Minimum height for tables after calculation
	SniffersViewOffset = 8 // Estimated non-table lines in the sniffers view
	noticeBuffer       = 32
)

// Status Strings - display-only
const (
	StatusDraft   = "Draft"
	StatusEditing = "Editing"
	StatusStopped = "Stopped"
	StatusRunning = "Running"
)

// Lipgloss Colors
const (
	ColorBorder     = "240"
	ColorSelectedFg = "229"
	ColorSelectedBg = "57"
	ColorTitle      = "14"  // Cyan for titles
	ColorHelp       = "245" // Grey for help text
	ColorError      = "9"   // Red for errors
	ColorStatus     = "10"  // Green for info
	ColorEditLabel  = "11"  // Yellow for edit label
)
