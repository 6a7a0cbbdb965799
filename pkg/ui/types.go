package ui

import (
	"github.com/xlttj/sniffctl/pkg/sniffer"
)

// UIState represents the different views/states of the UI
type UIState int

const (
	StateSniffers     UIState = iota // Sniffer table view
	StateFieldEdit                   // Inline field editor for one row
	StateImportPrompt                // Path prompt for ctrl+o
)

// editableFields lists the config fields in editor tab order.
var editableFields = []string{fieldPort, fieldDownstream, fieldName}

// notice is a notification delivered from the controller to the view.
type notice struct {
	text  string
	level sniffer.Level
}

// noticeMsg carries one notice into Update.
type noticeMsg notice

// opDoneMsg is sent when a controller operation returns.
type opDoneMsg struct {
	op  string
	err error
}

// importReadMsg carries the content of the file chosen for import.
type importReadMsg struct {
	path string
	data []byte
	err  error
}
