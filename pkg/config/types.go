package config

import (
	"strconv"

	"github.com/google/uuid"
)

// PortUnset marks a draft whose port has not been entered (or did not parse).
const PortUnset = 0

// SnifferConfig is the persisted configuration of one sniffer.
// Port is the natural key; uniqueness is enforced by the control service.
type SnifferConfig struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Port          int    `json:"port"`
	DownstreamURL string `json:"downstreamUrl"`
}

// HasPort reports whether a usable port has been entered.
func (c SnifferConfig) HasPort() bool {
	return c.Port > PortUnset
}

// HasDownstream reports whether a downstream URL has been entered.
func (c SnifferConfig) HasDownstream() bool {
	return c.DownstreamURL != ""
}

// DisplayName returns the label shown for the sniffer.
func (c SnifferConfig) DisplayName() string {
	if c.Name == "" {
		return "No Name"
	}
	return c.Name
}

// Sniffer is a SnifferConfig as reported by the control service,
// including its running status.
type Sniffer struct {
	SnifferConfig
	IsStarted bool `json:"isStarted"`
}

// Row is a configuration plus transient lifecycle state.
// Config may be partial while the row is a draft, and holds unsaved
// input while a persisted row is being edited. SavedPort is the port the
// control service knows the sniffer by; it is PortUnset for drafts.
type Row struct {
	Key         string
	Config      SnifferConfig
	SavedPort   int
	IsNew       bool
	IsStarted   bool
	IsEditing   bool
	IsCollapsed bool
}

// Field names accepted by UpdateField.
const (
	FieldPort          = "port"
	FieldName          = "name"
	FieldDownstreamURL = "downstreamUrl"
)

// PortKey is the stable key of a row that has been persisted with port.
func PortKey(port int) string {
	return "port:" + strconv.Itoa(port)
}

// NewDraftKey returns a fresh key for a row that has no port yet.
func NewDraftKey() string {
	return "draft:" + uuid.NewString()
}

// NewDraft returns an empty draft row ready for editing.
func NewDraft() Row {
	return Row{
		Key:         NewDraftKey(),
		IsNew:       true,
		IsEditing:   true,
		IsCollapsed: false,
	}
}

// rowFromSniffer tags a backend entry as a persisted, collapsed row.
func rowFromSniffer(s Sniffer) Row {
	return Row{
		Key:         PortKey(s.Port),
		Config:      s.SnifferConfig,
		SavedPort:   s.Port,
		IsNew:       false,
		IsStarted:   s.IsStarted,
		IsEditing:   false,
		IsCollapsed: true,
	}
}
