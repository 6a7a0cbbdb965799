package sniffer

import "github.com/xlttj/sniffctl/pkg/config"

// CanCreate reports whether a draft has everything the backend needs.
func CanCreate(row config.Row) bool {
	return row.IsNew && row.Config.HasPort() && row.Config.HasDownstream()
}

// CanEdit reports whether the edit/save affordance is enabled.
// Saving additionally needs a port and a downstream URL.
func CanEdit(row config.Row) bool {
	if row.IsNew || row.IsStarted {
		return false
	}
	if row.IsEditing {
		return row.Config.HasPort() && row.Config.HasDownstream()
	}
	return true
}

// CanStart reports whether a persisted row may be started.
func CanStart(row config.Row) bool {
	return !row.IsNew && !row.IsStarted && !row.IsEditing
}

// CanStop reports whether a row may be stopped.
func CanStop(row config.Row) bool {
	return !row.IsNew && row.IsStarted
}

// CanDelete reports whether a row may be removed. Running rows must be
// stopped first.
func CanDelete(row config.Row) bool {
	return !row.IsStarted
}

// CanMutate reports whether field editors for row accept input.
func CanMutate(row config.Row) bool {
	return row.IsNew || row.IsEditing
}
