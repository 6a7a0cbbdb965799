package sniffer

import (
	"github.com/xlttj/sniffctl/pkg/logging"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notifier receives fire-and-forget user notifications.
type Notifier interface {
	Notify(message string, level Level)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, level Level)

func (f NotifierFunc) Notify(message string, level Level) {
	f(message, level)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(message string, level Level) {
	if level == LevelError {
		logging.LogError("%s", message)
		return
	}
	logging.LogInfo("%s", message)
}

// Notification messages.
const (
	MsgLoadFailed     = "Failed to get config"
	MsgCreated        = "Created sniffer"
	MsgCreateFailed   = "Failed to create sniffer"
	MsgEditMode       = "Sniffer in edit mode"
	MsgSaved          = "Changes were saved"
	MsgEditFailed     = "Failed to edit config"
	MsgStartFailed    = "Failed to start sniffer"
	MsgStopFailed     = "Failed to stop sniffer"
	MsgRemoved        = "Removed sniffer successfully"
	MsgRemoveFailed   = "Failed to remove sniffer"
	MsgImported       = "Successfully set the config file"
	MsgImportFailed   = "Failed to import config"
	MsgExported       = "Exported config.json"
	MsgExportFailed   = "Failed to export config"
	MsgNothingToSave  = "No drafts ready to save"
	MsgDraftsCreated  = "Created %d sniffers"
	MsgDraftSaveError = "Failed to create sniffer on port %d"
)
