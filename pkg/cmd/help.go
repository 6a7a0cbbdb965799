package cmd

import (
	"fmt"
	"os"
)

// HandleHelpCommand displays help information for the application
func HandleHelpCommand() {
	showMainHelp()
}

// showMainHelp displays the main application help
func showMainHelp() {
	programName := os.Args[0]
	fmt.Printf(`sniffctl - Sniffer Configuration Manager

A terminal-based UI for creating, editing, starting and stopping sniffers
through a sniffer control service, with config import and export.

Usage:
  %s [command]

Available Commands:
  list     List sniffers on the control service
  export   Write all sniffer configs to config.json
  apply    Create sniffers from a config file
  prune    Remove sniffers missing from a config file
  serve    Run a local reference control service
  help     Show help information

Options:
  -h, --help  Show help information

Interactive Mode:
  Run without any command to start the interactive TUI where you can:
  - Press n to add a draft, Enter to fill in its fields, e to save it
  - Press e on a saved sniffer to edit it, e again to save the changes
  - Press s / x to start or stop a sniffer, d to delete it
  - Use Ctrl+E / Ctrl+O to export or import config.json

Settings are read from ~/.sniffctl/config.yaml.

Examples:
  %s                              Start interactive TUI
  %s serve --db :memory:          Run a throwaway control service
  %s apply -f config.json         Create the sniffers listed in config.json
  %s help                         Show this help message
`, programName, programName, programName, programName, programName)
}

// ShowMainHelpAndExit displays help and exits with code 0
func ShowMainHelpAndExit() {
	showMainHelp()
	os.Exit(0)
}
