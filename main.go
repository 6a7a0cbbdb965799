package main

import (
	"fmt"
	"os"

	"github.com/xlttj/sniffctl/pkg/cmd"
	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
	"github.com/xlttj/sniffctl/pkg/sniffer"
	"github.com/xlttj/sniffctl/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if len(os.Args) > 1 {
		args := os.Args[2:]
		switch os.Args[1] {
		case "list":
			cmd.HandleListCommand(args)
		case "export":
			cmd.HandleExportCommand(args)
		case "apply":
			cmd.HandleApplyCommand(args)
		case "prune":
			cmd.HandlePruneCommand(args)
		case "serve":
			cmd.HandleServeCommand(args)
		case "help", "-h", "--help":
			cmd.ShowMainHelpAndExit()
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
			cmd.HandleHelpCommand()
			os.Exit(1)
		}
		return
	}

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if err := logging.Setup(settings.LogFile, settings.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logging.Close()
	logging.LogDebug("sniffctl started, backend %s", settings.BackendURL)

	client := sniffer.NewClient(settings.BackendURL, settings.RequestTimeout)
	notifier := ui.NewNotifier()
	controller := sniffer.NewController(config.NewRowStore(client), client, notifier)

	model := ui.NewModel(controller, notifier, settings)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
