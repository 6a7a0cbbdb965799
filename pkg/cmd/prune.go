package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/sniffer"
)

// HandlePruneCommand removes sniffers that are not present in a config file
func HandlePruneCommand(args []string) {
	// Check for help flag in prune subcommand
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			showPruneHelp()
			os.Exit(0)
		}
	}

	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	bf := addBackendFlags(fs, mustSettings())
	file := fs.String("f", config.ExportFileName, "Config file listing the sniffers to keep")
	acceptAll := fs.Bool("y", false, "Delete without prompting")
	fs.Usage = showPruneHelp
	parseOrExit(fs, args)

	data, err := os.ReadFile(*file)
	if err != nil {
		fail("reading %s: %v", *file, err)
	}
	keep, err := config.ParseImport(data)
	if err != nil {
		fail("%v", err)
	}
	wanted := make(map[int]bool, len(keep))
	for _, cfg := range keep {
		wanted[cfg.Port] = true
	}

	ctrl := bf.newController()
	ctx := rootContext()
	if err := ctrl.Reload(ctx); err != nil {
		fail("%v", err)
	}

	var stale, running []config.Row
	for _, row := range ctrl.Store().GetAll() {
		if wanted[row.SavedPort] {
			continue
		}
		if !sniffer.CanDelete(row) {
			running = append(running, row)
			continue
		}
		stale = append(stale, row)
	}

	for _, row := range running {
		fmt.Printf("⚠️  Skipping %s (port %d): stop it first\n", row.Config.DisplayName(), row.Config.Port)
	}
	if len(stale) == 0 {
		fmt.Printf("✅ No stale sniffers to remove.\n")
		return
	}

	fmt.Printf("Found %d stale sniffer(s):\n", len(stale))
	for _, row := range stale {
		fmt.Printf("  - %s (port %d -> %s)\n", row.Config.DisplayName(), row.Config.Port, row.Config.DownstreamURL)
	}
	if !*acceptAll {
		fmt.Print("Delete these sniffers from the control service? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		resp, _ := reader.ReadString('\n')
		resp = strings.TrimSpace(strings.ToLower(resp))
		if resp != "y" && resp != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	deleted := 0
	for _, row := range stale {
		if err := ctrl.Delete(ctx, row.Key); err != nil {
			fmt.Printf("Error deleting port %d: %v\n", row.SavedPort, err)
			continue
		}
		deleted++
	}
	fmt.Printf("🧹 Removed %d stale sniffer(s).\n", deleted)
}

// showPruneHelp displays help for the prune command
func showPruneHelp() {
	programName := os.Args[0]
	fmt.Fprintf(os.Stderr, `%s prune - Remove sniffers missing from a config file

Usage:
  %s prune [options]

Options:
  -f string         Config file listing the sniffers to keep (default "config.json")
  --backend string  Sniffer control service URL
  --timeout dur     Per-request timeout
  -y                Delete without prompting for confirmation
  -v                Enable verbose output
  -h, --help        Show this help message

Running sniffers are never removed; stop them first.
`, programName, programName)
}
