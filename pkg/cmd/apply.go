package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/xlttj/sniffctl/pkg/config"
)

// HandleApplyCommand imports a config file and creates every sniffer in it.
func HandleApplyCommand(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	bf := addBackendFlags(fs, mustSettings())
	file := fs.String("f", config.ExportFileName, "Config file to apply")
	fs.Usage = showApplyHelp
	parseOrExit(fs, args)

	data, err := os.ReadFile(*file)
	if err != nil {
		fail("reading %s: %v", *file, err)
	}

	ctrl := bf.newController()
	if err := ctrl.Import(data); err != nil {
		fail("%v", err)
	}

	created, err := ctrl.SaveDrafts(rootContext())
	fmt.Printf("Created %d of %d sniffer(s) from %s\n", created, len(ctrl.Store().Drafts())+created, *file)
	if err != nil {
		fail("%v", err)
	}
}

func showApplyHelp() {
	programName := os.Args[0]
	fmt.Fprintf(os.Stderr, `%s apply - Create sniffers from a config file

Usage:
  %s apply [options]

Options:
  -f string         Config file to apply (default "config.json")
  --backend string  Sniffer control service URL
  --timeout dur     Per-request timeout
  -v                Enable verbose output

Entries whose port is already registered are reported and skipped.
`, programName, programName)
}
