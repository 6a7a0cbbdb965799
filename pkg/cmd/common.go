package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
	"github.com/xlttj/sniffctl/pkg/sniffer"
)

// backendFlags are shared by every subcommand that talks to the control service.
type backendFlags struct {
	url     *string
	timeout *time.Duration
	verbose *bool
}

func addBackendFlags(fs *flag.FlagSet, settings config.Settings) backendFlags {
	return backendFlags{
		url:     fs.String("backend", settings.BackendURL, "Sniffer control service URL"),
		timeout: fs.Duration("timeout", settings.RequestTimeout, "Per-request timeout"),
		verbose: fs.Bool("v", false, "Verbose output"),
	}
}

// newController builds a store and controller that report to stderr.
func (f backendFlags) newController() *sniffer.Controller {
	level := "info"
	if *f.verbose {
		level = "debug"
	}
	logging.SetOutput(os.Stderr, level)

	client := sniffer.NewClient(*f.url, *f.timeout)
	store := config.NewRowStore(client)
	return sniffer.NewController(store, client, sniffer.LogNotifier{})
}

func mustSettings() config.Settings {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	return settings
}

func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Error parsing arguments: %v\n", err)
		os.Exit(1)
	}
}

func rootContext() context.Context {
	return context.Background()
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
