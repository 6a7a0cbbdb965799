package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/appleboy/graceful"

	"github.com/xlttj/sniffctl/pkg/controlsvc"
	"github.com/xlttj/sniffctl/pkg/logging"
)

// HandleServeCommand runs the reference control service.
func HandleServeCommand(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", controlsvc.DefaultAddress, "Listen address")
	dbPath := fs.String("db", "", "Registry database path (default ~/.sniffctl/sniffers.db, or :memory:)")
	logLevel := fs.String("log-level", "info", "Log level")
	parseOrExit(fs, args)

	logging.SetOutput(os.Stderr, *logLevel)

	if *dbPath == "" {
		path, err := controlsvc.DefaultRegistryPath()
		if err != nil {
			fail("%v", err)
		}
		*dbPath = path
	}

	registry, err := controlsvc.OpenRegistry(*dbPath)
	if err != nil {
		fail("%v", err)
	}
	server := controlsvc.NewServer(*addr, registry)

	logger := graceful.NewLogger()
	m := graceful.NewManager(graceful.WithLogger(logger))
	m.AddRunningJob(func(ctx context.Context) error {
		if err := server.Run(ctx); err != nil {
			logger.Errorf("control service: %+v", err)
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		return server.Close()
	})
	m.AddShutdownJob(registry.Close)

	fmt.Printf("Sniffer control service on http://%s (registry %s)\n", *addr, *dbPath)
	<-m.Done()
}
