package cmd

import (
	"flag"

	"github.com/xlttj/sniffctl/pkg/config"
)

// HandleExportCommand writes the control service's configs to config.json.
func HandleExportCommand(args []string) {
	settings := mustSettings()
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	bf := addBackendFlags(fs, settings)
	dir := fs.String("dir", settings.ExportDir, "Directory to write "+config.ExportFileName+" into")
	parseOrExit(fs, args)

	ctrl := bf.newController()
	if err := ctrl.Reload(rootContext()); err != nil {
		fail("%v", err)
	}
	if err := ctrl.Export(config.DirSink{Dir: *dir}); err != nil {
		fail("%v", err)
	}
}
