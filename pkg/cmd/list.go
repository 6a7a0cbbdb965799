package cmd

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xlttj/sniffctl/pkg/config"
)

// HandleListCommand prints the sniffers known to the control service.
func HandleListCommand(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	bf := addBackendFlags(fs, mustSettings())
	parseOrExit(fs, args)

	ctrl := bf.newController()
	if err := ctrl.Reload(rootContext()); err != nil {
		fail("%v", err)
	}

	rows := ctrl.Store().GetAll()
	if len(rows) == 0 {
		fmt.Println("No sniffers configured.")
		return
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("NAME", "PORT", "DOWNSTREAM", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	for _, row := range rows {
		t.Row(row.Config.DisplayName(), strconv.Itoa(row.Config.Port), row.Config.DownstreamURL, status(row))
	}
	fmt.Println(t.Render())
}

func status(row config.Row) string {
	if row.IsStarted {
		return "Running"
	}
	return "Stopped"
}
